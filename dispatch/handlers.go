package dispatch

import (
	"log"

	"skylink/config"
	"skylink/wire"
)

func currentCameraIndex(d *Dispatcher) int {
	if d.cameras == nil {
		return 0
	}
	return d.cameras.Current()
}

// handleSysInfo returns the node's identification string; there is nothing
// to set, so a SET is answered the same way as a GET.
func handleSysInfo(d *Dispatcher, cmd wire.Command) ([]byte, bool) {
	return []byte("skylink-drone"), true
}

// handleFPS is the canonical GET/SET/transactional-rollback shape every
// scalar encoder field follows (§4.2 "Transactional apply").
func handleFPS(d *Dispatcher, cmd wire.Command) ([]byte, bool) {
	enc := d.cfg.GetEncoder()
	if cmd.Kind == wire.CmdGet {
		return wire.PutU32(uint32(enc.FPS)), true
	}

	v, err := wire.GetU32(cmd.Data)
	if err != nil {
		return nil, false
	}

	if d.encoder == nil {
		return wire.PutU32(uint32(enc.FPS)), false
	}

	old := enc.FPS
	if err := d.encoder.SetFPS(int(v)); err != nil {
		log.Println("dispatch: set fps failed, staying at", old, ":", err)
		if rerr := d.encoder.SetFPS(old); rerr != nil {
			log.Println("dispatch: CRITICAL - fps rollback to", old, "also failed:", rerr)
		}
		return wire.PutU32(uint32(old)), false
	}

	enc.FPS = int(v)
	d.cfg.SetEncoder(enc)
	return wire.PutU32(v), true
}

// handleBitrate converts wire kbps to config bps exactly at this boundary
// (Open Questions §9) and restores the previous bps value on setter
// failure, re-reporting it in kbps on NACK (§4.2 invariant 5).
func handleBitrate(d *Dispatcher, cmd wire.Command) ([]byte, bool) {
	enc := d.cfg.GetEncoder()
	if cmd.Kind == wire.CmdGet {
		return wire.PutU32(enc.BitrateBps / 1024), true
	}

	kbps, err := wire.GetU32(cmd.Data)
	if err != nil {
		return nil, false
	}
	newBps := kbps * 1024

	if d.encoder == nil {
		return wire.PutU32(enc.BitrateBps / 1024), false
	}

	oldBps := enc.BitrateBps
	if err := d.encoder.SetBitrateBps(newBps); err != nil {
		log.Println("dispatch: set bitrate", newBps, "bps rejected, restoring", oldBps, "bps:", err)
		if rerr := d.encoder.SetBitrateBps(oldBps); rerr != nil {
			log.Println("dispatch: CRITICAL - bitrate rollback to", oldBps, "bps also failed:", rerr)
		}
		return wire.PutU32(oldBps / 1024), false
	}

	enc.BitrateBps = newBps
	d.cfg.SetEncoder(enc)
	return wire.PutU32(kbps), true
}

func handleGOP(d *Dispatcher, cmd wire.Command) ([]byte, bool) {
	enc := d.cfg.GetEncoder()
	if cmd.Kind == wire.CmdGet {
		return wire.PutU32(uint32(enc.GOP)), true
	}
	v, err := wire.GetU32(cmd.Data)
	if err != nil {
		return nil, false
	}
	if d.encoder == nil {
		return wire.PutU32(uint32(enc.GOP)), false
	}
	old := enc.GOP
	if err := d.encoder.SetGOP(int(v)); err != nil {
		log.Println("dispatch: set gop failed, staying at", old, ":", err)
		if rerr := d.encoder.SetGOP(old); rerr != nil {
			log.Println("dispatch: CRITICAL - gop rollback to", old, "also failed:", rerr)
		}
		return wire.PutU32(uint32(old)), false
	}
	enc.GOP = int(v)
	d.cfg.SetEncoder(enc)
	return wire.PutU32(v), true
}

func handleCodec(d *Dispatcher, cmd wire.Command) ([]byte, bool) {
	enc := d.cfg.GetEncoder()
	if cmd.Kind == wire.CmdGet {
		return []byte{byte(enc.Codec)}, true
	}
	if len(cmd.Data) < 1 {
		return nil, false
	}
	v := config.Codec(cmd.Data[0])
	if d.encoder == nil {
		return []byte{byte(enc.Codec)}, false
	}
	old := enc.Codec
	if err := d.encoder.SetCodec(v); err != nil {
		log.Println("dispatch: set codec failed, staying at", old, ":", err)
		if rerr := d.encoder.SetCodec(old); rerr != nil {
			log.Println("dispatch: CRITICAL - codec rollback to", old, "also failed:", rerr)
		}
		return []byte{byte(old)}, false
	}
	enc.Codec = v
	d.cfg.SetEncoder(enc)
	return []byte{byte(v)}, true
}

func handleVBR(d *Dispatcher, cmd wire.Command) ([]byte, bool) {
	enc := d.cfg.GetEncoder()
	if cmd.Kind == wire.CmdGet {
		return wire.PutBool(enc.VBR), true
	}
	v, err := wire.GetBool(cmd.Data)
	if err != nil {
		return nil, false
	}
	if d.encoder == nil {
		return wire.PutBool(enc.VBR), false
	}
	old := enc.VBR
	if err := d.encoder.SetVBR(v); err != nil {
		log.Println("dispatch: set vbr failed, staying at", old, ":", err)
		if rerr := d.encoder.SetVBR(old); rerr != nil {
			log.Println("dispatch: CRITICAL - vbr rollback to", old, "also failed:", rerr)
		}
		return wire.PutBool(old), false
	}
	enc.VBR = v
	d.cfg.SetEncoder(enc)
	return wire.PutBool(v), true
}

func handlePayloadSize(d *Dispatcher, cmd wire.Command) ([]byte, bool) {
	enc := d.cfg.GetEncoder()
	if cmd.Kind == wire.CmdGet {
		return wire.PutU32(uint32(enc.PayloadSize)), true
	}
	v, err := wire.GetU32(cmd.Data)
	if err != nil {
		return nil, false
	}
	if d.encoder == nil {
		return wire.PutU32(uint32(enc.PayloadSize)), false
	}
	old := enc.PayloadSize
	if err := d.encoder.SetPayloadSize(int(v)); err != nil {
		log.Println("dispatch: set payload size failed, staying at", old, ":", err)
		return wire.PutU32(uint32(old)), false
	}
	enc.PayloadSize = int(v)
	d.cfg.SetEncoder(enc)
	return wire.PutU32(v), true
}

// cameraScalarHandler factors out the repeated GET/SET/rollback shape
// shared by brightness/contrast/saturation/sharpness, which differ only in
// which CameraControl setter and which CameraConfig field they touch.
func cameraScalarHandler(
	setter func(CameraControl, int, int32) error,
	get func(config.CameraConfig) int32,
	set func(*config.CameraConfig, int32),
) handlerFunc {
	return func(d *Dispatcher, cmd wire.Command) ([]byte, bool) {
		idx := currentCameraIndex(d)
		cam := d.cfg.GetCamera(idx)
		if cmd.Kind == wire.CmdGet {
			return wire.PutU32(uint32(int32(get(cam)))), true
		}
		raw, err := wire.GetU32(cmd.Data)
		if err != nil {
			return nil, false
		}
		v := int32(raw)
		if d.camera == nil {
			return wire.PutU32(uint32(get(cam))), false
		}
		old := get(cam)
		if err := setter(d.camera, idx, v); err != nil {
			log.Println("dispatch: camera setter failed, staying at", old, ":", err)
			return wire.PutU32(uint32(old)), false
		}
		set(&cam, v)
		d.cfg.SetCamera(idx, cam)
		return wire.PutU32(uint32(v)), true
	}
}

func handleHDR(d *Dispatcher, cmd wire.Command) ([]byte, bool) {
	idx := currentCameraIndex(d)
	cam := d.cfg.GetCamera(idx)
	if cmd.Kind == wire.CmdGet {
		return wire.PutBool(cam.HDR), true
	}
	v, err := wire.GetBool(cmd.Data)
	if err != nil {
		return nil, false
	}
	if d.camera == nil {
		return wire.PutBool(cam.HDR), false
	}
	old := cam.HDR
	if err := d.camera.SetHDR(idx, v); err != nil {
		log.Println("dispatch: set hdr failed, staying at", old, ":", err)
		return wire.PutBool(old), false
	}
	cam.HDR = v
	d.cfg.SetCamera(idx, cam)
	return wire.PutBool(v), true
}

func handleMirrorFlip(d *Dispatcher, cmd wire.Command) ([]byte, bool) {
	idx := currentCameraIndex(d)
	cam := d.cfg.GetCamera(idx)
	if cmd.Kind == wire.CmdGet {
		return []byte{cam.MirrorFlip}, true
	}
	if len(cmd.Data) < 1 {
		return nil, false
	}
	v := cmd.Data[0]
	if d.camera == nil {
		return []byte{cam.MirrorFlip}, false
	}
	old := cam.MirrorFlip
	if err := d.camera.SetMirrorFlip(idx, v); err != nil {
		log.Println("dispatch: set mirror/flip failed, staying at", old, ":", err)
		return []byte{old}, false
	}
	cam.MirrorFlip = v
	d.cfg.SetCamera(idx, cam)
	return []byte{v}, true
}

func handleFocusMode(d *Dispatcher, cmd wire.Command) ([]byte, bool) {
	idx := currentCameraIndex(d)
	cam := d.cfg.GetCamera(idx)
	if cmd.Kind == wire.CmdGet {
		return []byte{cam.FocusMode}, true
	}
	if len(cmd.Data) < 1 {
		return nil, false
	}
	v := cmd.Data[0]
	if d.camera == nil {
		return []byte{cam.FocusMode}, false
	}
	old := cam.FocusMode
	if err := d.camera.SetFocusMode(idx, v); err != nil {
		log.Println("dispatch: set focus mode failed, staying at", old, ":", err)
		return []byte{old}, false
	}
	cam.FocusMode = v
	d.cfg.SetCamera(idx, cam)
	return []byte{v}, true
}

func handleDetectionEnable(d *Dispatcher, cmd wire.Command) ([]byte, bool) {
	idx := currentCameraIndex(d)
	cam := d.cfg.GetCamera(idx)
	if cmd.Kind == wire.CmdGet {
		return wire.PutBool(cam.Detection), true
	}
	v, err := wire.GetBool(cmd.Data)
	if err != nil {
		return nil, false
	}
	if d.camera == nil {
		return wire.PutBool(cam.Detection), false
	}
	old := cam.Detection
	if err := d.camera.SetDetectionEnable(idx, v); err != nil {
		log.Println("dispatch: set detection enable failed, staying at", old, ":", err)
		return wire.PutBool(old), false
	}
	cam.Detection = v
	d.cfg.SetCamera(idx, cam)
	return wire.PutBool(v), true
}

// handleStreamSelect records which camera feeds the encoder. Unlike
// SwitchCameras (§4.5 bind/unbind lifecycle) this only changes which
// already-bound source the encoder reads from.
func handleStreamSelect(d *Dispatcher, cmd wire.Command) ([]byte, bool) {
	stream := d.cfg.GetStream()
	if cmd.Kind == wire.CmdGet {
		return wire.PutU32(uint32(stream.Selected)), true
	}
	v, err := wire.GetU32(cmd.Data)
	if err != nil {
		return nil, false
	}
	stream.Selected = int(v)
	d.cfg.SetStream(stream)
	return wire.PutU32(v), true
}

func handleWFBKey(d *Dispatcher, cmd wire.Command) ([]byte, bool) {
	stream := d.cfg.GetStream()
	if cmd.Kind == wire.CmdGet {
		return []byte(stream.WFBKey), true
	}
	stream.WFBKey = string(cmd.Data)
	d.cfg.SetStream(stream)
	return cmd.Data, true
}
