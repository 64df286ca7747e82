package dispatch

import "skylink/config"

// EncoderControl is the hardware collaborator for the encoder sub-commands
// of §4.2. Implementations talk to the actual codec/ISP SDK, which §1 Non-
// goals places out of scope for this module; a stub lives in
// hardware/encoder for local testing without real silicon.
type EncoderControl interface {
	SetFPS(fps int) error
	SetBitrateBps(bps uint32) error
	SetGOP(gop int) error
	SetCodec(c config.Codec) error
	SetVBR(vbr bool) error
	SetPayloadSize(size int) error
}

// CameraControl is the hardware collaborator for the per-camera image
// tuning sub-commands of §4.2, addressed by device index.
type CameraControl interface {
	SetBrightness(idx int, v int32) error
	SetContrast(idx int, v int32) error
	SetSaturation(idx int, v int32) error
	SetSharpness(idx int, v int32) error
	SetHDR(idx int, v bool) error
	SetMirrorFlip(idx int, v uint8) error
	SetFocusMode(idx int, v uint8) error
	SetDetectionEnable(idx int, v bool) error
}

// CameraSelector backs SwitchCameras (§4.2/§4.5): select(target) unbinds
// and deinitializes the current camera, then initializes and binds the
// target, atomically from the caller's perspective.
type CameraSelector interface {
	Select(target int) error
	Current() int
	Total() int
}

// ServiceRestarter backs the Reboot sub-command (§4.2). §1 places the
// operating-system service-restart plumbing out of scope; the concrete
// implementation in this module (hardware/sysservice) drives it over
// D-Bus against systemd instead of shelling out to systemctl.
type ServiceRestarter interface {
	Restart(target uint8) error
}

// TunnelRestarter backs SetGSIP (§4.6): tear down the four relays and
// relaunch them pointed at the new ground-station IP.
type TunnelRestarter interface {
	Restart(remoteIP string) error
}
