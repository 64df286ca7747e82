// Package dispatch implements the drone-side command dispatcher of §4.2:
// it interprets GET/SET sub-commands against the live configuration,
// applies each change to the hardware pipeline with transactional
// rollback on failure, and acknowledges with the effective value.
//
// The receive thread that feeds Handle serializes all command dispatch, so
// no handler ever races another handler (§4.2 "State machine"); the only
// shared state is the *config.Config record itself.
package dispatch

import (
	"log"
	"net"

	"skylink/config"
	"skylink/wire"
)

// Sender is the subset of *link.Peer the dispatcher needs to reply. Taking
// an interface instead of the concrete type keeps this package testable
// without opening a real socket.
type Sender interface {
	SendCmd(kind wire.CmdKind, sub wire.SubCmd, data []byte) error
}

// Dispatcher wires the flat sub-command namespace to the hardware
// collaborators that actually apply each change (Design Notes §9: "The
// flat subcmd_id namespace maps naturally to a tagged variant with a
// payload schema").
type Dispatcher struct {
	cfg      *config.Config
	peer     Sender
	encoder  EncoderControl
	camera   CameraControl
	cameras  CameraSelector
	tunnel   TunnelRestarter
	restart  ServiceRestarter
	persist  func() error // SavePersistent collaborator, bound to config paths
	restoreD func() error // RestoreDefault collaborator

	handlers map[wire.SubCmd]handlerFunc
}

// handlerFunc processes one decoded command and returns the ACK/NACK
// payload to send back, plus whether the command was accepted.
type handlerFunc func(d *Dispatcher, cmd wire.Command) (payload []byte, ok bool)

// New builds a Dispatcher. All hardware collaborators are optional except
// cfg and peer; a nil collaborator makes the sub-commands that apply
// changes through it NACK, which is convenient for partial test doubles.
func New(cfg *config.Config, peer Sender, encoder EncoderControl, camera CameraControl, cameras CameraSelector, tunnel TunnelRestarter, restart ServiceRestarter, persist, restoreDefault func() error) *Dispatcher {
	d := &Dispatcher{
		cfg:      cfg,
		peer:     peer,
		encoder:  encoder,
		camera:   camera,
		cameras:  cameras,
		tunnel:   tunnel,
		restart:  restart,
		persist:  persist,
		restoreD: restoreDefault,
	}
	d.handlers = map[wire.SubCmd]handlerFunc{
		wire.SubCmdSysInfo:         handleSysInfo,
		wire.SubCmdFPS:             handleFPS,
		wire.SubCmdBitrate:         handleBitrate,
		wire.SubCmdGOP:             handleGOP,
		wire.SubCmdCodec:           handleCodec,
		wire.SubCmdVBR:             handleVBR,
		wire.SubCmdPayloadSize:     handlePayloadSize,
		wire.SubCmdBrightness:      cameraScalarHandler((CameraControl).SetBrightness, func(c config.CameraConfig) int32 { return c.Brightness }, func(c *config.CameraConfig, v int32) { c.Brightness = v }),
		wire.SubCmdContrast:        cameraScalarHandler((CameraControl).SetContrast, func(c config.CameraConfig) int32 { return c.Contrast }, func(c *config.CameraConfig, v int32) { c.Contrast = v }),
		wire.SubCmdSaturation:      cameraScalarHandler((CameraControl).SetSaturation, func(c config.CameraConfig) int32 { return c.Saturation }, func(c *config.CameraConfig, v int32) { c.Saturation = v }),
		wire.SubCmdSharpness:       cameraScalarHandler((CameraControl).SetSharpness, func(c config.CameraConfig) int32 { return c.Sharpness }, func(c *config.CameraConfig, v int32) { c.Sharpness = v }),
		wire.SubCmdHDR:             handleHDR,
		wire.SubCmdMirrorFlip:      handleMirrorFlip,
		wire.SubCmdFocusMode:       handleFocusMode,
		wire.SubCmdDetectionEnable: handleDetectionEnable,
		wire.SubCmdStreamSelect:    handleStreamSelect,
		wire.SubCmdWFBKey:          handleWFBKey,
		wire.SubCmdSwitchCameras:   handleSwitchCameras,
		wire.SubCmdSetGSIP:         handleSetGSIP,
		wire.SubCmdSavePersistent:  handleSavePersistent,
		wire.SubCmdRestoreDefault:  handleRestoreDefault,
	}
	return d
}

// Handle is installed as link.Callbacks.OnCmd. It only processes Get/Set:
// an Ack/Nack matching an outstanding SendCmdSync is consumed by
// link.Peer.dispatch before callbacks see it, and any other Ack/Nack that
// reaches here is ignored.
func (d *Dispatcher) Handle(cmd wire.Command, from *net.UDPAddr) {
	if cmd.Kind != wire.CmdGet && cmd.Kind != wire.CmdSet {
		return
	}

	// Reboot acks first, then sleeps to let the ack egress before tearing
	// the process down (§4.2): it owns its own reply and must not also be
	// acked by the generic path below.
	if cmd.Sub == wire.SubCmdReboot && cmd.Kind == wire.CmdSet {
		d.handleReboot(cmd)
		return
	}

	h, ok := d.handlers[cmd.Sub]
	if !ok {
		log.Println("dispatch: no handler for", cmd.Sub, "- nacking")
		d.nack(cmd.Sub, nil)
		return
	}

	payload, accepted := h(d, cmd)
	if accepted {
		d.ack(cmd.Sub, payload)
	} else {
		d.nack(cmd.Sub, payload)
	}
}

func (d *Dispatcher) ack(sub wire.SubCmd, payload []byte) {
	if err := d.peer.SendCmd(wire.CmdAck, sub, payload); err != nil {
		log.Println("dispatch: failed to send ack for", sub, ":", err)
	}
}

func (d *Dispatcher) nack(sub wire.SubCmd, payload []byte) {
	if err := d.peer.SendCmd(wire.CmdNack, sub, payload); err != nil {
		log.Println("dispatch: failed to send nack for", sub, ":", err)
	}
}
