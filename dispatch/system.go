package dispatch

import (
	"log"
	"time"

	"skylink/wire"
)

// handleSwitchCameras accepts a u32 target index, hands off to the camera
// manager's select() (§4.5), and acks with {index, total} on success
// (§8 scenario 3).
func handleSwitchCameras(d *Dispatcher, cmd wire.Command) ([]byte, bool) {
	if cmd.Kind != wire.CmdSet {
		idx := 0
		total := 0
		if d.cameras != nil {
			idx, total = d.cameras.Current(), d.cameras.Total()
		}
		return ackIndexTotal(idx, total), true
	}

	target, err := wire.GetU32(cmd.Data)
	if err != nil {
		return nil, false
	}
	if d.cameras == nil {
		return nil, false
	}

	if err := d.cameras.Select(int(target)); err != nil {
		log.Println("dispatch: switch cameras to", target, "failed:", err)
		return ackIndexTotal(d.cameras.Current(), d.cameras.Total()), false
	}

	return ackIndexTotal(d.cameras.Current(), d.cameras.Total()), true
}

func ackIndexTotal(index, total int) []byte {
	out := make([]byte, 8)
	copy(out[0:4], wire.PutU32(uint32(index)))
	copy(out[4:8], wire.PutU32(uint32(total)))
	return out
}

// handleSetGSIP requires an address string of at least 7 bytes, restarts
// the auxiliary tunnels toward it (§4.6), and commits the new address on
// success.
func handleSetGSIP(d *Dispatcher, cmd wire.Command) ([]byte, bool) {
	srv := d.cfg.GetServer()
	if cmd.Kind != wire.CmdSet {
		return []byte(srv.GSIP), true
	}

	ip := string(cmd.Data)
	if len(ip) < 7 {
		return nil, false
	}
	if d.tunnel == nil {
		return nil, false
	}

	if err := d.tunnel.Restart(ip); err != nil {
		log.Println("dispatch: tunnel restart toward", ip, "failed:", err)
		return []byte(srv.GSIP), false
	}

	srv.GSIP = ip
	d.cfg.SetServer(srv)
	return []byte(ip), true
}

func handleSavePersistent(d *Dispatcher, cmd wire.Command) ([]byte, bool) {
	if d.persist == nil {
		return nil, false
	}
	if err := d.persist(); err != nil {
		log.Println("dispatch: save persistent failed:", err)
		return nil, false
	}
	return nil, true
}

func handleRestoreDefault(d *Dispatcher, cmd wire.Command) ([]byte, bool) {
	if d.restoreD == nil {
		return nil, false
	}
	if err := d.restoreD(); err != nil {
		log.Println("dispatch: restore default failed:", err)
		return nil, false
	}
	return nil, true
}

// handleReboot acks immediately, sleeps one second to let the ack egress,
// then invokes the service-restart collaborator from a separate goroutine
// so the receive loop stays responsive (§4.2).
func (d *Dispatcher) handleReboot(cmd wire.Command) {
	if d.restart == nil {
		d.nack(wire.SubCmdReboot, nil)
		return
	}
	if len(cmd.Data) < 1 {
		d.nack(wire.SubCmdReboot, nil)
		return
	}
	target := cmd.Data[0]

	d.ack(wire.SubCmdReboot, cmd.Data)

	go func() {
		time.Sleep(time.Second)
		if err := d.restart.Restart(target); err != nil {
			log.Println("dispatch: reboot target", target, "failed:", err)
		}
	}()
}
