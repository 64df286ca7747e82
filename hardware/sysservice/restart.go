// Package sysservice implements dispatch.ServiceRestarter over systemd's
// D-Bus API instead of shelling out to systemctl — the operating-system
// service-restart plumbing §1 leaves as an external collaborator, modeled
// here with github.com/godbus/dbus/v5 the way a long-running embedded
// Linux daemon would reach systemd without forking a subprocess per call.
package sysservice

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Target selects which systemd unit Reboot restarts (§3 subcmd_id Reboot:
// "Target codes select which service").
type Target uint8

const (
	TargetDrone Target = iota
	TargetEncoder
	TargetSystem
)

var unitNames = map[Target]string{
	TargetDrone:   "skylink-drone.service",
	TargetEncoder: "skylink-encoder.service",
	TargetSystem:  "reboot.target",
}

// Restarter talks to the systemd manager object over the system bus.
type Restarter struct {
	conn *dbus.Conn
}

func New() (*Restarter, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("sysservice: connect to system bus: %w", err)
	}
	return &Restarter{conn: conn}, nil
}

func (r *Restarter) Close() error {
	return r.conn.Close()
}

// Restart calls systemd's RestartUnit (or StartUnit for reboot.target)
// over org.freedesktop.systemd1.Manager.
func (r *Restarter) Restart(target uint8) error {
	unit, ok := unitNames[Target(target)]
	if !ok {
		return fmt.Errorf("sysservice: unknown reboot target %d", target)
	}

	obj := r.conn.Object("org.freedesktop.systemd1", dbus.ObjectPath("/org/freedesktop/systemd1"))

	method := "org.freedesktop.systemd1.Manager.RestartUnit"
	if unit == "reboot.target" {
		method = "org.freedesktop.systemd1.Manager.StartUnit"
	}

	call := obj.Call(method, 0, unit, "replace")
	if call.Err != nil {
		return fmt.Errorf("sysservice: %s %s: %w", method, unit, call.Err)
	}
	return nil
}
