package camera

import (
	"fmt"

	"skylink/config"
)

// Driver is the per-transport collaborator dispatch target for
// init/deinit/bind/unbind (§4.5: "dispatches on target.type to the CSI or
// USB driver"). §1 places the underlying codec/ISP SDK out of scope; real
// implementations live in hardware/camdrv.
type Driver interface {
	Init(dev Device, cfg config.CameraConfig) error
	Deinit(dev Device) error
	Bind(dev Device) error
	Unbind(dev Device) error
}

// Manager implements the CameraSelector contract the dispatcher drives for
// SwitchCameras (§4.2/§4.5), and is the single owner of the
// currently-selected camera pointer.
type Manager struct {
	devices []Device
	current int // index into devices, -1 if none selected
	cfg     *config.Config

	csi     Driver
	usb     Driver
	thermal Driver
}

// NewManager builds a Manager over an already-discovered device list
// (see Discover). Per-type driver collaborators may be nil if that camera
// type is never expected on this build.
func NewManager(devices []Device, cfg *config.Config, csi, usb, thermal Driver) *Manager {
	return &Manager{devices: devices, current: -1, cfg: cfg, csi: csi, usb: usb, thermal: thermal}
}

func (m *Manager) Total() int { return len(m.devices) }

// Current returns the index of the currently-selected device, or -1.
func (m *Manager) Current() int { return m.current }

func (m *Manager) driverFor(t Type) Driver {
	switch t {
	case TypeCSI:
		return m.csi
	case TypeUSB:
		return m.usb
	case TypeThermal:
		return m.thermal
	default:
		return nil
	}
}

// Select implements the §4.5 binding lifecycle: unbind+deinit the current
// camera if different from target, init the target (populating
// resolution/device index from the target's best mode if the config
// doesn't already specify one), bind it, then commit the current pointer.
// Errors return early, leaving the previous camera torn down — the
// documented loss callers must recover from by calling Select again with a
// fallback index (§4.5).
func (m *Manager) Select(target int) error {
	if target < 0 || target >= len(m.devices) {
		return fmt.Errorf("camera: index %d out of range [0,%d)", target, len(m.devices))
	}
	dev := m.devices[target]

	if m.current >= 0 && m.current != target {
		cur := m.devices[m.current]
		if err := m.unbindDeinit(cur); err != nil {
			return err
		}
		m.current = -1
	}

	camCfg := m.cfg.GetCamera(target)
	if camCfg.Resolution == "" {
		best := dev.BestResolution()
		camCfg.Resolution = fmt.Sprintf("%dx%d@%d", best.Width, best.Height, best.FPS)
	}
	camCfg.DeviceIndex = dev.Index

	drv := m.driverFor(dev.Type)
	if drv == nil {
		return fmt.Errorf("camera: no driver registered for type %s", dev.Type)
	}

	if err := drv.Init(dev, camCfg); err != nil {
		return fmt.Errorf("camera: init %s: %w", dev, err)
	}
	if err := drv.Bind(dev); err != nil {
		return fmt.Errorf("camera: bind %s: %w", dev, err)
	}

	m.cfg.SetCamera(target, camCfg)
	m.current = target
	return nil
}

func (m *Manager) unbindDeinit(dev Device) error {
	drv := m.driverFor(dev.Type)
	if drv == nil {
		return fmt.Errorf("camera: no driver registered for type %s", dev.Type)
	}
	if err := drv.Unbind(dev); err != nil {
		return fmt.Errorf("camera: unbind %s: %w", dev, err)
	}
	if err := drv.Deinit(dev); err != nil {
		return fmt.Errorf("camera: deinit %s: %w", dev, err)
	}
	return nil
}

// Devices returns the device list in the order it was given to NewManager
// (Discover returns it priority-sorted).
func (m *Manager) Devices() []Device {
	return m.devices
}

// SelectBest picks the highest-priority available device (ties broken by
// higher quality), used at startup before any SwitchCameras command has
// arrived.
func (m *Manager) SelectBest() error {
	if len(m.devices) == 0 {
		return fmt.Errorf("camera: no cameras discovered")
	}
	best := -1
	for i, dev := range m.devices {
		if !dev.Available {
			continue
		}
		if best < 0 || dev.Priority < m.devices[best].Priority ||
			(dev.Priority == m.devices[best].Priority && dev.Quality > m.devices[best].Quality) {
			best = i
		}
	}
	if best < 0 {
		return fmt.Errorf("camera: no available cameras")
	}
	return m.Select(best)
}
