// Package camdrv implements camera.Driver against the CSI and USB capture
// paths. The underlying ISP/sensor SDK is an external collaborator §1
// places out of scope; these drivers model the control-plane calls
// (init/deinit/bind/unbind) a real SDK exposes, so the rest of the module
// can be exercised without one.
package camdrv

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/physic"

	"skylink/camera"
	"skylink/config"
)

// CSI drives sensor-attached cameras (IMX415/IMX307/GC4663) over the
// vendor ISP SDK's subdevice control path, plus the sensor's own SPI
// register bus for the reset pulse and tuning writes the ISP SDK doesn't
// cover (SensorBus). BusFor picks the bus config per device path; nil
// means the sensor has no separate register bus (e.g. it's fully owned by
// the ISP SDK) and Init/Deinit skip the bus open/close.
type CSI struct {
	bound bool
	bus   *SensorBus

	BusFor func(dev camera.Device) *SensorBusConfig
}

func NewCSI() *CSI { return &CSI{} }

func (c *CSI) Init(dev camera.Device, cfg config.CameraConfig) error {
	log.Printf("camdrv: csi init %s res=%s", dev.DevicePath, cfg.Resolution)

	if c.BusFor == nil {
		return nil
	}
	busCfg := c.BusFor(dev)
	if busCfg == nil {
		return nil
	}
	if busCfg.SPISpeed == 0 {
		busCfg.SPISpeed = 10 * physic.MegaHertz
	}

	bus, err := OpenSensorBus(*busCfg)
	if err != nil {
		return fmt.Errorf("camdrv: csi sensor bus: %w", err)
	}
	if err := bus.Reset(); err != nil {
		bus.Close()
		return fmt.Errorf("camdrv: csi sensor reset: %w", err)
	}
	c.bus = bus
	return nil
}

func (c *CSI) Deinit(dev camera.Device) error {
	log.Printf("camdrv: csi deinit %s", dev.DevicePath)
	if c.bus != nil {
		err := c.bus.Close()
		c.bus = nil
		return err
	}
	return nil
}

func (c *CSI) Bind(dev camera.Device) error {
	if c.bound {
		return fmt.Errorf("camdrv: csi already bound")
	}
	log.Printf("camdrv: csi bind %s to encoder channel", dev.DevicePath)
	c.bound = true
	return nil
}

func (c *CSI) Unbind(dev camera.Device) error {
	log.Printf("camdrv: csi unbind %s", dev.DevicePath)
	c.bound = false
	return nil
}
