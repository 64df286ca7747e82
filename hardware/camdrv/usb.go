package camdrv

import (
	"fmt"
	"log"

	"skylink/camera"
	"skylink/config"
)

// USB drives UVC-class cameras over V4L2 streaming ioctls, a thinner
// control surface than CSI since there's no ISP tuning path.
type USB struct {
	bound bool
}

func NewUSB() *USB { return &USB{} }

func (u *USB) Init(dev camera.Device, cfg config.CameraConfig) error {
	log.Printf("camdrv: usb init %s res=%s", dev.DevicePath, cfg.Resolution)
	return nil
}

func (u *USB) Deinit(dev camera.Device) error {
	log.Printf("camdrv: usb deinit %s", dev.DevicePath)
	return nil
}

func (u *USB) Bind(dev camera.Device) error {
	if u.bound {
		return fmt.Errorf("camdrv: usb already bound")
	}
	log.Printf("camdrv: usb bind %s to encoder channel", dev.DevicePath)
	u.bound = true
	return nil
}

func (u *USB) Unbind(dev camera.Device) error {
	log.Printf("camdrv: usb unbind %s", dev.DevicePath)
	u.bound = false
	return nil
}
