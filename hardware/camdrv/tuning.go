package camdrv

import (
	"fmt"
	"log"
	"sync"
)

// Tuning implements dispatch.CameraControl: the per-camera ISP image
// controls (brightness/contrast/saturation/sharpness/HDR/mirror-flip/
// focus/detection), addressed by device index.
type Tuning struct {
	mu sync.Mutex
}

func NewTuning() *Tuning { return &Tuning{} }

func (t *Tuning) setScalar(name string, idx int, v int32) error {
	if v < -100 || v > 100 {
		return fmt.Errorf("camdrv: %s %d out of range [-100,100]", name, v)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	log.Println("camdrv: set", name, "on camera", idx, "to", v)
	return nil
}

func (t *Tuning) SetBrightness(idx int, v int32) error { return t.setScalar("brightness", idx, v) }
func (t *Tuning) SetContrast(idx int, v int32) error   { return t.setScalar("contrast", idx, v) }
func (t *Tuning) SetSaturation(idx int, v int32) error { return t.setScalar("saturation", idx, v) }
func (t *Tuning) SetSharpness(idx int, v int32) error  { return t.setScalar("sharpness", idx, v) }

func (t *Tuning) SetHDR(idx int, v bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	log.Println("camdrv: set hdr on camera", idx, "to", v)
	return nil
}

func (t *Tuning) SetMirrorFlip(idx int, v uint8) error {
	if v > 3 {
		return fmt.Errorf("camdrv: mirror/flip mode %d out of range [0,3]", v)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	log.Println("camdrv: set mirror/flip on camera", idx, "to", v)
	return nil
}

func (t *Tuning) SetFocusMode(idx int, v uint8) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	log.Println("camdrv: set focus mode on camera", idx, "to", v)
	return nil
}

func (t *Tuning) SetDetectionEnable(idx int, v bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	log.Println("camdrv: set detection enable on camera", idx, "to", v)
	return nil
}
