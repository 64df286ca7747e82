// Package camera implements drone-side camera discovery, classification,
// priority ranking, and the select() bind/unbind lifecycle of §4.5.
package camera

import "fmt"

// Type classifies a discovered camera's transport, mirroring the
// original camera_type_t taxonomy (CSI, USB, Thermal).
type Type uint8

const (
	TypeUnknown Type = iota
	TypeCSI
	TypeUSB
	TypeThermal
)

func (t Type) String() string {
	switch t {
	case TypeCSI:
		return "CSI"
	case TypeUSB:
		return "USB"
	case TypeThermal:
		return "Thermal"
	default:
		return "Unknown"
	}
}

// Sensor identifies the specific CSI sensor part, which drives the quality
// score table below.
type Sensor uint8

const (
	SensorUnknown Sensor = iota
	SensorIMX307
	SensorIMX415
	SensorGC4663
	SensorUVCGeneric
	SensorThermal
)

// Priority ranks cameras for automatic fallback selection: lower value
// wins. HIGH cameras (e.g. IMX415) are preferred over generic CSI sensors,
// which are preferred over USB, which is preferred over fallback devices.
type Priority uint8

const (
	PriorityHigh     Priority = 1
	PriorityMedium   Priority = 2
	PriorityLow      Priority = 3
	PriorityFallback Priority = 4
)

// qualityScore mirrors the original implementation's fixed per-sensor
// table: IMX415 > IMX307 > thermal/GC4663 > generic USB.
var qualityScore = map[Sensor]int{
	SensorIMX415:     95,
	SensorIMX307:     90,
	SensorGC4663:     75,
	SensorThermal:    75,
	SensorUVCGeneric: 60,
	SensorUnknown:    0,
}

func priorityFor(t Type, s Sensor) Priority {
	switch {
	case t == TypeCSI && s == SensorIMX415:
		return PriorityHigh
	case t == TypeCSI:
		return PriorityMedium
	case t == TypeThermal:
		return PriorityMedium
	case t == TypeUSB:
		return PriorityLow
	default:
		return PriorityFallback
	}
}

// Resolution is one supported capture mode reported by a device.
type Resolution struct {
	Width, Height, FPS uint32
}

// Device is one discovered camera, analogous to camera_info_t.
type Device struct {
	Index       int
	Type        Type
	Sensor      Sensor
	Name        string
	DevicePath  string
	DriverName  string
	BusInfo     string
	Available   bool
	Streaming   bool
	Priority    Priority
	Quality     int
	Resolutions []Resolution
}

func (d Device) String() string {
	return fmt.Sprintf("%s camera #%d %q (%s) prio=%d quality=%d", d.Type, d.Index, d.Name, d.DevicePath, d.Priority, d.Quality)
}

// BestResolution returns the highest-area resolution the device reports,
// used by select() to populate a target config that lacks one (§4.5 step 2).
func (d Device) BestResolution() Resolution {
	var best Resolution
	for _, r := range d.Resolutions {
		if r.Width*r.Height > best.Width*best.Height {
			best = r
		}
	}
	return best
}

func newDevice(index int, typ Type, sensor Sensor, path, driver, bus string, resolutions []Resolution) Device {
	return Device{
		Index:       index,
		Type:        typ,
		Sensor:      sensor,
		DevicePath:  path,
		DriverName:  driver,
		BusInfo:     bus,
		Available:   true,
		Streaming:   true,
		Priority:    priorityFor(typ, sensor),
		Quality:     qualityScore[sensor],
		Resolutions: resolutions,
	}
}
