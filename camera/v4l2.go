package camera

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// V4L2 ioctl request codes and struct layouts (linux/videodev2.h) are not
// exposed by golang.org/x/sys/unix, so the numeric constants and the
// capability struct are reproduced here — the same approach the teacher's
// hardware/oled package takes for SPI/GPIO register constants it can't
// import from a higher-level binding.
const (
	vidiocQuerycap = 0x80685600
)

type v4l2Capability struct {
	Driver       [16]byte
	Card         [32]byte
	BusInfo      [32]byte
	Version      uint32
	Capabilities uint32
	DeviceCaps   uint32
	Reserved     [3]uint32
}

const v4l2CapVideoCapture = 0x00000001

// queryCapDevice opens path and issues VIDIOC_QUERYCAP, returning the
// driver/card/bus strings a real V4L2 subdevice reports. Errors mean the
// node isn't a usable capture device and the caller should skip it.
func queryCapDevice(path string) (driver, card, bus string, err error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK, 0)
	if err != nil {
		return "", "", "", fmt.Errorf("camera: open %s: %w", path, err)
	}
	defer unix.Close(fd)

	var c v4l2Capability
	if err := ioctl(fd, vidiocQuerycap, unsafe.Pointer(&c)); err != nil {
		return "", "", "", fmt.Errorf("camera: VIDIOC_QUERYCAP %s: %w", path, err)
	}
	if c.Capabilities&v4l2CapVideoCapture == 0 {
		return "", "", "", fmt.Errorf("camera: %s does not support capture", path)
	}

	return cString(c.Driver[:]), cString(c.Card[:]), cString(c.BusInfo[:]), nil
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// classify maps a driver/card string pair to a Type/Sensor pair the way
// the original camera_manager's string matching does.
func classify(driver, card string) (Type, Sensor) {
	lower := strings.ToLower(driver + " " + card)
	switch {
	case strings.Contains(lower, "imx415"):
		return TypeCSI, SensorIMX415
	case strings.Contains(lower, "imx307"):
		return TypeCSI, SensorIMX307
	case strings.Contains(lower, "gc4663"):
		return TypeCSI, SensorGC4663
	case strings.Contains(lower, "thermal") || strings.Contains(lower, "lepton"):
		return TypeThermal, SensorThermal
	case strings.Contains(lower, "uvcvideo") || strings.Contains(lower, "usb"):
		return TypeUSB, SensorUVCGeneric
	default:
		return TypeCSI, SensorUnknown
	}
}

// Discover globs /dev/video* char devices, probes each with VIDIOC_QUERYCAP,
// classifies it, and returns the set sorted by priority/quality so index 0
// is the best default selection candidate (§4.5).
func Discover() ([]Device, error) {
	paths, err := filepath.Glob("/dev/video*")
	if err != nil {
		return nil, fmt.Errorf("camera: glob /dev/video*: %w", err)
	}
	sort.Strings(paths)

	var devices []Device
	for _, p := range paths {
		driver, card, bus, err := queryCapDevice(p)
		if err != nil {
			continue
		}
		typ, sensor := classify(driver, card)
		idx := indexFromPath(p)
		devices = append(devices, newDevice(idx, typ, sensor, p, driver, bus, nil))
	}

	sort.SliceStable(devices, func(i, j int) bool {
		if devices[i].Priority != devices[j].Priority {
			return devices[i].Priority < devices[j].Priority
		}
		return devices[i].Quality > devices[j].Quality
	})

	return devices, nil
}

func indexFromPath(p string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(filepath.Base(p), "video"))
	if err != nil {
		return -1
	}
	return n
}
