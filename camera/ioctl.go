package camera

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// ioctl issues a V4L2 ioctl carrying a pointer argument, the same
// unix.Syscall(SYS_IOCTL, ...) pattern golang.org/x/sys/unix uses
// internally for its own typed Ioctl* helpers that don't cover V4L2.
func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
