package platform

import (
	ioctl "github.com/daedaluz/goioctl"
	"unsafe"
)

// ioctl request numbers for the termios calls the endpoint actually needs:
// raw-mode + baud configuration and flushing stale bytes on open. A single
// real UART has no use for RS-485 direction control or PTY allocation, so
// those request numbers aren't defined here.
var (
	tcgets2 = ioctl.IOR('T', 0x2A, unsafe.Sizeof(Termios2{}))
	tcsets2 = ioctl.IOW('T', 0x2B, unsafe.Sizeof(Termios2{}))

	tcflsh = uintptr(0x540B)
)
