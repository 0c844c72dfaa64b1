// Package platform binds the MCTP-over-serial core (package mctp) to a real
// Linux character device: opening it, putting it into raw mode at the
// configured baud rate, and exposing the byte-granular, non-blocking
// has-data/read/can-write/write operations the core's Platform interface
// requires.
package platform

import (
	"syscall"
	"time"
	"unsafe"

	"github.com/daedaluz/fdev/poll"
	ioctl "github.com/daedaluz/goioctl"
)

// Termios2 mirrors struct termios2, which carries explicit input/output
// speed fields instead of packing them into Cflag's CBAUD bits.
type Termios2 struct {
	Iflag  IFlag
	Oflag  OFlag
	Cflag  CFlag
	Lflag  LFlag
	Line   byte
	Cc     [19]byte
	ISpeed uint32
	OSpeed uint32
}

type IFlag uint32
type OFlag uint32
type CFlag uint32
type LFlag uint32

// Flags needed to configure a raw, 8N1 byte-oriented line and request a
// custom baud rate via BOTHER/Termios2. A deliberately small subset of the
// full termios flag surface: canonical mode, software flow control, and the
// legacy CBAUD rate table aren't needed here.
const (
	IGNBRK = IFlag(0000001)
	BRKINT = IFlag(0000002)
	PARMRK = IFlag(0000010)
	ISTRIP = IFlag(0000040)
	INLCR  = IFlag(0000100)
	IGNCR  = IFlag(0000200)
	ICRNL  = IFlag(0000400)
	IXON   = IFlag(0002000)

	OPOST = OFlag(0000001)

	CSIZE  = CFlag(0000060)
	CS8    = CFlag(0000060)
	CREAD  = CFlag(0000200)
	PARENB = CFlag(0000400)
	CLOCAL = CFlag(0004000)
	CBAUD  = CFlag(0010017)
	BOTHER = CFlag(0010000)

	ISIG   = LFlag(0000001)
	ICANON = LFlag(0000002)
	ECHO   = LFlag(0000010)
	ECHONL = LFlag(0000100)
	IEXTEN = LFlag(0100000)
)

// MakeRaw clears the flags that would make the line perform cooked-mode
// translation or local echo, so every byte the endpoint writes and reads
// is exactly the wire byte.
func (t *Termios2) MakeRaw() {
	t.Iflag &= ^(IGNBRK | BRKINT | PARMRK | ISTRIP | INLCR | IGNCR | ICRNL | IXON)
	t.Oflag &= ^(OPOST)
	t.Lflag &= ^(ECHO | ECHONL | ICANON | ISIG | IEXTEN)
	t.Cflag &= ^(CSIZE | PARENB)
	t.Cflag |= CS8 | CREAD | CLOCAL
}

// SetCustomSpeed requests an arbitrary input/output baud rate via BOTHER,
// rather than restricting the endpoint to the legacy fixed CBAUD table.
func (t *Termios2) SetCustomSpeed(baud uint32) {
	t.Cflag &= ^(CBAUD)
	t.Cflag |= BOTHER
	t.ISpeed = baud
	t.OSpeed = baud
}

// Port is an open, raw-mode serial character device.
type Port struct {
	fd     int
	closed bool
}

// Open opens path (e.g. "/dev/ttyUSB0"), puts it into raw mode, and
// configures it for baud bits-per-second, 8N1, no flow control.
func Open(path string, baud uint32) (*Port, error) {
	fd, err := syscall.Open(path, syscall.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, wrapErr("open "+path, err)
	}
	p := &Port{fd: fd}
	attrs := &Termios2{}
	if err := ioctl.Ioctl(uintptr(fd), tcgets2, uintptr(unsafe.Pointer(attrs))); err != nil {
		syscall.Close(fd)
		return nil, wrapErr("tcgets2", err)
	}
	attrs.MakeRaw()
	attrs.SetCustomSpeed(baud)
	if err := ioctl.Ioctl(uintptr(fd), tcsets2, uintptr(unsafe.Pointer(attrs))); err != nil {
		syscall.Close(fd)
		return nil, wrapErr("tcsets2", err)
	}
	if err := ioctl.Ioctl(uintptr(fd), tcflsh, 2 /* TCIOFLUSH */); err != nil {
		syscall.Close(fd)
		return nil, wrapErr("tcflsh", err)
	}
	return p, nil
}

// Init satisfies mctp.Platform. All hardware setup already happened in
// Open, so this is a no-op.
func (p *Port) Init() error {
	if p.closed {
		return ErrClosed
	}
	return nil
}

// Fd returns the underlying file descriptor.
func (p *Port) Fd() int {
	if p.closed {
		return -1
	}
	return p.fd
}

// Close releases the underlying file descriptor. Subsequent Init, Close,
// ReadByte, WriteByte and Idle calls return ErrClosed; HasData and CanWrite
// report false and Fd returns -1.
func (p *Port) Close() error {
	if p.closed {
		return ErrClosed
	}
	p.closed = true
	return syscall.Close(p.fd)
}

// HasData reports whether a subsequent ReadByte will return a byte without
// blocking. It implements mctp.Platform.HasData.
func (p *Port) HasData() bool {
	if p.closed {
		return false
	}
	return poll.WaitInput(p.fd, 0) == nil
}

// ReadByte consumes and returns one byte. Undefined if HasData last
// returned false.
func (p *Port) ReadByte() (byte, error) {
	if p.closed {
		return 0, ErrClosed
	}
	var b [1]byte
	n, err := syscall.Read(p.fd, b[:])
	if err != nil {
		return 0, wrapErr("read", err)
	}
	if n != 1 {
		return 0, wrapErr("short read", syscall.EIO)
	}
	return b[0], nil
}

// CanWrite reports whether a subsequent WriteByte will not block. It
// implements mctp.Platform.CanWrite.
func (p *Port) CanWrite() bool {
	if p.closed {
		return false
	}
	var wfds syscall.FdSet
	fdSet(&wfds, p.fd)
	tv := syscall.Timeval{}
	n, err := syscall.Select(p.fd+1, nil, &wfds, nil, &tv)
	return err == nil && n > 0
}

// WriteByte emits one byte. Precondition: CanWrite just returned true.
func (p *Port) WriteByte(b byte) error {
	if p.closed {
		return ErrClosed
	}
	buf := [1]byte{b}
	n, err := syscall.Write(p.fd, buf[:])
	if err != nil {
		return wrapErr("write", err)
	}
	if n != 1 {
		return wrapErr("short write", syscall.EIO)
	}
	return nil
}

func fdSet(set *syscall.FdSet, fd int) {
	set.Bits[fd/64] |= int64(1) << (uint(fd) % 64)
}

// waitReadable is a blocking convenience used by Idle.
func waitReadable(fd int, timeout time.Duration) error {
	return poll.WaitInput(fd, timeout)
}

// Idle blocks up to timeout waiting for inbound data. Callers that would
// otherwise busy-spin on HasData while there is no transmit work pending
// can use it to yield the CPU instead.
func (p *Port) Idle(timeout time.Duration) error {
	if p.closed {
		return ErrClosed
	}
	return waitReadable(p.fd, timeout)
}
