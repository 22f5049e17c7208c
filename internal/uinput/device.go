// Package uinput emits synthetic key events through a Linux virtual keyboard.
package uinput

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// From linux/input-event-codes.h and linux/uinput.h.
const (
	evSyn     = 0x00
	evKey     = 0x01
	synReport = 0
	busUSB    = 0x03

	uiDevCreate  = 0x5501
	uiDevDestroy = 0x5502
	uiDevSetup   = 0x405c5503
	uiSetEvBit   = 0x40045564
	uiSetKeyBit  = 0x40045565

	nameSize = 80
)

// DefaultPath is where the uinput character device usually lives.
const DefaultPath = "/dev/uinput"

// inputID mirrors struct input_id.
type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// setup mirrors struct uinput_setup.
type setup struct {
	ID           inputID
	Name         [nameSize]byte
	FFEffectsMax uint32
}

// inputEvent mirrors struct input_event on 64-bit Linux.
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// EncodeEvent serializes one input_event in native (little-endian) layout.
func EncodeEvent(typ, code uint16, value int32, at time.Time) []byte {
	var buf bytes.Buffer
	ev := inputEvent{
		Sec:   at.Unix(),
		Usec:  int64(at.Nanosecond() / 1000),
		Type:  typ,
		Code:  code,
		Value: value,
	}
	_ = binary.Write(&buf, binary.LittleEndian, ev)
	return buf.Bytes()
}

// Device is a virtual keyboard created through /dev/uinput. Key writes an
// EV_KEY event and Sync writes the SYN_REPORT that makes the kernel deliver
// everything written since the last one.
type Device struct {
	w    io.Writer
	fd   int
	name string
	now  func() time.Time
}

// Open creates a virtual keyboard that can press the given key codes.
func Open(path, name string, keys []uint16) (*Device, error) {
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if err := configure(fd, name, keys); err != nil {
		unix.Close(fd)
		return nil, err
	}

	// Give udev and the display server a moment to pick the device up,
	// otherwise the first events are lost.
	time.Sleep(time.Second)
	log.Printf("Virtual keyboard %q created with %d keys", name, len(keys))

	return &Device{w: fdWriter(fd), fd: fd, name: name, now: time.Now}, nil
}

func configure(fd int, name string, keys []uint16) error {
	if err := unix.IoctlSetInt(fd, uiSetEvBit, evKey); err != nil {
		return fmt.Errorf("UI_SET_EVBIT: %w", err)
	}
	for _, k := range keys {
		if err := unix.IoctlSetInt(fd, uiSetKeyBit, int(k)); err != nil {
			return fmt.Errorf("UI_SET_KEYBIT %d: %w", k, err)
		}
	}

	s := setup{ID: inputID{Bustype: busUSB, Vendor: 0x1234, Product: 0x5678}}
	copy(s.Name[:nameSize-1], name)
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uiDevSetup, uintptr(unsafe.Pointer(&s))); errno != 0 {
		return fmt.Errorf("UI_DEV_SETUP: %w", errno)
	}
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uiDevCreate, 0); errno != 0 {
		return fmt.Errorf("UI_DEV_CREATE: %w", errno)
	}
	return nil
}

// NewWriterDevice wraps any writer, for tests and for recording event streams.
func NewWriterDevice(w io.Writer, now func() time.Time) *Device {
	return &Device{w: w, fd: -1, name: "writer", now: now}
}

func (d *Device) emit(typ, code uint16, value int32) error {
	_, err := d.w.Write(EncodeEvent(typ, code, value, d.now()))
	return err
}

// Key writes a key press (down) or release.
func (d *Device) Key(code uint16, down bool) error {
	var v int32
	if down {
		v = 1
	}
	return d.emit(evKey, code, v)
}

// Sync commits the events written since the previous Sync.
func (d *Device) Sync() error {
	return d.emit(evSyn, synReport, 0)
}

// Close destroys the virtual device. The kernel releases any keys still held.
func (d *Device) Close() error {
	if d.fd < 0 {
		return nil
	}
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), uiDevDestroy, 0); errno != 0 {
		log.Printf("UI_DEV_DESTROY failed: %v", errno)
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}

type fdWriter int

func (f fdWriter) Write(p []byte) (int, error) {
	return unix.Write(int(f), p)
}
