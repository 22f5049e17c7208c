// Package procmem reads the player position out of a running game process.
package procmem

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/soar/thtrack/internal/control"
)

// positionSize is two consecutive float32 values: x then y.
const positionSize = 8

var (
	ErrShortRead   = errors.New("short read")
	ErrBadPosition = errors.New("position is not a finite number")
)

// Decode interprets buf as two little-endian IEEE-754 float32 values.
func Decode(buf []byte) (control.GamePosition, error) {
	if len(buf) < positionSize {
		return control.GamePosition{}, fmt.Errorf("%w: got %d of %d bytes", ErrShortRead, len(buf), positionSize)
	}
	x := math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4]))
	y := math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8]))
	for _, v := range []float32{x, y} {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return control.GamePosition{}, fmt.Errorf("%w: (%v, %v)", ErrBadPosition, x, y)
		}
	}
	return control.GamePosition{X: x, Y: y}, nil
}

// ReadPosition reads and decodes the position at addr from r.
func ReadPosition(r io.ReaderAt, addr int64) (control.GamePosition, error) {
	buf := make([]byte, positionSize)
	n, err := r.ReadAt(buf, addr)
	if n < positionSize {
		if err == nil || errors.Is(err, io.EOF) {
			err = ErrShortRead
		}
		return control.GamePosition{}, fmt.Errorf("read 0x%x: got %d of %d bytes: %w", addr, n, positionSize, err)
	}
	return Decode(buf)
}

// FileSampler reads through /proc/<pid>/mem. The file is reopened for every
// sample so a restarted or exited process shows up as a read error.
type FileSampler struct {
	path string
	addr int64
}

func NewFileSampler(pid int, addr uint64) *FileSampler {
	return &FileSampler{
		path: "/proc/" + strconv.Itoa(pid) + "/mem",
		addr: int64(addr),
	}
}

func (s *FileSampler) Sample() (control.GamePosition, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return control.GamePosition{}, err
	}
	defer f.Close()
	return ReadPosition(f, s.addr)
}

// VMSampler reads with process_vm_readv, which skips the open/close per
// sample but needs the same ptrace permission as /proc/<pid>/mem.
type VMSampler struct {
	pid  int
	addr uintptr
	buf  [positionSize]byte
}

func NewVMSampler(pid int, addr uint64) *VMSampler {
	return &VMSampler{pid: pid, addr: uintptr(addr)}
}

func (s *VMSampler) Sample() (control.GamePosition, error) {
	local := []unix.Iovec{{Base: &s.buf[0]}}
	local[0].SetLen(positionSize)
	remote := []unix.RemoteIovec{{Base: s.addr, Len: positionSize}}

	n, err := unix.ProcessVMReadv(s.pid, local, remote, 0)
	if err != nil {
		return control.GamePosition{}, fmt.Errorf("process_vm_readv pid %d at 0x%x: %w", s.pid, s.addr, err)
	}
	if n < positionSize {
		return control.GamePosition{}, fmt.Errorf("read 0x%x: got %d of %d bytes: %w", s.addr, n, positionSize, ErrShortRead)
	}
	return Decode(s.buf[:])
}

// NewSampler picks a sampler by backend name: "procfs" (default) or "vm".
func NewSampler(backend string, pid int, addr uint64) (control.PositionSampler, error) {
	switch backend {
	case "", "procfs":
		return NewFileSampler(pid, addr), nil
	case "vm":
		return NewVMSampler(pid, addr), nil
	}
	return nil, fmt.Errorf("unknown memory reader %q (supported: procfs, vm)", backend)
}
