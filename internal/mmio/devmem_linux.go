//go:build linux

package mmio

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DevMemPath is the physical memory device mapped by OpenMapping.
const DevMemPath = "/dev/mem"

// Mapping is a window of physical address space mapped into the process.
// Every register access is a single aligned 32-bit load or store.
type Mapping struct {
	base  uint64
	size  uint64
	skew  uint64 // distance from the page-aligned start of mem to base
	mem   []byte
	fd    int
	close bool
}

// OpenMapping maps size bytes of physical memory at base from path
// (normally DevMemPath). The window is widened to page boundaries internally.
func OpenMapping(path string, base, size uint64) (*Mapping, error) {
	page := uint64(unix.Getpagesize())
	start := base &^ (page - 1)
	skew := base - start
	length := (skew + size + page - 1) &^ (page - 1)

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_SYNC|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("mmio: open %s: %w", path, err)
	}

	mem, err := unix.Mmap(fd, int64(start), int(length), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("mmio: map 0x%x+0x%x: %w", base, size, err)
	}

	return &Mapping{
		base:  base,
		size:  size,
		skew:  skew,
		mem:   mem,
		fd:    fd,
		close: true,
	}, nil
}

// Base returns the physical address of the first mapped register.
func (m *Mapping) Base() uint64 { return m.base }

// Size implements Device
func (m *Mapping) Size() uint64 { return m.size }

func (m *Mapping) word(offset uint64, size int) (*uint32, error) {
	if size != 4 || offset%4 != 0 {
		return nil, fmt.Errorf("%w: %d at offset 0x%x", ErrAccessSize, size, offset)
	}
	if offset+4 > m.size {
		return nil, fmt.Errorf("%w: offset=0x%x size=0x%x", ErrOutOfBounds, offset, m.size)
	}
	return (*uint32)(unsafe.Pointer(&m.mem[m.skew+offset])), nil
}

// Read implements Device
func (m *Mapping) Read(offset uint64, size int) (uint64, error) {
	p, err := m.word(offset, size)
	if err != nil {
		return 0, err
	}
	return uint64(atomic.LoadUint32(p)), nil
}

// Write implements Device
func (m *Mapping) Write(offset uint64, size int, value uint64) error {
	p, err := m.word(offset, size)
	if err != nil {
		return err
	}
	atomic.StoreUint32(p, uint32(value))
	return nil
}

// Close unmaps the window.
func (m *Mapping) Close() error {
	if !m.close {
		return nil
	}
	m.close = false
	err := unix.Munmap(m.mem)
	if cerr := unix.Close(m.fd); err == nil {
		err = cerr
	}
	m.mem = nil
	return err
}

var _ Device = (*Mapping)(nil)
