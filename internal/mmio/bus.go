// Package mmio routes fixed-address register accesses to memory-mapped devices.
package mmio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tinyrange/rvclic/internal/bits"
)

var (
	ErrNoDevice    = errors.New("mmio: no device at address")
	ErrOutOfBounds = errors.New("mmio: access out of bounds")
	ErrAccessSize  = errors.New("mmio: invalid access size")
)

// Device represents a memory-mapped device
type Device interface {
	// Read reads from the device at the given offset
	Read(offset uint64, size int) (uint64, error)
	// Write writes to the device at the given offset
	Write(offset uint64, size int, value uint64) error
	// Size returns the size of the device's address space
	Size() uint64
}

// Accessor is the word-level view of an address space that register
// drivers program against.
type Accessor interface {
	Read32(addr uint64) (uint32, error)
	Write32(addr uint64, value uint32) error
}

// RegisterRAM is plain word storage with no register side effects. It backs
// a register block where no device model is wanted.
//
// Accesses of 1, 2 or 4 bytes must be naturally aligned; narrower accesses
// select little-endian byte lanes of the containing word.
type RegisterRAM struct {
	mu    sync.Mutex
	words []uint32
}

// NewRegisterRAM returns zeroed storage covering size bytes, rounded up to
// whole words.
func NewRegisterRAM(size uint64) *RegisterRAM {
	return &RegisterRAM{words: make([]uint32, (size+3)/4)}
}

// lane locates an access within the word array.
func (r *RegisterRAM) lane(op string, offset uint64, size int) (idx uint64, low, high uint8, err error) {
	switch size {
	case 1, 2, 4:
	default:
		return 0, 0, 0, fmt.Errorf("%w: %s of %d bytes", ErrAccessSize, op, size)
	}
	if offset%uint64(size) != 0 {
		return 0, 0, 0, fmt.Errorf("%w: misaligned %s of %d bytes at 0x%x", ErrAccessSize, op, size, offset)
	}
	idx = offset / 4
	if idx >= uint64(len(r.words)) {
		return 0, 0, 0, fmt.Errorf("%w: %s at 0x%x past 0x%x", ErrOutOfBounds, op, offset, r.Size())
	}
	low = uint8(offset%4) * 8
	return idx, low, low + uint8(size)*8 - 1, nil
}

// Read implements Device
func (r *RegisterRAM) Read(offset uint64, size int) (uint64, error) {
	idx, low, high, err := r.lane("read", offset, size)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return uint64(bits.Read(r.words[idx], high, low)), nil
}

// Write implements Device
func (r *RegisterRAM) Write(offset uint64, size int, value uint64) error {
	idx, low, high, err := r.lane("write", offset, size)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.words[idx] = bits.Write(r.words[idx], high, low, uint32(value))
	return nil
}

// Word returns the stored word containing offset.
func (r *RegisterRAM) Word(offset uint64) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.words[offset/4]
}

// Size implements Device
func (r *RegisterRAM) Size() uint64 {
	return uint64(len(r.words)) * 4
}

// DeviceMapping maps a device to an address range
type DeviceMapping struct {
	Base   uint64
	Size   uint64
	Device Device
}

// Bus decodes physical addresses onto the devices mapped into it.
type Bus struct {
	mu      sync.RWMutex
	Devices []DeviceMapping
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// AddDevice adds a device mapping to the bus. Overlapping windows are rejected.
func (bus *Bus) AddDevice(base uint64, dev Device) error {
	size := dev.Size()
	if base+size < base {
		return fmt.Errorf("mmio: device window at 0x%x overflows", base)
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	for _, m := range bus.Devices {
		if base < m.Base+m.Size && m.Base < base+size {
			return fmt.Errorf("mmio: window 0x%x-0x%x overlaps 0x%x-0x%x", base, base+size, m.Base, m.Base+m.Size)
		}
	}
	bus.Devices = append(bus.Devices, DeviceMapping{
		Base:   base,
		Size:   size,
		Device: dev,
	})
	return nil
}

// findDevice finds a device at the given address
func (bus *Bus) findDevice(addr uint64) (Device, uint64, error) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	for _, mapping := range bus.Devices {
		if addr >= mapping.Base && addr < mapping.Base+mapping.Size {
			return mapping.Device, addr - mapping.Base, nil
		}
	}

	return nil, 0, fmt.Errorf("%w 0x%x", ErrNoDevice, addr)
}

// Read reads from the bus
func (bus *Bus) Read(addr uint64, size int) (uint64, error) {
	dev, offset, err := bus.findDevice(addr)
	if err != nil {
		return 0, err
	}
	return dev.Read(offset, size)
}

// Write writes to the bus
func (bus *Bus) Write(addr uint64, size int, value uint64) error {
	dev, offset, err := bus.findDevice(addr)
	if err != nil {
		return err
	}
	return dev.Write(offset, size, value)
}

// Read32 reads a word from the bus
func (bus *Bus) Read32(addr uint64) (uint32, error) {
	val, err := bus.Read(addr, 4)
	return uint32(val), err
}

// Write32 writes a word to the bus
func (bus *Bus) Write32(addr uint64, value uint32) error {
	return bus.Write(addr, 4, uint64(value))
}

var (
	_ Device   = (*RegisterRAM)(nil)
	_ Accessor = (*Bus)(nil)
)
