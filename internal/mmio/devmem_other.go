//go:build !linux

package mmio

import (
	"errors"
	"fmt"
)

const DevMemPath = "/dev/mem"

// Mapping is unavailable on this platform.
type Mapping struct{}

func OpenMapping(path string, base, size uint64) (*Mapping, error) {
	return nil, fmt.Errorf("mmio: map 0x%x+0x%x: %w", base, size, errors.ErrUnsupported)
}

func (m *Mapping) Base() uint64 { return 0 }
func (m *Mapping) Size() uint64 { return 0 }
func (m *Mapping) Read(offset uint64, size int) (uint64, error) { return 0, errors.ErrUnsupported }
func (m *Mapping) Write(offset uint64, size int, value uint64) error { return errors.ErrUnsupported }
func (m *Mapping) Close() error { return nil }
