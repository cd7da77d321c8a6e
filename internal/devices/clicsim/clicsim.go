// Package clicsim is a register-level model of a CLIC, mapped onto an
// mmio.Bus in place of real hardware.
package clicsim

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/tinyrange/rvclic/internal/bits"
	"github.com/tinyrange/rvclic/internal/clic"
	"github.com/tinyrange/rvclic/internal/mmio"
)

const attrWritableMask uint32 = 0xff

type intBlock struct {
	pending uint32
	enabled uint32
	attr    uint32
	ctl     uint32
	line    bool
}

// Device implements mmio.Device for one CLIC register block.
type Device struct {
	mu     sync.Mutex
	cfg    uint32
	info   clic.Info
	blocks [clic.MaxInterrupts]intBlock
}

// New returns a CLIC model whose clicinfo reads as info.
func New(info clic.Info) *Device {
	return &Device{info: info}
}

// Size implements mmio.Device
func (d *Device) Size() uint64 { return clic.BlockSize }

func decode(offset uint64) (n uint16, field uint64, ok bool) {
	if offset < clic.IntCfgOffset {
		return 0, 0, false
	}
	rel := offset - clic.IntCfgOffset
	return uint16(rel / clic.IntBlockSize), rel % clic.IntBlockSize, true
}

// Read implements mmio.Device
func (d *Device) Read(offset uint64, size int) (uint64, error) {
	if size != 4 || offset%4 != 0 {
		return 0, fmt.Errorf("clicsim: %w: %d at 0x%x", mmio.ErrAccessSize, size, offset)
	}
	if offset+4 > clic.BlockSize {
		return 0, fmt.Errorf("clicsim: %w: offset 0x%x", mmio.ErrOutOfBounds, offset)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch offset {
	case clic.CfgOffset:
		return uint64(d.cfg), nil
	case clic.InfoOffset:
		return uint64(d.info), nil
	}

	n, field, ok := decode(offset)
	if !ok {
		return 0, nil // reserved
	}
	b := &d.blocks[n]
	switch field {
	case clic.IntPending:
		return uint64(b.pending), nil
	case clic.IntEnabled:
		return uint64(b.enabled), nil
	case clic.IntAttr:
		return uint64(b.attr), nil
	default:
		return uint64(b.ctl), nil
	}
}

// Write implements mmio.Device
func (d *Device) Write(offset uint64, size int, value uint64) error {
	if size != 4 || offset%4 != 0 {
		return fmt.Errorf("clicsim: %w: %d at 0x%x", mmio.ErrAccessSize, size, offset)
	}
	if offset+4 > clic.BlockSize {
		return fmt.Errorf("clicsim: %w: offset 0x%x", mmio.ErrOutOfBounds, offset)
	}
	val := uint32(value)

	d.mu.Lock()
	defer d.mu.Unlock()

	switch offset {
	case clic.CfgOffset:
		d.cfg = val & clic.CfgWritableMask
		return nil
	case clic.InfoOffset:
		slog.Debug("clicsim: ignored write to clicinfo", "value", fmt.Sprintf("%#x", val))
		return nil
	}

	n, field, ok := decode(offset)
	if !ok {
		slog.Debug("clicsim: ignored write to reserved space", "offset", fmt.Sprintf("%#x", offset))
		return nil
	}
	b := &d.blocks[n]
	switch field {
	case clic.IntPending:
		b.pending = val & 1
	case clic.IntEnabled:
		b.enabled = val & 1
	case clic.IntAttr:
		b.attr = val & attrWritableMask
		// A level trigger follows the line as soon as it is selected.
		d.applyLevel(b)
	default:
		b.ctl = val
	}
	return nil
}

func (d *Device) trigger(b *intBlock) clic.Trigger {
	return clic.Trigger(bits.Read(b.attr, 2, 1))
}

func (d *Device) applyLevel(b *intBlock) {
	trig := d.trigger(b)
	if trig.IsEdge() {
		return
	}
	asserted := b.line != trig.IsNegative()
	if asserted {
		b.pending = 1
	} else {
		b.pending = 0
	}
}

// SetLine drives the input line of interrupt n. Level triggers mirror the
// line into the pending bit; edge triggers latch it on the matching
// transition and leave clearing to software.
func (d *Device) SetLine(n uint16, level bool) {
	if int(n) >= clic.MaxInterrupts {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	b := &d.blocks[n]
	prev := b.line
	b.line = level

	trig := d.trigger(b)
	if !trig.IsEdge() {
		d.applyLevel(b)
		return
	}
	rising := !prev && level
	falling := prev && !level
	if (rising && !trig.IsNegative()) || (falling && trig.IsNegative()) {
		b.pending = 1
	}
}

// Highest returns the enabled, pending interrupt with the greatest ctl
// level strictly above threshold. Ties go to the lower index.
func (d *Device) Highest(threshold uint8) (uint16, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var best uint16
	var bestLevel uint8
	found := false
	for n := range d.blocks {
		b := &d.blocks[n]
		if b.pending&1 == 0 || b.enabled&1 == 0 {
			continue
		}
		level := uint8(b.ctl)
		if level <= threshold {
			continue
		}
		if !found || level > bestLevel {
			best, bestLevel, found = uint16(n), level, true
		}
	}
	return best, found
}

// Reset returns every register to zero. clicinfo is kept.
func (d *Device) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = 0
	d.blocks = [clic.MaxInterrupts]intBlock{}
}

var _ mmio.Device = (*Device)(nil)
