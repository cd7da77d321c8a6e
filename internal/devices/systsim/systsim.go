// Package systsim models the dual 32-bit system timer on an mmio.Bus.
package systsim

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/tinyrange/rvclic/internal/bits"
	"github.com/tinyrange/rvclic/internal/mmio"
	"github.com/tinyrange/rvclic/internal/syst"
)

type half struct {
	cfg      uint32
	cnt      uint32
	cmp      uint32
	prescale uint32 // ticks seen since the last count
	line     func(bool)
}

func (h *half) on(bit uint8) bool { return bits.Bit(h.cfg, bit) }

// Device implements mmio.Device for the timer register block.
type Device struct {
	mu     sync.Mutex
	halves [2]half
}

// New returns a stopped timer with both halves zeroed.
func New() *Device {
	return &Device{}
}

// Connect routes the interrupt line of h to fn. fn is pulsed on every
// compare match while the half has interrupts enabled. It is called with
// the device unlocked.
func (d *Device) Connect(h syst.Half, fn func(level bool)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.halves[h].line = fn
}

// Size implements mmio.Device
func (d *Device) Size() uint64 { return syst.BlockSize }

func regHalf(offset uint64) syst.Half {
	return syst.Half((offset / 4) % 2)
}

// Read implements mmio.Device
func (d *Device) Read(offset uint64, size int) (uint64, error) {
	if size != 4 || offset%4 != 0 || offset+4 > syst.BlockSize {
		return 0, fmt.Errorf("systsim: %w: %d at 0x%x", mmio.ErrAccessSize, size, offset)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	h := &d.halves[regHalf(offset)]
	switch offset {
	case syst.CfgLow, syst.CfgHigh:
		return uint64(h.cfg), nil
	case syst.CntLow, syst.CntHigh:
		return uint64(h.cnt), nil
	case syst.CmpLow, syst.CmpHigh:
		return uint64(h.cmp), nil
	}
	slog.Debug("systsim: read of write-only register", "offset", fmt.Sprintf("%#x", offset))
	return 0, nil
}

// Write implements mmio.Device
func (d *Device) Write(offset uint64, size int, value uint64) error {
	if size != 4 || offset%4 != 0 || offset+4 > syst.BlockSize {
		return fmt.Errorf("systsim: %w: %d at 0x%x", mmio.ErrAccessSize, size, offset)
	}
	val := uint32(value)

	d.mu.Lock()
	defer d.mu.Unlock()

	h := &d.halves[regHalf(offset)]
	switch offset {
	case syst.CfgLow, syst.CfgHigh:
		// The reset bit is a self-clearing command.
		if bits.Bit(val, syst.CfgReset) {
			h.cnt = 0
			h.prescale = 0
			val = bits.SetBit(val, syst.CfgReset, false)
		}
		if offset == syst.CfgHigh {
			val = bits.SetBit(val, syst.CfgCascade, false)
		}
		h.cfg = val
	case syst.CntLow, syst.CntHigh:
		h.cnt = val
	case syst.CmpLow, syst.CmpHigh:
		h.cmp = val
	case syst.StartLow, syst.StartHigh:
		if val&1 != 0 {
			h.cfg = bits.SetBit(h.cfg, syst.CfgEnable, true)
		}
	case syst.ResetLow, syst.ResetHigh:
		if val&1 != 0 {
			h.cnt = 0
			h.prescale = 0
		}
	}
	return nil
}

// step advances h by one input clock and reports a compare match.
func (h *half) step() bool {
	if h.on(syst.CfgPrescaler) {
		div := bits.Read(h.cfg, syst.CfgPrescHigh, syst.CfgPrescLow) + 1
		h.prescale++
		if h.prescale < div {
			return false
		}
		h.prescale = 0
	}
	h.cnt++
	if h.cnt != h.cmp {
		return false
	}
	h.match()
	return true
}

func (h *half) match() {
	if h.on(syst.CfgMode) {
		h.cnt = 0
	}
	if h.on(syst.CfgOneShot) {
		h.cfg = bits.SetBit(h.cfg, syst.CfgEnable, false)
	}
}

func (d *Device) stepCascaded() bool {
	lo, hi := &d.halves[syst.Low], &d.halves[syst.High]
	if lo.on(syst.CfgPrescaler) {
		div := bits.Read(lo.cfg, syst.CfgPrescHigh, syst.CfgPrescLow) + 1
		lo.prescale++
		if lo.prescale < div {
			return false
		}
		lo.prescale = 0
	}
	lo.cnt++
	if lo.cnt == 0 {
		hi.cnt++
	}
	if lo.cnt != lo.cmp || hi.cnt != hi.cmp {
		return false
	}
	if lo.on(syst.CfgMode) {
		lo.cnt, hi.cnt = 0, 0
	}
	if lo.on(syst.CfgOneShot) {
		lo.cfg = bits.SetBit(lo.cfg, syst.CfgEnable, false)
	}
	return true
}

// Tick advances both halves by n input clocks.
func (d *Device) Tick(n int) {
	var fire []func(bool)

	d.mu.Lock()
	lo := &d.halves[syst.Low]
	for i := 0; i < n; i++ {
		if lo.on(syst.CfgCascade) {
			if lo.on(syst.CfgEnable) && d.stepCascaded() && lo.on(syst.CfgIRQEnable) && lo.line != nil {
				fire = append(fire, lo.line)
			}
			continue
		}
		for idx := range d.halves {
			h := &d.halves[idx]
			if h.on(syst.CfgEnable) && h.step() && h.on(syst.CfgIRQEnable) && h.line != nil {
				fire = append(fire, h.line)
			}
		}
	}
	d.mu.Unlock()

	for _, fn := range fire {
		fn(true)
		fn(false)
	}
}

var _ mmio.Device = (*Device)(nil)
