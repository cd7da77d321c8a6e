// Package syst drives the dual 32-bit system timer.
package syst

import (
	"fmt"

	"github.com/tinyrange/rvclic/internal/bits"
	"github.com/tinyrange/rvclic/internal/mmio"
)

// DefaultBase is the timer base address on the reference platform.
const DefaultBase uint64 = 0x1A10_B000

// Register offsets
const (
	CfgLow    uint64 = 0x00
	CfgHigh   uint64 = 0x04
	CntLow    uint64 = 0x08
	CntHigh   uint64 = 0x0c
	CmpLow    uint64 = 0x10
	CmpHigh   uint64 = 0x14
	StartLow  uint64 = 0x18 // write-only
	StartHigh uint64 = 0x1c // write-only
	ResetLow  uint64 = 0x20 // write-only
	ResetHigh uint64 = 0x24 // write-only

	BlockSize uint64 = 0x28
)

// Config word bits
const (
	CfgEnable    = 0
	CfgReset     = 1
	CfgIRQEnable = 2
	CfgEventMask = 3
	CfgMode      = 4 // 0 continuous, 1 cycle
	CfgOneShot   = 5
	CfgPrescaler = 6
	CfgClockSrc  = 7 // 0 FLL, 1 reference
	CfgPrescHigh = 15
	CfgPrescLow  = 8
	CfgCascade   = 31 // low half only
)

// Half selects one of the two 32-bit timers.
type Half uint8

const (
	Low Half = iota
	High
)

func (h Half) String() string {
	if h == High {
		return "hi"
	}
	return "lo"
}

// ParseHalf accepts "lo" or "hi".
func ParseHalf(s string) (Half, error) {
	switch s {
	case "lo":
		return Low, nil
	case "hi":
		return High, nil
	}
	return 0, fmt.Errorf("syst: unknown timer half %q", s)
}

func (h Half) reg(low, high uint64) uint64 {
	if h == High {
		return high
	}
	return low
}

// SYST is a handle to the timer register block.
type SYST struct {
	bus  mmio.Accessor
	base uint64
}

// New returns a handle to the timer at base without claiming it. Like
// peripheral.Steal, the caller guarantees no other handle to the same block
// exists; firmware normally gets its handle from peripheral.Take.
func New(bus mmio.Accessor, base uint64) *SYST {
	return &SYST{bus: bus, base: base}
}

// Base returns the register block base address.
func (s *SYST) Base() uint64 { return s.base }

func (s *SYST) setCfg(h Half, high, low uint8, value uint32) error {
	addr := s.base + h.reg(CfgLow, CfgHigh)
	before, err := s.bus.Read32(addr)
	if err != nil {
		return fmt.Errorf("syst: read cfg_%s: %w", h, err)
	}
	if err := s.bus.Write32(addr, bits.Write(before, high, low, value)); err != nil {
		return fmt.Errorf("syst: write cfg_%s: %w", h, err)
	}
	return nil
}

func (s *SYST) setCfgBit(h Half, bit uint8, on bool) error {
	var v uint32
	if on {
		v = 1
	}
	return s.setCfg(h, bit, bit, v)
}

func (s *SYST) read(h Half, low, high uint64, name string) (uint32, error) {
	v, err := s.bus.Read32(s.base + h.reg(low, high))
	if err != nil {
		return 0, fmt.Errorf("syst: read %s_%s: %w", name, h, err)
	}
	return v, nil
}

func (s *SYST) write(h Half, low, high uint64, name string, v uint32) error {
	if err := s.bus.Write32(s.base+h.reg(low, high), v); err != nil {
		return fmt.Errorf("syst: write %s_%s: %w", name, h, err)
	}
	return nil
}

// Config returns the raw config word of h.
func (s *SYST) Config(h Half) (uint32, error) {
	return s.read(h, CfgLow, CfgHigh, "cfg")
}

func (s *SYST) Enable(h Half) error  { return s.setCfgBit(h, CfgEnable, true) }
func (s *SYST) Disable(h Half) error { return s.setCfgBit(h, CfgEnable, false) }

// ResetCounter sets the config reset bit of h.
func (s *SYST) ResetCounter(h Half) error { return s.setCfgBit(h, CfgReset, true) }

func (s *SYST) EnableInterrupt(h Half) error  { return s.setCfgBit(h, CfgIRQEnable, true) }
func (s *SYST) DisableInterrupt(h Half) error { return s.setCfgBit(h, CfgIRQEnable, false) }

func (s *SYST) EnableEventMask(h Half) error  { return s.setCfgBit(h, CfgEventMask, true) }
func (s *SYST) DisableEventMask(h Half) error { return s.setCfgBit(h, CfgEventMask, false) }

// SetContinuousMode lets the counter run past the compare value.
func (s *SYST) SetContinuousMode(h Half) error { return s.setCfgBit(h, CfgMode, false) }

// SetCycleMode restarts the counter from zero on compare match.
func (s *SYST) SetCycleMode(h Half) error { return s.setCfgBit(h, CfgMode, true) }

func (s *SYST) EnableOneShotMode(h Half) error  { return s.setCfgBit(h, CfgOneShot, true) }
func (s *SYST) DisableOneShotMode(h Half) error { return s.setCfgBit(h, CfgOneShot, false) }

func (s *SYST) EnablePrescalerMode(h Half) error  { return s.setCfgBit(h, CfgPrescaler, true) }
func (s *SYST) DisablePrescalerMode(h Half) error { return s.setCfgBit(h, CfgPrescaler, false) }

// SetFLLClock selects the FLL clock source.
func (s *SYST) SetFLLClock(h Half) error { return s.setCfgBit(h, CfgClockSrc, false) }

// SetReferenceClock selects the reference clock source.
func (s *SYST) SetReferenceClock(h Half) error { return s.setCfgBit(h, CfgClockSrc, true) }

// SetPrescaleValue sets the prescaler divider in cfg[15:8].
func (s *SYST) SetPrescaleValue(h Half, v uint8) error {
	return s.setCfg(h, CfgPrescHigh, CfgPrescLow, uint32(v))
}

// EnableCascadedMode joins both halves into one 64-bit timer.
func (s *SYST) EnableCascadedMode() error { return s.setCfgBit(Low, CfgCascade, true) }

func (s *SYST) DisableCascadedMode() error { return s.setCfgBit(Low, CfgCascade, false) }

func (s *SYST) Counter(h Half) (uint32, error) { return s.read(h, CntLow, CntHigh, "cnt") }

func (s *SYST) SetCounter(h Half, v uint32) error { return s.write(h, CntLow, CntHigh, "cnt", v) }

func (s *SYST) Compare(h Half) (uint32, error) { return s.read(h, CmpLow, CmpHigh, "cmp") }

func (s *SYST) SetCompare(h Half, v uint32) error { return s.write(h, CmpLow, CmpHigh, "cmp", v) }

// Start issues the start command for h.
func (s *SYST) Start(h Half) error { return s.write(h, StartLow, StartHigh, "start", 1) }

// Reset issues the reset command for h.
func (s *SYST) Reset(h Half) error { return s.write(h, ResetLow, ResetHigh, "reset", 1) }
