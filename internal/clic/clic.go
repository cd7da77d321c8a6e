package clic

import (
	"fmt"

	"github.com/tinyrange/rvclic/internal/bits"
	"github.com/tinyrange/rvclic/internal/csr"
	"github.com/tinyrange/rvclic/internal/mmio"
)

// DefaultBase is the CLIC base address on the reference platform.
const DefaultBase uint64 = 0x1A20_0000

// InterruptNumber maps a platform interrupt source to its CLIC index.
// Indices are assumed to be below the implemented interrupt count.
type InterruptNumber interface {
	Number() uint16
}

// Interrupt is a raw CLIC interrupt index.
type Interrupt uint16

func (i Interrupt) Number() uint16 { return uint16(i) }

// Registers is the unguarded view of a CLIC register block. Its methods
// either only read or write a single whole word, so any holder of the base
// address may use them.
type Registers struct {
	bus  mmio.Accessor
	csrs csr.Accessor
	base uint64
}

// NewRegisters returns the unguarded view of the CLIC at base. csrs is used
// for mcause by IsActive.
func NewRegisters(bus mmio.Accessor, csrs csr.Accessor, base uint64) Registers {
	return Registers{bus: bus, csrs: csrs, base: base}
}

// Base returns the register block base address.
func (r Registers) Base() uint64 { return r.base }

func (r Registers) readInt(i InterruptNumber, field uint64) (uint32, error) {
	return r.bus.Read32(IntAddr(r.base, i.Number(), field))
}

func (r Registers) writeInt(i InterruptNumber, field uint64, val uint32) error {
	return r.bus.Write32(IntAddr(r.base, i.Number(), field), val)
}

// Mask disables interrupt i.
func (r Registers) Mask(i InterruptNumber) error {
	if err := r.writeInt(i, IntEnabled, 0); err != nil {
		return fmt.Errorf("clic: mask %d: %w", i.Number(), err)
	}
	return nil
}

// Unmask enables interrupt i.
//
// Enabling an interrupt can break a critical section that relies on that
// interrupt being masked. Callers must know no such section is active.
func (r Registers) Unmask(i InterruptNumber) error {
	if err := r.writeInt(i, IntEnabled, 1); err != nil {
		return fmt.Errorf("clic: unmask %d: %w", i.Number(), err)
	}
	return nil
}

// IsEnabled reports whether interrupt i is enabled.
func (r Registers) IsEnabled(i InterruptNumber) (bool, error) {
	val, err := r.readInt(i, IntEnabled)
	if err != nil {
		return false, fmt.Errorf("clic: read enable %d: %w", i.Number(), err)
	}
	return bits.Bit(val, 0), nil
}

// IsPending reports whether interrupt i is pending.
func (r Registers) IsPending(i InterruptNumber) (bool, error) {
	val, err := r.readInt(i, IntPending)
	if err != nil {
		return false, fmt.Errorf("clic: read pending %d: %w", i.Number(), err)
	}
	return bits.Bit(val, 0), nil
}

// Pend forces interrupt i into the pending state.
func (r Registers) Pend(i InterruptNumber) error {
	if err := r.writeInt(i, IntPending, 1); err != nil {
		return fmt.Errorf("clic: pend %d: %w", i.Number(), err)
	}
	return nil
}

// Unpend clears interrupt i's pending state.
func (r Registers) Unpend(i InterruptNumber) error {
	if err := r.writeInt(i, IntPending, 0); err != nil {
		return fmt.Errorf("clic: unpend %d: %w", i.Number(), err)
	}
	return nil
}

// Priority returns the level/priority byte of interrupt i's ctl word.
func (r Registers) Priority(i InterruptNumber) (uint8, error) {
	val, err := r.readInt(i, IntCtl)
	if err != nil {
		return 0, fmt.Errorf("clic: read ctl %d: %w", i.Number(), err)
	}
	return uint8(bits.Read(val, 7, 0)), nil
}

// Trigger returns the trigger type in interrupt i's attr word.
func (r Registers) Trigger(i InterruptNumber) (Trigger, error) {
	val, err := r.readInt(i, IntAttr)
	if err != nil {
		return 0, fmt.Errorf("clic: read attr %d: %w", i.Number(), err)
	}
	return Trigger(bits.Read(val, attrTrigHigh, attrTrigLow)), nil
}

// IsSHV reports whether selective hardware vectoring is on for interrupt i.
func (r Registers) IsSHV(i InterruptNumber) (bool, error) {
	val, err := r.readInt(i, IntAttr)
	if err != nil {
		return false, fmt.Errorf("clic: read attr %d: %w", i.Number(), err)
	}
	return bits.Bit(val, attrSHVBit), nil
}

// IsActive reports whether the hart is currently servicing interrupt i,
// judged by the low 12 bits of mcause. The answer is only valid at the
// instant of the read.
func (r Registers) IsActive(i InterruptNumber) (bool, error) {
	cause, err := csr.ReadMcause(r.csrs)
	if err != nil {
		return false, fmt.Errorf("clic: active %d: %w", i.Number(), err)
	}
	return cause.Code() == i.Number(), nil
}

// Config reads cliccfg.
func (r Registers) Config() (Config, error) {
	val, err := r.bus.Read32(r.base + CfgOffset)
	if err != nil {
		return 0, fmt.Errorf("clic: read cliccfg: %w", err)
	}
	return Config(val), nil
}

// Info reads clicinfo.
func (r Registers) Info() (Info, error) {
	val, err := r.bus.Read32(r.base + InfoOffset)
	if err != nil {
		return 0, fmt.Errorf("clic: read clicinfo: %w", err)
	}
	return Info(val), nil
}

// ModeBitWidth returns cliccfg.nmbits.
func (r Registers) ModeBitWidth() (uint8, error) {
	cfg, err := r.Config()
	return cfg.ModeBitWidth(), err
}

// LevelBitWidth returns cliccfg.nlbits.
func (r Registers) LevelBitWidth() (uint8, error) {
	cfg, err := r.Config()
	return cfg.LevelBitWidth(), err
}

// HasInterruptVectoring reports whether the CLIC implements selective
// hardware vectoring.
func (r Registers) HasInterruptVectoring() (bool, error) {
	cfg, err := r.Config()
	if err != nil {
		return false, err
	}
	return cfg.HasInterruptVectoring(), nil
}

// NumInt returns the configured interrupt count from clicinfo.
func (r Registers) NumInt() (uint8, error) {
	info, err := r.Info()
	return info.NumInt(), err
}

// PossibleLevelBits returns how many ctl bits the hardware implements.
func (r Registers) PossibleLevelBits() (uint8, error) {
	info, err := r.Info()
	return info.PossibleLevelBits(), err
}

// Version returns the clicinfo version field.
func (r Registers) Version() (uint8, error) {
	info, err := r.Info()
	return info.Version(), err
}

// MaxInterrupts returns the maximum supported interrupt count.
func (r Registers) MaxInterrupts() (uint16, error) {
	info, err := r.Info()
	return info.MaxInterrupts(), err
}

// CLIC is the owned handle to the controller. Operations that read, modify
// and write back part of a word live here; they are not synchronized
// against other writers of the same word.
type CLIC struct {
	Registers
}

// New returns an owned handle to the CLIC at base without claiming it. Like
// peripheral.Steal, the caller guarantees no other owned handle to the same
// block exists; firmware normally gets its handle from peripheral.Take.
func New(bus mmio.Accessor, csrs csr.Accessor, base uint64) *CLIC {
	return &CLIC{Registers: NewRegisters(bus, csrs, base)}
}

func (c *CLIC) modify(addr uint64, what string, high, low uint8, value uint32) error {
	before, err := c.bus.Read32(addr)
	if err != nil {
		return fmt.Errorf("clic: read %s: %w", what, err)
	}
	if err := c.bus.Write32(addr, bits.Write(before, high, low, value)); err != nil {
		return fmt.Errorf("clic: write %s: %w", what, err)
	}
	return nil
}

func (c *CLIC) modifyInt(i InterruptNumber, field uint64, high, low uint8, value uint32) error {
	what := fmt.Sprintf("%s %d", fieldName(field), i.Number())
	return c.modify(IntAddr(c.base, i.Number(), field), what, high, low, value)
}

// SetPriority replaces the low byte of interrupt i's ctl word. The
// implementation-defined upper bits are preserved.
func (c *CLIC) SetPriority(i InterruptNumber, prio uint8) error {
	return c.modifyInt(i, IntCtl, 7, 0, uint32(prio))
}

// EnableSHV turns on selective hardware vectoring for interrupt i.
func (c *CLIC) EnableSHV(i InterruptNumber) error {
	return c.modifyInt(i, IntAttr, attrSHVBit, attrSHVBit, 1)
}

// DisableSHV turns off selective hardware vectoring for interrupt i.
func (c *CLIC) DisableSHV(i InterruptNumber) error {
	return c.modifyInt(i, IntAttr, attrSHVBit, attrSHVBit, 0)
}

// SetTrig sets the trigger type of interrupt i.
func (c *CLIC) SetTrig(i InterruptNumber, trig Trigger) error {
	return c.modifyInt(i, IntAttr, attrTrigHigh, attrTrigLow, uint32(trig))
}

// SetModeBitWidth sets cliccfg.nmbits.
func (c *CLIC) SetModeBitWidth(n uint8) error {
	return c.modify(c.base+CfgOffset, "cliccfg", cfgNmbitsHigh, cfgNmbitsLow, uint32(n))
}

// SetLevelBitWidth sets cliccfg.nlbits.
func (c *CLIC) SetLevelBitWidth(n uint8) error {
	return c.modify(c.base+CfgOffset, "cliccfg", cfgNlbitsHigh, cfgNlbitsLow, uint32(n))
}

func fieldName(field uint64) string {
	switch field {
	case IntPending:
		return "pending"
	case IntEnabled:
		return "enabled"
	case IntAttr:
		return "attr"
	case IntCtl:
		return "ctl"
	}
	return fmt.Sprintf("field 0x%x", field)
}
