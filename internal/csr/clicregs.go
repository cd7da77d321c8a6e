package csr

import (
	"fmt"

	"github.com/tinyrange/rvclic/internal/bits"
)

// Mtvt holds the CLIC vector table base address.
type Mtvt struct {
	bits uint64
}

// NewMtvt wraps raw mtvt bits.
func NewMtvt(bits uint64) Mtvt { return Mtvt{bits: bits} }

func (v Mtvt) Bits() uint64 { return v.bits }

// Base returns the vector table base address.
func (v Mtvt) Base() uint64 { return v.bits }

// SetBase replaces the vector table base address.
func (v *Mtvt) SetBase(base uint64) { v.bits = base }

// ReadMtvt reads mtvt.
func ReadMtvt(acc Accessor) (Mtvt, error) {
	val, err := acc.Read(CSRMtvt)
	if err != nil {
		return Mtvt{}, fmt.Errorf("csr: read mtvt: %w", err)
	}
	return NewMtvt(val), nil
}

// WriteMtvt writes v back to mtvt.
func WriteMtvt(acc Accessor, v Mtvt) error {
	return WriteMtvtAddr(acc, v.bits)
}

// WriteMtvtAddr writes addr as the vector table base.
func WriteMtvtAddr(acc Accessor, addr uint64) error {
	if err := acc.Write(CSRMtvt, addr); err != nil {
		return fmt.Errorf("csr: write mtvt: %w", err)
	}
	return nil
}

// Mintthresh holds the machine-mode interrupt level threshold in bits [7:0].
type Mintthresh struct {
	bits uint64
}

func NewMintthresh(bits uint64) Mintthresh { return Mintthresh{bits: bits} }

func (v Mintthresh) Bits() uint64 { return v.bits }

// Threshold returns the interrupt threshold.
func (v Mintthresh) Threshold() uint8 {
	return uint8(bits.Read(uint32(v.bits), 7, 0))
}

// SetThreshold replaces bits [7:0], leaving the rest of the word alone.
func (v *Mintthresh) SetThreshold(th uint8) {
	low := bits.Write(uint32(v.bits), 7, 0, uint32(th))
	v.bits = v.bits&^0xffff_ffff | uint64(low)
}

func ReadMintthresh(acc Accessor) (Mintthresh, error) {
	val, err := acc.Read(CSRMintthresh)
	if err != nil {
		return Mintthresh{}, fmt.Errorf("csr: read mintthresh: %w", err)
	}
	return NewMintthresh(val), nil
}

func WriteMintthresh(acc Accessor, v Mintthresh) error {
	if err := acc.Write(CSRMintthresh, v.bits); err != nil {
		return fmt.Errorf("csr: write mintthresh: %w", err)
	}
	return nil
}

// Mintstatus is the read-only interrupt level status of each privilege mode.
type Mintstatus struct {
	bits uint64
}

func NewMintstatus(bits uint64) Mintstatus { return Mintstatus{bits: bits} }

func (v Mintstatus) Bits() uint64 { return v.bits }

// MIL returns the machine mode interrupt level.
func (v Mintstatus) MIL() uint8 { return uint8(bits.Read(uint32(v.bits), 31, 24)) }

// SIL returns the supervisor mode interrupt level.
func (v Mintstatus) SIL() uint8 { return uint8(bits.Read(uint32(v.bits), 15, 8)) }

// UIL returns the user mode interrupt level.
func (v Mintstatus) UIL() uint8 { return uint8(bits.Read(uint32(v.bits), 7, 0)) }

func ReadMintstatus(acc Accessor) (Mintstatus, error) {
	val, err := acc.Read(CSRMintstatus)
	if err != nil {
		return Mintstatus{}, fmt.Errorf("csr: read mintstatus: %w", err)
	}
	return NewMintstatus(val), nil
}

// Mcause is the trap cause register.
type Mcause struct {
	bits uint64
}

func NewMcause(bits uint64) Mcause { return Mcause{bits: bits} }

func (v Mcause) Bits() uint64 { return v.bits }

// Code returns the exception code. The CLIC reports interrupt IDs in the
// low 12 bits.
func (v Mcause) Code() uint16 { return uint16(v.bits & 0x0fff) }

// IsInterrupt reports whether the trap was an interrupt.
func (v Mcause) IsInterrupt() bool { return v.bits>>63 != 0 }

func ReadMcause(acc Accessor) (Mcause, error) {
	val, err := acc.Read(CSRMcause)
	if err != nil {
		return Mcause{}, fmt.Errorf("csr: read mcause: %w", err)
	}
	return NewMcause(val), nil
}

// mcountinhibit bits
const (
	McountinhibitCY uint64 = 1 << 0 // cycle counter inhibit
	McountinhibitIR uint64 = 1 << 2 // instret counter inhibit
)

// Mcountinhibit stops individual hardware performance counters.
type Mcountinhibit struct {
	bits uint64
}

func NewMcountinhibit(bits uint64) Mcountinhibit { return Mcountinhibit{bits: bits} }

func (v Mcountinhibit) Bits() uint64 { return v.bits }

// CY reports whether the cycle counter is inhibited.
func (v Mcountinhibit) CY() bool { return v.bits&McountinhibitCY != 0 }

// IR reports whether the instret counter is inhibited.
func (v Mcountinhibit) IR() bool { return v.bits&McountinhibitIR != 0 }

// HPM reports whether hpmcounter[index] is inhibited. index must be in 3..31.
func (v Mcountinhibit) HPM(index int) bool {
	return v.bits&hpmBit(index) != 0
}

func hpmBit(index int) uint64 {
	if index < 3 || index > 31 {
		panic(fmt.Sprintf("csr: hpm index %d outside 3..31", index))
	}
	return 1 << uint(index)
}

func ReadMcountinhibit(acc Accessor) (Mcountinhibit, error) {
	val, err := acc.Read(CSRMcountinhibit)
	if err != nil {
		return Mcountinhibit{}, fmt.Errorf("csr: read mcountinhibit: %w", err)
	}
	return NewMcountinhibit(val), nil
}

func SetCY(acc Accessor) error   { return Set(acc, CSRMcountinhibit, McountinhibitCY) }
func ClearCY(acc Accessor) error { return Clear(acc, CSRMcountinhibit, McountinhibitCY) }
func SetIR(acc Accessor) error   { return Set(acc, CSRMcountinhibit, McountinhibitIR) }
func ClearIR(acc Accessor) error { return Clear(acc, CSRMcountinhibit, McountinhibitIR) }

// SetHPM inhibits hpmcounter[index]. index must be in 3..31.
func SetHPM(acc Accessor, index int) error {
	return Set(acc, CSRMcountinhibit, hpmBit(index))
}

// ClearHPM re-enables hpmcounter[index]. index must be in 3..31.
func ClearHPM(acc Accessor, index int) error {
	return Clear(acc, CSRMcountinhibit, hpmBit(index))
}
