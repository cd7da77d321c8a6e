package csr

import "fmt"

// TrapMode is the trap delivery mode held in mtvec[1:0].
type TrapMode uint8

const (
	TrapModeDirect   TrapMode = 0
	TrapModeVectored TrapMode = 1
	// 2 is reserved.
	TrapModeCLIC TrapMode = 3
)

func (m TrapMode) String() string {
	switch m {
	case TrapModeDirect:
		return "direct"
	case TrapModeVectored:
		return "vectored"
	case TrapModeCLIC:
		return "clic"
	default:
		return fmt.Sprintf("reserved(%d)", uint8(m))
	}
}

// ParseTrapMode maps a mode name as printed by String back to its value.
func ParseTrapMode(s string) (TrapMode, error) {
	switch s {
	case "direct":
		return TrapModeDirect, nil
	case "vectored":
		return TrapModeVectored, nil
	case "clic":
		return TrapModeCLIC, nil
	}
	return 0, fmt.Errorf("csr: unknown trap mode %q", s)
}

// SubMode is the CLIC sub-mode held in mtvec[5:2]. Only Default is defined.
type SubMode uint8

const SubModeDefault SubMode = 0

func (s SubMode) String() string {
	if s == SubModeDefault {
		return "default"
	}
	return fmt.Sprintf("undefined(%d)", uint8(s))
}

const (
	mtvecModeMask    uint64 = 0b11
	mtvecSubModeMask uint64 = 0b11_1100
	mtvecCLICLowMask uint64 = 0b11_1111
)

// Mtvec is a decoded mtvec register. The CLIC flag selects which of
// the two encodings the platform implements.
type Mtvec struct {
	bits uint64
	clic bool
}

// NewMtvec wraps raw mtvec bits.
func NewMtvec(bits uint64, clic bool) Mtvec {
	return Mtvec{bits: bits, clic: clic}
}

// Bits returns the contents of the register as raw bits
func (v Mtvec) Bits() uint64 { return v.bits }

// CLIC reports whether the value is decoded with the CLIC layout.
func (v Mtvec) CLIC() bool { return v.clic }

// Address returns the trap-vector base address. Non-CLIC layouts drop
// bits [1:0], the CLIC layout drops bits [5:0].
func (v Mtvec) Address() uint64 {
	if v.clic {
		return v.bits &^ mtvecCLICLowMask
	}
	return v.bits &^ mtvecModeMask
}

// TrapMode decodes bits [1:0]. The reserved value 2 never decodes, and 3
// decodes only under the CLIC layout.
func (v Mtvec) TrapMode() (TrapMode, bool) {
	switch mode := TrapMode(v.bits & mtvecModeMask); mode {
	case TrapModeDirect, TrapModeVectored:
		return mode, true
	case TrapModeCLIC:
		return mode, v.clic
	}
	return 0, false
}

// SubMode decodes bits [5:2] under the CLIC layout. Values other than
// Default do not decode.
func (v Mtvec) SubMode() (SubMode, bool) {
	if !v.clic {
		return 0, false
	}
	sub := SubMode((v.bits & mtvecSubModeMask) >> 2)
	if sub != SubModeDefault {
		return 0, false
	}
	return sub, true
}

// ReadMtvec reads mtvec and decodes it with the given layout.
func ReadMtvec(acc Accessor, clic bool) (Mtvec, error) {
	bits, err := acc.Read(CSRMtvec)
	if err != nil {
		return Mtvec{}, fmt.Errorf("csr: read mtvec: %w", err)
	}
	return NewMtvec(bits, clic), nil
}

// WriteMtvec writes addr + mode in one access. addr must already be 4-byte
// aligned; low bits left set spill into the mode field.
func WriteMtvec(acc Accessor, addr uint64, mode TrapMode) error {
	if err := acc.Write(CSRMtvec, addr+uint64(mode)); err != nil {
		return fmt.Errorf("csr: write mtvec: %w", err)
	}
	return nil
}

// WriteMtvecCLIC writes addr + sub<<2 + mode in one access. addr must
// already be 64-byte aligned.
func WriteMtvecCLIC(acc Accessor, addr uint64, sub SubMode, mode TrapMode) error {
	if err := acc.Write(CSRMtvec, addr+(uint64(sub)<<2)+uint64(mode)); err != nil {
		return fmt.Errorf("csr: write mtvec: %w", err)
	}
	return nil
}
