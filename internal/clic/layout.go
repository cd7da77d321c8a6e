// Package clic drives the RISC-V Core-Local Interrupt Controller register block.
package clic

import "github.com/tinyrange/rvclic/internal/bits"

// Register block layout. Offsets are relative to the CLIC base address.
const (
	CfgOffset    uint64 = 0x0000 // cliccfg, read-write
	InfoOffset   uint64 = 0x0004 // clicinfo, read-only
	IntCfgOffset uint64 = 0x1000 // first interrupt control block

	IntBlockSize  uint64 = 16
	MaxInterrupts        = 4096

	BlockSize = IntCfgOffset + MaxInterrupts*IntBlockSize
)

// Interrupt control block word offsets.
const (
	IntPending uint64 = 0x0
	IntEnabled uint64 = 0x4
	IntAttr    uint64 = 0x8
	IntCtl     uint64 = 0xc
)

// cliccfg fields
const (
	cfgNvbitBit   = 0 // 0 means vectoring is implemented
	cfgNlbitsHigh = 4
	cfgNlbitsLow  = 1
	cfgNmbitsHigh = 6
	cfgNmbitsLow  = 5

	CfgWritableMask uint32 = 0x7f
)

// clicinfo fields
const (
	infoMaxIntHigh  = 12
	infoMaxIntLow   = 0
	infoVersionHigh = 20
	infoVersionLow  = 13
	infoCtlBitsHigh = 24
	infoCtlBitsLow  = 21
	infoNumIntHigh  = 30
	infoNumIntLow   = 25
)

// attr fields
const (
	attrSHVBit   = 0
	attrTrigHigh = 2
	attrTrigLow  = 1
)

// IntAddr returns the absolute address of a field word in interrupt n's
// control block.
func IntAddr(base uint64, n uint16, field uint64) uint64 {
	return base + IntCfgOffset + uint64(n)*IntBlockSize + field
}

// Info is a decoded clicinfo word.
type Info uint32

// MakeInfo packs clicinfo fields. Values wider than their field are truncated.
func MakeInfo(maxInt uint16, version uint8, ctlBits uint8, numInt uint8) Info {
	var w uint32
	w = bits.Write(w, infoMaxIntHigh, infoMaxIntLow, uint32(maxInt))
	w = bits.Write(w, infoVersionHigh, infoVersionLow, uint32(version))
	w = bits.Write(w, infoCtlBitsHigh, infoCtlBitsLow, uint32(ctlBits))
	w = bits.Write(w, infoNumIntHigh, infoNumIntLow, uint32(numInt))
	return Info(w)
}

// MaxInterrupts returns the maximum supported interrupt count, bits [12:0].
func (i Info) MaxInterrupts() uint16 {
	return uint16(bits.Read(uint32(i), infoMaxIntHigh, infoMaxIntLow))
}

// Version returns bits [20:13].
func (i Info) Version() uint8 {
	return uint8(bits.Read(uint32(i), infoVersionHigh, infoVersionLow))
}

// PossibleLevelBits returns the implemented width of ctl, bits [24:21].
func (i Info) PossibleLevelBits() uint8 {
	return uint8(bits.Read(uint32(i), infoCtlBitsHigh, infoCtlBitsLow))
}

// NumInt returns the configured interrupt count, bits [30:25].
func (i Info) NumInt() uint8 {
	return uint8(bits.Read(uint32(i), infoNumIntHigh, infoNumIntLow))
}

// Config is a decoded cliccfg word.
type Config uint32

// HasInterruptVectoring reports whether selective hardware vectoring is
// implemented. The hardware encodes this inverted: bit 0 clear means yes.
func (c Config) HasInterruptVectoring() bool {
	return bits.Read(uint32(c), cfgNvbitBit, cfgNvbitBit) == 0
}

// LevelBitWidth returns nlbits, bits [4:1].
func (c Config) LevelBitWidth() uint8 {
	return uint8(bits.Read(uint32(c), cfgNlbitsHigh, cfgNlbitsLow))
}

// ModeBitWidth returns nmbits, bits [6:5].
func (c Config) ModeBitWidth() uint8 {
	return uint8(bits.Read(uint32(c), cfgNmbitsHigh, cfgNmbitsLow))
}
