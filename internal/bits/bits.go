// Package bits reads and writes inclusive bit ranges of 32-bit register words.
package bits

// Mask returns a word with bits [low, high] set.
func Mask(high, low uint8) uint32 {
	width := high - low + 1
	if width >= 32 {
		return ^uint32(0)
	}
	return ((uint32(1) << width) - 1) << low
}

// Read returns bits [low, high] of word shifted down to bit 0.
// The caller must ensure low <= high <= 31.
func Read(word uint32, high, low uint8) uint32 {
	return (word & Mask(high, low)) >> low
}

// Write returns word with bits [low, high] replaced by the low bits of value.
// Bits of value that do not fit the field are dropped.
func Write(word uint32, high, low uint8, value uint32) uint32 {
	mask := Mask(high, low)
	return (word &^ mask) | ((value << low) & mask)
}

// Bit reports whether bit n of word is set.
func Bit(word uint32, n uint8) bool {
	return word&(uint32(1)<<n) != 0
}

// SetBit returns word with bit n set to on.
func SetBit(word uint32, n uint8, on bool) uint32 {
	if on {
		return word | uint32(1)<<n
	}
	return word &^ (uint32(1) << n)
}
