package hwio

// 8-bit operations

func GetBit8(v uint8, n uint) bool {
	return GetBiti8(v, n) != 0
}

func GetBiti8(v uint8, n uint) uint8 {
	return v >> n & 0x01
}

func SetBit8(v *uint8, n uint) {
	*v |= 1 << n
}

func ClearBit8(v *uint8, n uint) {
	*v &^= 1 << n
}

func FlipBit8(v *uint8, n uint) {
	*v ^= 1 << n
}

// 16-bit operations

func GetBit16(v uint16, n uint) bool {
	return v>>n&0x01 != 0
}

func SetBit16(v *uint16, n uint) {
	*v |= 1 << n
}

func ClearBit16(v *uint16, n uint) {
	*v &^= 1 << n
}

// Hi and Lo return the high and low bytes of a 16-bit word.
func Hi(v uint16) uint8 { return uint8(v >> 8) }
func Lo(v uint16) uint8 { return uint8(v) }

// U16 builds a 16-bit word from its low and high bytes.
func U16(lo, hi uint8) uint16 { return uint16(hi)<<8 | uint16(lo) }
