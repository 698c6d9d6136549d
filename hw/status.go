package hw

// P is the processor status register.
type P uint8

const (
	Carry P = 1 << iota
	Zero
	Interrupt
	Decimal
	Break
	Unused
	Overflow
	Negative
)

func (p P) String() string {
	const bits = "nvubdizcNVUBDIZC"

	s := make([]byte, 8)
	for i := range 8 {
		ibit := (uint8(p) >> (7 - i)) & 1
		s[i] = bits[i+int(8*ibit)]
	}
	return string(s)
}

func (p P) set(flag P, v bool) P {
	if v {
		return p | flag
	}
	return p &^ flag
}

func (p P) Carry() bool      { return p&Carry != 0 }
func (p P) Zero() bool       { return p&Zero != 0 }
func (p P) IntDisable() bool { return p&Interrupt != 0 }
func (p P) Decimal() bool    { return p&Decimal != 0 }
func (p P) Break() bool      { return p&Break != 0 }
func (p P) Overflow() bool   { return p&Overflow != 0 }
func (p P) Negative() bool   { return p&Negative != 0 }

func (p P) SetCarry(v bool) P      { return p.set(Carry, v) }
func (p P) SetZero(v bool) P       { return p.set(Zero, v) }
func (p P) SetIntDisable(v bool) P { return p.set(Interrupt, v) }
func (p P) SetDecimal(v bool) P    { return p.set(Decimal, v) }
func (p P) SetBreak(v bool) P      { return p.set(Break, v) }
func (p P) SetOverflow(v bool) P   { return p.set(Overflow, v) }
func (p P) SetNegative(v bool) P   { return p.set(Negative, v) }

// carry returns the carry flag as 0 or 1.
func (p P) carry() uint8 {
	return uint8(p & Carry)
}

// sets N flag if bit 7 of v is set, clears it otherwise.
func (p *P) checkN(v uint8) {
	*p = p.SetNegative(v&0x80 != 0)
}

// sets Z flag if v == 0, clears it otherwise.
func (p *P) checkZ(v uint8) {
	*p = p.SetZero(v == 0)
}

func (p *P) checkNZ(v uint8) {
	p.checkN(v)
	p.checkZ(v)
}

func (p *P) checkCV(x, y uint8, sum uint16) {
	// forward carry or unsigned overflow.
	*p = p.SetCarry(sum > 0xFF)

	// signed overflow, can only happen if the sign of the sum differs
	// from that of both operands.
	v := (uint16(x) ^ sum) & (uint16(y) ^ sum) & 0x80
	*p = p.SetOverflow(v != 0)
}

// pushed returns the value of P as pushed on the stack, where the B flag
// only exists there.
func (p P) pushed(brk bool) uint8 {
	return uint8(p.set(Break, brk) | Unused)
}

// pulled returns the value of P as pulled from the stack. B is discarded
// and the unused bit always reads as set.
func pulled(v uint8) P {
	return P(v)&^Break | Unused
}
