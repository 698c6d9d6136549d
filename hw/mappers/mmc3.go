package mappers

import (
	"nescore/ines"
)

var MMC3 = MapperDesc{
	Name: "MMC3",
	Load: loadMMC3,
}

type mmc3 struct {
	*base

	regs struct {
		BankSelect uint8
		R          [8]uint8
		Mirroring  uint8

		IRQLatch   uint8
		IRQCounter uint8
		IRQReload  bool
		IRQEnabled bool
		IRQPending bool
	}
}

func (m *mmc3) WriteRegister(addr uint16, val uint8) {
	switch addr & 0xE001 {
	case 0x8000:
		// 7  bit  0
		// ---- ----
		// CPMx xRRR
		// |||   |||
		// |||   +++- Specify which bank register to update on next write to Bank Data register
		// ||+------- Nothing on the MMC3
		// |+-------- PRG ROM bank mode (0: $8000-$9FFF swappable, 1: $C000-$DFFF swappable)
		// +--------- CHR A12 inversion
		m.regs.BankSelect = val
		m.remap()
	case 0x8001:
		m.regs.R[m.regs.BankSelect&7] = val
		m.remap()
	case 0xA000:
		m.regs.Mirroring = val & 1
		m.remap()
	case 0xA001:
		// PRG-RAM protect is not emulated, RAM is always enabled.
	case 0xC000:
		m.regs.IRQLatch = val
	case 0xC001:
		m.regs.IRQCounter = 0
		m.regs.IRQReload = true
	case 0xE000:
		m.regs.IRQEnabled = false
		m.regs.IRQPending = false
	case 0xE001:
		m.regs.IRQEnabled = true
	}
}

func (m *mmc3) remap() {
	if m.regs.Mirroring == 0 {
		m.setNTMirroring(ines.VertMirroring)
	} else {
		m.setNTMirroring(ines.HorzMirroring)
	}

	r := &m.regs.R
	r6, r7 := int(r[6]&0x3F), int(r[7]&0x3F)
	if m.regs.BankSelect&0x40 == 0 {
		m.selectPRGPage8KB(0, r6)
		m.selectPRGPage8KB(2, -2)
	} else {
		m.selectPRGPage8KB(0, -2)
		m.selectPRGPage8KB(2, r6)
	}
	m.selectPRGPage8KB(1, r7)
	m.selectPRGPage8KB(3, -1)

	// 2KB banks ignore the low bit. With A12 inversion the 2KB banks are
	// at $1000 and the 1KB banks at $0000.
	lo, hi := 0, 4
	if m.regs.BankSelect&0x80 != 0 {
		lo, hi = 4, 0
	}
	m.selectCHRPage1KB(lo+0, int(r[0]&0xFE))
	m.selectCHRPage1KB(lo+1, int(r[0]|0x01))
	m.selectCHRPage1KB(lo+2, int(r[1]&0xFE))
	m.selectCHRPage1KB(lo+3, int(r[1]|0x01))
	m.selectCHRPage1KB(hi+0, int(r[2]))
	m.selectCHRPage1KB(hi+1, int(r[3]))
	m.selectCHRPage1KB(hi+2, int(r[4]))
	m.selectCHRPage1KB(hi+3, int(r[5]))
}

// Tick clocks the scanline counter.
func (m *mmc3) Tick() {
	if m.regs.IRQCounter == 0 || m.regs.IRQReload {
		m.regs.IRQCounter = m.regs.IRQLatch
		m.regs.IRQReload = false
	} else {
		m.regs.IRQCounter--
	}

	if m.regs.IRQCounter == 0 && m.regs.IRQEnabled {
		if !m.regs.IRQPending {
			modMapper.DebugZ("scanline IRQ").String("mapper", m.desc.Name).End()
		}
		m.regs.IRQPending = true
	}
}

func (m *mmc3) IRQPending() bool {
	return m.regs.IRQPending
}

func loadMMC3(b *base) Mapper {
	mmc3 := &mmc3{base: b}
	b.regs = &mmc3.regs

	mmc3.regs.R = [8]uint8{0, 2, 4, 5, 6, 7, 0, 1}
	if b.ntm == ines.HorzMirroring {
		mmc3.regs.Mirroring = 1
	}
	mmc3.remap()
	return mmc3
}
