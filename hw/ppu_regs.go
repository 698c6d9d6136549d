package hw

import (
	"nescore/emu/log"
	"nescore/hw/hwdefs"
)

// 'Loopy' register. Layout of the 15-bit internal VRAM address (v) and
// temporary address (t):
//
//	yyy NN YYYYY XXXXX
//	||| || ||||| +++++-- coarse X scroll
//	||| || +++++-------- coarse Y scroll
//	||| ++-------------- nametable select
//	+++----------------- fine Y scroll
type loopy uint16

func (l loopy) coarsex() uint8   { return uint8(l & 0x1F) }
func (l loopy) coarsey() uint8   { return uint8(l>>5) & 0x1F }
func (l loopy) nametable() uint8 { return uint8(l>>10) & 0x03 }
func (l loopy) finey() uint16    { return uint16(l>>12) & 0x07 }
func (l loopy) low() uint8       { return uint8(l) }
func (l loopy) high() uint8      { return uint8(l>>8) & 0x7F }
func (l loopy) addr() uint16     { return uint16(l) & 0x3FFF }
func (l loopy) val() uint16      { return uint16(l) & 0x7FFF }

func (l *loopy) setCoarsex(v uint8)   { *l = *l&^0x001F | loopy(v&0x1F) }
func (l *loopy) setCoarsey(v uint8)   { *l = *l&^0x03E0 | loopy(v&0x1F)<<5 }
func (l *loopy) setNametable(v uint8) { *l = *l&^0x0C00 | loopy(v&0x03)<<10 }
func (l *loopy) setFiney(v uint16)    { *l = *l&^0x7000 | loopy(v&0x07)<<12 }
func (l *loopy) setLow(v uint8)       { *l = *l&^0x00FF | loopy(v) }
func (l *loopy) setHigh(v uint8)      { *l = *l&^0x7F00 | loopy(v&0x7F)<<8 }

// incX increments coarse X, switching horizontal nametable on overflow.
func (l *loopy) incX() {
	if l.coarsex() == 31 {
		l.setCoarsex(0)
		*l ^= 0x0400
		return
	}
	*l++
}

// incY increments fine Y, overflowing into coarse Y, and switches vertical
// nametable when leaving row 29. Rows 30 and 31 wrap without switching.
func (l *loopy) incY() {
	if l.finey() < 7 {
		*l += 0x1000
		return
	}
	l.setFiney(0)
	switch y := l.coarsey(); y {
	case 29:
		l.setCoarsey(0)
		*l ^= 0x0800
	case 31:
		l.setCoarsey(0)
	default:
		l.setCoarsey(y + 1)
	}
}

// ppuctrl register ($2000)
type ppuctrl uint8

// Nametable selection mask
// (0 = $2000; 1 = $2400; 2 = $2800; 3 = $2C00)
func (c ppuctrl) nametable() uint8 { return uint8(c) & 0x03 }

// VRAM address increment per CPU read/write of PPUDATA
// (0: +1 i.e. horizontal; 1: +32 i.e. vertical)
func (c ppuctrl) incr() bool { return c&0x04 != 0 }

// Sprite pattern table address for 8x8 sprites
// (0: $0000; 1: $1000; ignored in 8x16 mode)
func (c ppuctrl) spriteTable() uint16 { return uint16(c>>3&1) * 0x1000 }

// Background pattern table address (0: $0000; 1: $1000)
func (c ppuctrl) bgTable() uint16 { return uint16(c>>4&1) * 0x1000 }

// Sprite size (0: 8x8 pixels; 1: 8x16 pixels)
func (c ppuctrl) spriteSize() bool { return c&0x20 != 0 }

// Generate an NMI at the start of the vertical blanking interval.
func (c ppuctrl) nmi() bool { return c&0x80 != 0 }

// ppumask register ($2001)
type ppumask uint8

func (m ppumask) gray() bool       { return m&0x01 != 0 }
func (m ppumask) bgLeft() bool     { return m&0x02 != 0 }
func (m ppumask) spriteLeft() bool { return m&0x04 != 0 }
func (m ppumask) bg() bool         { return m&0x08 != 0 }
func (m ppumask) sprites() bool    { return m&0x10 != 0 }

func (m ppumask) rendering() bool { return m&0x18 != 0 }

// ppustatus register ($2002) bits.
const (
	// The intent was for this flag to be set whenever more than eight sprites
	// appear on a scanline, but a hardware bug causes the actual behavior to be
	// more complicated and generate false positives as well as false negatives;
	// This flag is set during sprite evaluation and cleared at dot 1 (the
	// second dot) of the pre-render line.
	spriteOverflow = 5

	// Set when a nonzero pixel of sprite 0 overlaps a nonzero background pixel;
	// cleared at dot 1 of the pre-render line. Used for raster timing.
	sprite0Hit = 6

	// Set at dot 1 of line 241 (the line *after* the post-render line); cleared
	// after reading $2002 and at dot 1 of the pre-render line.
	vblank = 7

	// Low bits return stale PPU bus contents.
	openbusMask = 0b11111
)

// PPUCTRL: $2000
func (p *PPU) WritePPUCTRL(old, val uint8) {
	log.ModPPU.DebugZ("Write to PPUCTRL").Hex8("val", val).End()

	// Transfer the nametable bits.
	p.vramTmp.setNametable(val)

	// By toggling the nmi bit during vblank without reading PPUSTATUS, a
	// program can cause /nmi to be pulled low multiple times, causing
	// multiple NMIs to be generated.
	p.nmiChange()
}

// PPUMASK: $2001
func (p *PPU) WritePPUMASK(old, val uint8) {
	log.ModPPU.DebugZ("Write to PPUMASK").Hex8("val", val).End()
}

// PPUSTATUS: $2002
func (p *PPU) ReadPPUSTATUS(val uint8) uint8 {
	ret := p.PeekPPUSTATUS(val)

	p.writeLatch = false
	p.PPUSTATUS.ClearBit(vblank)
	p.nmiChange()
	return ret
}

func (p *PPU) PeekPPUSTATUS(val uint8) uint8 {
	return val&^openbusMask | p.openBus&openbusMask
}

// OAMDATA: $2004
func (p *PPU) ReadOAMDATA(_ uint8) uint8 {
	val := p.oam[p.OAMADDR.Value]
	if p.OAMADDR.Value&3 == 2 {
		// Unimplemented bits of the attribute byte.
		val &= 0xE3
	}
	return val
}

func (p *PPU) WriteOAMDATA(_, val uint8) {
	p.oam[p.OAMADDR.Value] = val
	p.OAMADDR.Value++
}

// PPUSCROLL: $2005
func (p *PPU) WritePPUSCROLL(old, val uint8) {
	log.ModPPU.DebugZ("Write to PPUSCROLL").Hex8("val", val).Bool("latch", p.writeLatch).End()

	if !p.writeLatch { // first write
		p.finex = val & 0b111
		p.vramTmp.setCoarsex(val >> 3)
	} else { // second write
		p.vramTmp.setFiney(uint16(val & 0b111))
		p.vramTmp.setCoarsey(val >> 3)
	}

	p.writeLatch = !p.writeLatch
}

// To read/write VRAM from CPU, PPUADDR is set to the address of the operation.
// It's a 16-bit register so 2 writes are necessary.
// PPUADDR: $2006
func (p *PPU) WritePPUADDR(old, val uint8) {
	if !p.writeLatch { // first write
		// Bit 14 of t gets cleared.
		p.vramTmp.setHigh(val & 0b11_1111)
	} else { // second write
		p.vramTmp.setLow(val)
		p.vramAddr = p.vramTmp
	}

	p.writeLatch = !p.writeLatch
}

// PPUDATA: $2007
func (p *PPU) ReadPPUDATA(_ uint8) uint8 {
	val := p.PeekPPUDATA(0)

	addr := p.vramAddr.addr()
	if addr < 0x3F00 {
		// Reading VRAM is too slow so the actual data
		// will be returned at the next read.
		p.ppuDataRbuf = p.read8(addr)
	} else {
		// Palette reads are immediate, but the buffer still gets filled
		// with the nametable byte 'underneath' the palette.
		p.ppuDataRbuf = p.read8(addr - 0x1000)
	}

	p.incVRAMaddr()
	log.ModPPU.DebugZ("VRAM read").Hex16("addr", addr).Hex8("val", val).End()
	return val
}

func (p *PPU) PeekPPUDATA(_ uint8) uint8 {
	addr := p.vramAddr.addr()
	if addr < 0x3F00 {
		return p.ppuDataRbuf
	}
	// Palette entries are 6 bits wide, the top 2 bits are open bus.
	return p.readPalette(addr) | p.openBus&0xC0
}

// PPUDATA: $2007
func (p *PPU) WritePPUDATA(old, val uint8) {
	addr := p.vramAddr.addr()
	p.write8(addr, val)
	p.incVRAMaddr()

	log.ModPPU.DebugZ("VRAM write").Hex16("addr", addr).Hex8("val", val).End()
}

// After each i/o on PPUDATA, PPUADDR is incremented.
func (p *PPU) incVRAMaddr() {
	rendering := p.mask().rendering() &&
		(p.Scanline < hwdefs.VisibleLines || p.Scanline == hwdefs.PreRenderLine)
	if rendering {
		// During rendering, PPUDATA accesses trigger both a coarse X and
		// a Y increment.
		p.vramAddr.incX()
		p.vramAddr.incY()
		return
	}

	if p.ctrl().incr() {
		p.vramAddr += 32
	} else {
		p.vramAddr++
	}
	p.vramAddr &= 0x7FFF
}
