package hw

import (
	"math/bits"

	"nescore/emu/log"
	"nescore/hw/hwdefs"
	"nescore/hw/hwio"
	"nescore/hw/mappers"
	"nescore/hw/snapshot"
	"nescore/ines"
)

const (
	NumScanlines = hwdefs.NumScanlines // Number of scanlines per frame.
	NumCycles    = hwdefs.DotsPerLine  // Number of PPU cycles per scanline.
)

type sprite struct {
	id     uint8 // index in OAM
	x      uint8
	attr   uint8
	lo, hi uint8 // pattern data, already flipped horizontally
}

// bgPipeline holds the latches filled by background fetches and the shift
// registers feeding the pixel output.
type bgPipeline struct {
	nt, at, lo, hi uint8

	shiftLo   uint16
	shiftHi   uint16
	atShiftLo uint16
	atShiftHi uint16
}

type PPU struct {
	CPU  *CPU
	Cart *mappers.Cartridge

	Cycle    int    // Current cycle/pixel in scanline
	Scanline int    // Current scanline being drawn
	Frames   uint64 // Number of frames since power-up

	// CPU-exposed memory-mapped PPU registers
	// mapped from $2000 to $2007, mirrored up to $3fff
	PPUCTRL   hwio.Reg8
	PPUMASK   hwio.Reg8
	PPUSTATUS hwio.Reg8
	OAMADDR   hwio.Reg8
	OAMDATA   hwio.Reg8
	PPUSCROLL hwio.Reg8
	PPUADDR   hwio.Reg8
	PPUDATA   hwio.Reg8

	regs [8]*hwio.Reg8

	// $3F00-$3F1F Palette RAM indexes, mirrored up to $3FFF.
	palette [0x20]uint8
	oam     [0x100]uint8

	// 2KB of internal nametable RAM, 4KB for four-screen cartridges.
	nametables []uint8

	// VRAM read/write
	vramAddr    loopy
	vramTmp     loopy
	finex       uint8
	writeLatch  bool
	ppuDataRbuf uint8
	openBus     uint8

	bg bgPipeline

	sprites  [8]sprite
	nsprites int

	oddFrame   bool
	frameReady bool
	nmiPrev    bool

	frames [2]Frame
	cur    int
}

func NewPPU() *PPU {
	p := &PPU{
		nametables: make([]uint8, 0x800),
	}
	p.PPUCTRL = hwio.Reg8{Name: "PPUCTRL", Flags: hwio.WriteOnlyFlag, WriteCb: p.WritePPUCTRL}
	p.PPUMASK = hwio.Reg8{Name: "PPUMASK", Flags: hwio.WriteOnlyFlag, WriteCb: p.WritePPUMASK}
	p.PPUSTATUS = hwio.Reg8{Name: "PPUSTATUS", Flags: hwio.ReadOnlyFlag, ReadCb: p.ReadPPUSTATUS, PeekCb: p.PeekPPUSTATUS}
	p.OAMADDR = hwio.Reg8{Name: "OAMADDR", Flags: hwio.WriteOnlyFlag}
	p.OAMDATA = hwio.Reg8{Name: "OAMDATA", ReadCb: p.ReadOAMDATA, PeekCb: p.ReadOAMDATA, WriteCb: p.WriteOAMDATA}
	p.PPUSCROLL = hwio.Reg8{Name: "PPUSCROLL", Flags: hwio.WriteOnlyFlag, WriteCb: p.WritePPUSCROLL}
	p.PPUADDR = hwio.Reg8{Name: "PPUADDR", Flags: hwio.WriteOnlyFlag, WriteCb: p.WritePPUADDR}
	p.PPUDATA = hwio.Reg8{Name: "PPUDATA", ReadCb: p.ReadPPUDATA, PeekCb: p.PeekPPUDATA, WriteCb: p.WritePPUDATA}

	p.regs = [8]*hwio.Reg8{
		&p.PPUCTRL, &p.PPUMASK, &p.PPUSTATUS, &p.OAMADDR,
		&p.OAMDATA, &p.PPUSCROLL, &p.PPUADDR, &p.PPUDATA,
	}
	return p
}

// SetCartridge plugs cart, whose CHR memory gets mapped at $0000-$1FFF.
func (p *PPU) SetCartridge(cart *mappers.Cartridge) {
	p.Cart = cart
	size := 0x800
	if cart != nil && cart.Mapper.Mirroring() == ines.FourScreen {
		size = 0x1000
	}
	p.nametables = make([]uint8, size)
}

// Reset resets the PPU. On power-up (soft is false), all memories are
// cleared as well.
func (p *PPU) Reset(soft bool) {
	p.PPUCTRL.Value = 0
	p.PPUMASK.Value = 0
	p.PPUSCROLL.Value = 0
	p.writeLatch = false
	p.ppuDataRbuf = 0
	p.vramTmp = 0
	p.finex = 0
	p.oddFrame = false
	p.frameReady = false
	p.nmiPrev = false
	p.Scanline = 0
	p.Cycle = 0

	if !soft {
		p.PPUSTATUS.Value = 0
		p.OAMADDR.Value = 0
		p.vramAddr = 0
		p.openBus = 0
		p.Frames = 0
		p.nsprites = 0
		p.bg = bgPipeline{}
		clear(p.palette[:])
		clear(p.oam[:])
		clear(p.nametables)
		p.frames = [2]Frame{}
	}
}

func (p *PPU) ctrl() ppuctrl { return ppuctrl(p.PPUCTRL.Value) }
func (p *PPU) mask() ppumask { return ppumask(p.PPUMASK.Value) }

// ReadRegister handles a CPU read in the $2000-$3FFF range.
func (p *PPU) ReadRegister(addr uint16) uint8 {
	val, ok := p.regs[addr&7].Read8(addr)
	if !ok {
		return p.openBus
	}
	p.openBus = val
	return val
}

// PeekRegister is ReadRegister without side effects.
func (p *PPU) PeekRegister(addr uint16) uint8 {
	reg := p.regs[addr&7]
	if reg.Flags&hwio.WriteOnlyFlag != 0 {
		return p.openBus
	}
	return reg.Peek8(addr)
}

// WriteRegister handles a CPU write in the $2000-$3FFF range.
func (p *PPU) WriteRegister(addr uint16, val uint8) {
	p.openBus = val
	p.regs[addr&7].Write8(addr, val)
}

// FrameReady reports whether a frame has been completed since the last
// call, and clears the flag.
func (p *PPU) FrameReady() bool {
	ready := p.frameReady
	p.frameReady = false
	return ready
}

// Frame returns the last completed frame. It stays valid until the next one
// gets completed.
func (p *PPU) Frame() *Frame {
	return &p.frames[p.cur^1]
}

// Tick runs the PPU for a single dot.
func (p *PPU) Tick() {
	p.doDot()

	if p.mask().rendering() && p.oddFrame && p.Scanline == hwdefs.PreRenderLine && p.Cycle == 339 {
		// Odd frames are one dot shorter.
		p.Cycle = 0
		p.nextFrame()
		return
	}

	p.Cycle++
	if p.Cycle >= NumCycles {
		p.Cycle = 0
		p.Scanline++
		if p.Scanline >= NumScanlines {
			p.nextFrame()
		}
	}
}

func (p *PPU) nextFrame() {
	p.Scanline = 0
	p.Frames++
	p.oddFrame = !p.oddFrame
}

func (p *PPU) doDot() {
	var (
		preLine     = p.Scanline == hwdefs.PreRenderLine
		visibleLine = p.Scanline < hwdefs.VisibleLines
		renderLine  = preLine || visibleLine
		fetchCycle  = (p.Cycle >= 2 && p.Cycle <= 257) || (p.Cycle >= 321 && p.Cycle <= 337)
	)

	if p.mask().rendering() && renderLine {
		if fetchCycle {
			p.shiftBackground()
			p.fetchBackground()
		}
		if visibleLine && p.Cycle >= 1 && p.Cycle <= 256 {
			p.renderPixel()
		}

		switch {
		case p.Cycle == 256:
			p.vramAddr.incY()
		case p.Cycle == 257:
			p.copyX()
			if visibleLine {
				p.evaluateSprites()
			} else {
				p.nsprites = 0
			}
		case preLine && p.Cycle >= 280 && p.Cycle <= 304:
			p.copyY()
		}

		if p.Cycle >= 257 && p.Cycle <= 320 {
			p.OAMADDR.Value = 0
		}
		if p.Cycle == 260 && p.Cart != nil {
			p.Cart.Mapper.Tick()
		}
	} else if visibleLine && p.Cycle >= 1 && p.Cycle <= 256 {
		p.renderBackdrop()
	}

	switch {
	case p.Scanline == hwdefs.VBlankLine && p.Cycle == 1:
		p.PPUSTATUS.SetBit(vblank)
		p.nmiChange()
		p.frameReady = true
		p.cur ^= 1
		log.ModPPU.DebugZ("vblank").Int64("frame", int64(p.Frames)).End()
	case preLine && p.Cycle == 1:
		p.PPUSTATUS.ClearBit(vblank)
		p.PPUSTATUS.ClearBit(sprite0Hit)
		p.PPUSTATUS.ClearBit(spriteOverflow)
		p.nmiChange()
	}
}

// nmiChange tracks the rising edge of the NMI output.
func (p *PPU) nmiChange() {
	nmi := p.ctrl().nmi() && p.PPUSTATUS.GetBit(vblank)
	if nmi && !p.nmiPrev && p.CPU != nil {
		p.CPU.setNMIflag()
	}
	p.nmiPrev = nmi
}

func (p *PPU) copyX() {
	// hori(v) = hori(t)
	p.vramAddr = p.vramAddr&^0x041F | p.vramTmp&0x041F
}

func (p *PPU) copyY() {
	// vert(v) = vert(t)
	p.vramAddr = p.vramAddr&^0x7BE0 | p.vramTmp&0x7BE0
}

/* background */

func (p *PPU) shiftBackground() {
	p.bg.shiftLo <<= 1
	p.bg.shiftHi <<= 1
	p.bg.atShiftLo <<= 1
	p.bg.atShiftHi <<= 1
}

func (p *PPU) fetchBackground() {
	v := p.vramAddr
	switch (p.Cycle - 1) % 8 {
	case 0:
		p.reloadShifters()
		p.bg.nt = p.read8(0x2000 | v.val()&0x0FFF)
	case 2:
		addr := 0x23C0 | v.val()&0x0C00 | uint16(v.coarsey()>>2)<<3 | uint16(v.coarsex()>>2)
		shift := (v.coarsey()&2)<<1 | v.coarsex()&2
		p.bg.at = (p.read8(addr) >> shift) & 3
	case 4:
		addr := p.ctrl().bgTable() + uint16(p.bg.nt)*16 + v.finey()
		p.bg.lo = p.read8(addr)
	case 6:
		addr := p.ctrl().bgTable() + uint16(p.bg.nt)*16 + v.finey()
		p.bg.hi = p.read8(addr + 8)
	case 7:
		p.vramAddr.incX()
	}
}

func (p *PPU) reloadShifters() {
	p.bg.shiftLo = p.bg.shiftLo&0xFF00 | uint16(p.bg.lo)
	p.bg.shiftHi = p.bg.shiftHi&0xFF00 | uint16(p.bg.hi)
	p.bg.atShiftLo = p.bg.atShiftLo &^ 0xFF
	p.bg.atShiftHi = p.bg.atShiftHi &^ 0xFF
	if p.bg.at&1 != 0 {
		p.bg.atShiftLo |= 0xFF
	}
	if p.bg.at&2 != 0 {
		p.bg.atShiftHi |= 0xFF
	}
}

func (p *PPU) backgroundPixel(x int) (color, pal uint8) {
	if !p.mask().bg() || (x < 8 && !p.mask().bgLeft()) {
		return 0, 0
	}
	bit := uint16(0x8000) >> p.finex
	color = b2u8(p.bg.shiftHi&bit != 0)<<1 | b2u8(p.bg.shiftLo&bit != 0)
	pal = b2u8(p.bg.atShiftHi&bit != 0)<<1 | b2u8(p.bg.atShiftLo&bit != 0)
	return color, pal
}

/* sprites */

func (p *PPU) spriteHeight() int {
	if p.ctrl().spriteSize() {
		return 16
	}
	return 8
}

// evaluateSprites selects the sprites of the current line, that will be
// displayed on the next one.
func (p *PPU) evaluateSprites() {
	h := p.spriteHeight()
	p.nsprites = 0

	n := 0
	for ; n < 64 && p.nsprites < 8; n++ {
		row := p.Scanline - int(p.oam[n*4])
		if row < 0 || row >= h {
			continue
		}
		p.sprites[p.nsprites] = p.fetchSprite(uint8(n), row)
		p.nsprites++
	}

	// Once 8 sprites have been found, the PPU keeps looking for a 9th one
	// from the next entry, but it also increments the byte index m along
	// with n, scanning OAM diagonally. Tile, attribute or X bytes can then be
	// taken for Y coordinates.
	for m := 0; n < 64; n++ {
		row := p.Scanline - int(p.oam[n*4+m])
		if row >= 0 && row < h {
			p.PPUSTATUS.SetBit(spriteOverflow)
			break
		}
		m = (m + 1) & 3
	}
}

func (p *PPU) fetchSprite(n uint8, row int) sprite {
	h := p.spriteHeight()
	tile := uint16(p.oam[n*4+1])
	attr := p.oam[n*4+2]

	if attr&0x80 != 0 {
		row = h - 1 - row
	}

	var addr uint16
	if h == 8 {
		addr = p.ctrl().spriteTable() + tile*16 + uint16(row)
	} else {
		table := (tile & 1) * 0x1000
		tile &= 0xFE
		if row > 7 {
			tile++
			row -= 8
		}
		addr = table + tile*16 + uint16(row)
	}

	s := sprite{
		id:   n,
		x:    p.oam[n*4+3],
		attr: attr,
		lo:   p.read8(addr),
		hi:   p.read8(addr + 8),
	}
	if attr&0x40 != 0 {
		s.lo = bits.Reverse8(s.lo)
		s.hi = bits.Reverse8(s.hi)
	}
	return s
}

func (p *PPU) spritePixel(x int) (color, pal uint8, behind, zero bool) {
	if !p.mask().sprites() || (x < 8 && !p.mask().spriteLeft()) {
		return 0, 0, false, false
	}
	for i := range p.nsprites {
		s := &p.sprites[i]
		off := x - int(s.x)
		if off < 0 || off > 7 {
			continue
		}
		shift := 7 - off
		color = (s.hi>>shift&1)<<1 | s.lo>>shift&1
		if color == 0 {
			continue
		}
		return color, s.attr&3 + 4, s.attr&0x20 != 0, s.id == 0
	}
	return 0, 0, false, false
}

/* output */

func (p *PPU) renderPixel() {
	x, y := p.Cycle-1, p.Scanline

	bgColor, bgPal := p.backgroundPixel(x)
	spColor, spPal, behind, zero := p.spritePixel(x)

	var addr uint8
	switch {
	case bgColor == 0 && spColor == 0:
		addr = 0
	case bgColor == 0:
		addr = spPal<<2 | spColor
	case spColor == 0:
		addr = bgPal<<2 | bgColor
	default:
		if zero && x != 255 {
			p.PPUSTATUS.SetBit(sprite0Hit)
		}
		if behind {
			addr = bgPal<<2 | bgColor
		} else {
			addr = spPal<<2 | spColor
		}
	}
	p.setPixel(x, y, p.readPalette(uint16(addr)))
}

// renderBackdrop outputs the backdrop color while rendering is disabled,
// or the palette entry pointed at by v when it's in the palette range.
func (p *PPU) renderBackdrop() {
	addr := uint16(0)
	if v := p.vramAddr.addr(); v >= 0x3F00 {
		addr = v
	}
	p.setPixel(p.Cycle-1, p.Scanline, p.readPalette(addr))
}

func (p *PPU) setPixel(x, y int, color uint8) {
	if p.mask().gray() {
		color &= 0x30
	}
	p.frames[p.cur].Pix[y*hwdefs.ScreenWidth+x] = color & 0x3F
}

/* PPU bus */

func (p *PPU) read8(addr uint16) uint8 {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		if p.Cart == nil {
			return 0
		}
		return p.Cart.ReadCHR(addr)
	case addr < 0x3F00:
		return p.nametables[p.ntAddr(addr)]
	}
	return p.readPalette(addr)
}

func (p *PPU) write8(addr uint16, val uint8) {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		if p.Cart != nil {
			p.Cart.WriteCHR(addr, val)
		}
	case addr < 0x3F00:
		p.nametables[p.ntAddr(addr)] = val
	default:
		p.palette[paletteIndex(addr)] = val & 0x3F
	}
}

// ntAddr maps an address of the $2000-$3EFF range to the internal
// nametable RAM, according to the cartridge mirroring.
func (p *PPU) ntAddr(addr uint16) uint16 {
	idx := (addr - 0x2000) & 0x0FFF
	mirroring := ines.VertMirroring
	if p.Cart != nil {
		mirroring = p.Cart.Mapper.Mirroring()
	}
	nt := mirroring.Nametable(idx / 0x400)
	return (nt*0x400 + idx%0x400) % uint16(len(p.nametables))
}

// $3F10/$3F14/$3F18/$3F1C are mirrors of $3F00/$3F04/$3F08/$3F0C.
func paletteIndex(addr uint16) uint16 {
	idx := addr & 0x1F
	if idx >= 0x10 && idx%4 == 0 {
		idx -= 0x10
	}
	return idx
}

func (p *PPU) readPalette(addr uint16) uint8 {
	return p.palette[paletteIndex(addr)]
}

/* debugger accessors */

// Palette returns a copy of palette RAM.
func (p *PPU) Palette() [0x20]uint8 { return p.palette }

// OAM returns a copy of the sprite attribute memory.
func (p *PPU) OAM() [0x100]uint8 { return p.oam }

// Nametable returns a copy of the 1KB logical nametable i (0-3), as seen
// through the current mirroring.
func (p *PPU) Nametable(i int) []uint8 {
	base := p.ntAddr(0x2000 + uint16(i&3)*0x400)
	return append([]uint8(nil), p.nametables[base:base+0x400]...)
}

// AddLogContext adds the current raster position to log entries.
func (p *PPU) AddLogContext(z *log.EntryZ) {
	z.Int("scanline", p.Scanline).Int("dot", p.Cycle)
}

/* state */

func (p *PPU) State() snapshot.PPU {
	s := snapshot.PPU{
		Palette:    p.palette,
		OAMMem:     p.oam,
		Nametables: append([]uint8(nil), p.nametables...),
		OpenBus:    p.openBus,
		OAMAddr:    p.OAMADDR.Value,
		VRAMAddr:   uint16(p.vramAddr),
		VRAMTemp:   uint16(p.vramTmp),
		WriteLatch: p.writeLatch,
		PPUDataBuf: p.ppuDataRbuf,
		PPUBgRegs: snapshot.PPUBgRegs{
			Finex:     p.finex,
			NT:        p.bg.nt,
			AT:        p.bg.at,
			BgLo:      p.bg.lo,
			BgHi:      p.bg.hi,
			BgShiftLo: p.bg.shiftLo,
			BgShiftHi: p.bg.shiftHi,
			ATShiftLo: p.bg.atShiftLo,
			ATShiftHi: p.bg.atShiftHi,
		},
		PPUCTRL:    p.PPUCTRL.Value,
		PPUMASK:    p.PPUMASK.Value,
		PPUSTATUS:  p.PPUSTATUS.Value,
		Cycle:      p.Cycle,
		Scanline:   p.Scanline,
		FrameCount: p.Frames,
		OddFrame:   p.oddFrame,
		NMIPrev:    p.nmiPrev,
	}
	for _, spr := range p.sprites[:p.nsprites] {
		s.Sprites = append(s.Sprites, snapshot.Sprite{
			ID:    spr.id,
			X:     spr.x,
			Attr:  spr.attr,
			DataL: spr.lo,
			DataH: spr.hi,
		})
	}
	return s
}

func (p *PPU) SetState(s snapshot.PPU) {
	p.palette = s.Palette
	p.oam = s.OAMMem
	p.nametables = append(p.nametables[:0], s.Nametables...)
	p.openBus = s.OpenBus
	p.OAMADDR.Value = s.OAMAddr
	p.vramAddr = loopy(s.VRAMAddr)
	p.vramTmp = loopy(s.VRAMTemp)
	p.writeLatch = s.WriteLatch
	p.ppuDataRbuf = s.PPUDataBuf

	p.finex = s.PPUBgRegs.Finex
	p.bg.nt = s.PPUBgRegs.NT
	p.bg.at = s.PPUBgRegs.AT
	p.bg.lo = s.PPUBgRegs.BgLo
	p.bg.hi = s.PPUBgRegs.BgHi
	p.bg.shiftLo = s.PPUBgRegs.BgShiftLo
	p.bg.shiftHi = s.PPUBgRegs.BgShiftHi
	p.bg.atShiftLo = s.PPUBgRegs.ATShiftLo
	p.bg.atShiftHi = s.PPUBgRegs.ATShiftHi

	p.nsprites = min(len(s.Sprites), len(p.sprites))
	for i := range p.nsprites {
		spr := s.Sprites[i]
		p.sprites[i] = sprite{id: spr.ID, x: spr.X, attr: spr.Attr, lo: spr.DataL, hi: spr.DataH}
	}

	p.PPUCTRL.Value = s.PPUCTRL
	p.PPUMASK.Value = s.PPUMASK
	p.PPUSTATUS.Value = s.PPUSTATUS
	p.Cycle = s.Cycle
	p.Scanline = s.Scanline
	p.Frames = s.FrameCount
	p.oddFrame = s.OddFrame
	p.nmiPrev = s.NMIPrev
	p.frameReady = false
}

func b2u8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
