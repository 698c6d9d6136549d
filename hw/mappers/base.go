package mappers

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"reflect"

	"nescore/ines"
)

const (
	prgPageSize = 0x2000 // PRG-ROM translation granularity (8KB)
	chrPageSize = 0x0400 // CHR translation granularity (1KB)
)

// base holds the translation tables shared by all mappers. The CPU
// $8000-$FFFF range is split into 4 windows of 8KB and the PPU pattern
// tables into 8 windows of 1KB, each window pointing to a bank offset.
type base struct {
	desc MapperDesc
	rom  *ines.Rom

	prglen int
	chrlen int

	prg [4]int
	chr [8]int
	ntm ines.NTMirroring

	// regs, if not nil, points to the mapper-specific registers, which must be
	// a struct with exported fields. It's included in save states.
	regs any
}

func (b *base) Name() string { return b.desc.Name }

func (b *base) MapPRG(addr uint16) int {
	return b.prg[(addr>>13)&3] + int(addr&(prgPageSize-1))
}

func (b *base) MapCHR(addr uint16) int {
	return b.chr[(addr>>10)&7] + int(addr&(chrPageSize-1))
}

func (b *base) Mirroring() ines.NTMirroring { return b.ntm }
func (b *base) Tick()                       {}
func (b *base) IRQPending() bool            { return false }
func (b *base) PRGRAMEnabled() bool         { return true }

// bank wraps bank number n, negative numbers counting from the end.
func bank(n, size, total int) int {
	count := total / size
	if count == 0 {
		return 0
	}
	n %= count
	if n < 0 {
		n += count
	}
	return n * size
}

func (b *base) selectPRGPage8KB(slot, n int) {
	b.prg[slot] = bank(n, 0x2000, b.prglen)
}

func (b *base) selectPRGPage16KB(slot, n int) {
	off := bank(n, 0x4000, b.prglen)
	b.prg[slot*2] = off
	b.prg[slot*2+1] = off + 0x2000
}

func (b *base) selectPRGPage32KB(n int) {
	if b.prglen < 0x8000 {
		// 16KB roms are mirrored.
		b.selectPRGPage16KB(0, 0)
		b.selectPRGPage16KB(1, 0)
		return
	}
	off := bank(n, 0x8000, b.prglen)
	for i := range b.prg {
		b.prg[i] = off + i*0x2000
	}
}

func (b *base) selectCHRPage1KB(slot, n int) {
	b.chr[slot] = bank(n, 0x400, b.chrlen)
}

func (b *base) selectCHRPage4KB(slot, n int) {
	off := bank(n, 0x1000, b.chrlen)
	for i := range 4 {
		b.chr[slot*4+i] = off + i*0x400
	}
}

func (b *base) selectCHRPage8KB(n int) {
	off := bank(n, 0x2000, b.chrlen)
	for i := range b.chr {
		b.chr[i] = off + i*0x400
	}
}

func (b *base) setNTMirroring(m ines.NTMirroring) {
	if b.ntm == ines.FourScreen || b.ntm == m {
		return
	}
	modMapper.DebugZ("select NT mirroring").String("mapper", b.desc.Name).Stringer("prev", b.ntm).Stringer("new", m).End()
	b.ntm = m
}

type baseState struct {
	PRG [4]int
	CHR [8]int
	NTM ines.NTMirroring
}

func (b *base) SaveState() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(baseState{PRG: b.prg, CHR: b.chr, NTM: b.ntm}); err != nil {
		return nil, fmt.Errorf("mapper %s: %w", b.desc.Name, err)
	}
	if b.regs != nil {
		if err := enc.Encode(b.regs); err != nil {
			return nil, fmt.Errorf("mapper %s: %w", b.desc.Name, err)
		}
	}
	return buf.Bytes(), nil
}

func (b *base) LoadState(data []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(data))
	var st baseState
	if err := dec.Decode(&st); err != nil {
		return fmt.Errorf("mapper %s: %w", b.desc.Name, err)
	}
	if b.regs != nil {
		// gob doesn't transmit zero values, decode into a zeroed struct.
		regs := reflect.New(reflect.TypeOf(b.regs).Elem())
		if err := dec.Decode(regs.Interface()); err != nil {
			return fmt.Errorf("mapper %s: %w", b.desc.Name, err)
		}
		reflect.ValueOf(b.regs).Elem().Set(regs.Elem())
	}
	b.prg, b.chr, b.ntm = st.PRG, st.CHR, st.NTM
	return nil
}
