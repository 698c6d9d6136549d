package emu

import (
	"flag"
	"io"
	"os"
	"testing"

	"nescore/emu/log"
	"nescore/ines"
)

func TestMain(m *testing.M) {
	// testing.Verbose needs the flags to be parsed.
	flag.Parse()
	if !testing.Verbose() {
		log.SetOutput(io.Discard)
	}
	os.Exit(m.Run())
}

// program describes a 16KB PRG bank, mapped at $C000 (and mirrored at $8000
// by NROM), made of code chunks and the 3 interrupt vectors.
type program struct {
	code map[uint16][]byte

	nmi, reset, irq uint16
}

func (p program) prg() []byte {
	prg := make([]byte, ines.PRGBankSize)
	for addr, code := range p.code {
		copy(prg[addr-0xC000:], code)
	}
	vectors := []uint16{p.nmi, p.reset, p.irq}
	for i, v := range vectors {
		prg[0x3FFA+2*i] = uint8(v)
		prg[0x3FFB+2*i] = uint8(v >> 8)
	}
	return prg
}

// rom builds a rom for mapper, with the program in every 16KB PRG bank.
func (p program) rom(mapper uint16, nbanks int) *ines.Rom {
	bank := p.prg()
	var prg []byte
	for range nbanks {
		prg = append(prg, bank...)
	}
	return ines.Builder{Mapper: mapper, PRG: prg}.Rom()
}

// nmiCounter enables NMI and loops forever. The NMI handler counts the NMIs
// at $00 and saves at $01-$03 the P and PC values pushed by the interrupt
// sequence, and at $04 the P value seen by the handler.
var nmiCounter = program{
	code: map[uint16][]byte{
		0xC000: {
			0xA9, 0x80,       // LDA #$80
			0x8D, 0x00, 0x20, // STA $2000
			0x4C, 0x05, 0xC0, // JMP $C005
		},
		0xC100: {
			0xE6, 0x00,       // INC $00
			0xBA,             // TSX
			0xBD, 0x01, 0x01, // LDA $0101,X
			0x85, 0x01,       // STA $01
			0xBD, 0x02, 0x01, // LDA $0102,X
			0x85, 0x02,       // STA $02
			0xBD, 0x03, 0x01, // LDA $0103,X
			0x85, 0x03,       // STA $03
			0x08,             // PHP
			0x68,             // PLA
			0x85, 0x04,       // STA $04
			0x40,             // RTI
		},
		0xC200: {0x40}, // RTI
	},
	nmi:   0xC100,
	reset: 0xC000,
	irq:   0xC200,
}

// colorCycler plays a square wave and changes both the backdrop color and
// the square period at each NMI, so that every frame and audio buffer
// depends on the number of frames since power-up.
var colorCycler = program{
	code: map[uint16][]byte{
		0xC000: {
			0xA9, 0x01,       // LDA #$01
			0x8D, 0x15, 0x40, // STA $4015
			0xA9, 0xBF,       // LDA #$BF
			0x8D, 0x00, 0x40, // STA $4000
			0xA9, 0xFD,       // LDA #$FD
			0x8D, 0x02, 0x40, // STA $4002
			0xA9, 0x00,       // LDA #$00
			0x8D, 0x03, 0x40, // STA $4003
			0xA9, 0x80,       // LDA #$80
			0x8D, 0x00, 0x20, // STA $2000
			0x4C, 0x19, 0xC0, // JMP $C019
		},
		0xC100: {
			0xE6, 0x00,       // INC $00
			0xA9, 0x3F,       // LDA #$3F
			0x8D, 0x06, 0x20, // STA $2006
			0xA9, 0x00,       // LDA #$00
			0x8D, 0x06, 0x20, // STA $2006
			0xA5, 0x00,       // LDA $00
			0x29, 0x3F,       // AND #$3F
			0x8D, 0x07, 0x20, // STA $2007
			0xA9, 0x00,       // LDA #$00
			0x8D, 0x06, 0x20, // STA $2006
			0x8D, 0x06, 0x20, // STA $2006
			0xA5, 0x00,       // LDA $00
			0x0A,             // ASL A
			0x09, 0x20,       // ORA #$20
			0x8D, 0x02, 0x40, // STA $4002
			0x40,             // RTI
		},
		0xC200: {0x40}, // RTI
	},
	nmi:   0xC100,
	reset: 0xC000,
	irq:   0xC200,
}

func powerUp(tb testing.TB, rom *ines.Rom) *NES {
	tb.Helper()

	nes, err := PowerUp(rom, DefaultConfig())
	if err != nil {
		tb.Fatal(err)
	}
	return nes
}
