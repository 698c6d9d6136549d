package emu

import (
	"bytes"
	"testing"

	"github.com/go-faster/jx"
	"github.com/google/go-cmp/cmp"
)

func TestDebugState(t *testing.T) {
	nes := powerUp(t, nmiCounter.rom(0, 1))
	nes.SetBreakpoint(0xC100)
	nes.SetBreakpoint(0xC005)
	nes.RunFrames(1)

	ds := nes.DebugState()
	if !ds.BreakHit || ds.Break != 0xC005 {
		t.Fatalf("break = %04X, %t, want C005, true", ds.Break, ds.BreakHit)
	}
	if diff := cmp.Diff([]uint16{0xC005, 0xC100}, ds.Breakpoints); diff != "" {
		t.Errorf("breakpoints mismatch (-want +got):\n%s", diff)
	}
	if ds.Next.PC != 0xC005 || ds.Next.Opcode != "JMP" {
		t.Errorf("next instruction = %s, want JMP at C005", ds.Next)
	}
	if ds.Mapper != "NROM" {
		t.Errorf("mapper = %s, want NROM", ds.Mapper)
	}
	for i, nt := range ds.Nametables {
		if len(nt) != 0x400 {
			t.Errorf("nametable %d is %d bytes", i, len(nt))
		}
	}
}

// debugJSON holds the fields of the debugger JSON document checked by tests.
type debugJSON struct {
	PC          uint16
	Flags       string
	Opcode      string
	Scanline    int
	Palette     []uint8
	OAM         []byte
	Nametables  [][]byte
	Mapper      string
	Breakpoints []uint16
	Break       *uint16
}

func decodeDebugJSON(t *testing.T, data []byte) debugJSON {
	t.Helper()

	var dj debugJSON
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "cpu":
			return d.Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "pc":
					dj.PC, err = d.UInt16()
				case "flags":
					dj.Flags, err = d.Str()
				default:
					err = d.Skip()
				}
				return err
			})
		case "next":
			return d.Obj(func(d *jx.Decoder, key string) error {
				if key == "opcode" {
					dj.Opcode, err = d.Str()
					return err
				}
				return d.Skip()
			})
		case "ppu":
			return d.Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "scanline":
					dj.Scanline, err = d.Int()
				case "palette":
					err = d.Arr(func(d *jx.Decoder) error {
						v, err := d.UInt8()
						dj.Palette = append(dj.Palette, v)
						return err
					})
				case "oam":
					dj.OAM, err = d.Base64()
				case "nametables":
					err = d.Arr(func(d *jx.Decoder) error {
						nt, err := d.Base64()
						dj.Nametables = append(dj.Nametables, nt)
						return err
					})
				default:
					err = d.Skip()
				}
				return err
			})
		case "mapper":
			dj.Mapper, err = d.Str()
		case "breakpoints":
			err = d.Arr(func(d *jx.Decoder) error {
				pc, err := d.UInt16()
				dj.Breakpoints = append(dj.Breakpoints, pc)
				return err
			})
		case "break":
			if d.Next() == jx.Null {
				return d.Null()
			}
			var pc uint16
			pc, err = d.UInt16()
			dj.Break = &pc
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		t.Fatalf("invalid debug JSON: %v\n%s", err, data)
	}
	return dj
}

func TestWriteDebugJSON(t *testing.T) {
	nes := powerUp(t, colorCycler.rom(0, 1))
	nes.RunFrames(3)

	var buf bytes.Buffer
	if err := nes.WriteDebugJSON(&buf); err != nil {
		t.Fatal(err)
	}
	if !jx.Valid(buf.Bytes()) {
		t.Fatalf("invalid JSON:\n%s", buf.String())
	}

	ds := nes.DebugState()
	oam := ds.OAM
	palette := ds.Palette
	want := debugJSON{
		PC:         ds.CPU.PC,
		Flags:      nes.CPU.P.String(),
		Opcode:     ds.Next.Opcode,
		Scanline:   ds.Scanline,
		Palette:    palette[:],
		OAM:        oam[:],
		Nametables: ds.Nametables[:],
		Mapper:     "NROM",
	}
	got := decodeDebugJSON(t, buf.Bytes())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("debug JSON mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteDebugJSONBreak(t *testing.T) {
	nes := powerUp(t, nmiCounter.rom(0, 1))
	nes.SetBreakpoint(0xC005)
	nes.StepFrame()

	var buf bytes.Buffer
	if err := nes.WriteDebugJSON(&buf); err != nil {
		t.Fatal(err)
	}

	got := decodeDebugJSON(t, buf.Bytes())
	if got.Break == nil || *got.Break != 0xC005 {
		t.Errorf("break = %v, want C005", got.Break)
	}
	if diff := cmp.Diff([]uint16{0xC005}, got.Breakpoints); diff != "" {
		t.Errorf("breakpoints mismatch (-want +got):\n%s", diff)
	}
}
