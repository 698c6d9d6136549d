package emu

import (
	"io"
	"slices"

	"github.com/go-faster/jx"

	"nescore/hw"
	"nescore/hw/snapshot"
)

// DebugState is a view of the console for debuggers. It's taken between CPU
// steps and doesn't alter the emulation.
type DebugState struct {
	CPU  snapshot.CPU
	Next hw.DisasmOp // instruction at PC

	Scanline int
	Dot      int
	Frames   uint64

	Palette    [0x20]uint8
	OAM        [0x100]uint8
	Nametables [4][]uint8

	Mapper      string
	Breakpoints []uint16
	Break       uint16
	BreakHit    bool
}

func (nes *NES) DebugState() DebugState {
	ds := DebugState{
		CPU:      nes.CPU.State(),
		Next:     nes.CPU.Disasm(nes.CPU.PC),
		Scanline: nes.PPU.Scanline,
		Dot:      nes.PPU.Cycle,
		Frames:   nes.PPU.Frames,
		Palette:  nes.PPU.Palette(),
		OAM:      nes.PPU.OAM(),
		Mapper:   nes.Cart.Mapper.Name(),
	}
	for i := range ds.Nametables {
		ds.Nametables[i] = nes.PPU.Nametable(i)
	}
	for pc := range nes.breakpoints {
		ds.Breakpoints = append(ds.Breakpoints, pc)
	}
	slices.Sort(ds.Breakpoints)
	ds.Break, ds.BreakHit = nes.Break()
	return ds
}

// WriteDebugJSON writes the debug state as an indented JSON document.
// Memories (OAM, nametables) are base64 encoded.
func (nes *NES) WriteDebugJSON(w io.Writer) error {
	ds := nes.DebugState()

	var e jx.Encoder
	e.SetIdent(2)
	ds.encode(&e)
	if _, err := e.WriteTo(w); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func (ds *DebugState) encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("cpu", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("pc", func(e *jx.Encoder) { e.UInt16(ds.CPU.PC) })
				e.Field("a", func(e *jx.Encoder) { e.UInt8(ds.CPU.A) })
				e.Field("x", func(e *jx.Encoder) { e.UInt8(ds.CPU.X) })
				e.Field("y", func(e *jx.Encoder) { e.UInt8(ds.CPU.Y) })
				e.Field("sp", func(e *jx.Encoder) { e.UInt8(ds.CPU.SP) })
				e.Field("p", func(e *jx.Encoder) { e.UInt8(ds.CPU.P) })
				e.Field("flags", func(e *jx.Encoder) { e.Str(hw.P(ds.CPU.P).String()) })
				e.Field("cycles", func(e *jx.Encoder) { e.Int64(ds.CPU.Cycles) })
				e.Field("nmi_pending", func(e *jx.Encoder) { e.Bool(ds.CPU.NMIPending) })
				e.Field("irq", func(e *jx.Encoder) { e.UInt8(ds.CPU.IRQFlag) })
			})
		})
		e.Field("next", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("pc", func(e *jx.Encoder) { e.UInt16(ds.Next.PC) })
				e.Field("opcode", func(e *jx.Encoder) { e.Str(ds.Next.Opcode) })
				e.Field("operand", func(e *jx.Encoder) { e.Str(ds.Next.Oper) })
				e.Field("bytes", func(e *jx.Encoder) {
					e.Arr(func(e *jx.Encoder) {
						for _, b := range ds.Next.Buf {
							e.UInt8(b)
						}
					})
				})
			})
		})
		e.Field("ppu", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("scanline", func(e *jx.Encoder) { e.Int(ds.Scanline) })
				e.Field("dot", func(e *jx.Encoder) { e.Int(ds.Dot) })
				e.Field("frames", func(e *jx.Encoder) { e.UInt64(ds.Frames) })
				e.Field("palette", func(e *jx.Encoder) {
					e.Arr(func(e *jx.Encoder) {
						for _, v := range ds.Palette {
							e.UInt8(v)
						}
					})
				})
				e.Field("oam", func(e *jx.Encoder) { e.Base64(ds.OAM[:]) })
				e.Field("nametables", func(e *jx.Encoder) {
					e.Arr(func(e *jx.Encoder) {
						for _, nt := range ds.Nametables {
							e.Base64(nt)
						}
					})
				})
			})
		})
		e.Field("mapper", func(e *jx.Encoder) { e.Str(ds.Mapper) })
		e.Field("breakpoints", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, pc := range ds.Breakpoints {
					e.UInt16(pc)
				}
			})
		})
		e.Field("break", func(e *jx.Encoder) {
			if !ds.BreakHit {
				e.Null()
				return
			}
			e.UInt16(ds.Break)
		})
	})
}
