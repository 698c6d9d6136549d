package ines

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// NTMirroring describes how the 4 logical nametables are mapped onto the
// physical nametable memory.
type NTMirroring uint8

const (
	HorzMirroring NTMirroring = iota
	VertMirroring
	OnlyAScreen // single screen, lower bank
	OnlyBScreen // single screen, upper bank
	FourScreen
)

func (m NTMirroring) String() string {
	switch m {
	case HorzMirroring:
		return "horizontal"
	case VertMirroring:
		return "vertical"
	case OnlyAScreen:
		return "single-screen A"
	case OnlyBScreen:
		return "single-screen B"
	case FourScreen:
		return "4-screen"
	}
	return fmt.Sprintf("NTMirroring(%d)", uint8(m))
}

// Nametable returns the physical nametable (0-3) the logical nametable
// idx is mapped to.
func (m NTMirroring) Nametable(idx uint16) uint16 {
	idx &= 3
	switch m {
	case HorzMirroring:
		return idx >> 1
	case VertMirroring:
		return idx & 1
	case OnlyAScreen:
		return 0
	case OnlyBScreen:
		return 1
	}
	return idx
}

type header struct {
	raw   [HeaderSize]byte
	prgsz int
	chrsz int
}

func (hdr *header) decode(p []byte) error {
	if len(p) < HeaderSize {
		return fmt.Errorf("header needs %d bytes, have %d: %w", HeaderSize, len(p), ErrTruncated)
	}
	if string(p[:4]) != Magic {
		return ErrInvalidMagic
	}
	copy(hdr.raw[:], p[:HeaderSize])

	prg, chr := int(hdr.raw[4]), int(hdr.raw[5])
	if hdr.IsNES20() {
		prg |= int(hdr.raw[9]&0x0f) << 8
		chr |= int(hdr.raw[9]&0xf0) << 4
	}
	hdr.prgsz = prg * PRGBankSize
	hdr.chrsz = chr * CHRBankSize
	return nil
}

// IsNES20 reports whether the header uses the NES 2.0 format.
func (hdr *header) IsNES20() bool {
	return hdr.raw[7]&0x0c == 0x08
}

// archaic iNES headers sometimes have garbage ("DiskDude!") in bytes 7-15.
func (hdr *header) dirty() bool {
	if hdr.IsNES20() {
		return false
	}
	for _, b := range hdr.raw[12:16] {
		if b != 0 {
			return true
		}
	}
	return false
}

// HasTrainer indicates the presence of a trainer section in the rom.
func (hdr *header) HasTrainer() bool {
	return hdr.raw[6]&0x04 != 0
}

// HasPersistent indicates the presence of battery-backed memory.
func (hdr *header) HasPersistent() bool {
	return hdr.raw[6]&0x02 != 0
}

// Mirroring returns the nametable mirroring hardwired on the board.
func (hdr *header) Mirroring() NTMirroring {
	if hdr.raw[6]&0x08 != 0 {
		return FourScreen
	}
	if hdr.raw[6]&0x01 != 0 {
		return VertMirroring
	}
	return HorzMirroring
}

// Mapper returns the mapper number.
func (hdr *header) Mapper() uint16 {
	m := uint16(hdr.raw[6] >> 4)
	if !hdr.dirty() {
		m |= uint16(hdr.raw[7] & 0xf0)
	}
	if hdr.IsNES20() {
		m |= uint16(hdr.raw[8]&0x0f) << 8
	}
	return m
}

// SubMapper returns the NES 2.0 submapper number, 0 for iNES roms.
func (hdr *header) SubMapper() uint8 {
	if !hdr.IsNES20() {
		return 0
	}
	return hdr.raw[8] >> 4
}

// PRGRAMSize returns the size of PRG RAM in bytes (8KB unless NES 2.0 says
// otherwise).
func (hdr *header) PRGRAMSize() int {
	if hdr.IsNES20() {
		shift := int(hdr.raw[10] & 0x0f)
		nvshift := int(hdr.raw[10] >> 4)
		size := 0
		if shift != 0 {
			size += 64 << shift
		}
		if nvshift != 0 {
			size += 64 << nvshift
		}
		return size
	}
	if n := int(hdr.raw[8]); n != 0 && !hdr.dirty() {
		return n * 8192
	}
	return 8192
}

func (hdr *header) PRGSize() int { return hdr.prgsz }
func (hdr *header) CHRSize() int { return hdr.chrsz }

// PrintInfos writes a human-readable description of the header to w.
func (hdr *header) PrintInfos(w io.Writer) error {
	format := "iNES"
	if hdr.IsNES20() {
		format = "NES 2.0"
	}
	chr := fmt.Sprintf("%dKB", hdr.chrsz/1024)
	if hdr.chrsz == 0 {
		chr = "8KB (RAM)"
	}

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "Format\t: %s\n", format)
	fmt.Fprintf(tw, "PRG ROM\t: %dKB\n", hdr.prgsz/1024)
	fmt.Fprintf(tw, "CHR\t: %s\n", chr)
	fmt.Fprintf(tw, "PRG RAM\t: %dKB\n", hdr.PRGRAMSize()/1024)
	fmt.Fprintf(tw, "Mapper\t: %d (submapper %d)\n", hdr.Mapper(), hdr.SubMapper())
	fmt.Fprintf(tw, "Mirroring\t: %s\n", hdr.Mirroring())
	fmt.Fprintf(tw, "Battery\t: %t\n", hdr.HasPersistent())
	fmt.Fprintf(tw, "Trainer\t: %t\n", hdr.HasTrainer())
	return tw.Flush()
}
