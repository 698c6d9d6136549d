// Package mappers implements the cartridge boards, translating CPU and PPU
// addresses into offsets within the cartridge memories.
package mappers

import (
	"errors"
	"fmt"

	"nescore/emu/log"
	"nescore/ines"
)

var modMapper = log.ModMapper

// ErrUnsupportedMapper is returned when loading a rom for which no mapper
// is implemented.
var ErrUnsupportedMapper = errors.New("unsupported mapper")

// Mapper is the board-specific logic of a cartridge. Address translations
// are pure functions of the current register state, so any register write is
// visible to the next access.
type Mapper interface {
	Name() string

	// MapPRG returns the PRG-ROM offset corresponding to the CPU address
	// addr, in the $8000-$FFFF range.
	MapPRG(addr uint16) int

	// MapCHR returns the CHR offset corresponding to the PPU address addr,
	// in the $0000-$1FFF range.
	MapCHR(addr uint16) int

	// WriteRegister handles a CPU write in the $8000-$FFFF range.
	WriteRegister(addr uint16, val uint8)

	// Mirroring returns the current nametable mirroring.
	Mirroring() ines.NTMirroring

	// Tick is called by the PPU once per rendered scanline.
	Tick()

	// IRQPending reports whether the mapper is asserting the IRQ line.
	IRQPending() bool

	// PRGRAMEnabled reports whether PRG-RAM at $6000-$7FFF is accessible.
	PRGRAMEnabled() bool

	SaveState() ([]byte, error)
	LoadState([]byte) error
}

type MapperDesc struct {
	Name            string
	Load            func(*base) Mapper
	HasBusConflicts func(*base) bool
}

var All = map[uint16]MapperDesc{
	0:  NROM,
	1:  MMC1,
	2:  UxROM,
	3:  CNROM,
	4:  MMC3,
	7:  AxROM,
	66: GxROM,
}

// Load creates the cartridge described by rom.
func Load(rom *ines.Rom) (*Cartridge, error) {
	desc, ok := All[rom.Mapper()]
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrUnsupportedMapper, rom.Mapper())
	}
	if len(rom.PRG) == 0 || len(rom.PRG)%ines.PRGBankSize != 0 {
		return nil, fmt.Errorf("mapper %s: invalid PRG ROM size %d", desc.Name, len(rom.PRG))
	}

	cart := newCartridge(rom)
	b := &base{
		desc:   desc,
		rom:    rom,
		prglen: len(cart.PRGROM),
		chrlen: len(cart.CHR),
		ntm:    rom.Mirroring(),
	}
	cart.Mapper = desc.Load(b)
	if desc.HasBusConflicts != nil {
		cart.busConflicts = desc.HasBusConflicts(b)
	}

	modMapper.InfoZ("cartridge loaded").
		String("mapper", desc.Name).
		Int("prg", len(cart.PRGROM)).
		Int("chr", len(cart.CHR)).
		Bool("chrram", cart.CHRRAM).
		Stringer("mirroring", b.ntm).
		End()
	return cart, nil
}

func hasSubmapper2(b *base) bool { return b.rom.SubMapper() == 2 }
