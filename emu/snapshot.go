package emu

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"slices"

	"nescore/emu/log"
	"nescore/hw/snapshot"
)

// ErrSnapshotMismatch is returned when loading a snapshot made with another
// snapshot version or another kind of cartridge.
var ErrSnapshotMismatch = errors.New("snapshot mismatch")

// State captures the whole mutable state of the console.
func (nes *NES) State() (*snapshot.NES, error) {
	mapper, err := nes.Cart.Mapper.SaveState()
	if err != nil {
		return nil, fmt.Errorf("mapper state: %w", err)
	}

	state := &snapshot.NES{
		Version: snapshot.Version,
		Mapper:  nes.Cart.Mapper.Name(),
		CPU:     nes.CPU.State(),
		PPU:     nes.PPU.State(),
		APU:     nes.APU.State(),
		Cartridge: snapshot.Cartridge{
			PRGRAM: slices.Clone(nes.Cart.PRGRAM),
			Mapper: mapper,
		},
		Input:   nes.Input.State(),
		OpenBus: nes.Bus.OpenBus(),
	}
	copy(state.RAM[:], nes.Bus.RAM.Data)
	if nes.Cart.CHRRAM {
		state.Cartridge.CHRRAM = slices.Clone(nes.Cart.CHR)
	}
	return state, nil
}

// SetState restores a state previously captured with State.
func (nes *NES) SetState(state *snapshot.NES) error {
	if state.Version != snapshot.Version {
		return fmt.Errorf("%w: version %d, want %d", ErrSnapshotMismatch, state.Version, snapshot.Version)
	}
	if name := nes.Cart.Mapper.Name(); state.Mapper != name {
		return fmt.Errorf("%w: mapper %q, want %q", ErrSnapshotMismatch, state.Mapper, name)
	}
	if len(state.Cartridge.PRGRAM) != len(nes.Cart.PRGRAM) {
		return fmt.Errorf("%w: PRG-RAM size %d, want %d", ErrSnapshotMismatch, len(state.Cartridge.PRGRAM), len(nes.Cart.PRGRAM))
	}
	if nes.Cart.CHRRAM && len(state.Cartridge.CHRRAM) != len(nes.Cart.CHR) {
		return fmt.Errorf("%w: CHR-RAM size %d, want %d", ErrSnapshotMismatch, len(state.Cartridge.CHRRAM), len(nes.Cart.CHR))
	}

	// The mapper is the only part that can fail, restore it first so that
	// the console is left untouched on error.
	if err := nes.Cart.Mapper.LoadState(state.Cartridge.Mapper); err != nil {
		return fmt.Errorf("mapper state: %w", err)
	}

	copy(nes.Cart.PRGRAM, state.Cartridge.PRGRAM)
	if nes.Cart.CHRRAM {
		copy(nes.Cart.CHR, state.Cartridge.CHRRAM)
	}
	copy(nes.Bus.RAM.Data, state.RAM[:])
	nes.Bus.SetOpenBus(state.OpenBus)
	nes.CPU.SetState(state.CPU)
	nes.PPU.SetState(state.PPU)
	nes.APU.SetState(&state.APU)
	nes.Input.SetState(state.Input)
	nes.brkhit = false
	return nil
}

// SaveSnapshot encodes the console state. It must be called between frames.
func (nes *NES) SaveSnapshot() ([]byte, error) {
	state, err := nes.State()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	log.ModEmu.DebugZ("snapshot saved").Int("size", buf.Len()).End()
	return buf.Bytes(), nil
}

// LoadSnapshot restores a snapshot encoded by SaveSnapshot.
func (nes *NES) LoadSnapshot(data []byte) error {
	var state snapshot.NES
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if err := nes.SetState(&state); err != nil {
		return err
	}

	log.ModEmu.DebugZ("snapshot loaded").Int("size", len(data)).End()
	return nil
}
