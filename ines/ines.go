// Package ines implements a reader for roms in the iNES file format, used
// for the distribution of NES binary programs. NES 2.0 headers are detected
// and their extended mapper and submapper numbers decoded.
package ines

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrInvalidMagic is returned when the data doesn't start with "NES\x1a".
	ErrInvalidMagic = errors.New("invalid magic number")

	// ErrTruncated is returned when the data is shorter than the sizes
	// announced by the header.
	ErrTruncated = errors.New("truncated rom")
)

const (
	Magic      = "NES\x1a"
	HeaderSize = 16

	TrainerSize = 512
	PRGBankSize = 16 * 1024
	CHRBankSize = 8 * 1024
)

type Rom struct {
	header
	Trainer []byte // Trainer, 512 bytes if present, or empty.
	PRG     []byte // PRG is PRG ROM data (length is multiples of 16k)
	CHR     []byte // CHR is CHR ROM data (length is multiples of 8k, empty for CHR RAM)
}

// Open loads a rom from file.
func Open(path string) (*Rom, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rom := new(Rom)
	if _, err := rom.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rom, nil
}

// Decode parses a rom image held in memory.
func Decode(buf []byte) (*Rom, error) {
	rom := new(Rom)
	if err := rom.decode(buf); err != nil {
		return nil, err
	}
	return rom, nil
}

// ReadFrom implements io.ReaderFrom interface
func (rom *Rom) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if err := rom.decode(buf); err != nil {
		return 0, err
	}
	return int64(len(buf)), nil
}

func (rom *Rom) decode(buf []byte) error {
	if err := rom.header.decode(buf); err != nil {
		return fmt.Errorf("failed to decode header: %w", err)
	}
	off := HeaderSize

	section := func(name string, size int) ([]byte, error) {
		if len(buf) < off+size {
			return nil, fmt.Errorf("incomplete %s section (want %d bytes, have %d): %w",
				name, size, max(len(buf)-off, 0), ErrTruncated)
		}
		p := buf[off : off+size : off+size]
		off += size
		return p, nil
	}

	var err error
	if rom.HasTrainer() {
		if rom.Trainer, err = section("TRAINER", TrainerSize); err != nil {
			return err
		}
	}
	if rom.PRG, err = section("PRG", rom.prgsz); err != nil {
		return err
	}
	if rom.CHR, err = section("CHR", rom.chrsz); err != nil {
		return err
	}
	return nil
}

// Encode builds the binary representation of a rom, header included.
func (rom *Rom) Encode() []byte {
	buf := make([]byte, 0, HeaderSize+len(rom.Trainer)+len(rom.PRG)+len(rom.CHR))
	buf = append(buf, rom.raw[:]...)
	buf = append(buf, rom.Trainer...)
	buf = append(buf, rom.PRG...)
	buf = append(buf, rom.CHR...)
	return buf
}
