package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime/debug"
	"strings"

	"nescore/emu"
	"nescore/emu/log"
	"nescore/hw"
	"nescore/hw/mappers"
	"nescore/ines"
)

func main() {
	cli, err := parseArgs(os.Args[1:])
	checkf(err, "failed to parse command line")

	switch cli.mode {
	case versionMode:
		printVersion()
	case romInfosMode:
		rom, err := ines.Open(cli.RomInfos.RomPath)
		checkf(err, "failed to open rom")
		checkf(printRomInfos(rom), "failed to print rom infos")
	case runMode:
		cfg, err := loadConfig(cli.Config)
		checkf(err, "failed to load config")
		checkf(cli.Run.run(cfg), "emulation failed")
	}
}

func printVersion() {
	version := "(devel)"
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		version = bi.Main.Version
	}
	fmt.Println("nescore", version)
}

func printRomInfos(rom *ines.Rom) error {
	if err := rom.PrintInfos(os.Stdout); err != nil {
		return err
	}
	name := "unsupported"
	if desc, ok := mappers.All[rom.Mapper()]; ok {
		name = desc.Name
	}
	_, err := fmt.Printf("Board : %s\n", name)
	return err
}

func loadConfig(path string) (emu.Config, error) {
	if path == "" {
		return emu.LoadConfigOrDefault(), nil
	}
	return emu.LoadConfig(path)
}

func (r *Run) run(cfg emu.Config) error {
	if len(cfg.Emulation.DebugModules) != 0 {
		mask, err := log.ParseModuleMask(strings.Join(cfg.Emulation.DebugModules, ","))
		if err != nil {
			return err
		}
		log.EnableDebugModules(mask)
	}
	if r.Hold != 0 {
		cfg.Input.Hold[0] = r.Hold
	}
	nframes := cfg.Emulation.Frames
	if r.Frames > 0 {
		nframes = r.Frames
	}

	rom, err := ines.Open(r.RomPath)
	if err != nil {
		return err
	}
	nes, err := emu.PowerUp(rom, cfg)
	if err != nil {
		return err
	}

	if r.Trace != nil {
		defer r.Trace.Close()
		nes.CPU.SetTraceOutput(r.Trace)
	}

	if r.State != "" {
		switch buf, err := os.ReadFile(r.State); {
		case errors.Is(err, fs.ErrNotExist):
			log.ModEmu.InfoZ("no snapshot to restore").String("path", r.State).End()
		case err != nil:
			return err
		default:
			if err := nes.LoadSnapshot(buf); err != nil {
				return fmt.Errorf("%s: %w", r.State, err)
			}
			log.ModEmu.InfoZ("snapshot restored").String("path", r.State).End()
		}
	}

	for _, pc := range r.Break {
		nes.SetBreakpoint(uint16(pc))
	}

	var (
		last    *hw.Frame
		samples []int16
	)
	for i := range nframes {
		frame, s := nes.StepFrame()
		if !cfg.Audio.DisableAudio {
			samples = append(samples, s...)
		}
		if frame == nil {
			pc, _ := nes.Break()
			log.ModEmu.InfoZ("stopped at breakpoint").Hex16("pc", pc).Int("frame", i).End()
			fmt.Fprintf(os.Stderr, "breakpoint hit at $%04X (frame %d)\n", pc, i)
			break
		}
		last = frame
	}

	if r.PNG != "" {
		if last == nil {
			last = nes.PPU.Frame()
		}
		if err := writePNG(r.PNG, last); err != nil {
			return err
		}
	}

	if r.WAV != "" {
		if cfg.Audio.DisableAudio {
			log.ModEmu.WarnZ("audio disabled, no WAV written").String("path", r.WAV).End()
		} else if err := writeWAV(r.WAV, nes.APU.Mixer().SampleRate(), samples); err != nil {
			return err
		}
	}

	if r.State != "" {
		if err := saveState(nes, r.State); err != nil {
			return err
		}
	}

	if r.DebugJSON != nil {
		defer r.DebugJSON.Close()
		if err := nes.WriteDebugJSON(r.DebugJSON); err != nil {
			return err
		}
	}
	return nil
}

// saveState writes a snapshot of nes to path. Snapshots are only taken at
// frame boundaries, none is written when emulation stopped at a breakpoint.
func saveState(nes *emu.NES, path string) error {
	if pc, hit := nes.Break(); hit {
		log.ModEmu.WarnZ("stopped mid-frame, snapshot not saved").
			Hex16("pc", pc).
			String("path", path).
			End()
		fmt.Fprintf(os.Stderr, "snapshot not saved: stopped at a breakpoint in the middle of a frame\n")
		return nil
	}

	buf, err := nes.SaveSnapshot()
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}

func writePNG(path string, frame *hw.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := frame.EncodePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
