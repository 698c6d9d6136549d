package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"nescore/emu/log"
	"nescore/hw"
)

type mode byte

const (
	runMode      mode = iota // Run a ROM
	romInfosMode             // Show ROM infos
	versionMode              // Show nescore version
)

type (
	CLI struct {
		Run      Run      `cmd:"" help:"Run ROM in emulator."`
		RomInfos RomInfos `cmd:"" help:"Show ROM infos." name:"rom-infos"`
		Version  Version  `cmd:"" help:"Show nescore version."`

		Log    logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`
		Config string     `name:"config" help:"${config_help}" type:"existingfile"`

		mode mode
	}

	Run struct {
		RomPath string `arg:"" name:"/path/to/rom" help:"ROM to run." required:"true" type:"existingfile"`

		Frames    int        `name:"frames" help:"Number of frames to run. (default from config)"`
		PNG       string     `name:"png" help:"Write the last frame as a PNG image." type:"path"`
		WAV       string     `name:"wav" help:"Write the audio output as a WAV file." type:"path"`
		Trace     *outfile   `name:"trace" help:"Write CPU trace log." placeholder:"FILE|stdout|stderr"`
		State     string     `name:"state" help:"${state_help}" type:"path"`
		DebugJSON *outfile   `name:"debug-json" help:"Write the debugger state as JSON on exit." placeholder:"FILE|stdout|stderr"`
		Break     []addr     `name:"break" help:"Stop at the instruction at ADDR (hex)." placeholder:"ADDR"`
		Hold      hw.Buttons `name:"hold" help:"Buttons held on controller 1, e.g. Start or A+Right."`
	}

	RomInfos struct {
		RomPath string `arg:"" name:"/path/to/rom" type:"existingfile"`
	}

	Version struct{}
)

var vars = kong.Vars{
	"log_help":    "Enable logging for specified modules.",
	"config_help": "Configuration file. (default: nescore/config.toml in the user config directory)",
	"state_help":  "Snapshot file, loaded before running if it exists and saved on exit.",
}

func parseArgs(args []string) (CLI, error) {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("nescore"),
		kong.Description("Headless NES hardware core."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		return cfg, err
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		return cfg, err
	}

	switch ctx.Command() {
	case "rom-infos </path/to/rom>":
		cfg.mode = romInfosMode
	case "version":
		cfg.mode = versionMode
	default:
		cfg.mode = runMode
	}
	return cfg, nil
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	if strings.HasPrefix(ctx.Command(), "run") {
		loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
		var strs []string
		for _, m := range log.ModuleNames() {
			strs = append(strs, "    - "+m)
		}

		fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	}

	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}

// addr is a CPU address given in hexadecimal, with an optional $ or 0x
// prefix.
type addr uint16

func parseAddr(s string) (addr, error) {
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return addr(v), nil
}

// Implements kong.MapperValue interface.
func (a *addr) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	s, ok := tok.Value.(string)
	if !ok {
		return fmt.Errorf("expected an address, got %v", tok.Value)
	}
	v, err := parseAddr(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

type outfile struct {
	w     io.Writer
	name  string
	close func() error
}

// Decode decodes FILE|stdout|stderr into an io.WriteCloser
// that writes to that file.
//
// Implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	f.name = tok.Value.(string)
	f.close = func() error { return nil }

	switch f.name {
	case "stdout":
		f.w = os.Stdout
	case "stderr":
		f.w = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.w = fd
		f.close = fd.Close
	}
	return nil
}

func (f *outfile) String() string              { return f.name }
func (f *outfile) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *outfile) Close() error                { return f.close() }

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
