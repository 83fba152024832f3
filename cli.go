package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"xenium/emu/log"
)

type (
	CLI struct {
		Banks     Banks     `cmd:"" help:"Show the bank table."`
		Translate Translate `cmd:"" help:"Translate a flash address in a bank."`
		Run       Run       `cmd:"" help:"Run a port I/O script on an emulated Xenium."`
		Dump      Dump      `cmd:"" help:"Extract each bank of a flash image."`
		Settings  Settings  `cmd:"" name:"config" help:"Show the effective configuration."`
		Version   Version   `cmd:"" help:"Show xenium version."`

		Config    string     `name:"config" help:"${config_help}" type:"path" placeholder:"FILE"`
		Log       logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`
		LogOutput *outfile   `name:"log-output" help:"Write logs to file." placeholder:"FILE|stdout|stderr"`
	}

	Banks struct{}

	Translate struct {
		Bank uint8  `name:"bank" short:"b" help:"Bank-control code (0-15)." default:"1"`
		Addr string `arg:"" name:"address" help:"Flash address seen by the host."`
	}

	Run struct {
		Script string   `arg:"" name:"/path/to/script" help:"${script_help}" type:"existingfile"`
		Image  string   `name:"image" help:"Flash image, overrides the configuration." type:"existingfile"`
		Output *outfile `name:"output" short:"o" help:"Write script output to file." placeholder:"FILE|stdout|stderr"`
	}

	Dump struct {
		Image string `arg:"" name:"/path/to/image" help:"Flash image to extract." type:"existingfile"`
		Out   string `name:"out" short:"o" help:"Output directory." type:"path" default:"."`
		Watch bool   `name:"watch" short:"w" help:"Extract again each time the image changes."`
	}

	Settings struct {
		Save bool `name:"save" help:"Save it to the user configuration directory."`
	}

	Version struct{}
)

var vars = kong.Vars{
	"config_help": "Configuration file. (default: xenium/config.toml in the user config directory)",
	"script_help": "Script of port I/O commands (out, in, expect, flash, recovery, dataout, state, reset, save, load).",
	"log_help":    "Enable logging for specified modules.",
}

func parseArgs(args []string) (*kong.Context, *CLI) {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("xenium"),
		kong.Description("Xenium modchip emulator."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	return ctx, &cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
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

	fmt.Fprintf(ctx.Stdout, loggingHelp, strings.Join(strs, "\n"))
	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm *logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	var mask log.ModuleMask
	var tok string
	if err := ctx.Scan.PopValueInto("modules", &tok); err != nil {
		return err
	}
	for _, v := range strings.Split(tok, ",") {
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
			mask |= mod.Mask()
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if mask != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		mask = log.ModuleMaskAll
	}

	*lm = logModMask(mask)
	log.EnableDebugModules(mask)
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
	if err := ctx.Scan.PopValueInto("file", &f.name); err != nil {
		return err
	}
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
