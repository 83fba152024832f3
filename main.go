package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"text/tabwriter"

	"xenium/emu"
	"xenium/emu/log"
	"xenium/hw/xenium"
)

func main() {
	ctx, cfg := parseArgs(os.Args[1:])
	if cfg.LogOutput != nil {
		defer cfg.LogOutput.Close()
		log.SetOutput(cfg.LogOutput)
	}

	switch ctx.Command() {
	case "banks":
		printBanks(os.Stdout)
	case "translate <address>":
		checkf(cfg.Translate.run(os.Stdout), "failed to translate address")
	case "run </path/to/script>":
		checkf(cfg.Run.run(cfg.Config), "script failed")
	case "dump </path/to/image>":
		checkf(cfg.Dump.run(), "failed to dump image")
	case "config":
		checkf(cfg.Settings.run(cfg.Config, os.Stdout), "failed to handle configuration")
	case "version":
		printVersion(os.Stdout)
	default:
		fatalf("unexpected command %q", ctx.Command())
	}
}

func printBanks(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tA20..A18\tBASE\tSIZE\tDESCRIPTION")
	for _, b := range xenium.Banks() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%06x\t%dK\t%s\n",
			uint8(b), b, b.Pattern(), b.Base(), b.Size()>>10, b.Description())
	}
	tw.Flush()
}

func (t *Translate) run(w io.Writer) error {
	addr, err := strconv.ParseUint(t.Addr, 0, 32)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", t.Addr, err)
	}

	if t.Bank > 0x0F {
		return fmt.Errorf("bank code %d out of range", t.Bank)
	}

	x := xenium.New()
	if err := x.WriteReg(xenium.RegControl, t.Bank); err != nil {
		return err
	}
	phys, err := x.Translate(uint32(addr))
	if err != nil {
		return err
	}
	b, _ := xenium.ParseBank(t.Bank)
	fmt.Fprintf(w, "%06x -> %06x [%s %s]\n", addr, phys, b, b.Pattern())
	return nil
}

func (r *Run) run(cfgpath string) error {
	cfg, err := emu.LoadConfigOrDefault(cfgpath)
	if err != nil {
		return err
	}
	if r.Image != "" {
		cfg.Flash.Image = r.Image
	}

	m, err := emu.NewMachine(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	f, err := os.Open(r.Script)
	if err != nil {
		return err
	}
	defer f.Close()

	out := io.Writer(os.Stdout)
	if r.Output != nil {
		defer r.Output.Close()
		out = r.Output
	}
	return emu.RunScript(m, f, out)
}

func (d *Dump) run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if !d.Watch {
		paths, err := emu.DumpImage(ctx, d.Image, d.Out)
		if err != nil {
			return err
		}
		printPaths(paths)
		return nil
	}

	log.ModEmu.InfoZ("watching image").String("path", d.Image).End()
	err := emu.WatchImage(ctx, d.Image, d.Out, func(paths []string, err error) {
		if err != nil {
			log.ModEmu.ErrorZ("dump failed").Error("err", err).End()
			return
		}
		printPaths(paths)
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func printPaths(paths []string) {
	for _, p := range paths {
		fmt.Println(p)
	}
}

func (s *Settings) run(cfgpath string, w io.Writer) error {
	cfg, err := emu.LoadConfigOrDefault(cfgpath)
	if err != nil {
		return err
	}
	if err := emu.EncodeConfig(w, cfg); err != nil {
		return err
	}
	if s.Save {
		return emu.SaveConfig(cfg)
	}
	return nil
}

func printVersion(w io.Writer) {
	version := "(devel)"
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		version = bi.Main.Version
	}
	fmt.Fprintf(w, "xenium %s\n", version)
}
