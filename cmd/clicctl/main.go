// Command clicctl inspects and drives the CLIC, system timer and trap
// vector of a platform, simulated or mapped through /dev/mem.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tinyrange/rvclic/internal/peripheral"
	"github.com/tinyrange/rvclic/internal/platform"
	"golang.org/x/term"
)

// take is swapped out by tests, which run more than one command per process.
var take = peripheral.Take

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "clicctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("clicctl", flag.ContinueOnError)
	configPath := fs.String("config", "", "Platform description (YAML); default is the simulated reference platform")
	sim := fs.Bool("sim", false, "Force the simulated backend")
	debug := fs.Bool("debug", false, "Enable debug logging")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: clicctl [flags] <command> [args...]\n\n")
		fmt.Fprintf(fs.Output(), "Commands:\n")
		fmt.Fprintf(fs.Output(), "  info                         decode cliccfg and clicinfo\n")
		fmt.Fprintf(fs.Output(), "  irq <n> [action...]          mask|unmask|pend|unpend|prio=<v>|trig=<name>|shv=on|off|line=<0|1>\n")
		fmt.Fprintf(fs.Output(), "  mtvec [<addr> <mode>]        write and decode the simulated trap vector\n")
		fmt.Fprintf(fs.Output(), "  timer <lo|hi> [action...]    start|reset|irq|cycle|cmp=<v>|tick=<n>\n")
		fmt.Fprintf(fs.Output(), "                               (line= and tick= need the simulated backend)\n")
		fmt.Fprintf(fs.Output(), "  config                       print the platform description\n\n")
		fmt.Fprintf(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := platform.Default()
	if *configPath != "" {
		var err error
		if cfg, err = platform.Load(*configPath); err != nil {
			return err
		}
	}
	if *sim {
		cfg.Backend = platform.BackendSim
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return fmt.Errorf("command required")
	}

	if rest[0] == "config" {
		data, err := platform.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	}

	// A hosted process has no csrr/csrw; the CSR file only exists in memory.
	if rest[0] == "mtvec" && cfg.Backend != platform.BackendSim {
		return fmt.Errorf("mtvec: CSRs are only modelled on the simulated backend, use -sim")
	}

	sys, err := platform.Open(cfg)
	if err != nil {
		return err
	}
	defer sys.Close()

	p, ok := take(sys.Backend())
	if !ok {
		return fmt.Errorf("peripherals already taken")
	}

	out := newPrinter(stdout, isTerminal(stdout))
	switch rest[0] {
	case "info":
		return cmdInfo(out, p)
	case "irq":
		return cmdIRQ(out, sys, p, rest[1:])
	case "mtvec":
		return cmdMtvec(out, sys, rest[1:])
	case "timer":
		return cmdTimer(out, sys, p, rest[1:])
	}
	fs.Usage()
	return fmt.Errorf("unknown command %q", rest[0])
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
