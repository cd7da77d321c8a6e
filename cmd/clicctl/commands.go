package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tinyrange/rvclic/internal/clic"
	"github.com/tinyrange/rvclic/internal/csr"
	"github.com/tinyrange/rvclic/internal/peripheral"
	"github.com/tinyrange/rvclic/internal/platform"
	"github.com/tinyrange/rvclic/internal/syst"
)

func cmdInfo(out *printer, p *peripheral.Peripherals) error {
	cfg, err := p.CLIC.Config()
	if err != nil {
		return err
	}
	info, err := p.CLIC.Info()
	if err != nil {
		return err
	}

	out.heading(fmt.Sprintf("cliccfg %#08x", uint32(cfg)))
	out.row("vectoring", "%v", cfg.HasInterruptVectoring())
	out.row("level bits", "%d", cfg.LevelBitWidth())
	out.row("mode bits", "%d", cfg.ModeBitWidth())
	out.heading(fmt.Sprintf("clicinfo %#08x", uint32(info)))
	out.row("num int", "%d", info.NumInt())
	out.row("max interrupts", "%d", info.MaxInterrupts())
	out.row("version", "%d", info.Version())
	out.row("ctl bits", "%d", info.PossibleLevelBits())
	return nil
}

func parseUint(s string, bitSize int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bitSize)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return v, nil
}

func cmdIRQ(out *printer, sys *platform.System, p *peripheral.Peripherals, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("irq: interrupt number required")
	}
	n, err := parseUint(args[0], 12)
	if err != nil {
		return fmt.Errorf("irq: %w", err)
	}
	irq := clic.Interrupt(n)
	c := p.CLIC

	for _, action := range args[1:] {
		key, val, _ := strings.Cut(action, "=")
		switch key {
		case "mask":
			err = c.Mask(irq)
		case "unmask":
			err = c.Unmask(irq)
		case "pend":
			err = c.Pend(irq)
		case "unpend":
			err = c.Unpend(irq)
		case "prio":
			var prio uint64
			if prio, err = parseUint(val, 8); err == nil {
				err = c.SetPriority(irq, uint8(prio))
			}
		case "trig":
			var trig clic.Trigger
			if trig, err = clic.ParseTrigger(val); err == nil {
				err = c.SetTrig(irq, trig)
			}
		case "shv":
			switch val {
			case "on":
				err = c.EnableSHV(irq)
			case "off":
				err = c.DisableSHV(irq)
			default:
				err = fmt.Errorf("shv wants on or off, got %q", val)
			}
		case "line":
			if sys.CLICSim == nil {
				return fmt.Errorf("irq: line is only available on the simulated backend")
			}
			sys.CLICSim.SetLine(irq.Number(), val == "1" || val == "high")
		default:
			err = fmt.Errorf("unknown action %q", action)
		}
		if err != nil {
			return fmt.Errorf("irq %d: %w", n, err)
		}
	}

	enabled, err := c.IsEnabled(irq)
	if err != nil {
		return err
	}
	pending, err := c.IsPending(irq)
	if err != nil {
		return err
	}
	prio, err := c.Priority(irq)
	if err != nil {
		return err
	}
	trig, err := c.Trigger(irq)
	if err != nil {
		return err
	}
	shv, err := c.IsSHV(irq)
	if err != nil {
		return err
	}
	active, err := c.IsActive(irq)
	if err != nil {
		return err
	}

	out.heading(fmt.Sprintf("interrupt %d", n))
	out.row("enabled", "%v", enabled)
	out.row("pending", "%v", pending)
	out.row("priority", "%d", prio)
	out.row("trigger", "%s", trig)
	out.row("shv", "%v", shv)
	out.row("active", "%v", active)
	return nil
}

func cmdMtvec(out *printer, sys *platform.System, args []string) error {
	clicMode := sys.Config.CLIC.CLICMode
	switch len(args) {
	case 0:
	case 2:
		addr, err := parseUint(args[0], 64)
		if err != nil {
			return fmt.Errorf("mtvec: %w", err)
		}
		mode, err := csr.ParseTrapMode(args[1])
		if err != nil {
			return fmt.Errorf("mtvec: %w", err)
		}
		if clicMode {
			err = csr.WriteMtvecCLIC(sys.CSR, addr, csr.SubModeDefault, mode)
		} else {
			err = csr.WriteMtvec(sys.CSR, addr, mode)
		}
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("mtvec: want no arguments or <addr> <mode>")
	}

	v, err := csr.ReadMtvec(sys.CSR, clicMode)
	if err != nil {
		return err
	}
	out.heading(fmt.Sprintf("mtvec %#x", v.Bits()))
	out.row("address", "%#x", v.Address())
	if mode, ok := v.TrapMode(); ok {
		out.row("mode", "%s", mode)
	} else {
		out.row("mode", "invalid")
	}
	if clicMode {
		if sub, ok := v.SubMode(); ok {
			out.row("sub-mode", "%s", sub)
		} else {
			out.row("sub-mode", "undefined")
		}
	}
	return nil
}

func cmdTimer(out *printer, sys *platform.System, p *peripheral.Peripherals, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("timer: half (lo or hi) required")
	}
	h, err := syst.ParseHalf(args[0])
	if err != nil {
		return err
	}
	s := p.SYST

	for _, action := range args[1:] {
		key, val, _ := strings.Cut(action, "=")
		switch key {
		case "start":
			err = s.Start(h)
		case "reset":
			err = s.Reset(h)
		case "irq":
			err = s.EnableInterrupt(h)
		case "cycle":
			err = s.SetCycleMode(h)
		case "cmp":
			var v uint64
			if v, err = parseUint(val, 32); err == nil {
				err = s.SetCompare(h, uint32(v))
			}
		case "tick":
			if sys.SYSTSim == nil {
				return fmt.Errorf("timer: tick is only available on the simulated backend")
			}
			var v uint64
			if v, err = parseUint(val, 31); err == nil {
				sys.SYSTSim.Tick(int(v))
			}
		default:
			err = fmt.Errorf("unknown action %q", action)
		}
		if err != nil {
			return fmt.Errorf("timer %s: %w", h, err)
		}
	}

	cfg, err := s.Config(h)
	if err != nil {
		return err
	}
	cnt, err := s.Counter(h)
	if err != nil {
		return err
	}
	cmp, err := s.Compare(h)
	if err != nil {
		return err
	}
	out.heading(fmt.Sprintf("timer %s", h))
	out.row("config", "%#08x", cfg)
	out.row("counter", "%d", cnt)
	out.row("compare", "%d", cmp)
	if sys.CLICSim != nil {
		irq := sys.TimerIRQ(h)
		pending, err := p.CLIC.IsPending(irq)
		if err != nil {
			return err
		}
		out.row("irq line", "%d", irq.Number())
		out.row("irq pending", "%v", pending)
	}
	return nil
}
