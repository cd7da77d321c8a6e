package platform

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tinyrange/rvclic/internal/clic"
	"github.com/tinyrange/rvclic/internal/csr"
	"github.com/tinyrange/rvclic/internal/devices/clicsim"
	"github.com/tinyrange/rvclic/internal/devices/systsim"
	"github.com/tinyrange/rvclic/internal/mmio"
	"github.com/tinyrange/rvclic/internal/peripheral"
	"github.com/tinyrange/rvclic/internal/syst"
)

// System is an opened platform: the bus with its devices mapped, and the
// CSR file the drivers use.
type System struct {
	Config Config
	Bus    *mmio.Bus
	CSR    *csr.File

	// Set only for the simulated backend.
	CLICSim *clicsim.Device
	SYSTSim *systsim.Device

	mappings []*mmio.Mapping
}

// Open builds the backend described by c.
//
// CSRs are not reachable from a hosted process, so both backends use an
// in-memory CSR file.
func Open(c Config) (*System, error) {
	c.normalize()
	if err := c.validate(); err != nil {
		return nil, err
	}
	s := &System{
		Config: c,
		Bus:    mmio.NewBus(),
		CSR:    csr.NewFile(),
	}

	switch c.Backend {
	case BackendSim:
		s.CLICSim = clicsim.New(c.Info())
		s.SYSTSim = systsim.New()
		if err := s.Bus.AddDevice(uint64(c.CLIC.Base), s.CLICSim); err != nil {
			return nil, fmt.Errorf("platform: map clic: %w", err)
		}
		if err := s.Bus.AddDevice(uint64(c.SYST.Base), s.SYSTSim); err != nil {
			return nil, fmt.Errorf("platform: map syst: %w", err)
		}
		if err := s.connectTimer(syst.Low, c.SYST.IRQLow); err != nil {
			return nil, err
		}
		if err := s.connectTimer(syst.High, c.SYST.IRQHigh); err != nil {
			return nil, err
		}
	case BackendDevMem:
		if err := s.mapDevMem(uint64(c.CLIC.Base), clic.BlockSize); err != nil {
			return nil, err
		}
		if err := s.mapDevMem(uint64(c.SYST.Base), syst.BlockSize); err != nil {
			_ = s.Close()
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownBackend, c.Backend)
	}

	slog.Debug("platform: opened", "name", c.Name, "backend", c.Backend,
		"clic", fmt.Sprintf("%#x", uint64(c.CLIC.Base)), "syst", fmt.Sprintf("%#x", uint64(c.SYST.Base)))
	return s, nil
}

// connectTimer routes the match output of timer half h to CLIC input irq.
// The timer pulses its output, so the input starts out edge-triggered.
func (s *System) connectTimer(h syst.Half, irq uint16) error {
	attr := clic.IntAddr(uint64(s.Config.CLIC.Base), irq, clic.IntAttr)
	if err := s.Bus.Write32(attr, uint32(clic.EdgePositive)<<1); err != nil {
		return fmt.Errorf("platform: timer %s trigger: %w", h, err)
	}
	sim := s.CLICSim
	s.SYSTSim.Connect(h, func(level bool) {
		sim.SetLine(irq, level)
	})
	return nil
}

// TimerIRQ returns the CLIC interrupt that timer half h raises.
func (s *System) TimerIRQ(h syst.Half) clic.Interrupt {
	if h == syst.High {
		return clic.Interrupt(s.Config.SYST.IRQHigh)
	}
	return clic.Interrupt(s.Config.SYST.IRQLow)
}

func (s *System) mapDevMem(base, size uint64) error {
	m, err := mmio.OpenMapping(s.Config.DevMem, base, size)
	if err != nil {
		return fmt.Errorf("platform: %w", err)
	}
	s.mappings = append(s.mappings, m)
	if err := s.Bus.AddDevice(base, m); err != nil {
		return fmt.Errorf("platform: %w", err)
	}
	return nil
}

// Backend returns the handle backend for peripheral.Take.
func (s *System) Backend() peripheral.Backend {
	return peripheral.Backend{
		Bus:      s.Bus,
		CSR:      s.CSR,
		CLICBase: uint64(s.Config.CLIC.Base),
		SYSTBase: uint64(s.Config.SYST.Base),
	}
}

// Close releases any physical mappings.
func (s *System) Close() error {
	var errs []error
	for _, m := range s.mappings {
		errs = append(errs, m.Close())
	}
	s.mappings = nil
	return errors.Join(errs...)
}
