package syst

import (
	"testing"

	"github.com/tinyrange/rvclic/internal/mmio"
)

func newTestSYST(t *testing.T) (*SYST, *mmio.Bus) {
	t.Helper()
	bus := mmio.NewBus()
	if err := bus.AddDevice(DefaultBase, mmio.NewRegisterRAM(BlockSize)); err != nil {
		t.Fatalf("AddDevice: %v", err)
	}
	return New(bus, DefaultBase), bus
}

func word(t *testing.T, bus *mmio.Bus, off uint64) uint32 {
	t.Helper()
	v, err := bus.Read32(DefaultBase + off)
	if err != nil {
		t.Fatalf("Read32: %v", err)
	}
	return v
}

func TestConfigBits(t *testing.T) {
	s, bus := newTestSYST(t)

	steps := []struct {
		name string
		fn   func() error
		want uint32
	}{
		{"enable", func() error { return s.Enable(Low) }, 0x1},
		{"irq", func() error { return s.EnableInterrupt(Low) }, 0x5},
		{"event mask", func() error { return s.EnableEventMask(Low) }, 0xd},
		{"cycle", func() error { return s.SetCycleMode(Low) }, 0x1d},
		{"one shot", func() error { return s.EnableOneShotMode(Low) }, 0x3d},
		{"prescaler", func() error { return s.EnablePrescalerMode(Low) }, 0x7d},
		{"ref clock", func() error { return s.SetReferenceClock(Low) }, 0xfd},
		{"prescale value", func() error { return s.SetPrescaleValue(Low, 0x12) }, 0x12fd},
		{"cascade", func() error { return s.EnableCascadedMode() }, 0x8000_12fd},
		{"continuous", func() error { return s.SetContinuousMode(Low) }, 0x8000_12ed},
		{"fll clock", func() error { return s.SetFLLClock(Low) }, 0x8000_126d},
		{"no cascade", func() error { return s.DisableCascadedMode() }, 0x126d},
		{"no prescaler", func() error { return s.DisablePrescalerMode(Low) }, 0x122d},
		{"no one shot", func() error { return s.DisableOneShotMode(Low) }, 0x120d},
		{"no event mask", func() error { return s.DisableEventMask(Low) }, 0x1205},
		{"no irq", func() error { return s.DisableInterrupt(Low) }, 0x1201},
		{"disable", func() error { return s.Disable(Low) }, 0x1200},
		{"reset bit", func() error { return s.ResetCounter(Low) }, 0x1202},
	}
	for _, st := range steps {
		if err := st.fn(); err != nil {
			t.Fatalf("%s: %v", st.name, err)
		}
		if got := word(t, bus, CfgLow); got != st.want {
			t.Fatalf("after %s cfg_low = %#x, want %#x", st.name, got, st.want)
		}
	}
	if got := word(t, bus, CfgHigh); got != 0 {
		t.Fatalf("cfg_high touched: %#x", got)
	}
}

func TestHalvesAreIndependent(t *testing.T) {
	s, bus := newTestSYST(t)
	if err := s.Enable(High); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if err := s.SetCounter(High, 7); err != nil {
		t.Fatalf("SetCounter: %v", err)
	}
	if err := s.SetCompare(Low, 9); err != nil {
		t.Fatalf("SetCompare: %v", err)
	}
	if cfg, _ := s.Config(High); cfg != 1 {
		t.Fatalf("cfg_high = %#x", cfg)
	}
	if word(t, bus, CfgLow) != 0 || word(t, bus, CntLow) != 0 || word(t, bus, CmpHigh) != 0 {
		t.Fatal("write leaked into the other half")
	}
	if v, _ := s.Counter(High); v != 7 {
		t.Fatalf("Counter(High) = %d", v)
	}
	if v, _ := s.Compare(Low); v != 9 {
		t.Fatalf("Compare(Low) = %d", v)
	}
}

func TestCommandsUseDedicatedRegisters(t *testing.T) {
	s, bus := newTestSYST(t)
	if err := s.SetCompare(Low, 100); err != nil {
		t.Fatalf("SetCompare: %v", err)
	}
	if err := s.Start(Low); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Reset(High); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if word(t, bus, StartLow) != 1 || word(t, bus, ResetHigh) != 1 {
		t.Fatal("command registers not written")
	}
	if v, _ := s.Compare(Low); v != 100 {
		t.Fatalf("Start clobbered cmp_low: %d", v)
	}
}

func TestParseHalf(t *testing.T) {
	for _, h := range []Half{Low, High} {
		if got, err := ParseHalf(h.String()); err != nil || got != h {
			t.Errorf("ParseHalf(%q) = %v, %v", h.String(), got, err)
		}
	}
	if _, err := ParseHalf("mid"); err == nil {
		t.Error("expected error")
	}
}
