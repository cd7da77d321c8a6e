package clic

import (
	"testing"

	"github.com/tinyrange/rvclic/internal/csr"
	"github.com/tinyrange/rvclic/internal/mmio"
)

// newTestCLIC maps plain storage where the CLIC would be so raw words can
// be inspected.
func newTestCLIC(t *testing.T) (*CLIC, *mmio.Bus, *csr.File) {
	t.Helper()
	bus := mmio.NewBus()
	if err := bus.AddDevice(DefaultBase, mmio.NewRegisterRAM(BlockSize)); err != nil {
		t.Fatalf("AddDevice: %v", err)
	}
	csrs := csr.NewFile()
	return New(bus, csrs, DefaultBase), bus, csrs
}

func readWord(t *testing.T, bus *mmio.Bus, addr uint64) uint32 {
	t.Helper()
	v, err := bus.Read32(addr)
	if err != nil {
		t.Fatalf("Read32(%#x): %v", addr, err)
	}
	return v
}

func TestLayout(t *testing.T) {
	if BlockSize != 0x11000 {
		t.Fatalf("BlockSize = %#x, want 0x11000", BlockSize)
	}
	if got := IntAddr(DefaultBase, 5, IntCtl); got != DefaultBase+0x1000+5*16+0xc {
		t.Fatalf("IntAddr = %#x", got)
	}
}

func TestMaskUnmask(t *testing.T) {
	c, _, _ := newTestCLIC(t)
	irq := Interrupt(5)

	if err := c.Mask(irq); err != nil {
		t.Fatalf("Mask: %v", err)
	}
	if on, err := c.IsEnabled(irq); err != nil || on {
		t.Fatalf("IsEnabled after Mask = %v, %v", on, err)
	}
	if err := c.Unmask(irq); err != nil {
		t.Fatalf("Unmask: %v", err)
	}
	if on, err := c.IsEnabled(irq); err != nil || !on {
		t.Fatalf("IsEnabled after Unmask = %v, %v", on, err)
	}
	if on, _ := c.IsEnabled(Interrupt(4)); on {
		t.Fatal("Unmask leaked into interrupt 4")
	}
}

func TestPendUnpend(t *testing.T) {
	c, bus, _ := newTestCLIC(t)
	irq := Interrupt(42)

	if err := c.Pend(irq); err != nil {
		t.Fatalf("Pend: %v", err)
	}
	if p, _ := c.IsPending(irq); !p {
		t.Fatal("IsPending = false after Pend")
	}
	if w := readWord(t, bus, IntAddr(DefaultBase, 42, IntEnabled)); w != 0 {
		t.Fatalf("Pend touched enabled word: %#x", w)
	}
	if err := c.Unpend(irq); err != nil {
		t.Fatalf("Unpend: %v", err)
	}
	if p, _ := c.IsPending(irq); p {
		t.Fatal("IsPending = true after Unpend")
	}
}

func TestSetPriorityPreservesUpperBits(t *testing.T) {
	c, bus, _ := newTestCLIC(t)
	addr := IntAddr(DefaultBase, 7, IntCtl)
	if err := bus.Write32(addr, 0xa5a5_a500); err != nil {
		t.Fatalf("Write32: %v", err)
	}

	if err := c.SetPriority(Interrupt(7), 0xc3); err != nil {
		t.Fatalf("SetPriority: %v", err)
	}
	if w := readWord(t, bus, addr); w != 0xa5a5_a5c3 {
		t.Fatalf("ctl = %#x, want 0xa5a5a5c3", w)
	}
	if p, _ := c.Priority(Interrupt(7)); p != 0xc3 {
		t.Fatalf("Priority = %#x, want 0xc3", p)
	}
}

func TestAttrFieldIsolation(t *testing.T) {
	c, bus, _ := newTestCLIC(t)
	irq := Interrupt(3)
	addr := IntAddr(DefaultBase, 3, IntAttr)

	if err := c.SetTrig(irq, EdgePositive); err != nil {
		t.Fatalf("SetTrig: %v", err)
	}
	if w := readWord(t, bus, addr); w != 0b010 {
		t.Fatalf("attr after SetTrig = %#b, want 0b010", w)
	}
	if err := c.EnableSHV(irq); err != nil {
		t.Fatalf("EnableSHV: %v", err)
	}
	if w := readWord(t, bus, addr); w != 0b011 {
		t.Fatalf("attr after EnableSHV = %#b, want 0b011", w)
	}
	if trig, _ := c.Trigger(irq); trig != EdgePositive {
		t.Fatalf("Trigger = %v, want edge-positive", trig)
	}

	if err := c.SetTrig(irq, EdgeNegative); err != nil {
		t.Fatalf("SetTrig: %v", err)
	}
	if shv, _ := c.IsSHV(irq); !shv {
		t.Fatal("SetTrig cleared SHV")
	}
	if err := c.DisableSHV(irq); err != nil {
		t.Fatalf("DisableSHV: %v", err)
	}
	if w := readWord(t, bus, addr); w != 0b110 {
		t.Fatalf("attr after DisableSHV = %#b, want 0b110", w)
	}
}

func TestAttrPreservesReservedBits(t *testing.T) {
	c, bus, _ := newTestCLIC(t)
	addr := IntAddr(DefaultBase, 9, IntAttr)
	if err := bus.Write32(addr, 0xc0); err != nil {
		t.Fatalf("Write32: %v", err)
	}
	if err := c.SetTrig(Interrupt(9), LevelNegative); err != nil {
		t.Fatalf("SetTrig: %v", err)
	}
	if w := readWord(t, bus, addr); w != 0xc4 {
		t.Fatalf("attr = %#x, want 0xc4", w)
	}
}

func TestIsActive(t *testing.T) {
	c, _, csrs := newTestCLIC(t)
	csrs.Preset(csr.CSRMcause, 1<<63|0x3000|17)

	if on, err := c.IsActive(Interrupt(17)); err != nil || !on {
		t.Fatalf("IsActive(17) = %v, %v", on, err)
	}
	if on, _ := c.IsActive(Interrupt(16)); on {
		t.Fatal("IsActive(16) = true")
	}
}

func TestConfigWidths(t *testing.T) {
	c, bus, _ := newTestCLIC(t)

	if err := c.SetLevelBitWidth(8); err != nil {
		t.Fatalf("SetLevelBitWidth: %v", err)
	}
	if err := c.SetModeBitWidth(2); err != nil {
		t.Fatalf("SetModeBitWidth: %v", err)
	}
	if w := readWord(t, bus, DefaultBase+CfgOffset); w != 2<<5|8<<1 {
		t.Fatalf("cliccfg = %#x", w)
	}
	if n, _ := c.LevelBitWidth(); n != 8 {
		t.Fatalf("LevelBitWidth = %d, want 8", n)
	}
	if n, _ := c.ModeBitWidth(); n != 2 {
		t.Fatalf("ModeBitWidth = %d, want 2", n)
	}
	if v, _ := c.HasInterruptVectoring(); !v {
		t.Fatal("HasInterruptVectoring = false with nvbit clear")
	}

	if err := bus.Write32(DefaultBase+CfgOffset, 1); err != nil {
		t.Fatalf("Write32: %v", err)
	}
	if v, _ := c.HasInterruptVectoring(); v {
		t.Fatal("HasInterruptVectoring = true with nvbit set")
	}
}

func TestInfoDecode(t *testing.T) {
	if got := Info(0x3E00_0000).NumInt(); got != 31 {
		t.Fatalf("NumInt = %d, want 31", got)
	}

	info := MakeInfo(4096, 0x11, 8, 40)
	if info.MaxInterrupts() != 4096 || info.Version() != 0x11 || info.PossibleLevelBits() != 8 || info.NumInt() != 40 {
		t.Fatalf("MakeInfo round trip = %#x", uint32(info))
	}

	c, bus, _ := newTestCLIC(t)
	if err := bus.Write32(DefaultBase+InfoOffset, uint32(info)); err != nil {
		t.Fatalf("Write32: %v", err)
	}
	if n, _ := c.NumInt(); n != 40 {
		t.Fatalf("NumInt = %d", n)
	}
	if n, _ := c.MaxInterrupts(); n != 4096 {
		t.Fatalf("MaxInterrupts = %d", n)
	}
	if n, _ := c.Version(); n != 0x11 {
		t.Fatalf("Version = %d", n)
	}
	if n, _ := c.PossibleLevelBits(); n != 8 {
		t.Fatalf("PossibleLevelBits = %d", n)
	}
}

func TestParseTrigger(t *testing.T) {
	for tr := LevelPositive; tr <= EdgeNegative; tr++ {
		got, err := ParseTrigger(tr.String())
		if err != nil || got != tr {
			t.Errorf("ParseTrigger(%q) = %v, %v", tr.String(), got, err)
		}
	}
	if _, err := ParseTrigger("rising"); err == nil {
		t.Error("expected error for unknown trigger")
	}
}

func TestBusErrorsAreWrapped(t *testing.T) {
	c := New(mmio.NewBus(), csr.NewFile(), DefaultBase)
	if err := c.Mask(Interrupt(1)); err == nil {
		t.Fatal("expected error with nothing mapped")
	}
	if _, err := c.Priority(Interrupt(1)); err == nil {
		t.Fatal("expected error with nothing mapped")
	}
}
