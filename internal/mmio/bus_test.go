package mmio

import (
	"errors"
	"testing"
)

func TestBusRouting(t *testing.T) {
	bus := NewBus()
	a := NewRegisterRAM(0x100)
	b := NewRegisterRAM(0x100)
	if err := bus.AddDevice(0x1000, a); err != nil {
		t.Fatalf("AddDevice a: %v", err)
	}
	if err := bus.AddDevice(0x2000, b); err != nil {
		t.Fatalf("AddDevice b: %v", err)
	}

	if err := bus.Write32(0x2004, 0xdeadbeef); err != nil {
		t.Fatalf("Write32: %v", err)
	}
	got, err := bus.Read32(0x2004)
	if err != nil {
		t.Fatalf("Read32: %v", err)
	}
	if got != 0xdeadbeef {
		t.Fatalf("Read32 = %#x, want 0xdeadbeef", got)
	}
	if b.Word(4) != 0xdeadbeef {
		t.Fatalf("Word = %#x", b.Word(4))
	}
	if v, _ := bus.Read32(0x1004); v != 0 {
		t.Fatalf("write leaked into neighbouring device: %#x", v)
	}
}

func TestRegisterRAMByteLanes(t *testing.T) {
	r := NewRegisterRAM(8)
	if err := r.Write(4, 4, 0xdeadbeef); err != nil {
		t.Fatalf("Write: %v", err)
	}
	for _, tc := range []struct {
		offset uint64
		size   int
		want   uint64
	}{
		{4, 1, 0xef},
		{7, 1, 0xde},
		{4, 2, 0xbeef},
		{6, 2, 0xdead},
	} {
		if v, err := r.Read(tc.offset, tc.size); err != nil || v != tc.want {
			t.Errorf("Read(%d, %d) = %#x, %v; want %#x", tc.offset, tc.size, v, err, tc.want)
		}
	}

	if err := r.Write(6, 2, 0x1234); err != nil {
		t.Fatalf("Write half: %v", err)
	}
	if r.Word(4) != 0x1234beef {
		t.Fatalf("Word = %#x, want 0x1234beef", r.Word(4))
	}
	if r.Size() != 8 {
		t.Fatalf("Size = %d", r.Size())
	}
}

func TestRegisterRAMErrors(t *testing.T) {
	r := NewRegisterRAM(6)
	if r.Size() != 8 {
		t.Fatalf("Size = %d, want rounding to 8", r.Size())
	}
	if _, err := r.Read(2, 4); !errors.Is(err, ErrAccessSize) {
		t.Fatalf("misaligned read: expected ErrAccessSize, got %v", err)
	}
	if err := r.Write(0, 8, 0); !errors.Is(err, ErrAccessSize) {
		t.Fatalf("8-byte write: expected ErrAccessSize, got %v", err)
	}
	if _, err := r.Read(8, 4); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestBusErrors(t *testing.T) {
	bus := NewBus()
	if err := bus.AddDevice(0x1000, NewRegisterRAM(0x100)); err != nil {
		t.Fatalf("AddDevice: %v", err)
	}

	if _, err := bus.Read32(0x5000); !errors.Is(err, ErrNoDevice) {
		t.Fatalf("expected ErrNoDevice, got %v", err)
	}
	if err := bus.Write32(0x10fe, 1); !errors.Is(err, ErrAccessSize) {
		t.Fatalf("expected ErrAccessSize for a misaligned word, got %v", err)
	}
	if _, err := bus.Read(0x1000, 3); !errors.Is(err, ErrAccessSize) {
		t.Fatalf("expected ErrAccessSize, got %v", err)
	}
	if err := bus.AddDevice(0x1080, NewRegisterRAM(0x100)); err == nil {
		t.Fatal("expected overlapping window to be rejected")
	}
}
