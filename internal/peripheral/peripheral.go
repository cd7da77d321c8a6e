// Package peripheral hands out the core peripheral handles at most once
// per process.
package peripheral

import (
	"sync"

	"github.com/tinyrange/rvclic/internal/clic"
	"github.com/tinyrange/rvclic/internal/csr"
	"github.com/tinyrange/rvclic/internal/mmio"
	"github.com/tinyrange/rvclic/internal/syst"
)

// Backend is the address space and CSR file the handles operate on, along
// with the platform's fixed base addresses.
type Backend struct {
	Bus      mmio.Accessor
	CSR      csr.Accessor
	CLICBase uint64
	SYSTBase uint64
}

// Peripherals is the set of owned core peripheral handles.
type Peripherals struct {
	CLIC *clic.CLIC
	SYST *syst.SYST
}

func newPeripherals(b Backend) *Peripherals {
	return &Peripherals{
		CLIC: clic.New(b.Bus, b.CSR, b.CLICBase),
		SYST: syst.New(b.Bus, b.SYSTBase),
	}
}

// Gate is a one-shot latch over peripheral handle creation. The zero value
// is untaken. There is no way to return the handles.
type Gate struct {
	mu    sync.Mutex
	taken bool
}

// Take returns the peripherals the first time it is called and false on
// every call after that, including calls that race with the first.
func (g *Gate) Take(b Backend) (*Peripherals, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.taken {
		return nil, false
	}
	g.taken = true
	return newPeripherals(b), true
}

// Steal marks the gate taken and returns fresh handles regardless of its
// state. The caller must know no other handle is live.
func (g *Gate) Steal(b Backend) *Peripherals {
	g.mu.Lock()
	g.taken = true
	g.mu.Unlock()
	return newPeripherals(b)
}

// Taken reports whether handles have been issued.
func (g *Gate) Taken() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.taken
}

var core Gate

// Take returns the process-wide peripherals exactly once.
func Take(b Backend) (*Peripherals, bool) { return core.Take(b) }

// Steal returns the process-wide peripherals without checking whether they
// were already taken. See Gate.Steal.
func Steal(b Backend) *Peripherals { return core.Steal(b) }
