// Package csr models the machine-mode control and status registers that
// govern trap vectoring and CLIC interrupt masking.
package csr

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrReadOnly   = errors.New("csr: register is read-only")
	ErrUnknownCSR = errors.New("csr: unknown register")
)

// CSR numbers
const (
	CSRMtvec         uint16 = 0x305
	CSRMtvt          uint16 = 0x307
	CSRMcountinhibit uint16 = 0x320
	CSRMcause        uint16 = 0x342
	CSRMintstatus    uint16 = 0x346
	CSRMintthresh    uint16 = 0x347
)

// Accessor is the CSR read/write primitive. Each call is a single atomic
// access to one register.
type Accessor interface {
	Read(csr uint16) (uint64, error)
	Write(csr uint16, val uint64) error
}

// Set ORs mask into csr. It is a separate read and write, not atomic against
// concurrent writers.
func Set(acc Accessor, csr uint16, mask uint64) error {
	val, err := acc.Read(csr)
	if err != nil {
		return err
	}
	return acc.Write(csr, val|mask)
}

// Clear clears mask in csr. Like Set, it is not atomic.
func Clear(acc Accessor, csr uint16, mask uint64) error {
	val, err := acc.Read(csr)
	if err != nil {
		return err
	}
	return acc.Write(csr, val&^mask)
}

// File is an in-memory CSR file for hosted and simulated targets.
type File struct {
	mu       sync.Mutex
	regs     map[uint16]uint64
	readOnly map[uint16]bool
}

// NewFile returns a CSR file holding the registers this package models,
// all zero.
func NewFile() *File {
	f := &File{
		regs:     make(map[uint16]uint64),
		readOnly: map[uint16]bool{CSRMintstatus: true},
	}
	for _, n := range []uint16{CSRMtvec, CSRMtvt, CSRMcountinhibit, CSRMcause, CSRMintstatus, CSRMintthresh} {
		f.regs[n] = 0
	}
	return f
}

// Read implements Accessor
func (f *File) Read(csr uint16) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	val, ok := f.regs[csr]
	if !ok {
		return 0, fmt.Errorf("%w 0x%03x", ErrUnknownCSR, csr)
	}
	return val, nil
}

// Write implements Accessor
func (f *File) Write(csr uint16, val uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.regs[csr]; !ok {
		return fmt.Errorf("%w 0x%03x", ErrUnknownCSR, csr)
	}
	// Top two bits of the CSR number set means read-only.
	if (csr>>10) == 3 || f.readOnly[csr] {
		return fmt.Errorf("%w 0x%03x", ErrReadOnly, csr)
	}
	f.regs[csr] = val
	return nil
}

// Preset stores val into csr regardless of access permissions. It stands in
// for hardware updating state such as mcause on trap entry.
func (f *File) Preset(csr uint16, val uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regs[csr] = val
}

var _ Accessor = (*File)(nil)
