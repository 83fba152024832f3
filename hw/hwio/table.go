package hwio

import (
	"fmt"

	"xenium/emu/log"
)

// OpenBus is the value read from a port no device answers to.
const OpenBus = 0xFF

// log unmapped accesses (useful for debugging but verbose since firmwares
// routinely probe for absent devices)
const logUnmapped = false

type BankIO8 interface {
	Read8(addr uint16) uint8
	// Peek8 reads a byte without side effects (debugging/tracing).
	Peek8(addr uint16) uint8
	Write8(addr uint16, val uint8)
}

// Table is a 16-bit address space onto which 8-bit registers are mapped,
// such as an I/O port space.
type Table struct {
	Name string

	// Unmapped handles accesses to addresses with no mapping. If nil, reads
	// return OpenBus and writes are ignored.
	Unmapped BankIO8

	table8 rangeTable
}

func NewTable(name string) *Table {
	t := new(Table)
	t.Name = name
	t.Reset()
	return t
}

func (t *Table) Reset() {
	t.table8 = rangeTable{}
}

// Map a register bank (that is, a structure containing multiple Reg8
// fields). For this function to work, registers must have a struct tag
// "hwio", containing the following fields:
//
//	offset=0x12     Byte-offset within the register bank at which this
//	                register is mapped. There is no default value: if this
//	                option is missing, the register is assumed not to be
//	                part of the bank, and is ignored by this call.
//
//	bank=NN         Ordinal bank number (if not specified, default to zero).
//	                This option allows for a structure to expose multiple
//	                banks, as regs can be grouped by bank by specified the
//	                bank number.
func (t *Table) MapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Reg8:
			t.MapReg8(addr+reg.offset, r)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) UnmapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Reg8:
			t.Unmap(addr+reg.offset, addr+reg.offset)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) mapBus8(addr uint16, io BankIO8) {
	if err := t.table8.insert(addr, io); err != nil {
		panic(fmt.Errorf("%s: %w", t.Name, err))
	}
}

func (t *Table) MapReg8(addr uint16, io *Reg8) {
	log.ModHwIo.DebugZ("mapping reg").
		Hex16("addr", addr).
		String("reg", io.Name).
		String("bus", t.Name).
		End()

	t.mapBus8(addr, io)
}

// Unmap removes every register mapped in [begin, end].
func (t *Table) Unmap(begin, end uint16) {
	t.table8.remove(begin, end)
}

// Read8 searches in the table for the device mapped at the given address and
// forward the read to it.
func (t *Table) Read8(addr uint16) uint8 {
	io := t.table8.search(addr)
	if io == nil {
		if logUnmapped {
			log.ModHwIo.ErrorZ("unmapped Read8").
				String("name", t.Name).
				Hex16("addr", addr).
				End()
		}
		if t.Unmapped != nil {
			return t.Unmapped.Read8(addr)
		}
		return OpenBus
	}
	return io.Read8(addr)
}

func (t *Table) Peek8(addr uint16) uint8 {
	io := t.table8.search(addr)
	if io == nil {
		if t.Unmapped != nil {
			return t.Unmapped.Peek8(addr)
		}
		return OpenBus
	}
	return io.Peek8(addr)
}

func (t *Table) Write8(addr uint16, val uint8) {
	io := t.table8.search(addr)
	if io == nil {
		if logUnmapped {
			log.ModHwIo.ErrorZ("unmapped Write8").
				String("name", t.Name).
				Hex16("addr", addr).
				Hex8("val", val).
				End()
		}
		if t.Unmapped != nil {
			t.Unmapped.Write8(addr, val)
		}
		return
	}
	io.Write8(addr, val)
}

// Mapped reports whether some device answers at addr.
func (t *Table) Mapped(addr uint16) bool {
	return t.table8.search(addr) != nil
}
