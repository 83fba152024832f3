// Package flash implements the flash chip behind the modchip. Every access
// goes through a Translator, which turns the address driven by the host into
// the physical address of the chip.
package flash

import (
	"errors"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"

	"xenium/emu/log"
)

// Size is the capacity of the flash chip (address lines A0-A20).
const Size = 2 << 20

// Erased is the value of an erased flash byte.
const Erased = 0xFF

var ErrOutOfRange = errors.New("flash window out of range")

// A Translator maps host flash addresses onto physical flash addresses.
type Translator interface {
	Translate(addr uint32) (uint32, error)
}

type identity struct{}

func (identity) Translate(addr uint32) (uint32, error) { return addr, nil }

type Flash struct {
	data []byte
	mask uint32
	tr   Translator

	// non-nil when backed by a file.
	file *os.File
	mm   mmap.MMap
	path string
}

// New returns an erased in-memory flash of the given size, which must be a
// power of 2.
func New(size int) (*Flash, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	data := make([]byte, size)
	for i := range data {
		data[i] = Erased
	}
	return newFlash(data), nil
}

// Open maps the flash image at path. If writable is true, programming the
// flash modifies the file, otherwise modifications are private to the
// process.
func Open(path string, writable bool) (*Flash, error) {
	flag, prot := os.O_RDONLY, mmap.COPY
	if writable {
		flag, prot = os.O_RDWR, mmap.RDWR
	}

	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := checkSize(int(fi.Size())); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	mm, err := mmap.Map(f, prot, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}

	fl := newFlash(mm)
	fl.file = f
	fl.mm = mm
	fl.path = path

	log.ModFlash.InfoZ("flash image mapped").
		String("path", path).
		Int("size", len(mm)).
		Bool("writable", writable).
		End()
	return fl, nil
}

func checkSize(size int) error {
	if size == 0 || size&(size-1) != 0 {
		return fmt.Errorf("flash size %d is not a power of 2", size)
	}
	return nil
}

func newFlash(data []byte) *Flash {
	return &Flash{
		data: data,
		mask: uint32(len(data) - 1),
		tr:   identity{},
	}
}

// Close flushes and unmaps a file-backed flash. It's a no-op for in-memory
// flashes.
func (f *Flash) Close() error {
	if f.mm == nil {
		return nil
	}
	err := f.mm.Flush()
	if uerr := f.mm.Unmap(); err == nil {
		err = uerr
	}
	if cerr := f.file.Close(); err == nil {
		err = cerr
	}
	f.mm, f.file, f.data = nil, nil, nil
	return err
}

// SetTranslator sets the translator used for host accesses. By default host
// addresses are physical addresses.
func (f *Flash) SetTranslator(tr Translator) {
	if tr == nil {
		tr = identity{}
	}
	f.tr = tr
}

func (f *Flash) Size() int    { return len(f.data) }
func (f *Flash) Path() string { return f.path }

// physical returns the offset in the chip of host address addr. Addresses
// beyond the chip capacity wrap around.
func (f *Flash) physical(addr uint32) (uint32, error) {
	return f.translate(f.tr, addr)
}

func (f *Flash) translate(tr Translator, addr uint32) (uint32, error) {
	phys, err := tr.Translate(addr)
	if err != nil {
		return 0, err
	}
	return phys & f.mask, nil
}

// Read8 reads the byte at host address addr.
func (f *Flash) Read8(addr uint32) (uint8, error) {
	phys, err := f.physical(addr)
	if err != nil {
		return 0, err
	}
	return f.data[phys], nil
}

// Read fills buf from consecutive host addresses starting at addr.
func (f *Flash) Read(addr uint32, buf []byte) (int, error) {
	return f.ReadThrough(f.tr, addr, buf)
}

// ReadThrough is like Read, but translates host addresses with tr instead
// of the flash translator. It's safe to call concurrently as long as the
// flash isn't programmed.
func (f *Flash) ReadThrough(tr Translator, addr uint32, buf []byte) (int, error) {
	for i := range buf {
		phys, err := f.translate(tr, addr+uint32(i))
		if err != nil {
			return i, err
		}
		buf[i] = f.data[phys]
	}
	return len(buf), nil
}

// Program8 programs the byte at host address addr. As with NOR flash,
// programming can only clear bits: the stored value becomes old & val.
func (f *Flash) Program8(addr uint32, val uint8) error {
	phys, err := f.physical(addr)
	if err != nil {
		return err
	}
	old := f.data[phys]
	f.data[phys] = old & val
	if old&val != val {
		log.ModFlash.WarnZ("programming non-erased byte").
			Hex32("addr", phys).
			Hex8("old", old).
			Hex8("val", val).
			End()
	}
	return nil
}

// Erase erases the physical range [base, base+size).
func (f *Flash) Erase(base, size uint32) error {
	win, err := f.window(base, size)
	if err != nil {
		return err
	}
	for i := range win {
		win[i] = Erased
	}
	return nil
}

func (f *Flash) window(base, size uint32) ([]byte, error) {
	end := uint64(base) + uint64(size)
	if end > uint64(len(f.data)) {
		return nil, fmt.Errorf("%w: [%06x-%06x) in %d bytes", ErrOutOfRange, base, end, len(f.data))
	}
	return f.data[base:end], nil
}
