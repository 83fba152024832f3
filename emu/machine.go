// Package emu assembles the emulated devices into a machine.
package emu

import (
	"errors"
	"fmt"
	"os"

	"xenium/emu/log"
	"xenium/hw/flash"
	"xenium/hw/hwio"
	"xenium/hw/snapshot"
	"xenium/hw/xenium"
)

// ErrHalted is returned by port accesses once the machine halted on a fault.
var ErrHalted = errors.New("machine halted")

// Machine is the host side of the modchip: the I/O port space the Xenium
// registers are mapped onto, and the flash chip it remaps.
type Machine struct {
	IO     *hwio.Table
	Xenium *xenium.Xenium
	Flash  *flash.Flash

	cfg    Config
	fault  error // fault raised by the current port access
	halted error
}

// NewMachine builds a machine with a Xenium attached, according to cfg.
func NewMachine(cfg Config) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		fl  *flash.Flash
		err error
	)
	if cfg.Flash.Image != "" {
		fl, err = flash.Open(cfg.Flash.Image, cfg.Flash.Writable)
	} else {
		fl, err = flash.New(flash.Size)
	}
	if err != nil {
		return nil, fmt.Errorf("flash: %w", err)
	}

	m := &Machine{
		IO:     hwio.NewTable("io"),
		Xenium: xenium.New(),
		Flash:  fl,
		cfg:    cfg,
	}
	m.Xenium.SetRecovery(cfg.Xenium.Recovery)
	m.Xenium.OnFault(m.onFault)
	m.Xenium.Attach(m.IO, cfg.Xenium.BasePort)
	m.Flash.SetTranslator(m.Xenium)
	log.AddContext(m.Xenium)
	return m, nil
}

// Close releases the flash image.
func (m *Machine) Close() error {
	log.RemoveContext(m.Xenium)
	return m.Flash.Close()
}

func (m *Machine) onFault(err error) {
	log.ModEmu.ErrorZ("device fault").
		Error("err", err).
		String("policy", string(m.cfg.Emu.OnFault)).
		End()
	if m.fault == nil {
		m.fault = err
	}
}

// endAccess applies the fault policy to the fault raised, if any, during the
// last port access.
func (m *Machine) endAccess() error {
	err := m.fault
	m.fault = nil
	if err == nil || m.cfg.Emu.OnFault == FaultLog {
		return nil
	}
	m.halted = err
	return err
}

// Halted returns the fault that halted the machine, or nil.
func (m *Machine) Halted() error {
	return m.halted
}

// Out8 writes val to an I/O port.
func (m *Machine) Out8(port uint16, val uint8) error {
	if m.halted != nil {
		return fmt.Errorf("%w: %v", ErrHalted, m.halted)
	}
	m.IO.Write8(port, val)
	if err := m.endAccess(); err != nil {
		return fmt.Errorf("out %04x, %02x: %w", port, val, err)
	}
	return nil
}

// In8 reads an I/O port.
func (m *Machine) In8(port uint16) (uint8, error) {
	if m.halted != nil {
		return 0, fmt.Errorf("%w: %v", ErrHalted, m.halted)
	}
	val := m.IO.Read8(port)
	if err := m.endAccess(); err != nil {
		return 0, fmt.Errorf("in %04x: %w", port, err)
	}
	return val, nil
}

// ReadFlash reads the flash byte seen by the host at addr.
func (m *Machine) ReadFlash(addr uint32) (uint8, error) {
	if m.halted != nil {
		return 0, fmt.Errorf("%w: %v", ErrHalted, m.halted)
	}
	return m.Flash.Read8(addr)
}

// ReadFlashN reads n flash bytes seen by the host from addr.
func (m *Machine) ReadFlashN(addr uint32, n int) ([]byte, error) {
	if m.halted != nil {
		return nil, fmt.Errorf("%w: %v", ErrHalted, m.halted)
	}
	buf := make([]byte, n)
	if _, err := m.Flash.Read(addr, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ProgramFlash programs val at host address addr, in the selected bank.
func (m *Machine) ProgramFlash(addr uint32, val uint8) error {
	if m.halted != nil {
		return fmt.Errorf("%w: %v", ErrHalted, m.halted)
	}
	return m.Flash.Program8(addr, val)
}

// EraseFlash erases the physical flash range [base, base+size).
func (m *Machine) EraseFlash(base, size uint32) error {
	if m.halted != nil {
		return fmt.Errorf("%w: %v", ErrHalted, m.halted)
	}
	return m.Flash.Erase(base, size)
}

// Reset brings the devices back to power-on state and clears a halt.
func (m *Machine) Reset() {
	m.Xenium.Reset()
	m.fault = nil
	m.halted = nil
}

func (m *Machine) Snapshot() *snapshot.Machine {
	return &snapshot.Machine{
		Version: snapshot.Version,
		Xenium:  m.Xenium.State(),
	}
}

func (m *Machine) Restore(s *snapshot.Machine) error {
	if s.Xenium == nil {
		return errors.New("snapshot has no xenium state")
	}
	return m.Xenium.SetState(s.Xenium)
}

// SaveState writes the machine state to path.
func (m *Machine) SaveState(path string) error {
	buf, err := m.Snapshot().MarshalJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}

// LoadState restores the machine state saved at path.
func (m *Machine) LoadState(path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var s snapshot.Machine
	if err := s.UnmarshalJSON(buf); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := m.Restore(&s); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
