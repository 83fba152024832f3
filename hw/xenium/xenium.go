// Package xenium emulates the Xenium modchip: two I/O registers driving the
// LED, the SPI bootstrap lines and the flash bank selector, and the flash
// address translation derived from the selected bank.
package xenium

import (
	"errors"
	"fmt"

	"xenium/emu/log"
	"xenium/hw/hwio"
)

var modXenium = log.NewModule("xenium")

const (
	// DefaultBasePort is the I/O port of register 0. Register 1 follows.
	DefaultBasePort = 0xEE

	// ID is read from register 0 by firmwares probing for a genuine device.
	ID = 0x55

	NumPorts = 2
)

// Register indices, relative to the base port.
const (
	RegLED     = 0
	RegControl = 1
)

var (
	ErrReservedBits    = errors.New("reserved bits set")
	ErrUnknownRegister = errors.New("unknown register")
	ErrInvalidBank     = errors.New("undefined bank")
	ErrInvalidPattern  = errors.New("invalid mask pattern")
)

// A FaultFunc is called when an access through the I/O bus violates the
// device register contract. Bus accesses can't return errors, so the host
// decides there whether to halt or carry on.
type FaultFunc func(err error)

type Xenium struct {
	// Registers as seen from the I/O bus, relative to the base port.
	LED  hwio.Reg8 `hwio:"offset=0x0,rcb,pcb,wcb"`
	CTRL hwio.Reg8 `hwio:"offset=0x1,rcb,pcb,wcb"`

	rf    RegisterFile
	base  uint16
	fault FaultFunc
}

// New returns a Xenium at power-on state, not yet attached to any bus.
func New() *Xenium {
	x := &Xenium{
		rf:   defaultRegisterFile(),
		base: DefaultBasePort,
	}
	hwio.MustInitRegs(x)
	x.mirror()
	return x
}

// Reset puts the host-driven state back to power-on values. Lines driven by
// the board (recovery jumper, SPI data-out) are left as they are.
func (x *Xenium) Reset() {
	prev := x.rf
	x.rf = defaultRegisterFile()
	x.rf.RecoveryN = prev.RecoveryN
	x.rf.DataOut1 = prev.DataOut1
	x.rf.DataOut4 = prev.DataOut4
	x.mirror()
}

// Attach maps the device registers at base and base+1 on the I/O bus.
func (x *Xenium) Attach(bus *hwio.Table, base uint16) {
	x.base = base
	bus.MapBank(base, x, 0)
	modXenium.InfoZ("attached").Hex16("port", base).String("bus", bus.Name).End()
}

// Detach unmaps the device registers.
func (x *Xenium) Detach(bus *hwio.Table) {
	bus.UnmapBank(x.base, x, 0)
}

// OnFault sets the function called on invalid bus accesses. By default such
// accesses are logged and dropped.
func (x *Xenium) OnFault(f FaultFunc) {
	x.fault = f
}

// Registers returns a copy of the device state.
func (x *Xenium) Registers() RegisterFile {
	return x.rf
}

// SetRecovery sets the recovery jumper.
func (x *Xenium) SetRecovery(engaged bool) {
	x.rf.RecoveryN = !engaged
	x.mirror()
}

// SetDataOut drives the SPI data-out lines read back on register 1.
func (x *Xenium) SetDataOut(pin1, pin4 bool) {
	x.rf.DataOut1 = pin1
	x.rf.DataOut4 = pin4
	x.mirror()
}

// WriteReg writes val to register reg. Invalid writes leave the device
// state untouched.
func (x *Xenium) WriteReg(reg uint8, val uint8) error {
	modXenium.DebugZ("write register").
		Hex16("port", x.port(reg)).
		Hex8("val", val).
		End()

	switch reg {
	case RegLED:
		led, err := DecodeLED(val)
		if err != nil {
			return err
		}
		x.rf.LED = led
		modXenium.DebugZ("set LED color").Stringer("led", led).End()
	case RegControl:
		ctrl, err := DecodeControl(val)
		if err != nil {
			return err
		}
		if ctrl.Bank != x.rf.Bank {
			modXenium.DebugZ("switch bank").
				Stringer("from", x.rf.Bank).
				Stringer("to", ctrl.Bank).
				End()
		}
		x.rf.setControl(ctrl)
	default:
		return fmt.Errorf("%w: write to register %d", ErrUnknownRegister, reg)
	}
	x.mirror()
	return nil
}

// ReadReg reads register reg. Reads have no side effects.
func (x *Xenium) ReadReg(reg uint8) (uint8, error) {
	val, err := x.peek(reg)
	if err != nil {
		return 0, err
	}
	modXenium.DebugZ("read register").
		Hex16("port", x.port(reg)).
		Hex8("val", val).
		End()
	return val, nil
}

func (x *Xenium) peek(reg uint8) (uint8, error) {
	switch reg {
	case RegLED:
		return ID, nil
	case RegControl:
		return x.rf.Status().Encode(), nil
	}
	return 0, fmt.Errorf("%w: read from register %d", ErrUnknownRegister, reg)
}

// Translate returns the physical flash address accessed when the host reads
// addr, given the currently selected bank.
func (x *Xenium) Translate(addr uint32) (uint32, error) {
	p, err := MaskForBank(uint8(x.rf.Bank))
	if err != nil {
		return 0, fmt.Errorf("translate %06x: %w", addr, err)
	}
	return ApplyMask(addr, p)
}

func (x *Xenium) port(reg uint8) uint16 {
	return x.base + uint16(reg)
}

// mirror copies the device state into the bus registers, so that they show
// the last accepted write.
func (x *Xenium) mirror() {
	x.LED.Value = uint8(x.rf.LED)
	x.CTRL.Value = x.rf.Control().Encode()
}

// AddLogContext implements log.Context, tagging log entries with the
// selected bank and the LED color.
func (x *Xenium) AddLogContext(z *log.EntryZ) {
	z.Stringer("bank", x.rf.Bank).Stringer("led", x.rf.LED)
}

func (x *Xenium) reportFault(err error) {
	if x.fault != nil {
		x.fault(err)
		return
	}
	modXenium.ErrorZ("invalid access").Error("err", err).End()
}

// $EE
func (x *Xenium) ReadLED(_ uint8) uint8 {
	return x.busRead(RegLED)
}

func (x *Xenium) PeekLED(_ uint8) uint8 {
	val, _ := x.peek(RegLED)
	return val
}

func (x *Xenium) WriteLED(_, val uint8) {
	x.busWrite(RegLED, val)
}

// $EF
func (x *Xenium) ReadCTRL(_ uint8) uint8 {
	return x.busRead(RegControl)
}

func (x *Xenium) PeekCTRL(_ uint8) uint8 {
	val, _ := x.peek(RegControl)
	return val
}

func (x *Xenium) WriteCTRL(_, val uint8) {
	x.busWrite(RegControl, val)
}

func (x *Xenium) busRead(reg uint8) uint8 {
	val, err := x.ReadReg(reg)
	if err != nil {
		x.reportFault(err)
		return hwio.OpenBus
	}
	return val
}

func (x *Xenium) busWrite(reg, val uint8) {
	if err := x.WriteReg(reg, val); err != nil {
		x.reportFault(err)
		// The bus register already holds the rejected value.
		x.mirror()
	}
}
