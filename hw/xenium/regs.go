package xenium

import (
	"fmt"
	"strings"

	"xenium/hw/hwio"
)

// LED is the colour of the front LED: bit 0 is red, bit 1 green, bit 2 blue.
type LED uint8

const (
	LEDRed LED = 1 << iota
	LEDGreen
	LEDBlue

	ledMask = LEDRed | LEDGreen | LEDBlue
)

var ledNames = [...]string{"red", "green", "blue"}

func (l LED) String() string {
	var names []string
	for i, name := range ledNames {
		if l&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "off"
	}
	return strings.Join(names, "|")
}

// DecodeLED decodes a write to register 0.
func DecodeLED(val uint8) (LED, error) {
	if LED(val)&^ledMask != 0 {
		return 0, fmt.Errorf("%w: LED register write %02x", ErrReservedBits, val)
	}
	return LED(val), nil
}

// Register 1 bits.
const (
	ctrlReserved   = 7 // must be written as 0
	ctrlClock      = 6 // SPI clock (write)
	ctrlChipSelect = 5 // SPI chip select (write)
	ctrlDataIn     = 4 // SPI data to the device (write)

	statusRecoveryN = 7 // recovery jumper, active low (read)
	statusDataOut1  = 5 // SPI data from the device, pin 1 (read)
	statusDataOut4  = 4 // SPI data from the device, pin 4 (read)

	bankMask = 0x0F
)

// Control is the content of a write to register 1.
type Control struct {
	Clock      bool
	ChipSelect bool
	DataIn     bool
	Bank       Bank
}

// DecodeControl decodes a write to register 1. The reserved bit must be clear
// and the bank-control code must be defined.
func DecodeControl(val uint8) (Control, error) {
	if hwio.GetBit8(val, ctrlReserved) {
		return Control{}, fmt.Errorf("%w: control register write %02x", ErrReservedBits, val)
	}
	bank, err := ParseBank(val & bankMask)
	if err != nil {
		return Control{}, fmt.Errorf("control register write %02x: %w", val, err)
	}
	return Control{
		Clock:      hwio.GetBit8(val, ctrlClock),
		ChipSelect: hwio.GetBit8(val, ctrlChipSelect),
		DataIn:     hwio.GetBit8(val, ctrlDataIn),
		Bank:       bank,
	}, nil
}

func (c Control) Encode() uint8 {
	val := uint8(c.Bank) & bankMask
	hwio.PutBit8(&val, ctrlClock, c.Clock)
	hwio.PutBit8(&val, ctrlChipSelect, c.ChipSelect)
	hwio.PutBit8(&val, ctrlDataIn, c.DataIn)
	return val
}

// Status is the content of a read from register 1.
type Status struct {
	RecoveryN bool
	DataOut1  bool
	DataOut4  bool
	Bank      Bank
}

func (s Status) Encode() uint8 {
	val := uint8(s.Bank) & bankMask
	hwio.PutBit8(&val, statusRecoveryN, s.RecoveryN)
	hwio.PutBit8(&val, statusDataOut1, s.DataOut1)
	hwio.PutBit8(&val, statusDataOut4, s.DataOut4)
	return val
}

// RegisterFile holds the whole observable state of the device.
type RegisterFile struct {
	LED LED

	// SPI lines driven by the host.
	Clock      bool
	ChipSelect bool
	DataIn     bool

	Bank Bank

	// RecoveryN reflects the recovery jumper. It is active low: false means
	// the recovery function is engaged.
	RecoveryN bool

	// SPI lines driven by the board.
	DataOut1 bool
	DataOut4 bool
}

// power-on state: Cromwell loader bank, recovery inactive, red LED.
func defaultRegisterFile() RegisterFile {
	return RegisterFile{
		LED:       LEDRed,
		Bank:      BankLoader,
		RecoveryN: true,
	}
}

func (rf *RegisterFile) setControl(c Control) {
	rf.Clock = c.Clock
	rf.ChipSelect = c.ChipSelect
	rf.DataIn = c.DataIn
	rf.Bank = c.Bank
}

func (rf *RegisterFile) Control() Control {
	return Control{
		Clock:      rf.Clock,
		ChipSelect: rf.ChipSelect,
		DataIn:     rf.DataIn,
		Bank:       rf.Bank,
	}
}

func (rf *RegisterFile) Status() Status {
	return Status{
		RecoveryN: rf.RecoveryN,
		DataOut1:  rf.DataOut1,
		DataOut4:  rf.DataOut4,
		Bank:      rf.Bank,
	}
}
