package xenium

import (
	"fmt"

	"xenium/hw/snapshot"
)

// State returns the persisted device state.
func (x *Xenium) State() *snapshot.Xenium {
	return &snapshot.Xenium{
		LED:         uint8(x.rf.LED),
		BankControl: uint8(x.rf.Bank),
		RecoveryN:   x.rf.RecoveryN,
		Clock:       x.rf.Clock,
		ChipSelect:  x.rf.ChipSelect,
		DataIn:      x.rf.DataIn,
		DataOut1:    x.rf.DataOut1,
		DataOut4:    x.rf.DataOut4,
	}
}

// SetState restores a state previously returned by State. The device is left
// untouched if the state is invalid.
func (x *Xenium) SetState(s *snapshot.Xenium) error {
	led, err := DecodeLED(s.LED)
	if err != nil {
		return fmt.Errorf("restore xenium state: %w", err)
	}
	bank, err := ParseBank(s.BankControl)
	if err != nil {
		return fmt.Errorf("restore xenium state: %w", err)
	}

	x.rf = RegisterFile{
		LED:        led,
		Clock:      s.Clock,
		ChipSelect: s.ChipSelect,
		DataIn:     s.DataIn,
		Bank:       bank,
		RecoveryN:  s.RecoveryN,
		DataOut1:   s.DataOut1,
		DataOut4:   s.DataOut4,
	}
	x.mirror()
	return nil
}
