package snapshot

import (
	"fmt"

	"github.com/go-faster/jx"
)

// MarshalJSON encodes the machine snapshot.
func (m *Machine) MarshalJSON() ([]byte, error) {
	var e jx.Encoder
	m.Encode(&e)
	return e.Bytes(), nil
}

func (m *Machine) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("version", func(e *jx.Encoder) { e.Int(m.Version) })
		if m.Xenium != nil {
			e.Field("xenium", m.Xenium.Encode)
		}
	})
}

func (x *Xenium) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("led", func(e *jx.Encoder) { e.UInt8(x.LED) })
		e.Field("bank_control", func(e *jx.Encoder) { e.UInt8(x.BankControl) })
		e.Field("recovery_n", func(e *jx.Encoder) { e.Bool(x.RecoveryN) })
		e.Field("clock", func(e *jx.Encoder) { e.Bool(x.Clock) })
		e.Field("chip_select", func(e *jx.Encoder) { e.Bool(x.ChipSelect) })
		e.Field("data_in", func(e *jx.Encoder) { e.Bool(x.DataIn) })
		e.Field("data_out_1", func(e *jx.Encoder) { e.Bool(x.DataOut1) })
		e.Field("data_out_4", func(e *jx.Encoder) { e.Bool(x.DataOut4) })
	})
}

// UnmarshalJSON decodes a machine snapshot. Unknown fields are ignored.
func (m *Machine) UnmarshalJSON(data []byte) error {
	return m.Decode(jx.DecodeBytes(data))
}

func (m *Machine) Decode(d *jx.Decoder) error {
	*m = Machine{}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "version":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.Version = v
		case "xenium":
			m.Xenium = new(Xenium)
			return m.Xenium.Decode(d)
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if m.Version != Version {
		return fmt.Errorf("unsupported snapshot version %d (want %d)", m.Version, Version)
	}
	return nil
}

func (x *Xenium) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "led":
			x.LED, err = d.UInt8()
		case "bank_control":
			x.BankControl, err = d.UInt8()
		case "recovery_n":
			x.RecoveryN, err = d.Bool()
		case "clock":
			x.Clock, err = d.Bool()
		case "chip_select":
			x.ChipSelect, err = d.Bool()
		case "data_in":
			x.DataIn, err = d.Bool()
		case "data_out_1":
			x.DataOut1, err = d.Bool()
		case "data_out_4":
			x.DataOut4, err = d.Bool()
		default:
			err = d.Skip()
		}
		if err != nil {
			return fmt.Errorf("xenium.%s: %w", key, err)
		}
		return nil
	})
}
