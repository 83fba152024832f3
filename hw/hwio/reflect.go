package hwio

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type regInfo struct {
	offset uint16
	regPtr any
}

var typeReg8 = reflect.TypeOf(Reg8{})

// parseTag splits a hwio struct tag into its options. Options without a
// value map to the empty string.
func parseTag(tag string) map[string]string {
	opts := make(map[string]string)
	for _, opt := range strings.Split(tag, ",") {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		k, v, _ := strings.Cut(opt, "=")
		opts[k] = v
	}
	return opts
}

func parseUint(opts map[string]string, key string, bits int) (uint64, bool, error) {
	s, ok := opts[key]
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, true, fmt.Errorf("invalid %s=%q: %w", key, s, err)
	}
	return v, true, nil
}

// callback finds the method to use as callback for the option key. If the
// option has no value, the method name is prefix followed by the upper-cased
// field name (e.g. ReadCTRL for field Ctrl and option rcb).
func callback(obj reflect.Value, opts map[string]string, key, prefix, field string) (reflect.Value, bool, error) {
	name, ok := opts[key]
	if !ok {
		return reflect.Value{}, false, nil
	}
	if name == "" {
		name = prefix + strings.ToUpper(field)
	}
	m := obj.MethodByName(name)
	if !m.IsValid() {
		return reflect.Value{}, true, fmt.Errorf("%s: method %s not found on %s", field, name, obj.Type())
	}
	return m, true, nil
}

func setCallback(dst any, m reflect.Value, field, name string) error {
	fn := reflect.ValueOf(dst).Elem()
	if !m.Type().AssignableTo(fn.Type()) {
		return fmt.Errorf("%s: method %s has type %s, want %s", field, name, m.Type(), fn.Type())
	}
	fn.Set(m)
	return nil
}

func initReg8(obj reflect.Value, field string, reg *Reg8, opts map[string]string) error {
	reg.Name = field

	v, ok, err := parseUint(opts, "reset", 8)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if ok {
		reg.Value = uint8(v)
	}
	v, ok, err = parseUint(opts, "rwmask", 8)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if ok {
		reg.RoMask = ^uint8(v)
	}
	if _, ok := opts["readonly"]; ok {
		reg.Flags |= ReadOnlyFlag
	}
	if _, ok := opts["writeonly"]; ok {
		reg.Flags |= WriteOnlyFlag
	}

	cbs := []struct {
		key, prefix string
		dst         any
	}{
		{"rcb", "Read", &reg.ReadCb},
		{"pcb", "Peek", &reg.PeekCb},
		{"wcb", "Write", &reg.WriteCb},
	}
	for _, cb := range cbs {
		m, ok, err := callback(obj, opts, cb.key, cb.prefix, field)
		if err != nil {
			return err
		}
		if ok {
			if err := setCallback(cb.dst, m, field, cb.key); err != nil {
				return err
			}
		}
	}
	return nil
}

func structOf(data any) (reflect.Value, reflect.Value, error) {
	obj := reflect.ValueOf(data)
	if obj.Kind() != reflect.Pointer || obj.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, reflect.Value{}, fmt.Errorf("hwio: expected pointer to struct, got %T", data)
	}
	return obj, obj.Elem(), nil
}

// InitRegs initializes all the Reg8 fields of the struct pointed
// to by data, according to their hwio struct tags: reset value, writable
// mask, access flags and callbacks (methods of data).
func InitRegs(data any) error {
	obj, val, err := structOf(data)
	if err != nil {
		return err
	}

	typ := val.Type()
	for i := range typ.NumField() {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		opts := parseTag(tag)

		switch f.Type {
		case typeReg8:
			err = initReg8(obj, f.Name, val.Field(i).Addr().Interface().(*Reg8), opts)
		default:
			err = fmt.Errorf("%s: unsupported hwio field type %s", f.Name, f.Type)
		}
		if err != nil {
			return fmt.Errorf("hwio: %w", err)
		}
	}
	return nil
}

func MustInitRegs(data any) {
	if err := InitRegs(data); err != nil {
		panic(err)
	}
}

func bankGetRegs(bank any, bankNum int) ([]regInfo, error) {
	_, val, err := structOf(bank)
	if err != nil {
		return nil, err
	}

	var regs []regInfo
	typ := val.Type()
	for i := range typ.NumField() {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		opts := parseTag(tag)

		off, ok, err := parseUint(opts, "offset", 16)
		if err != nil {
			return nil, fmt.Errorf("hwio: %s: %w", f.Name, err)
		}
		if !ok {
			continue
		}
		num, _, err := parseUint(opts, "bank", 8)
		if err != nil {
			return nil, fmt.Errorf("hwio: %s: %w", f.Name, err)
		}
		if int(num) != bankNum {
			continue
		}

		switch f.Type {
		case typeReg8:
			regs = append(regs, regInfo{offset: uint16(off), regPtr: val.Field(i).Addr().Interface()})
		default:
			return nil, fmt.Errorf("hwio: %s: unsupported hwio field type %s", f.Name, f.Type)
		}
	}
	return regs, nil
}
