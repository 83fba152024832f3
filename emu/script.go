package emu

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// RunScript executes a port I/O transcript on m, one command per line:
//
//	out PORT VAL         write VAL to I/O port PORT
//	in PORT              read I/O port PORT
//	expect PORT VAL      read I/O port PORT, fail unless it reads VAL
//	flash ADDR [LEN]     dump LEN (default 1) flash bytes seen by the host at ADDR
//	program ADDR VAL...  program bytes from host address ADDR (bits only clear)
//	erase BASE SIZE      erase the physical flash range [BASE, BASE+SIZE)
//	recovery on|off      set the recovery jumper
//	dataout PIN1 PIN4    drive the SPI data-out lines (0 or 1)
//	state                print the device registers
//	reset                reset the machine
//	save FILE            save the machine state
//	load FILE            restore the machine state
//
// Numbers accept Go syntax (0xEF, 0b101, 239). Everything following a '#' is
// a comment. Results are written to w.
func RunScript(m *Machine, r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	for lineno := 1; sc.Scan(); lineno++ {
		line, _, _ := strings.Cut(sc.Text(), "#")
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if err := runCommand(m, args, w); err != nil {
			return fmt.Errorf("line %d: %s: %w", lineno, args[0], err)
		}
	}
	return sc.Err()
}

type command struct {
	nargs []int // accepted numbers of arguments, nil for at least two
	run   func(m *Machine, args []string, w io.Writer) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"out":      {[]int{2}, cmdOut},
		"in":       {[]int{1}, cmdIn},
		"expect":   {[]int{2}, cmdExpect},
		"flash":    {[]int{1, 2}, cmdFlash},
		"program":  {nil, cmdProgram},
		"erase":    {[]int{2}, cmdErase},
		"recovery": {[]int{1}, cmdRecovery},
		"dataout":  {[]int{2}, cmdDataOut},
		"state":    {[]int{0}, cmdState},
		"reset":    {[]int{0}, cmdReset},
		"save":     {[]int{1}, cmdSave},
		"load":     {[]int{1}, cmdLoad},
	}
}

func runCommand(m *Machine, args []string, w io.Writer) error {
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command")
	}
	nargs := len(args) - 1
	if cmd.nargs == nil && nargs >= 2 {
		return cmd.run(m, args[1:], w)
	}
	for _, n := range cmd.nargs {
		if n == nargs {
			return cmd.run(m, args[1:], w)
		}
	}
	return fmt.Errorf("wrong number of arguments: %d", nargs)
}

func parseNum(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid %d-bit number %q", bits, s)
	}
	return v, nil
}

func parsePortVal(args []string) (uint16, uint8, error) {
	port, err := parseNum(args[0], 16)
	if err != nil {
		return 0, 0, err
	}
	val, err := parseNum(args[1], 8)
	if err != nil {
		return 0, 0, err
	}
	return uint16(port), uint8(val), nil
}

func parseBool(s string) (bool, error) {
	switch s {
	case "on", "1":
		return true, nil
	case "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid switch value %q", s)
}

func cmdOut(m *Machine, args []string, w io.Writer) error {
	port, val, err := parsePortVal(args)
	if err != nil {
		return err
	}
	return m.Out8(port, val)
}

func cmdIn(m *Machine, args []string, w io.Writer) error {
	port, err := parseNum(args[0], 16)
	if err != nil {
		return err
	}
	val, err := m.In8(uint16(port))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "in %04x = %02x\n", port, val)
	return err
}

func cmdExpect(m *Machine, args []string, w io.Writer) error {
	port, want, err := parsePortVal(args)
	if err != nil {
		return err
	}
	got, err := m.In8(port)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("port %04x = %02x, want %02x", port, got, want)
	}
	return nil
}

func cmdFlash(m *Machine, args []string, w io.Writer) error {
	addr, err := parseNum(args[0], 32)
	if err != nil {
		return err
	}
	n := uint64(1)
	if len(args) > 1 {
		if n, err = parseNum(args[1], 16); err != nil {
			return err
		}
	}
	buf, err := m.ReadFlashN(uint32(addr), int(n))
	if err != nil {
		return err
	}
	phys, err := m.Xenium.Translate(uint32(addr))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "flash %06x -> %06x [%s]: % x\n",
		addr, phys, m.Xenium.Registers().Bank, buf)
	return err
}

func cmdProgram(m *Machine, args []string, w io.Writer) error {
	addr, err := parseNum(args[0], 32)
	if err != nil {
		return err
	}
	for i, arg := range args[1:] {
		val, err := parseNum(arg, 8)
		if err != nil {
			return err
		}
		if err := m.ProgramFlash(uint32(addr)+uint32(i), uint8(val)); err != nil {
			return err
		}
	}
	return nil
}

func cmdErase(m *Machine, args []string, w io.Writer) error {
	base, err := parseNum(args[0], 32)
	if err != nil {
		return err
	}
	size, err := parseNum(args[1], 32)
	if err != nil {
		return err
	}
	return m.EraseFlash(uint32(base), uint32(size))
}

func cmdRecovery(m *Machine, args []string, w io.Writer) error {
	on, err := parseBool(args[0])
	if err != nil {
		return err
	}
	m.Xenium.SetRecovery(on)
	return nil
}

func cmdDataOut(m *Machine, args []string, w io.Writer) error {
	pin1, err := parseBool(args[0])
	if err != nil {
		return err
	}
	pin4, err := parseBool(args[1])
	if err != nil {
		return err
	}
	m.Xenium.SetDataOut(pin1, pin4)
	return nil
}

func cmdState(m *Machine, args []string, w io.Writer) error {
	rf := m.Xenium.Registers()
	_, err := fmt.Fprintf(w, "led=%s bank=%s (%s) recovery=%t sck=%t cs=%t mosi=%t miso1=%t miso4=%t\n",
		rf.LED, rf.Bank, rf.Bank.Pattern(), !rf.RecoveryN,
		rf.Clock, rf.ChipSelect, rf.DataIn, rf.DataOut1, rf.DataOut4)
	return err
}

func cmdReset(m *Machine, args []string, w io.Writer) error {
	m.Reset()
	return nil
}

func cmdSave(m *Machine, args []string, w io.Writer) error {
	return m.SaveState(args[0])
}

func cmdLoad(m *Machine, args []string, w io.Writer) error {
	return m.LoadState(args[0])
}
