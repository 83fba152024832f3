package emu

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"xenium/hw/xenium"
)

func TestRunScript(t *testing.T) {
	cfg := DefaultConfig
	cfg.Flash.Image = testImage(t)
	m := newTestMachine(t, cfg)

	state := filepath.Join(t.TempDir(), "state.json")
	script := `
# probe for a genuine device
in 0xEE
expect 0xEF 0x81

out 0xEE 0b110   # green|blue
out 0xEF 0x02    # XeniumOS
flash 0x40000 4
save ` + state + `
recovery on
dataout 1 0
expect 0xEF 0x22
state
reset
expect 0xEF 0x21
load ` + state + `
in 0xEF
`
	var out bytes.Buffer
	if err := RunScript(m, strings.NewReader(script), &out); err != nil {
		t.Fatal(err)
	}

	want := strings.Join([]string{
		"in 00ee = 55",
		"flash 040000 -> 140000 [os]: 05 05 05 05",
		"led=green|blue bank=os (10X) recovery=true sck=false cs=false mosi=false miso1=true miso4=false",
		"in 00ef = 82",
		"",
	}, "\n")
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("script output mismatch (-want +got):\n%s", diff)
	}
}

func TestRunScriptErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
		errstr string
	}{
		{"unknown", "nop\n", "line 1: nop: unknown command"},
		{"nargs", "\nout 0xEF\n", "line 2: out: wrong number of arguments"},
		{"number", "out 0xEF 0x100\n", "invalid 8-bit number"},
		{"switch", "recovery maybe\n", "invalid switch value"},
		{"expect", "expect 0xEE 0x56\n", "port 00ee = 55, want 56"},
		{"fault", "out 0xEF 0x80\n", "reserved bits set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, DefaultConfig)
			err := RunScript(m, strings.NewReader(tt.script), &bytes.Buffer{})
			if err == nil {
				t.Fatal("RunScript should fail")
			}
			if !strings.Contains(err.Error(), tt.errstr) {
				t.Errorf("RunScript error = %q, want it to contain %q", err, tt.errstr)
			}
		})
	}
}

func TestRunScriptFaultIsWrapped(t *testing.T) {
	m := newTestMachine(t, DefaultConfig)
	err := RunScript(m, strings.NewReader("out 0xEF 0x0F\n"), &bytes.Buffer{})
	if !errors.Is(err, xenium.ErrInvalidBank) {
		t.Errorf("RunScript error = %v, want ErrInvalidBank", err)
	}
}

func TestRunScriptHalted(t *testing.T) {
	m := newTestMachine(t, DefaultConfig)
	if err := RunScript(m, strings.NewReader("out 0xEF 0x0C\n"), &bytes.Buffer{}); err == nil {
		t.Fatal("RunScript should fail on an invalid bank")
	}

	for _, script := range []string{"flash 0 4\n", "program 0 0x00 0x00\n", "erase 0 0x1000\n", "in 0xEE\n"} {
		var out bytes.Buffer
		err := RunScript(m, strings.NewReader(script), &out)
		if !errors.Is(err, ErrHalted) {
			t.Errorf("%q: RunScript error = %v, want ErrHalted", script, err)
		}
		if out.Len() != 0 {
			t.Errorf("%q: halted machine produced output %q", script, out.String())
		}
	}

	script := "reset\nflash 0 2\n"
	var out bytes.Buffer
	if err := RunScript(m, strings.NewReader(script), &out); err != nil {
		t.Fatal(err)
	}
	if want := "flash 000000 -> 180000 [loader]: ff ff\n"; out.String() != want {
		t.Errorf("output after reset = %q, want %q", out.String(), want)
	}
}

func TestRunScriptProgram(t *testing.T) {
	m := newTestMachine(t, DefaultConfig)

	script := `
out 0xEF 0x03          # 256KiB user bank 1
program 0x10 0xA5 0x5A
flash 0x10 2
program 0x10 0x0F      # only clears bits
flash 0x10 1
erase 0 0x40000
flash 0x10 2
out 0xEF 0x01
program 0x20
`
	var out bytes.Buffer
	err := RunScript(m, strings.NewReader(script), &out)
	if err == nil || !strings.Contains(err.Error(), "line 10: program: wrong number of arguments: 1") {
		t.Errorf("RunScript error = %v", err)
	}

	want := strings.Join([]string{
		"flash 000010 -> 000010 [user1-256k]: a5 5a",
		"flash 000010 -> 000010 [user1-256k]: 05",
		"flash 000010 -> 000010 [user1-256k]: ff ff",
		"",
	}, "\n")
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("script output mismatch (-want +got):\n%s", diff)
	}
}
