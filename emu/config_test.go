package emu

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "config.toml", `
[xenium]
base_port = 0x1EE
recovery = true

[flash]
image = "/tmp/xenium.bin"
`)

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	want := Config{
		Xenium: XeniumConfig{BasePort: 0x1EE, Recovery: true},
		Flash:  FlashConfig{Image: "/tmp/xenium.bin"},
		Emu:    EmuConfig{OnFault: FaultHalt},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadConfig mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errstr  string
	}{
		{"unknown", "[xenium]\nbank = 3\n", "unknown setting"},
		{"policy", "[emu]\non_fault = \"ignore\"\n", "on_fault"},
		{"port range", "[xenium]\nbase_port = 0xFFFF\n", "base_port"},
		{"port overflow", "[xenium]\nbase_port = 0x10000\n", "config"},
		{"syntax", "[xenium\n", "config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "config.toml", tt.content)
			_, err := LoadConfig(path)
			if err == nil {
				t.Fatalf("LoadConfig should fail")
			}
			if !strings.Contains(err.Error(), tt.errstr) {
				t.Errorf("LoadConfig error = %q, want it to mention %q", err, tt.errstr)
			}
		})
	}
}

func TestWriteConfig(t *testing.T) {
	want := DefaultConfig
	want.Flash.Image = "bios.bin"
	want.Flash.Writable = true
	want.Emu.OnFault = FaultLog

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteConfig(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeConfig(t *testing.T) {
	want := DefaultConfig
	want.Xenium.Recovery = true

	var buf strings.Builder
	if err := EncodeConfig(&buf, want); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"[xenium]", "base_port", "recovery = true", "[flash]", "[emu]", "on_fault"} {
		if !strings.Contains(buf.String(), key) {
			t.Errorf("encoded config does not contain %q:\n%s", key, buf.String())
		}
	}

	path := writeFile(t, "config.toml", buf.String())
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigOrDefaultPath(t *testing.T) {
	path := writeFile(t, "xenium.toml", "[emu]\non_fault = \"log\"\n")
	cfg, err := LoadConfigOrDefault(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Emu.OnFault != FaultLog || cfg.Xenium.BasePort != 0xEE {
		t.Errorf("LoadConfigOrDefault() = %+v", cfg)
	}

	if _, err := LoadConfigOrDefault(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Errorf("LoadConfigOrDefault() with an explicit missing file should fail")
	}
}
