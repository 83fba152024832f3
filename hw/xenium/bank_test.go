package xenium

import (
	"errors"
	"testing"
)

func TestMaskForBank(t *testing.T) {
	want := []string{"XXX", "110", "10X", "000", "001", "010", "011", "00X", "01X", "0XX", "111"}
	if len(want) != NumBanks {
		t.Fatalf("NumBanks = %d, want %d", NumBanks, len(want))
	}
	for code, pattern := range want {
		p, err := MaskForBank(uint8(code))
		if err != nil {
			t.Fatalf("MaskForBank(%d) error: %v", code, err)
		}
		if p.String() != pattern {
			t.Errorf("MaskForBank(%d) = %s, want %s", code, p, pattern)
		}
	}

	for code := uint8(NumBanks); code < 16; code++ {
		if _, err := MaskForBank(code); !errors.Is(err, ErrInvalidBank) {
			t.Errorf("MaskForBank(%d) error = %v, want ErrInvalidBank", code, err)
		}
	}
}

func TestPassThroughBank(t *testing.T) {
	p, _ := MaskForBank(0)
	for _, addr := range testAddrs {
		if got, _ := ApplyMask(addr, p); got != addr {
			t.Errorf("TSOP bank translated %06x to %06x", addr, got)
		}
	}
}

func TestBankWindows(t *testing.T) {
	tests := []struct {
		bank Bank
		name string
		base uint32
		size uint32
	}{
		{BankTSOP, "tsop", 0x000000, 2 << 20},
		{BankLoader, "loader", 0x180000, 256 << 10},
		{BankOS, "os", 0x100000, 512 << 10},
		{Bank256K1, "user1-256k", 0x000000, 256 << 10},
		{Bank256K2, "user2-256k", 0x040000, 256 << 10},
		{Bank256K3, "user3-256k", 0x080000, 256 << 10},
		{Bank256K4, "user4-256k", 0x0C0000, 256 << 10},
		{Bank512K1, "user1-512k", 0x000000, 512 << 10},
		{Bank512K2, "user2-512k", 0x080000, 512 << 10},
		{Bank1M, "user1-1m", 0x000000, 1 << 20},
		{BankRecovery, "recovery", 0x1C0000, 256 << 10},
	}

	for _, tt := range tests {
		if got := tt.bank.String(); got != tt.name {
			t.Errorf("Bank(%d).String() = %q, want %q", tt.bank, got, tt.name)
		}
		if got := tt.bank.Base(); got != tt.base {
			t.Errorf("%s.Base() = %06x, want %06x", tt.bank, got, tt.base)
		}
		if got := tt.bank.Size(); got != tt.size {
			t.Errorf("%s.Size() = %x, want %x", tt.bank, got, tt.size)
		}

		// The whole window is reachable from logical addresses [0, size).
		last, _ := ApplyMask(tt.size-1, tt.bank.Pattern())
		if last != tt.base+tt.size-1 {
			t.Errorf("%s: last address maps to %06x, want %06x", tt.bank, last, tt.base+tt.size-1)
		}
	}
}

func TestParseBank(t *testing.T) {
	if b, err := ParseBank(10); err != nil || b != BankRecovery {
		t.Errorf("ParseBank(10) = %v, %v", b, err)
	}
	if _, err := ParseBank(11); !errors.Is(err, ErrInvalidBank) {
		t.Errorf("ParseBank(11) error = %v, want ErrInvalidBank", err)
	}
	if Bank(12).Valid() || Bank(12).Description() != "undefined" {
		t.Errorf("Bank(12) reported as valid")
	}
	if Bank(12).String() != "Bank(12)" {
		t.Errorf("Bank(12).String() = %q", Bank(12).String())
	}
}

func TestBankTranslate(t *testing.T) {
	for _, b := range Banks() {
		// The bank covers [Base, Base+Size) from host address 0 upward.
		for _, addr := range []uint32{0, b.Size() - 1} {
			got, err := b.Translate(addr)
			if err != nil {
				t.Fatalf("%s: Translate(%06x) error: %v", b, addr, err)
			}
			if want := b.Base() + addr; got != want {
				t.Errorf("%s: Translate(%06x) = %06x, want %06x", b, addr, got, want)
			}
		}
	}

	if _, err := Bank(11).Translate(0); !errors.Is(err, ErrInvalidBank) {
		t.Errorf("Bank(11).Translate() error = %v, want ErrInvalidBank", err)
	}
}
