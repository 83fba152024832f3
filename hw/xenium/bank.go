package xenium

import "fmt"

//go:generate go tool stringer -type=Bank -linecomment

// Bank is a bank-control code, selecting the flash window seen by the host.
type Bank uint8

const (
	BankTSOP     Bank = iota // tsop
	BankLoader               // loader
	BankOS                   // os
	Bank256K1                // user1-256k
	Bank256K2                // user2-256k
	Bank256K3                // user3-256k
	Bank256K4                // user4-256k
	Bank512K1                // user1-512k
	Bank512K2                // user2-512k
	Bank1M                   // user1-1m
	BankRecovery             // recovery
)

// NumBanks is the number of defined bank-control codes. Codes from NumBanks
// to 15 are undefined.
const NumBanks = int(BankRecovery) + 1

// Smallest flash window, selected by a pattern forcing all three lines.
const minBankSize = 256 << 10

var bankTable = [NumBanks]struct {
	pattern Pattern
	desc    string
}{
	BankTSOP:     {mustPattern("XXX"), "onboard TSOP flash (no remapping)"},
	BankLoader:   {mustPattern("110"), "XeniumOS Cromwell loader"},
	BankOS:       {mustPattern("10X"), "XeniumOS"},
	Bank256K1:    {mustPattern("000"), "user BIOS bank 1 (256 KiB)"},
	Bank256K2:    {mustPattern("001"), "user BIOS bank 2 (256 KiB)"},
	Bank256K3:    {mustPattern("010"), "user BIOS bank 3 (256 KiB)"},
	Bank256K4:    {mustPattern("011"), "user BIOS bank 4 (256 KiB)"},
	Bank512K1:    {mustPattern("00X"), "user BIOS bank 1 (512 KiB)"},
	Bank512K2:    {mustPattern("01X"), "user BIOS bank 2 (512 KiB)"},
	Bank1M:       {mustPattern("0XX"), "user BIOS bank 1 (1 MiB)"},
	BankRecovery: {mustPattern("111"), "recovery"},
}

// ParseBank validates a 4-bit bank-control code.
func ParseBank(code uint8) (Bank, error) {
	if int(code) >= NumBanks {
		return 0, fmt.Errorf("%w: code %d", ErrInvalidBank, code)
	}
	return Bank(code), nil
}

// MaskForBank returns the address pattern of the bank selected by code.
func MaskForBank(code uint8) (Pattern, error) {
	b, err := ParseBank(code)
	if err != nil {
		return Pattern{}, err
	}
	return bankTable[b].pattern, nil
}

// Valid reports whether b is one of the defined banks.
func (b Bank) Valid() bool { return int(b) < NumBanks }

// Pattern returns the bank pattern. It panics if b is not a valid bank.
func (b Bank) Pattern() Pattern {
	return bankTable[b].pattern
}

// Description returns a human readable description of the bank contents.
func (b Bank) Description() string {
	if !b.Valid() {
		return "undefined"
	}
	return bankTable[b].desc
}

// Size returns the size, in bytes, of the flash window selected by the bank.
func (b Bank) Size() uint32 {
	free := maskBits - b.Pattern().Forced()
	return minBankSize << free
}

// Base returns the lowest physical flash address of the bank window.
func (b Bank) Base() uint32 {
	base, _ := ApplyMask(0, b.Pattern())
	return base
}

// Translate returns the physical flash address of host address addr while
// b is selected. Host addresses [0, b.Size()) cover the whole bank.
func (b Bank) Translate(addr uint32) (uint32, error) {
	if !b.Valid() {
		return 0, fmt.Errorf("%w: code %d", ErrInvalidBank, uint8(b))
	}
	return ApplyMask(addr, b.Pattern())
}

// Banks returns all defined banks, ordered by code.
func Banks() []Bank {
	banks := make([]Bank, NumBanks)
	for i := range banks {
		banks[i] = Bank(i)
	}
	return banks
}
