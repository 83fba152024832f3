// Package snapshot holds the persisted state of emulated devices.
package snapshot

// Version of the snapshot format. Bumped on incompatible changes.
const Version = 1

type Machine struct {
	Version int
	Xenium  *Xenium
}

type Xenium struct {
	LED         uint8
	BankControl uint8
	RecoveryN   bool

	// SPI lines
	Clock      bool
	ChipSelect bool
	DataIn     bool
	DataOut1   bool
	DataOut4   bool
}
