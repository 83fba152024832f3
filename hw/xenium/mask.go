package xenium

import "fmt"

// Flash address lines rewritten by a Pattern: A20, A19 and A18.
const (
	maskTopBit = 20
	maskBits   = 3
)

// A Pattern tells, for flash address lines A20, A19 and A18 (in that order),
// whether the line is forced low ('0'), forced high ('1') or left as driven
// by the host ('X').
type Pattern [maskBits]byte

// ParsePattern parses a 3-character pattern such as "10X".
func ParsePattern(s string) (Pattern, error) {
	var p Pattern
	if len(s) != maskBits {
		return p, fmt.Errorf("%w: %q has %d symbols, want %d", ErrInvalidPattern, s, len(s), maskBits)
	}
	copy(p[:], s)
	if err := p.validate(); err != nil {
		return Pattern{}, err
	}
	return p, nil
}

func mustPattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pattern) validate() error {
	for i, c := range p {
		switch c {
		case '0', '1', 'X':
		default:
			return fmt.Errorf("%w: symbol %q at A%d", ErrInvalidPattern, c, maskTopBit-i)
		}
	}
	return nil
}

func (p Pattern) String() string { return string(p[:]) }

// Forced returns the number of address lines the pattern drives.
func (p Pattern) Forced() int {
	n := 0
	for _, c := range p {
		if c != 'X' {
			n++
		}
	}
	return n
}

// ApplyMask rewrites address lines A20-A18 of addr according to p. Other bits
// are returned unchanged.
func ApplyMask(addr uint32, p Pattern) (uint32, error) {
	for i, c := range p {
		bit := uint32(1) << (maskTopBit - i)
		switch c {
		case '0':
			addr &^= bit
		case '1':
			addr |= bit
		case 'X':
		default:
			return 0, fmt.Errorf("%w: symbol %q at A%d", ErrInvalidPattern, c, maskTopBit-i)
		}
	}
	return addr, nil
}
