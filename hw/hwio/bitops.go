package hwio

func GetBit8(v uint8, n uint) bool {
	return GetBiti8(v, n) != 0
}

func GetBiti8(v uint8, n uint) uint8 {
	return v >> (n) & 0x01
}

func SetBit8(v *uint8, n uint) {
	*v |= (1 << n)
}

func ClearBit8(v *uint8, n uint) {
	*v &= ^(1 << n)
}

// PutBit8 sets or clears bit n of v depending on b.
func PutBit8(v *uint8, n uint, b bool) {
	if b {
		SetBit8(v, n)
	} else {
		ClearBit8(v, n)
	}
}

func B2U8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
