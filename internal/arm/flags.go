package arm

// setNZCV overwrites N, Z, C, V from an arithmetic result.
func (c *Core) setNZCV(result uint32, carry, overflow bool) {
	var flags uint32
	if result&0x80000000 != 0 {
		flags |= bitN
	}
	if result == 0 {
		flags |= bitZ
	}
	if carry {
		flags |= bitC
	}
	if overflow {
		flags |= bitV
	}
	c.cpsr = (c.cpsr &^ (bitN | bitZ | bitC | bitV)) | flags
}

// setNZC overwrites N, Z, C (logical operations leave V untouched).
func (c *Core) setNZC(result uint32, carry bool) {
	var flags uint32
	if result&0x80000000 != 0 {
		flags |= bitN
	}
	if result == 0 {
		flags |= bitZ
	}
	if carry {
		flags |= bitC
	}
	c.cpsr = (c.cpsr &^ (bitN | bitZ | bitC)) | flags
}

// setQ sets the sticky overflow flag. It is never cleared except by an
// explicit MSR write to CPSR, per the ARMv5 saturating-arithmetic model.
func (c *Core) setQ() {
	c.cpsr |= bitQ
}

// addOverflow reports whether a+b overflowed as a signed 32-bit addition.
func addOverflow(a, b, result uint32) bool {
	return (a^result)&(b^result)&0x80000000 != 0
}

// subOverflow reports whether a-b overflowed as a signed 32-bit subtraction.
func subOverflow(a, b, result uint32) bool {
	return (a^b)&(a^result)&0x80000000 != 0
}
