package arm

import "math/bits"

func execCountLeadingZeros(c *Core, opcode uint32) {
	if !c.model.supportsV5() {
		panic("arm: CLZ is undefined on this model")
	}
	rd := int((opcode >> 12) & 0xF)
	rm := int(opcode & 0xF)
	c.WriteReg(rd, uint32(bits.LeadingZeros32(c.ReadReg(rm))))
}

func execSaturatingArith(c *Core, opcode uint32) {
	if !c.model.supportsV5() {
		panic("arm: saturating arithmetic is undefined on this model")
	}
	op := (opcode >> 21) & 0x3
	rn := int((opcode >> 16) & 0xF)
	rd := int((opcode >> 12) & 0xF)
	rm := int(opcode & 0xF)

	a := int32(c.ReadReg(rm))
	b := int32(c.ReadReg(rn))

	switch op {
	case 0x0: // QADD
		c.WriteReg(rd, uint32(saturatingAdd(c, a, b)))
	case 0x1: // QSUB
		c.WriteReg(rd, uint32(saturatingSub(c, a, b)))
	case 0x2: // QDADD
		c.WriteReg(rd, uint32(saturatingAdd(c, a, saturatingDouble(c, b))))
	case 0x3: // QDSUB
		c.WriteReg(rd, uint32(saturatingSub(c, a, saturatingDouble(c, b))))
	}
}

func saturatingDouble(c *Core, v int32) int32 {
	result := int64(v) * 2
	if result > 0x7FFFFFFF {
		c.setQ()
		return 0x7FFFFFFF
	}
	if result < -0x80000000 {
		c.setQ()
		return -0x80000000
	}
	return int32(result)
}

func saturatingAdd(c *Core, a, b int32) int32 {
	result := int64(a) + int64(b)
	if result > 0x7FFFFFFF {
		c.setQ()
		return 0x7FFFFFFF
	}
	if result < -0x80000000 {
		c.setQ()
		return -0x80000000
	}
	return int32(result)
}

func saturatingSub(c *Core, a, b int32) int32 {
	result := int64(a) - int64(b)
	if result > 0x7FFFFFFF {
		c.setQ()
		return 0x7FFFFFFF
	}
	if result < -0x80000000 {
		c.setQ()
		return -0x80000000
	}
	return int32(result)
}

func execCoprocessorRegisterTransfer(c *Core, opcode uint32) {
	cpNum := (opcode >> 8) & 0xF
	cp := c.coprocessors[cpNum]
	if cp == nil {
		panic("arm: MCR/MRC to unknown coprocessor number")
	}
	opcode1 := (opcode >> 21) & 0x7
	crn := (opcode >> 16) & 0xF
	rd := int((opcode >> 12) & 0xF)
	opcode2 := (opcode >> 5) & 0x7
	crm := opcode & 0xF
	load := opcode&(1<<20) != 0

	if load {
		val := cp.MRC(opcode1, crn, crm, opcode2)
		if rd == 15 {
			c.cpsr = (c.cpsr &^ 0xF0000000) | (val & 0xF0000000)
			return
		}
		c.WriteReg(rd, val)
		return
	}
	cp.MCR(opcode1, crn, crm, opcode2, c.ReadReg(rd))
}

func execSoftwareInterrupt(c *Core, opcode uint32) {
	_ = opcode
	c.enterSWI()
}
