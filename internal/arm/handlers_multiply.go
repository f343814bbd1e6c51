package arm

func execMultiply(c *Core, opcode uint32) {
	rd := int((opcode >> 16) & 0xF)
	rn := int((opcode >> 12) & 0xF)
	rs := int((opcode >> 8) & 0xF)
	rm := int(opcode & 0xF)
	s := opcode&(1<<20) != 0
	accumulate := opcode&(1<<21) != 0

	result := c.ReadReg(rm) * c.ReadReg(rs)
	if accumulate {
		result += c.ReadReg(rn)
	}
	c.WriteReg(rd, result)
	if s {
		c.setNZC(result, c.cpsr&bitC != 0)
	}
}

func execMultiplyLong(c *Core, opcode uint32) {
	rdHi := int((opcode >> 16) & 0xF)
	rdLo := int((opcode >> 12) & 0xF)
	rs := int((opcode >> 8) & 0xF)
	rm := int(opcode & 0xF)
	s := opcode&(1<<20) != 0
	accumulate := opcode&(1<<21) != 0
	signed := opcode&(1<<22) != 0

	var result uint64
	if signed {
		result = uint64(int64(int32(c.ReadReg(rm))) * int64(int32(c.ReadReg(rs))))
	} else {
		result = uint64(c.ReadReg(rm)) * uint64(c.ReadReg(rs))
	}
	if accumulate {
		result += uint64(c.ReadReg(rdHi))<<32 | uint64(c.ReadReg(rdLo))
	}
	c.WriteReg(rdLo, uint32(result))
	c.WriteReg(rdHi, uint32(result>>32))
	if s {
		var flags uint32
		if result&(1<<63) != 0 {
			flags |= bitN
		}
		if result == 0 {
			flags |= bitZ
		}
		c.cpsr = (c.cpsr &^ (bitN | bitZ)) | flags
	}
}
