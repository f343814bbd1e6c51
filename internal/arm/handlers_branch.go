package arm

func branchOffset(opcode uint32) int32 {
	return int32(opcode<<8) >> 6 // sign-extend 24-bit word offset, scale by 4
}

func execBranch(c *Core, opcode uint32) {
	simm := branchOffset(opcode)
	if opcode>>28 == 0xF { // BLX (immediate), distinguished by the NV condition
		if !c.model.supportsV5() {
			panic("arm: BLX (immediate) is undefined on this model")
		}
		h := (opcode >> 24) & 1
		target := uint32(int32(c.reg[15])+simm) + h*2
		c.WriteReg(14, c.reg[15]-4)
		c.cpsr |= bitT
		c.WriteReg(15, target)
		return
	}
	if opcode&(1<<24) != 0 { // BL
		c.WriteReg(14, c.reg[15]-4)
	}
	c.WriteReg(15, uint32(int32(c.reg[15])+simm))
}

func execBranchExchange(c *Core, opcode uint32) {
	target := c.ReadReg(int(opcode & 0xF))
	branchExchangeTo(c, target)
}

func execBranchExchangeLink(c *Core, opcode uint32) {
	if !c.model.supportsV5() {
		panic("arm: BLX (register) is undefined on this model")
	}
	target := c.ReadReg(int(opcode & 0xF))
	c.WriteReg(14, c.reg[15]-4)
	branchExchangeTo(c, target)
}

func branchExchangeTo(c *Core, target uint32) {
	if target&1 != 0 {
		c.cpsr |= bitT
		c.WriteReg(15, target&^1)
	} else {
		c.cpsr &^= bitT
		c.WriteReg(15, target&^3)
	}
}
