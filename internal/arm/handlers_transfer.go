package arm

import "github.com/dual-emu/dsgo/internal/membus"

func singleTransferOffset(c *Core, opcode uint32) uint32 {
	if opcode&(1<<25) == 0 {
		return opcode & 0xFFF
	}
	rm := int(opcode & 0xF)
	shiftType := ShiftType((opcode >> 5) & 0x3)
	amount := uint((opcode >> 7) & 0x1F)
	v, _ := shift(c.ReadReg(rm), shiftType, amount, c.cpsr&bitC != 0, false)
	return v
}

func execSingleDataTransferImm(c *Core, opcode uint32) { execSingleDataTransfer(c, opcode) }
func execSingleDataTransferReg(c *Core, opcode uint32) { execSingleDataTransfer(c, opcode) }

func execSingleDataTransfer(c *Core, opcode uint32) {
	pre := opcode&(1<<24) != 0
	up := opcode&(1<<23) != 0
	byteAccess := opcode&(1<<22) != 0
	writeback := opcode&(1<<21) != 0
	load := opcode&(1<<20) != 0
	rn := int((opcode >> 16) & 0xF)
	rd := int((opcode >> 12) & 0xF)

	offset := singleTransferOffset(c, opcode)
	base := c.ReadReg(rn)
	addr := base
	if pre {
		if up {
			addr += offset
		} else {
			addr -= offset
		}
	}

	if load {
		var val uint32
		if byteAccess {
			val = uint32(c.bus.ReadByte(addr))
		} else {
			word := c.bus.ReadWord(addr &^ 3)
			val = membus.RotateWord(word, addr)
		}
		if rd == 15 {
			if c.model.supportsV5() && val&1 != 0 {
				c.cpsr |= bitT
				c.WriteReg(15, val&^1)
			} else {
				c.cpsr &^= bitT
				c.WriteReg(15, val&^3)
			}
		} else {
			c.WriteReg(rd, val)
		}
	} else {
		val := c.ReadReg(rd)
		if rd == 15 {
			val += 4 // STR PC stores PC+12 overall; pipeline already adds +8
		}
		if byteAccess {
			c.bus.WriteByte(addr, byte(val))
		} else {
			c.bus.WriteWord(addr&^3, val)
		}
	}

	if !pre {
		if up {
			addr = base + offset
		} else {
			addr = base - offset
		}
		c.WriteReg(rn, addr)
	} else if writeback {
		c.WriteReg(rn, addr)
	}
}

func halfwordOffset(c *Core, opcode uint32) uint32 {
	if opcode&(1<<22) != 0 {
		return ((opcode >> 4) & 0xF0) | (opcode & 0xF)
	}
	rm := int(opcode & 0xF)
	return c.ReadReg(rm)
}

func execHalfwordTransferImm(c *Core, opcode uint32) { execHalfwordOrSignedTransfer(c, opcode) }
func execHalfwordTransferReg(c *Core, opcode uint32) { execHalfwordOrSignedTransfer(c, opcode) }
func execSignedHalfwordTransferImm(c *Core, opcode uint32) {
	execHalfwordOrSignedTransfer(c, opcode)
}
func execSignedHalfwordTransferReg(c *Core, opcode uint32) {
	execHalfwordOrSignedTransfer(c, opcode)
}

func execHalfwordOrSignedTransfer(c *Core, opcode uint32) {
	pre := opcode&(1<<24) != 0
	up := opcode&(1<<23) != 0
	writeback := opcode&(1<<21) != 0
	load := opcode&(1<<20) != 0
	rn := int((opcode >> 16) & 0xF)
	rd := int((opcode >> 12) & 0xF)
	sh := (opcode >> 5) & 0x3 // 01=halfword, 10=signed byte, 11=signed halfword

	offset := halfwordOffset(c, opcode)
	base := c.ReadReg(rn)
	addr := base
	if pre {
		if up {
			addr += offset
		} else {
			addr -= offset
		}
	}

	if load {
		var val uint32
		switch sh {
		case 0x1:
			half := c.bus.ReadHalf(addr)
			if c.model == ModelARM7 {
				half = membus.RotateHalfARM7(half, addr)
			}
			val = uint32(half)
		case 0x2:
			val = uint32(int32(int8(c.bus.ReadByte(addr))))
		case 0x3:
			if addr&1 != 0 && !c.model.supportsV5() {
				val = uint32(int32(int8(c.bus.ReadByte(addr))))
			} else {
				val = uint32(int32(int16(c.bus.ReadHalf(addr))))
			}
		}
		c.WriteReg(rd, val)
	} else if sh == 0x1 {
		c.bus.WriteHalf(addr&^1, uint16(c.ReadReg(rd)))
	} else if c.model.supportsV5() {
		// LDRD/STRD occupy the same sh=10/11 space when L=0, ARM9/ARM11
		// only; the even register of the pair supplies the low word.
		execDoublewordTransfer(c, opcode, addr, rd, sh)
	}

	if !pre {
		if up {
			addr = base + offset
		} else {
			addr = base - offset
		}
		c.WriteReg(rn, addr)
	} else if writeback {
		c.WriteReg(rn, addr)
	}
}

func execDoublewordTransfer(c *Core, opcode uint32, addr uint32, rd int, sh uint32) {
	rd &^= 1
	if sh == 0x2 { // LDRD
		c.WriteReg(rd, c.bus.ReadWord(addr&^3))
		c.WriteReg(rd+1, c.bus.ReadWord((addr+4)&^3))
	} else { // STRD
		c.bus.WriteWord(addr&^3, c.ReadReg(rd))
		c.bus.WriteWord((addr+4)&^3, c.ReadReg(rd+1))
	}
}
