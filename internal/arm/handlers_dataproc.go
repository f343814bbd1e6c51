package arm

// operand2 decodes the data-processing operand 2 field (bits 11-0),
// returning its value, the carry the shifter produced (used when the
// instruction updates flags), and whether the shift amount came from a
// register (which changes how a PC operand is read).
func operand2(c *Core, opcode uint32) (value uint32, shiftCarry bool, amountFromRegister bool) {
	oldCarry := c.cpsr&bitC != 0
	if opcode&(1<<25) != 0 {
		imm := opcode & 0xFF
		rotate := (opcode >> 8) & 0xF * 2
		if rotate == 0 {
			return imm, oldCarry, false
		}
		v, c2 := rotateRight(imm, uint(rotate))
		return v, c2, false
	}

	rm := int(opcode & 0xF)
	shiftType := ShiftType((opcode >> 5) & 0x3)
	if opcode&(1<<4) != 0 {
		rs := int((opcode >> 8) & 0xF)
		amount := uint(c.ReadReg(rs) & 0xFF)
		val := c.ReadRegShiftOperand(rm, true)
		v, c2 := shift(val, shiftType, amount, oldCarry, true)
		return v, c2, true
	}
	amount := uint((opcode >> 7) & 0x1F)
	val := c.ReadReg(rm)
	v, c2 := shift(val, shiftType, amount, oldCarry, false)
	return v, c2, false
}

func execDataProcessingImmShift(c *Core, opcode uint32) { execDataProcessing(c, opcode) }
func execDataProcessingRegShift(c *Core, opcode uint32) { execDataProcessing(c, opcode) }

func execDataProcessing(c *Core, opcode uint32) {
	op := (opcode >> 21) & 0xF
	s := opcode&(1<<20) != 0
	rn := int((opcode >> 16) & 0xF)
	rd := int((opcode >> 12) & 0xF)

	op2, shiftCarry, amountFromRegister := operand2(c, opcode)
	n := c.ReadRegShiftOperand(rn, amountFromRegister)

	var result uint32
	writesResult := true

	switch op {
	case 0x0: // AND
		result = n & op2
	case 0x1: // EOR
		result = n ^ op2
	case 0x2: // SUB
		result = n - op2
	case 0x3: // RSB
		result = op2 - n
	case 0x4: // ADD
		result = n + op2
	case 0x5: // ADC
		carry := uint32(0)
		if c.cpsr&bitC != 0 {
			carry = 1
		}
		result = n + op2 + carry
	case 0x6: // SBC
		borrow := uint32(1)
		if c.cpsr&bitC != 0 {
			borrow = 0
		}
		result = n - op2 - borrow
	case 0x7: // RSC
		borrow := uint32(1)
		if c.cpsr&bitC != 0 {
			borrow = 0
		}
		result = op2 - n - borrow
	case 0x8: // TST
		result = n & op2
		writesResult = false
	case 0x9: // TEQ
		result = n ^ op2
		writesResult = false
	case 0xA: // CMP
		result = n - op2
		writesResult = false
	case 0xB: // CMN
		result = n + op2
		writesResult = false
	case 0xC: // ORR
		result = n | op2
	case 0xD: // MOV
		result = op2
	case 0xE: // BIC
		result = n &^ op2
	case 0xF: // MVN
		result = ^op2
	}

	if s {
		if rd == 15 && writesResult {
			c.SetCPSR(c.readSPSR())
		} else {
			switch op {
			case 0x2, 0x3, 0xA: // SUB, RSB, CMP: subtraction
				c.setNZCV(result, n >= op2 || (op == 0x3 && op2 >= n), subOverflowFor(op, n, op2, result))
			case 0x4, 0xB: // ADD, CMN
				c.setNZCV(result, result < n || result < op2, addOverflow(n, op2, result))
			case 0x5: // ADC
				c.setNZCV(result, carryAfterAdc(n, op2, c.cpsr&bitC != 0, result), addOverflow(n, op2, result))
			case 0x6, 0x7: // SBC, RSC
				c.setNZCV(result, carryAfterSbc(op, n, op2, c.cpsr&bitC != 0), subOverflowFor(op, n, op2, result))
			default: // logical ops
				c.setNZC(result, shiftCarry)
			}
		}
	}

	if writesResult {
		c.WriteReg(rd, result)
	}
}

func subOverflowFor(op, n, op2, result uint32) bool {
	if op == 0x3 { // RSB: op2 - n
		return subOverflow(op2, n, result)
	}
	return subOverflow(n, op2, result)
}

func carryAfterAdc(n, op2 uint32, carryIn bool, result uint32) bool {
	sum := uint64(n) + uint64(op2)
	if carryIn {
		sum++
	}
	return sum > 0xFFFFFFFF
}

func carryAfterSbc(op, n, op2 uint32, carryIn bool) bool {
	borrow := uint64(0)
	if !carryIn {
		borrow = 1
	}
	if op == 0x7 {
		return uint64(op2) >= uint64(n)+borrow
	}
	return uint64(op2)+borrow <= uint64(n)
}

// statusFieldMask returns the CPSR/SPSR bits selected by the MSR field
// mask bits (opcode bits 19-16): bit16 control, bit17 extension
// (unused), bit18 status (unused), bit19 flags.
func statusFieldMask(opcode uint32) uint32 {
	var mask uint32
	if opcode&(1<<16) != 0 {
		mask |= 0x000000FF
	}
	if opcode&(1<<19) != 0 {
		mask |= 0xFF000000
	}
	return mask
}

func execStatusTransferMRS(c *Core, opcode uint32) {
	rd := int((opcode >> 12) & 0xF)
	if opcode&(1<<22) != 0 {
		c.WriteReg(rd, c.readSPSR())
	} else {
		c.WriteReg(rd, c.cpsr)
	}
}

func execStatusTransferMSRReg(c *Core, opcode uint32) {
	rm := int(opcode & 0xF)
	writeMSR(c, opcode, c.ReadReg(rm))
}

func execStatusTransferMSRImm(c *Core, opcode uint32) {
	if (opcode>>16)&0xF == 0 { // fsxc==0: hint encoding (NOP/WFI), not a status write
		execHint(c, opcode)
		return
	}
	imm := opcode & 0xFF
	rotate := (opcode >> 8) & 0xF * 2
	val, _ := rotateRight(imm, uint(rotate))
	writeMSR(c, opcode, val)
}

// execHint decodes an MSR-immediate hint encoding (fsxc==0). Bits 7-0 of
// the opcode select the hint: 0 is NOP, 3 is WFI.
func execHint(c *Core, opcode uint32) {
	switch opcode & 0xFF {
	case 0: // NOP
	case 3:
		c.Halt()
	default:
		panic("arm: unhandled hint instruction")
	}
}

func writeMSR(c *Core, opcode, val uint32) {
	mask := statusFieldMask(opcode)
	if opcode&(1<<22) != 0 {
		c.writeSPSR((c.readSPSR() &^ mask) | (val & mask))
		return
	}
	if mask&0xFF != 0 { // control byte: only writable in a privileged mode
		if c.mode() != ModeUser {
			c.SetCPSR((c.cpsr &^ mask) | (val & mask))
			return
		}
		mask &^= 0xFF
	}
	c.cpsr = (c.cpsr &^ mask) | (val & mask)
}
