package arm

import (
	"math/bits"

	"github.com/dual-emu/dsgo/internal/membus"
)

func execThumbMoveShifted(c *Core, opcode uint16) {
	op := ShiftType((opcode >> 11) & 0x3)
	amount := uint((opcode >> 6) & 0x1F)
	rs := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)
	result, carry := shift(c.ReadReg(rs), op, amount, c.cpsr&bitC != 0, false)
	c.WriteReg(rd, result)
	c.setNZC(result, carry)
}

func execThumbAddSub(c *Core, opcode uint16) {
	immediate := opcode&(1<<10) != 0
	sub := opcode&(1<<9) != 0
	rs := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)
	n := c.ReadReg(rs)
	var op2 uint32
	if immediate {
		op2 = uint32((opcode >> 6) & 0x7)
	} else {
		op2 = c.ReadReg(int((opcode >> 6) & 0x7))
	}
	var result uint32
	if sub {
		result = n - op2
		c.setNZCV(result, n >= op2, subOverflow(n, op2, result))
	} else {
		result = n + op2
		c.setNZCV(result, result < n, addOverflow(n, op2, result))
	}
	c.WriteReg(rd, result)
}

func execThumbImmediateOp(c *Core, opcode uint16) {
	op := (opcode >> 11) & 0x3
	rd := int((opcode >> 8) & 0x7)
	imm := uint32(opcode & 0xFF)
	switch op {
	case 0x0: // MOV
		c.WriteReg(rd, imm)
		c.setNZC(imm, c.cpsr&bitC != 0)
	case 0x1: // CMP
		n := c.ReadReg(rd)
		result := n - imm
		c.setNZCV(result, n >= imm, subOverflow(n, imm, result))
	case 0x2: // ADD
		n := c.ReadReg(rd)
		result := n + imm
		c.setNZCV(result, result < n, addOverflow(n, imm, result))
		c.WriteReg(rd, result)
	case 0x3: // SUB
		n := c.ReadReg(rd)
		result := n - imm
		c.setNZCV(result, n >= imm, subOverflow(n, imm, result))
		c.WriteReg(rd, result)
	}
}

func execThumbALU(c *Core, opcode uint16) {
	op := (opcode >> 6) & 0xF
	rs := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)
	n := c.ReadReg(rd)
	m := c.ReadReg(rs)

	var result uint32
	writesResult := true
	switch op {
	case 0x0: // AND
		result = n & m
	case 0x1: // EOR
		result = n ^ m
	case 0x2: // LSL
		amount := uint(m & 0xFF)
		v, carry := shift(n, ShiftLSL, amount, c.cpsr&bitC != 0, true)
		result = v
		c.WriteReg(rd, result)
		c.setNZC(result, carry)
		return
	case 0x3: // LSR
		amount := uint(m & 0xFF)
		v, carry := shift(n, ShiftLSR, amount, c.cpsr&bitC != 0, true)
		result = v
		c.WriteReg(rd, result)
		c.setNZC(result, carry)
		return
	case 0x4: // ASR
		amount := uint(m & 0xFF)
		v, carry := shift(n, ShiftASR, amount, c.cpsr&bitC != 0, true)
		result = v
		c.WriteReg(rd, result)
		c.setNZC(result, carry)
		return
	case 0x5: // ADC
		carryIn := uint32(0)
		if c.cpsr&bitC != 0 {
			carryIn = 1
		}
		result = n + m + carryIn
		c.setNZCV(result, carryAfterAdc(n, m, c.cpsr&bitC != 0, result), addOverflow(n, m, result))
	case 0x6: // SBC
		result = n - m
		if c.cpsr&bitC == 0 {
			result--
		}
		c.setNZCV(result, carryAfterSbc(0x6, n, m, c.cpsr&bitC != 0), subOverflow(n, m, result))
	case 0x7: // ROR
		amount := uint(m & 0xFF)
		v, carry := shift(n, ShiftROR, amount, c.cpsr&bitC != 0, true)
		result = v
		c.WriteReg(rd, result)
		c.setNZC(result, carry)
		return
	case 0x8: // TST
		result = n & m
		writesResult = false
	case 0x9: // NEG
		result = 0 - m
		c.setNZCV(result, m == 0, subOverflow(0, m, result))
	case 0xA: // CMP
		result = n - m
		writesResult = false
		c.setNZCV(result, n >= m, subOverflow(n, m, result))
	case 0xB: // CMN
		result = n + m
		writesResult = false
		c.setNZCV(result, result < n, addOverflow(n, m, result))
	case 0xC: // ORR
		result = n | m
	case 0xD: // MUL
		result = n * m
	case 0xE: // BIC
		result = n &^ m
	case 0xF: // MVN
		result = ^m
	}

	switch op {
	case 0x0, 0x1, 0x8, 0xC, 0xE, 0xF:
		c.setNZC(result, c.cpsr&bitC != 0)
	case 0xD:
		c.setNZC(result, c.cpsr&bitC != 0)
	}
	if writesResult {
		c.WriteReg(rd, result)
	}
}

func execThumbHiRegBX(c *Core, opcode uint16) {
	op := (opcode >> 8) & 0x3
	h1 := opcode&(1<<7) != 0
	h2 := opcode&(1<<6) != 0
	rs := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)
	if h1 {
		rd += 8
	}
	if h2 {
		rs += 8
	}

	switch op {
	case 0x0: // ADD
		c.WriteReg(rd, c.ReadReg(rd)+c.ReadReg(rs))
	case 0x1: // CMP
		n := c.ReadReg(rd)
		m := c.ReadReg(rs)
		result := n - m
		c.setNZCV(result, n >= m, subOverflow(n, m, result))
	case 0x2: // MOV
		c.WriteReg(rd, c.ReadReg(rs))
	case 0x3: // BX / BLX
		target := c.ReadReg(rs)
		if h1 {
			c.WriteReg(14, c.reg[15]-2)
		}
		branchExchangeTo(c, target)
	}
}

func execThumbPCRelLoad(c *Core, opcode uint16) {
	rd := int((opcode >> 8) & 0x7)
	imm := uint32(opcode&0xFF) * 4
	base := (c.reg[15] &^ 3) + imm
	c.WriteReg(rd, c.bus.ReadWord(base))
}

func execThumbLoadStoreReg(c *Core, opcode uint16) {
	load := opcode&(1<<11) != 0
	byteAccess := opcode&(1<<10) != 0
	ro := int((opcode >> 6) & 0x7)
	rb := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)
	addr := c.ReadReg(rb) + c.ReadReg(ro)
	if load {
		if byteAccess {
			c.WriteReg(rd, uint32(c.bus.ReadByte(addr)))
		} else {
			c.WriteReg(rd, rotateWordForLoad(c, addr))
		}
		return
	}
	if byteAccess {
		c.bus.WriteByte(addr, byte(c.ReadReg(rd)))
	} else {
		c.bus.WriteWord(addr&^3, c.ReadReg(rd))
	}
}

func rotateWordForLoad(c *Core, addr uint32) uint32 {
	return membus.RotateWord(c.bus.ReadWord(addr&^3), addr)
}

func execThumbLoadStoreSignExtended(c *Core, opcode uint16) {
	hFlag := opcode&(1<<11) != 0
	sFlag := opcode&(1<<10) != 0
	ro := int((opcode >> 6) & 0x7)
	rb := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)
	addr := c.ReadReg(rb) + c.ReadReg(ro)

	switch {
	case !sFlag && !hFlag: // STRH
		c.bus.WriteHalf(addr&^1, uint16(c.ReadReg(rd)))
	case !sFlag && hFlag: // LDRH
		c.WriteReg(rd, uint32(c.bus.ReadHalf(addr&^1)))
	case sFlag && !hFlag: // LDSB
		c.WriteReg(rd, uint32(int32(int8(c.bus.ReadByte(addr)))))
	case sFlag && hFlag: // LDSH
		c.WriteReg(rd, uint32(int32(int16(c.bus.ReadHalf(addr&^1)))))
	}
}

func execThumbLoadStoreImm(c *Core, opcode uint16) {
	byteAccess := opcode&(1<<12) != 0
	load := opcode&(1<<11) != 0
	imm := uint32((opcode >> 6) & 0x1F)
	rb := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)
	if !byteAccess {
		imm *= 4
	}
	addr := c.ReadReg(rb) + imm
	if load {
		if byteAccess {
			c.WriteReg(rd, uint32(c.bus.ReadByte(addr)))
		} else {
			c.WriteReg(rd, rotateWordForLoad(c, addr))
		}
		return
	}
	if byteAccess {
		c.bus.WriteByte(addr, byte(c.ReadReg(rd)))
	} else {
		c.bus.WriteWord(addr&^3, c.ReadReg(rd))
	}
}

func execThumbLoadStoreHalfword(c *Core, opcode uint16) {
	load := opcode&(1<<11) != 0
	imm := uint32((opcode>>6)&0x1F) * 2
	rb := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)
	addr := c.ReadReg(rb) + imm
	if load {
		c.WriteReg(rd, uint32(c.bus.ReadHalf(addr&^1)))
	} else {
		c.bus.WriteHalf(addr&^1, uint16(c.ReadReg(rd)))
	}
}

func execThumbSPRelLoadStore(c *Core, opcode uint16) {
	load := opcode&(1<<11) != 0
	rd := int((opcode >> 8) & 0x7)
	imm := uint32(opcode&0xFF) * 4
	addr := c.ReadReg(13) + imm
	if load {
		c.WriteReg(rd, rotateWordForLoad(c, addr))
	} else {
		c.bus.WriteWord(addr&^3, c.ReadReg(rd))
	}
}

func execThumbLoadAddress(c *Core, opcode uint16) {
	usesSP := opcode&(1<<11) != 0
	rd := int((opcode >> 8) & 0x7)
	imm := uint32(opcode&0xFF) * 4
	var base uint32
	if usesSP {
		base = c.ReadReg(13)
	} else {
		base = c.reg[15] &^ 3
	}
	c.WriteReg(rd, base+imm)
}

func execThumbAddOffsetToSP(c *Core, opcode uint16) {
	negative := opcode&(1<<7) != 0
	imm := uint32(opcode&0x7F) * 4
	if negative {
		c.WriteReg(13, c.ReadReg(13)-imm)
	} else {
		c.WriteReg(13, c.ReadReg(13)+imm)
	}
}

func execThumbPushPop(c *Core, opcode uint16) {
	pop := opcode&(1<<11) != 0
	includeExtra := opcode&(1<<8) != 0
	list := opcode & 0xFF

	if pop {
		sp := c.ReadReg(13)
		for r := 0; r < 8; r++ {
			if list&(1<<uint(r)) != 0 {
				c.WriteReg(r, c.bus.ReadWord(sp&^3))
				sp += 4
			}
		}
		if includeExtra {
			c.WriteReg(15, c.bus.ReadWord(sp&^3)&^1)
			sp += 4
		}
		c.WriteReg(13, sp)
		return
	}

	count := bits.OnesCount16(uint16(list))
	if includeExtra {
		count++
	}
	sp := c.ReadReg(13) - uint32(count)*4
	addr := sp
	for r := 0; r < 8; r++ {
		if list&(1<<uint(r)) != 0 {
			c.bus.WriteWord(addr&^3, c.ReadReg(r))
			addr += 4
		}
	}
	if includeExtra {
		c.bus.WriteWord(addr&^3, c.ReadReg(14))
	}
	c.WriteReg(13, sp)
}

func execThumbMultipleLoadStore(c *Core, opcode uint16) {
	load := opcode&(1<<11) != 0
	rb := int((opcode >> 8) & 0x7)
	list := opcode & 0xFF

	addr := c.ReadReg(rb)
	count := bits.OnesCount16(uint16(list))
	baseWritten := false
	for r := 0; r < 8; r++ {
		if list&(1<<uint(r)) == 0 {
			continue
		}
		if load {
			c.WriteReg(r, c.bus.ReadWord(addr&^3))
			if r == rb {
				baseWritten = true
			}
		} else {
			c.bus.WriteWord(addr&^3, c.ReadReg(r))
		}
		addr += 4
	}
	if count == 0 {
		c.WriteReg(rb, addr+0x40)
		return
	}
	if !(load && baseWritten) {
		c.WriteReg(rb, addr)
	}
}

func execThumbConditionalBranchOrSWI(c *Core, opcode uint16) {
	cond := Condition((opcode >> 8) & 0xF)
	if cond == CondAL { // 1110: undefined in Thumb conditional-branch space
		panic("arm: undefined Thumb conditional-branch encoding (cond=1110)")
	}
	if cond == CondNV { // 1111: SWI
		c.enterSWI()
		return
	}
	if !c.evaluateCondition(cond) {
		return
	}
	offset := int32(int8(opcode&0xFF)) * 2
	c.WriteReg(15, uint32(int32(c.reg[15])+offset))
}

func execThumbUnconditionalBranch(c *Core, opcode uint16) {
	offset := signExtend11(opcode) * 2
	c.WriteReg(15, uint32(int32(c.reg[15])+offset))
}

func execThumbLongBranchLink(c *Core, opcode uint16) {
	low := opcode&(1<<11) != 0
	offset := uint32(opcode & 0x7FF)
	if !low {
		simm := signExtend11(opcode)
		c.WriteReg(14, uint32(int32(c.reg[15])+simm*2048))
		return
	}
	target := c.ReadReg(14) + offset*2
	c.WriteReg(14, (c.reg[15]-2)|1)
	c.WriteReg(15, target)
}

func signExtend11(opcode uint16) int32 {
	v := int32(opcode & 0x7FF)
	if v&0x400 != 0 {
		v -= 0x800
	}
	return v
}
