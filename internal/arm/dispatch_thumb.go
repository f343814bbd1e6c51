package arm

// thumbHandler executes one fully-decoded Thumb instruction.
type thumbHandler func(c *Core, opcode uint16)

// thumbTable is indexed by opcode>>6, the top 10 bits of the halfword.
// Every Thumb format is fully distinguished within those 10 bits; the
// remaining 6 bits (register numbers, small immediates) are re-read
// from the opcode by the handler itself.
var thumbTable [1024]thumbHandler

func init() {
	for idx := 0; idx < 1024; idx++ {
		thumbTable[idx] = classifyThumb(uint32(idx))
	}
}

func classifyThumb(idx uint32) thumbHandler {
	b15_13 := idx >> 7
	b15_12 := idx >> 6
	b15_11 := idx >> 5
	b15_10 := idx >> 4
	b15_8 := idx >> 2
	bit10 := (idx >> 4) & 1
	bit9 := (idx >> 3) & 1
	bit12_11 := (idx >> 5) & 0x3

	switch {
	case b15_13 == 0b000 && bit12_11 != 0b11:
		return execThumbMoveShifted
	case b15_11 == 0b00011:
		return execThumbAddSub
	case b15_13 == 0b001:
		return execThumbImmediateOp
	case b15_10 == 0x10:
		return execThumbALU
	case b15_10 == 0x11:
		return execThumbHiRegBX
	case b15_11 == 0x09:
		return execThumbPCRelLoad
	case b15_12 == 0x5 && bit9 == 0:
		return execThumbLoadStoreReg
	case b15_12 == 0x5 && bit9 == 1:
		return execThumbLoadStoreSignExtended
	case b15_13 == 0b011:
		return execThumbLoadStoreImm
	case b15_12 == 0x8:
		return execThumbLoadStoreHalfword
	case b15_12 == 0x9:
		return execThumbSPRelLoadStore
	case b15_12 == 0xA:
		return execThumbLoadAddress
	case b15_8 == 0xB0:
		return execThumbAddOffsetToSP
	case b15_12 == 0xB && bit10 == 1 && bit9 == 0:
		return execThumbPushPop
	case b15_12 == 0xC:
		return execThumbMultipleLoadStore
	case b15_12 == 0xD:
		return execThumbConditionalBranchOrSWI
	case b15_11 == 0x1C:
		return execThumbUnconditionalBranch
	case b15_12 == 0xF:
		return execThumbLongBranchLink
	default:
		return nil
	}
}

// stepThumb decodes and executes the instruction currently in the
// executing pipeline slot.
func (c *Core) stepThumb() {
	opcode := uint16(c.pipeline[1])
	idx := uint32(opcode) >> 6
	handler := thumbTable[idx]
	if handler == nil {
		panic("arm: undefined Thumb opcode reached dispatch")
	}
	handler(c, opcode)
}
