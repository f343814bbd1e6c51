package arm

import "math/bits"

// execBlockDataTransfer implements LDM/STM. Per-model quirks (see
// handler32.inl's LDM/STM handler):
//   - an empty register list is architecturally not produced by real
//     code on the ARM9/ARM11 (v5) decoder and is treated as undefined
//     here; the ARM7 (v4) historically transfers R15 alone with a
//     0x40-byte base adjustment, which this models.
//   - STM: ARMv4 (ARM7) stores the post-writeback base value unless the
//     base register is first in the list, in which case it stores the
//     pre-transfer value like every other register; ARMv5 (ARM9/ARM11)
//     always stores the pre-transfer value.
//   - LDM writeback: ARM7 suppresses writeback iff the base register is
//     anywhere in the list; ARM9/ARM11 suppress writeback iff the base
//     is the *last* register in the list and the list holds more than
//     one register.
func execBlockDataTransfer(c *Core, opcode uint32) {
	pre := opcode&(1<<24) != 0
	up := opcode&(1<<23) != 0
	forceUser := opcode&(1<<22) != 0
	writeback := opcode&(1<<21) != 0
	load := opcode&(1<<20) != 0
	rn := int((opcode >> 16) & 0xF)
	list := opcode & 0xFFFF

	count := bits.OnesCount32(list)
	emptyList := count == 0

	baseIsFirst := !emptyList && bits.TrailingZeros32(list) == rn
	baseIsLast := !emptyList && 31-bits.LeadingZeros32(list) == rn

	if emptyList {
		if c.model.supportsV5() {
			panic("arm: LDM/STM with empty register list is undefined on this model")
		}
		list = 1 << 15
		count = 1
	}

	origBase := c.ReadReg(rn)
	total := uint32(count) * 4
	if emptyList {
		total = 0x40
	}
	var newBase uint32
	if up {
		newBase = origBase + total
	} else {
		newBase = origBase - total
	}

	addr := origBase
	effectivePre := pre
	if !up {
		addr = origBase - total
		effectivePre = !pre
	}

	pcInList := list&(1<<15) != 0
	useUserBank := forceUser && !(load && pcInList)

	// ARMv4 STM stores the new base early, so that when the store loop
	// reaches the base register it picks up the post-writeback value.
	baseStoreValue := origBase
	if !load && c.model == ModelARM7 && !baseIsFirst {
		baseStoreValue = newBase
	}

	for r := 0; r < 16; r++ {
		if list&(1<<uint(r)) == 0 {
			continue
		}
		if effectivePre {
			addr += 4
		}
		if load {
			val := c.bus.ReadWord(addr &^ 3)
			switch {
			case useUserBank:
				c.WriteUserReg(r, val)
			case r == 15:
				c.WriteReg(15, val&^3)
			default:
				c.WriteReg(r, val)
			}
		} else {
			var val uint32
			switch {
			case r == rn:
				val = baseStoreValue
			case useUserBank:
				val = c.ReadUserReg(r)
			default:
				val = c.ReadReg(r)
			}
			c.bus.WriteWord(addr&^3, val)
		}
		if !effectivePre {
			addr += 4
		}
	}

	if load && pcInList && forceUser {
		c.SetCPSR(c.readSPSR())
	}

	if writeback {
		suppress := false
		if load {
			if c.model.supportsV5() {
				suppress = baseIsLast && count > 1
			} else {
				suppress = list&(1<<uint(rn)) != 0
			}
		}
		if !suppress {
			c.WriteReg(rn, newBase)
		}
	}
}
