package arm

import "github.com/dual-emu/dsgo/internal/membus"

func execSwap(c *Core, opcode uint32) {
	rn := int((opcode >> 16) & 0xF)
	rd := int((opcode >> 12) & 0xF)
	rm := int(opcode & 0xF)
	byteAccess := opcode&(1<<22) != 0
	addr := c.ReadReg(rn)

	if byteAccess {
		old := c.bus.ReadByte(addr)
		c.bus.WriteByte(addr, byte(c.ReadReg(rm)))
		c.WriteReg(rd, uint32(old))
		return
	}
	old := membus.RotateWord(c.bus.ReadWord(addr&^3), addr)
	c.bus.WriteWord(addr&^3, c.ReadReg(rm))
	c.WriteReg(rd, old)
}
