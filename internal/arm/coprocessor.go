package arm

// Coprocessor is implemented by anything reachable through MCR/MRC, such
// as the ARM9's CP15 system control coprocessor.
type Coprocessor interface {
	MRC(opcode1, cn, cm, opcode2 uint32) uint32
	MCR(opcode1, cn, cm, opcode2, val uint32)
}

// SetCoprocessor installs cp at coprocessor number cpNum (0-15). A nil
// Coprocessor at a number means MCR/MRC targeting it is undefined.
func (c *Core) SetCoprocessor(cpNum int, cp Coprocessor) {
	c.coprocessors[cpNum] = cp
}
