// Package arm implements the ARM instruction interpreter shared by both
// NDS cores: full 32-bit ARM and 16-bit Thumb decode/execute, mode and
// bank switching, pipeline reload, and IRQ entry.
package arm

// Model tags which real CPU a Core is emulating. It governs which
// opcodes are supported and a few model-specific edge cases in block
// transfer writeback.
type Model int

const (
	ModelARM7 Model = iota
	ModelARM9
	ModelARM11
)

func (m Model) supportsV5() bool {
	return m == ModelARM9 || m == ModelARM11
}

// Mode is the CPSR mode field.
type Mode uint32

const (
	ModeUser       Mode = 0x10
	ModeFIQ        Mode = 0x11
	ModeIRQ        Mode = 0x12
	ModeSupervisor Mode = 0x13
	ModeAbort      Mode = 0x17
	ModeUndefined  Mode = 0x1B
	ModeSystem     Mode = 0x1F
)

func (m Mode) valid() bool {
	switch m {
	case ModeUser, ModeFIQ, ModeIRQ, ModeSupervisor, ModeAbort, ModeUndefined, ModeSystem:
		return true
	default:
		return false
	}
}

// Bank names the shadowed register set selected by CPSR mode.
type Bank int

const (
	BankNone Bank = iota // User / System
	BankFIQ
	BankIRQ
	BankSupervisor
	BankAbort
	BankUndefined
	numBanks
)

func bankForMode(mode Mode) Bank {
	switch mode {
	case ModeUser, ModeSystem:
		return BankNone
	case ModeFIQ:
		return BankFIQ
	case ModeIRQ:
		return BankIRQ
	case ModeSupervisor:
		return BankSupervisor
	case ModeAbort:
		return BankAbort
	case ModeUndefined:
		return BankUndefined
	default:
		panic("arm: invalid CPU mode")
	}
}

// CPSR/SPSR bit positions.
const (
	bitN = 1 << 31
	bitZ = 1 << 30
	bitC = 1 << 29
	bitV = 1 << 28
	bitQ = 1 << 27
	bitI = 1 << 7
	bitF = 1 << 6
	bitT = 1 << 5
	maskMode = 0x1F
)

// Condition is the 4-bit condition field of an ARM instruction.
type Condition uint32

const (
	CondEQ Condition = iota
	CondNE
	CondCS
	CondCC
	CondMI
	CondPL
	CondVS
	CondVC
	CondHI
	CondLS
	CondGE
	CondLT
	CondGT
	CondLE
	CondAL
	CondNV
)
