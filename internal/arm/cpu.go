package arm

import "github.com/dual-emu/dsgo/internal/irq"

// Bus is the address-space view a Core issues fetches and data accesses
// through. It has the same method set as membus.Bus, restated here; this
// package imports membus only for its misaligned-load rotate helpers.
type Bus interface {
	ReadByte(addr uint32) byte
	ReadHalf(addr uint32) uint16
	ReadWord(addr uint32) uint32
	WriteByte(addr uint32, val byte)
	WriteHalf(addr uint32, val uint16)
	WriteWord(addr uint32, val uint32)
}

// Core is one ARM register file, pipeline, and decode/execute loop. The
// ARM9 and ARM7 cores of an NDS are each one Core, differing only in
// Model and in the Bus and Coprocessor set wired to them.
type Core struct {
	model Model

	reg  [16]uint32
	bank [numBanks][7]uint32 // index 0-4: r8-r12 (FIQ only); 5: r13; 6: r14
	cpsr uint32
	spsr [numBanks]uint32

	pipeline             [2]uint32
	shouldReloadPipeline bool
	waitingForIRQ        bool

	bus          Bus
	irqCtrl      *irq.Controller
	coprocessors [16]Coprocessor

	// exceptionBase returns the current base address for exception
	// vectors (0x00000000 or 0xFFFF0000), driven by CP15 on the ARM9
	// and fixed at zero on the ARM7.
	exceptionBase func() uint32

	clock uint64
}

// NewCore builds a Core for model, fetching/storing through bus, raising
// interrupts it signals to itself through irqCtrl, and resolving the
// exception vector base through exceptionBase.
func NewCore(model Model, bus Bus, irqCtrl *irq.Controller, exceptionBase func() uint32) *Core {
	c := &Core{
		model:         model,
		bus:           bus,
		irqCtrl:       irqCtrl,
		exceptionBase: exceptionBase,
	}
	c.Reset()
	return c
}

// Reset enters the ARM reset exception: Supervisor mode, ARM state, both
// interrupt sources masked, PC at the exception base.
func (c *Core) Reset() {
	c.reg = [16]uint32{}
	c.bank = [numBanks][7]uint32{}
	c.spsr = [numBanks]uint32{}
	c.cpsr = uint32(ModeSupervisor) | bitI | bitF
	c.waitingForIRQ = false
	c.reg[15] = c.exceptionBase()
	c.reloadPipeline()
	c.clock = 0
}

// Model reports which real CPU this Core emulates.
func (c *Core) Model() Model { return c.model }

// Clock is the Core's private device-cycle counter, advanced by Run.
func (c *Core) Clock() uint64 { return c.clock }

// CPSR returns the current program status register.
func (c *Core) CPSR() uint32 { return c.cpsr }

// SetCPSR installs val as CPSR, performing the bank switch implied by a
// changed mode field. Used by full (non-flags-only) MSR writes.
func (c *Core) SetCPSR(val uint32) {
	mode := Mode(val & maskMode)
	if !mode.valid() {
		// Unpredictable on real hardware; keep current mode rather than
		// leaving the register file in an unaddressable state.
		c.cpsr = (c.cpsr & maskMode) | (val &^ maskMode)
		return
	}
	flags := val &^ maskMode
	c.SwitchMode(mode)
	c.cpsr = (c.cpsr & maskMode) | flags
}

func (c *Core) mode() Mode { return Mode(c.cpsr & maskMode) }

// SwitchMode changes the active mode, swapping the banked registers for
// the outgoing and incoming modes. Re-entering a previously-left mode
// restores exactly the register values it held when last exited.
func (c *Core) SwitchMode(newMode Mode) {
	if !newMode.valid() {
		panic("arm: invalid mode in SwitchMode")
	}
	oldBank := bankForMode(c.mode())
	newBank := bankForMode(newMode)
	c.cpsr = (c.cpsr &^ maskMode) | uint32(newMode)
	if oldBank == newBank {
		return
	}
	switch {
	case oldBank == BankFIQ:
		for i := 0; i < 5; i++ {
			c.bank[BankFIQ][i] = c.reg[8+i]
			c.reg[8+i] = c.bank[BankNone][i]
		}
	case newBank == BankFIQ:
		for i := 0; i < 5; i++ {
			c.bank[BankNone][i] = c.reg[8+i]
			c.reg[8+i] = c.bank[BankFIQ][i]
		}
	}
	c.bank[oldBank][5] = c.reg[13]
	c.bank[oldBank][6] = c.reg[14]
	c.reg[13] = c.bank[newBank][5]
	c.reg[14] = c.bank[newBank][6]
}

// ReadReg reads r0-r15 through the current mode's bank.
func (c *Core) ReadReg(i int) uint32 {
	if i < 8 || i == 15 {
		return c.reg[i]
	}
	bank := bankForMode(c.mode())
	if i < 13 {
		if bank == BankFIQ {
			return c.bank[BankFIQ][i-8]
		}
		return c.reg[i]
	}
	if bank == BankNone {
		return c.reg[i]
	}
	return c.bank[bank][i-8]
}

// ReadRegShiftOperand reads a register for use as a data-processing
// operand, applying the PC-read-as-PC+12 rule that applies only when the
// shift amount itself comes from a register.
func (c *Core) ReadRegShiftOperand(i int, amountFromRegister bool) uint32 {
	if i == 15 && amountFromRegister {
		return c.reg[15] + 4
	}
	return c.ReadReg(i)
}

// WriteReg writes r0-r15 through the current mode's bank. Writing r15
// flags the pipeline for a reload on the next dispatch step.
func (c *Core) WriteReg(i int, val uint32) {
	if i == 15 {
		c.reg[15] = val
		c.shouldReloadPipeline = true
		return
	}
	if i < 8 {
		c.reg[i] = val
		return
	}
	bank := bankForMode(c.mode())
	if i < 13 {
		if bank == BankFIQ {
			c.bank[BankFIQ][i-8] = val
			return
		}
		c.reg[i] = val
		return
	}
	if bank == BankNone {
		c.reg[i] = val
		return
	}
	c.bank[bank][i-8] = val
}

// ReadUserReg/WriteUserReg bypass the current bank, used by LDM/STM^ to
// address the User-mode register set regardless of the active mode.
func (c *Core) ReadUserReg(i int) uint32 { return c.reg[i] }
func (c *Core) WriteUserReg(i int, val uint32) {
	if i == 15 {
		c.reg[15] = val
		c.shouldReloadPipeline = true
		return
	}
	c.reg[i] = val
}

func (c *Core) readSPSR() uint32 {
	bank := bankForMode(c.mode())
	if bank == BankNone {
		return c.cpsr
	}
	return c.spsr[bank]
}

func (c *Core) writeSPSR(val uint32) {
	bank := bankForMode(c.mode())
	if bank == BankNone {
		return
	}
	c.spsr[bank] = val
}

func (c *Core) thumb() bool { return c.cpsr&bitT != 0 }

// reloadPipeline refills both pipeline slots from the current PC and
// advances PC past them, mirroring a 2-stage ARM prefetch. Pipeline[1]
// is the instruction about to execute; Pipeline[0] is one behind it in
// program order but fetched one step ahead of execution.
func (c *Core) reloadPipeline() {
	if c.thumb() {
		c.reg[15] &^= 1
		c.pipeline[1] = uint32(c.bus.ReadHalf(c.reg[15]))
		c.pipeline[0] = uint32(c.bus.ReadHalf(c.reg[15] + 2))
		c.reg[15] += 4
	} else {
		c.reg[15] &^= 3
		c.pipeline[1] = c.bus.ReadWord(c.reg[15])
		c.pipeline[0] = c.bus.ReadWord(c.reg[15] + 4)
		c.reg[15] += 8
	}
	c.shouldReloadPipeline = false
}

// advancePipeline shifts the lookahead slot into the executing slot and
// fetches the next lookahead word, advancing PC by one instruction.
func (c *Core) advancePipeline() {
	c.pipeline[1] = c.pipeline[0]
	if c.thumb() {
		c.pipeline[0] = uint32(c.bus.ReadHalf(c.reg[15]))
		c.reg[15] += 2
	} else {
		c.pipeline[0] = c.bus.ReadWord(c.reg[15])
		c.reg[15] += 4
	}
}

// enterIRQ performs IRQ exception entry: save CPSR, switch to IRQ mode,
// mask IRQ, clear Thumb, set the return address and vector, and refill
// the pipeline in ARM state.
func (c *Core) enterIRQ() {
	cpsrOld := c.cpsr
	var ret uint32
	if c.thumb() {
		ret = c.reg[15]
	} else {
		ret = c.reg[15] - 4
	}
	c.SwitchMode(ModeIRQ)
	c.writeSPSR(cpsrOld)
	c.cpsr |= bitI
	c.cpsr &^= bitT
	c.WriteReg(14, ret)
	c.WriteReg(15, c.exceptionBase()+0x18)
}

// enterSWI performs software-interrupt exception entry. The return
// address is always PC-4, matching the interpreter's literal contract
// rather than the distinct ARM/Thumb offsets real silicon uses.
func (c *Core) enterSWI() {
	cpsrOld := c.cpsr
	ret := c.reg[15] - 4
	c.SwitchMode(ModeSupervisor)
	c.writeSPSR(cpsrOld)
	c.cpsr |= bitI
	c.cpsr &^= bitT
	c.WriteReg(14, ret)
	c.WriteReg(15, c.exceptionBase()+0x08)
}

// Run executes instructions, advancing the Core's clock by one per
// dispatched instruction, until clock reaches horizon. A pending,
// unmasked IRQ is taken between instructions; while waiting for an IRQ
// (post-WFI), the clock free-runs to horizon without fetching.
func (c *Core) Run(horizon uint64) {
	for c.clock < horizon {
		if c.irqCtrl.Line() {
			c.waitingForIRQ = false
			if c.cpsr&bitI == 0 {
				c.enterIRQ()
			}
		}
		if c.waitingForIRQ {
			c.clock = horizon
			return
		}

		// A register write to PC (by the previous instruction, by
		// exception entry, or by the caller before this Run call) only
		// flags a reload; perform it before fetching the instruction
		// it's supposed to produce.
		if c.shouldReloadPipeline {
			c.reloadPipeline()
		}

		if c.thumb() {
			c.stepThumb()
		} else {
			c.stepARM()
		}

		if c.shouldReloadPipeline {
			c.reloadPipeline()
		} else {
			c.advancePipeline()
		}
		c.clock++
	}
}

// Halt puts the Core into the WFI state: Run will stop fetching and let
// its clock free-run until an unmasked IRQ arrives.
func (c *Core) Halt() { c.waitingForIRQ = true }
