package arm_test

import (
	"testing"

	"github.com/dual-emu/dsgo/internal/arm"
	"github.com/dual-emu/dsgo/internal/irq"
)

type fakeBus struct {
	mem [1 << 26]byte // reaches past 0x02000000 without aliasing it onto address 0
}

func (b *fakeBus) ReadByte(addr uint32) byte { return b.mem[addr%uint32(len(b.mem))] }
func (b *fakeBus) ReadHalf(addr uint32) uint16 {
	a := addr % uint32(len(b.mem))
	return uint16(b.mem[a]) | uint16(b.mem[a+1])<<8
}
func (b *fakeBus) ReadWord(addr uint32) uint32 {
	a := addr % uint32(len(b.mem))
	return uint32(b.mem[a]) | uint32(b.mem[a+1])<<8 | uint32(b.mem[a+2])<<16 | uint32(b.mem[a+3])<<24
}
func (b *fakeBus) WriteByte(addr uint32, val byte) { b.mem[addr%uint32(len(b.mem))] = val }
func (b *fakeBus) WriteHalf(addr uint32, val uint16) {
	a := addr % uint32(len(b.mem))
	b.mem[a] = byte(val)
	b.mem[a+1] = byte(val >> 8)
}
func (b *fakeBus) WriteWord(addr uint32, val uint32) {
	a := addr % uint32(len(b.mem))
	b.mem[a] = byte(val)
	b.mem[a+1] = byte(val >> 8)
	b.mem[a+2] = byte(val >> 16)
	b.mem[a+3] = byte(val >> 24)
}

func newTestCore(t *testing.T) (*arm.Core, *fakeBus) {
	t.Helper()
	return newTestCoreModel(t, arm.ModelARM9)
}

func newTestCoreModel(t *testing.T, model arm.Model) (*arm.Core, *fakeBus) {
	t.Helper()
	c, bus, _ := newTestCoreWithIRQ(t, model)
	return c, bus
}

func newTestCoreWithIRQ(t *testing.T, model arm.Model) (*arm.Core, *fakeBus, *irq.Controller) {
	t.Helper()
	bus := &fakeBus{}
	ctrl := irq.New()
	c := arm.NewCore(model, bus, ctrl, func() uint32 { return 0 })
	return c, bus, ctrl
}

// putARM writes one ARM opcode. NewCore has already prefetched from the
// empty bus, so each test calls WriteReg(15, 0) after writing its program
// to make Run refill the pipeline from it.
func putARM(bus *fakeBus, addr, opcode uint32) { bus.WriteWord(addr, opcode) }

func TestResetEntersSupervisorAtExceptionBase(t *testing.T) {
	c, _ := newTestCore(t)
	if c.ReadReg(15) != 8 { // PC after a 2-word ARM prefetch from base 0
		t.Fatalf("PC after reset = %#x, want 8", c.ReadReg(15))
	}
	if Mode := c.CPSR() & 0x1F; Mode != 0x13 {
		t.Fatalf("mode after reset = %#x, want Supervisor (0x13)", Mode)
	}
}

func TestModeSwitchRoundTrip(t *testing.T) {
	c, _ := newTestCore(t)
	c.WriteReg(13, 0x1000)
	c.SwitchMode(arm.ModeIRQ)
	c.WriteReg(13, 0x2000)
	c.SwitchMode(arm.ModeSupervisor)
	if got := c.ReadReg(13); got != 0x1000 {
		t.Fatalf("r13 in Supervisor after IRQ round trip = %#x, want 0x1000", got)
	}
	c.SwitchMode(arm.ModeIRQ)
	if got := c.ReadReg(13); got != 0x2000 {
		t.Fatalf("r13 back in IRQ = %#x, want 0x2000", got)
	}
}

func TestMovImmediateAndAdd(t *testing.T) {
	c, bus := newTestCore(t)
	base := uint32(0)
	putARM(bus, base+0, 0xE3A00005)  // MOV r0, #5
	putARM(bus, base+4, 0xE3A01003)  // MOV r1, #3
	putARM(bus, base+8, 0xE0812000)  // ADD r2, r1, r0
	putARM(bus, base+12, 0xEAFFFFFE) // B $ (spin, never reached in this test)
	c.WriteReg(15, base)
	c.Run(3)
	if got := c.ReadReg(2); got != 8 {
		t.Fatalf("r2 = %d, want 8", got)
	}
}

func TestConditionalInstructionSkipsWhenFalse(t *testing.T) {
	c, bus := newTestCore(t)
	putARM(bus, 0, 0xE3A0000A)  // MOV r0, #10
	putARM(bus, 4, 0x03A00001)  // MOVEQ r0, #1 (Z clear, should not execute)
	putARM(bus, 8, 0xE3A01002)  // MOV r1, #2
	c.WriteReg(15, 0)
	c.Run(3)
	if got := c.ReadReg(0); got != 10 {
		t.Fatalf("r0 = %d, want 10 (conditional MOV should have been skipped)", got)
	}
	if got := c.ReadReg(1); got != 2 {
		t.Fatalf("r1 = %d, want 2", got)
	}
}

func TestCountLeadingZeros(t *testing.T) {
	c, bus := newTestCore(t)
	c.WriteReg(1, 0)
	putARM(bus, 0, 0xE16F0F11) // CLZ r0, r1
	c.WriteReg(15, 0)
	c.Run(1)
	if got := c.ReadReg(0); got != 32 {
		t.Fatalf("CLZ(0) = %d, want 32", got)
	}

	c, bus = newTestCore(t)
	c.WriteReg(1, 0x80000000)
	putARM(bus, 0, 0xE16F0F11)
	c.WriteReg(15, 0)
	c.Run(1)
	if got := c.ReadReg(0); got != 0 {
		t.Fatalf("CLZ(0x80000000) = %d, want 0", got)
	}
}

func TestSaturatingAddSetsStickyQFlag(t *testing.T) {
	c, bus := newTestCore(t)
	c.WriteReg(0, 0x7FFFFFFF)
	c.WriteReg(1, 1)
	putARM(bus, 0, 0xE1002051) // QADD r2, r1, r0
	c.WriteReg(15, 0)
	c.Run(1)
	if got := c.ReadReg(2); got != 0x7FFFFFFF {
		t.Fatalf("QADD overflow result = %#x, want clamped 0x7FFFFFFF", got)
	}
	if c.CPSR()&(1<<27) == 0 {
		t.Fatal("Q flag not set after saturating overflow")
	}
}

// TestBlockStoreScenario is spec scenario 4: STMIA r0!, {r0,r1} on an
// ARM9-class core with r0=0x02000000, r1=0x11111111 stores the
// pre-transfer base at 0x02000000, r1 at 0x02000004, and writes r0
// back to 0x02000008.
func TestBlockStoreScenario(t *testing.T) {
	c, bus := newTestCore(t)
	c.WriteReg(0, 0x02000000)
	c.WriteReg(1, 0x11111111)
	putARM(bus, 0, 0xE8A00003) // STMIA r0!, {r0,r1}
	c.WriteReg(15, 0)
	c.Run(1)
	if got := bus.ReadWord(0x02000000); got != 0x02000000 {
		t.Fatalf("stored base = %#x, want pre-transfer base 0x02000000", got)
	}
	if got := bus.ReadWord(0x02000004); got != 0x11111111 {
		t.Fatalf("stored r1 = %#x, want 0x11111111", got)
	}
	if got := c.ReadReg(0); got != 0x02000008 {
		t.Fatalf("r0 after writeback = %#x, want 0x02000008", got)
	}
}

func TestSTMOnARM7StoresPostWritebackBaseWhenNotFirstInList(t *testing.T) {
	c, bus := newTestCoreModel(t, arm.ModelARM7)
	c.WriteReg(0, 0x11111111)
	c.WriteReg(1, 0x02000000)
	putARM(bus, 0, 0xE8A10003) // STMIA r1!, {r0,r1} -- base r1 is not first
	c.WriteReg(15, 0)
	c.Run(1)
	if got := bus.ReadWord(0x02000004); got != 0x02000008 {
		t.Fatalf("ARM7 stored base (not first in list) = %#x, want post-writeback 0x02000008", got)
	}
}

func TestSTMOnARM9AlwaysStoresPreTransferBase(t *testing.T) {
	c, bus := newTestCoreModel(t, arm.ModelARM9)
	c.WriteReg(0, 0x11111111)
	c.WriteReg(1, 0x02000000)
	putARM(bus, 0, 0xE8A10003) // STMIA r1!, {r0,r1} -- base r1 is not first
	c.WriteReg(15, 0)
	c.Run(1)
	if got := bus.ReadWord(0x02000004); got != 0x02000000 {
		t.Fatalf("ARM9 stored base = %#x, want pre-transfer 0x02000000 regardless of list position", got)
	}
}

func TestLDMOnARM9WritesBackWhenBaseNotLastInList(t *testing.T) {
	c, bus := newTestCore(t) // ARM9
	bus.WriteWord(0x02000000, 0xAAAAAAAA)
	bus.WriteWord(0x02000004, 0xBBBBBBBB)
	c.WriteReg(0, 0x02000000)
	putARM(bus, 0, 0xE8B00003) // LDMIA r0!, {r0,r1} -- base r0 is not last
	c.WriteReg(15, 0)
	c.Run(1)
	if got := c.ReadReg(0); got != 0x02000008 {
		t.Fatalf("ARM9 r0 after LDM = %#x, want writeback 0x02000008 (base not last)", got)
	}
}

func TestLDMOnARM9SuppressesWritebackWhenBaseIsLastAndListLongerThanOne(t *testing.T) {
	c, bus := newTestCore(t) // ARM9
	bus.WriteWord(0x02000000, 0xAAAAAAAA)
	bus.WriteWord(0x02000004, 0xBBBBBBBB)
	c.WriteReg(1, 0x02000000)
	putARM(bus, 0, 0xE8B10003) // LDMIA r1!, {r0,r1} -- base r1 is last
	c.WriteReg(15, 0)
	c.Run(1)
	if got := c.ReadReg(1); got != 0xBBBBBBBB {
		t.Fatalf("ARM9 r1 after LDM = %#x, want loaded value 0xBBBBBBBB (writeback suppressed)", got)
	}
}

func TestLDMOnARM7SuppressesWritebackWheneverBaseInList(t *testing.T) {
	c, bus := newTestCoreModel(t, arm.ModelARM7)
	bus.WriteWord(0x02000000, 0xAAAAAAAA)
	bus.WriteWord(0x02000004, 0xBBBBBBBB)
	c.WriteReg(0, 0x02000000)
	putARM(bus, 0, 0xE8B00003) // LDMIA r0!, {r0,r1} -- base r0 is first, not last
	c.WriteReg(15, 0)
	c.Run(1)
	if got := c.ReadReg(0); got != 0xAAAAAAAA {
		t.Fatalf("ARM7 r0 after LDM = %#x, want loaded value 0xAAAAAAAA (writeback suppressed, base anywhere in list)", got)
	}
}

func TestLDMSingleRegisterListWritebackPerModel(t *testing.T) {
	c9, bus9 := newTestCore(t) // ARM9
	bus9.WriteWord(0x02000000, 0xCCCCCCCC)
	c9.WriteReg(0, 0x02000000)
	putARM(bus9, 0, 0xE8B00001) // LDMIA r0!, {r0}
	c9.WriteReg(15, 0)
	c9.Run(1)
	if got := c9.ReadReg(0); got != 0x02000004 {
		t.Fatalf("ARM9 single-register LDM r0 = %#x, want writeback 0x02000004", got)
	}

	c7, bus7 := newTestCoreModel(t, arm.ModelARM7)
	bus7.WriteWord(0x02000000, 0xCCCCCCCC)
	c7.WriteReg(0, 0x02000000)
	putARM(bus7, 0, 0xE8B00001) // LDMIA r0!, {r0}
	c7.WriteReg(15, 0)
	c7.Run(1)
	if got := c7.ReadReg(0); got != 0xCCCCCCCC {
		t.Fatalf("ARM7 single-register LDM r0 = %#x, want loaded value 0xCCCCCCCC (base in list suppresses writeback)", got)
	}
}

func expectPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic, got none")
		}
	}()
	fn()
}

func TestUndefinedOpcodePanics(t *testing.T) {
	c, bus := newTestCore(t)
	putARM(bus, 0, 0xEC000000) // coprocessor data transfer (LDC/STC): unimplemented, no handler
	c.WriteReg(15, 0)
	expectPanic(t, func() { c.Run(1) })
}

func TestUnknownCoprocessorPanics(t *testing.T) {
	c, bus := newTestCore(t)
	putARM(bus, 0, 0xEE100710) // MRC p7, 0, r0, c0, c0, 0 -- no coprocessor installed at 7
	c.WriteReg(15, 0)
	expectPanic(t, func() { c.Run(1) })
}

// TestIRQMaskedDuringHandlerRunsMultipleInstructions catches a live-lock
// class of bug: once an IRQ is taken, CPSR.I is set, so a still-asserted
// IRQ line must not retake the exception on every subsequent instruction
// and clobber the handler's saved SPSR_irq/r14_irq before it has a chance
// to run.
func TestIRQMaskedDuringHandlerRunsMultipleInstructions(t *testing.T) {
	c, bus, ctrl := newTestCoreWithIRQ(t, arm.ModelARM9)
	c.WriteReg(0, 0)
	// exceptionBase is 0 in this fixture, so the IRQ vector is 0x18.
	putARM(bus, 0x18, 0xE2800001) // ADD r0, r0, #1
	putARM(bus, 0x1C, 0xE2800001) // ADD r0, r0, #1
	putARM(bus, 0x20, 0xE2800001) // ADD r0, r0, #1

	c.SetCPSR(c.CPSR() &^ (1 << 7)) // unmask IRQ
	ctrl.SetIME(true)
	ctrl.SetIE(1)
	ctrl.Raise(irq.SourceVBlank) // line stays asserted; the test never acknowledges it

	c.Run(1) // takes the IRQ and executes the first handler instruction in one step
	savedLR := c.ReadReg(14)

	c.Run(3) // the remaining two handler instructions execute despite the line still being asserted
	if got := c.ReadReg(0); got != 3 {
		t.Fatalf("handler executed %d ADDs with IRQ still asserted, want 3", got)
	}
	if got := c.ReadReg(14); got != savedLR {
		t.Fatalf("r14_irq clobbered by a re-entered IRQ: now %#x, was %#x", got, savedLR)
	}
}

func TestWFIHaltsUntilIRQArrives(t *testing.T) {
	c, bus, ctrl := newTestCoreWithIRQ(t, arm.ModelARM9)
	putARM(bus, 0, 0xE320F003) // MSR-immediate with an empty field mask, hint #3 -- WFI
	c.SetCPSR(c.CPSR() &^ (1 << 7)) // unmask IRQ
	ctrl.SetIME(true)
	ctrl.SetIE(1)

	c.WriteReg(15, 0)
	c.Run(1)
	before := c.Clock()
	c.Run(before + 100)
	if c.Clock() != before+100 {
		t.Fatalf("clock did not free-run while halted: got %d, want %d", c.Clock(), before+100)
	}

	ctrl.Raise(irq.SourceVBlank)
	c.Run(c.Clock() + 1)
	if mode := c.CPSR() & 0x1F; mode != 0x12 {
		t.Fatalf("mode after waking on IRQ = %#x, want IRQ mode (0x12)", mode)
	}
}

func TestLDRIntoPCSetsThumbBitOnARM9(t *testing.T) {
	c, bus := newTestCoreModel(t, arm.ModelARM9)
	bus.WriteWord(0x100, 0x02000001)
	c.WriteReg(0, 0x100)
	putARM(bus, 0, 0xE590F000) // LDR r15, [r0]
	c.WriteReg(15, 0)
	c.Run(1)
	// Run has refilled the pipeline at the loaded target in Thumb state,
	// so r15 reads 4 bytes ahead of it.
	if got := c.ReadReg(15) - 4; got != 0x02000000 {
		t.Fatalf("PC after LDR PC = %#x, want 0x02000000", got)
	}
	if c.CPSR()&(1<<5) == 0 {
		t.Fatal("CPSR.T not set after loading an odd address into PC on ARM9")
	}
}

func TestLDRIntoPCDoesNotInterworkOnARM7(t *testing.T) {
	c, bus := newTestCoreModel(t, arm.ModelARM7)
	bus.WriteWord(0x100, 0x02000001)
	c.WriteReg(0, 0x100)
	putARM(bus, 0, 0xE590F000) // LDR r15, [r0]
	c.WriteReg(15, 0)
	c.Run(1)
	// Run has refilled the pipeline at the loaded target in ARM state, so
	// r15 reads 8 bytes ahead of it.
	if got := c.ReadReg(15) - 8; got != 0x02000000 {
		t.Fatalf("PC after LDR PC on ARM7 = %#x, want 0x02000000", got)
	}
	if c.CPSR()&(1<<5) != 0 {
		t.Fatal("ARM7 must not interwork on a PC load; CPSR.T should stay clear")
	}
}

func TestMisalignedLoadRotates(t *testing.T) {
	c, bus := newTestCore(t)
	bus.WriteWord(0x100, 0x12345678)
	c.WriteReg(1, 0x101)
	putARM(bus, 0, 0xE5912000) // LDR r2, [r1]
	c.WriteReg(15, 0)
	c.Run(1)
	want := uint32(0x78123456) // word rotated right by 8 bits for a +1 misalignment
	if got := c.ReadReg(2); got != want {
		t.Fatalf("misaligned LDR = %#x, want %#x", got, want)
	}
}
