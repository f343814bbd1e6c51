// Package nds wires the scheduler, IRQ controllers, IPC, CP15, GPU
// command processor, and the two ARM cores into one console: the
// facade other packages (and cmd/dsgo) talk to.
package nds

import (
	"github.com/dual-emu/dsgo/internal/arm"
	"github.com/dual-emu/dsgo/internal/cp15"
	"github.com/dual-emu/dsgo/internal/gpu"
	"github.com/dual-emu/dsgo/internal/ipc"
	"github.com/dual-emu/dsgo/internal/irq"
	"github.com/dual-emu/dsgo/internal/scheduler"
)

// CyclesPerFrame is the device-cycle budget one NDS video frame spends,
// matching the reference implementation's per-frame Step call.
const CyclesPerFrame = 559241

// NDS owns every shared component and both cores.
type NDS struct {
	sched *scheduler.Scheduler

	irq9, irq7 *irq.Controller
	ipc        *ipc.IPC
	cp15       *cp15.CP15
	gxstat     *gpu.GXSTAT
	gx         *gpu.CommandProcessor

	mem  *sharedMemory
	bus9 *bus9
	bus7 *bus7

	CPU9 *arm.Core
	CPU7 *arm.Core

	rom *ROM

	running bool
}

// New builds an NDS with both cores held at reset and nothing loaded.
func New() *NDS {
	n := &NDS{
		sched:  scheduler.New(),
		irq9:   irq.New(),
		irq7:   irq.New(),
		ipc:    nil,
		cp15:   cp15.New(),
		gxstat: &gpu.GXSTAT{},
		mem:    newSharedMemory(),
		rom:    &ROM{},
	}
	n.ipc = ipc.New(n.irq9, n.irq7)
	n.gx = gpu.New(n.sched, n.irq9, n.gxstat)

	n.bus9 = &bus9{
		mem:  n.mem,
		cp15: n.cp15,
		rom:  n.rom,
		io:   ioBridge{end: ipc.ARM9, ipc: n.ipc, irqCtrl: n.irq9, gx: n.gx, gxstat: n.gxstat},
	}
	n.bus7 = &bus7{
		mem: n.mem,
		rom: n.rom,
		io:  ioBridge{end: ipc.ARM7, ipc: n.ipc, irqCtrl: n.irq7},
	}

	n.CPU9 = arm.NewCore(arm.ModelARM9, n.bus9, n.irq9, n.cp15.ExceptionBase)
	n.CPU9.SetCoprocessor(15, n.cp15)
	n.CPU7 = arm.NewCore(arm.ModelARM7, n.bus7, n.irq7, func() uint32 { return 0 })

	return n
}

// Reset returns every component to its power-on state.
func (n *NDS) Reset() {
	n.cp15.Reset()
	n.ipc.Reset()
	n.gx.Reset()
	n.CPU9.Reset()
	n.CPU7.Reset()
}

const (
	bootROM9Size   = 8192
	bootROM7Size   = 16384
	cardHeaderSize = 0x180
)

// LoadBootROM9/LoadBootROM7 install the fixed boot firmware images each
// core's exception-vector-relative reads are served from. A wrong-sized
// image is a malformed-boot-input error, which this core treats as fatal
// like every other boundary-validation failure.
func (n *NDS) LoadBootROM9(data []byte) {
	if len(data) != bootROM9Size {
		panic("nds: ARM9 boot ROM must be exactly 8192 bytes")
	}
	n.rom.bootData = append([]byte(nil), data...)
}

func (n *NDS) LoadBootROM7(data []byte) {
	if len(data) != bootROM7Size {
		panic("nds: ARM7 boot ROM must be exactly 16384 bytes")
	}
	n.rom.bootData7 = append([]byte(nil), data...)
}

// LoadROM installs a game card image. Call once, before DirectBoot.
func (n *NDS) LoadROM(data []byte) {
	if len(data) < cardHeaderSize {
		panic("nds: card image too short to contain a header")
	}
	n.rom.card = append([]byte(nil), data...)
	n.rom.header = parseCardHeader(n.rom.card)
}

// DirectBoot skips firmware and boots straight into the loaded card's
// ARM9/ARM7 payloads, copying each into its target RAM address and
// starting both cores at their entry points in System mode with IRQs
// unmasked.
// Call at most once, after LoadROM.
func (n *NDS) DirectBoot() {
	h := n.rom.header
	n.copyCardSegment(n.bus9, h.arm9RomOffset, h.arm9RamAddr, h.arm9Size)
	n.copyCardSegment(n.bus7, h.arm7RomOffset, h.arm7RamAddr, h.arm7Size)

	n.CPU9.SwitchMode(arm.ModeSystem)
	n.CPU9.SetCPSR(n.CPU9.CPSR() &^ (1 << 7)) // unmask IRQ
	n.CPU9.WriteReg(13, 0x03002F7C)
	n.CPU9.WriteReg(15, h.arm9EntryAddr)

	n.CPU7.SwitchMode(arm.ModeSystem)
	n.CPU7.SetCPSR(n.CPU7.CPSR() &^ (1 << 7))
	n.CPU7.WriteReg(13, 0x0380FD80)
	n.CPU7.WriteReg(15, h.arm7EntryAddr)

	n.running = true
}

func (n *NDS) copyCardSegment(bus interface {
	WriteWord(addr, val uint32)
}, romOffset, ramAddr, size uint32) {
	card := n.rom.card
	for i := uint32(0); i+4 <= size && int(romOffset+i+4) <= len(card); i += 4 {
		word := uint32(card[romOffset+i]) | uint32(card[romOffset+i+1])<<8 |
			uint32(card[romOffset+i+2])<<16 | uint32(card[romOffset+i+3])<<24
		bus.WriteWord(ramAddr+i, word)
	}
}

// Step advances the whole console by approximately cycles device
// cycles, interleaving the two cores by always running whichever one's
// private clock is behind. Both cores run to the same scheduler horizon
// at one device cycle per instruction, so they receive equal shares of
// the budget; no ARM9:ARM7 clock ratio is applied.
func (n *NDS) Step(cycles uint64) {
	if !n.running {
		return
	}
	target := n.sched.GetTimestampNow() + cycles
	for n.sched.GetTimestampNow() < target {
		horizon := n.sched.GetTimestampTarget(target)
		if n.CPU9.Clock() <= n.CPU7.Clock() {
			n.CPU9.Run(horizon)
		} else {
			n.CPU7.Run(horizon)
		}
		if n.CPU9.Clock() >= horizon && n.CPU7.Clock() >= horizon {
			n.sched.Run(horizon)
		}
	}
}
