package gpu

import (
	"github.com/dual-emu/dsgo/internal/irq"
	"github.com/dual-emu/dsgo/internal/scheduler"
)

// cmdNumParams is the number of 32-bit parameter words each GX command
// opcode consumes before it can execute, indexed by command byte.
var cmdNumParams = [256]int{
	0x00: 0, 0x01: 0, 0x02: 0, 0x03: 0, 0x04: 0, 0x05: 0, 0x06: 0, 0x07: 0,
	0x08: 0, 0x09: 0, 0x0A: 0, 0x0B: 0, 0x0C: 0, 0x0D: 0, 0x0E: 0, 0x0F: 0,
	0x10: 1, 0x11: 0, 0x12: 1, 0x13: 1, 0x14: 1, 0x15: 0, 0x16: 16, 0x17: 12,
	0x18: 16, 0x19: 12, 0x1A: 9, 0x1B: 3, 0x1C: 3, 0x1D: 0, 0x1E: 0, 0x1F: 0,
	0x20: 1, 0x21: 1, 0x22: 1, 0x23: 2, 0x24: 1, 0x25: 1, 0x26: 1, 0x27: 1,
	0x28: 1, 0x29: 1, 0x2A: 1, 0x2B: 1, 0x2C: 0, 0x2D: 0, 0x2E: 0, 0x2F: 0,
	0x30: 1, 0x31: 1, 0x32: 1, 0x33: 1, 0x34: 32, 0x35: 0, 0x36: 0, 0x37: 0,
	0x38: 0, 0x39: 0, 0x3A: 0, 0x3B: 0, 0x3C: 0, 0x3D: 0, 0x3E: 0, 0x3F: 0,
	0x40: 1, 0x41: 0, 0x42: 0, 0x43: 0, 0x44: 0, 0x45: 0, 0x46: 0, 0x47: 0,
	0x48: 0, 0x49: 0, 0x4A: 0, 0x4B: 0, 0x4C: 0, 0x4D: 0, 0x4E: 0, 0x4F: 0,
	0x50: 1, 0x51: 0, 0x52: 0, 0x53: 0, 0x54: 0, 0x55: 0, 0x56: 0, 0x57: 0,
	0x58: 0, 0x59: 0, 0x5A: 0, 0x5B: 0, 0x5C: 0, 0x5D: 0, 0x5E: 0, 0x5F: 0,
	0x60: 1, 0x61: 0, 0x62: 0, 0x63: 0, 0x64: 0, 0x65: 0, 0x66: 0, 0x67: 0,
	0x68: 0, 0x69: 0, 0x6A: 0, 0x6B: 0, 0x6C: 0, 0x6D: 0, 0x6E: 0, 0x6F: 0,
	0x70: 3, 0x71: 2, 0x72: 1,
}

// entry is one queued GX command: its opcode byte and its one parameter
// word. Commands taking more than one parameter occupy that many
// consecutive entries sharing the same command byte.
type entry struct {
	command byte
	param   uint32
}

type ring struct {
	buf        []entry
	head, size int
}

func newRing(capacity int) ring { return ring{buf: make([]entry, capacity)} }

func (r *ring) cap() int   { return len(r.buf) }
func (r *ring) Count() int { return r.size }
func (r *ring) IsEmpty() bool { return r.size == 0 }
func (r *ring) IsFull() bool  { return r.size == r.cap() }

func (r *ring) Write(e entry) {
	r.buf[(r.head+r.size)%r.cap()] = e
	r.size++
}

func (r *ring) Read() entry {
	e := r.buf[r.head]
	r.head = (r.head + 1) % r.cap()
	r.size--
	return e
}

func (r *ring) Peek() entry { return r.buf[r.head] }

func (r *ring) Reset() { r.head, r.size = 0, 0 }

type unpackState struct {
	word       uint32
	cmdsLeft   int
	paramsLeft int
}

// CommandProcessor is the GXFIFO/GXPIPE packed-command unpacking state
// machine feeding the 3D geometry engine, one command per scheduled
// device cycle while the pipe holds enough parameters for it.
type CommandProcessor struct {
	sched    *scheduler.Scheduler
	arm9IRQ  *irq.Controller
	gxstat   *GXSTAT
	unpack   unpackState
	pipe     ring
	fifo     ring
}

// New builds a CommandProcessor driven by sched, raising SourceGXFIFO on
// arm9IRQ, and reflecting its state into gxstat.
func New(sched *scheduler.Scheduler, arm9IRQ *irq.Controller, gxstat *GXSTAT) *CommandProcessor {
	cp := &CommandProcessor{
		sched:   sched,
		arm9IRQ: arm9IRQ,
		gxstat:  gxstat,
		pipe:    newRing(4),
		fifo:    newRing(256),
	}
	cp.Reset()
	return cp
}

func (cp *CommandProcessor) Reset() {
	cp.unpack = unpackState{}
	cp.pipe.Reset()
	cp.fifo.Reset()
	cp.gxstat.Reset()
}

// WriteGXFIFO feeds one packed word of up to four 0-parameter commands,
// or one parameter word of a command already mid-unpack, through
// GXFIFO's write port (0x04000400). Unpacking a packed word stops at its
// first command that takes parameters; once that command's parameters
// have arrived, the next write is taken as a new packed word.
func (cp *CommandProcessor) WriteGXFIFO(word uint32) {
	if cp.unpack.paramsLeft > 0 {
		cp.enqueue(byte(cp.unpack.word), word)
		cp.unpack.paramsLeft--
		if cp.unpack.paramsLeft == 0 {
			cp.unpack.word >>= 8
			cp.unpack.cmdsLeft--
		}
		return
	}

	cp.unpack.cmdsLeft = 4
	cp.unpack.word = word

	for i := 0; i < 4; i++ {
		command := byte(cp.unpack.word)
		cp.unpack.paramsLeft = cmdNumParams[command]
		if cp.unpack.paramsLeft != 0 {
			break
		}
		cp.enqueue(command, 0)
		cp.unpack.word >>= 8
		cp.unpack.cmdsLeft--
		if cp.unpack.cmdsLeft == 0 || cp.unpack.word == 0 {
			cp.unpack.cmdsLeft = 0
			break
		}
	}
}

// WriteGXCMDPORT feeds a single parameter word through one of the
// per-command memory-mapped ports (0x04000440-0x040005FF), which
// encode the command number directly in the address.
func (cp *CommandProcessor) WriteGXCMDPORT(address, param uint32) {
	cp.enqueue(byte((address&0x1FF)>>2), param)
}

func (cp *CommandProcessor) enqueue(command byte, param uint32) {
	e := entry{command: command, param: param}
	if cp.fifo.IsEmpty() && !cp.pipe.IsFull() {
		cp.pipe.Write(e)
	} else {
		if cp.fifo.IsFull() {
			panic("gpu: write to full GXFIFO")
		}
		cp.fifo.Write(e)
		cp.updateFIFOState()
	}
	if !cp.gxstat.Busy {
		cp.processCommands()
	}
}

func (cp *CommandProcessor) dequeue() entry {
	if cp.pipe.IsEmpty() {
		panic("gpu: read from empty GXPIPE")
	}
	e := cp.pipe.Read()
	if cp.pipe.Count() <= 2 {
		for i := 0; i < 2 && !cp.fifo.IsEmpty(); i++ {
			cp.pipe.Write(cp.fifo.Read())
		}
		cp.updateFIFOState()
	}
	return e
}

func (cp *CommandProcessor) updateFIFOState() {
	cp.gxstat.CmdFIFOSize = cp.fifo.Count()
	cp.gxstat.CmdFIFOEmpty = cp.fifo.IsEmpty()
	cp.gxstat.CmdFIFOLessThanHalfFull = cp.fifo.Count() < 128
	if cp.evaluateFIFOIRQCondition() {
		cp.arm9IRQ.Raise(irq.SourceGXFIFO)
	}
}

func (cp *CommandProcessor) evaluateFIFOIRQCondition() bool {
	switch cp.gxstat.CmdFIFOIRQ {
	case FIFOIRQEmpty:
		return cp.fifo.IsEmpty()
	case FIFOIRQLessThanHalfFull:
		return cp.fifo.Count() < 128
	default:
		return false
	}
}

func (cp *CommandProcessor) processCommands() {
	if cp.pipe.IsEmpty() {
		cp.gxstat.Busy = false
		return
	}
	command := cp.pipe.Peek().command
	available := cp.pipe.Count() + cp.fifo.Count()
	if available < cmdNumParams[command] {
		cp.gxstat.Busy = false
		return
	}
	cp.gxstat.Busy = true
	cp.sched.Add(1, func(uint64) {
		cp.executeCommand(command)
		cp.processCommands()
	})
}

func (cp *CommandProcessor) executeCommand(command byte) {
	n := cmdNumParams[command]
	if n == 0 {
		cp.dequeue()
		return
	}
	for i := 0; i < n; i++ {
		cp.dequeue()
	}
}
