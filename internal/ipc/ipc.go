// Package ipc implements the pair of 16-entry command FIFOs and the SYNC
// handshake register connecting the ARM9 and ARM7 cores.
package ipc

import "github.com/dual-emu/dsgo/internal/irq"

const fifoDepth = 16

// side is one direction's FIFO plus its error latch, which IPC exposes
// through Error and ClearError. No other IPCFIFOCNT bit is held here.
type side struct {
	buf       [fifoDepth]uint32
	head, len int
	lastRead  uint32
	err       bool
}

func (s *side) full() bool  { return s.len == fifoDepth }
func (s *side) empty() bool { return s.len == 0 }

func (s *side) push(word uint32) bool {
	if s.full() {
		s.err = true
		return false
	}
	s.buf[(s.head+s.len)%fifoDepth] = word
	s.len++
	return true
}

func (s *side) pop() (uint32, bool) {
	if s.empty() {
		s.err = true
		return s.lastRead, false
	}
	v := s.buf[s.head]
	s.head = (s.head + 1) % fifoDepth
	s.len--
	s.lastRead = v
	return v, true
}

func (s *side) clear() {
	*s = side{}
}

// Endpoint identifies one of the two cores for IPC purposes.
type Endpoint int

const (
	ARM9 Endpoint = iota
	ARM7
)

func other(e Endpoint) Endpoint {
	if e == ARM9 {
		return ARM7
	}
	return ARM9
}

// syncState holds the SYNC register's peer-visible nibble and enable bits
// for one endpoint.
type syncState struct {
	recvBits  uint8 // bits 0..3, written by the peer
	sendBits  uint8 // bits 8..11, written locally, mirrored to peer's recvBits
	enableIRQ bool  // local enable-recv-irq bit
}

// IPC owns both directions of the FIFO plus the SYNC registers, and holds
// non-owning references to both cores' interrupt controllers so it can
// raise IPCSYNC / send-empty / recv-non-empty conditions directly.
type IPC struct {
	toARM7 side // written by ARM9, read by ARM7
	toARM9 side // written by ARM7, read by ARM9

	sync [2]syncState

	irq9 *irq.Controller
	irq7 *irq.Controller

	enable9, enable7 bool // IPCFIFOCNT enable bits; cleared by Reset, not consulted by Send/Recv
}

// New wires the IPC block to the two cores' interrupt controllers.
func New(irq9, irq7 *irq.Controller) *IPC {
	return &IPC{irq9: irq9, irq7: irq7}
}

// Reset clears both FIFOs and the SYNC registers.
func (p *IPC) Reset() {
	p.toARM7.clear()
	p.toARM9.clear()
	p.sync = [2]syncState{}
	p.enable9, p.enable7 = false, false
}

func (p *IPC) controllerFor(e Endpoint) *irq.Controller {
	if e == ARM9 {
		return p.irq9
	}
	return p.irq7
}

func (p *IPC) outboundFor(e Endpoint) *side {
	if e == ARM9 {
		return &p.toARM7
	}
	return &p.toARM9
}

func (p *IPC) inboundFor(e Endpoint) *side {
	if e == ARM9 {
		return &p.toARM9
	}
	return &p.toARM7
}

// Send pushes word onto e's outbound FIFO. On overflow the error flag
// latches and the write is dropped, with no IRQ re-evaluation. Otherwise
// it re-evaluates the receiver's send-FIFO-non-empty IRQ condition.
func (p *IPC) Send(e Endpoint, word uint32) {
	out := p.outboundFor(e)
	if out.push(word) {
		p.controllerFor(other(e)).Raise(irq.SourceIPCRecvFIFONotEmpty)
	}
}

// Recv pops a word from e's inbound FIFO. On underflow the error flag
// latches, the last successfully read value is returned, and no IRQ is
// re-evaluated. Otherwise it re-evaluates the sender's recv-FIFO-empty
// IRQ condition.
func (p *IPC) Recv(e Endpoint) uint32 {
	in := p.inboundFor(e)
	v, ok := in.pop()
	if ok && in.empty() {
		p.controllerFor(other(e)).Raise(irq.SourceIPCSendFIFOEmpty)
	}
	return v
}

// Empty reports whether e's inbound FIFO is empty.
func (p *IPC) Empty(e Endpoint) bool { return p.inboundFor(e).empty() }

// Full reports whether e's outbound FIFO is full.
func (p *IPC) Full(e Endpoint) bool { return p.outboundFor(e).full() }

// Error reports e's latched FIFO error bit (send side) without clearing it.
func (p *IPC) Error(e Endpoint) bool { return p.outboundFor(e).err }

// ClearError clears e's outbound FIFO error latch (IPCFIFOCNT write).
func (p *IPC) ClearError(e Endpoint) { p.outboundFor(e).err = false }

// WriteSync updates e's SYNC register. bits carries the 4-bit nibble e
// wants its peer to see (mirrored to the peer's recvBits), enableIRQ is
// e's own "raise IPCSYNC on peer request" enable bit, and requestIRQ, if
// set, asks the peer to raise IPCSYNC now (only if the peer has its
// enable-recv-irq bit set).
func (p *IPC) WriteSync(e Endpoint, bits uint8, enableIRQ, requestIRQ bool) {
	p.sync[e].sendBits = bits & 0xF
	p.sync[e].enableIRQ = enableIRQ
	p.sync[other(e)].recvBits = bits & 0xF

	if requestIRQ && p.sync[other(e)].enableIRQ {
		p.controllerFor(other(e)).Raise(irq.SourceIPCSync)
	}
}

// ReadSync returns e's currently visible nibble (written by the peer).
func (p *IPC) ReadSync(e Endpoint) uint8 {
	return p.sync[e].recvBits
}
