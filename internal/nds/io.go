package nds

import (
	"github.com/dual-emu/dsgo/internal/gpu"
	"github.com/dual-emu/dsgo/internal/ipc"
	"github.com/dual-emu/dsgo/internal/irq"
)

// ioBridge answers the 0x04000000-0x04FFFFFF I/O register window common
// to both cores' address maps. gx/gxstat are nil on the ARM7 side, which
// has no path to the geometry engine.
type ioBridge struct {
	end     ipc.Endpoint
	ipc     *ipc.IPC
	irqCtrl *irq.Controller
	gx      *gpu.CommandProcessor
	gxstat  *gpu.GXSTAT
}

func (b *ioBridge) readWord(addr uint32) (uint32, bool) {
	switch addr {
	case 0x04000180:
		return uint32(b.ipc.ReadSync(b.end)), true
	case 0x04000208:
		if b.irqCtrl.IME() {
			return 1, true
		}
		return 0, true
	case 0x04000210:
		return b.irqCtrl.IE(), true
	case 0x04000214:
		return b.irqCtrl.IF(), true
	case 0x04100000:
		return b.ipc.Recv(b.end), true
	case 0x04000600:
		if b.gxstat != nil {
			return gxstatWord(b.gxstat), true
		}
	}
	return 0, false
}

func (b *ioBridge) writeWord(addr, val uint32) bool {
	switch addr {
	case 0x04000180:
		bits := uint8((val >> 8) & 0xF)
		enableIRQ := val&(1<<14) != 0
		requestIRQ := val&(1<<13) != 0
		b.ipc.WriteSync(b.end, bits, enableIRQ, requestIRQ)
		return true
	case 0x04000188:
		b.ipc.Send(b.end, val)
		return true
	case 0x04000208:
		b.irqCtrl.SetIME(val&1 != 0)
		return true
	case 0x04000210:
		b.irqCtrl.SetIE(val)
		return true
	case 0x04000214:
		b.irqCtrl.AcknowledgeIF(val)
		return true
	case 0x04000400:
		if b.gx != nil {
			b.gx.WriteGXFIFO(val)
			return true
		}
	}
	if addr >= 0x04000440 && addr <= 0x040005FF && b.gx != nil {
		b.gx.WriteGXCMDPORT(addr, val)
		return true
	}
	return false
}

// gxstatWord packs GXSTAT's command-processor-owned bits into the
// register layout consumed by code reading 0x04000600. Geometry-engine
// bits outside the command processor's ownership (matrix stack depth,
// test-result flags) read as zero here.
func gxstatWord(g *gpu.GXSTAT) uint32 {
	var v uint32
	if g.CmdFIFOEmpty {
		v |= 1 << 26
	}
	if g.CmdFIFOLessThanHalfFull {
		v |= 1 << 25
	}
	if g.Busy {
		v |= 1 << 27
	}
	v |= uint32(g.CmdFIFOSize&0x1FF) << 16
	v |= uint32(g.CmdFIFOIRQ) << 30
	return v
}
