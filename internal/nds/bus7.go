package nds

import "github.com/dual-emu/dsgo/internal/membus"

// bus7 is the ARM7 core's view of the address space: main RAM, shared
// WRAM, a private boot ROM window, and the I/O register window (minus
// the GX ports, which only the ARM9 can reach).
type bus7 struct {
	mem *sharedMemory
	io  ioBridge
	rom *ROM
}

var _ membus.Bus = (*bus7)(nil)

func (b *bus7) ReadByte(addr uint32) byte {
	return byteAt(b.ReadWord(addr&^3), addr)
}

func (b *bus7) ReadHalf(addr uint32) uint16 {
	word := b.ReadWord(addr &^ 3)
	if addr&2 != 0 {
		return uint16(word >> 16)
	}
	return uint16(word)
}

func (b *bus7) ReadWord(addr uint32) uint32 {
	switch {
	case addr < 0x00004000:
		if b.rom != nil {
			return readWordFrom(b.rom.bootData7, addr)
		}
		return 0
	case addr >= 0x02000000 && addr < 0x03000000:
		return readWordFrom(b.mem.mainRAM[:], (addr-0x02000000)&0x3FFFFF)
	case addr >= 0x03000000 && addr < 0x04000000:
		return readWordFrom(b.mem.wram[:], (addr-0x03000000)&0x7FFF)
	case addr >= 0x04000000 && addr < 0x05000000:
		if v, ok := b.io.readWord(addr); ok {
			return v
		}
		return 0
	}
	return 0
}

func (b *bus7) WriteByte(addr uint32, val byte) {
	word := writeMergeBase(addr&^3, b.ReadWord(addr&^3))
	word = mergeByte(word, int(addr&3), val)
	b.WriteWord(addr&^3, word)
}

func (b *bus7) WriteHalf(addr uint32, val uint16) {
	word := writeMergeBase(addr&^3, b.ReadWord(addr&^3))
	if addr&2 != 0 {
		word = (word &^ 0xFFFF0000) | uint32(val)<<16
	} else {
		word = (word &^ 0xFFFF) | uint32(val)
	}
	b.WriteWord(addr&^3, word)
}

func (b *bus7) WriteWord(addr, val uint32) {
	switch {
	case addr >= 0x02000000 && addr < 0x03000000:
		writeWordTo(b.mem.mainRAM[:], (addr-0x02000000)&0x3FFFFF, val)
	case addr >= 0x03000000 && addr < 0x04000000:
		writeWordTo(b.mem.wram[:], (addr-0x03000000)&0x7FFF, val)
	case addr >= 0x04000000 && addr < 0x05000000:
		b.io.writeWord(addr, val)
	}
}
