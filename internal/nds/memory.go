package nds

// sharedMemory holds the regions both cores address: 4MB main RAM and
// the 32KB block of WRAM shared between them (NDS WRAMCNT bank
// switching between the two cores is out of scope; both buses see the
// whole block at its ARM9-side address, matching the common default
// boot configuration where all shared WRAM maps to the ARM7).
type sharedMemory struct {
	mainRAM [4 * 1024 * 1024]byte
	wram    [32 * 1024]byte
}

func newSharedMemory() *sharedMemory { return &sharedMemory{} }
