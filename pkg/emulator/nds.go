// Package emulator is the small public surface a host application drives:
// load images, direct-boot, and pump frames.
package emulator

import "github.com/dual-emu/dsgo/internal/nds"

// NDS is a runnable Nintendo DS core.
type NDS struct {
	console *nds.NDS
	running bool
}

// New constructs an NDS held at reset with nothing loaded.
func New() *NDS {
	return &NDS{console: nds.New()}
}

func (e *NDS) Start() { e.running = true }
func (e *NDS) Stop()  { e.running = false }

// LoadBootROM9/LoadBootROM7 install firmware boot images.
func (e *NDS) LoadBootROM9(data []byte) { e.console.LoadBootROM9(data) }
func (e *NDS) LoadBootROM7(data []byte) { e.console.LoadBootROM7(data) }

// LoadROM installs a game card image.
func (e *NDS) LoadROM(data []byte) { e.console.LoadROM(data) }

// DirectBoot skips firmware and boots the loaded card directly.
func (e *NDS) DirectBoot() {
	e.console.DirectBoot()
	e.running = true
}

// Step advances the core by approximately cycles device cycles if
// running; a no-op otherwise. This is the facade's time-budget entry
// point: the host decides how many cycles to spend per call.
func (e *NDS) Step(cycles uint64) {
	if !e.running {
		return
	}
	e.console.Step(cycles)
}

// Update steps one video frame's worth of cycles, the pacing contract a
// per-tick Ebiten Update call expects.
func (e *NDS) Update() {
	e.Step(nds.CyclesPerFrame)
}
