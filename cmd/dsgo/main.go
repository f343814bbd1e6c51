package main

import (
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/dual-emu/dsgo/pkg/emulator"
)

const (
	// NDS top-screen dimensions; the bottom screen and touch input are
	// out of scope for this core.
	screenWidth  = 256
	screenHeight = 192
	scaleFactor  = 2
)

type Game struct {
	nds *emulator.NDS
}

func (g *Game) Update() error {
	g.nds.Update()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	ebitenutil.DebugPrint(screen, "NDS core - under development")
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	ebiten.SetWindowSize(screenWidth*scaleFactor, screenHeight*scaleFactor)
	ebiten.SetWindowTitle("NDS core")

	game := &Game{nds: emulator.New()}
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
