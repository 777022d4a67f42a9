package main

import (
	"fmt"
	"image/color"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/avplay/engine"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Println("Usage: go run main.go rtsp://<username>:<password>@<ip>:<port>")
		os.Exit(1)
	}

	path := os.Args[1]

	controller, err := avplay.Open(path)
	if err != nil {
		panic(err)
	}
	defer controller.Close()

	if err := controller.Play(); err != nil {
		panic(err)
	}

	ebiten.SetWindowTitle("Basic Stream Player")
	ebiten.SetWindowSize(1280, 720)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	g := &game{controller: controller}
	if err := ebiten.RunGame(g); err != nil {
		panic(err)
	}
}

type game struct {
	controller *avplay.Controller
	frame      *ebiten.Image
}

func (g *game) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	f, err := g.controller.CurrentVideoImage()
	if err != nil {
		fmt.Printf("error getting current frame: %v\n", err)
		return nil
	}
	g.frame = f

	state := g.controller.StreamState()
	if state.Kind == avplay.StreamReconnecting {
		ebiten.SetWindowTitle(fmt.Sprintf("Basic Stream Player (reconnecting, attempt %d)", state.Attempt))
	} else if state.Kind == avplay.StreamFailed {
		ebiten.SetWindowTitle("Basic Stream Player (connection failed: " + state.Reason + ")")
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)
	avplay.Draw(screen, g.frame)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}
