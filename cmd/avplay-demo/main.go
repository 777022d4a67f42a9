package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/avplay/engine"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: go run main.go path/to/video.mp4\n")
		os.Exit(1)
	}

	path, err := filepath.Abs(os.Args[1])
	if err != nil {
		panic(err)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Printf("'%s' not found.", path)
			os.Exit(1)
		}
		panic(err)
	}

	if err := avplay.CreateAudioContextForMedia(path); err != nil && !errors.Is(err, avplay.ErrNonNilAudioContext) {
		panic(err)
	}

	controller, err := avplay.Open(path, avplay.WithExternalSubtitles(filepath.Dir(path)))
	if err != nil {
		panic(err)
	}
	if err := controller.Play(); err != nil {
		panic(err)
	}

	ebiten.SetWindowTitle("avplay/demo")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(1280, 720)

	game := &demoGame{
		videoPath:  path,
		controller: controller,
		duration:   controller.DurationMs(),
	}
	if err := ebiten.RunGame(game); err != nil {
		panic(err)
	}
}

type demoGame struct {
	videoPath  string
	controller *avplay.Controller
	videoFrame *ebiten.Image

	position int64
	duration int64
	subtitle string
}

func (g *demoGame) Layout(_, _ int) (int, int) {
	panic("Layout() should not be called when LayoutF() exists")
}

func (g *demoGame) LayoutF(w, h float64) (float64, float64) {
	scaleFactor := ebiten.Monitor().DeviceScaleFactor()
	return w * scaleFactor, h * scaleFactor
}

func (g *demoGame) Draw(canvas *ebiten.Image) {
	avplay.Draw(canvas, g.videoFrame)
	g.drawGUI(canvas)
}

func (g *demoGame) Update() error {
	var err error
	g.videoFrame, err = g.controller.CurrentVideoImage()
	if err != nil {
		return err
	}
	g.position = g.controller.PositionMs()

	if cue, ok := g.controller.CurrentSubtitle(); ok {
		g.subtitle = cue.Text
	} else {
		g.subtitle = ""
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		if err := g.controller.Close(); err != nil {
			return err
		}
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyP) || inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		if g.controller.State() == avplay.Playing {
			if err := g.controller.Pause(); err != nil {
				return err
			}
		} else {
			if err := g.controller.Play(); err != nil {
				return err
			}
		}
	} else if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		if err := g.controller.Stop(); err != nil {
			return err
		}
	} else if inpututil.IsKeyJustPressed(ebiten.KeyLeft) {
		if err := g.controller.Seek(g.position - 5000); err != nil {
			fmt.Printf("seek error: %v\n", err)
		}
	} else if inpututil.IsKeyJustPressed(ebiten.KeyRight) {
		if err := g.controller.Seek(g.position + 5000); err != nil {
			fmt.Printf("seek error: %v\n", err)
		}
	} else if inpututil.IsKeyJustPressed(ebiten.KeyL) {
		g.controller.SetLooping(!g.controller.GetLooping())
	} else if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		g.controller.SetMuted(!g.controller.GetMuted())
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyI) {
		fmt.Printf("Video state: %s\n", g.controller.State())
	}

	return nil
}

// TODO: a clean GUI would use a faded darkened area, then light colors and icons for bars and text
func (g *demoGame) drawGUI(canvas *ebiten.Image) {
	bounds := canvas.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	playWidth := (w * 2) / 3
	playHeight := h / 48
	ox := (w - playWidth) / 2
	oy := h - playHeight*2
	playRect := image.Rect(ox, oy, ox+playWidth, oy+playHeight)
	canvas.SubImage(playRect).(*ebiten.Image).Fill(color.RGBA{255, 255, 255, 255})
	const borderThickness = 3
	playRect.Min.X += borderThickness
	playRect.Max.X -= borderThickness
	playRect.Min.Y += borderThickness
	playRect.Max.Y -= borderThickness
	canvas.SubImage(playRect).(*ebiten.Image).Fill(color.RGBA{0, 0, 0, 255})
	const innerMargin = 2
	playRect.Min.X += innerMargin
	playRect.Max.X -= innerMargin
	playRect.Min.Y += innerMargin
	playRect.Max.Y -= innerMargin
	if g.duration > 0 {
		t := float64(g.position) / float64(g.duration)
		playRect.Max.X = playRect.Min.X + int(float64(playRect.Dx())*t)
		canvas.SubImage(playRect).(*ebiten.Image).Fill(color.RGBA{255, 255, 255, 255})
	}

	positionStr := msToMMSS(g.position)
	durationStr := msToMMSS(g.duration)
	ebitenutil.DebugPrintAt(canvas, positionStr+" / "+durationStr+" (SPACE to pause, S to stop, arrows to seek)", ox, oy-16)
	if g.subtitle != "" {
		ebitenutil.DebugPrintAt(canvas, g.subtitle, ox, oy-32)
	}
}

func msToMMSS(ms int64) string {
	seconds := ms / 1000
	minutes := seconds / 60
	seconds = seconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
