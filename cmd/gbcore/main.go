// Command gbcore runs a ROM in an ebiten window: video is blitted from
// Machine.Framebuffer every Draw, audio is pulled from Machine.DrainAudio
// through an io.Reader adapter, and the four D-Pad plus Start/Select/A/B
// buttons are polled from the keyboard every Update.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/pixelclock/gbcore/internal/machine"
)

const sampleRate = 48000

func main() {
	romPath := flag.String("rom", "", "path to a Game Boy ROM image")
	scale := flag.Int("scale", 3, "window scale factor")
	title := flag.String("title", "gbcore", "window title")
	flag.Parse()

	if *romPath == "" {
		fmt.Fprintln(os.Stderr, "usage: gbcore -rom <path>")
		os.Exit(1)
	}
	rom, err := os.ReadFile(*romPath)
	if err != nil {
		log.Fatalf("reading ROM: %v", err)
	}

	m := machine.New(sampleRate)
	if err := m.LoadCartridge(rom); err != nil {
		log.Fatalf("loading cartridge: %v", err)
	}

	app := &App{m: m, audioCtx: audio.NewContext(sampleRate)}
	ebiten.SetWindowTitle(*title)
	ebiten.SetWindowSize(160*(*scale), 144*(*scale))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(app); err != nil {
		log.Fatal(err)
	}
}

// App is the ebiten.Game implementation: one frame of emulation per
// Update call, one framebuffer blit per Draw call.
type App struct {
	m   *machine.Machine
	tex *ebiten.Image

	audioCtx    *audio.Context
	audioPlayer *audio.Player
	audioStream *machineAudioStream
}

func (a *App) Update() error {
	if a.audioPlayer == nil {
		a.audioStream = &machineAudioStream{m: a.m}
		if p, err := a.audioCtx.NewPlayer(a.audioStream); err == nil {
			a.audioPlayer = p
			a.audioPlayer.SetBufferSize(0)
			a.audioPlayer.Play()
		}
	}

	a.m.SetButtons(readButtons())
	a.m.NextFrame()
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(160, 144)
	}
	a.tex.WritePixels(a.m.Framebuffer())
	screen.DrawImage(a.tex, nil)
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) { return 160, 144 }

func readButtons() machine.Buttons {
	return machine.Buttons{
		Right:  ebiten.IsKeyPressed(ebiten.KeyRight),
		Left:   ebiten.IsKeyPressed(ebiten.KeyLeft),
		Up:     ebiten.IsKeyPressed(ebiten.KeyUp),
		Down:   ebiten.IsKeyPressed(ebiten.KeyDown),
		A:      ebiten.IsKeyPressed(ebiten.KeyZ),
		B:      ebiten.IsKeyPressed(ebiten.KeyX),
		Start:  ebiten.IsKeyPressed(ebiten.KeyEnter),
		Select: ebiten.IsKeyPressed(ebiten.KeyShiftRight),
	}
}
