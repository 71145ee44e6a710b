package thicket

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title  string
	Width  int
	Height int
	// Background fills the screen each frame; zero alpha leaves it cleared.
	Background Color
	// ShowFPS prints FPS and TPS in the top-left corner.
	ShowFPS bool
	// Debug turns on the scene's debug mode.
	Debug bool
}

// game adapts a Scene to ebiten.Game.
type game struct {
	scene   *Scene
	w, h    int
	showFPS bool
}

func (g *game) Update() error {
	return g.scene.Update()
}

func (g *game) Draw(screen *ebiten.Image) {
	g.scene.Draw(screen)
	if g.showFPS {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
	}
}

func (g *game) Layout(_, _ int) (int, int) {
	return g.w, g.h
}

// Run opens a window and drives scene until the window closes or an update
// returns an error.
func Run(scene *Scene, cfg RunConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("thicket: invalid window size %dx%d", cfg.Width, cfg.Height)
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	if cfg.Background.A > 0 {
		scene.ClearColor = cfg.Background
	}
	if cfg.Debug {
		scene.SetDebugMode(true)
	}
	return ebiten.RunGame(&game{scene: scene, w: cfg.Width, h: cfg.Height, showFPS: cfg.ShowFPS})
}
