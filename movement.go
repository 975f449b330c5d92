package main

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/ronikiienko/wgpu-game-of-life/internal/geom"
	"github.com/ronikiienko/wgpu-game-of-life/internal/life"
)

var speedKeys = []ebiten.Key{
	ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4,
	ebiten.KeyDigit5, ebiten.KeyDigit6, ebiten.KeyDigit7,
}

// updateCamera feeds WASD/arrow keys and the wheel to the camera controller.
func (g *Game) updateCamera() {
	k := g.camCtl
	k.Up = ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp)
	k.Down = ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown)
	k.Left = ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft)
	k.Right = ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight)
	if _, wy := ebiten.Wheel(); wy != 0 {
		k.Wheel(wy)
	}
	k.Update(g.cam)
}

// handleControls processes the simulation hotkeys: space pauses, N steps
// once while paused, 1-7 pick a speed tier, R reseeds, C clears and H
// toggles the HUD.
func (g *Game) handleControls(now time.Time) error {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
		if !g.paused {
			g.sim.Pacer().Reset(now)
		}
		g.log.Info("pause toggled", "paused", g.paused, "generation", g.sim.Generation())
	}
	if g.paused && inpututil.IsKeyJustPressed(ebiten.KeyN) {
		if err := g.sim.Step(); err != nil {
			return err
		}
	}
	for i, key := range speedKeys {
		if inpututil.IsKeyJustPressed(key) && i < len(life.Speeds) {
			g.speedTier = i
			g.sim.Pacer().SetInterval(life.Speeds[i].Interval)
			g.log.Info("speed changed", "tier", life.Speeds[i].Name)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := g.reseed(); err != nil {
			return err
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		if err := g.sim.Clear(); err != nil {
			return err
		}
		g.presenter.invalidate()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.showHUD = !g.showHUD
	}
	return nil
}

// handlePainting writes alive cells under the cursor while the left button is
// held and dead cells while the right button is held.
func (g *Game) handlePainting() error {
	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	right := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	if left == right {
		return nil
	}
	cx, cy := ebiten.CursorPosition()
	ndc := geom.ScreenToNDC(float64(cx)+0.5, float64(cy)+0.5, g.screenW, g.screenH)
	hit, err := paintBrush(g.sim, g.brush, ndc, g.cam.Matrix(), g.quad, left)
	if err != nil {
		return err
	}
	if hit {
		g.presenter.invalidate()
	}
	return nil
}
