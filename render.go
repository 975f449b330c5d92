package main

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"github.com/ronikiienko/wgpu-game-of-life/internal/geom"
	"github.com/ronikiienko/wgpu-game-of-life/internal/life"
)

// cellShaderSource colours the cell image: the red channel is 0 for dead and
// 1 for alive.
var cellShaderSource = []byte(`//kage:unit pixels

package main

var AliveColor vec4
var DeadColor vec4

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	alive := imageSrc0At(srcPos).r
	return mix(DeadColor, AliveColor, step(0.5, alive))
}
`)

var hudFace = text.NewGoXFace(basicfont.Face7x13)

func colorVec(c color.RGBA) []float32 {
	return []float32{float32(c.R) / 0xff, float32(c.G) / 0xff, float32(c.B) / 0xff, float32(c.A) / 0xff}
}

// quadGeoM maps cell-image pixels to screen pixels through the quad
// placement, the camera and the viewport.
func quadGeoM(viewProj, quad geom.Mat3, gridW, gridH, screenW, screenH int) ebiten.GeoM {
	imageToQuad := geom.Mat3{
		2 / float64(gridW), 0, -1,
		0, -2 / float64(gridH), 1,
		0, 0, 1,
	}
	ndcToScreen := geom.Mat3{
		float64(screenW) / 2, 0, float64(screenW) / 2,
		0, -float64(screenH) / 2, float64(screenH) / 2,
		0, 0, 1,
	}
	m := ndcToScreen.Mul(viewProj).Mul(quad).Mul(imageToQuad)
	var gm ebiten.GeoM
	gm.SetElement(0, 0, m.At(0, 0))
	gm.SetElement(0, 1, m.At(0, 1))
	gm.SetElement(0, 2, m.At(0, 2))
	gm.SetElement(1, 0, m.At(1, 0))
	gm.SetElement(1, 1, m.At(1, 1))
	gm.SetElement(1, 2, m.At(1, 2))
	return gm
}

// Draw renders the presented grid through the camera and the overlays.
func (g *Game) Draw(screen *ebiten.Image) {
	g.perf.StartFrame()
	screen.Fill(backgroundColor)

	w, h := g.sim.Size()
	op := &ebiten.DrawRectShaderOptions{}
	op.GeoM = quadGeoM(g.cam.Matrix(), g.quad, w, h, g.screenW, g.screenH)
	op.Images[0] = g.presenter.img
	op.Uniforms = map[string]any{
		"AliveColor": colorVec(aliveColor),
		"DeadColor":  colorVec(deadColor),
	}
	screen.DrawRectShader(w, h, g.shader, op)

	if g.showHUD {
		g.drawHUD(screen)
	}
	if *debugFlag {
		msg := fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS())
		ebitenutil.DebugPrintAt(screen, msg, hudMargin, g.screenH-3*hudLineSpacing)
	}
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	w, h := g.sim.Size()
	speed := g.sim.Pacer().Interval().String()
	if g.speedTier >= 0 && g.speedTier < len(life.Speeds) {
		speed = fmt.Sprintf("%s (tier %d)", life.Speeds[g.speedTier].Name, g.speedTier+1)
	}
	state := "running"
	if g.paused {
		state = "paused (N steps)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%dx%d %s on %s\n", w, h, g.sim.Strategy().Name(), g.ctx.Device.Name())
	fmt.Fprintf(&b, "generation %d, %.1f steps/s\n", g.sim.Generation(), g.lastStepsPerSec)
	fmt.Fprintf(&b, "speed %s, pace %s, %s\n", speed, g.sim.Pacer().Mode(), state)
	fmt.Fprintf(&b, "zoom %.2f\n", g.cam.Zoom)
	b.WriteString(g.perf.Summary())
	b.WriteString("space pause  1-7 speed  R reseed  C clear  H hud")

	op := &text.DrawOptions{}
	op.GeoM.Translate(hudMargin, hudMargin)
	op.ColorScale.ScaleWithColor(hudColor)
	op.LineSpacing = hudLineSpacing
	text.Draw(screen, b.String(), hudFace, op)
}

// Layout tracks the window size so the camera keeps the grid undistorted.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 {
		g.screenW, g.screenH = outsideWidth, outsideHeight
		g.cam.AspectRatio = float64(outsideWidth) / float64(outsideHeight)
	}
	return g.screenW, g.screenH
}
