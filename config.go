package main

import (
	"image/color"
	"time"
)

// Window, camera and presentation constants for the Life sandbox. Grid size,
// speed and pacing are runtime flags; see flags.go.
const (
	windowWidth, windowHeight = 1280, 800
	windowTitle               = "Game of Life"

	// quadBaselineCells is the grid size that fills one world unit per half
	// axis; larger grids get a proportionally larger quad.
	quadBaselineCells = 500

	cameraSpeed = 0.05

	defaultGridSize = 512
	defaultSpeed    = "100ms"
	defaultDensity  = 0.25
	noiseScale      = 24.0
	noiseThreshold  = 0.05
	maxBrushRadius  = 32

	hudMargin      = 8
	hudLineSpacing = 15

	defaultMaxLag = 50 * time.Millisecond
)

var (
	aliveColor      = color.RGBA{R: 0xf2, G: 0xe8, B: 0xc9, A: 0xff}
	deadColor       = color.RGBA{R: 0x14, G: 0x16, B: 0x1c, A: 0xff}
	backgroundColor = color.RGBA{R: 0x08, G: 0x08, B: 0x0a, A: 0xff}
	hudColor        = color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}
)
