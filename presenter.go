package main

import (
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/ronikiienko/wgpu-game-of-life/internal/life"
)

// presenter mirrors the current grid into an ebiten image. It keeps at most
// one snapshot in flight and never blocks the frame loop on it.
type presenter struct {
	log     *slog.Logger
	img     *ebiten.Image
	pixels  []byte
	pending *life.PendingRead
	shown   uint64
	dirty   bool
}

func newPresenter(width, height int, logger *slog.Logger) *presenter {
	return &presenter{
		log:    logger,
		img:    ebiten.NewImage(width, height),
		pixels: make([]byte, width*height*4),
		dirty:  true,
	}
}

// invalidate forces a refresh after an edit that did not change the
// generation.
func (p *presenter) invalidate() { p.dirty = true }

// poll uploads a finished snapshot, if any.
func (p *presenter) poll() error {
	if p.pending == nil {
		return nil
	}
	select {
	case res := <-p.pending.Done():
		pending := p.pending
		p.pending = nil
		cells, err := pending.Unpack(res)
		if err != nil {
			return err
		}
		p.upload(cells)
		p.shown = pending.Generation()
		p.log.Debug("presented generation", "generation", p.shown)
	default:
	}
	return nil
}

// request starts a snapshot of view when it differs from what is shown.
func (p *presenter) request(view life.View) error {
	if p.pending != nil || !view.Valid() {
		return nil
	}
	if !p.dirty && view.Generation() == p.shown {
		return nil
	}
	pending, err := view.Snapshot()
	if err != nil {
		return err
	}
	p.pending = pending
	p.dirty = false
	return nil
}

func (p *presenter) upload(cells []byte) {
	for i, c := range cells {
		v := byte(0)
		if c != 0 {
			v = 0xff
		}
		o := i * 4
		p.pixels[o] = v
		p.pixels[o+1] = v
		p.pixels[o+2] = v
		p.pixels[o+3] = 0xff
	}
	p.img.WritePixels(p.pixels)
}
