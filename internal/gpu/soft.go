package gpu

import (
	"fmt"
	"image"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// SoftOptions configures a software device.
type SoftOptions struct {
	// Workers bounds the goroutines a single kernel fans out to. Zero means
	// runtime.NumCPU.
	Workers int
	Name    string
}

// SoftDevice executes programs on the CPU. Its device timeline is one
// goroutine draining a FIFO of jobs; each kernel fans out over row bands.
type SoftDevice struct {
	name    string
	limits  Limits
	workers int
	queue   *softQueue
}

var _ Device = (*SoftDevice)(nil)

// NewSoftDevice starts a software device.
func NewSoftDevice(opts SoftOptions) *SoftDevice {
	workers := opts.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	name := opts.Name
	if name == "" {
		name = fmt.Sprintf("software (%d workers)", workers)
	}
	d := &SoftDevice{
		name:    name,
		workers: workers,
		limits: Limits{
			CopyRowAlignment: DefaultCopyRowAlignment,
			MaxGridDimension: 16384,
		},
	}
	d.queue = newSoftQueue()
	go d.queue.loop()
	return d
}

func (d *SoftDevice) Name() string   { return d.name }
func (d *SoftDevice) Limits() Limits { return d.limits }
func (d *SoftDevice) Queue() Queue   { return d.queue }

// Supports reports true for both execution modes.
func (d *SoftDevice) Supports(mode ExecMode) bool {
	return mode == ExecRaster || mode == ExecCompute
}

// Lose marks the device lost. Pending and future work fails with an error
// wrapping ErrDeviceLost.
func (d *SoftDevice) Lose(reason error) {
	d.queue.lose(reason)
}

// Close drains submitted work and stops the device timeline.
func (d *SoftDevice) Close() error {
	d.queue.close()
	return nil
}

func (d *SoftDevice) CreateGrid(desc GridDesc) (Grid, error) {
	if err := d.queue.err(); err != nil {
		return nil, err
	}
	if desc.Width <= 0 || desc.Height <= 0 || desc.Width > d.limits.MaxGridDimension || desc.Height > d.limits.MaxGridDimension {
		return nil, errors.Errorf("creating grid %q: %dx%d outside device limits", desc.Label, desc.Width, desc.Height)
	}
	return &softGrid{
		label:  desc.Label,
		w:      desc.Width,
		h:      desc.Height,
		layout: desc.Layout,
		data:   make([]byte, desc.Width*desc.Height),
	}, nil
}

func (d *SoftDevice) CreateStaging(label string, size int) (Staging, error) {
	if err := d.queue.err(); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, errors.Errorf("creating staging %q: size %d", label, size)
	}
	return &softStaging{label: label, data: make([]byte, size)}, nil
}

func (d *SoftDevice) CreateProgram(desc ProgramDesc) (Program, error) {
	switch desc.Mode {
	case ExecRaster:
		if desc.Fragment == nil {
			return nil, errors.Wrapf(ErrUnsupported, "raster program %q has no host fragment", desc.Label)
		}
	case ExecCompute:
		if desc.Compute == nil {
			return nil, errors.Wrapf(ErrUnsupported, "compute program %q has no host kernel", desc.Label)
		}
		if desc.TileSize < 1 {
			return nil, errors.Errorf("compute program %q: tile size %d", desc.Label, desc.TileSize)
		}
	default:
		return nil, errors.Wrapf(ErrUnsupported, "program mode %d", desc.Mode)
	}
	return &softProgram{desc: desc}, nil
}

func (d *SoftDevice) CreateEncoder(label string) Encoder {
	return &softEncoder{dev: d, label: label}
}

type softGrid struct {
	label    string
	w, h     int
	layout   Layout
	data     []byte
	released atomic.Bool
}

func (g *softGrid) Label() string  { return g.label }
func (g *softGrid) Width() int     { return g.w }
func (g *softGrid) Height() int    { return g.h }
func (g *softGrid) Layout() Layout { return g.layout }
func (g *softGrid) Release()       { g.released.Store(true) }

// Sample implements Sampler over the grid with REPEAT addressing.
func (g *softGrid) Sample(u, v float32) uint8 {
	x := wrapIndex(int(math.Floor(float64(u)*float64(g.w))), g.w)
	y := wrapIndex(int(math.Floor(float64(v)*float64(g.h))), g.h)
	return g.data[y*g.w+x]
}

func (g *softGrid) Size() (int, int) { return g.w, g.h }

func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

type softStaging struct {
	label    string
	data     []byte
	stride   int
	released atomic.Bool
}

func (s *softStaging) Size() int { return len(s.data) }
func (s *softStaging) Release()  { s.released.Store(true) }

type softProgram struct {
	desc     ProgramDesc
	released atomic.Bool
}

func (p *softProgram) Label() string  { return p.desc.Label }
func (p *softProgram) Mode() ExecMode { return p.desc.Mode }
func (p *softProgram) Release()       { p.released.Store(true) }

type softCommandBuffer struct {
	label     string
	ops       []func() error
	submitted bool
}

func (c *softCommandBuffer) Label() string { return c.label }

type softEncoder struct {
	dev      *SoftDevice
	label    string
	ops      []func() error
	err      error
	finished bool
}

func (e *softEncoder) fail(format string, args ...any) {
	if e.err == nil {
		e.err = errors.Errorf("encoder %q: "+format, append([]any{e.label}, args...)...)
	}
}

func (e *softEncoder) bind(p Program, b Bindings, mode ExecMode, layout Layout) (*softProgram, *softGrid, *softGrid, bool) {
	prog, ok := p.(*softProgram)
	if !ok || prog.released.Load() {
		e.fail("%w: program", ErrReleased)
		return nil, nil, nil, false
	}
	if prog.desc.Mode != mode {
		e.fail("program %q is %v, recorded as %v", prog.desc.Label, prog.desc.Mode, mode)
		return nil, nil, nil, false
	}
	read, rok := b.Read.(*softGrid)
	write, wok := b.Write.(*softGrid)
	if !rok || !wok || read.released.Load() || write.released.Load() {
		e.fail("%w: bound grid", ErrReleased)
		return nil, nil, nil, false
	}
	if read == write {
		e.fail("read and write slots bound to the same grid %q", read.label)
		return nil, nil, nil, false
	}
	if read.w != write.w || read.h != write.h {
		e.fail("bound grids differ in size: %dx%d vs %dx%d", read.w, read.h, write.w, write.h)
		return nil, nil, nil, false
	}
	if read.layout != layout || write.layout != layout {
		e.fail("%w: %v program needs %v grids", ErrUnsupported, mode, layout)
		return nil, nil, nil, false
	}
	return prog, read, write, true
}

func (e *softEncoder) Draw(p Program, b Bindings) {
	prog, read, write, ok := e.bind(p, b, ExecRaster, LayoutTexture)
	if !ok {
		return
	}
	workers := e.dev.workers
	frag := prog.desc.Fragment
	e.ops = append(e.ops, func() error {
		return forBands(write.h, workers, func(y0, y1 int) {
			fw, fh := float32(write.w), float32(write.h)
			for y := y0; y < y1; y++ {
				v := (float32(y) + 0.5) / fh
				row := write.data[y*write.w : (y+1)*write.w]
				for x := range row {
					row[x] = frag(read, (float32(x)+0.5)/fw, v)
				}
			}
		})
	})
}

func (e *softEncoder) Dispatch(p Program, b Bindings, groupsX, groupsY int) {
	prog, read, write, ok := e.bind(p, b, ExecCompute, LayoutLinear)
	if !ok {
		return
	}
	tile := prog.desc.TileSize
	if groupsX < 1 || groupsY < 1 || groupsX*tile < write.w || groupsY*tile < write.h {
		e.fail("dispatch %dx%d groups of %d does not cover %dx%d", groupsX, groupsY, tile, write.w, write.h)
		return
	}
	workers := e.dev.workers
	kernel := prog.desc.Compute
	e.ops = append(e.ops, func() error {
		var g errgroup.Group
		g.SetLimit(workers)
		for gy := 0; gy < groupsY; gy++ {
			g.Go(func() error {
				return guard(func() {
					for gx := 0; gx < groupsX; gx++ {
						r := image.Rect(gx*tile, gy*tile, (gx+1)*tile, (gy+1)*tile).Intersect(image.Rect(0, 0, write.w, write.h))
						if !r.Empty() {
							kernel(read.data, write.data, write.w, write.h, r)
						}
					}
				})
			})
		}
		return g.Wait()
	})
}

func (e *softEncoder) CopyGridToStaging(src Grid, region image.Rectangle, dst Staging, bytesPerRow int) {
	g, ok := src.(*softGrid)
	if !ok || g.released.Load() {
		e.fail("%w: copy source", ErrReleased)
		return
	}
	st, ok := dst.(*softStaging)
	if !ok || st.released.Load() {
		e.fail("%w: copy destination", ErrReleased)
		return
	}
	if err := validCopy(g.w, g.h, region, bytesPerRow, len(st.data), e.dev.limits.CopyRowAlignment); err != nil {
		e.fail("%w", err)
		return
	}
	e.ops = append(e.ops, func() error {
		for row := 0; row < region.Dy(); row++ {
			off := (region.Min.Y+row)*g.w + region.Min.X
			copy(st.data[row*bytesPerRow:], g.data[off:off+region.Dx()])
		}
		st.stride = bytesPerRow
		return nil
	})
}

func (e *softEncoder) Finish() (CommandBuffer, error) {
	if e.finished {
		return nil, errors.Errorf("encoder %q already finished", e.label)
	}
	e.finished = true
	if e.err != nil {
		return nil, e.err
	}
	return &softCommandBuffer{label: e.label, ops: e.ops}, nil
}

// forBands splits rows [0, rows) into at most workers contiguous bands and
// runs fn on each concurrently.
func forBands(rows, workers int, fn func(y0, y1 int)) error {
	if workers < 1 {
		workers = 1
	}
	per := (rows + workers - 1) / workers
	var g errgroup.Group
	for y0 := 0; y0 < rows; y0 += per {
		y1 := min(y0+per, rows)
		g.Go(func() error {
			return guard(func() { fn(y0, y1) })
		})
	}
	return g.Wait()
}

type softJob struct {
	run  func() error
	fail func(error)
}

// softQueue is the device timeline: jobs run one at a time in submission order.
type softQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	jobs   []softJob
	lost   error
	closed bool
	done   chan struct{}
}

var errDeviceClosed = errors.Wrap(ErrDeviceLost, "device closed")

func newSoftQueue() *softQueue {
	q := &softQueue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *softQueue) loop() {
	defer close(q.done)
	q.mu.Lock()
	for {
		for len(q.jobs) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.jobs) == 0 {
			q.mu.Unlock()
			return
		}
		job := q.jobs[0]
		q.jobs[0] = softJob{}
		q.jobs = q.jobs[1:]
		lost := q.lost
		q.mu.Unlock()

		if lost != nil {
			if job.fail != nil {
				job.fail(lost)
			}
		} else if err := runJob(job); err != nil {
			q.lose(err)
			if job.fail != nil {
				job.fail(q.err())
			}
		}

		q.mu.Lock()
	}
}

func runJob(job softJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("job panic: %v", r)
		}
	}()
	return job.run()
}

// guard turns a kernel panic on a worker goroutine into an error.
func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("kernel panic: %v", r)
		}
	}()
	fn()
	return nil
}

func (q *softQueue) err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.lost != nil {
		return q.lost
	}
	if q.closed {
		return errDeviceClosed
	}
	return nil
}

func (q *softQueue) lose(reason error) {
	q.mu.Lock()
	if q.lost == nil {
		q.lost = errors.Wrapf(ErrDeviceLost, "%v", reason)
	}
	q.cond.Broadcast()
	q.mu.Unlock()
}

func (q *softQueue) close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.cond.Broadcast()
	}
	q.mu.Unlock()
	<-q.done
}

func (q *softQueue) push(job softJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.lost != nil {
		return q.lost
	}
	if q.closed {
		return errDeviceClosed
	}
	q.jobs = append(q.jobs, job)
	q.cond.Signal()
	return nil
}

func (q *softQueue) WriteGrid(dst Grid, region image.Rectangle, data []byte) error {
	g, ok := dst.(*softGrid)
	if !ok || g.released.Load() {
		return errors.Wrap(ErrReleased, "writing grid")
	}
	if region.Empty() || !region.In(image.Rect(0, 0, g.w, g.h)) {
		return errors.Wrapf(ErrInvalidCopy, "write region %v outside %dx%d grid", region, g.w, g.h)
	}
	if len(data) != region.Dx()*region.Dy() {
		return errors.Wrapf(ErrInvalidCopy, "%d bytes for %v", len(data), region)
	}
	buf := append([]byte(nil), data...)
	return q.push(softJob{run: func() error {
		w := region.Dx()
		for row := 0; row < region.Dy(); row++ {
			off := (region.Min.Y+row)*g.w + region.Min.X
			copy(g.data[off:off+w], buf[row*w:(row+1)*w])
		}
		return nil
	}})
}

func (q *softQueue) Submit(cmds ...CommandBuffer) error {
	for _, c := range cmds {
		cb, ok := c.(*softCommandBuffer)
		if !ok {
			return errors.Wrapf(ErrUnsupported, "submitting %T", c)
		}
		if cb.submitted {
			return errors.Errorf("command buffer %q submitted twice", cb.label)
		}
		cb.submitted = true
		ops := cb.ops
		err := q.push(softJob{run: func() error {
			for _, op := range ops {
				if err := op(); err != nil {
					return err
				}
			}
			return nil
		}})
		if err != nil {
			return err
		}
	}
	return nil
}

func (q *softQueue) MapRead(s Staging) <-chan MapResult {
	ch := make(chan MapResult, 1)
	st, ok := s.(*softStaging)
	if !ok || st.released.Load() {
		ch <- MapResult{Err: errors.Wrap(ErrReleased, "mapping staging")}
		return ch
	}
	err := q.push(softJob{
		run: func() error {
			data := append([]byte(nil), st.data...)
			stride := st.stride
			st.Release()
			ch <- MapResult{Data: data, Stride: stride}
			return nil
		},
		fail: func(err error) {
			st.Release()
			ch <- MapResult{Err: err}
		},
	})
	if err != nil {
		st.Release()
		ch <- MapResult{Err: err}
	}
	return ch
}
