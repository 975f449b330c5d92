//go:build opencl

package gpu

import (
	"image"
	"log/slog"
	"strings"
	"sync"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"
	"github.com/pkg/errors"
)

// clDevice runs programs through an OpenCL command queue. Grids with
// LayoutTexture are 2-D images of one unsigned byte channel; LayoutLinear
// grids are plain buffers.
type clDevice struct {
	log     *slog.Logger
	device  *cl.Device
	context *cl.Context
	queue   *clQueue
	name    string
	limits  Limits
}

func newOpenCLDevice(logger *slog.Logger) (Device, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		msg := "querying OpenCL platforms"
		if strings.Contains(err.Error(), "-1001") {
			msg += ": no ICD loader reported any platforms; install OpenCL drivers and verify with `clinfo`"
		}
		return nil, errors.Wrap(err, msg)
	}
	if len(platforms) == 0 {
		return nil, errors.New("no OpenCL platforms available; ensure a vendor driver is installed and detected by `clinfo`")
	}
	device := pickDevice(platforms, cl.DeviceTypeGPU)
	if device == nil {
		device = pickDevice(platforms, cl.DeviceTypeCPU)
	}
	if device == nil {
		return nil, errors.New("no suitable OpenCL devices found")
	}

	context, err := cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return nil, errors.Wrap(err, "creating OpenCL context")
	}
	queue, err := context.CreateCommandQueue(device, 0)
	if err != nil {
		context.Release()
		return nil, errors.Wrap(err, "creating OpenCL command queue")
	}
	maxDim := device.Image2DMaxWidth()
	if h := device.Image2DMaxHeight(); h < maxDim {
		maxDim = h
	}
	d := &clDevice{
		log:     logger,
		device:  device,
		context: context,
		queue:   &clQueue{queue: queue},
		name:    device.Name(),
		limits: Limits{
			CopyRowAlignment: DefaultCopyRowAlignment,
			MaxGridDimension: maxDim,
		},
	}
	logger.Info("opened OpenCL device", "name", d.name, "max_grid_dimension", maxDim)
	return d, nil
}

func pickDevice(platforms []*cl.Platform, kind cl.DeviceType) *cl.Device {
	for _, p := range platforms {
		devices, err := p.GetDevices(kind)
		if err != nil && err != cl.ErrDeviceNotFound {
			continue
		}
		if len(devices) > 0 {
			return devices[0]
		}
	}
	return nil
}

func (d *clDevice) Name() string                   { return d.name }
func (d *clDevice) Limits() Limits                 { return d.limits }
func (d *clDevice) Queue() Queue                   { return d.queue }
func (d *clDevice) Supports(mode ExecMode) bool    { return mode == ExecRaster || mode == ExecCompute }
func (d *clDevice) CreateEncoder(l string) Encoder { return &clEncoder{dev: d, label: l} }

func (d *clDevice) Close() error {
	if err := d.queue.queue.Finish(); err != nil {
		d.log.Warn("draining OpenCL queue", "err", err)
	}
	d.queue.queue.Release()
	d.context.Release()
	return nil
}

func (d *clDevice) CreateGrid(desc GridDesc) (Grid, error) {
	if err := d.queue.err(); err != nil {
		return nil, err
	}
	if desc.Width <= 0 || desc.Height <= 0 || desc.Width > d.limits.MaxGridDimension || desc.Height > d.limits.MaxGridDimension {
		return nil, errors.Errorf("creating grid %q: %dx%d outside device limits", desc.Label, desc.Width, desc.Height)
	}
	var (
		mem *cl.MemObject
		err error
	)
	switch desc.Layout {
	case LayoutTexture:
		mem, err = d.context.CreateImageSimple(cl.MemReadWrite, desc.Width, desc.Height, cl.ChannelOrderR, cl.ChannelDataTypeUnsignedInt8, nil)
	case LayoutLinear:
		mem, err = d.context.CreateEmptyBuffer(cl.MemReadWrite, desc.Width*desc.Height)
	default:
		return nil, errors.Wrapf(ErrUnsupported, "layout %v", desc.Layout)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "allocating grid %q", desc.Label)
	}
	return &clGrid{label: desc.Label, w: desc.Width, h: desc.Height, layout: desc.Layout, mem: mem}, nil
}

func (d *clDevice) CreateStaging(label string, size int) (Staging, error) {
	if size <= 0 {
		return nil, errors.Errorf("creating staging %q: size %d", label, size)
	}
	return &clStaging{label: label, data: make([]byte, size)}, nil
}

func (d *clDevice) CreateProgram(desc ProgramDesc) (Program, error) {
	if desc.Source == "" || desc.Entry == "" {
		return nil, errors.Wrapf(ErrUnsupported, "program %q has no OpenCL source", desc.Label)
	}
	program, err := d.context.CreateProgramWithSource([]string{desc.Source})
	if err != nil {
		return nil, errors.Wrapf(err, "creating OpenCL program %q", desc.Label)
	}
	if err := program.BuildProgram([]*cl.Device{d.device}, ""); err != nil {
		program.Release()
		if buildErr, ok := err.(cl.BuildError); ok {
			return nil, errors.Errorf("building OpenCL program %q: %s", desc.Label, string(buildErr))
		}
		return nil, errors.Wrapf(err, "building OpenCL program %q", desc.Label)
	}
	kernel, err := program.CreateKernel(desc.Entry)
	if err != nil {
		program.Release()
		return nil, errors.Wrapf(err, "creating OpenCL kernel %q", desc.Entry)
	}
	return &clProgram{desc: desc, program: program, kernel: kernel}, nil
}

type clGrid struct {
	label    string
	w, h     int
	layout   Layout
	mem      *cl.MemObject
	released bool
}

func (g *clGrid) Label() string  { return g.label }
func (g *clGrid) Width() int     { return g.w }
func (g *clGrid) Height() int    { return g.h }
func (g *clGrid) Layout() Layout { return g.layout }

func (g *clGrid) Release() {
	if !g.released {
		g.released = true
		g.mem.Release()
	}
}

type clStaging struct {
	label    string
	data     []byte
	stride   int
	events   []*cl.Event
	released bool
}

func (s *clStaging) Size() int { return len(s.data) }

func (s *clStaging) Release() {
	s.released = true
	for _, ev := range s.events {
		ev.Release()
	}
	s.events = nil
}

type clProgram struct {
	desc     ProgramDesc
	program  *cl.Program
	kernel   *cl.Kernel
	released bool
}

func (p *clProgram) Label() string  { return p.desc.Label }
func (p *clProgram) Mode() ExecMode { return p.desc.Mode }

func (p *clProgram) Release() {
	if !p.released {
		p.released = true
		p.kernel.Release()
		p.program.Release()
	}
}

type clCommandBuffer struct {
	label     string
	ops       []func(q *cl.CommandQueue) error
	submitted bool
}

func (c *clCommandBuffer) Label() string { return c.label }

type clEncoder struct {
	dev      *clDevice
	label    string
	ops      []func(q *cl.CommandQueue) error
	err      error
	finished bool
}

func (e *clEncoder) fail(err error) {
	if e.err == nil {
		e.err = errors.Wrapf(err, "encoder %q", e.label)
	}
}

func (e *clEncoder) bind(p Program, b Bindings, mode ExecMode, layout Layout) (*clProgram, *clGrid, *clGrid, bool) {
	prog, ok := p.(*clProgram)
	if !ok || prog.released {
		e.fail(ErrReleased)
		return nil, nil, nil, false
	}
	read, rok := b.Read.(*clGrid)
	write, wok := b.Write.(*clGrid)
	switch {
	case !rok || !wok || read.released || write.released:
		e.fail(ErrReleased)
	case prog.desc.Mode != mode:
		e.fail(errors.Errorf("program %q is %v, recorded as %v", prog.desc.Label, prog.desc.Mode, mode))
	case read == write:
		e.fail(errors.Errorf("read and write slots bound to the same grid %q", read.label))
	case read.w != write.w || read.h != write.h:
		e.fail(errors.New("bound grids differ in size"))
	case read.layout != layout || write.layout != layout:
		e.fail(errors.Wrapf(ErrUnsupported, "%v program needs %v grids", mode, layout))
	default:
		return prog, read, write, true
	}
	return nil, nil, nil, false
}

func (e *clEncoder) Draw(p Program, b Bindings) {
	prog, read, write, ok := e.bind(p, b, ExecRaster, LayoutTexture)
	if !ok {
		return
	}
	e.ops = append(e.ops, func(q *cl.CommandQueue) error {
		if err := prog.kernel.SetArgs(int32(write.w), int32(write.h), read.mem, write.mem); err != nil {
			return errors.Wrapf(err, "setting %s args", prog.desc.Entry)
		}
		ev, err := q.EnqueueNDRangeKernel(prog.kernel, nil, []int{write.w, write.h}, nil, nil)
		if err != nil {
			return errors.Wrapf(err, "enqueueing %s", prog.desc.Entry)
		}
		ev.Release()
		return nil
	})
}

func (e *clEncoder) Dispatch(p Program, b Bindings, groupsX, groupsY int) {
	prog, read, write, ok := e.bind(p, b, ExecCompute, LayoutLinear)
	if !ok {
		return
	}
	tile := prog.desc.TileSize
	if groupsX < 1 || groupsY < 1 || groupsX*tile < write.w || groupsY*tile < write.h {
		e.fail(errors.Errorf("dispatch %dx%d groups of %d does not cover %dx%d", groupsX, groupsY, tile, write.w, write.h))
		return
	}
	e.ops = append(e.ops, func(q *cl.CommandQueue) error {
		if err := prog.kernel.SetArgs(int32(write.w), int32(write.h), read.mem, write.mem); err != nil {
			return errors.Wrapf(err, "setting %s args", prog.desc.Entry)
		}
		global := []int{groupsX * tile, groupsY * tile}
		local := []int{tile, tile}
		ev, err := q.EnqueueNDRangeKernel(prog.kernel, nil, global, local, nil)
		if err != nil {
			return errors.Wrapf(err, "enqueueing %s", prog.desc.Entry)
		}
		ev.Release()
		return nil
	})
}

func (e *clEncoder) CopyGridToStaging(src Grid, region image.Rectangle, dst Staging, bytesPerRow int) {
	g, ok := src.(*clGrid)
	if !ok || g.released {
		e.fail(ErrReleased)
		return
	}
	st, ok := dst.(*clStaging)
	if !ok || st.released {
		e.fail(ErrReleased)
		return
	}
	if err := validCopy(g.w, g.h, region, bytesPerRow, len(st.data), e.dev.limits.CopyRowAlignment); err != nil {
		e.fail(err)
		return
	}
	e.ops = append(e.ops, func(q *cl.CommandQueue) error {
		st.stride = bytesPerRow
		if g.layout == LayoutTexture {
			origin := [3]int{region.Min.X, region.Min.Y, 0}
			size := [3]int{region.Dx(), region.Dy(), 1}
			ev, err := q.EnqueueReadImage(g.mem, false, origin, size, bytesPerRow, 0, st.data, nil)
			if err != nil {
				return errors.Wrapf(err, "reading image %q", g.label)
			}
			st.events = append(st.events, ev)
			return nil
		}
		for row := 0; row < region.Dy(); row++ {
			off := (region.Min.Y+row)*g.w + region.Min.X
			ptr := unsafe.Pointer(&st.data[row*bytesPerRow])
			ev, err := q.EnqueueReadBuffer(g.mem, false, off, region.Dx(), ptr, nil)
			if err != nil {
				return errors.Wrapf(err, "reading buffer %q", g.label)
			}
			st.events = append(st.events, ev)
		}
		return nil
	})
}

func (e *clEncoder) Finish() (CommandBuffer, error) {
	if e.finished {
		return nil, errors.Errorf("encoder %q already finished", e.label)
	}
	e.finished = true
	if e.err != nil {
		return nil, e.err
	}
	return &clCommandBuffer{label: e.label, ops: e.ops}, nil
}

// clQueue submits on the caller's goroutine; the in-order OpenCL queue is the
// device timeline.
type clQueue struct {
	queue *cl.CommandQueue
	mu    sync.Mutex
	lost  error
}

func (q *clQueue) err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lost
}

func (q *clQueue) lose(err error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.lost == nil {
		q.lost = errors.Wrapf(ErrDeviceLost, "%v", err)
	}
	return q.lost
}

func (q *clQueue) WriteGrid(dst Grid, region image.Rectangle, data []byte) error {
	if err := q.err(); err != nil {
		return err
	}
	g, ok := dst.(*clGrid)
	if !ok || g.released {
		return errors.Wrap(ErrReleased, "writing grid")
	}
	if region.Empty() || !region.In(image.Rect(0, 0, g.w, g.h)) {
		return errors.Wrapf(ErrInvalidCopy, "write region %v outside %dx%d grid", region, g.w, g.h)
	}
	if len(data) != region.Dx()*region.Dy() {
		return errors.Wrapf(ErrInvalidCopy, "%d bytes for %v", len(data), region)
	}
	if g.layout == LayoutTexture {
		origin := [3]int{region.Min.X, region.Min.Y, 0}
		size := [3]int{region.Dx(), region.Dy(), 1}
		ev, err := q.queue.EnqueueWriteImage(g.mem, true, origin, size, region.Dx(), 0, data, nil)
		if err != nil {
			return q.lose(errors.Wrapf(err, "writing image %q", g.label))
		}
		ev.Release()
		return nil
	}
	w := region.Dx()
	for row := 0; row < region.Dy(); row++ {
		off := (region.Min.Y+row)*g.w + region.Min.X
		ev, err := q.queue.EnqueueWriteBuffer(g.mem, true, off, w, unsafe.Pointer(&data[row*w]), nil)
		if err != nil {
			return q.lose(errors.Wrapf(err, "writing buffer %q", g.label))
		}
		ev.Release()
	}
	return nil
}

func (q *clQueue) Submit(cmds ...CommandBuffer) error {
	if err := q.err(); err != nil {
		return err
	}
	for _, c := range cmds {
		cb, ok := c.(*clCommandBuffer)
		if !ok {
			return errors.Wrapf(ErrUnsupported, "submitting %T", c)
		}
		if cb.submitted {
			return errors.Errorf("command buffer %q submitted twice", cb.label)
		}
		cb.submitted = true
		for _, op := range cb.ops {
			if err := op(q.queue); err != nil {
				return q.lose(err)
			}
		}
	}
	if err := q.queue.Flush(); err != nil {
		return q.lose(errors.Wrap(err, "flushing queue"))
	}
	return nil
}

func (q *clQueue) MapRead(s Staging) <-chan MapResult {
	ch := make(chan MapResult, 1)
	st, ok := s.(*clStaging)
	if !ok || st.released {
		ch <- MapResult{Err: errors.Wrap(ErrReleased, "mapping staging")}
		return ch
	}
	if err := q.err(); err != nil {
		st.Release()
		ch <- MapResult{Err: err}
		return ch
	}
	events := st.events
	go func() {
		var err error
		if len(events) > 0 {
			err = cl.WaitForEvents(events)
		} else {
			err = q.queue.Finish()
		}
		if err != nil {
			ch <- MapResult{Err: q.lose(errors.Wrap(err, "waiting for readback"))}
			st.Release()
			return
		}
		res := MapResult{Data: st.data, Stride: st.stride}
		st.Release()
		ch <- res
	}()
	return ch
}
