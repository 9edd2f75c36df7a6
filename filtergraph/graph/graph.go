// Package graph runs audio frames of arbitrary size through a chain of
// filters, buffering every input so that multi-input filters always see
// aligned chunks.
package graph

import (
	"errors"
	"fmt"

	"github.com/livekit/protocol/logger"

	"gofiltergraph/filtergraph/filter"
	"gofiltergraph/filtergraph/pcm"
)

type state int

const (
	stateBuilding state = iota
	stateRunning
	stateFailed
	stateDrained
	stateClosed
)

// Option configures a FilterGraph.
type Option func(*FilterGraph)

// WithLogger sets the logger used by the graph.
func WithLogger(log logger.Logger) Option {
	return func(g *FilterGraph) {
		if log != nil {
			g.log = log
		}
	}
}

// WithRegistry sets the registry filter names are resolved against.
func WithRegistry(r *filter.Registry) Option {
	return func(g *FilterGraph) {
		if r != nil {
			g.registry = r
		}
	}
}

// FilterGraph runs a chain of filters over one or more input streams.
//
// Filters are declared with AddFilter and the chain is built on the first
// call to Process (or Init). From then on the chain is frozen. Every input
// has its own FrameBuffer so inputs arriving in frames of different sizes
// are pushed into the chain in aligned, equally sized chunks.
//
// A FilterGraph is not safe for concurrent use.
type FilterGraph struct {
	log      logger.Logger
	registry *filter.Registry
	codec    CodecContext

	inputs  []pcm.FrameDescriptor
	buffers []*pcm.FrameBuffer
	nodes   []*Node

	state   state
	initErr error
	native  *nativeGraph
}

// New creates a graph whose output is consumed according to codec. Each
// descriptor in inputs declares one input stream. Without inputs the graph
// has a single input laid out like the codec.
func New(codec CodecContext, inputs []pcm.FrameDescriptor, opts ...Option) *FilterGraph {
	if len(inputs) == 0 {
		inputs = []pcm.FrameDescriptor{codec.Descriptor()}
	}
	g := &FilterGraph{
		log:      logger.GetLogger(),
		registry: filter.Default,
		codec:    codec,
		inputs:   inputs,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.buffers = make([]*pcm.FrameBuffer, len(inputs))
	for i, desc := range inputs {
		g.buffers[i] = pcm.NewFrameBuffer(desc)
	}
	return g
}

// AddFilter appends a filter to the chain. The instance name defaults to
// the filter name.
func (g *FilterGraph) AddFilter(name, options, instance string) (*Node, error) {
	switch g.state {
	case stateBuilding:
	case stateClosed:
		return nil, ErrGraphClosed
	default:
		return nil, fmt.Errorf("%w: cannot add %q", ErrAlreadyInitialized, name)
	}
	def, err := g.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	if instance == "" {
		instance = name
	}
	n := &Node{def: def, options: options, instance: instance}
	g.nodes = append(g.nodes, n)
	return n, nil
}

// AddChain appends every filter of a chain description such as
// "volume=0.5,aresample=16000".
func (g *FilterGraph) AddChain(desc string) ([]*Node, error) {
	specs, err := filter.ParseChain(desc)
	if err != nil {
		return nil, err
	}
	nodes := make([]*Node, 0, len(specs))
	for _, s := range specs {
		n, err := g.AddFilter(s.Name, s.Options, s.Instance)
		if err != nil {
			return nodes, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// Filters returns the declared chain in order.
func (g *FilterGraph) Filters() []*Node {
	return append([]*Node(nil), g.nodes...)
}

func (g *FilterGraph) HasFilters() bool {
	return len(g.nodes) > 0
}

// NumInputs returns the number of declared input streams.
func (g *FilterGraph) NumInputs() int {
	return len(g.inputs)
}

// HasBufferedFrames reports whether any input holds samples that have not
// been pushed into the chain yet.
func (g *FilterGraph) HasBufferedFrames() bool {
	return !areFrameBuffersEmpty(g.buffers)
}

// HasBufferedFramesAt reports whether input i holds samples that have not
// been pushed into the chain yet.
func (g *FilterGraph) HasBufferedFramesAt(i int) bool {
	if i < 0 || i >= len(g.buffers) {
		return false
	}
	return !g.buffers[i].IsEmpty()
}

// BufferedSamples returns the number of samples waiting on input i.
func (g *FilterGraph) BufferedSamples(i int) int {
	if i < 0 || i >= len(g.buffers) {
		return 0
	}
	return g.buffers[i].SampleCount()
}

// Output returns the layout of the frames the graph produces. It is only
// known once the graph is initialized.
func (g *FilterGraph) Output() (pcm.FrameDescriptor, bool) {
	if g.native == nil {
		return pcm.FrameDescriptor{}, false
	}
	return g.native.output(), true
}

// Init builds the chain. Process calls it on first use; calling it again is
// a no-op. A failed init is final.
func (g *FilterGraph) Init() error {
	switch g.state {
	case stateBuilding:
	case stateFailed:
		return g.initErr
	case stateClosed:
		return ErrGraphClosed
	default:
		return nil
	}
	native, err := buildNativeGraph(g.nodes, g.inputs, g.codec)
	if err != nil {
		g.state = stateFailed
		g.initErr = err
		g.log.Warnw("filter graph init failed", err, "filters", g.describe())
		return err
	}
	g.native = native
	g.state = stateRunning
	g.log.Infow("filter graph initialized",
		"filters", g.describe(),
		"inputs", len(g.inputs),
		"output", native.output().String(),
		"frameSamples", native.sink.frameSamples,
	)
	return nil
}

func (g *FilterGraph) describe() []string {
	out := make([]string, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n.String())
	}
	return out
}

func (g *FilterGraph) ready() error {
	if err := g.Init(); err != nil {
		return err
	}
	switch g.state {
	case stateDrained:
		return ErrGraphDrained
	case stateClosed:
		return ErrGraphClosed
	}
	return nil
}

// Process buffers one frame per input, pushes as many aligned samples as
// every input can deliver and appends all ready output to output. Input
// frames are borrowed; nil or empty entries mean no new data on that
// input. Passing no inputs only drains what the chain already holds.
//
// Without filters Process does nothing and output is left untouched.
// The caller owns output and must reset it once consumed.
func (g *FilterGraph) Process(inputs []*pcm.Frame, output *pcm.Frame) error {
	if !g.HasFilters() {
		return nil
	}
	frames, err := g.ProcessFrames(inputs)
	if aerr := appendFrames(output, frames); err == nil {
		err = aerr
	}
	return err
}

// ProcessFrames is Process returning every ready output frame separately.
// The caller owns the returned frames.
func (g *FilterGraph) ProcessFrames(inputs []*pcm.Frame) ([]*pcm.Frame, error) {
	if !g.HasFilters() {
		return nil, nil
	}
	if err := g.ready(); err != nil {
		return nil, err
	}
	if len(inputs) != 0 && len(inputs) != len(g.buffers) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInputCount, len(inputs), len(g.buffers))
	}

	if err := g.pushInputs(inputs); err != nil {
		return nil, err
	}
	return g.pullReady()
}

func (g *FilterGraph) pushInputs(inputs []*pcm.Frame) error {
	if areInputFrameSizesEqual(inputs) && areFrameBuffersEmpty(g.buffers) {
		for i, in := range inputs {
			if err := checkFrame(in, g.buffers[i].Descriptor()); err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
		}
		return g.native.push(inputs)
	}

	// Validate every input first so a rejected call buffers nothing.
	for i, in := range inputs {
		if in.DataSize() == 0 {
			continue
		}
		if err := checkFrame(in, g.buffers[i].Descriptor()); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
	}
	for i, in := range inputs {
		if in.DataSize() == 0 {
			if in != nil {
				g.log.Debugw("empty input frame skipped", "input", i)
			}
			continue
		}
		if err := g.buffers[i].AddFrame(in.Retain()); err != nil {
			in.Release()
			return fmt.Errorf("input %d: %w", i, err)
		}
	}

	available := make([]int, len(g.buffers))
	for i, b := range g.buffers {
		var in *pcm.Frame
		if i < len(inputs) {
			in = inputs[i]
		}
		available[i] = availableSamples(in, b)
	}
	n := minInputSamples(available)
	if n == 0 {
		if g.HasBufferedFrames() {
			g.log.Debugw("input starved", "available", available)
		}
		return nil
	}
	return g.pushSamples(n)
}

// pushSamples takes n samples from every input buffer and pushes them.
func (g *FilterGraph) pushSamples(n int) error {
	chunks := make([]*pcm.Frame, 0, len(g.buffers))
	defer func() {
		for _, c := range chunks {
			c.Release()
		}
	}()
	for i, b := range g.buffers {
		c, err := b.GetFrameSamples(n)
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		chunks = append(chunks, c)
	}
	return g.native.push(chunks)
}

func (g *FilterGraph) pullReady() ([]*pcm.Frame, error) {
	var out []*pcm.Frame
	for {
		f, status, err := g.native.pull()
		if err != nil {
			return out, err
		}
		if status != pullReady {
			return out, nil
		}
		out = append(out, f)
	}
}

// Flush ends the stream: the remaining buffered input is pushed, shorter
// inputs padded with silence to the longest one, filters holding samples
// back are drained and the last, possibly short, frame is appended to
// output. Process fails with ErrGraphDrained afterwards.
func (g *FilterGraph) Flush(output *pcm.Frame) error {
	if !g.HasFilters() {
		return nil
	}
	frames, err := g.FlushFrames()
	if aerr := appendFrames(output, frames); err == nil {
		err = aerr
	}
	return err
}

// FlushFrames is Flush returning every output frame separately.
func (g *FilterGraph) FlushFrames() ([]*pcm.Frame, error) {
	if !g.HasFilters() || g.state == stateDrained {
		return nil, nil
	}
	if err := g.ready(); err != nil {
		return nil, err
	}

	longest := 0
	for _, b := range g.buffers {
		longest = max(longest, b.SampleCount())
	}
	if longest > 0 {
		for i, b := range g.buffers {
			if pad := longest - b.SampleCount(); pad > 0 {
				g.log.Debugw("padding input with silence", "input", i, "samples", pad)
				if err := b.AddFrame(pcm.SilenceFrame(b.Descriptor(), pad)); err != nil {
					return nil, fmt.Errorf("input %d: %w", i, err)
				}
			}
		}
		if err := g.pushSamples(longest); err != nil {
			return nil, err
		}
	}

	if err := g.native.flush(); err != nil {
		return nil, err
	}
	out, err := g.pullReady()
	g.state = stateDrained
	g.log.Debugw("filter graph flushed", "frames", len(out))
	return out, err
}

// Close releases the chain and every buffered frame. It is safe to call
// more than once and after a failed init.
func (g *FilterGraph) Close() error {
	if g.state == stateClosed {
		return nil
	}
	g.state = stateClosed
	var errs []error
	if g.native != nil {
		errs = append(errs, g.native.close())
		g.native = nil
	}
	for _, b := range g.buffers {
		b.Clear()
	}
	return errors.Join(errs...)
}

// checkFrame reports whether f can be queued on an input laid out as desc.
func checkFrame(f *pcm.Frame, desc pcm.FrameDescriptor) error {
	if f.Descriptor() != desc {
		return fmt.Errorf("%w: %s, want %s", pcm.ErrFormatMismatch, f.Descriptor(), desc)
	}
	if bps := desc.BytesPerSample(); bps > 0 && f.DataSize()%bps != 0 {
		return fmt.Errorf("%w: %d bytes is not a whole number of %d byte samples", pcm.ErrFormatMismatch, f.DataSize(), bps)
	}
	return nil
}

// appendFrames copies frames into output and releases them. An empty
// output takes the layout of the first frame; a frame with another layout
// than a non-empty output is dropped with ErrFormatMismatch.
func appendFrames(output *pcm.Frame, frames []*pcm.Frame) error {
	var err error
	for _, f := range frames {
		if output != nil && err == nil {
			switch {
			case output.DataSize() == 0:
				output.SetDescriptor(f.Descriptor())
				output.Append(f.Data())
			case output.Descriptor() != f.Descriptor():
				err = fmt.Errorf("output: %w: %s, want %s", pcm.ErrFormatMismatch, f.Descriptor(), output.Descriptor())
			default:
				output.Append(f.Data())
			}
		}
		f.Release()
	}
	return err
}
