package graph

import (
	"errors"
	"fmt"

	"gofiltergraph/filtergraph/filter"
	"gofiltergraph/filtergraph/pcm"
)

type pullStatus int

const (
	pullReady pullStatus = iota
	pullNeedMore
	pullEOF
)

type filterInstance struct {
	node   *Node
	filter filter.Filter
	out    pcm.FrameDescriptor
}

// nativeGraph is the built processing graph: the input sources feed the
// first filter, every filter feeds the next one and the last one feeds the
// sink. It is owned by exactly one FilterGraph.
type nativeGraph struct {
	inputs []pcm.FrameDescriptor
	chain  []*filterInstance
	sink   *sink
}

// sink collects the chain output. With a fixed frame size it only hands out
// frames of that size, except for the last one at end of stream.
type sink struct {
	frameSamples int
	buffer       *pcm.FrameBuffer
	eof          bool
}

func buildNativeGraph(nodes []*Node, inputs []pcm.FrameDescriptor, codec CodecContext) (_ *nativeGraph, err error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: no filters", ErrGraphInit)
	}
	for i, in := range inputs {
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("%w: input %d: %w", ErrGraphInit, i, err)
		}
	}

	g := &nativeGraph{inputs: inputs}
	defer func() {
		if err != nil {
			_ = g.close()
		}
	}()

	descs := inputs
	for _, node := range nodes {
		opts, err := filter.ParseOptions(node.Options())
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrGraphInit, node.InstanceName(), err)
		}
		f, err := node.def.New(opts)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrGraphInit, node.InstanceName(), err)
		}
		inst := &filterInstance{node: node, filter: f}
		g.chain = append(g.chain, inst)

		inst.out, err = f.Configure(descs)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrGraphInit, node.InstanceName(), err)
		}
		descs = []pcm.FrameDescriptor{inst.out}
	}

	out := descs[0]
	if want := codec.Descriptor(); !want.IsZero() && want != out {
		return nil, fmt.Errorf("%w: chain produces %s, output expects %s", ErrGraphInit, out, want)
	}
	g.sink = &sink{
		frameSamples: max(codec.FrameSamples(), 0),
		buffer:       pcm.NewFrameBuffer(out),
	}
	return g, nil
}

func (g *nativeGraph) output() pcm.FrameDescriptor {
	return g.sink.buffer.Descriptor()
}

// push runs one frame per input through the chain. The frames are borrowed.
func (g *nativeGraph) push(frames []*pcm.Frame) error {
	if g.sink.eof {
		return ErrGraphDrained
	}
	return g.feed(0, frames)
}

func (g *nativeGraph) feed(stage int, frames []*pcm.Frame) error {
	if stage == len(g.chain) {
		for _, f := range frames {
			if err := g.sink.buffer.AddFrame(f.Retain()); err != nil {
				f.Release()
				return fmt.Errorf("sink: %w", err)
			}
		}
		return nil
	}
	inst := g.chain[stage]
	out, err := inst.filter.Filter(frames)
	if err != nil {
		return fmt.Errorf("%s: %w", inst.node.InstanceName(), err)
	}
	return g.forward(stage+1, out)
}

// forward feeds every frame in out to stage and releases them.
func (g *nativeGraph) forward(stage int, out []*pcm.Frame) error {
	defer func() {
		for _, f := range out {
			f.Release()
		}
	}()
	for _, f := range out {
		if err := g.feed(stage, []*pcm.Frame{f}); err != nil {
			return err
		}
	}
	return nil
}

// flush drains the filters that hold samples back, in chain order, and
// marks the end of stream.
func (g *nativeGraph) flush() error {
	if g.sink.eof {
		return nil
	}
	for i, inst := range g.chain {
		fl, ok := inst.filter.(filter.Flusher)
		if !ok {
			continue
		}
		out, err := fl.Flush()
		if err != nil {
			return fmt.Errorf("%s: flush: %w", inst.node.InstanceName(), err)
		}
		if err := g.forward(i+1, out); err != nil {
			return err
		}
	}
	g.sink.eof = true
	return nil
}

func (g *nativeGraph) pull() (*pcm.Frame, pullStatus, error) {
	s := g.sink
	if s.buffer.IsEmpty() {
		if s.eof {
			return nil, pullEOF, nil
		}
		return nil, pullNeedMore, nil
	}
	var size int
	switch {
	case s.frameSamples == 0:
		size = 0
	case s.buffer.SampleCount() >= s.frameSamples:
		size = s.frameSamples * s.buffer.BytesPerSample()
	case s.eof:
		size = s.buffer.DataSize()
	default:
		return nil, pullNeedMore, nil
	}
	f, err := s.buffer.GetFrame(size)
	if err != nil {
		return nil, pullNeedMore, err
	}
	return f, pullReady, nil
}

func (g *nativeGraph) close() error {
	var errs []error
	for _, inst := range g.chain {
		if err := inst.filter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", inst.node.InstanceName(), err))
		}
	}
	g.chain = nil
	if g.sink != nil {
		g.sink.buffer.Clear()
	}
	return errors.Join(errs...)
}
