package filtergraph

import (
	"errors"
	"fmt"

	msdk "github.com/livekit/media-sdk"

	"gofiltergraph/filtergraph/graph"
	"gofiltergraph/filtergraph/pcm"
)

// GraphWriter plugs a single input filter graph into a media-sdk writer
// chain. Samples written to it go through the graph and whatever the graph
// produces is written to the next writer.
type GraphWriter struct {
	graph *graph.FilterGraph
	in    pcm.FrameDescriptor
	out   pcm.FrameDescriptor
	next  msdk.PCM16Writer

	// scratch
	b []byte
}

var _ msdk.PCM16Writer = (*GraphWriter)(nil)

// NewGraphWriter initializes g. Both the graph input and output must be s16
// and next must run at the graph output rate.
func NewGraphWriter(g *graph.FilterGraph, in pcm.FrameDescriptor, next msdk.PCM16Writer) (*GraphWriter, error) {
	if g.NumInputs() != 1 {
		return nil, fmt.Errorf("%w: graph writer needs one input, graph has %d", graph.ErrInputCount, g.NumInputs())
	}
	if in.Format != pcm.FormatS16 {
		return nil, fmt.Errorf("graph writer: %w: input is %s, want s16", pcm.ErrFormatMismatch, in.Format)
	}
	w := &GraphWriter{graph: g, in: in, out: in, next: next}
	if g.HasFilters() {
		if err := g.Init(); err != nil {
			return nil, err
		}
		w.out, _ = g.Output()
	}
	if w.out.Format != pcm.FormatS16 {
		return nil, fmt.Errorf("graph writer: %w: output is %s, want s16", pcm.ErrFormatMismatch, w.out.Format)
	}
	if rate := next.SampleRate(); rate != w.out.SampleRate {
		return nil, fmt.Errorf("graph writer: next writer runs at %d Hz, graph produces %d Hz", rate, w.out.SampleRate)
	}
	return w, nil
}

func (w *GraphWriter) String() string {
	return fmt.Sprintf("Graph(%s) -> %s", w.in, w.next.String())
}

func (w *GraphWriter) SampleRate() int { return w.in.SampleRate }

func (w *GraphWriter) WriteSample(sample msdk.PCM16Sample) error {
	if len(sample) == 0 {
		return nil
	}
	if !w.graph.HasFilters() {
		return w.next.WriteSample(sample)
	}
	w.b = pcm.PCM16SampleToBytes(w.b, sample)
	f := pcm.CopyFrame(w.in, w.b)
	frames, err := w.graph.ProcessFrames([]*pcm.Frame{f})
	f.Release()
	if err != nil {
		return err
	}
	return w.forward(frames)
}

func (w *GraphWriter) forward(frames []*pcm.Frame) error {
	var errs []error
	for _, f := range frames {
		if len(errs) == 0 {
			if err := w.next.WriteSample(pcm.PCM16BytesToSample(nil, f.Data())); err != nil {
				errs = append(errs, err)
			}
		}
		f.Release()
	}
	return errors.Join(errs...)
}

// Close flushes the graph into the next writer, then closes the graph and
// the next writer.
func (w *GraphWriter) Close() error {
	var errs []error
	if w.graph.HasFilters() {
		frames, err := w.graph.FlushFrames()
		if err != nil {
			errs = append(errs, err)
		}
		if err := w.forward(frames); err != nil {
			errs = append(errs, err)
		}
	}
	if err := w.graph.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := w.next.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
