package filter

import (
	"errors"
	"fmt"

	msdk "github.com/livekit/media-sdk"

	"gofiltergraph/filtergraph/pcm"
)

func init() {
	Default.MustRegister(Definition{
		Name:        "aresample",
		Description: "change the sample rate of s16 audio (aresample=16000)",
		Inputs:      1,
		New:         newAResample,
	})
}

// aresample feeds every channel through its own media-sdk resample writer
// and interleaves what the writers emit.
type aresample struct {
	rate    int
	in, out pcm.FrameDescriptor

	writers []msdk.PCM16Writer
	sinks   []*planeSink
	closed  bool

	// scratch
	planes    []msdk.PCM16Sample
	outPlanes []msdk.PCM16Sample
	s16       msdk.PCM16Sample
	outS16    msdk.PCM16Sample
}

func newAResample(opts Options) (Filter, error) {
	if err := opts.Check("sample_rate"); err != nil {
		return nil, err
	}
	rate, err := opts.Int("sample_rate", 0, 0)
	if err != nil {
		return nil, err
	}
	if rate <= 0 {
		return nil, fmt.Errorf("%w: aresample needs a positive sample_rate", ErrInvalidOption)
	}
	return &aresample{rate: rate}, nil
}

func (r *aresample) Configure(inputs []pcm.FrameDescriptor) (pcm.FrameDescriptor, error) {
	in, err := singleInput("aresample", inputs)
	if err != nil {
		return pcm.FrameDescriptor{}, err
	}
	out := in
	out.SampleRate = r.rate
	r.in, r.out = in, out
	if in.SampleRate == r.rate {
		return out, nil
	}
	if in.Format != pcm.FormatS16 {
		return pcm.FrameDescriptor{}, fmt.Errorf("aresample: input must be s16, got %s (insert aformat=sample_fmt=s16)", in.Format)
	}
	for c := 0; c < in.Channels; c++ {
		sink := &planeSink{rate: r.rate}
		r.sinks = append(r.sinks, sink)
		r.writers = append(r.writers, msdk.ResampleWriter(msdk.NopCloser[msdk.PCM16Sample](sink), in.SampleRate))
	}
	return out, nil
}

func (r *aresample) Filter(inputs []*pcm.Frame) ([]*pcm.Frame, error) {
	in := inputs[0]
	if r.writers == nil {
		return []*pcm.Frame{in.Retain()}, nil
	}
	r.s16 = pcm.PCM16BytesToSample(r.s16, in.Data())
	r.planes = pcm.PCM16Deinterleave(r.planes, r.s16, r.in.Channels)
	for c, w := range r.writers {
		if err := w.WriteSample(r.planes[c]); err != nil {
			return nil, fmt.Errorf("aresample: %w", err)
		}
	}
	return r.drain(false), nil
}

func (r *aresample) Flush() ([]*pcm.Frame, error) {
	if r.writers == nil {
		return nil, nil
	}
	err := r.closeWriters()
	return r.drain(true), err
}

// drain interleaves the samples every channel has produced. At end of
// stream shorter channels are padded with silence.
func (r *aresample) drain(final bool) []*pcm.Frame {
	n := len(r.sinks[0].buf)
	for _, s := range r.sinks[1:] {
		if final {
			n = max(n, len(s.buf))
		} else {
			n = min(n, len(s.buf))
		}
	}
	if n == 0 {
		return nil
	}
	r.outPlanes = r.outPlanes[:0]
	for _, s := range r.sinks {
		for len(s.buf) < n {
			s.buf = append(s.buf, 0)
		}
		r.outPlanes = append(r.outPlanes, s.buf[:n])
	}
	r.outS16 = pcm.PCM16Interleave(r.outS16, r.outPlanes)
	for _, s := range r.sinks {
		s.buf = append(s.buf[:0], s.buf[n:]...)
	}
	out := pcm.AllocFrame(r.out, len(r.outS16)*2)
	pcm.PCM16SampleToBytes(out.Data(), r.outS16)
	return []*pcm.Frame{out}
}

func (r *aresample) closeWriters() error {
	if r.closed {
		return nil
	}
	r.closed = true
	var errs []error
	for _, w := range r.writers {
		errs = append(errs, w.Close())
	}
	return errors.Join(errs...)
}

func (r *aresample) Close() error {
	if r.writers == nil {
		return nil
	}
	return r.closeWriters()
}

// planeSink collects the resampled output of one channel.
type planeSink struct {
	rate int
	buf  msdk.PCM16Sample
}

func (s *planeSink) String() string {
	return fmt.Sprintf("PlaneSink(%dHz)", s.rate)
}

func (s *planeSink) SampleRate() int { return s.rate }

func (s *planeSink) WriteSample(sample msdk.PCM16Sample) error {
	s.buf = append(s.buf, sample...)
	return nil
}
