package filter

import (
	"fmt"

	msdk "github.com/livekit/media-sdk"

	"gofiltergraph/filtergraph/pcm"
)

func init() {
	Default.MustRegister(Definition{
		Name:        "aformat",
		Description: "convert sample format and channel count (sample_fmt=s16:channels=2)",
		Inputs:      1,
		New:         newAFormat,
	})
}

type aformat struct {
	format   pcm.SampleFormat
	channels int

	in, out pcm.FrameDescriptor

	// scratch
	s16, s16Out msdk.PCM16Sample
	f, fOut     []float64
}

func newAFormat(opts Options) (Filter, error) {
	if err := opts.Check("sample_fmt", "channels"); err != nil {
		return nil, err
	}
	a := &aformat{}
	if v, ok := opts.Get("sample_fmt", 0); ok {
		f, err := pcm.ParseSampleFormat(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOption, err)
		}
		a.format = f
	}
	ch, err := opts.Int("channels", 1, 0)
	if err != nil {
		return nil, err
	}
	if ch < 0 {
		return nil, fmt.Errorf("%w: channels=%d", ErrInvalidOption, ch)
	}
	a.channels = ch
	return a, nil
}

func (a *aformat) Configure(inputs []pcm.FrameDescriptor) (pcm.FrameDescriptor, error) {
	in, err := singleInput("aformat", inputs)
	if err != nil {
		return pcm.FrameDescriptor{}, err
	}
	out := in
	if a.format != pcm.FormatNone {
		out.Format = a.format
	}
	if a.channels > 0 {
		out.Channels = a.channels
	}
	a.in, a.out = in, out
	return out, nil
}

func (a *aformat) Filter(inputs []*pcm.Frame) ([]*pcm.Frame, error) {
	in := inputs[0]
	if a.in == a.out {
		return []*pcm.Frame{in.Retain()}, nil
	}
	if a.in.Format == pcm.FormatS16 && a.out.Format == pcm.FormatS16 {
		a.s16 = pcm.PCM16BytesToSample(a.s16, in.Data())
		a.s16Out = pcm.PCM16ConvertChannels(a.s16Out, a.s16, a.in.Channels, a.out.Channels)
		out := pcm.AllocFrame(a.out, len(a.s16Out)*2)
		pcm.PCM16SampleToBytes(out.Data(), a.s16Out)
		return []*pcm.Frame{out}, nil
	}
	a.f = pcm.ToFloat64(a.f, in.Data(), a.in.Format)
	a.fOut = pcm.ConvertChannels(a.fOut, a.f, a.in.Channels, a.out.Channels)
	out := pcm.AllocFrame(a.out, len(a.fOut)*a.out.Format.Width())
	pcm.FromFloat64(out.Data(), a.fOut, a.out.Format)
	return []*pcm.Frame{out}, nil
}

func (a *aformat) Close() error { return nil }
