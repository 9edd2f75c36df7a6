package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofiltergraph/filtergraph/filter"
	"gofiltergraph/filtergraph/pcm"
)

var mono16 = pcm.FrameDescriptor{SampleRate: 48000, Channels: 1, Format: pcm.FormatS16}

// recorder passes its first input through and records the sample count of
// every input it was given.
type recorder struct {
	inputs int
	calls  [][]int
	closed int
}

func (r *recorder) Configure(inputs []pcm.FrameDescriptor) (pcm.FrameDescriptor, error) {
	if len(inputs) != r.inputs {
		return pcm.FrameDescriptor{}, errors.New("unexpected input count")
	}
	return inputs[0], nil
}

func (r *recorder) Filter(inputs []*pcm.Frame) ([]*pcm.Frame, error) {
	sizes := make([]int, len(inputs))
	for i, in := range inputs {
		sizes[i] = in.SampleCount()
	}
	r.calls = append(r.calls, sizes)
	return []*pcm.Frame{inputs[0].Retain()}, nil
}

func (r *recorder) Close() error {
	r.closed++
	return nil
}

// delay holds back the last frame it was given until the next call or Flush.
type delay struct {
	held *pcm.Frame
}

func (d *delay) Configure(inputs []pcm.FrameDescriptor) (pcm.FrameDescriptor, error) {
	return inputs[0], nil
}

func (d *delay) Filter(inputs []*pcm.Frame) ([]*pcm.Frame, error) {
	prev := d.held
	d.held = inputs[0].Retain()
	if prev == nil {
		return nil, nil
	}
	return []*pcm.Frame{prev}, nil
}

func (d *delay) Flush() ([]*pcm.Frame, error) {
	if d.held == nil {
		return nil, nil
	}
	f := d.held
	d.held = nil
	return []*pcm.Frame{f}, nil
}

func (d *delay) Close() error {
	d.held.Release()
	d.held = nil
	return nil
}

type broken struct{}

func (broken) Configure([]pcm.FrameDescriptor) (pcm.FrameDescriptor, error) {
	return pcm.FrameDescriptor{}, errors.New("cannot configure")
}
func (broken) Filter([]*pcm.Frame) ([]*pcm.Frame, error) { return nil, nil }
func (broken) Close() error                              { return nil }

type testRegistry struct {
	*filter.Registry
	recorders []*recorder
}

func newTestRegistry(t *testing.T) *testRegistry {
	t.Helper()
	r := &testRegistry{Registry: filter.NewRegistry()}
	r.MustRegister(filter.Definition{Name: "record", New: func(opts filter.Options) (filter.Filter, error) {
		n, err := opts.Int("inputs", 0, 1)
		if err != nil {
			return nil, err
		}
		rec := &recorder{inputs: n}
		r.recorders = append(r.recorders, rec)
		return rec, nil
	}})
	r.MustRegister(filter.Definition{Name: "delay", Inputs: 1, New: func(filter.Options) (filter.Filter, error) {
		return &delay{}, nil
	}})
	r.MustRegister(filter.Definition{Name: "broken", Inputs: 1, New: func(filter.Options) (filter.Filter, error) {
		return broken{}, nil
	}})
	return r
}

func newGraph(t *testing.T, reg *testRegistry, codec Codec, inputs ...pcm.FrameDescriptor) *FilterGraph {
	t.Helper()
	g := New(codec, inputs, WithRegistry(reg.Registry))
	t.Cleanup(func() { assert.NoError(t, g.Close()) })
	return g
}

func samples(desc pcm.FrameDescriptor, n int, start int16) *pcm.Frame {
	s := make([]int16, n)
	for i := range s {
		s[i] = start + int16(i)
	}
	return pcm.NewFrame(desc, pcm.PCM16SampleToBytes(nil, s))
}

func TestProcessPushesMinimumAcrossInputs(t *testing.T) {
	reg := newTestRegistry(t)
	g := newGraph(t, reg, Codec{}, mono16, mono16)
	_, err := g.AddFilter("record", "inputs=2", "")
	require.NoError(t, err)

	a := samples(mono16, 256, 0)
	b := samples(mono16, 100, 0)
	out := pcm.AllocFrame(pcm.FrameDescriptor{}, 0)
	defer out.Release()

	require.NoError(t, g.Process([]*pcm.Frame{a, b}, out))
	a.Release()
	b.Release()

	require.Len(t, reg.recorders, 1)
	assert.Equal(t, [][]int{{100, 100}}, reg.recorders[0].calls)
	assert.Equal(t, 156, g.BufferedSamples(0))
	assert.Equal(t, 0, g.BufferedSamples(1))
	assert.True(t, g.HasBufferedFrames())
	assert.True(t, g.HasBufferedFramesAt(0))
	assert.False(t, g.HasBufferedFramesAt(1))
	assert.Equal(t, 100, out.SampleCount())
	assert.Equal(t, mono16, out.Descriptor())

	// The remaining samples of A are only pushed once B catches up.
	b = samples(mono16, 200, 100)
	require.NoError(t, g.Process([]*pcm.Frame{nil, b}, nil))
	b.Release()
	assert.Equal(t, [][]int{{100, 100}, {156, 156}}, reg.recorders[0].calls)
	assert.Equal(t, 0, g.BufferedSamples(0))
	assert.Equal(t, 44, g.BufferedSamples(1))
}

func TestProcessStarvedInputPushesNothing(t *testing.T) {
	reg := newTestRegistry(t)
	g := newGraph(t, reg, Codec{}, mono16, mono16)
	_, err := g.AddFilter("record", "inputs=2", "")
	require.NoError(t, err)

	a := samples(mono16, 64, 0)
	defer a.Release()
	frames, err := g.ProcessFrames([]*pcm.Frame{a, nil})
	require.NoError(t, err)
	assert.Empty(t, frames)
	assert.Empty(t, reg.recorders[0].calls)
	assert.Equal(t, 64, g.BufferedSamples(0))
}

func TestProcessEqualFramesBypassBuffers(t *testing.T) {
	reg := newTestRegistry(t)
	g := newGraph(t, reg, Codec{}, mono16, mono16)
	_, err := g.AddFilter("record", "inputs=2", "")
	require.NoError(t, err)

	a := samples(mono16, 80, 0)
	b := samples(mono16, 80, 1000)
	frames, err := g.ProcessFrames([]*pcm.Frame{a, b})
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, a.Data(), frames[0].Data())
	frames[0].Release()

	assert.False(t, g.HasBufferedFrames())
	assert.Equal(t, 1, a.RefCount())
	assert.Equal(t, 1, b.RefCount())
	a.Release()
	b.Release()
}

func TestAddFilterAfterProcess(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.Register(filter.Definition{Name: "volume", Inputs: 1, New: func(filter.Options) (filter.Filter, error) {
		return &recorder{inputs: 1}, nil
	}}))
	g := newGraph(t, reg, Codec{}, mono16)
	_, err := g.AddFilter("record", "", "")
	require.NoError(t, err)

	in := samples(mono16, 10, 0)
	defer in.Release()
	require.NoError(t, g.Process([]*pcm.Frame{in}, nil))

	_, err = g.AddFilter("volume", "volume=2.0", "")
	require.ErrorIs(t, err, ErrAlreadyInitialized)
	assert.Len(t, g.Filters(), 1)
}

func TestProcessWithoutFilters(t *testing.T) {
	g := newGraph(t, newTestRegistry(t), Codec{}, mono16)
	assert.False(t, g.HasFilters())

	out := samples(mono16, 4, 7)
	defer out.Release()
	before := append([]byte(nil), out.Data()...)

	in := samples(mono16, 10, 0)
	defer in.Release()
	require.NoError(t, g.Process([]*pcm.Frame{in}, out))
	assert.Equal(t, before, out.Data())
	assert.False(t, g.HasBufferedFrames())

	require.NoError(t, g.Flush(out))
	assert.Equal(t, before, out.Data())
}

func TestAddFilterNotFound(t *testing.T) {
	g := newGraph(t, newTestRegistry(t), Codec{}, mono16)
	_, err := g.AddFilter("nope", "", "")
	require.ErrorIs(t, err, filter.ErrFilterNotFound)
	assert.False(t, g.HasFilters())
}

func TestAddFilterInstanceName(t *testing.T) {
	g := newGraph(t, newTestRegistry(t), Codec{}, mono16)
	n, err := g.AddFilter("record", "inputs=1", "")
	require.NoError(t, err)
	assert.Equal(t, "record", n.InstanceName())
	assert.Equal(t, "record", n.Name())
	assert.Equal(t, "inputs=1", n.Options())

	n, err = g.AddFilter("delay", "", "late")
	require.NoError(t, err)
	assert.Equal(t, "late", n.InstanceName())
}

func TestAddChain(t *testing.T) {
	g := newGraph(t, newTestRegistry(t), Codec{}, mono16)
	nodes, err := g.AddChain("record=inputs=1,delay@late")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "late", nodes[1].InstanceName())
	assert.Equal(t, nodes, g.Filters())

	_, err = g.AddChain("record,missing")
	require.ErrorIs(t, err, filter.ErrFilterNotFound)
}

func TestInitFailure(t *testing.T) {
	reg := newTestRegistry(t)
	g := New(Codec{}, []pcm.FrameDescriptor{mono16}, WithRegistry(reg.Registry))
	_, err := g.AddFilter("record", "", "")
	require.NoError(t, err)
	_, err = g.AddFilter("broken", "", "")
	require.NoError(t, err)

	in := samples(mono16, 10, 0)
	defer in.Release()
	err = g.Process([]*pcm.Frame{in}, nil)
	require.ErrorIs(t, err, ErrGraphInit)

	// The failure is final.
	err2 := g.Process([]*pcm.Frame{in}, nil)
	assert.Equal(t, err, err2)
	_, err = g.AddFilter("record", "", "")
	require.ErrorIs(t, err, ErrAlreadyInitialized)

	require.NoError(t, g.Close())
	require.NoError(t, g.Close())
	// Filters built before the failure were closed.
	require.Len(t, reg.recorders, 1)
	assert.Equal(t, 1, reg.recorders[0].closed)
}

func TestInitBadOptions(t *testing.T) {
	g := newGraph(t, newTestRegistry(t), Codec{}, mono16)
	_, err := g.AddFilter("record", "inputs=many", "")
	require.NoError(t, err)
	err = g.Init()
	require.ErrorIs(t, err, ErrGraphInit)
	require.ErrorIs(t, err, filter.ErrInvalidOption)
}

func TestInitOutputFormatMismatch(t *testing.T) {
	g := newGraph(t, newTestRegistry(t), Codec{Format: pcm.FrameDescriptor{SampleRate: 16000, Channels: 1, Format: pcm.FormatS16}}, mono16)
	_, err := g.AddFilter("record", "", "")
	require.NoError(t, err)
	require.ErrorIs(t, g.Init(), ErrGraphInit)
}

func TestInitIsIdempotent(t *testing.T) {
	g := newGraph(t, newTestRegistry(t), Codec{}, mono16)
	_, err := g.AddFilter("record", "", "")
	require.NoError(t, err)
	_, ok := g.Output()
	assert.False(t, ok)

	require.NoError(t, g.Init())
	require.NoError(t, g.Init())
	out, ok := g.Output()
	require.True(t, ok)
	assert.Equal(t, mono16, out)
}

func TestProcessInputCount(t *testing.T) {
	g := newGraph(t, newTestRegistry(t), Codec{}, mono16, mono16)
	_, err := g.AddFilter("record", "inputs=2", "")
	require.NoError(t, err)

	in := samples(mono16, 10, 0)
	defer in.Release()
	_, err = g.ProcessFrames([]*pcm.Frame{in})
	require.ErrorIs(t, err, ErrInputCount)
	assert.Equal(t, 2, g.NumInputs())
}

func TestProcessFormatMismatch(t *testing.T) {
	g := newGraph(t, newTestRegistry(t), Codec{}, mono16)
	_, err := g.AddFilter("record", "", "")
	require.NoError(t, err)

	stereo := pcm.FrameDescriptor{SampleRate: 48000, Channels: 2, Format: pcm.FormatS16}
	in := samples(stereo, 10, 0)
	_, err = g.ProcessFrames([]*pcm.Frame{in})
	require.ErrorIs(t, err, pcm.ErrFormatMismatch)
	assert.Equal(t, 1, in.RefCount())
	in.Release()
}

func TestProcessMismatchBuffersNothing(t *testing.T) {
	g := newGraph(t, newTestRegistry(t), Codec{}, mono16, mono16)
	_, err := g.AddFilter("record", "inputs=2", "")
	require.NoError(t, err)

	stereo := pcm.FrameDescriptor{SampleRate: 48000, Channels: 2, Format: pcm.FormatS16}
	a := samples(mono16, 10, 0)
	b := samples(stereo, 4, 0)
	_, err = g.ProcessFrames([]*pcm.Frame{a, b})
	require.ErrorIs(t, err, pcm.ErrFormatMismatch)
	assert.Equal(t, 0, g.BufferedSamples(0))
	assert.False(t, g.HasBufferedFramesAt(0))
	assert.False(t, g.HasBufferedFrames())
	assert.Equal(t, 1, a.RefCount())
	assert.Equal(t, 1, b.RefCount())
	a.Release()
	b.Release()
}

func TestProcessRejectsPartialSample(t *testing.T) {
	g := newGraph(t, newTestRegistry(t), Codec{}, mono16, mono16)
	_, err := g.AddFilter("record", "inputs=2", "")
	require.NoError(t, err)

	a := samples(mono16, 10, 0)
	b := pcm.NewFrame(mono16, []byte{1, 2, 3})
	_, err = g.ProcessFrames([]*pcm.Frame{a, b})
	require.ErrorIs(t, err, pcm.ErrFormatMismatch)
	assert.False(t, g.HasBufferedFrames())

	// Equal sizes take the unbuffered path and are checked the same way.
	c := pcm.NewFrame(mono16, []byte{4, 5, 6})
	_, err = g.ProcessFrames([]*pcm.Frame{b, c})
	require.ErrorIs(t, err, pcm.ErrFormatMismatch)
	assert.Equal(t, 1, b.RefCount())
	a.Release()
	b.Release()
	c.Release()
}

func TestProcessOutputFormatMismatch(t *testing.T) {
	g := newGraph(t, newTestRegistry(t), Codec{}, mono16)
	_, err := g.AddFilter("record", "", "")
	require.NoError(t, err)

	stereo := pcm.FrameDescriptor{SampleRate: 48000, Channels: 2, Format: pcm.FormatS16}
	out := samples(stereo, 4, 0)
	defer out.Release()
	in := samples(mono16, 10, 0)
	defer in.Release()
	require.ErrorIs(t, g.Process([]*pcm.Frame{in}, out), pcm.ErrFormatMismatch)
	assert.Equal(t, stereo, out.Descriptor())
	assert.Equal(t, 2, out.SampleCount())
}

func TestSinkFrameSize(t *testing.T) {
	g := newGraph(t, newTestRegistry(t), Codec{FrameSize: 160}, mono16)
	_, err := g.AddFilter("record", "", "")
	require.NoError(t, err)

	var got []int
	var stream []byte
	for i := range 3 {
		in := samples(mono16, 100, int16(i*100))
		frames, err := g.ProcessFrames([]*pcm.Frame{in})
		in.Release()
		require.NoError(t, err)
		for _, f := range frames {
			got = append(got, f.SampleCount())
			stream = append(stream, f.Data()...)
			f.Release()
		}
	}
	assert.Equal(t, []int{160}, got)

	frames, err := g.FlushFrames()
	require.NoError(t, err)
	for _, f := range frames {
		got = append(got, f.SampleCount())
		stream = append(stream, f.Data()...)
		f.Release()
	}
	assert.Equal(t, []int{160, 140}, got)

	want := samples(mono16, 300, 0)
	defer want.Release()
	assert.Equal(t, want.Data(), stream)
}

func TestFlushPadsShorterInputs(t *testing.T) {
	reg := newTestRegistry(t)
	g := newGraph(t, reg, Codec{}, mono16, mono16)
	_, err := g.AddFilter("record", "inputs=2", "")
	require.NoError(t, err)

	a := samples(mono16, 300, 0)
	b := samples(mono16, 100, 0)
	require.NoError(t, g.Process([]*pcm.Frame{a, b}, nil))
	a.Release()
	b.Release()

	out := pcm.AllocFrame(pcm.FrameDescriptor{}, 0)
	defer out.Release()
	require.NoError(t, g.Flush(out))
	assert.Equal(t, [][]int{{100, 100}, {200, 200}}, reg.recorders[0].calls)
	assert.Equal(t, 200, out.SampleCount())
	assert.False(t, g.HasBufferedFrames())

	_, err = g.ProcessFrames(nil)
	require.ErrorIs(t, err, ErrGraphDrained)
	frames, err := g.FlushFrames()
	require.NoError(t, err)
	assert.Empty(t, frames)
}

func TestFlushDrainsLatency(t *testing.T) {
	g := newGraph(t, newTestRegistry(t), Codec{}, mono16)
	_, err := g.AddChain("delay,record")
	require.NoError(t, err)

	in := samples(mono16, 50, 0)
	frames, err := g.ProcessFrames([]*pcm.Frame{in})
	in.Release()
	require.NoError(t, err)
	assert.Empty(t, frames)

	frames, err = g.FlushFrames()
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, 50, frames[0].SampleCount())
	frames[0].Release()
}

func TestPullOnlyDrainsSink(t *testing.T) {
	g := newGraph(t, newTestRegistry(t), Codec{}, mono16)
	_, err := g.AddFilter("record", "", "")
	require.NoError(t, err)

	frames, err := g.ProcessFrames(nil)
	require.NoError(t, err)
	assert.Empty(t, frames)
}

func TestCloseReleasesBuffers(t *testing.T) {
	reg := newTestRegistry(t)
	g := New(Codec{}, []pcm.FrameDescriptor{mono16, mono16}, WithRegistry(reg.Registry))
	_, err := g.AddFilter("record", "inputs=2", "")
	require.NoError(t, err)

	a := samples(mono16, 64, 0)
	require.NoError(t, g.Process([]*pcm.Frame{a, nil}, nil))
	assert.Equal(t, 2, a.RefCount())

	require.NoError(t, g.Close())
	assert.Equal(t, 1, a.RefCount())
	assert.Equal(t, 1, reg.recorders[0].closed)
	a.Release()

	_, err = g.ProcessFrames(nil)
	require.ErrorIs(t, err, ErrGraphClosed)
	_, err = g.AddFilter("record", "", "")
	require.ErrorIs(t, err, ErrGraphClosed)
	require.NoError(t, g.Close())
}

func TestDefaultInputFromCodec(t *testing.T) {
	g := New(Codec{Format: mono16}, nil)
	defer g.Close()
	assert.Equal(t, 1, g.NumInputs())

	_, err := g.AddChain("volume=0.5,anull")
	require.NoError(t, err)

	in := samples(mono16, 4, 100)
	defer in.Release()
	frames, err := g.ProcessFrames([]*pcm.Frame{in})
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, []int16{50, 51, 51, 52}, []int16(pcm.PCM16BytesToSample(nil, frames[0].Data())))
	frames[0].Release()
}
