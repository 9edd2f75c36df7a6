package filter

import (
	"fmt"

	"gofiltergraph/filtergraph/pcm"
)

func init() {
	Default.MustRegister(Definition{
		Name:        "amix",
		Description: "mix several time aligned inputs into one (inputs=2:normalize=true)",
		New:         newAMix,
	})
}

type amix struct {
	inputs    int
	normalize bool
	desc      pcm.FrameDescriptor

	// scratch
	sum, f []float64
}

func newAMix(opts Options) (Filter, error) {
	if err := opts.Check("inputs", "normalize"); err != nil {
		return nil, err
	}
	n, err := opts.Int("inputs", 0, 2)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: inputs=%d", ErrInvalidOption, n)
	}
	normalize, err := opts.Bool("normalize", 1, true)
	if err != nil {
		return nil, err
	}
	return &amix{inputs: n, normalize: normalize}, nil
}

func (m *amix) Configure(inputs []pcm.FrameDescriptor) (pcm.FrameDescriptor, error) {
	if len(inputs) != m.inputs {
		return pcm.FrameDescriptor{}, errInputs("amix", m.inputs, len(inputs))
	}
	for i, d := range inputs {
		if err := d.Validate(); err != nil {
			return pcm.FrameDescriptor{}, fmt.Errorf("amix: input %d: %w", i, err)
		}
		if d != inputs[0] {
			return pcm.FrameDescriptor{}, fmt.Errorf("amix: input %d is %s, input 0 is %s", i, d, inputs[0])
		}
	}
	m.desc = inputs[0]
	return m.desc, nil
}

func (m *amix) Filter(inputs []*pcm.Frame) ([]*pcm.Frame, error) {
	size := inputs[0].DataSize()
	for i, in := range inputs[1:] {
		if in.DataSize() != size {
			return nil, fmt.Errorf("amix: input %d has %d bytes, input 0 has %d", i+1, in.DataSize(), size)
		}
	}
	m.sum = pcm.ToFloat64(m.sum, inputs[0].Data(), m.desc.Format)
	for _, in := range inputs[1:] {
		m.f = pcm.ToFloat64(m.f, in.Data(), m.desc.Format)
		for i, v := range m.f {
			m.sum[i] += v
		}
	}
	if m.normalize && len(inputs) > 1 {
		scale := 1 / float64(len(inputs))
		for i := range m.sum {
			m.sum[i] *= scale
		}
	}
	out := pcm.AllocFrame(m.desc, size)
	pcm.FromFloat64(out.Data(), m.sum, m.desc.Format)
	return []*pcm.Frame{out}, nil
}

func (m *amix) Close() error { return nil }
