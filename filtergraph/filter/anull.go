package filter

import "gofiltergraph/filtergraph/pcm"

func init() {
	Default.MustRegister(Definition{
		Name:        "anull",
		Description: "pass audio through unchanged",
		Inputs:      1,
		New: func(opts Options) (Filter, error) {
			if err := opts.Check(); err != nil {
				return nil, err
			}
			return anull{}, nil
		},
	})
}

type anull struct{}

func (anull) Configure(inputs []pcm.FrameDescriptor) (pcm.FrameDescriptor, error) {
	return singleInput("anull", inputs)
}

func (anull) Filter(inputs []*pcm.Frame) ([]*pcm.Frame, error) {
	return []*pcm.Frame{inputs[0].Retain()}, nil
}

func (anull) Close() error { return nil }
