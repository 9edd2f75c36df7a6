package filter

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/zaf/g711"

	"gofiltergraph/filtergraph/pcm"
)

func init() {
	Default.MustRegister(Definition{
		Name:        "g711",
		Description: "apply G.711 companding to s16 audio, as a telephone line would (law=alaw|mulaw)",
		Inputs:      1,
		New:         newG711,
	})
}

type g711Filter struct {
	ulaw bool
	desc pcm.FrameDescriptor
}

func newG711(opts Options) (Filter, error) {
	if err := opts.Check("law"); err != nil {
		return nil, err
	}
	law, _ := opts.Get("law", 0)
	switch strings.ToLower(law) {
	case "", "alaw", "a":
		return &g711Filter{}, nil
	case "mulaw", "ulaw", "u":
		return &g711Filter{ulaw: true}, nil
	default:
		return nil, fmt.Errorf("%w: law=%q", ErrInvalidOption, law)
	}
}

func (g *g711Filter) Configure(inputs []pcm.FrameDescriptor) (pcm.FrameDescriptor, error) {
	desc, err := singleInput("g711", inputs)
	if err != nil {
		return desc, err
	}
	if desc.Format != pcm.FormatS16 {
		return pcm.FrameDescriptor{}, fmt.Errorf("g711: input must be s16, got %s", desc.Format)
	}
	g.desc = desc
	return desc, nil
}

func (g *g711Filter) Filter(inputs []*pcm.Frame) ([]*pcm.Frame, error) {
	src := inputs[0].Data()
	out := pcm.AllocFrame(g.desc, len(src))
	dst := out.Data()
	for i := 0; i+1 < len(src); i += 2 {
		s := int16(binary.LittleEndian.Uint16(src[i:]))
		if g.ulaw {
			s = g711.DecodeUlawFrame(g711.EncodeUlawFrame(s))
		} else {
			s = g711.DecodeAlawFrame(g711.EncodeAlawFrame(s))
		}
		binary.LittleEndian.PutUint16(dst[i:], uint16(s))
	}
	return []*pcm.Frame{out}, nil
}

func (g *g711Filter) Close() error { return nil }
