package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gofiltergraph/filtergraph/pcm"
)

func init() {
	Default.MustRegister(Definition{
		Name:        "volume",
		Description: "scale amplitude by a factor or by a dB gain (volume=0.5, volume=-6dB)",
		Inputs:      1,
		New:         newVolume,
	})
}

type volume struct {
	gain float64
	desc pcm.FrameDescriptor

	// scratch
	f []float64
}

func newVolume(opts Options) (Filter, error) {
	if err := opts.Check("volume"); err != nil {
		return nil, err
	}
	gain := 1.0
	if v, ok := opts.Get("volume", 0); ok {
		g, err := parseGain(v)
		if err != nil {
			return nil, err
		}
		gain = g
	}
	return &volume{gain: gain}, nil
}

// parseGain accepts a linear factor or a value with a dB suffix.
func parseGain(v string) (float64, error) {
	s := strings.TrimSpace(v)
	db := false
	if strings.HasSuffix(strings.ToLower(s), "db") {
		s = strings.TrimSpace(s[:len(s)-2])
		db = true
	}
	g, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: volume=%q", ErrInvalidOption, v)
	}
	if db {
		return math.Pow(10, g/20), nil
	}
	if g < 0 {
		return 0, fmt.Errorf("%w: negative volume %q", ErrInvalidOption, v)
	}
	return g, nil
}

func (v *volume) Configure(inputs []pcm.FrameDescriptor) (pcm.FrameDescriptor, error) {
	desc, err := singleInput("volume", inputs)
	v.desc = desc
	return desc, err
}

func (v *volume) Filter(inputs []*pcm.Frame) ([]*pcm.Frame, error) {
	in := inputs[0]
	if v.gain == 1 {
		return []*pcm.Frame{in.Retain()}, nil
	}
	v.f = pcm.ToFloat64(v.f, in.Data(), v.desc.Format)
	for i := range v.f {
		v.f[i] *= v.gain
	}
	out := pcm.AllocFrame(v.desc, in.DataSize())
	pcm.FromFloat64(out.Data(), v.f, v.desc.Format)
	return []*pcm.Frame{out}, nil
}

func (v *volume) Close() error { return nil }
