package pcm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleFormatRoundTrip(t *testing.T) {
	values := []float64{0, 0.5, -0.5, 0.25, -1}
	for _, f := range []SampleFormat{FormatU8, FormatS16, FormatS32, FormatF32, FormatF64} {
		t.Run(f.String(), func(t *testing.T) {
			raw := FromFloat64(nil, values, f)
			assert.Len(t, raw, len(values)*f.Width())
			got := ToFloat64(nil, raw, f)
			assert.InDeltaSlice(t, values, got, 1.0/64)
		})
	}
}

func TestFromFloat64Clips(t *testing.T) {
	raw := FromFloat64(nil, []float64{2, -2}, FormatS16)
	assert.Equal(t, []byte{0xff, 0x7f, 0x00, 0x80}, raw)
}

func TestParseSampleFormat(t *testing.T) {
	f, err := ParseSampleFormat("F32")
	assert.NoError(t, err)
	assert.Equal(t, FormatF32, f)

	f, err = ParseSampleFormat("")
	assert.NoError(t, err)
	assert.Equal(t, FormatS16, f)

	_, err = ParseSampleFormat("s24")
	assert.Error(t, err)
}

func TestConvertChannels(t *testing.T) {
	tests := []struct {
		name     string
		src      []float64
		inCh     int
		outCh    int
		expected []float64
	}{
		{"stereo to mono", []float64{0.2, 0.4, -1, 1}, 2, 1, []float64{0.3, 0}},
		{"mono to stereo", []float64{0.1, 0.2}, 1, 2, []float64{0.1, 0.1, 0.2, 0.2}},
		{"quad to stereo", []float64{0.1, 0.2, 0.3, 0.4}, 4, 2, []float64{0.2, 0.3}},
		{"stereo to quad", []float64{0.1, 0.2}, 2, 4, []float64{0.1, 0.2, 0.1, 0.2}},
		{"same layout", []float64{0.1, 0.2}, 2, 2, []float64{0.1, 0.2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertChannels(nil, tt.src, tt.inCh, tt.outCh)
			assert.InDeltaSlice(t, tt.expected, got, 1e-9)
		})
	}
}
