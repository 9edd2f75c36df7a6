package pcm

import (
	"fmt"
	"strings"
	"time"
)

// SampleFormat identifies how a single sample value is stored.
// All formats are interleaved and little endian.
type SampleFormat uint8

const (
	FormatNone SampleFormat = iota
	FormatU8
	FormatS16
	FormatS32
	FormatF32
	FormatF64
)

var sampleFormatNames = map[SampleFormat]string{
	FormatU8:  "u8",
	FormatS16: "s16",
	FormatS32: "s32",
	FormatF32: "f32",
	FormatF64: "f64",
}

// Width returns the size in bytes of one sample of one channel.
func (f SampleFormat) Width() int {
	switch f {
	case FormatU8:
		return 1
	case FormatS16:
		return 2
	case FormatS32, FormatF32:
		return 4
	case FormatF64:
		return 8
	default:
		return 0
	}
}

func (f SampleFormat) String() string {
	if name, ok := sampleFormatNames[f]; ok {
		return name
	}
	return "none"
}

// ParseSampleFormat accepts the short names used in filter options and configs
// ("s16", "f32", ...). An empty string yields FormatS16.
func ParseSampleFormat(s string) (SampleFormat, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FormatS16, nil
	}
	for f, name := range sampleFormatNames {
		if name == s {
			return f, nil
		}
	}
	return FormatNone, fmt.Errorf("unknown sample format %q", s)
}

// FrameDescriptor describes the sample layout of one buffered stream.
type FrameDescriptor struct {
	SampleRate int
	Channels   int
	Format     SampleFormat
}

// BytesPerSample is the size of one interleaved sample across all channels.
func (d FrameDescriptor) BytesPerSample() int {
	ch := d.Channels
	if ch < 1 {
		ch = 1
	}
	return ch * d.Format.Width()
}

// SamplesFor returns how many samples cover dur at the descriptor's rate.
func (d FrameDescriptor) SamplesFor(dur time.Duration) int {
	sr := d.SampleRate
	if sr < 1 {
		sr = 1
	}
	return int(float64(sr) * dur.Seconds())
}

// Duration returns the playback duration of n samples.
func (d FrameDescriptor) Duration(n int) time.Duration {
	if d.SampleRate < 1 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(d.SampleRate)
}

func (d FrameDescriptor) IsZero() bool {
	return d == FrameDescriptor{}
}

// Validate reports whether the descriptor can describe real sample data.
func (d FrameDescriptor) Validate() error {
	if d.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", d.SampleRate)
	}
	if d.Channels <= 0 {
		return fmt.Errorf("invalid channel count %d", d.Channels)
	}
	if d.Format.Width() == 0 {
		return fmt.Errorf("invalid sample format %d", d.Format)
	}
	return nil
}

func (d FrameDescriptor) String() string {
	return fmt.Sprintf("%dHz %dch %s", d.SampleRate, d.Channels, d.Format)
}
