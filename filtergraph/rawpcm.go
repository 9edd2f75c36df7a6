package filtergraph

import (
	"errors"
	"fmt"
	"io"

	"gofiltergraph/filtergraph/pcm"
)

// Decoder reads raw interleaved PCM and returns it as frames of a fixed
// number of samples. The last frame may be shorter.
type Decoder struct {
	r          io.Reader
	desc       pcm.FrameDescriptor
	frameBytes int
	eof        bool
}

func NewDecoder(r io.Reader, desc pcm.FrameDescriptor, frameSamples int) (*Decoder, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if frameSamples < 1 {
		return nil, fmt.Errorf("frame size must be positive, got %d", frameSamples)
	}
	return &Decoder{r: r, desc: desc, frameBytes: frameSamples * desc.BytesPerSample()}, nil
}

func (d *Decoder) Descriptor() pcm.FrameDescriptor { return d.desc }

// ReadFrame returns the next frame, or io.EOF once the stream is exhausted.
// A trailing partial sample is dropped.
func (d *Decoder) ReadFrame() (*pcm.Frame, error) {
	if d.eof {
		return nil, io.EOF
	}
	f := pcm.AllocFrame(d.desc, d.frameBytes)
	n, err := io.ReadFull(d.r, f.Data())
	switch {
	case err == nil:
		return f, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		d.eof = true
		n -= n % d.desc.BytesPerSample()
		if n == 0 {
			f.Release()
			return nil, io.EOF
		}
		short := pcm.CopyFrame(d.desc, f.Data()[:n])
		f.Release()
		return short, nil
	default:
		f.Release()
		return nil, err
	}
}

// Encoder writes frames as raw interleaved PCM.
type Encoder struct {
	w       io.Writer
	desc    pcm.FrameDescriptor
	frames  int
	samples int
}

func NewEncoder(w io.Writer, desc pcm.FrameDescriptor) *Encoder {
	return &Encoder{w: w, desc: desc}
}

// WriteFrame writes f and releases it.
func (e *Encoder) WriteFrame(f *pcm.Frame) error {
	defer f.Release()
	if f.Descriptor() != e.desc {
		return fmt.Errorf("encoder: %w: %s, want %s", pcm.ErrFormatMismatch, f.Descriptor(), e.desc)
	}
	if _, err := e.w.Write(f.Data()); err != nil {
		return err
	}
	e.frames++
	e.samples += f.SampleCount()
	return nil
}

// WriteFrames writes and releases every frame, stopping at the first error.
// Frames that were not written are released as well.
func (e *Encoder) WriteFrames(frames []*pcm.Frame) error {
	for i, f := range frames {
		if err := e.WriteFrame(f); err != nil {
			for _, rest := range frames[i+1:] {
				rest.Release()
			}
			return err
		}
	}
	return nil
}
