package pcm

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData is returned when a buffer is asked for more data
	// than it holds. Callers are expected to check DataSize first.
	ErrInsufficientData = errors.New("insufficient buffered data")
	// ErrFormatMismatch is returned when a frame does not match the buffer layout.
	ErrFormatMismatch = errors.New("frame format does not match buffer")
)

// FrameBuffer is a FIFO of frames for one audio stream. It can hand out
// chunks of an exact size that span, split or merge the queued frames.
//
// Video frames must never go through a FrameBuffer: they cannot be split.
//
// The buffer owns every queued frame. A frame returned by GetFrame belongs to
// the caller. FrameBuffer is not safe for concurrent use.
type FrameBuffer struct {
	desc  FrameDescriptor
	queue []*Frame
	// total is the number of unread bytes across the queue.
	total int
	// offset is the number of bytes already read from queue[0].
	offset int
}

func NewFrameBuffer(desc FrameDescriptor) *FrameBuffer {
	return &FrameBuffer{desc: desc}
}

func (b *FrameBuffer) Descriptor() FrameDescriptor { return b.desc }

// IsEmpty reports whether no frame is queued.
func (b *FrameBuffer) IsEmpty() bool { return len(b.queue) == 0 && b.total == 0 }

// DataSize returns the number of unread bytes.
func (b *FrameBuffer) DataSize() int { return b.total }

// BufferSize returns the number of queued frames.
func (b *FrameBuffer) BufferSize() int { return len(b.queue) }

func (b *FrameBuffer) BytesPerSample() int { return b.desc.BytesPerSample() }

// SampleCount returns the number of whole unread samples.
func (b *FrameBuffer) SampleCount() int {
	bps := b.desc.BytesPerSample()
	if bps == 0 {
		return 0
	}
	return b.total / bps
}

// AddFrame appends f and takes over the caller's reference. Empty frames are
// released and ignored. A frame with another layout, or holding a partial
// sample, is rejected and the caller keeps its reference.
func (b *FrameBuffer) AddFrame(f *Frame) error {
	if f == nil {
		return nil
	}
	if f.Descriptor() != b.desc {
		return fmt.Errorf("%w: got %s, want %s", ErrFormatMismatch, f.Descriptor(), b.desc)
	}
	if bps := b.desc.BytesPerSample(); bps > 0 && f.DataSize()%bps != 0 {
		return fmt.Errorf("%w: %d bytes is not a whole number of %d byte samples", ErrFormatMismatch, f.DataSize(), bps)
	}
	if f.DataSize() == 0 {
		f.Release()
		return nil
	}
	b.queue = append(b.queue, f)
	b.total += f.DataSize()
	return nil
}

// GetFrame removes size bytes from the head of the buffer and returns them as
// a new frame. With size 0 the rest of the head frame is returned.
//
// A request larger than DataSize fails with ErrInsufficientData and leaves the
// buffer untouched.
func (b *FrameBuffer) GetFrame(size int) (*Frame, error) {
	if size < 0 {
		return nil, fmt.Errorf("negative frame size %d", size)
	}
	if size == 0 {
		if len(b.queue) == 0 {
			return nil, ErrInsufficientData
		}
		size = b.queue[0].DataSize() - b.offset
	}
	if size > b.total {
		return nil, fmt.Errorf("%w: requested %d bytes, %d buffered", ErrInsufficientData, size, b.total)
	}

	// Whole untouched head frame: hand it over without copying.
	if head := b.queue[0]; b.offset == 0 && head.DataSize() == size {
		b.pop()
		b.total -= size
		return head, nil
	}

	out := AllocFrame(b.desc, size)
	dst := out.Data()
	for n := 0; n < size; {
		src := b.queue[0].Data()[b.offset:]
		c := copy(dst[n:], src)
		n += c
		if c == len(src) {
			b.pop().Release()
			b.offset = 0
		} else {
			b.offset += c
		}
	}
	b.total -= size
	return out, nil
}

// GetFrameSamples is GetFrame expressed in samples.
func (b *FrameBuffer) GetFrameSamples(n int) (*Frame, error) {
	return b.GetFrame(n * b.desc.BytesPerSample())
}

// Clear releases every queued frame.
func (b *FrameBuffer) Clear() {
	for len(b.queue) > 0 {
		b.pop().Release()
	}
	b.total = 0
	b.offset = 0
}

func (b *FrameBuffer) pop() *Frame {
	f := b.queue[0]
	b.queue[0] = nil
	b.queue = b.queue[1:]
	return f
}
