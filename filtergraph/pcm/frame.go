package pcm

import (
	"sync"
	"sync/atomic"
)

// Storage size classes. Larger frames fall back to plain allocations.
var poolSizes = [...]int{1 << 10, 1 << 12, 1 << 14, 1 << 16}

var pools [len(poolSizes)]sync.Pool

func getBuffer(size int) ([]byte, bool) {
	for i, max := range poolSizes {
		if size > max {
			continue
		}
		if b, ok := pools[i].Get().(*[]byte); ok {
			buf := (*b)[:size]
			clear(buf)
			return buf, true
		}
		return make([]byte, size, max), true
	}
	return make([]byte, size), false
}

func putBuffer(b []byte) {
	c := cap(b)
	for i, max := range poolSizes {
		if c == max {
			b = b[:0]
			pools[i].Put(&b)
			return
		}
	}
}

// Frame is a reference counted handle to decoded sample data.
//
// A new frame starts with one reference owned by its creator. Whoever holds a
// reference must Release it exactly once; Retain hands out an extra one. Once
// the last reference is released the storage may be reused, so Data must not
// be touched afterwards.
type Frame struct {
	desc   FrameDescriptor
	data   []byte
	pooled bool
	refs   atomic.Int32
}

// NewFrame wraps data without copying. The frame owns data from now on.
func NewFrame(desc FrameDescriptor, data []byte) *Frame {
	f := &Frame{desc: desc, data: data}
	f.refs.Store(1)
	return f
}

// AllocFrame returns a zeroed frame of size bytes backed by pooled storage.
func AllocFrame(desc FrameDescriptor, size int) *Frame {
	buf, pooled := getBuffer(size)
	f := &Frame{desc: desc, data: buf, pooled: pooled}
	f.refs.Store(1)
	return f
}

// CopyFrame returns a new frame holding a copy of data.
func CopyFrame(desc FrameDescriptor, data []byte) *Frame {
	f := AllocFrame(desc, len(data))
	copy(f.data, data)
	return f
}

func (f *Frame) Descriptor() FrameDescriptor { return f.desc }

// SetDescriptor changes the layout the data is interpreted with. Only meant for
// output frames that are filled by a graph.
func (f *Frame) SetDescriptor(desc FrameDescriptor) { f.desc = desc }

func (f *Frame) Data() []byte {
	if f == nil {
		return nil
	}
	return f.data
}

// DataSize returns the frame size in bytes.
func (f *Frame) DataSize() int {
	if f == nil {
		return 0
	}
	return len(f.data)
}

// SampleCount returns the number of interleaved samples in the frame.
func (f *Frame) SampleCount() int {
	if f == nil {
		return 0
	}
	bps := f.desc.BytesPerSample()
	if bps == 0 {
		return 0
	}
	return len(f.data) / bps
}

// Append grows the frame by p. The frame must not be shared.
func (f *Frame) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	need := len(f.data) + len(p)
	if need <= cap(f.data) {
		f.data = append(f.data, p...)
		return
	}
	buf, pooled := getBuffer(need)
	n := copy(buf, f.data)
	copy(buf[n:], p)
	if f.pooled {
		putBuffer(f.data)
	}
	f.data = buf
	f.pooled = pooled
}

// Reset empties the frame but keeps its storage for reuse.
func (f *Frame) Reset() {
	f.data = f.data[:0]
}

// Retain adds a reference and returns f for chaining.
func (f *Frame) Retain() *Frame {
	f.refs.Add(1)
	return f
}

// Release drops a reference. Releasing a nil frame is a no-op.
func (f *Frame) Release() {
	if f == nil {
		return
	}
	n := f.refs.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		panic("pcm: frame released more times than retained")
	}
	if f.pooled {
		putBuffer(f.data)
	}
	f.data = nil
	f.pooled = false
}

// RefCount returns the number of live references.
func (f *Frame) RefCount() int {
	return int(f.refs.Load())
}

// SilenceFrame returns a frame of n samples of silence.
func SilenceFrame(desc FrameDescriptor, n int) *Frame {
	f := AllocFrame(desc, n*desc.BytesPerSample())
	if desc.Format == FormatU8 {
		for i := range f.data {
			f.data[i] = 0x80
		}
	}
	return f
}
