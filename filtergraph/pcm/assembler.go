package pcm

import "sync"

// FrameAssembler cuts a stream of arbitrarily sized frames into frames of a
// fixed sample count.
type FrameAssembler struct {
	frameSize int
	buffer    *FrameBuffer
	mu        sync.Mutex
}

func NewFrameAssembler(desc FrameDescriptor, frameSamples int) *FrameAssembler {
	if frameSamples < 1 {
		frameSamples = 1
	}
	return &FrameAssembler{
		frameSize: frameSamples * desc.BytesPerSample(),
		buffer:    NewFrameBuffer(desc),
	}
}

// Push takes over f and returns every complete frame now available.
func (a *FrameAssembler) Push(f *Frame) ([]*Frame, error) {
	if f.DataSize() == 0 {
		f.Release()
		return nil, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.buffer.AddFrame(f); err != nil {
		return nil, err
	}
	var frames []*Frame
	for a.buffer.DataSize() >= a.frameSize {
		frame, err := a.buffer.GetFrame(a.frameSize)
		if err != nil {
			return frames, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// Flush returns the remaining short frame, or nil.
func (a *FrameAssembler) Flush() *Frame {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.buffer.DataSize() == 0 {
		return nil
	}
	f, err := a.buffer.GetFrame(a.buffer.DataSize())
	if err != nil {
		return nil
	}
	return f
}

// Buffered returns the number of bytes waiting for a complete frame.
func (a *FrameAssembler) Buffered() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buffer.DataSize()
}
