package graph

import "gofiltergraph/filtergraph/pcm"

// CodecContext is what the graph needs to know about the consumer of its
// output: the expected sample layout and the frame size it wants.
type CodecContext interface {
	// Descriptor returns the expected output layout. A zero descriptor
	// accepts whatever the chain produces.
	Descriptor() pcm.FrameDescriptor
	// FrameSamples returns the fixed number of samples per output frame,
	// or 0 when any size will do.
	FrameSamples() int
}

// Codec is a static CodecContext.
type Codec struct {
	Format    pcm.FrameDescriptor
	FrameSize int
}

func (c Codec) Descriptor() pcm.FrameDescriptor { return c.Format }

func (c Codec) FrameSamples() int { return c.FrameSize }
