package graph

import "gofiltergraph/filtergraph/pcm"

// availableSamples returns how many samples an input can deliver this
// cycle: the size of the frame just passed in, capped by what is buffered.
// Without an explicit frame it is everything buffered.
func availableSamples(frame *pcm.Frame, buffer *pcm.FrameBuffer) int {
	buffered := buffer.SampleCount()
	if n := frame.SampleCount(); n > 0 {
		return min(n, buffered)
	}
	return buffered
}

// minInputSamples returns the number of samples every input can deliver.
func minInputSamples(available []int) int {
	if len(available) == 0 {
		return 0
	}
	m := available[0]
	for _, n := range available[1:] {
		m = min(m, n)
	}
	return m
}

// areInputFrameSizesEqual reports whether every input frame carries the same,
// non-zero number of samples.
func areInputFrameSizesEqual(inputs []*pcm.Frame) bool {
	if len(inputs) == 0 {
		return false
	}
	n := inputs[0].SampleCount()
	if n == 0 {
		return false
	}
	for _, in := range inputs[1:] {
		if in.SampleCount() != n {
			return false
		}
	}
	return true
}

func areFrameBuffersEmpty(buffers []*pcm.FrameBuffer) bool {
	for _, b := range buffers {
		if !b.IsEmpty() {
			return false
		}
	}
	return true
}
