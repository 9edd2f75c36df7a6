package pcm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameAssembler(t *testing.T) {
	desc := FrameDescriptor{SampleRate: 48000, Channels: 1, Format: FormatS16}
	a := NewFrameAssembler(desc, 4) // 8 bytes per frame

	frames, err := a.Push(NewFrame(desc, seq(0, 6)))
	require.NoError(t, err)
	assert.Empty(t, frames)
	assert.Equal(t, 6, a.Buffered())

	frames, err = a.Push(NewFrame(desc, seq(6, 20)))
	require.NoError(t, err)
	require.Len(t, frames, 3)
	for i, f := range frames {
		assert.Equal(t, seq(i*8, 8), f.Data())
		f.Release()
	}
	assert.Equal(t, 2, a.Buffered())

	rest := a.Flush()
	require.NotNil(t, rest)
	assert.Equal(t, seq(24, 2), rest.Data())
	rest.Release()
	assert.Nil(t, a.Flush())
}
