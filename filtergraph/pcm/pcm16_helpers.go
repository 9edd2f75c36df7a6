package pcm

import (
	"encoding/binary"

	msdk "github.com/livekit/media-sdk"
)

// resizeS16 returns dst with length n, reallocating only when it is too small.
func resizeS16(dst msdk.PCM16Sample, n int) msdk.PCM16Sample {
	if cap(dst) < n {
		return make(msdk.PCM16Sample, n)
	}
	return dst[:n]
}

// PCM16BytesToSample views the data of an s16 frame as media-sdk samples.
// A trailing odd byte is ignored. dst is reused when large enough.
func PCM16BytesToSample(dst msdk.PCM16Sample, data []byte) msdk.PCM16Sample {
	dst = resizeS16(dst, len(data)/2)
	for i := range dst {
		dst[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
	}
	return dst
}

// PCM16SampleToBytes lays samples out as s16 frame data. Passing the data of
// an allocated frame fills it in place.
func PCM16SampleToBytes(data []byte, samples msdk.PCM16Sample) []byte {
	if n := 2 * len(samples); cap(data) < n {
		data = make([]byte, n)
	} else {
		data = data[:n]
	}
	for i, v := range samples {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(v))
	}
	return data
}

// PCM16ConvertChannels is ConvertChannels for interleaved s16 samples.
// Averages are truncated towards zero.
func PCM16ConvertChannels(dst msdk.PCM16Sample, src msdk.PCM16Sample, inCh int, outCh int) msdk.PCM16Sample {
	inCh, outCh = max(inCh, 1), max(outCh, 1)
	frames := len(src) / inCh
	dst = resizeS16(dst, frames*outCh)
	if inCh == outCh {
		copy(dst, src)
		return dst
	}
	for f := 0; f < frames; f++ {
		in := src[f*inCh : (f+1)*inCh]
		out := dst[f*outCh : (f+1)*outCh]
		for c := range out {
			if inCh < outCh {
				out[c] = in[c%inCh]
				continue
			}
			// Fold input channels c, c+outCh, ... onto output channel c.
			var sum, cnt int32
			for ic := c; ic < inCh; ic += outCh {
				sum += int32(in[ic])
				cnt++
			}
			out[c] = int16(sum / cnt)
		}
	}
	return dst
}

// PCM16Deinterleave splits interleaved samples into one slice per channel,
// reusing the slices in dst.
func PCM16Deinterleave(dst []msdk.PCM16Sample, src msdk.PCM16Sample, channels int) []msdk.PCM16Sample {
	if channels < 1 {
		channels = 1
	}
	frames := len(src) / channels
	if cap(dst) < channels {
		dst = make([]msdk.PCM16Sample, channels)
	} else {
		dst = dst[:channels]
	}
	for c := range dst {
		dst[c] = resizeS16(dst[c], frames)
		for f := 0; f < frames; f++ {
			dst[c][f] = src[f*channels+c]
		}
	}
	return dst
}

// PCM16Interleave merges per-channel slices. Channels are truncated to the
// shortest one.
func PCM16Interleave(dst msdk.PCM16Sample, src []msdk.PCM16Sample) msdk.PCM16Sample {
	if len(src) == 0 {
		return dst[:0]
	}
	frames := len(src[0])
	for _, ch := range src[1:] {
		frames = min(frames, len(ch))
	}
	dst = resizeS16(dst, frames*len(src))
	for c, ch := range src {
		for f := 0; f < frames; f++ {
			dst[f*len(src)+c] = ch[f]
		}
	}
	return dst
}
