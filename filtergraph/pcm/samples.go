package pcm

import (
	"encoding/binary"
	"math"
)

// ToFloat64 decodes interleaved samples of format f into dst, scaled to
// [-1, 1]. dst is grown as needed and returned.
func ToFloat64(dst []float64, src []byte, f SampleFormat) []float64 {
	w := f.Width()
	if w == 0 {
		return dst[:0]
	}
	n := len(src) / w
	if cap(dst) < n {
		dst = make([]float64, n)
	} else {
		dst = dst[:n]
	}
	for i := 0; i < n; i++ {
		p := src[i*w : i*w+w]
		switch f {
		case FormatU8:
			dst[i] = (float64(p[0]) - 128) / 128
		case FormatS16:
			dst[i] = float64(int16(binary.LittleEndian.Uint16(p))) / 32768
		case FormatS32:
			dst[i] = float64(int32(binary.LittleEndian.Uint32(p))) / 2147483648
		case FormatF32:
			dst[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(p)))
		case FormatF64:
			dst[i] = math.Float64frombits(binary.LittleEndian.Uint64(p))
		}
	}
	return dst
}

// FromFloat64 encodes src into format f. Integer formats are clipped.
func FromFloat64(dst []byte, src []float64, f SampleFormat) []byte {
	w := f.Width()
	need := len(src) * w
	if cap(dst) < need {
		dst = make([]byte, need)
	} else {
		dst = dst[:need]
	}
	for i, v := range src {
		p := dst[i*w : i*w+w]
		switch f {
		case FormatU8:
			p[0] = uint8(clip(math.Round(v*128)+128, 0, 255))
		case FormatS16:
			binary.LittleEndian.PutUint16(p, uint16(int16(clip(math.Round(v*32768), -32768, 32767))))
		case FormatS32:
			binary.LittleEndian.PutUint32(p, uint32(int32(clip(math.Round(v*2147483648), -2147483648, 2147483647))))
		case FormatF32:
			binary.LittleEndian.PutUint32(p, math.Float32bits(float32(v)))
		case FormatF64:
			binary.LittleEndian.PutUint64(p, math.Float64bits(v))
		}
	}
	return dst
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
