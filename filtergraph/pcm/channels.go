package pcm

// ConvertChannels changes the channel count of interleaved float samples.
// Downmixing to mono averages all channels, upmixing from mono duplicates it.
// Any other combination maps channel c to c%inCh and averages what folds
// onto the same output channel.
// Returns dst grown as needed.
func ConvertChannels(dst []float64, src []float64, inCh int, outCh int) []float64 {
	if inCh <= 0 {
		inCh = 1
	}
	if outCh <= 0 {
		outCh = 1
	}
	frames := len(src) / inCh
	n := frames * outCh
	if cap(dst) < n {
		dst = make([]float64, n)
	} else {
		dst = dst[:n]
	}
	if inCh == outCh {
		copy(dst, src[:n])
		return dst
	}
	for f := 0; f < frames; f++ {
		in := src[f*inCh : f*inCh+inCh]
		out := dst[f*outCh : f*outCh+outCh]
		switch {
		case outCh == 1:
			var sum float64
			for _, v := range in {
				sum += v
			}
			out[0] = sum / float64(inCh)
		case inCh == 1:
			for c := range out {
				out[c] = in[0]
			}
		case inCh > outCh:
			for c := range out {
				var sum float64
				cnt := 0
				for ic := c; ic < inCh; ic += outCh {
					sum += in[ic]
					cnt++
				}
				out[c] = sum / float64(cnt)
			}
		default:
			for c := range out {
				out[c] = in[c%inCh]
			}
		}
	}
	return dst
}
