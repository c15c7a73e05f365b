// Package signal holds decoded audio in memory. It allows to:
// 	- convert interleaved PCM ints to non-interleaved floats and back
//	- mix channels down to mono
//	- measure and scale peaks
package signal

import (
	"math"
	"time"
)

// Float64 is a non-interleaved float64 signal. First dimension is the
// channel, values are in [-1, 1].
type Float64 [][]float64

const (
	// BitDepth8 is 8 bit depth.
	BitDepth8 = BitDepth(8)
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth24 is 24 bit depth.
	BitDepth24 = BitDepth(24)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// BitDepth contains values required for int-to-float and backward conversion.
type BitDepth int

// InterInt is an interleaved int signal.
type InterInt struct {
	Data        []int
	NumChannels int
	BitDepth
}

// scale is the full-scale int value for the bit depth.
func (bitDepth BitDepth) scale() float64 {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8
	case BitDepth16:
		return math.MaxInt16
	case BitDepth24:
		return 1<<23 - 1
	case BitDepth32:
		return math.MaxInt32
	default:
		return 1
	}
}

// DurationOf returns time duration of passed samples for this sample rate.
func DurationOf(sampleRate int, samples int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}

// SamplesIn returns number of samples that fit into d.
func SamplesIn(sampleRate int, d time.Duration) int {
	return int(math.Round(d.Seconds() * float64(sampleRate)))
}

// AsFloat64 converts interleaved int signal to float64. Missing trailing
// samples of the last frame are zero.
func (ints InterInt) AsFloat64() Float64 {
	if ints.Data == nil || ints.NumChannels == 0 {
		return nil
	}
	size := (len(ints.Data) + ints.NumChannels - 1) / ints.NumChannels
	scale := ints.BitDepth.scale()
	floats := Empty(ints.NumChannels, size)
	for i, v := range ints.Data {
		floats[i%ints.NumChannels][i/ints.NumChannels] = float64(v) / scale
	}
	return floats
}

// AsInterInt converts float64 signal to interleaved int. Values outside
// [-1, 1] are clipped.
func (floats Float64) AsInterInt(bitDepth BitDepth) []int {
	numChannels := floats.NumChannels()
	if numChannels == 0 {
		return nil
	}
	scale := bitDepth.scale()
	ints := make([]int, floats.Size()*numChannels)
	for c := range floats {
		for i, v := range floats[c] {
			ints[i*numChannels+c] = int(clip(v) * scale)
		}
	}
	return ints
}

// Interleave returns float samples in frame order.
func (floats Float64) Interleave() []float64 {
	numChannels := floats.NumChannels()
	result := make([]float64, floats.Size()*numChannels)
	for c := range floats {
		for i, v := range floats[c] {
			result[i*numChannels+c] = v
		}
	}
	return result
}

// Empty returns an empty signal of specified dimensions.
func Empty(numChannels int, size int) Float64 {
	result := make([][]float64, numChannels)
	for i := range result {
		result[i] = make([]float64, size)
	}
	return result
}

// NumChannels returns number of channels in this signal.
func (floats Float64) NumChannels() int {
	return len(floats)
}

// Size returns number of samples per channel.
func (floats Float64) Size() int {
	if floats.NumChannels() == 0 {
		return 0
	}
	return len(floats[0])
}

// Mono averages all channels into one.
func (floats Float64) Mono() []float64 {
	numChannels := floats.NumChannels()
	if numChannels == 0 {
		return nil
	}
	if numChannels == 1 {
		return append([]float64(nil), floats[0]...)
	}
	result := make([]float64, floats.Size())
	for c := range floats {
		for i, v := range floats[c] {
			result[i] += v
		}
	}
	for i := range result {
		result[i] /= float64(numChannels)
	}
	return result
}

// Peak returns the maximum absolute sample value.
func (floats Float64) Peak() float64 {
	var peak float64
	for c := range floats {
		for _, v := range floats[c] {
			if a := math.Abs(v); a > peak {
				peak = a
			}
		}
	}
	return peak
}

// Normalize scales signal in place so its peak equals target. Silent
// signals are left untouched.
func (floats Float64) Normalize(target float64) {
	peak := floats.Peak()
	if peak == 0 {
		return
	}
	gain := target / peak
	for c := range floats {
		for i := range floats[c] {
			floats[c][i] *= gain
		}
	}
}

func clip(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
