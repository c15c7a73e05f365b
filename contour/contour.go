// Package contour extracts pitch contours from midi sequences and audio.
//
// A contour is a series of frequency values sampled at a fixed hop. Zero
// frequency marks an unvoiced frame.
package contour

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"math/cmplx"
	"strconv"
	"time"

	"github.com/maddyblue/go-dsp/fft"

	"github.com/Ocrabit/sao-guidance/midi"
)

// Defaults for audio estimation.
const (
	DefaultFrameSize = 2048
	DefaultHop       = 10 * time.Millisecond
	// DefaultThreshold is the minimal frame RMS considered voiced.
	DefaultThreshold = 0.01
	// MinFrequency is the lowest pitch reported by Estimate.
	MinFrequency = 50.0
)

// ErrInvalidHop is returned when hop is not positive.
var ErrInvalidHop = errors.New("hop must be positive")

// Contour is a pitch track.
type Contour struct {
	Hop time.Duration
	// Hz per frame, 0 when unvoiced.
	Hz []float64
}

// Len returns number of frames.
func (c Contour) Len() int {
	return len(c.Hz)
}

// Time returns start time of frame i.
func (c Contour) Time(i int) time.Duration {
	return time.Duration(i) * c.Hop
}

// Voiced returns share of voiced frames.
func (c Contour) Voiced() float64 {
	if len(c.Hz) == 0 {
		return 0
	}
	var n int
	for _, v := range c.Hz {
		if v > 0 {
			n++
		}
	}
	return float64(n) / float64(len(c.Hz))
}

// Cents converts the contour to cents relative to ref Hz. Unvoiced frames
// are NaN.
func (c Contour) Cents(ref float64) []float64 {
	result := make([]float64, len(c.Hz))
	for i, v := range c.Hz {
		if v <= 0 || ref <= 0 {
			result[i] = math.NaN()
			continue
		}
		result[i] = 1200 * math.Log2(v/ref)
	}
	return result
}

// WriteCSV writes "seconds,hz,key" rows with a header. Key is empty for
// unvoiced frames.
func (c Contour) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"seconds", "hz", "key"}); err != nil {
		return err
	}
	for i, v := range c.Hz {
		key := ""
		if v > 0 {
			key = strconv.Itoa(int(midi.Key(v)))
		}
		row := []string{
			strconv.FormatFloat(c.Time(i).Seconds(), 'f', 3, 64),
			strconv.FormatFloat(v, 'f', 2, 64),
			key,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FromSequence samples the melody of a midi sequence: the highest sounding
// note in every frame.
func FromSequence(seq *midi.Sequence, hop time.Duration) (Contour, error) {
	if hop <= 0 {
		return Contour{}, ErrInvalidHop
	}
	frames := int(seq.Duration / hop)
	c := Contour{Hop: hop, Hz: make([]float64, frames)}
	for i := range c.Hz {
		var top uint8
		var voiced bool
		for _, n := range seq.At(c.Time(i)) {
			if !voiced || n.Key > top {
				top, voiced = n.Key, true
			}
		}
		if voiced {
			c.Hz[i] = midi.Frequency(top)
		}
	}
	return c, nil
}

// Estimate tracks the dominant frequency of mono samples. Each frame is
// windowed with Hann window, the strongest spectrum bin above MinFrequency
// is refined with parabolic interpolation. Frames quieter than threshold
// are unvoiced. Zero frameSize and threshold take defaults.
func Estimate(samples []float64, sampleRate, frameSize int, hop time.Duration, threshold float64) (Contour, error) {
	if hop <= 0 {
		return Contour{}, ErrInvalidHop
	}
	if sampleRate <= 0 {
		return Contour{}, errors.New("sample rate must be positive")
	}
	if frameSize <= 0 {
		frameSize = DefaultFrameSize
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	step := int(hop.Seconds() * float64(sampleRate))
	if step <= 0 {
		step = 1
	}

	window := hann(frameSize)
	frame := make([]float64, frameSize)
	minBin := int(math.Ceil(MinFrequency * float64(frameSize) / float64(sampleRate)))
	if minBin < 1 {
		minBin = 1
	}

	c := Contour{Hop: time.Duration(step) * time.Second / time.Duration(sampleRate)}
	for start := 0; start+frameSize <= len(samples); start += step {
		var energy float64
		for i := range frame {
			v := samples[start+i]
			energy += v * v
			frame[i] = v * window[i]
		}
		if math.Sqrt(energy/float64(frameSize)) < threshold {
			c.Hz = append(c.Hz, 0)
			continue
		}
		c.Hz = append(c.Hz, peak(fft.FFTReal(frame), minBin, sampleRate, frameSize))
	}
	return c, nil
}

func peak(spectrum []complex128, minBin, sampleRate, frameSize int) float64 {
	half := len(spectrum) / 2
	mags := make([]float64, half+1)
	for i := range mags {
		mags[i] = cmplx.Abs(spectrum[i])
	}
	best := minBin
	for i := minBin; i < half; i++ {
		if mags[i] > mags[best] {
			best = i
		}
	}
	offset := 0.0
	if best > 0 && best < half {
		a, b, g := mags[best-1], mags[best], mags[best+1]
		if d := a - 2*b + g; d != 0 {
			offset = 0.5 * (a - g) / d
		}
	}
	return (float64(best) + offset) * float64(sampleRate) / float64(frameSize)
}

func hann(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}
