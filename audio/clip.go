package audio

import (
	"time"

	"github.com/Ocrabit/sao-guidance/signal"
)

// Clip is a decoded audio file kept in memory.
type Clip struct {
	Signal     signal.Float64
	SampleRate int
	// Decoder tags which decode path produced the clip.
	Decoder Decoder
}

// NumChannels returns a number of channels of the clip data.
func (c *Clip) NumChannels() int {
	if c == nil {
		return 0
	}
	return c.Signal.NumChannels()
}

// Duration returns time length of the clip.
func (c *Clip) Duration() time.Duration {
	if c == nil {
		return 0
	}
	return signal.DurationOf(c.SampleRate, c.Signal.Size())
}

// Mono returns clip samples mixed down to a single channel.
func (c *Clip) Mono() []float64 {
	if c == nil {
		return nil
	}
	return c.Signal.Mono()
}

// Slice returns a segment of the clip which shares data with it.
//
// if start is out of clip, nil is returned
// if start + length exceeds the clip, length is decreased till the end
func (c *Clip) Slice(start, length time.Duration) *Clip {
	size := c.Signal.Size()
	from := signal.SamplesIn(c.SampleRate, start)
	if start < 0 || from >= size {
		return nil
	}
	to := from + signal.SamplesIn(c.SampleRate, length)
	if to > size {
		to = size
	}
	s := make(signal.Float64, c.Signal.NumChannels())
	for i := range c.Signal {
		s[i] = c.Signal[i][from:to]
	}
	return &Clip{
		Signal:     s,
		SampleRate: c.SampleRate,
		Decoder:    c.Decoder,
	}
}
