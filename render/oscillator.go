package render

import (
	"context"
	"math"
	"time"

	"github.com/Ocrabit/sao-guidance/midi"
	"github.com/Ocrabit/sao-guidance/signal"
)

// Oscillator defaults.
const (
	DefaultHarmonics = 4
	DefaultAttack    = 10 * time.Millisecond
	DefaultRelease   = 50 * time.Millisecond
)

// Oscillator is an additive synthesizer. Each note is a sum of harmonics
// with 1/n amplitudes shaped by a linear attack and release. Zero values
// are replaced with defaults.
type Oscillator struct {
	Harmonics int
	Attack    time.Duration
	Release   time.Duration
}

// Name implements Engine.
func (Oscillator) Name() string {
	return "oscillator"
}

// Render implements Engine.
func (o Oscillator) Render(ctx context.Context, path string, sampleRate int) (signal.Float64, error) {
	seq, err := midi.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return o.Synthesize(ctx, seq, sampleRate)
}

// Synthesize renders the sequence into a mono signal. The result is
// scaled down if its peak exceeds full scale.
func (o Oscillator) Synthesize(ctx context.Context, seq *midi.Sequence, sampleRate int) (signal.Float64, error) {
	o = o.withDefaults()
	end := seq.Duration
	for _, n := range seq.Notes {
		if n.End > end {
			end = n.End
		}
	}
	out := signal.Empty(1, signal.SamplesIn(sampleRate, end+o.Release))
	for _, n := range seq.Notes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		o.note(out[0], n, sampleRate)
	}
	if out.Peak() > 1 {
		out.Normalize(1)
	}
	return out, nil
}

func (o Oscillator) withDefaults() Oscillator {
	if o.Harmonics <= 0 {
		o.Harmonics = DefaultHarmonics
	}
	if o.Attack <= 0 {
		o.Attack = DefaultAttack
	}
	if o.Release <= 0 {
		o.Release = DefaultRelease
	}
	return o
}

// note adds a single note into buf.
func (o Oscillator) note(buf []float64, n midi.Note, sampleRate int) {
	freq := n.Frequency()
	nyquist := float64(sampleRate) / 2
	gain := float64(n.Velocity) / 127 * 0.25

	var norm float64
	for h := 1; h <= o.Harmonics; h++ {
		norm += 1 / float64(h)
	}

	start := signal.SamplesIn(sampleRate, n.Start)
	held := signal.SamplesIn(sampleRate, n.Duration())
	attack := signal.SamplesIn(sampleRate, o.Attack)
	release := signal.SamplesIn(sampleRate, o.Release)
	for i := 0; i < held+release && start+i < len(buf); i++ {
		env := 1.0
		switch {
		case i < attack:
			env = float64(i) / float64(attack)
		case i >= held:
			env = 1 - float64(i-held)/float64(release)
		}
		if i >= held && held < attack {
			// note released before attack finished.
			env *= float64(held) / float64(attack)
		}
		t := float64(i) / float64(sampleRate)
		var v float64
		for h := 1; h <= o.Harmonics; h++ {
			f := freq * float64(h)
			if f >= nyquist {
				break
			}
			v += math.Sin(2*math.Pi*f*t) / float64(h)
		}
		buf[start+i] += gain * env * v / norm
	}
}
