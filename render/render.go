/*
Package render synthesizes midi files into audio.

Rendering is done by engines. FluidSynth drives the external fluidsynth
binary with a SoundFont, Oscillator is a built-in additive synthesizer
which needs nothing but the midi data. File tries engines in order and
tags the result with the engine that produced it:

	res, err := render.File(ctx, "melody.mid", 16000,
		&render.FluidSynth{SoundFont: sf},
		render.Oscillator{},
	)
*/
package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ocrabit/sao-guidance/log"
	"github.com/Ocrabit/sao-guidance/metric"
	"github.com/Ocrabit/sao-guidance/signal"
)

// DefaultSampleRate is used when sample rate is not provided.
const DefaultSampleRate = 16000

// Engine renders a midi file into a signal.
type Engine interface {
	Name() string
	Render(ctx context.Context, path string, sampleRate int) (signal.Float64, error)
}

// Result of rendering.
type Result struct {
	Signal     signal.Float64
	SampleRate int
	// Engine is the name of engine which rendered the signal.
	Engine string
}

// ErrNoEngine is returned when no engines are provided.
var ErrNoEngine = errors.New("no render engines provided")

var logger log.Logger = log.GetLogger()

// SetLogger replaces the package logger.
func SetLogger(l log.Logger) {
	logger = l
}

// File renders midi file at path with the first engine that succeeds.
// Context cancellation stops the chain immediately.
func File(ctx context.Context, path string, sampleRate int, engines ...Engine) (*Result, error) {
	if len(engines) == 0 {
		return nil, ErrNoEngine
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	var errs []error
	for _, e := range engines {
		measure := metric.Meter(e)()
		s, err := e.Render(ctx, path, sampleRate)
		// bytes counter holds rendered samples per channel.
		measure(int64(s.Size()), err)
		if err == nil {
			logger.Debugf("rendered %s with %s", path, e.Name())
			return &Result{Signal: s, SampleRate: sampleRate, Engine: e.Name()}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Infof("%s failed to render %s: %v", e.Name(), path, err)
		errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
	}
	return nil, fmt.Errorf("render %s: %w", path, errors.Join(errs...))
}
