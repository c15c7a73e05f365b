// Package portaudio plays signals through the default output device.
package portaudio

import (
	"context"

	"github.com/gordonklaus/portaudio"

	"github.com/Ocrabit/sao-guidance/signal"
)

// DefaultBufferSize is the number of frames written per stream call.
const DefaultBufferSize = 512

// Play writes the signal to the default output stream. It returns when the
// whole signal is played or ctx is done.
func Play(ctx context.Context, s signal.Float64, sampleRate, bufferSize int) (err error) {
	numChannels := s.NumChannels()
	if numChannels == 0 {
		return nil
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	if err := portaudio.Initialize(); err != nil {
		return err
	}
	defer func() {
		if terr := portaudio.Terminate(); err == nil {
			err = terr
		}
	}()

	buf := make([]float32, bufferSize*numChannels)
	stream, err := portaudio.OpenDefaultStream(0, numChannels, float64(sampleRate), bufferSize, &buf)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stream.Close(); err == nil {
			err = cerr
		}
	}()
	if err := stream.Start(); err != nil {
		return err
	}

	for pos := 0; pos < s.Size(); pos += bufferSize {
		if err := ctx.Err(); err != nil {
			stream.Abort()
			return err
		}
		fill(buf, s, pos, numChannels)
		if err := stream.Write(); err != nil {
			return err
		}
	}
	return stream.Stop()
}

// fill interleaves frames starting at pos into buf, padding with silence.
func fill(buf []float32, s signal.Float64, pos, numChannels int) {
	for i := range buf {
		frame := pos + i/numChannels
		if frame < s.Size() {
			buf[i] = float32(s[i%numChannels][frame])
		} else {
			buf[i] = 0
		}
	}
}
