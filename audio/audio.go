/*
Package audio loads and saves audio files of any supported format.

Loading goes through an ordered list of decoders. The primary decoder is
tried first; when it fails, the next one is attempted and so on. The
returned clip is tagged with the decoder that succeeded, so callers can
tell a wav file from an mp3 that was named .wav:

	clip, err := audio.Load("take.wav")
	if clip.Decoder == audio.MP3 { ... }

The chain is an explicit value. Nothing is rebound process-wide, and
custom chains can be passed to LoadWith.
*/
package audio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Ocrabit/sao-guidance/mp3"
	"github.com/Ocrabit/sao-guidance/signal"
	"github.com/Ocrabit/sao-guidance/wav"
)

// Decoder names a decode path.
type Decoder string

// Known decoders.
const (
	WAV Decoder = "wav"
	MP3 Decoder = "mp3"
)

// DecodeFunc reads the file at path into memory.
type DecodeFunc func(path string) (signal.Float64, int, error)

// Strategy is a single decode path of the fallback chain.
type Strategy struct {
	Decoder
	Decode DecodeFunc
}

// DefaultChain tries wav first and falls back to mp3.
var DefaultChain = []Strategy{
	{Decoder: WAV, Decode: decodeWav},
	{Decoder: MP3, Decode: mp3.DecodeFile},
}

// ErrNoDecoder is returned when decoder chain is empty.
var ErrNoDecoder = errors.New("no decoders provided")

// Load reads the file with default chain.
func Load(path string) (*Clip, error) {
	return LoadWith(path, DefaultChain...)
}

// LoadWith tries provided strategies in order. If all of them fail, the
// returned error wraps every failure.
func LoadWith(path string, chain ...Strategy) (*Clip, error) {
	if len(chain) == 0 {
		return nil, ErrNoDecoder
	}
	var errs []error
	for _, s := range chain {
		floats, sampleRate, err := s.Decode(path)
		if err == nil {
			return &Clip{
				Signal:     floats,
				SampleRate: sampleRate,
				Decoder:    s.Decoder,
			}, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Decoder, err))
	}
	return nil, fmt.Errorf("load %s: %w", path, errors.Join(errs...))
}

func decodeWav(path string) (signal.Float64, int, error) {
	floats, props, err := wav.DecodeFile(path)
	return floats, props.SampleRate, err
}

// Save writes the clip into a file. Format is chosen by the extension of
// path: .mp3 is encoded with default mp3 settings, anything else is
// written as 16 bit wav.
func Save(path string, c *Clip) error {
	if c == nil || c.NumChannels() == 0 {
		return errors.New("empty clip")
	}
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		return mp3.Encoder{}.EncodeFile(path, c.Signal, c.SampleRate)
	}
	return wav.EncodeFile(path, c.Signal, c.SampleRate, signal.BitDepth16)
}
