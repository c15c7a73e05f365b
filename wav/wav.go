// Package wav reads and writes PCM wav files as signal.Float64.
package wav

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Ocrabit/sao-guidance/signal"
)

// pcmFormat is the wav audio format code for integer PCM.
const pcmFormat = 1

var (
	// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
	ErrUnsupportedBitDepth = errors.New("only 16, 24 and 32 bit depth is supported")
	// ErrInvalidFile is returned when the stream doesn't contain valid wav data.
	ErrInvalidFile = errors.New("wav is not valid")
)

// Properties of decoded wav stream.
type Properties struct {
	SampleRate  int
	NumChannels int
	BitDepth    signal.BitDepth
}

func supported(bitDepth signal.BitDepth) bool {
	switch bitDepth {
	case signal.BitDepth16, signal.BitDepth24, signal.BitDepth32:
		return true
	}
	return false
}

// Decode reads the whole wav stream into memory.
func Decode(r io.ReadSeeker) (signal.Float64, Properties, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, Properties{}, ErrInvalidFile
	}
	props := Properties{
		SampleRate:  int(decoder.SampleRate),
		NumChannels: int(decoder.NumChans),
		BitDepth:    signal.BitDepth(decoder.BitDepth),
	}
	if !supported(props.BitDepth) {
		return nil, Properties{}, ErrUnsupportedBitDepth
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, Properties{}, fmt.Errorf("decode pcm: %w", err)
	}
	ints := signal.InterInt{
		Data:        buf.Data,
		NumChannels: props.NumChannels,
		BitDepth:    props.BitDepth,
	}
	return ints.AsFloat64(), props, nil
}

// DecodeFile opens the file at path and decodes it.
func DecodeFile(path string) (signal.Float64, Properties, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Properties{}, err
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes the signal as integer PCM wav.
func Encode(w io.WriteSeeker, s signal.Float64, sampleRate int, bitDepth signal.BitDepth) error {
	if !supported(bitDepth) {
		return ErrUnsupportedBitDepth
	}
	numChannels := s.NumChannels()
	if numChannels == 0 {
		return errors.New("signal has no channels")
	}
	e := wav.NewEncoder(w, sampleRate, int(bitDepth), numChannels, pcmFormat)
	ib := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  sampleRate,
		},
		Data:           s.AsInterInt(bitDepth),
		SourceBitDepth: int(bitDepth),
	}
	if err := e.Write(ib); err != nil {
		return err
	}
	return e.Close()
}

// EncodeFile creates the file at path and encodes the signal into it.
func EncodeFile(path string, s signal.Float64, sampleRate int, bitDepth signal.BitDepth) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, s, sampleRate, bitDepth); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
