package mp3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"

	"github.com/viert/lame"

	"github.com/Ocrabit/sao-guidance/signal"
)

// Default encoder settings.
const (
	DefaultBitRate = 192
	DefaultQuality = 2
)

// Encoder writes signals as joint stereo VBR mp3.
type Encoder struct {
	BitRate int
	Quality int
}

// Encode writes the signal into w. Mono signals are duplicated into both
// channels, extra channels are dropped.
func (e Encoder) Encode(w io.Writer, s signal.Float64, sampleRate int) error {
	s, err := stereo(s)
	if err != nil {
		return err
	}
	bitRate, quality := e.BitRate, e.Quality
	if bitRate == 0 {
		bitRate = DefaultBitRate
	}
	if quality == 0 {
		quality = DefaultQuality
	}

	wr := lame.NewWriter(w)
	wr.Encoder.SetBitrate(bitRate)
	wr.Encoder.SetQuality(quality)
	wr.Encoder.SetNumChannels(NumChannels)
	wr.Encoder.SetInSamplerate(sampleRate)
	wr.Encoder.SetMode(lame.JOINT_STEREO)
	wr.Encoder.SetVBR(lame.VBR_RH)
	wr.Encoder.InitParams()

	buf := new(bytes.Buffer)
	for _, v := range s.AsInterInt(signal.BitDepth16) {
		if err := binary.Write(buf, binary.LittleEndian, int16(v)); err != nil {
			return err
		}
	}
	if _, err := wr.Write(buf.Bytes()); err != nil {
		wr.Close()
		return err
	}
	return wr.Close()
}

// EncodeFile creates the file at path and encodes the signal into it.
func (e Encoder) EncodeFile(path string, s signal.Float64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := e.Encode(f, s, sampleRate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func stereo(s signal.Float64) (signal.Float64, error) {
	switch s.NumChannels() {
	case 0:
		return nil, errors.New("signal has no channels")
	case 1:
		return signal.Float64{s[0], s[0]}, nil
	default:
		return s[:NumChannels], nil
	}
}
