// Package mp3 decodes mp3 streams and encodes signals to mp3 files.
package mp3

import (
	"encoding/binary"
	"errors"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"

	"github.com/Ocrabit/sao-guidance/signal"
)

// NumChannels of decoded data. The decoder always provides stereo.
const NumChannels = 2

// Decode reads the whole mp3 stream into memory. It returns the signal and
// its sample rate.
func Decode(r io.Reader) (signal.Float64, int, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, err
	}

	ints := make([]int, 0, d.Length()/2)
	var val int16
	for {
		if err := binary.Read(d, binary.LittleEndian, &val); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, 0, err
		}
		ints = append(ints, int(val))
	}
	if len(ints) == 0 {
		return nil, 0, errors.New("mp3 stream has no samples")
	}

	s := signal.InterInt{
		Data:        ints,
		NumChannels: NumChannels,
		BitDepth:    signal.BitDepth16,
	}.AsFloat64()
	return s, d.SampleRate(), nil
}

// DecodeFile opens the file at path and decodes it.
func DecodeFile(path string) (signal.Float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return Decode(f)
}
