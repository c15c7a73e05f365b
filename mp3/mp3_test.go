package mp3_test

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ocrabit/sao-guidance/mp3"
	"github.com/Ocrabit/sao-guidance/test"
)

const sampleRate = 44100

func TestEncodeDecode(t *testing.T) {
	in := test.Sine(440, sampleRate, time.Second, 0.5)
	path := filepath.Join(t.TempDir(), "sine.mp3")

	err := mp3.Encoder{}.EncodeFile(path, in, sampleRate)
	require.Nil(t, err)

	out, rate, err := mp3.DecodeFile(path)
	require.Nil(t, err)
	assert.Equal(t, sampleRate, rate)
	assert.Equal(t, mp3.NumChannels, out.NumChannels())
	// encoder pads the stream with priming and trailing frames.
	assert.True(t, out.Size() >= in.Size()/2, "decoded %d samples", out.Size())
	assert.InDelta(t, 0.5, out.Peak(), 0.2)
}

func TestEncodeEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := mp3.Encoder{}.Encode(&buf, nil, sampleRate)
	assert.NotNil(t, err)
}

func TestDecodeInvalid(t *testing.T) {
	_, _, err := mp3.Decode(bytes.NewReader(nil))
	assert.NotNil(t, err)
}
