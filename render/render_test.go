package render_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ocrabit/sao-guidance/log"
	"github.com/Ocrabit/sao-guidance/metric"
	"github.com/Ocrabit/sao-guidance/midi"
	"github.com/Ocrabit/sao-guidance/render"
	"github.com/Ocrabit/sao-guidance/signal"
	"github.com/Ocrabit/sao-guidance/test"
	"github.com/Ocrabit/sao-guidance/wav"
)

func init() {
	render.SetLogger(log.Silent())
}

func writeMelody(t *testing.T, dir string) string {
	path := filepath.Join(dir, "melody.mid")
	data := test.Melody(t,
		test.Note{Key: 69, Quarters: 1},
		test.Note{Key: 81, Quarters: 1},
	)
	require.Nil(t, os.WriteFile(path, data, 0644))
	return path
}

// fakeRunner writes a sine wav to the path following -F.
type fakeRunner struct {
	args       []string
	sampleRate int
	err        error
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, int, error) {
	r.args = append([]string{name}, args...)
	if r.err != nil {
		return nil, []byte("fluidsynth: error"), 1, r.err
	}
	for i := range args {
		if args[i] == "-F" {
			s := test.Sine(440, r.sampleRate, 100*time.Millisecond, 0.5)
			if err := wav.EncodeFile(args[i+1], s, r.sampleRate, signal.BitDepth16); err != nil {
				return nil, nil, 1, err
			}
		}
	}
	return nil, nil, 0, nil
}

func TestOscillator(t *testing.T) {
	seq := &midi.Sequence{
		Notes: []midi.Note{
			{Key: 69, Velocity: 127, Start: 0, End: 500 * time.Millisecond},
			{Key: 57, Velocity: 127, Start: 250 * time.Millisecond, End: time.Second},
		},
		Duration: time.Second,
	}
	s, err := render.Oscillator{}.Synthesize(context.Background(), seq, test.SampleRate)
	require.Nil(t, err)
	assert.Equal(t, 1, s.NumChannels())
	assert.Equal(t, signal.SamplesIn(test.SampleRate, time.Second+render.DefaultRelease), s.Size())
	assert.True(t, s.Peak() > 0)
	assert.True(t, s.Peak() <= 1)
	// attack starts from silence.
	assert.Equal(t, 0.0, s[0][0])
	// everything is released by the end.
	assert.InDelta(t, 0, s[0][s.Size()-1], 1e-3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = render.Oscillator{}.Synthesize(ctx, seq, test.SampleRate)
	assert.Equal(t, context.Canceled, err)
}

func TestFluidSynth(t *testing.T) {
	dir := t.TempDir()
	mid := writeMelody(t, dir)
	sf := filepath.Join(dir, "font.sf3")
	require.Nil(t, os.WriteFile(sf, []byte("sf"), 0644))

	runner := &fakeRunner{sampleRate: 22050}
	fs := &render.FluidSynth{SoundFont: sf, TempDir: dir, Runner: runner}
	s, err := fs.Render(context.Background(), mid, 22050)
	require.Nil(t, err)
	assert.Equal(t, 2205, s.Size())

	require.Equal(t, 10, len(runner.args))
	assert.Equal(t, []string{"fluidsynth", "-ni", "-g", "1", "-F"}, runner.args[:5])
	assert.Equal(t, []string{"-r", "22050", sf, mid}, runner.args[6:])
	// intermediate file is removed.
	_, err = os.Stat(runner.args[5])
	assert.True(t, os.IsNotExist(err))

	// sample rate mismatch.
	_, err = fs.Render(context.Background(), mid, 16000)
	assert.NotNil(t, err)

	_, err = (&render.FluidSynth{}).Render(context.Background(), mid, 16000)
	assert.Equal(t, render.ErrNoSoundFont, err)
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	mid := writeMelody(t, dir)
	sf := filepath.Join(dir, "font.sf3")
	require.Nil(t, os.WriteFile(sf, []byte("sf"), 0644))
	runErr := errors.New("not installed")

	// fluidsynth fails, oscillator takes over.
	res, err := render.File(context.Background(), mid, 0,
		&render.FluidSynth{SoundFont: sf, TempDir: dir, Runner: &fakeRunner{err: runErr}},
		render.Oscillator{},
	)
	require.Nil(t, err)
	assert.Equal(t, "oscillator", res.Engine)
	assert.Equal(t, render.DefaultSampleRate, res.SampleRate)
	assert.True(t, res.Signal.Size() > 0)

	res, err = render.File(context.Background(), mid, 22050,
		&render.FluidSynth{SoundFont: sf, TempDir: dir, Runner: &fakeRunner{sampleRate: 22050}},
		render.Oscillator{},
	)
	require.Nil(t, err)
	assert.Equal(t, "fluidsynth", res.Engine)

	_, err = render.File(context.Background(), mid, 16000,
		&render.FluidSynth{SoundFont: sf, TempDir: dir, Runner: &fakeRunner{err: runErr}},
	)
	assert.True(t, errors.Is(err, runErr))

	_, err = render.File(context.Background(), mid, 16000)
	assert.Equal(t, render.ErrNoEngine, err)
}

func TestFileMetrics(t *testing.T) {
	mid := writeMelody(t, t.TempDir())
	_, err := render.File(context.Background(), mid, 8000, render.Oscillator{})
	require.Nil(t, err)
	assert.NotEmpty(t, metric.Get(render.Oscillator{})[metric.CallCounter])
}
