package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/xid"

	"github.com/Ocrabit/sao-guidance/signal"
	"github.com/Ocrabit/sao-guidance/wav"
)

// DefaultFluidSynth is the binary name looked up in PATH.
const DefaultFluidSynth = "fluidsynth"

// ErrNoSoundFont is returned when FluidSynth has no SoundFont to render with.
var ErrNoSoundFont = errors.New("soundfont is not provided")

// FluidSynth renders midi files with the external fluidsynth binary.
type FluidSynth struct {
	Binary    string
	SoundFont string
	// Gain passed to the synthesizer, 1.0 when zero.
	Gain float64
	// TempDir keeps intermediate wav files, os.TempDir when empty.
	TempDir string
	Runner  Runner
}

// Name implements Engine.
func (*FluidSynth) Name() string {
	return "fluidsynth"
}

// Render implements Engine. The binary writes a wav file which is loaded
// and removed.
func (f *FluidSynth) Render(ctx context.Context, path string, sampleRate int) (signal.Float64, error) {
	if f.SoundFont == "" {
		return nil, ErrNoSoundFont
	}
	if _, err := os.Stat(f.SoundFont); err != nil {
		return nil, fmt.Errorf("soundfont: %w", err)
	}
	binary := f.Binary
	if binary == "" {
		binary = DefaultFluidSynth
	}
	gain := f.Gain
	if gain == 0 {
		gain = 1
	}
	dir := f.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	var runner Runner = ExecRunner{}
	if f.Runner != nil {
		runner = f.Runner
	}

	out := filepath.Join(dir, "render-"+xid.New().String()+".wav")
	defer os.Remove(out)
	_, stderr, code, err := runner.Run(ctx, binary,
		"-ni",
		"-g", strconv.FormatFloat(gain, 'f', -1, 64),
		"-F", out,
		"-r", strconv.Itoa(sampleRate),
		f.SoundFont,
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("%s exited with %d: %w: %s", binary, code, err, strings.TrimSpace(string(stderr)))
	}

	s, props, err := wav.DecodeFile(out)
	if err != nil {
		return nil, fmt.Errorf("load rendered wav: %w", err)
	}
	if props.SampleRate != sampleRate {
		return nil, fmt.Errorf("rendered sample rate %d, expected %d", props.SampleRate, sampleRate)
	}
	return s, nil
}
