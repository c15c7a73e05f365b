package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/Ocrabit/sao-guidance/asset"
	"github.com/Ocrabit/sao-guidance/audio"
	"github.com/Ocrabit/sao-guidance/portaudio"
	"github.com/Ocrabit/sao-guidance/render"
)

type renderCommand struct {
	settings
	in         string
	out        string
	sampleRate int
	fetch      bool
	play       bool
}

func (cmd *renderCommand) Name() string {
	return "render"
}

func (cmd *renderCommand) Help() string {
	return "Synthesize a midi file into wav or mp3"
}

func (cmd *renderCommand) Register(fs *flag.FlagSet) {
	cmd.settings.register(fs)
	fs.StringVar(&cmd.in, "in", "", "input midi file (required)")
	fs.StringVar(&cmd.out, "out", "", "output .wav or .mp3 file")
	fs.IntVar(&cmd.sampleRate, "rate", 0, "sample rate, taken from config when zero")
	fs.BoolVar(&cmd.fetch, "fetch", false, "download default SoundFont if none is configured")
	fs.BoolVar(&cmd.play, "play", false, "play rendered audio")
}

func (cmd *renderCommand) Validate() error {
	var message []string
	if cmd.in == "" {
		message = append(message, "missing -in required flag")
	}
	if cmd.out == "" && !cmd.play {
		message = append(message, "either -out or -play is required")
	}
	if len(message) > 0 {
		return fmt.Errorf("%s", strings.Join(message, "; "))
	}
	return nil
}

func (cmd *renderCommand) Run(ctx context.Context, out io.Writer) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	cfg, logger, err := cmd.load()
	if err != nil {
		return err
	}
	sampleRate := cmd.sampleRate
	if sampleRate == 0 {
		sampleRate = cfg.SampleRate
	}
	soundFont := cfg.SoundFont
	if soundFont == "" && cmd.fetch {
		if soundFont, err = asset.NewCache(cfg.CacheDir, asset.WithLogger(logger)).SoundFont(ctx); err != nil {
			return err
		}
	}

	res, err := render.File(ctx, cmd.in, sampleRate,
		&render.FluidSynth{Binary: cfg.FluidSynth, SoundFont: soundFont},
		render.Oscillator{},
	)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Rendered %s with %s\n", cmd.in, res.Engine)

	if cmd.out != "" {
		clip := &audio.Clip{Signal: res.Signal, SampleRate: res.SampleRate}
		if err := audio.Save(cmd.out, clip); err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved to %s\n", cmd.out)
	}
	if cmd.play {
		return portaudio.Play(ctx, res.Signal, res.SampleRate, 0)
	}
	return nil
}
