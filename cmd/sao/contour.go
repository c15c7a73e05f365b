package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Ocrabit/sao-guidance/audio"
	"github.com/Ocrabit/sao-guidance/contour"
	"github.com/Ocrabit/sao-guidance/midi"
)

type contourCommand struct {
	in        string
	out       string
	hop       time.Duration
	frameSize int
}

func (cmd *contourCommand) Name() string {
	return "contour"
}

func (cmd *contourCommand) Help() string {
	return "Extract pitch contour of a midi or audio file as CSV"
}

func (cmd *contourCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.in, "in", "", "input .mid, .wav or .mp3 file (required)")
	fs.StringVar(&cmd.out, "out", "", "output CSV file, stdout when empty")
	fs.DurationVar(&cmd.hop, "hop", contour.DefaultHop, "time between frames")
	fs.IntVar(&cmd.frameSize, "frame", contour.DefaultFrameSize, "analysis frame size for audio")
}

func (cmd *contourCommand) Run(ctx context.Context, out io.Writer) error {
	if cmd.in == "" {
		return errors.New("missing -in required flag")
	}
	c, err := cmd.extract()
	if err != nil {
		return err
	}
	if cmd.out == "" {
		return c.WriteCSV(out)
	}
	f, err := os.Create(cmd.out)
	if err != nil {
		return err
	}
	if err := c.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (cmd *contourCommand) extract() (contour.Contour, error) {
	switch strings.ToLower(filepath.Ext(cmd.in)) {
	case ".mid", ".midi":
		seq, err := midi.ReadFile(cmd.in)
		if err != nil {
			return contour.Contour{}, err
		}
		return contour.FromSequence(seq, cmd.hop)
	default:
		clip, err := audio.Load(cmd.in)
		if err != nil {
			return contour.Contour{}, err
		}
		return contour.Estimate(clip.Mono(), clip.SampleRate, cmd.frameSize, cmd.hop, 0)
	}
}
