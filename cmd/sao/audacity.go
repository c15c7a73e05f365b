package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/Ocrabit/sao-guidance/audacity"
)

func openAudacity(s *settings) (*audacity.Client, error) {
	cfg, logger, err := s.load()
	if err != nil {
		return nil, err
	}
	return audacity.Open(
		audacity.WithPlatform(cfg.Audacity.Platform),
		audacity.WithTimeout(cfg.Audacity.Timeout),
		audacity.WithLogger(logger),
	)
}

type cleanCommand struct {
	settings
	in string
}

func (cmd *cleanCommand) Name() string {
	return "clean"
}

func (cmd *cleanCommand) Help() string {
	return "Round-trip an audio file through Audacity into cleaned/ dir"
}

func (cmd *cleanCommand) Register(fs *flag.FlagSet) {
	cmd.settings.register(fs)
	fs.StringVar(&cmd.in, "in", "", "audio file to clean (required)")
}

func (cmd *cleanCommand) Run(ctx context.Context, out io.Writer) error {
	if cmd.in == "" {
		return errors.New("missing -in required flag")
	}
	c, err := openAudacity(&cmd.settings)
	if err != nil {
		return err
	}
	defer c.Close()
	path, ok := c.CleanAudio(ctx, cmd.in)
	if !ok {
		return errors.New("cleaning failed")
	}
	fmt.Fprintln(out, path)
	return nil
}

type doCommand struct {
	settings
	command string
}

func (cmd *doCommand) Name() string {
	return "do"
}

func (cmd *doCommand) Help() string {
	return "Send a scripting command to Audacity and print the response"
}

func (cmd *doCommand) Register(fs *flag.FlagSet) {
	cmd.settings.register(fs)
	fs.StringVar(&cmd.command, "cmd", "", "command to send, e.g. \"Help: Command=Import2\" (required)")
}

func (cmd *doCommand) Run(ctx context.Context, out io.Writer) error {
	if cmd.command == "" {
		return errors.New("missing -cmd required flag")
	}
	c, err := openAudacity(&cmd.settings)
	if err != nil {
		return err
	}
	defer c.Close()
	resp, err := c.DoContext(ctx, cmd.command)
	if err != nil {
		return err
	}
	fmt.Fprint(out, resp)
	return nil
}
