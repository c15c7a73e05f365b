package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/Ocrabit/sao-guidance/asset"
)

type fetchCommand struct {
	settings
	url  string
	name string
	sum  string
}

func (cmd *fetchCommand) Name() string {
	return "fetch"
}

func (cmd *fetchCommand) Help() string {
	return "Download a file into the cache unless it's already there"
}

func (cmd *fetchCommand) Register(fs *flag.FlagSet) {
	cmd.settings.register(fs)
	fs.StringVar(&cmd.url, "url", "", "url of the file (required)")
	fs.StringVar(&cmd.name, "name", "", "path inside the cache, url base name by default")
	fs.StringVar(&cmd.sum, "sum", "", "expected blake2b-256 checksum in hex")
}

func (cmd *fetchCommand) Run(ctx context.Context, out io.Writer) error {
	if cmd.url == "" {
		return errors.New("missing -url required flag")
	}
	cfg, logger, err := cmd.load()
	if err != nil {
		return err
	}
	c := asset.NewCache(cfg.CacheDir, asset.WithLogger(logger))
	path, err := c.Fetch(ctx, asset.Asset{URL: cmd.url, Name: cmd.name, Sum: cmd.sum})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, path)
	return nil
}

type soundfontCommand struct {
	settings
}

func (cmd *soundfontCommand) Name() string {
	return "soundfont"
}

func (cmd *soundfontCommand) Help() string {
	return "Download the default General MIDI SoundFont"
}

func (cmd *soundfontCommand) Register(fs *flag.FlagSet) {
	cmd.settings.register(fs)
}

func (cmd *soundfontCommand) Run(ctx context.Context, out io.Writer) error {
	cfg, logger, err := cmd.load()
	if err != nil {
		return err
	}
	path, err := asset.NewCache(cfg.CacheDir, asset.WithLogger(logger)).SoundFont(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, path)
	return nil
}
