package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/Ocrabit/sao-guidance/config"
	"github.com/Ocrabit/sao-guidance/log"
	"github.com/Ocrabit/sao-guidance/render"
)

type app struct {
	args   []string
	stdout io.Writer
}

type command interface {
	Name() string
	Help() string
	Run(ctx context.Context, out io.Writer) error
	Register(*flag.FlagSet)
}

// settings is embedded by commands which need configuration.
type settings struct {
	path string
}

func (s *settings) register(fs *flag.FlagSet) {
	fs.StringVar(&s.path, "config", "", "path to TOML config file")
}

func (s *settings) load() (config.Config, *logrus.Logger, error) {
	cfg := config.Default()
	if s.path != "" {
		var err error
		if cfg, err = config.Load(s.path); err != nil {
			return config.Config{}, nil, err
		}
	}
	logger, err := log.WithLevel(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	render.SetLogger(logger)
	return cfg, logger, nil
}

func (a *app) run(ctx context.Context) int {
	cmdName, args := parseArgs(a.args)
	if cmdName == "" {
		printUsage(a.stdout)
		return errorExitCode
	}

	for _, cmd := range commands {
		if cmd.Name() == cmdName {
			flags := flag.NewFlagSet(cmdName, flag.ContinueOnError)
			cmd.Register(flags)
			if err := flags.Parse(args); err != nil {
				return errorExitCode
			}
			if err := cmd.Run(ctx, a.stdout); err != nil {
				fmt.Fprintf(a.stdout, "Command failed: %v\n", err)
				return errorExitCode
			}
			return successExitCode
		}
	}

	fmt.Fprintf(a.stdout, "Unknown command: %s\n\n", cmdName)
	printUsage(a.stdout)
	return errorExitCode
}

var (
	successExitCode = 0
	errorExitCode   = 1
	commands        = []command{
		&fetchCommand{},
		&soundfontCommand{},
		&renderCommand{},
		&contourCommand{},
		&cleanCommand{},
		&doCommand{},
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	a := app{
		args:   os.Args,
		stdout: os.Stdout,
	}
	code := a.run(ctx)
	stop()
	os.Exit(code)
}

func parseArgs(args []string) (string, []string) {
	if len(args) < 2 {
		return "", nil
	}
	return args[1], args[2:]
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "sao is a toolbox for audio and midi sketches")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: sao <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "\t%s\t%s\n", cmd.Name(), cmd.Help())
	}
}
