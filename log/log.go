package log

import (
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// DebugEnv switches all loggers returned by GetLogger to debug level.
const DebugEnv = "SAO_DEBUG"

var debug bool

// Logger is a global interface for sao loggers
type Logger interface {
	Debug(...interface{})
	Debugf(string, ...interface{})
	Info(...interface{})
	Infof(string, ...interface{})
	Warnf(string, ...interface{})
	Errorf(string, ...interface{})
}

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv(DebugEnv))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// WithLevel returns a new logger with level parsed from s. Empty level
// keeps the default. Debug env always wins.
func WithLevel(s string) (*logrus.Logger, error) {
	l := GetLogger()
	if s == "" || debug {
		return l, nil
	}
	lvl, err := logrus.ParseLevel(s)
	if err != nil {
		return nil, err
	}
	l.SetLevel(lvl)
	return l, nil
}

// Silent returns a logger which discards everything. Used in tests.
func Silent() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
