package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

type Logger struct {
	Verbose bool
	Debug   bool

	// Out and Err default to os.Stdout and os.Stderr when nil.
	Out io.Writer
	Err io.Writer

	zlog *zerolog.Logger
}

// New builds a Logger whose structured records go to stderr.
func New(verbose, debug bool) Logger {
	l := Logger{Verbose: verbose, Debug: debug}
	zl := newStructured(l.errOut(), debug)
	l.zlog = &zl
	return l
}

func newStructured(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	cw := zerolog.ConsoleWriter{Out: w, NoColor: color.NoColor, TimeFormat: time.TimeOnly}
	return zerolog.New(cw).With().Timestamp().Logger().Level(level)
}

func (l Logger) out() io.Writer {
	if l.Out != nil {
		return l.Out
	}
	return os.Stdout
}

func (l Logger) errOut() io.Writer {
	if l.Err != nil {
		return l.Err
	}
	return os.Stderr
}

func (l Logger) structured() zerolog.Logger {
	if l.zlog != nil {
		return *l.zlog
	}
	return newStructured(l.errOut(), l.Debug)
}

func (l Logger) Infof(msg string, args ...any) {
	if l.Verbose || l.Debug {
		fmt.Fprintf(l.out(), color.GreenString("[info] ")+msg+"\n", args...)
	}
}

func (l Logger) Debugf(msg string, args ...any) {
	if l.Debug {
		zl := l.structured()
		zl.Debug().Msgf(msg, args...)
	}
}

// Debugw emits a structured debug record with the given fields.
func (l Logger) Debugw(msg string, fields map[string]any) {
	if l.Debug {
		zl := l.structured()
		zl.Debug().Fields(fields).Msg(msg)
	}
}

// Warnf is shown with --verbose or --debug.
func (l Logger) Warnf(msg string, args ...any) {
	if l.Verbose || l.Debug {
		fmt.Fprintf(l.errOut(), color.YellowString("[warn] ")+msg+"\n", args...)
	}
}

// WarnfAlways is for warnings the user must see regardless of verbosity.
func (l Logger) WarnfAlways(msg string, args ...any) {
	fmt.Fprintf(l.errOut(), color.YellowString("[warn] ")+msg+"\n", args...)
}

func (l Logger) Errorf(msg string, args ...any) {
	fmt.Fprintf(l.errOut(), color.RedString("[error] ")+msg+"\n", args...)
}

// ErrorfAndReturn logs the error and returns it for RunE.
func (l Logger) ErrorfAndReturn(msg string, args ...any) error {
	l.Errorf(msg, args...)
	return fmt.Errorf(msg, args...)
}
