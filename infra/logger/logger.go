package logger

import (
	"io"
	"os"
	"strings"

	corelogger "github.com/kilianp07/manifests/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger discards everything.
type NopLogger = corelogger.NopLogger

// Options selects the logging backend.
type Options struct {
	// Backend is "zerolog" (default) or "logrus".
	Backend string `json:"backend"`
	// Level is one of debug, info, warn, error.
	Level string `json:"level"`
	// Format is "json" (default) or "console". APP_ENV=dev implies console.
	Format string `json:"format"`
	// Output defaults to stderr; stdout is reserved for command output.
	Output io.Writer `json:"-"`
}

func (o Options) withDefaults() Options {
	if o.Backend == "" {
		o.Backend = "zerolog"
	}
	if o.Level == "" {
		o.Level = "info"
	}
	if o.Format == "" {
		o.Format = "json"
		if strings.EqualFold(os.Getenv("APP_ENV"), "dev") {
			o.Format = "console"
		}
	}
	if o.Output == nil {
		o.Output = os.Stderr
	}
	return o
}

var defaults = Options{}

// Configure sets the options used by New. It is called once at startup.
func Configure(o Options) { defaults = o }

// New returns a Logger for the given component. LOG_BACKEND overrides the
// configured backend.
func New(component string) Logger {
	o := defaults
	if b := os.Getenv("LOG_BACKEND"); b != "" {
		o.Backend = b
	}
	return NewWith(component, o)
}

// NewWith builds a Logger from explicit options.
func NewWith(component string, o Options) Logger {
	o = o.withDefaults()
	if strings.EqualFold(o.Backend, "logrus") {
		return NewLogrusLogger(component, o)
	}
	return NewZerologLogger(component, o)
}
