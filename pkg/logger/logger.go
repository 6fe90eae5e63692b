// Package logger builds the zerolog loggers used by the server and the CLI.
package logger

import (
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures a logger. The zero value logs JSON at info to stdout.
type Options struct {
	Level  string
	Pretty bool
	Out    io.Writer
	// Fields are attached to every entry, e.g. service and version.
	Fields map[string]string
}

// New returns a logger for opts.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	lc := zerolog.New(out).Level(ParseLevel(opts.Level)).With().Timestamp()

	keys := make([]string, 0, len(opts.Fields))
	for k := range opts.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lc = lc.Str(k, opts.Fields[k])
	}
	return lc.Logger()
}

// ParseLevel maps a config level name to a zerolog level. Unknown and
// empty names fall back to info.
func ParseLevel(name string) zerolog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
