// Package logger provides structured logging using zerolog.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Output targets
const (
	OutputStdout = "stdout"
	OutputStderr = "stderr"
	OutputNone   = "none" // The terminal UI owns the screen
	OutputFile   = "file"
)

// Config represents logger configuration.
type Config struct {
	Output string // One of the Output* targets; empty means stdout
	Level  string // "debug", "info", "warn", "error"
	File   string // Log file path for OutputFile
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Init configures the global zerolog logger. The returned closer releases the
// log file when logging to one.
func Init(cfg Config) (io.Closer, error) {
	level := parseLevel(cfg.Level)

	writer, console, err := openWriter(cfg)
	if err != nil {
		return nil, err
	}

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.TimeOnly
	zerolog.CallerMarshalFunc = shortCaller

	var logger zerolog.Logger
	if console {
		cw := zerolog.ConsoleWriter{Out: writer, TimeFormat: time.TimeOnly}
		if level == zerolog.DebugLevel {
			cw.PartsOrder = []string{"time", "level", "message", "caller"}
			cw.FormatCaller = func(i interface{}) string {
				return "(" + i.(string) + ")"
			}
		}
		logger = zerolog.New(cw)
	} else {
		logger = zerolog.New(writer)
	}

	ctx := logger.With().Timestamp()
	if level == zerolog.DebugLevel {
		// Caller only for DEBUG level
		ctx = ctx.Caller()
	}
	logger = ctx.Logger()

	zerolog.DefaultContextLogger = &logger
	zlog.Logger = logger

	if c, ok := writer.(io.Closer); ok && !console {
		return c, nil
	}
	return nopCloser{}, nil
}

// openWriter resolves the output target. console reports whether the
// colored console format applies.
func openWriter(cfg Config) (w io.Writer, console bool, err error) {
	switch strings.ToLower(cfg.Output) {
	case OutputStdout, "":
		return os.Stdout, true, nil
	case OutputStderr:
		return os.Stderr, true, nil
	case OutputNone:
		return io.Discard, false, nil
	case OutputFile:
		if cfg.File == "" {
			return nil, false, errors.New("log file path is required for file output")
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, false, errors.Wrapf(err, "failed to open log file %s", cfg.File)
		}
		return f, false, nil
	default:
		return nil, false, errors.Newf("unknown log output %q", cfg.Output)
	}
}

// shortCaller renders "dir/file.go:line".
func shortCaller(_ uintptr, file string, line int) string {
	parts := strings.Split(file, string(filepath.Separator))
	if len(parts) > 1 {
		return filepath.Join(parts[len(parts)-2:]...) + ":" + strconv.Itoa(line)
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}

// parseLevel parses the log level string, falling back to info.
func parseLevel(level string) zerolog.Level {
	if strings.EqualFold(level, "warning") {
		return zerolog.WarnLevel
	}
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}
