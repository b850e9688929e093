// Package logging configures the zerolog sinks of a fence agent run:
// the console on stderr, the optional debug file and syslog.
package logging

import (
	"fmt"
	"io"
	"log/syslog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config is the configuration of the zerolog logger and writers
type Config struct {
	// Level is the minimum level of the logged events.
	Level zerolog.Level

	// Enable console logging
	WithConsoleLog bool

	// Console is the console writer destination. Defaults to os.Stderr.
	Console io.Writer

	// WithColor forces the console coloring. Coloring is otherwise
	// enabled only if the console is a terminal.
	WithColor bool

	// DebugFile is the path of the file receiving a copy of the
	// events. Empty disables the file logging.
	DebugFile string

	// MaxSize the max size in MB of the debug file before it's rolled
	MaxSize int

	// MaxBackups the max number of rolled files to keep
	MaxBackups int

	// WithSyslog sends the events to the local syslog daemon.
	WithSyslog bool

	// Tag is the syslog tag, usually the agent name.
	Tag string
}

// Logger is the configured zerolog logger, with the sinks to close
// before exit.
type Logger struct {
	zerolog.Logger
	closers []io.Closer
}

const (
	TimeFormat = "15:04:05.000"
)

var (
	// WithCaller adds the file:line information of the logger caller
	WithCaller bool

	// dialSyslog is replaced by tests
	dialSyslog = func(tag string) (zerolog.SyslogWriter, error) {
		return syslog.New(syslog.LOG_INFO|syslog.LOG_DAEMON, tag)
	}
)

func init() {
	zerolog.ErrorStackMarshaler = marshalStack
}

func marshalStack(err error) interface{} {
	if !WithCaller {
		return nil
	}
	s := fmt.Sprintf("%+v", err)
	l := strings.Split(s, "\n")
	n := len(l)
	if n < 3 {
		return nil
	}

	f := make([]string, 0)
	for i := 0; i < n-1; i = i + 1 {
		if !strings.HasPrefix(l[i], "\t") || i == 0 {
			continue
		}
		f = append(f, l[i-1]+" "+l[i][1:])
	}
	return f
}

// Configure sets up the sinks and installs the logger as the global
// log.Logger. A sink that can not be opened is skipped.
func Configure(config Config) *Logger {
	var (
		writers []io.Writer
		closers []io.Closer
	)
	if config.WithConsoleLog {
		out := config.Console
		if out == nil {
			out = os.Stderr
		}
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: TimeFormat,
			NoColor:    !config.WithColor && !isTerminal(out),
		})
	}
	if config.DebugFile != "" {
		if fileWriter, err := newRollingFile(config); err == nil {
			writers = append(writers, fileWriter)
			closers = append(closers, fileWriter)
		} else {
			fmt.Fprintf(os.Stderr, "can not open debug file %s: %s\n", config.DebugFile, err)
		}
	}
	if config.WithSyslog {
		// the syslog daemon may be unreachable, in containers for example.
		if w, err := dialSyslog(config.Tag); err == nil {
			writers = append(writers, zerolog.SyslogLevelWriter(w))
			if c, ok := w.(io.Closer); ok {
				closers = append(closers, c)
			}
		}
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(config.Level).
		With().
		Timestamp().
		Logger()
	if WithCaller {
		logger = logger.With().Caller().Logger()
	}
	log.Logger = logger

	return &Logger{
		Logger:  logger,
		closers: closers,
	}
}

// Close flushes and closes the file and syslog sinks.
func (t *Logger) Close() error {
	var errs []string
	for _, c := range t.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	t.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, ", "))
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newRollingFile(config Config) (*lumberjack.Logger, error) {
	dir := filepath.Dir(config.DebugFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &lumberjack.Logger{
		Filename:   config.DebugFile,
		MaxBackups: config.MaxBackups, // files
		MaxSize:    config.MaxSize,    // megabytes
	}, nil
}
