package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSyslog struct {
	bytes.Buffer
	levels []string
}

func (t *fakeSyslog) record(level, m string) error {
	t.levels = append(t.levels, level)
	_, err := t.WriteString(m)
	return err
}

func (t *fakeSyslog) Debug(m string) error   { return t.record("debug", m) }
func (t *fakeSyslog) Info(m string) error    { return t.record("info", m) }
func (t *fakeSyslog) Warning(m string) error { return t.record("warning", m) }
func (t *fakeSyslog) Err(m string) error     { return t.record("err", m) }
func (t *fakeSyslog) Emerg(m string) error   { return t.record("emerg", m) }
func (t *fakeSyslog) Crit(m string) error    { return t.record("crit", m) }

func TestConfigure(t *testing.T) {
	defer func(f func(string) (zerolog.SyslogWriter, error)) { dialSyslog = f }(dialSyslog)
	defer func(l zerolog.Logger) { log.Logger = l }(log.Logger)

	t.Run("console, debug file and syslog", func(t *testing.T) {
		sl := &fakeSyslog{}
		dialSyslog = func(string) (zerolog.SyslogWriter, error) { return sl, nil }
		var console bytes.Buffer
		debugFile := filepath.Join(t.TempDir(), "sub", "fence.log")
		logger := Configure(Config{
			Level:          zerolog.DebugLevel,
			WithConsoleLog: true,
			Console:        &console,
			DebugFile:      debugFile,
			WithSyslog:     true,
			Tag:            "fence_dummy",
		})
		log.Debug().Msg("Status: ON")
		log.Error().Msg("Failed: Timed out waiting to power OFF")
		require.NoError(t, logger.Close())

		assert.Contains(t, console.String(), "Status: ON")
		assert.NotContains(t, console.String(), "\x1b[", "console is not a terminal")
		b, err := os.ReadFile(debugFile)
		require.NoError(t, err)
		assert.Contains(t, string(b), "Failed: Timed out waiting to power OFF")
		assert.Equal(t, []string{"debug", "err"}, sl.levels)
	})

	t.Run("level filters events", func(t *testing.T) {
		dialSyslog = func(string) (zerolog.SyslogWriter, error) { return nil, errors.New("no syslog") }
		var console bytes.Buffer
		Configure(Config{
			Level:          zerolog.InfoLevel,
			WithConsoleLog: true,
			Console:        &console,
			WithSyslog:     true,
		})
		log.Debug().Msg("hidden")
		log.Warn().Msg("shown")
		assert.NotContains(t, console.String(), "hidden")
		assert.Contains(t, console.String(), "shown")
	})

	t.Run("quiet", func(t *testing.T) {
		var console bytes.Buffer
		Configure(Config{
			Level:   zerolog.InfoLevel,
			Console: &console,
		})
		log.Error().Msg("not on console")
		assert.Empty(t, console.String())
	})
}
