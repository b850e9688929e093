package command

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/opensvc/fence-agents/util/funcopt"
)

func WithName(name string) funcopt.O {
	return funcopt.F(func(i interface{}) error {
		t := i.(*T)
		t.name = name
		return nil
	})
}

func WithArgs(args []string) funcopt.O {
	return funcopt.F(func(i interface{}) error {
		t := i.(*T)
		t.args = args
		return nil
	})
}

func WithVarArgs(args ...string) funcopt.O {
	return funcopt.F(func(i interface{}) error {
		t := i.(*T)
		t.args = args
		return nil
	})
}

// WithCommandString sets the name and args from a command line string,
// split like CmdArgsFromString.
func WithCommandString(s string) funcopt.O {
	return funcopt.F(func(i interface{}) error {
		t := i.(*T)
		argv, err := CmdArgsFromString(s)
		if err != nil {
			return err
		}
		t.name = argv[0]
		t.args = argv[1:]
		return nil
	})
}

func WithLogger(l *zerolog.Logger) funcopt.O {
	return funcopt.F(func(i interface{}) error {
		t := i.(*T)
		t.log = l
		return nil
	})
}

// WithTimeout kills the command after timeout. Zero means no timeout.
func WithTimeout(timeout time.Duration) funcopt.O {
	return funcopt.F(func(i interface{}) error {
		t := i.(*T)
		t.timeout = timeout
		return nil
	})
}

func WithCommandLogLevel(l zerolog.Level) funcopt.O {
	return funcopt.F(func(i interface{}) error {
		t := i.(*T)
		t.commandLogLevel = l
		return nil
	})
}

func WithLogLevel(l zerolog.Level) funcopt.O {
	return funcopt.F(func(i interface{}) error {
		t := i.(*T)
		t.logLevel = l
		return nil
	})
}

func WithStdoutLogLevel(l zerolog.Level) funcopt.O {
	return funcopt.F(func(i interface{}) error {
		t := i.(*T)
		t.stdoutLogLevel = l
		return nil
	})
}

func WithStderrLogLevel(l zerolog.Level) funcopt.O {
	return funcopt.F(func(i interface{}) error {
		t := i.(*T)
		t.stderrLogLevel = l
		return nil
	})
}

func WithBufferedStdout() funcopt.O {
	return funcopt.F(func(i interface{}) error {
		t := i.(*T)
		t.bufferStdout = true
		return nil
	})
}

func WithBufferedStderr() funcopt.O {
	return funcopt.F(func(i interface{}) error {
		t := i.(*T)
		t.bufferStderr = true
		return nil
	})
}

// WithSudo prefixes the command with the sudo binary path. An empty path
// disables the prefix.
func WithSudo(path string) funcopt.O {
	return funcopt.F(func(i interface{}) error {
		t := i.(*T)
		t.sudo = path
		return nil
	})
}

func WithEnv(env []string) funcopt.O {
	return funcopt.F(func(i interface{}) error {
		t := i.(*T)
		t.env = env
		return nil
	})
}

func WithStdin(r io.Reader) funcopt.O {
	return funcopt.F(func(i interface{}) error {
		t := i.(*T)
		t.stdin = r
		return nil
	})
}

// WithOkExitCodes sets the exit codes considered a success. No code means
// any exit code is a success.
func WithOkExitCodes(codes ...int) funcopt.O {
	return funcopt.F(func(i interface{}) error {
		t := i.(*T)
		t.okExitCodes = codes
		return nil
	})
}
