// Package command runs the external tools driven by the agents: password
// scripts, ipmitool, sg_persist, mpathpersist.
package command

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/anmitsu/go-shlex"
	"github.com/kballard/go-shellquote"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/opensvc/fence-agents/util/funcopt"
)

type (
	T struct {
		name            string
		args            []string
		log             *zerolog.Logger
		logLevel        zerolog.Level
		commandLogLevel zerolog.Level
		stdoutLogLevel  zerolog.Level
		stderrLogLevel  zerolog.Level
		bufferStdout    bool
		bufferStderr    bool
		sudo            string
		env             []string
		stdin           io.Reader
		timeout         time.Duration
		okExitCodes     []int
		err             error

		cmd     *exec.Cmd
		stdout  bytes.Buffer
		stderr  bytes.Buffer
		started bool
	}

	ErrExitCode struct {
		exitCode     int
		successCodes []int
	}
)

var (
	ErrAlreadyStarted = errors.New("command: already started")
)

func New(opts ...funcopt.O) *T {
	t := &T{
		stdoutLogLevel:  zerolog.Disabled,
		stderrLogLevel:  zerolog.Disabled,
		logLevel:        zerolog.DebugLevel,
		commandLogLevel: zerolog.DebugLevel,
		okExitCodes:     []int{0},
	}
	t.err = funcopt.Apply(t, opts...)
	return t
}

// String returns the command line, quoted for a shell.
func (t *T) String() string {
	l := t.argv()
	if len(l) == 0 {
		return ""
	}
	return shellquote.Join(l...)
}

func (t *T) argv() []string {
	if t.name == "" {
		return nil
	}
	l := make([]string, 0, len(t.args)+2)
	if t.sudo != "" {
		l = append(l, t.sudo)
	}
	l = append(l, t.name)
	return append(l, t.args...)
}

// Run executes the command and waits for its termination. The command is
// killed when ctx is done or the timeout expires, in which case the
// returned error wraps the context error.
func (t *T) Run(ctx context.Context) error {
	if t.started {
		return ErrAlreadyStarted
	}
	t.started = true
	if t.err != nil {
		return t.err
	}
	argv := t.argv()
	if len(argv) == 0 {
		return errors.New("command: empty command")
	}
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	t.cmd = cmd
	if len(t.env) > 0 {
		cmd.Env = append(cmd.Environ(), t.env...)
	}
	if t.stdin != nil {
		cmd.Stdin = t.stdin
	}
	cmd.Stdout = &t.stdout
	cmd.Stderr = &t.stderr
	if t.log != nil && t.commandLogLevel != zerolog.Disabled {
		t.log.WithLevel(t.commandLogLevel).Str("cmd", t.String()).Msg("running")
	}
	err := cmd.Run()
	t.logOutput()
	if ctxErr := ctx.Err(); ctxErr != nil {
		t.logError(ctxErr)
		return errors.Wrapf(ctxErr, "%s", t.name)
	}
	var exitError *exec.ExitError
	switch {
	case err == nil:
		return t.checkExitCode(cmd.ProcessState.ExitCode())
	case errors.As(err, &exitError):
		return t.checkExitCode(exitError.ExitCode())
	default:
		t.logError(err)
		return err
	}
}

// Output runs the command and returns its buffered stdout.
func (t *T) Output(ctx context.Context) ([]byte, error) {
	t.bufferStdout = true
	if err := t.Run(ctx); err != nil {
		return t.Stdout(), err
	}
	return t.Stdout(), nil
}

// Stdout returns the stdout of the command, without the trailing
// newline. Nil if created without WithBufferedStdout.
func (t *T) Stdout() []byte {
	if !t.bufferStdout || t.stdout.Len() == 0 {
		return nil
	}
	return bytes.TrimSuffix(t.stdout.Bytes(), []byte("\n"))
}

// Stderr returns the stderr of the command, without the trailing
// newline. Nil if created without WithBufferedStderr.
func (t *T) Stderr() []byte {
	if !t.bufferStderr || t.stderr.Len() == 0 {
		return nil
	}
	return bytes.TrimSuffix(t.stderr.Bytes(), []byte("\n"))
}

func (t *T) Cmd() *exec.Cmd {
	return t.cmd
}

func (t *T) ExitCode() int {
	if t.cmd == nil || t.cmd.ProcessState == nil {
		return -1
	}
	return t.cmd.ProcessState.ExitCode()
}

func (t *T) logOutput() {
	if t.log == nil {
		return
	}
	log := func(level zerolog.Level, key string, b []byte) {
		if level == zerolog.Disabled {
			return
		}
		for _, line := range strings.Split(strings.TrimSuffix(string(b), "\n"), "\n") {
			if line != "" {
				t.log.WithLevel(level).Str(key, line).Send()
			}
		}
	}
	log(t.stdoutLogLevel, "out", t.stdout.Bytes())
	log(t.stderrLogLevel, "err", t.stderr.Bytes())
}

func (t *T) logError(err error) {
	if t.log != nil {
		t.log.WithLevel(t.logLevel).Err(err).Str("cmd", t.String()).Send()
	}
}

func (t *T) checkExitCode(exitCode int) error {
	if len(t.okExitCodes) == 0 {
		t.logExitCode(exitCode)
		return nil
	}
	for _, validCode := range t.okExitCodes {
		if exitCode == validCode {
			t.logExitCode(exitCode)
			return nil
		}
	}
	err := &ErrExitCode{exitCode: exitCode, successCodes: t.okExitCodes}
	t.logError(err)
	return err
}

func (t *T) logExitCode(exitCode int) {
	if t.log != nil {
		t.log.WithLevel(t.logLevel).Str("cmd", t.String()).Int("exitCode", exitCode).Send()
	}
}

func (e *ErrExitCode) Error() string {
	return fmt.Sprintf("command exit code %v not in success codes: %v", e.exitCode, e.successCodes)
}

// ExitCode returns the exit code of the failed command.
func (e *ErrExitCode) ExitCode() int {
	return e.exitCode
}

// CmdArgsFromString returns args for exec.Command from a string command 's'
// When string command 's' contains multiple commands,
//
//	exec.Command("/bin/sh", "-c", s)
//
// else
//
//	exec.Command from shlex.Split(s)
func CmdArgsFromString(s string) ([]string, error) {
	var needShell bool
	if len(s) == 0 {
		return nil, errors.New("can not create command from empty string")
	}
	switch {
	case strings.Contains(s, "|"):
		needShell = true
	case strings.Contains(s, "&&"):
		needShell = true
	case strings.Contains(s, ";"):
		needShell = true
	case strings.Contains(s, "$("):
		needShell = true
	}
	if needShell {
		return []string{"/bin/sh", "-c", s}, nil
	}
	sSplit, err := shlex.Split(s, true)
	if err != nil {
		return nil, err
	}
	if len(sSplit) == 0 {
		return nil, errors.New("unexpected empty command args from string")
	}
	return sSplit, nil
}
