package scsi

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/opensvc/fence-agents/util/command"
	"github.com/opensvc/fence-agents/util/funcopt"
	"github.com/opensvc/fence-agents/util/retry"
)

type (
	SGPersistDriver struct {
		// Path is the sg_persist executable.
		Path string
		Log  *zerolog.Logger

		// Clock paces the unit attention retries.
		Clock retry.Clock
	}
)

const (
	unitAttentionExitCode = 6
	unitAttentionRetries  = 10
	unitAttentionInterval = 100 * time.Millisecond
)

func (t SGPersistDriver) ReadRegistrations(ctx context.Context, dev string) ([]string, error) {
	b, err := t.in(ctx, "--read-keys", dev)
	if err != nil {
		return nil, err
	}
	return parseKeys(b), nil
}

func (t SGPersistDriver) ReadReservation(ctx context.Context, dev string) (string, error) {
	b, err := t.in(ctx, "--read-reservation", dev)
	if err != nil {
		return "", err
	}
	return parseReservation(b), nil
}

func (t SGPersistDriver) Register(ctx context.Context, dev, key string) error {
	option := command.WithVarArgs("-n", "--out", "--register-ignore", "--param-sark", key, dev)
	return t.retryOnUnitAttention(ctx, dev, option)
}

func (t SGPersistDriver) Unregister(ctx context.Context, dev, key string) error {
	option := command.WithVarArgs("-n", "--out", "--register-ignore", "--param-rk", key, dev)
	return t.retryOnUnitAttention(ctx, dev, option)
}

func (t SGPersistDriver) Reserve(ctx context.Context, dev, key string) error {
	option := command.WithVarArgs("-n", "--out", "--reserve", "--param-rk", key, "--prout-type", DefaultPersistentReservationType, dev)
	return t.retryOnUnitAttention(ctx, dev, option)
}

func (t SGPersistDriver) PreemptAbort(ctx context.Context, dev, oldKey, newKey string) error {
	option := command.WithVarArgs("-n", "--out", "--preempt-abort", "--param-sark", oldKey, "--param-rk", newKey, "--prout-type", DefaultPersistentReservationType, dev)
	return t.retryOnUnitAttention(ctx, dev, option)
}

func (t SGPersistDriver) in(ctx context.Context, op, dev string) ([]byte, error) {
	cmd := command.New(
		command.WithName(t.path()),
		command.WithVarArgs("-n", "--in", op, dev),
		command.WithLogger(t.Log),
		command.WithEnv(t.env("1")),
		command.WithBufferedStdout(),
	)
	return cmd.Output(ctx)
}

func (t SGPersistDriver) path() string {
	if t.Path == "" {
		return "sg_persist"
	}
	return t.Path
}

// env returns the env vars to use with sg_persist commands
// to work with read-only devices.
func (t SGPersistDriver) env(val string) []string {
	return []string{
		"SG_PERSIST_O_RDONLY=" + val,
		"SG_PERSIST_IN_RDONLY=" + val, // sg_persist >= 1.39
	}
}

// ackUnitAttention does a --in command to acknowledge a unit attention, likely
// caused by the previous --out command.
func (t SGPersistDriver) ackUnitAttention(ctx context.Context, dev string) {
	_, _ = t.ReadReservation(ctx, dev)
}

func (t SGPersistDriver) retryOnUnitAttention(ctx context.Context, dev string, option funcopt.O) error {
	var err error
	policy := retry.Policy{
		Attempts: unitAttentionRetries,
		Interval: unitAttentionInterval,
		Clock:    t.Clock,
	}
	_, _ = retry.Until(ctx, policy, func(ctx context.Context, attempt int) (bool, error) {
		cmd := command.New(
			option,
			command.WithName(t.path()),
			command.WithLogger(t.Log),
			command.WithCommandLogLevel(zerolog.InfoLevel),
			command.WithEnv(t.env("0")),
			command.WithBufferedStderr(),
			command.WithBufferedStdout(),
		)
		t.ackUnitAttention(ctx, dev)
		err = cmd.Run(ctx)
		var exitErr *command.ErrExitCode
		if errors.As(err, &exitErr) && exitErr.ExitCode() == unitAttentionExitCode {
			if t.Log != nil {
				t.Log.Warn().Msgf("Unit Attention received from %s (%d/%d)", dev, attempt, unitAttentionRetries)
			}
			return false, nil
		}
		// other exit codes are not retryable
		return true, nil
	})
	return err
}
