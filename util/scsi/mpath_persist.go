package scsi

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/opensvc/fence-agents/util/command"
)

type (
	// MpathPersistDriver drives the reservations through multipathd, which
	// propagates them to all the paths of the device.
	MpathPersistDriver struct {
		// Path is the mpathpersist executable.
		Path string
		Log  *zerolog.Logger
	}
)

func (t MpathPersistDriver) ReadRegistrations(ctx context.Context, dev string) ([]string, error) {
	b, err := t.run(ctx, "--in", "--read-keys", dev)
	if err != nil {
		return nil, err
	}
	return parseKeys(b), nil
}

func (t MpathPersistDriver) ReadReservation(ctx context.Context, dev string) (string, error) {
	b, err := t.run(ctx, "--in", "--read-reservation", dev)
	if err != nil {
		return "", err
	}
	return parseReservation(b), nil
}

func (t MpathPersistDriver) Register(ctx context.Context, dev, key string) error {
	_, err := t.run(ctx, "--out", "--register-ignore", "--param-sark="+key, dev)
	return err
}

func (t MpathPersistDriver) Unregister(ctx context.Context, dev, key string) error {
	_, err := t.run(ctx, "--out", "--register", "--param-rk="+key, dev)
	return err
}

func (t MpathPersistDriver) Reserve(ctx context.Context, dev, key string) error {
	_, err := t.run(ctx, "--out", "--reserve", "--param-rk="+key, "--prout-type="+DefaultPersistentReservationType, dev)
	return err
}

func (t MpathPersistDriver) PreemptAbort(ctx context.Context, dev, oldKey, newKey string) error {
	_, err := t.run(ctx, "--out", "--preempt-abort", "--param-sark="+oldKey, "--param-rk="+newKey, "--prout-type="+DefaultPersistentReservationType, dev)
	return err
}

func (t MpathPersistDriver) run(ctx context.Context, args ...string) ([]byte, error) {
	name := t.Path
	if name == "" {
		name = "mpathpersist"
	}
	cmd := command.New(
		command.WithName(name),
		command.WithArgs(args),
		command.WithLogger(t.Log),
		command.WithBufferedStdout(),
		command.WithBufferedStderr(),
	)
	return cmd.Output(ctx)
}
