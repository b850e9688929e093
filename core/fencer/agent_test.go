package fencer_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensvc/fence-agents/core/fenceerr"
	"github.com/opensvc/fence-agents/core/fencer"
	"github.com/opensvc/fence-agents/core/options"
	"github.com/opensvc/fence-agents/core/powerstatus"
	"github.com/opensvc/fence-agents/util/retcodes"
	"github.com/opensvc/fence-agents/util/retry"
)

type (
	memDevice struct {
		plugs     map[string]powerstatus.T
		connected int
		closed    bool
	}

	runResult struct {
		code   retcodes.T
		stdout string
		stderr string
	}
)

func (t *memDevice) GetPowerStatus(_ context.Context, o *options.T) (powerstatus.T, error) {
	s, ok := t.plugs[o.Plug()]
	if !ok {
		return powerstatus.Undef, fenceerr.ErrPlugNotFound
	}
	return s, nil
}

func (t *memDevice) SetPowerStatus(_ context.Context, o *options.T) error {
	t.plugs[o.Plug()] = powerstatus.T(o.Action())
	return nil
}

func (t *memDevice) Close() error {
	t.closed = true
	return nil
}

func newMemAgent(dev *memDevice, clock retry.Clock) fencer.Agent {
	return fencer.Agent{
		Name:       "fence_mem",
		ShortDesc:  "Fence agent for an in-memory device",
		LongDesc:   "fence_mem is a test agent.",
		VendorURL:  "https://www.opensvc.com",
		Version:    "1.2.3",
		DeviceOpts: []string{"ipaddr", "login", "passwd", "port", "missing_as_off"},
		Clock:      clock,
		Connect: func(ctx context.Context, o *options.T) (fencer.Backend, error) {
			dev.connected++
			return fencer.Backend{
				Status: dev,
				Change: fencer.Polled{Setter: dev},
				Closer: dev,
			}, nil
		},
	}
}

func run(t *testing.T, agent fencer.Agent, stdin string, args ...string) runResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := agent.Run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return runResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestAgentRun(t *testing.T) {
	credentials := []string{"-a", "pdu1", "-l", "admin", "-p", "secret"}

	t.Run("status from the command line", func(t *testing.T) {
		dev := &memDevice{plugs: map[string]powerstatus.T{"1": powerstatus.On}}
		r := run(t, newMemAgent(dev, retry.NewFakeClock()), "", append(credentials, "-o", "status", "-n", "1")...)
		assert.Equal(t, retcodes.OK, r.code)
		assert.Equal(t, "Status: ON\n", r.stdout)
		assert.True(t, dev.closed, "backend is closed")
	})

	t.Run("off from stdin", func(t *testing.T) {
		dev := &memDevice{plugs: map[string]powerstatus.T{"1": powerstatus.On}}
		stdin := "# written by the orchestrator\naction=off\nip=pdu1\nusername=admin\npassword=secret\nplug=1\nnodename=node1\n"
		r := run(t, newMemAgent(dev, retry.NewFakeClock()), stdin)
		assert.Equal(t, retcodes.OK, r.code, r.stderr)
		assert.Equal(t, "Success: Powered OFF\n", r.stdout)
		assert.Equal(t, powerstatus.Off, dev.plugs["1"])
	})

	t.Run("missing plug", func(t *testing.T) {
		dev := &memDevice{plugs: map[string]powerstatus.T{}}
		r := run(t, newMemAgent(dev, retry.NewFakeClock()), "", append(credentials, "-o", "status", "-n", "9")...)
		assert.Equal(t, retcodes.Status, r.code)
		assert.Contains(t, r.stderr, retcodes.Status.Message())

		r = run(t, newMemAgent(dev, retry.NewFakeClock()), "", append(credentials, "-o", "status", "-n", "9", "--missing-as-off")...)
		assert.Equal(t, retcodes.StatusOff, r.code)
		assert.Equal(t, "Status: OFF\n", r.stdout)
	})

	t.Run("delay before off", func(t *testing.T) {
		dev := &memDevice{plugs: map[string]powerstatus.T{"1": powerstatus.On}}
		clock := retry.NewFakeClock()
		r := run(t, newMemAgent(dev, clock), "", append(credentials, "-o", "off", "-n", "1", "--delay", "5")...)
		assert.Equal(t, retcodes.OK, r.code, r.stderr)
		slept := clock.Slept()
		require.NotEmpty(t, slept)
		assert.Equal(t, 5*time.Second, slept[0])
	})

	t.Run("no delay before on", func(t *testing.T) {
		dev := &memDevice{plugs: map[string]powerstatus.T{"1": powerstatus.Off}}
		clock := retry.NewFakeClock()
		r := run(t, newMemAgent(dev, clock), "", append(credentials, "-o", "on", "-n", "1", "--delay", "5")...)
		assert.Equal(t, retcodes.OK, r.code, r.stderr)
		assert.NotContains(t, clock.Slept(), 5*time.Second)
	})

	t.Run("unrecognised action", func(t *testing.T) {
		dev := &memDevice{}
		r := run(t, newMemAgent(dev, nil), "", append(credentials, "-o", "explode", "-n", "1")...)
		assert.Equal(t, retcodes.GenericError, r.code)
		assert.Contains(t, r.stderr, "Failed: Unrecognised action 'explode'")
		assert.Contains(t, r.stderr, "Please use '-h' for usage")
		assert.Equal(t, 0, dev.connected)
	})

	t.Run("missing login", func(t *testing.T) {
		dev := &memDevice{}
		r := run(t, newMemAgent(dev, nil), "", "-a", "pdu1", "-p", "secret", "-o", "status", "-n", "1")
		assert.Equal(t, retcodes.GenericError, r.code)
		assert.Contains(t, r.stderr, "Failed: You have to set login name")
		assert.Equal(t, 0, dev.connected)
	})

	t.Run("parse error", func(t *testing.T) {
		dev := &memDevice{}
		r := run(t, newMemAgent(dev, nil), "", "--no-such-option")
		assert.Equal(t, retcodes.GenericError, r.code)
		assert.Contains(t, r.stderr, "Please use '-h' for usage")
	})

	t.Run("connection error", func(t *testing.T) {
		agent := newMemAgent(&memDevice{}, nil)
		agent.Connect = func(ctx context.Context, o *options.T) (fencer.Backend, error) {
			return fencer.Backend{}, fenceerr.New(retcodes.LoginDenied)
		}
		r := run(t, agent, "", append(credentials, "-o", "status", "-n", "1")...)
		assert.Equal(t, retcodes.LoginDenied, r.code)
		assert.Contains(t, r.stderr, retcodes.LoginDenied.Message())
	})
}

func TestAgentValidateAll(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		dev := &memDevice{}
		r := run(t, newMemAgent(dev, nil), "", "-a", "pdu1", "-l", "admin", "-p", "secret", "-n", "1", "-o", "validate-all")
		assert.Equal(t, retcodes.OK, r.code, r.stderr)
		assert.Equal(t, 0, dev.connected)
	})

	t.Run("reports every problem", func(t *testing.T) {
		dev := &memDevice{}
		r := run(t, newMemAgent(dev, nil), "", "-o", "validate-all", "--power-timeout", "soon")
		assert.Equal(t, retcodes.GenericError, r.code)
		assert.Contains(t, r.stderr, "Failed: You have to set login name")
		assert.Contains(t, r.stderr, "Failed: You have to enter fence address")
		assert.Contains(t, r.stderr, "Failed: You have to enter password or password script")
		assert.Contains(t, r.stderr, "Failed: You have to enter plug number or machine identification")
		assert.Contains(t, r.stderr, "Failed: The value you have entered for --power-timeout is not a valid second")
		assert.Equal(t, 0, dev.connected)
	})
}

func TestAgentDocumentation(t *testing.T) {
	t.Run("metadata", func(t *testing.T) {
		dev := &memDevice{}
		r := run(t, newMemAgent(dev, nil), "", "-o", "metadata")
		assert.Equal(t, retcodes.OK, r.code)
		assert.True(t, strings.HasPrefix(r.stdout, `<?xml version="1.0" ?>`))
		assert.Contains(t, r.stdout, `<resource-agent name="fence_mem" shortdesc="Fence agent for an in-memory device">`)
		assert.Equal(t, 0, dev.connected)
	})

	t.Run("meta-data from stdin", func(t *testing.T) {
		r := run(t, newMemAgent(&memDevice{}, nil), "action=meta-data\n")
		assert.Equal(t, retcodes.OK, r.code)
		assert.Contains(t, r.stdout, `<resource-agent name="fence_mem"`)
	})

	t.Run("help", func(t *testing.T) {
		r := run(t, newMemAgent(&memDevice{}, nil), "", "-h")
		assert.Equal(t, retcodes.OK, r.code)
		assert.True(t, strings.HasPrefix(r.stdout, "Fence agent for an in-memory device\n\nUsage:\n\tfence_mem [options]\nOptions:\n"))
		assert.Contains(t, r.stdout, "--plug=[id]")
	})

	t.Run("version", func(t *testing.T) {
		r := run(t, newMemAgent(&memDevice{}, nil), "", "--version")
		assert.Equal(t, retcodes.OK, r.code)
		assert.Equal(t, "1.2.3\n", r.stdout)
	})

	t.Run("manpage", func(t *testing.T) {
		r := run(t, newMemAgent(&memDevice{}, retry.NewFakeClock()), "", "-o", "manpage")
		assert.Equal(t, retcodes.OK, r.code)
		assert.Contains(t, r.stdout, ".TH FENCE_MEM")
	})
}
