package fencehyperv

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensvc/fence-agents/core/keywords"
	"github.com/opensvc/fence-agents/core/options"
	"github.com/opensvc/fence-agents/core/rawopts"
	"github.com/opensvc/fence-agents/util/retcodes"
	"github.com/opensvc/fence-agents/util/retry"
)

type (
	// hypervisor emulates the PowerShell commands of a Hyper-V server.
	hypervisor struct {
		sync.Mutex
		vms      map[string]string
		scripts  []string
		password string
	}
)

var (
	encodedRegexp = regexp.MustCompile(`-EncodedCommand (\S+)`)
	getRegexp     = regexp.MustCompile(`^\(Get-VM -Name '(.*)' -ErrorAction Stop\)\.State$`)
	startRegexp   = regexp.MustCompile(`^Start-VM -Name '(.*)' -ErrorAction Stop$`)
	stopRegexp    = regexp.MustCompile(`^Stop-VM -Name '(.*)' -TurnOff -Force -ErrorAction Stop$`)
)

// decode returns the script wrapped by winrm.Powershell, without the
// progress preference prelude.
func decode(t *testing.T, command string) string {
	m := encodedRegexp.FindStringSubmatch(command)
	require.NotNil(t, m, command)
	b, err := base64.StdEncoding.DecodeString(m[1])
	require.NoError(t, err)
	u := make([]uint16, len(b)/2)
	for i := range u {
		u[i] = uint16(b[2*i]) | uint16(b[2*i+1])<<8
	}
	return strings.TrimPrefix(string(utf16.Decode(u)), "$ProgressPreference = 'SilentlyContinue';")
}

func (h *hypervisor) shell(t *testing.T) func(o *options.T) (Shell, error) {
	return func(o *options.T) (Shell, error) {
		return shellFunc(func(ctx context.Context, command, _ string) (string, string, int, error) {
			if o.Get("--password") != h.password {
				return "", "", 0, errors.New("http response error: 401 - invalid content type")
			}
			return h.run(decode(t, command))
		}), nil
	}
}

type shellFunc func(ctx context.Context, command, stdin string) (string, string, int, error)

func (f shellFunc) RunWithContextWithString(ctx context.Context, command, stdin string) (string, string, int, error) {
	return f(ctx, command, stdin)
}

func (h *hypervisor) run(script string) (string, string, int, error) {
	h.Lock()
	defer h.Unlock()
	h.scripts = append(h.scripts, script)
	notFound := func(name string) (string, string, int, error) {
		return "", fmt.Sprintf("Get-VM : Hyper-V was unable to find a virtual machine with name \"%s\".", name), 1, nil
	}
	if m := getRegexp.FindStringSubmatch(script); m != nil {
		state, ok := h.vms[m[1]]
		if !ok {
			return notFound(m[1])
		}
		return state + "\r\n", "", 0, nil
	}
	if m := startRegexp.FindStringSubmatch(script); m != nil {
		if _, ok := h.vms[m[1]]; !ok {
			return notFound(m[1])
		}
		h.vms[m[1]] = "Running"
		return "", "", 0, nil
	}
	if m := stopRegexp.FindStringSubmatch(script); m != nil {
		if _, ok := h.vms[m[1]]; !ok {
			return notFound(m[1])
		}
		h.vms[m[1]] = "Off"
		return "", "", 0, nil
	}
	switch {
	case strings.HasPrefix(script, "ConvertTo-Json"):
		return `[{"Name":"vm1","State":"Running"},{"Name":"vm2","State":"Off"}]`, "", 0, nil
	case script == "$PSVersionTable.PSVersion.Major":
		return "5\r\n", "", 0, nil
	}
	return "", "unexpected command", 1, nil
}

func setup(t *testing.T) *hypervisor {
	h := &hypervisor{
		vms:      map[string]string{"vm1": "Running", "vm2": "Off", "it's": "Saved"},
		password: "secret",
	}
	newShell := NewShell
	t.Cleanup(func() { NewShell = newShell })
	NewShell = h.shell(t)
	return h
}

func run(args ...string) (retcodes.T, string, string) {
	var stdout, stderr bytes.Buffer
	agent := New()
	agent.Clock = retry.NewFakeClock()
	args = append([]string{"-a", "hyperv1", "-l", `DOM\admin`, "-p", "secret"}, args...)
	code := agent.Run(context.Background(), args, strings.NewReader(""), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestAgent(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		setup(t)
		code, stdout, stderr := run("-n", "vm1", "-o", "status")
		assert.Equal(t, retcodes.OK, code, stderr)
		assert.Equal(t, "Status: ON\n", stdout)
	})

	t.Run("saved is off", func(t *testing.T) {
		h := setup(t)
		code, stdout, _ := run("-n", "it's", "-o", "status")
		assert.Equal(t, retcodes.StatusOff, code)
		assert.Equal(t, "Status: OFF\n", stdout)
		assert.Contains(t, h.scripts, "(Get-VM -Name 'it''s' -ErrorAction Stop).State")
	})

	t.Run("off", func(t *testing.T) {
		h := setup(t)
		code, stdout, stderr := run("-n", "vm1", "-o", "off")
		assert.Equal(t, retcodes.OK, code, stderr)
		assert.Equal(t, "Success: Powered OFF\n", stdout)
		assert.Equal(t, "Off", h.vms["vm1"])
		assert.Contains(t, h.scripts, "Stop-VM -Name 'vm1' -TurnOff -Force -ErrorAction Stop")
	})

	t.Run("reboot", func(t *testing.T) {
		h := setup(t)
		code, stdout, stderr := run("-n", "vm2", "-o", "reboot")
		assert.Equal(t, retcodes.OK, code, stderr)
		assert.Equal(t, "Success: Rebooted\n", stdout)
		assert.Equal(t, "Running", h.vms["vm2"])
	})

	t.Run("list-status", func(t *testing.T) {
		setup(t)
		code, stdout, stderr := run("-o", "list-status")
		assert.Equal(t, retcodes.OK, code, stderr)
		assert.Equal(t, "vm1,,ON\nvm2,,OFF\n", stdout)
	})

	t.Run("missing vm", func(t *testing.T) {
		setup(t)
		code, _, _ := run("-n", "vm9", "-o", "status")
		assert.Equal(t, retcodes.Status, code)
	})

	t.Run("missing vm as off", func(t *testing.T) {
		setup(t)
		code, stdout, _ := run("-n", "vm9", "-o", "off", "--missing-as-off")
		assert.Equal(t, retcodes.OK, code)
		assert.Equal(t, "Success: Already OFF\n", stdout)
	})

	t.Run("login denied", func(t *testing.T) {
		h := setup(t)
		h.password = "other"
		code, _, stderr := run("-n", "vm1", "-o", "status")
		assert.Equal(t, retcodes.LoginDenied, code)
		assert.Contains(t, stderr, retcodes.LoginDenied.Message())
	})
}

func TestNewClient(t *testing.T) {
	for _, args := range [][]string{
		{"-a", "hyperv1", "-l", "admin", "-p", "secret", "-n", "vm1"},
		{"-a", "hyperv1", "-l", "admin", "-p", "secret", "-n", "vm1", "--ssl-insecure", "-u", "5986", "--transport", "basic"},
	} {
		agent := New()
		o := prepare(t, agent.Store(), agent.Set(), args...)
		shell, err := newClient(o)
		assert.NoError(t, err, args)
		assert.NotNil(t, shell, args)
	}
}

func TestParseState(t *testing.T) {
	assert.Equal(t, "on", parseState("Running").String())
	assert.Equal(t, "off", parseState("Off").String())
	assert.Equal(t, "off", parseState("Saved").String())
	assert.Equal(t, "unknown", parseState("").String())
	assert.Equal(t, "paused", parseState("Paused").String())
}

func prepare(t *testing.T, store keywords.Store, set keywords.Set, args ...string) *options.T {
	t.Helper()
	raw, err := rawopts.FromArgs(args, store, set)
	require.NoError(t, err)
	o := options.Prepare(raw, store, set, nil)
	require.NoError(t, o.Validate())
	return o
}
