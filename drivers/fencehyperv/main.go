// Package fencehyperv is the fence agent of the virtual machines hosted
// by a Microsoft Hyper-V server, driven through WinRM PowerShell
// commands.
package fencehyperv

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/masterzen/winrm"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/opensvc/fence-agents/core/action"
	"github.com/opensvc/fence-agents/core/fenceerr"
	"github.com/opensvc/fence-agents/core/fencer"
	"github.com/opensvc/fence-agents/core/keywords"
	"github.com/opensvc/fence-agents/core/options"
	"github.com/opensvc/fence-agents/core/powerstatus"
	"github.com/opensvc/fence-agents/util/retcodes"
)

type (
	// Shell runs a command on the Hyper-V server and returns its
	// stdout, stderr and exit code.
	Shell interface {
		RunWithContextWithString(ctx context.Context, command string, stdin string) (string, string, int, error)
	}

	// T is the Hyper-V backend.
	T struct {
		shell Shell
	}

	vm struct {
		Name  string `json:"Name"`
		State string `json:"State"`
	}
)

const (
	notFoundMessage = "unable to find a virtual machine"
	unauthorized    = "http response error: 401"
)

var (
	// NewShell returns the WinRM client of the server addressed by o.
	NewShell = newClient

	kws = []keywords.Keyword{
		{
			Name:       "transport",
			Long:       "transport",
			Value:      "[transport]",
			Default:    "ntlm",
			Candidates: []string{"basic", "ntlm"},
			Text:       "WinRM authentication scheme. Use DOMAIN\\user as login to authenticate a domain account with ntlm.",
			Order:      1,
		},
		keywords.Base.Derive("ipport", func(kw *keywords.Keyword) {
			kw.Default = "5985"
			kw.Text = "TCP/UDP port to use for the WinRM connection (default 5985, 5986 with --ssl)"
		}),
		keywords.Base.Derive("port", func(kw *keywords.Keyword) {
			kw.Text = "Name of the virtual machine"
			kw.ShortDesc = kw.Text
		}),
	}
)

// New returns the fence_hyperv agent.
func New() fencer.Agent {
	return fencer.Agent{
		Name:       "fence_hyperv",
		ShortDesc:  "Fence agent for Microsoft Hyper-V",
		LongDesc:   "fence_hyperv is a Power Fencing agent for the virtual machines of a Hyper-V server. It runs the Get-VM, Start-VM and Stop-VM PowerShell commands over WinRM.",
		VendorURL:  "https://www.microsoft.com",
		DeviceOpts: []string{"ipaddr", "login", "passwd", "port", "ssl", "transport", "missing_as_off"},
		Keywords:   kws,
		Connect:    Connect,
	}
}

func newClient(o *options.T) (Shell, error) {
	port, err := strconv.Atoi(o.Get("--ipport"))
	if err != nil {
		return nil, errors.Wrap(err, "ipport")
	}
	endpoint := winrm.NewEndpoint(o.Get("--ip"), port, o.Has("--ssl"), o.Has("--ssl-insecure"), nil, nil, nil, o.Seconds("--shell-timeout"))
	params := winrm.NewParameters("PT60S", "en-US", 153600)
	if o.Get("--transport") == "ntlm" {
		params.TransportDecorator = func() winrm.Transporter { return &winrm.ClientNTLM{} }
	}
	return winrm.NewClientWithParameters(endpoint, o.Get("--username"), o.Get("--password"), params)
}

// Connect verifies the server accepts the credentials.
func Connect(ctx context.Context, o *options.T) (fencer.Backend, error) {
	shell, err := NewShell(o)
	if err != nil {
		return fencer.Backend{}, err
	}
	t := &T{shell: shell}
	if _, err := t.ps(ctx, "$PSVersionTable.PSVersion.Major"); err != nil {
		return fencer.Backend{}, err
	}
	return fencer.Backend{
		Status: t,
		Change: fencer.Polled{Setter: t},
		Lister: t,
	}, nil
}

// quote returns s as a PowerShell single quoted string.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (t *T) ps(ctx context.Context, script string) (string, error) {
	log.Debug().Msgf("powershell: %s", script)
	stdout, stderr, code, err := t.shell.RunWithContextWithString(ctx, winrm.Powershell(script), "")
	switch {
	case err != nil && strings.Contains(err.Error(), unauthorized):
		return "", fenceerr.Wrap(retcodes.LoginDenied, err)
	case err != nil:
		return "", err
	case code != 0 && strings.Contains(stderr, notFoundMessage):
		return "", errors.Wrap(fenceerr.ErrPlugNotFound, strings.TrimSpace(stderr))
	case code != 0:
		return "", errors.Errorf("%s: exit code %d: %s", script, code, strings.TrimSpace(stderr))
	}
	return strings.TrimSpace(stdout), nil
}

func parseState(s string) powerstatus.T {
	switch strings.ToLower(s) {
	case "running":
		return powerstatus.On
	case "off", "saved":
		return powerstatus.Off
	case "":
		return powerstatus.Unknown
	default:
		return powerstatus.Parse(s)
	}
}

func (t *T) GetPowerStatus(ctx context.Context, o *options.T) (powerstatus.T, error) {
	s, err := t.ps(ctx, fmt.Sprintf("(Get-VM -Name %s -ErrorAction Stop).State", quote(o.Plug())))
	if err != nil {
		return powerstatus.Undef, err
	}
	return parseState(s), nil
}

func (t *T) SetPowerStatus(ctx context.Context, o *options.T) error {
	var script string
	switch o.Action() {
	case action.On:
		script = fmt.Sprintf("Start-VM -Name %s -ErrorAction Stop", quote(o.Plug()))
	case action.Off:
		script = fmt.Sprintf("Stop-VM -Name %s -TurnOff -Force -ErrorAction Stop", quote(o.Plug()))
	default:
		return errors.Errorf("unsupported action %s", o.Action())
	}
	_, err := t.ps(ctx, script)
	return err
}

func (t *T) GetOutletList(ctx context.Context, _ *options.T) ([]fencer.Outlet, error) {
	s, err := t.ps(ctx, "ConvertTo-Json -Compress -InputObject @(Get-VM | Select-Object Name,@{n='State';e={$_.State.ToString()}})")
	if err != nil {
		return nil, err
	}
	var vms []vm
	if s != "" {
		if err := json.Unmarshal([]byte(s), &vms); err != nil {
			return nil, errors.Wrap(err, "parse Get-VM output")
		}
	}
	l := make([]fencer.Outlet, len(vms))
	for i, v := range vms {
		l[i] = fencer.Outlet{ID: v.Name, Status: parseState(v.State)}
	}
	return l, nil
}
