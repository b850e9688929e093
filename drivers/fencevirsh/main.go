// Package fencevirsh is the fence agent of the libvirt virtual machines.
// It logs via ssh to the hypervisor and runs virsh commands there.
package fencevirsh

import (
	"context"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/pkg/errors"

	"github.com/opensvc/fence-agents/core/fenceerr"
	"github.com/opensvc/fence-agents/core/fencer"
	"github.com/opensvc/fence-agents/core/keywords"
	"github.com/opensvc/fence-agents/core/options"
	"github.com/opensvc/fence-agents/core/powerstatus"
	"github.com/opensvc/fence-agents/util/retcodes"
	"github.com/opensvc/fence-agents/util/sshnode"
)

type (
	// T is the virsh backend.
	T struct {
		client runner
		sudo   string

		// shellTimeout bounds each virsh command. Zero means unbounded.
		shellTimeout time.Duration
	}

	runner interface {
		Run(ctx context.Context, cmd string) ([]byte, error)
	}
)

var (
	// KnownHostsFile is the known hosts file of the hypervisors.
	KnownHostsFile = sshnode.DefaultKnownHostsFile

	offStates = map[string]bool{
		"shut off":    true,
		"crashed":     true,
		"pmsuspended": true,
	}
)

// New returns the fence_virsh agent.
func New() fencer.Agent {
	return fencer.Agent{
		Name:      "fence_virsh",
		ShortDesc: "Fence agent for virsh",
		LongDesc: "fence_virsh is a Power Fencing agent which can be used with the virtual machines managed by libvirt. " +
			"It logs via ssh to a dom0 and there run virsh command, which does all work.\n\n" +
			"By default, virsh needs root account to do properly work. So you must allow ssh login in your sshd_config.",
		VendorURL:  "https://libvirt.org",
		DeviceOpts: []string{"ipaddr", "login", "passwd", "secure", "identity_file", "port", "sudo", "missing_as_off"},
		Keywords: []keywords.Keyword{
			keywords.Base.Derive("secure", func(kw *keywords.Keyword) {
				kw.Default = "1"
			}),
			keywords.Base.Derive("port", func(kw *keywords.Keyword) {
				kw.Text = "Virtual machine (domain name) to fence"
				kw.ShortDesc = kw.Text
			}),
		},
		Connect: Connect,
	}
}

// Connect opens the ssh session on the hypervisor.
func Connect(ctx context.Context, o *options.T) (fencer.Backend, error) {
	config := sshnode.Config{
		Host:           o.Get("--ip"),
		Port:           o.Get("--ipport"),
		User:           o.Get("--username"),
		Password:       o.Get("--password"),
		IdentityFile:   o.Get("--identity-file"),
		KnownHostsFile: KnownHostsFile,
		Timeout:        o.Seconds("--login-timeout"),
	}
	switch {
	case o.Has("--inet4-only"):
		config.Network = "tcp4"
	case o.Has("--inet6-only"):
		config.Network = "tcp6"
	}
	config, err := config.WithOptions(o.Get("--ssh-options"))
	if err != nil {
		return fencer.Backend{}, fenceerr.Usagef("Failed: %s", err)
	}
	client, err := sshnode.NewClient(ctx, config)
	if err != nil {
		return fencer.Backend{}, loginError(err)
	}
	t := &T{
		client:       client,
		shellTimeout: o.Seconds("--shell-timeout"),
	}
	if o.Has("--use-sudo") {
		t.sudo = o.Get("--sudo-path")
	}
	return fencer.Backend{
		Status: t,
		Change: fencer.Polled{Setter: t},
		Lister: t,
		Closer: client,
	}, nil
}

// loginError reports the ssh handshake errors not related to the
// transport as login failures.
func loginError(err error) error {
	e := fenceerr.FromTransport(err)
	if e.Code == retcodes.GenericError {
		return fenceerr.Wrap(retcodes.LoginDenied, err)
	}
	return e
}

func (t *T) virsh(ctx context.Context, args ...string) (string, error) {
	argv := make([]string, 0, len(args)+2)
	if t.sudo != "" {
		argv = append(argv, t.sudo)
	}
	argv = append(argv, "virsh")
	argv = append(argv, args...)
	if t.shellTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.shellTimeout)
		defer cancel()
	}
	b, err := t.client.Run(ctx, "LANG=C "+shellquote.Join(argv...))
	return strings.TrimSpace(string(b)), err
}

func (t *T) GetPowerStatus(ctx context.Context, o *options.T) (powerstatus.T, error) {
	s, err := t.virsh(ctx, "domstate", o.Plug())
	var exitErr *sshnode.ExitError
	switch {
	case errors.As(err, &exitErr) && strings.Contains(exitErr.Stderr, "failed to get domain"):
		return powerstatus.Undef, errors.Wrap(fenceerr.ErrPlugNotFound, o.Plug())
	case err != nil:
		return powerstatus.Undef, err
	}
	return parseState(s), nil
}

func (t *T) SetPowerStatus(ctx context.Context, o *options.T) error {
	op := "destroy"
	if o.Action() == "on" {
		op = "start"
	}
	_, err := t.virsh(ctx, op, o.Plug())
	return err
}

func (t *T) GetOutletList(ctx context.Context, _ *options.T) ([]fencer.Outlet, error) {
	s, err := t.virsh(ctx, "list", "--all")
	if err != nil {
		return nil, err
	}
	return parseList(s), nil
}

func parseState(s string) powerstatus.T {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return powerstatus.Unknown
	case offStates[s]:
		return powerstatus.Off
	default:
		return powerstatus.On
	}
}

// parseList parses the "virsh list --all" table:
//
//	 Id   Name   State
//	----------------------
//	 1    vm1    running
//	 -    vm2    shut off
func parseList(s string) []fencer.Outlet {
	l := make([]fencer.Outlet, 0)
	for _, line := range strings.Split(s, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[0] == "Id" || strings.Trim(line, "- ") == "" {
			continue
		}
		l = append(l, fencer.Outlet{
			ID:     fields[1],
			Status: parseState(strings.Join(fields[2:], " ")),
		})
	}
	return l
}
