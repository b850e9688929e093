// Package fenceipmilan is the fence agent of the servers managed by an
// IPMI v1.5 or v2.0 baseboard controller, driven through ipmitool.
package fenceipmilan

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/opensvc/fence-agents/core/action"
	"github.com/opensvc/fence-agents/core/fenceerr"
	"github.com/opensvc/fence-agents/core/fencer"
	"github.com/opensvc/fence-agents/core/keywords"
	"github.com/opensvc/fence-agents/core/options"
	"github.com/opensvc/fence-agents/core/powerstatus"
	"github.com/opensvc/fence-agents/util/command"
	"github.com/opensvc/fence-agents/util/retcodes"
)

type (
	// T runs the ipmitool chassis power commands.
	T struct {
		path string
		args []string
		env  []string
	}
)

var (
	kws = []keywords.Keyword{
		{
			Name:    "ipmitool_path",
			Long:    "ipmitool-path",
			Value:   "[path]",
			Default: "ipmitool",
			Text:    "Path to ipmitool binary",
			Order:   300,
		},
		{
			Name:  "lanplus",
			Short: "P",
			Long:  "lanplus",
			Flag:  true,
			Text:  "Use Lanplus to improve security of connection",
			Order: 1,
		},
		{
			Name:       "auth",
			Short:      "A",
			Long:       "auth",
			Value:      "[auth]",
			Candidates: []string{"md5", "password", "none"},
			Text:       "IPMI Lan Auth type.",
			Order:      1,
		},
		{
			Name:  "cipher",
			Short: "C",
			Long:  "cipher",
			Value: "[cipher]",
			Type:  keywords.TypeInteger,
			Text:  "Ciphersuite to use (same as ipmitool -C parameter)",
			Order: 1,
		},
		{
			Name:       "privlvl",
			Short:      "L",
			Long:       "privlvl",
			Value:      "[level]",
			Default:    "administrator",
			Candidates: []string{"callback", "user", "operator", "administrator"},
			Text:       "Privilege level on IPMI device",
			Order:      1,
		},
		keywords.Base.Derive("ipport", func(kw *keywords.Keyword) {
			kw.Default = "623"
			kw.Text = "TCP/UDP port to use for connection with device (default 623)"
		}),
	}

	loginErrors = []string{
		"Unable to establish IPMI v2 / RMCP+ session",
		"Unable to establish LAN session",
		"Activate Session error",
		"password is invalid",
	}
)

// New returns the fence_ipmilan agent.
func New() fencer.Agent {
	return fencer.Agent{
		Name:      "fence_ipmilan",
		ShortDesc: "Fence agent for IPMI",
		LongDesc: "fence_ipmilan is a Power Fencing agent which can be used with machines controlled by IPMI. " +
			"This agent calls support software ipmitool (http://ipmitool.sf.net/).",
		VendorURL:  "",
		DeviceOpts: []string{"ipaddr", "login", "no_login", "no_password", "passwd", "ipmitool_path", "lanplus", "auth", "cipher", "privlvl", "method", "sudo"},
		Keywords:   kws,
		Connect:    Connect,
	}
}

// Connect prepares the ipmitool command line. The controller is only
// contacted by the power commands.
func Connect(_ context.Context, o *options.T) (fencer.Backend, error) {
	t := &T{path: o.Get("--ipmitool-path")}
	iface := "lan"
	if o.Has("--lanplus") {
		iface = "lanplus"
	}
	t.args = []string{"-I", iface, "-H", o.Get("--ip"), "-p", o.Get("--ipport")}
	if s := o.Get("--username"); s != "" {
		t.args = append(t.args, "-U", s)
	}
	if s := o.Get("--auth"); s != "" {
		t.args = append(t.args, "-A", s)
	}
	if s := o.Get("--cipher"); s != "" {
		t.args = append(t.args, "-C", s)
	}
	if s := o.Get("--privlvl"); s != "" {
		t.args = append(t.args, "-L", strings.ToUpper(s))
	}
	if o.Has("--password") {
		// -E reads the password from the environment, keeping it out
		// of the process table.
		t.args = append(t.args, "-E")
		t.env = []string{"IPMI_PASSWORD=" + o.Get("--password")}
	}
	if o.Has("--use-sudo") {
		t.args = append([]string{t.path}, t.args...)
		t.path = o.Get("--sudo-path")
	}
	return fencer.Backend{
		Status: t,
		Change: fencer.Polled{Setter: t},
		Cycler: t,
	}, nil
}

func (t *T) chassisPower(ctx context.Context, o *options.T, op string) (string, error) {
	args := append(append([]string{}, t.args...), "chassis", "power", op)
	cmd := command.New(
		command.WithName(t.path),
		command.WithArgs(args),
		command.WithEnv(t.env),
		command.WithLogger(&log.Logger),
		command.WithLogLevel(zerolog.DebugLevel),
		command.WithStdoutLogLevel(zerolog.DebugLevel),
		command.WithStderrLogLevel(zerolog.DebugLevel),
		command.WithTimeout(o.Seconds("--shell-timeout")),
		command.WithBufferedStdout(),
		command.WithBufferedStderr(),
	)
	err := cmd.Run(ctx)
	if err == nil {
		return string(cmd.Stdout()), nil
	}
	stderr := strings.TrimSpace(string(cmd.Stderr()))
	for _, s := range loginErrors {
		if strings.Contains(stderr, s) {
			return "", fenceerr.Wrap(retcodes.LoginDenied, errors.New(stderr))
		}
	}
	if stderr != "" {
		return "", errors.Wrap(err, stderr)
	}
	return "", err
}

func (t *T) GetPowerStatus(ctx context.Context, o *options.T) (powerstatus.T, error) {
	out, err := t.chassisPower(ctx, o, "status")
	if err != nil {
		return powerstatus.Undef, err
	}
	return parseStatus(out), nil
}

func (t *T) SetPowerStatus(ctx context.Context, o *options.T) error {
	switch a := o.Action(); a {
	case action.On, action.Off:
		_, err := t.chassisPower(ctx, o, a.String())
		return err
	default:
		return errors.Errorf("unsupported action %s", a)
	}
}

// RebootCycle power cycles the chassis. A chassis powered off stays off,
// so it is reported as not rebooted.
func (t *T) RebootCycle(ctx context.Context, o *options.T) (bool, error) {
	out, err := t.chassisPower(ctx, o, "cycle")
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToLower(out), "cycle"), nil
}

// parseStatus parses the "Chassis Power is on" output.
func parseStatus(s string) powerstatus.T {
	const prefix = "chassis power is "
	for _, line := range strings.Split(strings.ToLower(s), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, prefix) {
			return powerstatus.Parse(strings.TrimPrefix(line, prefix))
		}
	}
	return powerstatus.Unknown
}
