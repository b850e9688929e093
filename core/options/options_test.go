package options

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensvc/fence-agents/core/action"
	"github.com/opensvc/fence-agents/core/fenceerr"
	"github.com/opensvc/fence-agents/core/keywords"
	"github.com/opensvc/fence-agents/core/rawopts"
	"github.com/opensvc/fence-agents/test_helper"
)

var (
	sshAgent    = keywords.Expand("ipaddr", "login", "passwd", "port", "secure", "telnet", "cmd_prompt")
	fabricAgent = keywords.Expand("no_login", "no_password", "port", "fabric_fencing", "nodename")
	sslAgent    = keywords.Expand("ipaddr", "login", "passwd", "port", "ssl", "method")
)

func prepare(t *testing.T, set keywords.Set, args ...string) *T {
	t.Helper()
	store := keywords.Base.Patched(set)
	raw, err := rawopts.Acquire(args, strings.NewReader(""), store, set)
	require.NoError(t, err)
	return Prepare(raw, store, set, viper.New())
}

func TestPrepare(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		o := prepare(t, sslAgent, "-l", "admin")
		assert.Equal(t, action.Reboot, o.Action())
		assert.Equal(t, 20*time.Second, o.Seconds("--power-timeout"))
		assert.Equal(t, time.Second, o.Seconds("--stonith-status-sleep"))
		assert.Equal(t, 1, o.Int("--retry-on"))
		assert.Equal(t, "onoff", o.Get("--method"))
		assert.Equal(t, ",", o.Get("--plug-separator"))
		assert.False(t, o.Has("--ssh-path"), "not requested by the agent")
	})

	t.Run("given values override defaults", func(t *testing.T) {
		o := prepare(t, sslAgent, "--power-timeout=0", "--method=CYCLE", "-a", "bmc", "-l", "u", "-p", "p", "-n", "1")
		assert.Equal(t, time.Duration(0), o.Seconds("--power-timeout"))
		assert.True(t, o.Has("--power-timeout"))
		assert.Equal(t, "cycle", o.Get("--method"), "choices take their declared spelling")
		assert.NoError(t, o.Validate(), "choices are case insensitive")
	})

	t.Run("action aliases", func(t *testing.T) {
		for s, expected := range map[string]action.T{
			"meta-data": action.Metadata,
			"STATUS":    action.Status,
			"enable":    action.On,
			"disable":   action.Off,
		} {
			o := prepare(t, fabricAgent, "--action="+s)
			assert.Equal(t, expected, o.Action(), s)
			assert.NoError(t, o.CheckAction(), s)
		}
	})

	t.Run("ssl implies ssl-secure", func(t *testing.T) {
		o := prepare(t, sslAgent, "--ssl")
		assert.True(t, o.Has("--ssl-secure"))
		assert.Equal(t, "443", o.Get("--ipport"))
	})

	t.Run("ssl-insecure implies ssl", func(t *testing.T) {
		o := prepare(t, sslAgent, "--ssl-insecure")
		assert.True(t, o.Has("--ssl"))
		assert.False(t, o.Has("--ssl-secure"))
	})

	t.Run("ipport defaults", func(t *testing.T) {
		assert.Equal(t, "22", prepare(t, sshAgent, "--ssh").Get("--ipport"))
		assert.Equal(t, "23", prepare(t, sshAgent).Get("--ipport"))
		assert.Equal(t, "", prepare(t, sslAgent).Get("--ipport"))
		assert.Equal(t, "2222", prepare(t, sshAgent, "--ssh", "--ipport=2222").Get("--ipport"))

		set := keywords.Expand("ipaddr", "no_login", "no_password", "ssl")
		store := keywords.Base.Merge(keywords.Base.Derive("ipport", func(kw *keywords.Keyword) { kw.Default = "623" }))
		o := Prepare(rawopts.T{"--ssl": "1"}, store, set, viper.New())
		assert.Equal(t, 623, o.Int("--ipport"))
	})

	t.Run("disable timeout under pacemaker", func(t *testing.T) {
		env := viper.New()
		env.Set("pcmk_service", "pacemaker-fenced")
		set := sslAgent
		o := Prepare(rawopts.T{"--power-timeout": "60"}, keywords.Base, set, env)
		assert.Equal(t, time.Duration(0), o.Seconds("--power-timeout"))
		assert.Equal(t, time.Duration(0), o.Seconds("--shell-timeout"))
		assert.Equal(t, time.Duration(0), o.Seconds("--login-timeout"))

		o = Prepare(rawopts.T{"--disable-timeout": "false"}, keywords.Base, set, env)
		assert.Equal(t, 20*time.Second, o.Seconds("--power-timeout"))

		o = Prepare(rawopts.T{}, keywords.Base, set, viper.New())
		assert.Equal(t, 20*time.Second, o.Seconds("--power-timeout"))

		o = Prepare(rawopts.T{"--disable-timeout": "yes"}, keywords.Base, set, viper.New())
		assert.Equal(t, time.Duration(0), o.Seconds("--power-timeout"))
	})

	t.Run("orchestrator environment variable", func(t *testing.T) {
		t.Setenv(EnvService, "stonith-ng")
		o := Prepare(rawopts.T{}, keywords.Base, sslAgent, NewEnv())
		assert.True(t, o.Bool("--disable-timeout"))
	})
}

func TestCheckAction(t *testing.T) {
	cases := []struct {
		set      keywords.Set
		action   string
		accepted bool
	}{
		{sshAgent, "reboot", true},
		{sshAgent, "enable", false},
		{sshAgent, "monitor", true},
		{sshAgent, "validate-all", true},
		{sshAgent, "undefined", false},
		{fabricAgent, "reboot", false},
		{fabricAgent, "enable", true},
		{fabricAgent, "on", true},
		{keywords.Expand("ipaddr", "no_status"), "status", false},
		{keywords.Expand("ipaddr", "no_on"), "on", false},
	}
	for _, c := range cases {
		t.Run(c.action, func(t *testing.T) {
			o := Prepare(rawopts.T{"--action": c.action}, keywords.Base, c.set, nil)
			err := o.CheckAction()
			if c.accepted {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, "Failed: Unrecognised action '"+c.action+"'", err.Error())
				assert.True(t, fenceerr.IsUsage(err))
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("first failure", func(t *testing.T) {
		o := prepare(t, sshAgent, "--action=off")
		err := o.Validate()
		require.Error(t, err)
		assert.Equal(t, "Failed: You have to set login name", err.Error())
	})

	t.Run("all failures", func(t *testing.T) {
		o := prepare(t, sshAgent, "--action=off")
		var msgs []string
		for _, err := range o.Check() {
			msgs = append(msgs, err.Error())
		}
		assert.Equal(t, []string{
			"Failed: You have to set login name",
			"Failed: You have to enter fence address",
			"Failed: You have to enter password, password script or identity file",
			"Failed: You have to enter plug number or machine identification",
		}, msgs)
	})

	t.Run("valid", func(t *testing.T) {
		o := prepare(t, sshAgent, "-a", "pdu1", "-l", "apc", "-p", "apc", "-n", "3", "--ssh")
		assert.Empty(t, o.Check())
		assert.NoError(t, o.Validate())
	})

	t.Run("plug is not required for listing", func(t *testing.T) {
		o := prepare(t, sshAgent, "-a", "pdu1", "-l", "apc", "-p", "apc", "-o", "list")
		assert.NoError(t, o.Validate())
	})

	t.Run("address escape hatch", func(t *testing.T) {
		o := prepare(t, keywords.Expand("ipaddr", "no_login", "no_password", "target"), "--target=vm1")
		assert.NoError(t, o.Validate())
	})

	t.Run("plug is not required with port as ip", func(t *testing.T) {
		o := prepare(t, keywords.Expand("ipaddr", "login", "passwd"), "-a", "bmc1", "-l", "admin", "-p", "secret", "-o", "off")
		assert.NoError(t, o.Validate())
	})

	t.Run("identity file", func(t *testing.T) {
		key := test_helper.TempFile(t, "id_rsa", "key")
		o := prepare(t, sshAgent, "-a", "pdu1", "-l", "apc", "-n", "3", "-k", key)
		assert.EqualError(t, o.Validate(), "Failed: You have to use identity file together with ssh connection (-x)")

		o = prepare(t, sshAgent, "-a", "pdu1", "-l", "apc", "-n", "3", "-x", "-k", key+".missing")
		assert.EqualError(t, o.Validate(), "Failed: Identity file "+key+".missing does not exist")

		o = prepare(t, sshAgent, "-a", "pdu1", "-l", "apc", "-n", "3", "-x", "-k", key)
		assert.NoError(t, o.Validate())
	})

	t.Run("choices and types", func(t *testing.T) {
		o := prepare(t, sslAgent, "-a", "bmc", "-l", "u", "-p", "p", "-n", "1", "--method=twice", "--power-timeout=soon", "--retry-on=1.5")
		var msgs []string
		for _, err := range o.Check() {
			msgs = append(msgs, err.Error())
		}
		assert.Equal(t, []string{
			"Failed: You have to enter a valid choice for --method from the valid values: onoff, cycle",
			"Failed: The value you have entered for --power-timeout is not a valid second",
			"Failed: The value you have entered for --retry-on is not a valid integer",
		}, msgs)
	})

	t.Run("empty numeric values", func(t *testing.T) {
		set := sslAgent
		store := keywords.Base.Patched(set)
		input := "action=off\nip=bmc\nusername=u\npassword=p\nplug=1\npower_timeout=\nretry_on=\n"
		raw, err := rawopts.FromReader(strings.NewReader(input), store, set)
		require.NoError(t, err)
		o := Prepare(raw, store, set, viper.New())
		var msgs []string
		for _, err := range o.Check() {
			msgs = append(msgs, err.Error())
		}
		assert.Equal(t, []string{
			"Failed: The value you have entered for --power-timeout is not a valid second",
			"Failed: The value you have entered for --retry-on is not a valid integer",
		}, msgs)
	})
}

func TestShortCircuit(t *testing.T) {
	assert.True(t, prepare(t, sshAgent, "-o", "metadata").ShortCircuit())
	assert.True(t, prepare(t, sshAgent, "-o", "manpage").ShortCircuit())
	assert.True(t, prepare(t, sshAgent, "-h").ShortCircuit())
	assert.True(t, prepare(t, sshAgent, "--version").ShortCircuit())
	assert.False(t, prepare(t, sshAgent, "-o", "validate-all").ShortCircuit())
	o := Prepare(rawopts.T{"--help": "0"}, keywords.Base, sshAgent, nil)
	assert.False(t, o.ShortCircuit())
}

func TestResolveSecrets(t *testing.T) {
	script := test_helper.TempFileExec(t, "pass.sh", "echo '  s3cret  '")
	o := prepare(t, sshAgent, "-a", "pdu1", "-l", "apc", "-n", "3", "-S", script)
	require.NoError(t, o.Validate())
	require.NoError(t, o.ResolveSecrets(context.Background()))
	assert.Equal(t, "s3cret", o.Get("--password"))
	assert.False(t, o.Has("--password-script"))

	failing := test_helper.TempFileExec(t, "fail.sh", "exit 1")
	o = prepare(t, sshAgent, "-S", failing)
	assert.Error(t, o.ResolveSecrets(context.Background()))
}

func TestExportEnvFile(t *testing.T) {
	t.Cleanup(func() { _ = os.Unsetenv("FENCE_TEST_REGION") })
	p := test_helper.TempFile(t, "fence.env", "# credentials\nFENCE_TEST_REGION=eu-west-3\n")
	o := prepare(t, sshAgent, "--env-file="+p)
	require.NoError(t, o.ExportEnvFile())
	assert.Equal(t, "eu-west-3", os.Getenv("FENCE_TEST_REGION"))

	o = prepare(t, sshAgent, "--env-file="+p+".missing")
	assert.Error(t, o.ExportEnvFile())
}

func TestPlugs(t *testing.T) {
	o := prepare(t, sshAgent, "-n", "1, 2,,3")
	assert.Equal(t, []string{"1", "2", "3"}, o.Plugs())

	o = prepare(t, sshAgent, "-n", "vm1:vm2", "--plug-separator=:")
	assert.Equal(t, []string{"vm1", "vm2"}, o.Plugs())

	id := "0b2a2f8e-6d3a-4d0e-9a0f-1c8f0f6c7a11"
	p := o.WithPlug(id)
	assert.Equal(t, id, p.UUID())
	assert.Equal(t, id, p.Plug())
	assert.Equal(t, "vm1:vm2", o.Plug(), "original is not modified")
	assert.Equal(t, "", p.WithPlug("vm1").UUID())

	l := o.WithAction(action.List)
	assert.Equal(t, action.List, l.Action())
	assert.Equal(t, action.Reboot, o.Action())
}

func TestVerboseLevel(t *testing.T) {
	assert.Equal(t, 0, prepare(t, sshAgent).VerboseLevel())
	assert.Equal(t, 3, prepare(t, sshAgent, "-vvv").VerboseLevel())
	assert.Equal(t, 2, prepare(t, sshAgent, "-v", "--verbose-level=2").VerboseLevel())
}
