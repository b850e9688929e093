// Package options turns the raw options of an agent run into validated
// options: defaults applied, action normalized, values checked against
// the keywords, secrets resolved.
package options

import (
	"context"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/opensvc/fence-agents/core/action"
	"github.com/opensvc/fence-agents/core/fenceerr"
	"github.com/opensvc/fence-agents/core/keywords"
	"github.com/opensvc/fence-agents/core/rawopts"
	"github.com/opensvc/fence-agents/util/command"
	"github.com/opensvc/fence-agents/util/converters"
	"github.com/opensvc/fence-agents/util/file"
)

type (
	// T is the validated options of an agent run. The values are keyed
	// by the long option prefixed by "--", like the raw options.
	//
	// T is never modified by the dispatcher: the per-plug and per-action
	// variants are copies.
	T struct {
		m         map[string]string
		store     keywords.Store
		set       keywords.Set
		rawAction string
	}
)

const (
	// EnvService is the environment variable set by the orchestrator
	// running the agent.
	EnvService = "PCMK_service"
)

var (
	// services are the EnvService values of the orchestrators enforcing
	// their own timeout on the agent run.
	services = map[string]bool{
		"pacemaker-fenced": true,
		"stonith-ng":       true,
	}

	envKeyRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// NewEnv returns the viper instance reading the process environment.
func NewEnv() *viper.Viper {
	v := viper.New()
	_ = v.BindEnv("pcmk_service", EnvService)
	v.AutomaticEnv()
	return v
}

// Prepare applies the defaults, the implied options and the action
// aliases to raw. It never fails: the problems are reported by
// CheckAction and Validate.
func Prepare(raw rawopts.T, store keywords.Store, set keywords.Set, env *viper.Viper) *T {
	t := &T{
		m:     make(map[string]string, len(raw)),
		store: store,
		set:   set,
	}
	for k, v := range raw {
		t.m[k] = v
	}
	for _, kw := range store.Select(set) {
		if kw.IsCapability() || kw.Default == "" || t.isPresent(kw.Flagname()) {
			continue
		}
		t.m[kw.Flagname()] = kw.Default
	}
	for _, kw := range store.Select(set) {
		v, ok := t.m[kw.Flagname()]
		if !ok {
			continue
		}
		for _, c := range kw.Candidates {
			if strings.EqualFold(c, v) {
				t.m[kw.Flagname()] = c
				break
			}
		}
	}
	t.rawAction = strings.ToLower(strings.TrimSpace(t.m["--action"]))
	t.m["--action"] = action.Normalize(t.rawAction).String()

	if t.Has("--ssl-secure") || t.Has("--ssl-insecure") {
		t.m["--ssl"] = "1"
	}
	if t.Has("--ssl") && !t.Has("--ssl-insecure") {
		t.m["--ssl-secure"] = "1"
	}
	if set.Has("ipport") && !t.isPresent("--ipport") {
		switch {
		case t.Has("--ssh"):
			t.m["--ipport"] = "22"
		case t.Has("--ssl"):
			t.m["--ipport"] = "443"
		case set.Has("telnet"):
			t.m["--ipport"] = "23"
		}
	}

	if env != nil && set.Has("disable_timeout") && !t.isPresent("--disable-timeout") {
		if services[env.GetString("pcmk_service")] {
			t.m["--disable-timeout"] = "1"
		}
	}
	if t.Bool("--disable-timeout") {
		for _, k := range []string{"--power-timeout", "--shell-timeout", "--login-timeout"} {
			t.m[k] = "0"
		}
	}

	if p := t.m["--identity-file"]; p != "" {
		if expanded, err := homedir.Expand(p); err == nil {
			t.m["--identity-file"] = expanded
		}
	}
	return t
}

// ShortCircuit returns true if the run only renders the documentation
// or the version. Such runs need no further validation.
func (t *T) ShortCircuit() bool {
	return t.Action().IsDocumentation() || t.Has("--help") || t.Has("--version")
}

// AcceptedActions returns the action spellings accepted by an agent
// declaring set.
func AcceptedActions(set keywords.Set) []string {
	l := make([]string, 0)
	for _, s := range []string{"on", "off", "status"} {
		if !set.Has("no_" + s) {
			l = append(l, s)
		}
	}
	l = append(l, "list", "list-status", "monitor")
	if set.Has("fabric_fencing") {
		l = append(l, "enable", "disable")
	} else {
		l = append(l, "reboot")
	}
	return append(l, "validate-all", "metadata", "meta-data", "manpage")
}

// CheckAction verifies the action, before the aliases are applied, is
// accepted by the agent.
func (t *T) CheckAction() error {
	for _, s := range AcceptedActions(t.set) {
		if s == t.rawAction {
			return nil
		}
	}
	return fenceerr.Usagef("Failed: Unrecognised action '%s'", t.rawAction)
}

// Validate returns the first problem found in the options.
func (t *T) Validate() error {
	if l := t.check(true); len(l) > 0 {
		return l[0]
	}
	return nil
}

// Check returns all the problems found in the options.
func (t *T) Check() []error {
	return t.check(false)
}

func (t *T) check(stopFirst bool) []error {
	var errs []error
	report := func(format string, args ...interface{}) bool {
		errs = append(errs, fenceerr.Usagef(format, args...))
		return stopFirst
	}
	if kw, ok := t.store.Lookup("login"); ok && t.set.Has("login") && kw.IsRequired(t.set) && !t.Has("--username") {
		if report("Failed: You have to set login name") {
			return errs
		}
	}
	if t.set.Has("ipaddr") && !t.Has("--ip") && !t.Has("--managed") && !t.Has("--target") {
		if report("Failed: You have to enter fence address") {
			return errs
		}
	}
	if t.set.Has("passwd") && !t.set.Has("no_password") {
		switch {
		case !t.set.Has("identity_file"):
			if !t.Has("--password") && !t.Has("--password-script") {
				if report("Failed: You have to enter password or password script") {
					return errs
				}
			}
		default:
			if !t.Has("--password") && !t.Has("--password-script") && !t.Has("--identity-file") {
				if report("Failed: You have to enter password, password script or identity file") {
					return errs
				}
			}
		}
	}
	if t.Has("--identity-file") && !t.Has("--ssh") {
		if report("Failed: You have to use identity file together with ssh connection (-x)") {
			return errs
		}
	}
	if p := t.Get("--identity-file"); p != "" {
		if ok, _ := file.ExistsAndRegular(p); !ok {
			if report("Failed: Identity file %s does not exist", p) {
				return errs
			}
		}
	}
	if kw, ok := t.store.Lookup("port"); ok && t.set.Has("port") && kw.IsRequired(t.set) && t.Action().NeedsPlug() && !t.Has("--plug") {
		if report("Failed: You have to enter plug number or machine identification") {
			return errs
		}
	}
	for _, kw := range t.store.Select(t.set) {
		flag := kw.Flagname()
		if kw.IsCapability() || kw.Flag || !t.isPresent(flag) {
			continue
		}
		value := t.m[flag]
		if !kw.HasCandidate(value) {
			if report("Failed: You have to enter a valid choice for %s from the valid values: %s", flag, strings.Join(kw.Candidates, ", ")) {
				return errs
			}
			continue
		}
		if kw.Type == keywords.TypeString {
			continue
		}
		v, err := converters.Lookup(kw.Type.String()).Convert(value)
		if err != nil || (v == nil && kw.Type != keywords.TypeBoolean) {
			if report("Failed: The value you have entered for %s is not a valid %s", flag, kw.Type) {
				return errs
			}
		}
	}
	return errs
}

// ResolveSecrets replaces the password script options by the trimmed
// stdout of the scripts.
func (t *T) ResolveSecrets(ctx context.Context) error {
	for _, e := range []struct{ script, secret string }{
		{"--password-script", "--password"},
		{"--snmp-priv-passwd-script", "--snmp-priv-passwd"},
	} {
		script := t.Get(e.script)
		if script == "" {
			continue
		}
		cmd := command.New(
			command.WithCommandString(script),
			command.WithBufferedStdout(),
			command.WithLogger(&log.Logger),
			command.WithCommandLogLevel(zerolog.DebugLevel),
		)
		b, err := cmd.Output(ctx)
		if err != nil {
			return errors.Wrapf(err, "%s", e.script)
		}
		t.m[e.secret] = strings.TrimSpace(string(b))
		delete(t.m, e.script)
	}
	return nil
}

// ExportEnvFile exports the variables of the --env-file dotenv file in
// the process environment. The variable names are upper-cased.
func (t *T) ExportEnvFile() error {
	p := t.Get("--env-file")
	if p == "" {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(p)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fenceerr.Usagef("Failed: Unable to read environment file %s: %s", p, err)
	}
	for _, k := range v.AllKeys() {
		if !envKeyRegexp.MatchString(k) {
			log.Warn().Msgf("Ignoring invalid environment variable name '%s' in %s", k, p)
			continue
		}
		if err := os.Setenv(strings.ToUpper(k), v.GetString(k)); err != nil {
			return err
		}
	}
	return nil
}

func (t *T) isPresent(flag string) bool {
	_, ok := t.m[flag]
	return ok
}

// Has returns true if the option is set. A flag explicitly unset is not.
func (t *T) Has(flag string) bool {
	v, ok := t.m[flag]
	if !ok {
		return false
	}
	if kw, found := t.store.LookupFlag(flag); found && kw.Flag {
		return v != "0"
	}
	return true
}

// Get returns the option value, or an empty string.
func (t *T) Get(flag string) string {
	return t.m[flag]
}

// Bool returns true if the option is set to a true value.
func (t *T) Bool(flag string) bool {
	v, ok := t.m[flag]
	if !ok {
		return false
	}
	b, err := converters.ParseBool(v)
	return err == nil && b
}

// Int returns the option value as an integer, or 0.
func (t *T) Int(flag string) int {
	i, _ := strconv.Atoi(strings.TrimSpace(t.m[flag]))
	return i
}

// Seconds returns the option value as a duration, or 0.
func (t *T) Seconds(flag string) time.Duration {
	d, _ := converters.ParseSeconds(t.m[flag])
	return d
}

// Action returns the normalized action.
func (t *T) Action() action.T {
	return action.T(t.m["--action"])
}

// RawAction returns the action as given by the caller, lower-cased.
func (t *T) RawAction() string {
	return t.rawAction
}

// VerboseLevel returns the --verbose-level value, or the count of
// --verbose flags.
func (t *T) VerboseLevel() int {
	if t.isPresent("--verbose-level") {
		return t.Int("--verbose-level")
	}
	if !t.Has("--verbose") {
		return 0
	}
	return t.Int("--verbose")
}

// Plug returns the plug of a single plug operation.
func (t *T) Plug() string {
	return t.m["--plug"]
}

// UUID returns the plug as an UUID, or an empty string if the plug is
// not an UUID.
func (t *T) UUID() string {
	return t.m["--uuid"]
}

// Plugs returns the --plug values split by the --plug-separator.
func (t *T) Plugs() []string {
	s := t.m["--plug"]
	if s == "" {
		return nil
	}
	sep := t.m["--plug-separator"]
	if sep == "" {
		sep = ","
	}
	l := make([]string, 0)
	for _, plug := range strings.Split(s, sep) {
		if plug = strings.TrimSpace(plug); plug != "" {
			l = append(l, plug)
		}
	}
	return l
}

// WithPlug returns a copy of t targeting the plug. The plug is also
// exposed as --uuid if it parses as an UUID.
func (t *T) WithPlug(plug string) *T {
	c := t.clone()
	c.m["--plug"] = plug
	if id, err := uuid.Parse(plug); err == nil {
		c.m["--uuid"] = id.String()
	} else {
		delete(c.m, "--uuid")
	}
	return c
}

// WithAction returns a copy of t with the action replaced.
func (t *T) WithAction(a action.T) *T {
	c := t.clone()
	c.m["--action"] = a.String()
	return c
}

// With returns a copy of t with the option set to value.
func (t *T) With(flag, value string) *T {
	c := t.clone()
	c.m[flag] = value
	return c
}

// Map returns a copy of the option values.
func (t *T) Map() map[string]string {
	m := make(map[string]string, len(t.m))
	for k, v := range t.m {
		m[k] = v
	}
	return m
}

// DeviceOpts returns the expanded option set of the agent.
func (t *T) DeviceOpts() keywords.Set {
	return t.set
}

// Store returns the keywords of the agent.
func (t *T) Store() keywords.Store {
	return t.store
}

func (t *T) clone() *T {
	return &T{
		m:         t.Map(),
		store:     t.store,
		set:       t.set,
		rawAction: t.rawAction,
	}
}
