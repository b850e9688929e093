package keywords

// Dependencies maps a trigger option to the options always requested
// with it. The "default" entry is requested by every agent.
//
// The table is flat: companions are never triggers themselves.
var Dependencies = map[string][]string{
	"default": {
		"help", "debug", "verbose", "verbose_level", "version", "action",
		"power_timeout", "shell_timeout", "login_timeout", "disable_timeout",
		"power_wait", "stonith_status_sleep", "retry_on", "delay",
		"plug_separator", "quiet", "env_file",
	},
	"passwd":    {"passwd_script"},
	"sudo":      {"sudo_path"},
	"secure":    {"identity_file", "ssh_options", "ssh_path", "inet4_only", "inet6_only"},
	"telnet":    {"telnet_path"},
	"ipaddr":    {"ipport"},
	"port":      {"separator"},
	"ssl":       {"ssl_secure", "ssl_insecure"},
	"community": {
		"snmp_auth_prot", "snmp_sec_level", "snmp_priv_prot",
		"snmp_priv_passwd", "snmp_priv_passwd_script",
		"snmpwalk_path", "snmpset_path", "snmpget_path",
	},
}

const portAsIPText = "IP address or hostname of fencing device (together with --port-as-ip)"

// Expand returns the set of options an agent declaring requested
// accepts. When the agent has no port concept but talks to an address,
// the port_as_ip capability is injected, along with port so --plug is
// accepted as an alias of --ip.
func Expand(requested ...string) Set {
	set := NewSet("default")
	set.Add(requested...)
	for _, name := range set.Names() {
		set.Add(Dependencies[name]...)
	}
	delete(set, "default")
	if !set.Has("port") && !set.Has("nodename") && set.Has("ipaddr") {
		set.Add("port_as_ip", "port")
	}
	return set
}

// Patched returns a copy of the store with the documentation adjusted to
// the expanded option set. The validation fields are never changed.
func (t Store) Patched(set Set) Store {
	if !set.Has("port_as_ip") {
		return t
	}
	if _, ok := t.Lookup("port"); !ok {
		return t
	}
	return t.Merge(t.Derive("port", func(kw *Keyword) {
		kw.Text = portAsIPText
		kw.ShortDesc = portAsIPText
	}))
}

// HasPort returns true if the agent models plugs distinct from the
// device address.
func HasPort(set Set) bool {
	return set.Has("port") && !set.Has("port_as_ip") && !set.Has("no_port")
}
