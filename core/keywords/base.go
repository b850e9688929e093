package keywords

// Base is the store of the options shared by all the fence agents.
var Base = Store{
	// Capabilities declared by the agents.
	{Name: "no_login"},
	{Name: "no_password"},
	{Name: "no_port"},
	{Name: "no_status"},
	{Name: "no_on"},
	{Name: "no_off"},
	{Name: "force_on"},
	{Name: "fabric_fencing"},
	{Name: "telnet"},

	{
		Name:  "help",
		Short: "h",
		Long:  "help",
		Flag:  true,
		Text:  "Display this help and exit",
		Order: 54,
	},
	{
		Name:  "version",
		Short: "V",
		Long:  "version",
		Flag:  true,
		Text:  "Display version information and exit",
		Order: 53,
	},
	{
		Name:      "verbose",
		Short:     "v",
		Long:      "verbose",
		Flag:      true,
		Stackable: true,
		Text:      "Verbose mode. Multiple -v flags can be stacked on the command line (e.g., -vvv) to increase verbosity.",
		ShortDesc: "Verbose mode",
		Order:     51,
	},
	{
		Name:      "verbose_level",
		Long:      "verbose-level",
		Value:     "[level]",
		Type:      TypeInteger,
		Text:      "Level of debugging detail in output. Defaults to the number of --verbose flags specified on the command line, or to 1 if verbose=1 in a stonith device configuration (i.e., on stdin).",
		ShortDesc: "Level of debugging detail in output",
		Order:     52,
	},
	{
		Name:      "debug",
		Short:     "D",
		Long:      "debug-file",
		Value:     "[debugfile]",
		Text:      "Write debug information to given file",
		ShortDesc: "Write debug information to given file",
		Order:     52,
	},
	{
		Name:  "quiet",
		Short: "q",
		Long:  "quiet",
		Flag:  true,
		Text:  "Disable logging to stderr. Does not affect --verbose or --debug-file or logging to syslog.",
		Order: 50,
	},
	{
		Name:     "action",
		Short:    "o",
		Long:     "action",
		Value:    "[action]",
		Required: RequiredYes,
		Default:  "reboot",
		Text:     "Fencing action",
		Order:    1,
	},
	{
		Name:      "ipaddr",
		Short:     "a",
		Long:      "ip",
		Value:     "[ip]",
		Required:  RequiredYes,
		Text:      "IP address or hostname of fencing device",
		ShortDesc: "IP address or hostname of fencing device",
		Order:     1,
	},
	{
		Name:      "ipport",
		Short:     "u",
		Long:      "ipport",
		Value:     "[port]",
		Type:      TypeInteger,
		Text:      "TCP/UDP port to use for connection with device",
		ShortDesc: "TCP/UDP port to use for connection with device",
		Order:     1,
	},
	{
		Name:     "login",
		Short:    "l",
		Long:     "username",
		Value:    "[name]",
		Required: RequiredUnlessWaived,
		Waivers:  []string{"no_login"},
		Text:     "Login name",
		Order:    1,
	},
	{
		Name:      "passwd",
		Short:     "p",
		Long:      "password",
		Value:     "[password]",
		Text:      "Login password or passphrase",
		ShortDesc: "Login password or passphrase",
		Order:     1,
	},
	{
		Name:      "passwd_script",
		Short:     "S",
		Long:      "password-script",
		Value:     "[script]",
		Text:      "Script to run to retrieve password",
		ShortDesc: "Script to run to retrieve password",
		Order:     1,
	},
	{
		Name:      "identity_file",
		Short:     "k",
		Long:      "identity-file",
		Value:     "[filename]",
		Text:      "Identity file (private key) for SSH",
		ShortDesc: "Identity file (private key) for SSH",
		Order:     1,
	},
	{
		Name:  "secure",
		Short: "x",
		Long:  "ssh",
		Flag:  true,
		Text:  "Use SSH connection",
		Order: 1,
	},
	{
		Name:      "ssh_options",
		Long:      "ssh-options",
		Value:     "[options]",
		Text:      "SSH options to use",
		ShortDesc: "SSH options to use",
		Order:     1,
	},
	{
		Name:    "ssh_path",
		Long:    "ssh-path",
		Value:   "[path]",
		Default: "/usr/bin/ssh",
		Text:    "Path to ssh binary",
		Order:   300,
	},
	{
		Name:  "inet4_only",
		Short: "4",
		Long:  "inet4-only",
		Flag:  true,
		Text:  "Forces agent to use IPv4 addresses only",
		Order: 1,
	},
	{
		Name:  "inet6_only",
		Short: "6",
		Long:  "inet6-only",
		Flag:  true,
		Text:  "Forces agent to use IPv6 addresses only",
		Order: 1,
	},
	{
		Name:    "telnet_path",
		Long:    "telnet-path",
		Value:   "[path]",
		Default: "/usr/bin/telnet",
		Text:    "Path to telnet binary",
		Order:   300,
	},
	{
		Name:  "ssl",
		Short: "z",
		Long:  "ssl",
		Flag:  true,
		Text:  "Use SSL connection with verifying certificate",
		Order: 1,
	},
	{
		Name:  "ssl_secure",
		Long:  "ssl-secure",
		Flag:  true,
		Text:  "Use SSL connection with verifying certificate",
		Order: 1,
	},
	{
		Name:  "ssl_insecure",
		Long:  "ssl-insecure",
		Flag:  true,
		Text:  "Use SSL connection without verifying certificate",
		Order: 1,
	},
	{
		Name:  "notls",
		Short: "t",
		Long:  "notls",
		Flag:  true,
		Text:  "Disable TLS negotiation and force SSL3.0. This should only be used for devices that do not support TLS1.0 and up.",
		Order: 1,
	},
	{
		Name:      "cmd_prompt",
		Short:     "c",
		Long:      "command-prompt",
		Value:     "[prompt]",
		Text:      "Force Python regex for command prompt",
		ShortDesc: "Force Python regex for command prompt",
		Order:     1,
	},
	{
		Name:      "port",
		Short:     "n",
		Long:      "plug",
		Value:     "[id]",
		Required:  RequiredUnlessWaived,
		Waivers:   []string{"no_port", "port_as_ip"},
		Text:      "Physical plug number on device, UUID or identification of machine",
		ShortDesc: "Physical plug number on device, UUID or identification of machine",
		Order:     1,
	},
	{
		Name:  "port_as_ip",
		Long:  "port-as-ip",
		Flag:  true,
		Text:  "Make \"port/plug\" to be an alias to IP address",
		Order: 200,
	},
	{
		Name:      "nodename",
		Long:      "nodename",
		Value:     "[nodename]",
		Text:      "Name of the node to be fenced. The node name is used to generate the key value used for the current operation.",
		ShortDesc: "Name of the node to be fenced",
		Order:     1,
	},
	{
		Name:  "managed",
		Short: "s",
		Long:  "managed",
		Value: "[id]",
		Text:  "Name of the managed system",
		Order: 1,
	},
	{
		Name:  "target",
		Long:  "target",
		Value: "[target]",
		Text:  "Target of the fencing operation, used instead of the device address",
		Order: 1,
	},
	{
		Name:  "exec",
		Short: "e",
		Long:  "exec",
		Value: "[command]",
		Text:  "Command to execute",
		Order: 1,
	},
	{
		Name:    "separator",
		Short:   "C",
		Long:    "separator",
		Value:   "[char]",
		Default: ",",
		Text:    "Separator for CSV created by 'list' operation",
		Order:   100,
	},
	{
		Name:    "plug_separator",
		Long:    "plug-separator",
		Value:   "[char]",
		Default: ",",
		Text:    "Separator for plug parameter when specifying more than 1 plug",
		Order:   100,
	},
	{
		Name:      "delay",
		Long:      "delay",
		Value:     "[seconds]",
		Type:      TypeSecond,
		Default:   "0",
		Text:      "Wait X seconds before fencing is started",
		ShortDesc: "Wait X seconds before fencing is started",
		Order:     200,
	},
	{
		Name:      "login_timeout",
		Long:      "login-timeout",
		Value:     "[seconds]",
		Type:      TypeSecond,
		Default:   "5",
		Text:      "Wait X seconds for cmd prompt after login",
		ShortDesc: "Wait X seconds for cmd prompt after login",
		Order:     200,
	},
	{
		Name:      "shell_timeout",
		Long:      "shell-timeout",
		Value:     "[seconds]",
		Type:      TypeSecond,
		Default:   "3",
		Text:      "Wait X seconds for cmd prompt after issuing command",
		ShortDesc: "Wait X seconds for cmd prompt after issuing command",
		Order:     200,
	},
	{
		Name:      "power_timeout",
		Long:      "power-timeout",
		Value:     "[seconds]",
		Type:      TypeSecond,
		Default:   "20",
		Text:      "Test X seconds for status change after ON/OFF",
		ShortDesc: "Test X seconds for status change after ON/OFF",
		Order:     200,
	},
	{
		Name:      "power_wait",
		Long:      "power-wait",
		Value:     "[seconds]",
		Type:      TypeSecond,
		Default:   "0",
		Text:      "Wait X seconds after issuing ON/OFF",
		ShortDesc: "Wait X seconds after issuing ON/OFF",
		Order:     200,
	},
	{
		Name:      "stonith_status_sleep",
		Long:      "stonith-status-sleep",
		Value:     "[seconds]",
		Type:      TypeSecond,
		Default:   "1",
		Text:      "Sleep X seconds between status calls during a STONITH action",
		ShortDesc: "Sleep X seconds between status calls during a STONITH action",
		Order:     200,
	},
	{
		Name:      "retry_on",
		Long:      "retry-on",
		Value:     "[attempts]",
		Type:      TypeInteger,
		Default:   "1",
		Text:      "Count of attempts to retry power on",
		ShortDesc: "Count of attempts to retry power on",
		Order:     201,
	},
	{
		Name:      "disable_timeout",
		Long:      "disable-timeout",
		Value:     "[true/false]",
		Type:      TypeBoolean,
		Text:      "Disable timeout (true/false) (default: true when run from Pacemaker 2.0+)",
		ShortDesc: "Disable timeout (true/false) (default: true when run from Pacemaker 2.0+)",
		Order:     200,
	},
	{
		Name:  "missing_as_off",
		Long:  "missing-as-off",
		Flag:  true,
		Text:  "Missing port returns OFF instead of failure",
		Order: 200,
	},
	{
		Name:       "method",
		Short:      "m",
		Long:       "method",
		Value:      "[method]",
		Default:    "onoff",
		Candidates: []string{"onoff", "cycle"},
		Text:       "Method to fence",
		Order:      1,
	},
	{
		Name:  "sudo",
		Long:  "use-sudo",
		Flag:  true,
		Text:  "Use sudo (without password) when calling 3rd party software",
		Order: 205,
	},
	{
		Name:    "sudo_path",
		Long:    "sudo-path",
		Value:   "[path]",
		Default: "/usr/bin/sudo",
		Text:    "Path to sudo binary",
		Order:   300,
	},
	{
		Name:  "env_file",
		Long:  "env-file",
		Value: "[path]",
		Text:  "Environment file exported before connecting to the fencing device",
		Order: 205,
	},
	{
		Name:       "snmp_version",
		Short:      "d",
		Long:       "snmp-version",
		Value:      "[version]",
		Candidates: []string{"1", "2c", "3"},
		Text:       "Specifies SNMP version to use",
		Order:      1,
	},
	{
		Name:  "community",
		Short: "c",
		Long:  "community",
		Value: "[community]",
		Text:  "Set the community string",
		Order: 1,
	},
	{
		Name:       "snmp_auth_prot",
		Short:      "b",
		Long:       "snmp-auth-prot",
		Value:      "[prot]",
		Candidates: []string{"MD5", "SHA"},
		Text:       "Set authentication protocol",
		Order:      1,
	},
	{
		Name:       "snmp_sec_level",
		Short:      "E",
		Long:       "snmp-sec-level",
		Value:      "[level]",
		Candidates: []string{"noAuthNoPriv", "authNoPriv", "authPriv"},
		Text:       "Set security level",
		Order:      1,
	},
	{
		Name:       "snmp_priv_prot",
		Short:      "B",
		Long:       "snmp-priv-prot",
		Value:      "[prot]",
		Candidates: []string{"DES", "AES"},
		Text:       "Set privacy protocol",
		Order:      1,
	},
	{
		Name:  "snmp_priv_passwd",
		Short: "P",
		Long:  "snmp-priv-passwd",
		Value: "[pass]",
		Text:  "Set privacy protocol password",
		Order: 1,
	},
	{
		Name:  "snmp_priv_passwd_script",
		Short: "R",
		Long:  "snmp-priv-passwd-script",
		Value: "[script]",
		Text:  "Script to run to retrieve privacy password",
		Order: 1,
	},
	{
		Name:    "snmpwalk_path",
		Long:    "snmpwalk-path",
		Value:   "[path]",
		Default: "/usr/bin/snmpwalk",
		Text:    "Path to snmpwalk binary",
		Order:   300,
	},
	{
		Name:    "snmpset_path",
		Long:    "snmpset-path",
		Value:   "[path]",
		Default: "/usr/bin/snmpset",
		Text:    "Path to snmpset binary",
		Order:   300,
	},
	{
		Name:    "snmpget_path",
		Long:    "snmpget-path",
		Value:   "[path]",
		Default: "/usr/bin/snmpget",
		Text:    "Path to snmpget binary",
		Order:   300,
	},
}
