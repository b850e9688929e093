// Package rawopts acquires the agent options from exactly one channel:
// the command line arguments, or the key=value lines the orchestrator
// writes on stdin when no argument is given.
//
// The produced map is keyed by the long option, prefixed by "--",
// whatever spelling the caller used. Flags are valued "1", and flags
// explicitly unset on stdin are valued "0".
package rawopts

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/opensvc/fence-agents/core/fenceerr"
	"github.com/opensvc/fence-agents/core/keywords"
	"github.com/opensvc/fence-agents/util/converters"
)

type (
	// T is the map of parsed but not validated options.
	T map[string]string
)

var (
	// tolerated are the stdin keys ignored without warning when the agent
	// does not declare them.
	tolerated = map[string]bool{
		"nodename": true,
	}
)

// Has returns true if the option is present, even explicitly unset.
func (t T) Has(flag string) bool {
	_, ok := t[flag]
	return ok
}

// IsSet returns true if the option is present and not explicitly unset.
func (t T) IsSet(flag string) bool {
	v, ok := t[flag]
	return ok && v != "0"
}

// Acquire reads the options from args if any, else from r.
func Acquire(args []string, r io.Reader, store keywords.Store, set keywords.Set) (T, error) {
	var (
		t   T
		err error
	)
	if len(args) > 0 {
		t, err = FromArgs(args, store, set)
	} else {
		t, err = FromReader(r, store, set)
	}
	if err != nil {
		return nil, err
	}
	t.applyPortAsIP()
	return t, nil
}

// FromArgs parses the command line arguments, accepting only the options
// in set.
func FromArgs(args []string, store keywords.Store, set keywords.Set) (T, error) {
	flags := pflag.NewFlagSet("fence agent", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.Usage = func() {}
	shorts := make(map[string]bool)
	kws := make(map[string]keywords.Keyword)
	for _, kw := range store.Select(set) {
		if kw.IsCapability() {
			continue
		}
		short := kw.Short
		switch {
		case short == "":
		case shorts[short]:
			// first declared wins, like the duplicate getopt letters.
			short = ""
		default:
			shorts[short] = true
		}
		kws[kw.Long] = kw
		switch {
		case kw.Stackable:
			flags.CountP(kw.Long, short, kw.Text)
		case kw.Flag:
			flags.BoolP(kw.Long, short, false, kw.Text)
		default:
			flags.StringP(kw.Long, short, "", kw.Text)
		}
	}
	if err := flags.Parse(args); err != nil {
		return nil, fenceerr.Usagef("Parse error: %s", err)
	}
	if extra := flags.Args(); len(extra) > 0 {
		log.Warn().Msgf("Parse error: Ignoring unexpected arguments %s", strings.Join(extra, " "))
	}
	t := make(T)
	flags.Visit(func(f *pflag.Flag) {
		kw := kws[f.Name]
		value := f.Value.String()
		if kw.Flag && !kw.Stackable {
			if b, _ := strconv.ParseBool(value); b {
				value = "1"
			} else {
				value = "0"
			}
		}
		t[kw.Flagname()] = value
	})
	if set.Has("port_as_ip") && t.Has("--plug") && !t.IsSet("--port-as-ip") {
		return nil, fenceerr.Usagef("Parser error: option -n/--plug is not recognized")
	}
	return t, nil
}

// FromReader parses the key=value lines read from r until EOF. Keys are
// either the option names or the long options, with "-" and "_"
// interchangeable.
func FromReader(r io.Reader, store keywords.Store, set keywords.Set) (T, error) {
	t := make(T)
	byName := make(map[string]keywords.Keyword)
	for _, kw := range store.Select(set) {
		if kw.IsCapability() {
			continue
		}
		byName[kw.Name] = kw
		byName[strings.ReplaceAll(kw.Long, "-", "_")] = kw
	}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, _ := strings.Cut(line, "=")
		name = strings.TrimSpace(name)
		value = unquote(strings.TrimSpace(value))
		kw, ok := byName[strings.ReplaceAll(name, "-", "_")]
		switch {
		case !ok && tolerated[name]:
			continue
		case !ok:
			log.Warn().Msgf("Parse error: Ignoring unknown option '%s'", line)
			continue
		case !kw.Flag:
			t[kw.Flagname()] = value
			continue
		}
		if b, err := converters.ParseBool(value); err != nil {
			log.Warn().Msgf("Parse error: Ignoring option '%s' because it does not have value", name)
		} else if b {
			t[kw.Flagname()] = "1"
		} else {
			t[kw.Flagname()] = "0"
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fenceerr.FromTransport(err)
	}
	return t, nil
}

// applyPortAsIP makes --plug an alias of --ip.
func (t T) applyPortAsIP() {
	if t.IsSet("--port-as-ip") && t.Has("--plug") {
		t["--ip"] = t["--plug"]
	}
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
