// Package hostname validates and normalizes the node names.
package hostname

import (
	"os"
	"regexp"
	"strings"
)

const regexStringRFC952 = `^[a-zA-Z]([a-zA-Z0-9\-]+[\.]?)*[a-zA-Z0-9]$` // https://tools.ietf.org/html/rfc952
var regexRFC952 = regexp.MustCompile(regexStringRFC952)

// IsValid returns true if s is a RFC952 host name.
func IsValid(s string) bool {
	return regexRFC952.MatchString(s)
}

// Short returns the lower cased first label of s.
func Short(s string) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), ".")
	return strings.ToLower(s)
}

// Local returns the short name of the local node, as cluster managers
// name it.
func Local() (string, error) {
	s, err := os.Hostname()
	if err != nil {
		return "", err
	}
	return Short(s), nil
}
