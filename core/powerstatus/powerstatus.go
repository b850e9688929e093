// Package powerstatus defines the power state reported by a fence device
// for a plug.
package powerstatus

import (
	"strings"
)

type (
	// T is a plug power state. Backends may report transient states
	// other than On, Off and Unknown: they are never considered converged.
	T string
)

const (
	Undef   T = ""
	On      T = "on"
	Off     T = "off"
	Unknown T = "unknown"
)

// Parse lowercases s. Unrecognized values are kept as-is so the
// dispatcher can report them.
func Parse(s string) T {
	return T(strings.ToLower(strings.TrimSpace(s)))
}

func (t T) String() string {
	return string(t)
}

// IsKnown returns true if t is On or Off.
func (t T) IsKnown() bool {
	return t == On || t == Off
}

// Display returns the upper case ON, OFF or UNKNOWN form used in the
// agent outputs. Any state other than On and Off displays as UNKNOWN.
func (t T) Display() string {
	switch t {
	case On:
		return "ON"
	case Off:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// Aggregate returns the power state of a plug group: Off only if every
// plug is Off, else the last non-Off state found. A group with a
// single On plug is On.
func Aggregate(l ...T) T {
	status := Off
	for _, s := range l {
		if s != Off {
			status = s
		}
	}
	return status
}
