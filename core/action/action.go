// Package action defines the closed set of actions a fence agent accepts.
package action

import (
	"strings"
)

type (
	// T is a fence agent action.
	T string
)

const (
	Invalid     T = ""
	On          T = "on"
	Off         T = "off"
	Reboot      T = "reboot"
	Status      T = "status"
	List        T = "list"
	ListStatus  T = "list-status"
	Monitor     T = "monitor"
	Metadata    T = "metadata"
	Manpage     T = "manpage"
	ValidateAll T = "validate-all"

	// Enable and Disable are the fabric fencing spellings of On and Off.
	Enable  T = "enable"
	Disable T = "disable"
)

var (
	aliases = map[string]T{
		"meta-data": Metadata,
		"enable":    On,
		"disable":   Off,
	}

	all = []T{On, Off, Reboot, Status, List, ListStatus, Monitor, Metadata, Manpage, ValidateAll}
)

// Normalize lowercases s and resolves the action aliases.
func Normalize(s string) T {
	s = strings.ToLower(strings.TrimSpace(s))
	if a, ok := aliases[s]; ok {
		return a
	}
	return T(s)
}

// All returns the canonical actions, in documentation order.
func All() []T {
	return append([]T{}, all...)
}

func (t T) String() string {
	return string(t)
}

// IsPowerChange returns true for the actions changing the plug power state.
func (t T) IsPowerChange() bool {
	switch t {
	case On, Off, Reboot:
		return true
	default:
		return false
	}
}

// IsListing returns true for the actions enumerating the device plugs.
func (t T) IsListing() bool {
	return t == List || t == ListStatus
}

// NeedsPlug returns false for the actions working on the whole device.
func (t T) NeedsPlug() bool {
	switch t {
	case List, ListStatus, Monitor:
		return false
	default:
		return true
	}
}

// IsDocumentation returns true for the actions that only render the
// agent documentation.
func (t T) IsDocumentation() bool {
	return t == Metadata || t == Manpage
}
