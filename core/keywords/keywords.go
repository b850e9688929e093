// Package keywords is the registry of the options a fence agent can
// accept: their command line spellings, requirement, default, type and
// documentation.
//
// The Base store is never modified. Agents derive their own store with
// Merge, and the per-invocation option set with Expand.
package keywords

import (
	"fmt"
	"sort"
	"strings"
)

type (
	// Requirement is the required-ness of an option.
	Requirement int

	// Type is the value type of an option.
	Type int

	// Keyword describes an option.
	Keyword struct {
		// Name is the unique key of the option, used in the stdin protocol
		// and the metadata.
		Name string

		// Short is the single letter command line flag. Empty if none.
		Short string

		// Long is the command line flag without the leading "--".
		// Capability keywords, like no_login, have none.
		Long string

		// Flag means the option takes no value.
		Flag bool

		// Stackable means the flag occurrences are counted, like -vvv.
		Stackable bool

		// Value is the value placeholder displayed in the usage text.
		Value string

		// Required means the option must be set. A RequiredUnlessWaived
		// option is not required if any of Waivers is declared by the agent.
		Required Requirement

		// Waivers is the list of capability keywords waiving a
		// RequiredUnlessWaived requirement.
		Waivers []string

		// Default is the value applied when the option is not set.
		// Empty means no default.
		Default string

		// Type drives the value validation and the metadata content type.
		Type Type

		// Candidates is the list of accepted values, compared case
		// insensitively. Empty means any value is accepted.
		Candidates []string

		// Text is the usage text.
		Text string

		// ShortDesc is the metadata short description. Text is used if empty.
		ShortDesc string

		// Order sorts the options in the documentation.
		Order int
	}

	// Store is a list of keywords.
	Store []Keyword

	// Set is a set of keyword names.
	Set map[string]struct{}
)

const (
	RequiredNo Requirement = iota
	RequiredYes
	RequiredUnlessWaived
)

const (
	TypeString Type = iota
	TypeInteger
	TypeSecond
	TypeBoolean
)

func (t Requirement) String() string {
	switch t {
	case RequiredNo:
		return "no"
	case RequiredYes:
		return "yes"
	case RequiredUnlessWaived:
		return "unless waived"
	default:
		return "unknown"
	}
}

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInteger:
		return "integer"
	case TypeSecond:
		return "second"
	case TypeBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// IsZero returns true for the keyword returned by a failed Lookup.
func (t Keyword) IsZero() bool {
	return t.Name == ""
}

// IsCapability returns true if the keyword is not settable by the caller
// and only declares a property of the agent.
func (t Keyword) IsCapability() bool {
	return t.Long == ""
}

// Flagname returns the long option with its "--" prefix, the key used in
// the option maps.
func (t Keyword) Flagname() string {
	if t.Long == "" {
		return ""
	}
	return "--" + t.Long
}

// IsBoolean returns true for options whose value is a boolean.
func (t Keyword) IsBoolean() bool {
	return t.Flag || t.Type == TypeBoolean
}

// IsRequired returns the effective requirement of the option for an
// agent declaring the options in set.
func (t Keyword) IsRequired(set Set) bool {
	switch t.Required {
	case RequiredYes:
		return true
	case RequiredUnlessWaived:
		for _, waiver := range t.Waivers {
			if set.Has(waiver) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// HasCandidate returns true if s is an accepted value, or if the option
// accepts any value.
func (t Keyword) HasCandidate(s string) bool {
	if len(t.Candidates) == 0 {
		return true
	}
	for _, c := range t.Candidates {
		if strings.EqualFold(c, s) {
			return true
		}
	}
	return false
}

// Spelling returns the command line spelling used in the usage text,
// like "-a, --ip=[ip]".
func (t Keyword) Spelling() string {
	var s string
	if t.Short != "" {
		s = "-" + t.Short + ", "
	}
	s += "--" + t.Long
	if !t.Flag && t.Value != "" {
		s += "=" + t.Value
	}
	return s
}

// Usage returns the keyword line of the usage text.
func (t Keyword) Usage() string {
	s := fmt.Sprintf("   %-30s %s", t.Spelling(), t.Text)
	if t.Default != "" && !t.Flag {
		s += fmt.Sprintf(" (Default Value: %s)", t.Default)
	}
	return s
}

// Desc returns the metadata short description.
func (t Keyword) Desc() string {
	if t.ShortDesc != "" {
		return t.ShortDesc
	}
	return t.Text
}

// Lookup returns the keyword named name.
func (t Store) Lookup(name string) (Keyword, bool) {
	for _, kw := range t {
		if kw.Name == name {
			return kw, true
		}
	}
	return Keyword{}, false
}

// LookupFlag returns the keyword whose long option is s. The "--" prefix
// is optional.
func (t Store) LookupFlag(s string) (Keyword, bool) {
	s = strings.TrimPrefix(s, "--")
	if s == "" {
		return Keyword{}, false
	}
	for _, kw := range t {
		if kw.Long == s {
			return kw, true
		}
	}
	return Keyword{}, false
}

// Derive returns a copy of the keyword named name, modified by f. It
// panics if the keyword does not exist, as it is used in agent
// definitions.
func (t Store) Derive(name string, f func(*Keyword)) Keyword {
	kw, ok := t.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("keyword %s is not defined", name))
	}
	kw.Candidates = append([]string{}, kw.Candidates...)
	kw.Waivers = append([]string{}, kw.Waivers...)
	if f != nil {
		f(&kw)
	}
	return kw
}

// Merge returns a new store where the keywords replace the ones with the
// same name, and the others are appended. t is not modified.
func (t Store) Merge(kws ...Keyword) Store {
	l := make(Store, len(t), len(t)+len(kws))
	copy(l, t)
	for _, kw := range kws {
		replaced := false
		for i := range l {
			if l[i].Name == kw.Name {
				l[i] = kw
				replaced = true
				break
			}
		}
		if !replaced {
			l = append(l, kw)
		}
	}
	return l
}

// Select returns the keywords named in set, sorted by documentation
// order then name. The names not defined in the store are ignored.
func (t Store) Select(set Set) []Keyword {
	l := make([]Keyword, 0, len(set))
	for _, kw := range t {
		if set.Has(kw.Name) {
			l = append(l, kw)
		}
	}
	sort.SliceStable(l, func(i, j int) bool {
		if l[i].Order != l[j].Order {
			return l[i].Order < l[j].Order
		}
		return l[i].Name < l[j].Name
	})
	return l
}

// NewSet returns a set of the names.
func NewSet(names ...string) Set {
	t := make(Set, len(names))
	for _, name := range names {
		t[name] = struct{}{}
	}
	return t
}

func (t Set) Has(name string) bool {
	_, ok := t[name]
	return ok
}

// Add inserts the names in the set.
func (t Set) Add(names ...string) {
	for _, name := range names {
		t[name] = struct{}{}
	}
}

// Names returns the sorted names of the set.
func (t Set) Names() []string {
	l := make([]string, 0, len(t))
	for name := range t {
		l = append(l, name)
	}
	sort.Strings(l)
	return l
}

// Clone returns a copy of the set.
func (t Set) Clone() Set {
	return NewSet(t.Names()...)
}
