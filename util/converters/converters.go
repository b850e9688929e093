// Package converters converts option values from their string form to
// the type declared by the option keyword.
package converters

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type (
	// Converter converts a string to a typed value. An empty string
	// converts to nil.
	Converter interface {
		Convert(string) (interface{}, error)
	}

	namer interface {
		String() string
	}

	TInteger struct{}
	TSecond  struct{}
	TBool    struct{}
)

var (
	db = make(map[string]Converter)

	// trueStrings and falseStrings are the accepted spellings of a
	// boolean option value.
	trueStrings  = []string{"1", "yes", "on", "true"}
	falseStrings = []string{"0", "no", "off", "false"}
)

func init() {
	Register(TInteger{})
	Register(TSecond{})
	Register(TBool{})
}

// Register adds a converter to the lookup table, indexed by its String().
func Register(c Converter) {
	if n, ok := c.(namer); ok {
		db[n.String()] = c
	}
}

// Lookup returns the converter registered with name, or nil.
func Lookup(name string) Converter {
	return db[name]
}

func (t TInteger) String() string {
	return "integer"
}

func (t TInteger) Convert(s string) (interface{}, error) {
	if s == "" {
		return nil, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%s is not an integer", s)
	}
	return &i, nil
}

func (t TSecond) String() string {
	return "second"
}

// Convert accepts integer or decimal seconds, like "3" or "0.5".
func (t TSecond) Convert(s string) (interface{}, error) {
	if s == "" {
		return nil, nil
	}
	d, err := ParseSeconds(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ParseSeconds converts a decimal number of seconds to a duration.
func ParseSeconds(s string) (time.Duration, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || f < 0 || f*float64(time.Second) >= math.MaxInt64 {
		return 0, fmt.Errorf("%s is not a valid time in seconds", s)
	}
	return time.Duration(f * float64(time.Second)), nil
}

func (t TBool) String() string {
	return "boolean"
}

func (t TBool) Convert(s string) (interface{}, error) {
	if s == "" {
		return nil, nil
	}
	b, err := ParseBool(s)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ParseBool accepts the 1/yes/on/true and 0/no/off/false spellings,
// case insensitive.
func ParseBool(s string) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, e := range trueStrings {
		if v == e {
			return true, nil
		}
	}
	for _, e := range falseStrings {
		if v == e {
			return false, nil
		}
	}
	return false, fmt.Errorf("%s is not a boolean", s)
}
