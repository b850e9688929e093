package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]T{
		"meta-data": Metadata,
		"Enable":    On,
		"DISABLE":   Off,
		"Reboot":    Reboot,
		"list":      List,
		" status ":  Status,
		"bogus":     T("bogus"),
	}
	for s, expected := range cases {
		t.Run(s, func(t *testing.T) {
			assert.Equal(t, expected, Normalize(s))
		})
	}
}

func TestNeedsPlug(t *testing.T) {
	assert.False(t, List.NeedsPlug())
	assert.False(t, ListStatus.NeedsPlug())
	assert.False(t, Monitor.NeedsPlug())
	assert.True(t, Status.NeedsPlug())
	assert.True(t, Reboot.NeedsPlug())
}
