package converters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecondConvert(t *testing.T) {
	var (
		validStrings = map[string]time.Duration{
			"0":   0,
			"1":   time.Second,
			"20":  20 * time.Second,
			"0.5": 500 * time.Millisecond,
			" 3 ": 3 * time.Second,
		}
		invalidStrings = []string{
			"1s",
			"-1",
			"abc",
			"NaN",
			"Inf",
			"-Inf",
			"1e300",
		}
	)

	t.Run("valid seconds return expected values", func(t *testing.T) {
		for s, expected := range validStrings {
			t.Run(s, func(t *testing.T) {
				result, err := Lookup("second").Convert(s)
				require.NoError(t, err)
				assert.Equal(t, expected, *result.(*time.Duration))
			})
		}
	})

	t.Run("empty string returns nil", func(t *testing.T) {
		result, err := Lookup("second").Convert("")
		assert.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("invalid seconds return (nil, error)", func(t *testing.T) {
		for _, s := range invalidStrings {
			t.Run(s, func(t *testing.T) {
				result, err := Lookup("second").Convert(s)
				assert.Error(t, err)
				assert.Nil(t, result)
			})
		}
	})
}

func TestIntegerConvert(t *testing.T) {
	result, err := Lookup("integer").Convert("623")
	require.NoError(t, err)
	assert.Equal(t, 623, *result.(*int))

	_, err = Lookup("integer").Convert("6.2")
	assert.Error(t, err)
}

func TestBoolConvert(t *testing.T) {
	for _, s := range []string{"1", "yes", "On", "TRUE"} {
		v, err := ParseBool(s)
		require.NoError(t, err, s)
		assert.True(t, v, s)
	}
	for _, s := range []string{"0", "no", "off", "False"} {
		v, err := ParseBool(s)
		require.NoError(t, err, s)
		assert.False(t, v, s)
	}
	_, err := Lookup("boolean").Convert("maybe")
	assert.Error(t, err)
}

func TestLookupUnknown(t *testing.T) {
	assert.Nil(t, Lookup("size"))
}
