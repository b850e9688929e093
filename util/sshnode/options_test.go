package sshnode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithOptions(t *testing.T) {
	base := Config{Host: "hv1", User: "root"}

	t.Run("openssh options", func(t *testing.T) {
		c, err := base.WithOptions(`-4 -p 2222 -o StrictHostKeyChecking=no -o "UserKnownHostsFile /tmp/kh" -o ConnectTimeout=7 -t -q`)
		require.NoError(t, err)
		assert.Equal(t, "tcp4", c.Network)
		assert.Equal(t, "2222", c.Port)
		assert.True(t, c.InsecureHostKey)
		assert.Equal(t, "/tmp/kh", c.KnownHostsFile)
		assert.Equal(t, 7*time.Second, c.Timeout)
		assert.Equal(t, "hv1", c.Host)
		assert.Equal(t, "root", base.User, "the base config is not modified")
	})

	t.Run("user and identity", func(t *testing.T) {
		c, err := base.WithOptions("-l admin -i ~/.ssh/fence -6")
		require.NoError(t, err)
		assert.Equal(t, "admin", c.User)
		assert.Equal(t, "~/.ssh/fence", c.IdentityFile)
		assert.Equal(t, "tcp6", c.Network)
	})

	t.Run("empty", func(t *testing.T) {
		c, err := base.WithOptions("")
		require.NoError(t, err)
		assert.Equal(t, base, c)
	})

	t.Run("missing value", func(t *testing.T) {
		_, err := base.WithOptions("-p")
		assert.Error(t, err)
	})

	t.Run("invalid timeout", func(t *testing.T) {
		_, err := base.WithOptions("-o ConnectTimeout=soon")
		assert.Error(t, err)
	})
}
