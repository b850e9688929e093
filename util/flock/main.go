// Package flock serializes the processes working on the same resource
// with a fcntl lock file.
package flock

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/opensvc/fcntllock"
	"github.com/opensvc/flock"
	"github.com/pkg/errors"
)

type (
	// T wraps flock and dumps a json data in the lock file
	// hinting about what holds the lock.
	// It get its lock from fcntllock
	T = flock.T
)

var (
	sessionID = uuid.NewString()
)

// New allocate a file lock struct that use fnctllock.
func New(path string) *T {
	return flock.New(path, sessionID, fcntllock.New)
}

// Do runs f while holding the lock file at path. The lock directory is
// created if missing.
func Do(path string, timeout time.Duration, intent string, f func() error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	lock := New(path)
	if err := lock.Lock(timeout, intent); err != nil {
		return errors.Wrapf(err, "lock %s", path)
	}
	defer func() { _ = lock.UnLock() }()
	return f()
}
