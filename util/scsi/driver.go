// Package scsi drives the SCSI-3 persistent reservations of block
// devices through the sg_persist or mpathpersist tools.
package scsi

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yookoala/realpath"

	"github.com/opensvc/fence-agents/util/flock"
)

type (
	// PersistentReservationDriver is the interface of the reservation
	// tools. The keys are formatted by FormatKey.
	PersistentReservationDriver interface {
		ReadRegistrations(ctx context.Context, dev string) ([]string, error)
		ReadReservation(ctx context.Context, dev string) (string, error)
		Register(ctx context.Context, dev, key string) error
		Unregister(ctx context.Context, dev, key string) error
		Reserve(ctx context.Context, dev, key string) error
		PreemptAbort(ctx context.Context, dev, oldKey, newKey string) error
	}
)

var (
	DefaultPersistentReservationType = "5" // Write-Exclusive Registrants-Only
	ErrNotSupported                  = errors.New("SCSI PR is not supported on this node: no usable mpathpersist or sg_persist")

	// MultipathConf is the multipath daemon configuration file.
	MultipathConf = "/etc/multipath.conf"

	// LockDir hosts the lock files of DoWithLock.
	LockDir = "/var/lock"

	keyLineRegexp                 = regexp.MustCompile(`^\s+(0x[0-9a-fA-F]+)\s*$`)
	reservationLineRegexp         = regexp.MustCompile(`Key\s*=\s*(0x[0-9a-fA-F]+)`)
	mpathReservationKeyFileRegexp = regexp.MustCompile(`(?m)^\s*reservation_key\s+("file"|file)\s*$`)
)

// NewDriver returns the mpathpersist driver for the multipath devices if
// mpathpersist is installed and multipathd is configured to manage the
// reservation keys, else the sg_persist driver.
func NewDriver(dev, sgPersistPath, mpathPersistPath string, log *zerolog.Logger) (PersistentReservationDriver, error) {
	resolved, err := realpath.Realpath(dev)
	if err != nil {
		return nil, err
	}
	if !isBlockDevice(resolved) {
		return nil, fmt.Errorf("%s is not a block device", dev)
	}
	if mpathPersistPath == "" {
		mpathPersistPath = "mpathpersist"
	}
	if sgPersistPath == "" {
		sgPersistPath = "sg_persist"
	}
	if strings.HasPrefix(dev, "/dev/mapper/") || strings.HasPrefix(resolved, "/dev/dm-") {
		if p, err := exec.LookPath(mpathPersistPath); err == nil && isMpathReservationKeyConfigured() {
			return MpathPersistDriver{Path: p, Log: log}, nil
		}
	}
	if p, err := exec.LookPath(sgPersistPath); err == nil {
		return SGPersistDriver{Path: p, Log: log}, nil
	}
	return nil, ErrNotSupported
}

// DoWithLock runs f while holding the scsi lock named name, so the
// reservation changes of concurrent agents do not interleave.
func DoWithLock(timeout time.Duration, name, intent string, f func() error) error {
	p := filepath.Join(LockDir, strings.Join([]string{"scsi", name}, "."))
	return flock.Do(p, timeout, intent, f)
}

func isMpathReservationKeyConfigured() bool {
	b, err := os.ReadFile(MultipathConf)
	if err != nil {
		return false
	}
	return mpathReservationKeyFileRegexp.Match(b)
}

// MakeKey returns the reservation key of a node, derived from the name
// based UUID of its lower-cased name.
func MakeKey(nodename string) string {
	id := uuid.NewSHA1(uuid.NameSpaceDNS, []byte(strings.ToLower(nodename)))
	return FormatKey(hex.EncodeToString(id[:8]))
}

// FormatKey returns s in the format of the tools outputs: lower case
// hex with the 0x prefix and without leading zeros.
func FormatKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimLeft(s, "0")
	if s == "" {
		s = "0"
	}
	return "0x" + s
}

func parseKeys(b []byte) []string {
	l := make([]string, 0)
	for _, line := range strings.Split(string(b), "\n") {
		if m := keyLineRegexp.FindStringSubmatch(line); m != nil {
			l = append(l, FormatKey(m[1]))
		}
	}
	return l
}

func parseReservation(b []byte) string {
	if m := reservationLineRegexp.FindSubmatch(b); m != nil {
		return FormatKey(string(m[1]))
	}
	return ""
}
