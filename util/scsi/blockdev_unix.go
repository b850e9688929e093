//go:build unix

package scsi

import (
	"golang.org/x/sys/unix"
)

func isBlockDevice(p string) bool {
	var st unix.Stat_t
	if err := unix.Stat(p, &st); err != nil {
		return false
	}
	return st.Mode&unix.S_IFMT == unix.S_IFBLK
}
