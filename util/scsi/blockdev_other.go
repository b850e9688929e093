//go:build !unix

package scsi

func isBlockDevice(_ string) bool {
	return false
}
