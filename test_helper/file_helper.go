package test_helper

import (
	"os"
	"path/filepath"
	"testing"
)

// TempFile creates a file with content in a test temporary directory,
// and returns its path. The file is removed by the test cleanup.
func TempFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0600); err != nil {
		t.Fatalf("TempFile error: %v", err)
	}
	return p
}

// TempFileExec creates an executable bash script running body, and
// returns its path.
func TempFileExec(t *testing.T, name, body string) string {
	t.Helper()
	p := TempFile(t, name, "#!/bin/bash\n"+body+"\n")
	if err := os.Chmod(p, 0700); err != nil {
		t.Fatalf("TempFileExec Chmod error: %v", err)
	}
	return p
}
