package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/opensvc/fence-agents/core/agentcmd"
	"github.com/opensvc/fence-agents/drivers/fencescsi"
)

func main() {
	// keep the stack of a panic for the post-mortem
	defer func() {
		if r := recover(); r != nil {
			filename := filepath.Join(os.TempDir(), "fence_scsi.stack")
			if f, err := os.Create(filename); err == nil {
				defer f.Close()
				fmt.Fprintf(f, "panic: %s\n\n", r)
				fmt.Fprint(f, string(debug.Stack()))
			}
			panic(r)
		}
	}()
	agentcmd.Execute(fencescsi.New())
}
