package main

import (
	"github.com/opensvc/fence-agents/core/agentcmd"
	"github.com/opensvc/fence-agents/drivers/fencehyperv"
)

func main() {
	agentcmd.Execute(fencehyperv.New())
}
