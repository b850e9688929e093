package main

import (
	"github.com/opensvc/fence-agents/core/agentcmd"
	"github.com/opensvc/fence-agents/drivers/fencevirsh"
)

func main() {
	agentcmd.Execute(fencevirsh.New())
}
