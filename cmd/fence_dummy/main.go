package main

import (
	"github.com/opensvc/fence-agents/core/agentcmd"
	"github.com/opensvc/fence-agents/drivers/fencedummy"
)

func main() {
	agentcmd.Execute(fencedummy.New())
}
