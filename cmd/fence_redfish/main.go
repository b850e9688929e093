package main

import (
	"github.com/opensvc/fence-agents/core/agentcmd"
	"github.com/opensvc/fence-agents/drivers/fenceredfish"
)

func main() {
	agentcmd.Execute(fenceredfish.New())
}
