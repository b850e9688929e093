package main

import (
	"github.com/opensvc/fence-agents/core/agentcmd"
	"github.com/opensvc/fence-agents/drivers/fenceipmilan"
)

func main() {
	agentcmd.Execute(fenceipmilan.New())
}
