// Package agentcmd is the command line entrypoint shared by the fence
// agent binaries.
package agentcmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opensvc/fence-agents/core/fencer"
	"github.com/opensvc/fence-agents/util/retcodes"
)

// Version is the agents version, set at build time with
// -ldflags "-X github.com/opensvc/fence-agents/core/agentcmd.Version=...".
var Version = "dev"

// NewCmd returns the root command running agent. The arguments are not
// parsed by cobra but forwarded to the agent, which reads its options
// from stdin when none is given. The agent exit code is stored in code.
func NewCmd(agent fencer.Agent, code *retcodes.T) *cobra.Command {
	if agent.Version == "" {
		agent.Version = Version
	}
	return &cobra.Command{
		Use:                agent.Name + " [options]",
		Short:              agent.ShortDesc,
		Long:               agent.LongDesc,
		DisableFlagParsing: true,
		SilenceErrors:      true,
		SilenceUsage:       true,
		Args:               cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			*code = agent.Run(cmd.Context(), args, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			return nil
		},
	}
}

// Execute runs agent with the process arguments and exits with the
// agent exit code. This is called by main.main().
func Execute(agent fencer.Agent) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := retcodes.GenericError
	cmd := NewCmd(agent, &code)
	cmd.SetArgs(os.Args[1:])
	if err := cmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
	}
	stop()
	os.Exit(code.Int())
}
