package commands

import "github.com/spf13/cobra"

// GetRootCommand assembles the librecastctl command tree.
func GetRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "librecastctl",
		Short: "librecastctl is a command line tool for librecast group communication.",
		Long: `librecastctl sends, listens on and probes librecast channels over IPv6
multicast.

One environment variable is required:
- LC_CHANNEL:  the channel URI to operate on

LC_BASEADDR and LC_IF are read but not applied: channel addresses are
always derived from the ff3e:: base address.

For more on librecast channels, see DESIGN.md in this repository.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(
		GetSendCommand(),
		GetListenCommand(),
		GetSetValCommand(),
		GetProbeCommand(),
		GetVersionCommand(),
	)

	return cmd
}
