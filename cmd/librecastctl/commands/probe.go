package commands

import (
	"fmt"

	"github.com/librecast/librecast/internal/daemon"
	"github.com/spf13/cobra"
)

func GetProbeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Report whether the librecast daemon lockfile indicates a running daemon",
		RunE:  runProbe,
	}
	return cmd
}

func runProbe(cmd *cobra.Command, args []string) error {
	if daemon.Running(daemon.DefaultLockfile) {
		fmt.Println("running")
		return nil
	}
	fmt.Println("not running")
	return nil
}
