package commands

import (
	"github.com/spf13/cobra"
)

func GetSetValCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setval <key> <value>",
		Short: "Set a key/value pair on the current channel",
		Long: `Frames key and value as a SET message and sends it on the channel named
by LC_CHANNEL. Receivers record the update in their keyval_channel table.`,
		Args: cobra.ExactArgs(2),
		RunE: runSetVal,
	}
	return cmd
}

func runSetVal(cmd *cobra.Command, args []string) error {
	env, err := GetEnvironment()
	if err != nil {
		return err
	}

	conn, err := connect(env.Channel)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.ch.SetVal([]byte(args[0]), []byte(args[1]))
}
