package commands

import (
	lc "github.com/librecast/librecast"
	"github.com/spf13/cobra"
)

func GetSendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Send a raw message on the current channel",
		Long: `Sends message as the payload of a plain (non-SET) librecast message on
the channel named by LC_CHANNEL.`,
		Args: cobra.ExactArgs(1),
		RunE: runSend,
	}
	return cmd
}

func runSend(cmd *cobra.Command, args []string) error {
	env, err := GetEnvironment()
	if err != nil {
		return err
	}

	conn, err := connect(env.Channel)
	if err != nil {
		return err
	}
	defer conn.Close()

	msg := lc.NewMessage(0, []byte(args[0]))
	return conn.ch.Send(msg)
}
