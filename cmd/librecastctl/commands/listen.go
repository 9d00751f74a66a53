package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	lc "github.com/librecast/librecast"
	"github.com/spf13/cobra"
)

func GetListenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Listen for messages on the current channel until interrupted",
		Long: `Joins the channel named by LC_CHANNEL and prints every message received
until interrupted with Ctrl-C.`,
		RunE: runListen,
	}
	return cmd
}

func runListen(cmd *cobra.Command, args []string) error {
	env, err := GetEnvironment()
	if err != nil {
		return err
	}

	conn, err := connect(env.Channel)
	if err != nil {
		return err
	}
	defer conn.Close()

	onMsg := func(msg *lc.Message) {
		fmt.Printf("seq=%d rnd=%d src=%s %q\n", msg.Seq, msg.Rnd, msg.Src, msg.Data())
	}
	onErr := func(err error) {
		fmt.Fprintf(os.Stderr, "listen: %v\n", err)
	}

	if err := conn.sock.Listen(onMsg, onErr); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	return conn.sock.ListenCancel()
}
