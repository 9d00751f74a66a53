package main

import (
	"os"

	"github.com/librecast/librecast/cmd/librecastctl/commands"
)

func main() {
	if err := commands.GetRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
