package commands

import (
	"fmt"
	"os"
)

// Environment is the set of environment variables librecastctl reads in
// place of command-line flags, mirroring the teacher CLI's
// SURP_IF/SURP_GROUP convention.
type Environment struct {
	Interface string
	Channel   string
	BaseAddr  string
}

// GetEnvironment reads LC_IF, LC_CHANNEL and LC_BASEADDR. LC_CHANNEL is
// required; LC_IF and LC_BASEADDR are optional and left empty when unset,
// and no subcommand applies them.
func GetEnvironment() (*Environment, error) {
	env := &Environment{
		Interface: os.Getenv("LC_IF"),
		Channel:   os.Getenv("LC_CHANNEL"),
		BaseAddr:  os.Getenv("LC_BASEADDR"),
	}

	if env.Channel == "" {
		return nil, fmt.Errorf("LC_CHANNEL environment variable is required")
	}

	return env, nil
}
