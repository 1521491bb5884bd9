package main

import (
	"os"

	"github.com/fleetdesk/contracts/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
