// Package main provides the entry point for gateserve-cli.
package main

import (
	"os"

	"github.com/yndnr/gateserve-go/internal/cli/command"
)

func main() {
	if err := command.App().Run(os.Args); err != nil {
		command.PrintError("%v", err)
		os.Exit(1)
	}
}
