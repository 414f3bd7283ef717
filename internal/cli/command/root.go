// Package command provides CLI command definitions for gateserve-cli.
//
// It uses urfave/cli/v2 for command parsing.
package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/gateserve-go/internal/infra/buildinfo"
)

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:    "gateserve-cli",
		Usage:   "GateServe administration tool",
		Version: buildinfo.String(),
		Commands: []*cli.Command{
			HashPasswordCommand(),
			GenerateConfigCommand(),
		},
	}

	return app
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
