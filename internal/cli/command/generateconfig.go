// Package command provides CLI command definitions for gateserve-cli.
package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/gateserve-go/internal/server/config"
)

// GenerateConfigCommand creates the generate-config command.
func GenerateConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate-config",
		Usage: "Write an annotated default configuration file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path",
				Value:   "gateserve.yaml",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing file",
			},
		},
		Action: func(c *cli.Context) error {
			path := c.String("output")

			if !c.Bool("force") {
				if _, err := os.Stat(path); err == nil {
					return cli.Exit(fmt.Sprintf("%s already exists (use --force to overwrite)", path), 1)
				}
			}

			if err := os.WriteFile(path, []byte(renderDefaultConfig()), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}

			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
}

// renderDefaultConfig renders the default configuration as annotated
// YAML. Values track config.Default so the generated file and the
// built-in defaults cannot drift apart.
func renderDefaultConfig() string {
	d := config.Default()
	return fmt.Sprintf(`# GateServe configuration.
# Environment variables override file values; sections use a double
# underscore, e.g. GATESERVE_SERVER__PORT=9090.

server:
  host: %s
  port: %d
  read_timeout: %s
  write_timeout: %s

pool:
  # Fixed number of worker goroutines serving connections.
  worker_threads: %d
  # Hard in-flight ceiling; connections past it are closed immediately.
  max_concurrent_connections: %d

connection:
  max_idle_connections: %d
  idle_timeout: %s
  keep_alive_timeout: %s
  buffer_size: %d

static:
  enabled: %t
  directory: %s
  index_file: %s
  directory_listing: %t

auth:
  enabled: %t
  # users:
  #   alice: plaintext-password     # hashed at load time
  # prehashed_users:
  #   bob: salt_hex:hash_hex        # output of gateserve-cli hash-password
  protected_paths:
    - /admin
  throttle_rps: %g
  throttle_burst: %d
  sweep_interval: %s

log:
  level: %s
  format: %s
  log_requests: %t
`,
		d.Server.Host, d.Server.Port, d.Server.ReadTimeout, d.Server.WriteTimeout,
		d.Pool.WorkerThreads, d.Pool.MaxConcurrentConnections,
		d.Connection.MaxIdleConnections, d.Connection.IdleTimeout,
		d.Connection.KeepAliveTimeout, d.Connection.BufferSize,
		d.Static.Enabled, d.Static.Directory, d.Static.IndexFile, d.Static.DirectoryListing,
		d.Auth.Enabled, d.Auth.ThrottleRPS, d.Auth.ThrottleBurst, d.Auth.SweepInterval,
		d.Log.Level, d.Log.Format, d.Log.LogRequests,
	)
}
