// Package command provides CLI command definitions for gateserve-cli.
package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/gateserve-go/internal/core/domain"
)

// HashPasswordCommand creates the hash-password command.
//
// The output is a salt_hex:hash_hex record suitable for the
// auth.prehashed_users config section.
func HashPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:      "hash-password",
		Usage:     "Hash a password for use in prehashed_users config entries",
		ArgsUsage: "<password>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: gateserve-cli hash-password <password>", 1)
			}
			password := c.Args().First()
			if password == "" {
				return cli.Exit("password must not be empty", 1)
			}

			salt, err := domain.GenerateSalt()
			if err != nil {
				return fmt.Errorf("generate salt: %w", err)
			}
			digest := domain.HashPassword(password, salt)

			fmt.Println(domain.EncodeRecord(salt, digest))
			return nil
		},
	}
}
