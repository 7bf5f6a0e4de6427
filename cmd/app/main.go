// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/tradeware/securecore/cmd/app/commands"
)

func main() {
	cmd := &cli.Command{
		Name:    "securecore",
		Usage:   "Secure caching and key lifecycle service",
		Version: "1.0.0",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the rotation scheduler and metrics server until interrupted",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunService(ctx)
				},
			},
			{
				Name:  "create-master-key",
				Usage: "Generate a new master key for envelope encryption",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "id",
						Aliases: []string{"i"},
						Value:   "",
						Usage:   "Master key ID (e.g., prod-master-key-2026)",
					},
					&cli.StringFlag{
						Name:  "kms-key-uri",
						Value: "",
						Usage: "KMS key URI used to wrap the generated key (e.g., hashivault://keyname); omit for raw base64 output",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCreateMasterKey(cmd.String("id"), cmd.String("kms-key-uri"))
				},
			},
			{
				Name:  "generate-key",
				Usage: "Generate a new managed key",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "type",
						Aliases:  []string{"t"},
						Required: true,
						Usage:    "Key type: user-encryption, database-encryption, api-authentication, wallet-signing",
					},
					&cli.StringFlag{
						Name:     "owner",
						Aliases:  []string{"o"},
						Required: true,
						Usage:    "Owner ID the key belongs to",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunGenerateKey(ctx, cmd.String("type"), cmd.String("owner"))
				},
			},
			{
				Name:  "rotate-key",
				Usage: "Rotate a managed key to a new version",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Aliases:  []string{"i"},
						Required: true,
						Usage:    "Key ID (UUID)",
					},
					&cli.StringFlag{
						Name:     "owner",
						Aliases:  []string{"o"},
						Required: true,
						Usage:    "Owner ID performing the rotation",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunRotateKey(ctx, cmd.String("id"), cmd.String("owner"))
				},
			},
			{
				Name:  "revoke-key",
				Usage: "Revoke a managed key (terminal)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Aliases:  []string{"i"},
						Required: true,
						Usage:    "Key ID (UUID)",
					},
					&cli.StringFlag{
						Name:     "owner",
						Aliases:  []string{"o"},
						Required: true,
						Usage:    "Owner ID performing the revocation",
					},
					&cli.StringFlag{
						Name:     "reason",
						Aliases:  []string{"r"},
						Required: true,
						Usage:    "Revocation reason recorded in the audit trail (e.g., compromised)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunRevokeKey(ctx, cmd.String("id"), cmd.String("owner"), cmd.String("reason"))
				},
			},
			{
				Name:  "sweep",
				Usage: "Force one rotation sweep over all due keys",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunSweep(ctx)
				},
			},
			{
				Name:  "warmup-cache",
				Usage: "Pre-populate the cache from a JSON seed file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "seed-file",
						Aliases:  []string{"s"},
						Required: true,
						Usage:    "JSON file with \"users\" and \"symbols\" objects mapping IDs to values",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunWarmupCache(ctx, cmd.String("seed-file"))
				},
			},
			{
				Name:  "audit-logs",
				Usage: "List audit log entries for an owner",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "owner",
						Aliases:  []string{"o"},
						Required: true,
						Usage:    "Owner ID whose entries to list (system entries are always included)",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"l"},
						Value:   50,
						Usage:   "Maximum number of entries to print (0 for all)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunAuditLogs(ctx, cmd.String("owner"), cmd.Int("limit"))
				},
			},
			{
				Name:  "verify-audit-logs",
				Usage: "Verify audit log entry signatures",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunVerifyAuditLogs(ctx)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
