// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:     "app",
		Usage:    "Identity and credential service",
		Version:  version,
		Commands: buildCommands(version),
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}

func buildCommands(version string) []*cli.Command {
	cmds := getSystemCommands(version)
	cmds = append(cmds, getIdentityCommands()...)
	return cmds
}
