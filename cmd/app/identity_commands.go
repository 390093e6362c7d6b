package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/identity/cmd/app/commands"
	"github.com/allisson/identity/internal/app"
	"github.com/allisson/identity/internal/config"
)

func getIdentityCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-identity",
			Usage: "Create an identity directly, bypassing the invitation flow",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Display name",
				},
				&cli.StringFlag{
					Name:     "email",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "Email address",
				},
				&cli.StringFlag{
					Name:     "password",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Initial password",
				},
				&cli.StringFlag{
					Name:    "role",
					Aliases: []string{"r"},
					Value:   "client_user",
					Usage:   "Role: super_admin, site_admin, operator, client_admin or client_user",
				},
				&cli.StringFlag{
					Name:    "organization-id",
					Aliases: []string{"o"},
					Usage:   "Organization ID (UUID), required for client-scoped roles",
				},
				&cli.StringFlag{
					Name:    "mfa-method",
					Aliases: []string{"m"},
					Value:   "otp",
					Usage:   "Second factor method: totp or otp",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				identityUseCase, err := container.IdentityUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateIdentity(
					ctx,
					identityUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					commands.CreateIdentityInput{
						Name:           cmd.String("name"),
						Email:          cmd.String("email"),
						Password:       cmd.String("password"),
						Role:           cmd.String("role"),
						OrganizationID: cmd.String("organization-id"),
						MFAMethod:      cmd.String("mfa-method"),
						Format:         cmd.String("format"),
					},
				)
			},
		},
		{
			Name:  "clean-expired-invitations",
			Usage: "Mark pending invitations past their deadline as expired",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				invitationUseCase, err := container.InvitationUseCase()
				if err != nil {
					return err
				}

				return commands.RunCleanExpiredInvitations(
					ctx,
					invitationUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
	}
}
