package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AnshRaj112/orally-backend/internal/app"
)

var errNoSessions = errors.New("sessions need REDIS_URI")

func (c *cli) sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Issue and revoke session tokens",
	}
	cmd.AddCommand(c.sessionIssueCmd(), c.sessionRevokeCmd())
	return cmd
}

func (c *cli) sessions(cmd *cobra.Command) (*app.App, error) {
	a, err := c.App(cmd.Context())
	if err != nil {
		return nil, err
	}
	if a.Sessions == nil {
		return nil, errNoSessions
	}
	return a, nil
}

func (c *cli) sessionIssueCmd() *cobra.Command {
	var id identityFlags
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Create a session for a user and print its bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.sessions(cmd)
			if err != nil {
				return err
			}
			token, err := a.Sessions.CreateSession(cmd.Context(), id.identity())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	id.register(cmd, true)
	return cmd
}

func (c *cli) sessionRevokeCmd() *cobra.Command {
	var id identityFlags
	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Invalidate every session of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.sessions(cmd)
			if err != nil {
				return err
			}
			if err := a.Sessions.InvalidateUserSessions(cmd.Context(), id.user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked sessions of %s\n", id.user)
			return nil
		},
	}
	id.register(cmd, false)
	return cmd
}
