package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/AnshRaj112/orally-backend/internal/models"
)

func (c *cli) activateCmd() *cobra.Command {
	var id identityFlags
	cmd := &cobra.Command{
		Use:   "activate",
		Short: "Run a session activation and print streak, tip and display name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			act := a.Engagement.Activate(cmd.Context(), id.identity())
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(act)
		},
	}
	id.register(cmd, true)
	return cmd
}

type identityFlags struct {
	user  string
	name  string
	email string
}

func (f *identityFlags) register(cmd *cobra.Command, profile bool) {
	cmd.Flags().StringVar(&f.user, "user", "", "User id")
	cmd.MarkFlagRequired("user")
	if profile {
		cmd.Flags().StringVar(&f.name, "name", "", "Display name")
		cmd.Flags().StringVar(&f.email, "email", "", "Email address")
	}
}

func (f *identityFlags) identity() models.Identity {
	id := models.Identity{UserID: f.user}
	if f.name != "" {
		id.DisplayName = models.Ptr(f.name)
	}
	if f.email != "" {
		id.Email = models.Ptr(f.email)
	}
	return id
}
