package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/AnshRaj112/orally-backend/internal/models"
	"github.com/AnshRaj112/orally-backend/internal/services"
	"github.com/AnshRaj112/orally-backend/internal/store"
)

func (c *cli) notesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Manage a user's notes",
	}
	cmd.AddCommand(
		c.notesListCmd(),
		c.notesAddCmd(),
		c.notesMoveCmd("trash", "Move a note to recently deleted", store.Notes),
		c.notesMoveCmd("restore", "Move a recently deleted note back", store.RecentlyDeleted),
		c.notesWatchCmd(),
	)
	return cmd
}

func (c *cli) notesListCmd() *cobra.Command {
	var (
		id     identityFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active and recently deleted notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			active, err := a.Store.ListNotes(cmd.Context(), id.user, store.Notes)
			if err != nil {
				return fmt.Errorf("list notes: %w", err)
			}
			trashed, err := a.Store.ListNotes(cmd.Context(), id.user, store.RecentlyDeleted)
			if err != nil {
				return fmt.Errorf("list recently deleted: %w", err)
			}
			trashed = services.Reconcile(active, trashed)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[store.Collection][]models.Note{
					store.Notes:           active,
					store.RecentlyDeleted: trashed,
				})
			}
			printNotes(out, store.Notes, active)
			printNotes(out, store.RecentlyDeleted, trashed)
			return nil
		},
	}
	id.register(cmd, false)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

func (c *cli) notesAddCmd() *cobra.Command {
	var (
		id   identityFlags
		data models.NoteData
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if data.IsEmpty() {
				return errors.New("title or content is required")
			}
			a, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			repo := services.NewNotesRepository(a.Store, id.user, a.Logger)
			noteID, err := repo.Save(cmd.Context(), data, "")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), noteID)
			return nil
		},
	}
	id.register(cmd, false)
	cmd.Flags().StringVar(&data.Title, "title", "", "Note title")
	cmd.Flags().StringVar(&data.Content, "content", "", "Note content")
	return cmd
}

func (c *cli) notesMoveCmd(use, short string, from store.Collection) *cobra.Command {
	var id identityFlags
	cmd := &cobra.Command{
		Use:   use + " [id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			note, err := a.Store.GetNote(cmd.Context(), id.user, from, args[0])
			if err != nil {
				return fmt.Errorf("load %s/%s: %w", from, args[0], err)
			}
			repo := services.NewNotesRepository(a.Store, id.user, a.Logger)
			if from == store.Notes {
				err = repo.SoftDelete(cmd.Context(), note.ID, note.NoteData)
			} else {
				err = repo.Restore(cmd.Context(), note.ID, note.NoteData)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", use, note.ID)
			return nil
		},
	}
	id.register(cmd, false)
	return cmd
}

func (c *cli) notesWatchCmd() *cobra.Command {
	var id identityFlags
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print every snapshot of both collections until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			feed, err := services.NewNotesRepository(a.Store, id.user, a.Logger).Feed(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for snap := range feed {
				printNotes(out, snap.Collection, snap.Notes)
			}
			return nil
		},
	}
	id.register(cmd, false)
	return cmd
}

func printNotes(w io.Writer, c store.Collection, notes []models.Note) {
	fmt.Fprintf(w, "%s (%d)\n", c, len(notes))
	for _, n := range notes {
		fmt.Fprintf(w, "  %s - %s\n", n.ID, n.Title)
	}
}
