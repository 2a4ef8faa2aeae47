package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/erazemk/doacoes/internal/apiclient"
	"github.com/erazemk/doacoes/internal/catalog"
	"github.com/erazemk/doacoes/internal/db"
	"github.com/erazemk/doacoes/internal/donation"
	"github.com/erazemk/doacoes/internal/model"
	"github.com/erazemk/doacoes/internal/store"

	"github.com/spf13/cobra"
)

type donateFlags struct {
	form   model.PledgeForm
	dbPath string
}

func newDonateCmd(app *App) *cobra.Command {
	var f donateFlags

	cmd := &cobra.Command{
		Use:   "donate",
		Short: "Record a pledge on behalf of a donor",
	}
	cmd.PersistentFlags().StringVar(&f.form.DonorName, "name", "", "Donor name")
	cmd.PersistentFlags().StringVar(&f.form.DonorEmail, "email", "", "Donor e-mail")
	cmd.PersistentFlags().BoolVar(&f.form.ConsentGiven, "consent", false, "Donor accepted the LGPD terms")
	cmd.PersistentFlags().StringVar(&f.dbPath, "db", envOr("DOACOES_DB", ""), "SQLite database for the inventory drift journal (optional)")

	cmd.AddCommand(newDonateBookCmd(app, &f))
	cmd.AddCommand(newDonateGameCmd(app, &f))
	return cmd
}

// pledge drives one donation session through the host, the same way the web
// modal does, and closes it afterwards.
func (a *App) pledge(cmd *cobra.Command, f *donateFlags, item model.DonatableItem, onSuccess donation.Callback) error {
	c, err := a.client()
	if err != nil {
		return err
	}

	var journal donation.DriftJournal
	if f.dbPath != "" {
		database, err := db.OpenAndMigrate(f.dbPath)
		if err != nil {
			return err
		}
		defer database.Close()
		journal = store.Journal{DB: database}
	}

	host := donation.NewHost(donation.NewController(c, journal))
	if err := host.Open(item, onSuccess); err != nil {
		return a.fail(err)
	}

	out, err := host.Submit(cmd.Context(), f.form)
	if err != nil {
		return err
	}
	if out.Succeeded {
		fmt.Fprintln(cmd.OutOrStdout(), out.Message)
	}
	if cerr := host.Close(cmd.Context()); cerr != nil {
		slog.Warn("closing donation session", "error", cerr)
	}
	switch {
	case out.Succeeded:
		return nil
	case errors.Is(out.Err, apiclient.ErrSessionExpired):
		return a.fail(out.Err)
	case errors.Is(out.Err, donation.ErrConsentRequired):
		return errors.New(out.Message + " (use --consent)")
	default:
		return errors.New(out.Message)
	}
}

func newDonateBookCmd(app *App, f *donateFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "book <id>",
		Short: "Pledge one copy of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := app.client()
			if err != nil {
				return err
			}
			cat := catalog.New(c)
			if err := cat.Load(cmd.Context()); err != nil {
				return app.fail(err)
			}
			book, err := cat.Select(id)
			switch {
			case errors.Is(err, catalog.ErrSoldOut):
				return fmt.Errorf("livro %d não está mais disponível", id)
			case err != nil:
				return fmt.Errorf("livro %d não encontrado", id)
			}

			return app.pledge(cmd, f, book, func(ctx context.Context) {
				cat.Refetch(ctx)
				for _, b := range cat.View("") {
					if b.ID == id {
						fmt.Fprintf(cmd.OutOrStdout(), "%s: %d disponível(is)\n", b.Title, b.Available)
					}
				}
			})
		},
	}
}

func newDonateGameCmd(app *App, f *donateFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "game [name]",
		Short: "Pledge a board game; without a name, list suggestions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = strings.TrimSpace(args[0])
			}
			if name == "" {
				for _, g := range catalog.GameSuggestions() {
					fmt.Fprintln(cmd.OutOrStdout(), g.Name)
				}
				return nil
			}
			return app.pledge(cmd, f, catalog.FindGame(name), nil)
		},
	}
}
