package cli

import (
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/erazemk/doacoes/internal/catalog"
	"github.com/erazemk/doacoes/internal/model"

	"github.com/spf13/cobra"
)

func newPledgesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pledges",
		Short: "Donation record commands",
	}
	cmd.AddCommand(newPledgesListCmd(app))
	cmd.AddCommand(newPledgesUpdateCmd(app))
	cmd.AddCommand(newPledgesDeleteCmd(app))
	return cmd
}

func newPledgesListCmd(app *App) *cobra.Command {
	var query, kind string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List donation records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := model.ParseKind(kind)
			if err != nil {
				return err
			}
			c, err := app.client()
			if err != nil {
				return err
			}
			records, err := c.ListPledges(cmd.Context(), k)
			if err != nil {
				return app.fail(err)
			}
			records = catalog.FilterDonations(records, query)
			if app.JSON {
				return writeJSON(cmd.OutOrStdout(), records)
			}
			return table(cmd.OutOrStdout(), "ID\tTIPO\tITEM\tDOADOR\tEMAIL\tDATA", func(tw *tabwriter.Writer) {
				for _, d := range records {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
						d.ID, d.Kind.Wire(), d.Item, d.DonorName, d.DonorEmail, d.CreatedAt.Format("2006-01-02 15:04"))
				}
			})
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Filter by donor, email or item")
	cmd.Flags().StringVar(&kind, "tipo", "", "Only livro or jogo")
	return cmd
}

func newPledgesUpdateCmd(app *App) *cobra.Command {
	var in model.PledgeEdit
	var kind string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a donation record; omitted flags keep their current value",
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
			records, err := c.ListPledges(cmd.Context(), 0)
			if err != nil {
				return app.fail(err)
			}
			idx := slices.IndexFunc(records, func(d model.DonationRecord) bool { return d.ID == id })
			if idx < 0 {
				return fmt.Errorf("doação %d não encontrada", id)
			}
			cur := records[idx].Edit()
			if !cmd.Flags().Changed("name") {
				in.DonorName = cur.DonorName
			}
			if !cmd.Flags().Changed("email") {
				in.DonorEmail = cur.DonorEmail
			}
			if !cmd.Flags().Changed("item") {
				in.Item = cur.Item
			}
			in.Kind = cur.Kind
			if cmd.Flags().Changed("tipo") {
				if in.Kind, err = model.ParseKind(kind); err != nil {
					return err
				}
			}

			rec, err := c.UpdatePledge(cmd.Context(), id, in)
			if err != nil {
				return app.fail(err)
			}
			if app.JSON {
				return writeJSON(cmd.OutOrStdout(), rec)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Doação %d atualizada.\n", rec.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.DonorName, "name", "", "Donor name")
	cmd.Flags().StringVar(&in.DonorEmail, "email", "", "Donor e-mail")
	cmd.Flags().StringVar(&kind, "tipo", "", "livro or jogo")
	cmd.Flags().StringVar(&in.Item, "item", "", "Item description")
	return cmd
}

func newPledgesDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a donation record",
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
			if err := c.DeletePledge(cmd.Context(), id); err != nil {
				return app.fail(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Doação %d excluída.\n", id)
			return nil
		},
	}
}
