package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog and donation totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return err
			}
			st, err := c.Stats(cmd.Context())
			if err != nil {
				return app.fail(err)
			}
			if app.JSON {
				return writeJSON(cmd.OutOrStdout(), st)
			}
			return table(cmd.OutOrStdout(), "LIVROS\tDISPONÍVEIS\tDOAÇÕES\tDE LIVROS\tDE JOGOS", func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\n", st.Books, st.CopiesAvailable, st.Pledges, st.BookPledges, st.GamePledges)
			})
		},
	}
}
