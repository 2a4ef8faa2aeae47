package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/erazemk/doacoes/internal/catalog"
	"github.com/erazemk/doacoes/internal/model"

	"github.com/spf13/cobra"
)

func newBooksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Book catalog commands",
	}
	cmd.AddCommand(newBooksListCmd(app))
	cmd.AddCommand(newBooksSearchCmd(app))
	cmd.AddCommand(newBooksAddCmd(app))
	cmd.AddCommand(newBooksUpdateCmd(app))
	cmd.AddCommand(newBooksSetCountCmd(app))
	cmd.AddCommand(newBooksDeleteCmd(app))
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id: %q", s)
	}
	return id, nil
}

func (a *App) writeBooks(w io.Writer, books []model.Book) error {
	if a.JSON {
		return writeJSON(w, books)
	}
	return table(w, "ID\tTÍTULO\tAUTOR\tQTD", func(tw *tabwriter.Writer) {
		for _, b := range books {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", b.ID, b.Title, b.Author, b.Available)
		}
	})
}

func newBooksListCmd(app *App) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books, available first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return err
			}
			books, err := c.ListBooks(cmd.Context())
			if err != nil {
				return app.fail(err)
			}
			return app.writeBooks(cmd.OutOrStdout(), catalog.FilterBooks(catalog.SortCatalog(books), query))
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Filter by title or author")
	return cmd
}

func newBooksSearchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Search books on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return err
			}
			books, err := c.SearchBooks(cmd.Context(), args[0])
			if err != nil {
				return app.fail(err)
			}
			return app.writeBooks(cmd.OutOrStdout(), books)
		},
	}
}

func newBooksAddCmd(app *App) *cobra.Command {
	var in model.BookInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return err
			}
			book, err := c.CreateBook(cmd.Context(), in)
			if err != nil {
				return app.fail(err)
			}
			return app.writeBooks(cmd.OutOrStdout(), []model.Book{book})
		},
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "Book title")
	cmd.Flags().StringVar(&in.Author, "author", "", "Book author")
	cmd.Flags().IntVar(&in.Available, "count", 1, "Copies available for donation")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")
	return cmd
}

func newBooksUpdateCmd(app *App) *cobra.Command {
	var in model.BookInput

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a book; omitted flags keep their current value",
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
			cur, err := c.GetBook(cmd.Context(), id)
			if err != nil {
				return app.fail(err)
			}
			if !cmd.Flags().Changed("title") {
				in.Title = cur.Title
			}
			if !cmd.Flags().Changed("author") {
				in.Author = cur.Author
			}
			if !cmd.Flags().Changed("count") {
				in.Available = cur.Available
			}
			book, err := c.UpdateBook(cmd.Context(), id, in)
			if err != nil {
				return app.fail(err)
			}
			return app.writeBooks(cmd.OutOrStdout(), []model.Book{book})
		},
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "Book title")
	cmd.Flags().StringVar(&in.Author, "author", "", "Book author")
	cmd.Flags().IntVar(&in.Available, "count", 0, "Copies available for donation")
	return cmd
}

func newBooksSetCountCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-count <id> <n>",
		Short: "Set the available count of a book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid count: %q", args[1])
			}
			c, err := app.client()
			if err != nil {
				return err
			}
			book, err := c.UpdateBookCount(cmd.Context(), id, n)
			if err != nil {
				return app.fail(err)
			}
			return app.writeBooks(cmd.OutOrStdout(), []model.Book{book})
		},
	}
}

func newBooksDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a book",
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
			if err := c.DeleteBook(cmd.Context(), id); err != nil {
				return app.fail(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Livro %d excluído.\n", id)
			return nil
		},
	}
}
