// Package cli implements doacoesctl, the admin command line for the donations
// API.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/erazemk/doacoes/internal/apiclient"
	"github.com/erazemk/doacoes/internal/auth"

	"github.com/spf13/cobra"
)

// App carries the persistent flags shared by every command.
type App struct {
	APIURL    string
	TokenFile string
	Timeout   time.Duration
	JSON      bool

	session *auth.Session
}

// NewRootCmd builds the doacoesctl command tree.
func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:           "doacoesctl",
		Short:         "Admin CLI for the donations API",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Log in once, the token is kept in the token file
  doacoesctl login -u admin

  # Catalog maintenance
  doacoesctl books list -q tolkien
  doacoesctl books set-count 3 5

  # Record a pledge from the terminal
  doacoesctl donate book 3 --name "Ana" --email ana@example.com --consent

  # Local stand-in for the remote API
  doacoesctl mock-api -a 127.0.0.1:5000 --seed
`),
	}

	timeout := apiclient.DefaultTimeout
	if v := os.Getenv("DOACOES_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			timeout = d
		}
	}

	cmd.PersistentFlags().StringVar(&app.APIURL, "api-url", envOr("DOACOES_API_URL", apiclient.DefaultBaseURL), "Base URL of the donations API")
	cmd.PersistentFlags().StringVar(&app.TokenFile, "token-file", envOr("DOACOES_TOKEN_FILE", defaultTokenFile()), "File holding the admin token")
	cmd.PersistentFlags().DurationVar(&app.Timeout, "timeout", timeout, "Per-request timeout")
	cmd.PersistentFlags().BoolVar(&app.JSON, "json", false, "Print results as JSON")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newHealthCmd(app))
	cmd.AddCommand(newBooksCmd(app))
	cmd.AddCommand(newPledgesCmd(app))
	cmd.AddCommand(newStatsCmd(app))
	cmd.AddCommand(newDonateCmd(app))
	cmd.AddCommand(newMockAPICmd(app))

	return cmd
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "doacoes-token"
	}
	return filepath.Join(dir, "doacoes", "token")
}

// client returns an API client bound to the token file.
func (a *App) client() (*apiclient.Client, error) {
	if a.session == nil {
		s, err := auth.NewSession(auth.FileStore{Path: a.TokenFile})
		if err != nil {
			return nil, err
		}
		a.session = s
	}
	return apiclient.New(a.APIURL, a.Timeout).WithSession(a.session), nil
}

// fail turns an API error into the message shown to the operator. An expired
// session also removes the stale token.
func (a *App) fail(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apiclient.ErrSessionExpired) {
		if a.session != nil {
			_ = a.session.Clear()
		}
		return errors.New("sessão expirada, execute `doacoesctl login` novamente")
	}
	return errors.New(apiclient.Describe(err))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func table(w io.Writer, header string, rows func(tw *tabwriter.Writer)) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	return tw.Flush()
}
