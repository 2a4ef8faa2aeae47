package cli

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/doacoes/internal/fakeapi"

	"github.com/spf13/cobra"
)

var seedBooks = []struct {
	title, author string
	available     int
}{
	{"Dom Casmurro", "Machado de Assis", 3},
	{"Grande Sertão: Veredas", "João Guimarães Rosa", 1},
	{"O Cortiço", "Aluísio Azevedo", 2},
	{"Vidas Secas", "Graciliano Ramos", 0},
}

// generatePassword returns a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}

func newMockAPICmd(app *App) *cobra.Command {
	var addr, user, password string
	var seed bool

	cmd := &cobra.Command{
		Use:   "mock-api",
		Short: "Serve an in-memory donations API for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := generatePassword(16)
				if err != nil {
					return fmt.Errorf("generating password: %w", err)
				}
				password = p
			}
			api, err := fakeapi.New(user, password)
			if err != nil {
				return err
			}
			if seed {
				for _, b := range seedBooks {
					api.AddBook(b.title, b.author, b.available)
				}
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           api.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("mock api forced to shutdown", "error", err)
				}
			}()

			fmt.Fprintf(cmd.OutOrStdout(), "Mock API em http://%s/api\n  Usuário: %s\n  Senha:   %s\n", addr, user, password)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "127.0.0.1:5000", "Listen address")
	cmd.Flags().StringVar(&user, "user", "admin", "Admin username")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (generated when empty)")
	cmd.Flags().BoolVar(&seed, "seed", false, "Start with a few sample books")
	return cmd
}
