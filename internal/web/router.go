package web

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/doacoes/internal/apiclient"
	"github.com/erazemk/doacoes/internal/auth"
	"github.com/erazemk/doacoes/internal/catalog"
	"github.com/erazemk/doacoes/internal/donation"
	"github.com/erazemk/doacoes/internal/store"
	webembed "github.com/erazemk/doacoes/web"
)

// Options configures NewRouter.
type Options struct {
	API          *apiclient.Client
	DB           *sql.DB
	SessionKey   []byte
	CookieSecure bool
	VisitorTTL   time.Duration
}

// NewRouter creates the page router with all routes and middleware.
func NewRouter(opts Options) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	sealer, err := auth.NewSealer(opts.SessionKey)
	if err != nil {
		return nil, err
	}

	var journal donation.DriftJournal
	if opts.DB != nil {
		journal = store.Journal{DB: opts.DB}
	}
	ctrl := donation.NewController(opts.API, journal)

	s := &Server{
		API:          opts.API,
		DB:           opts.DB,
		Templates:    templates,
		Sealer:       sealer,
		CookieSecure: opts.CookieSecure,
	}
	s.Visitors = NewVisitors(opts.VisitorTTL, opts.CookieSecure, func() (*catalog.Catalog, *donation.Host) {
		return catalog.New(opts.API), donation.NewHost(ctrl)
	})

	mux := http.NewServeMux()
	admin := s.CookieAuthMiddleware

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public screens.
	mux.HandleFunc("GET /{$}", s.HomePage)
	mux.HandleFunc("GET /livros", s.BooksPage)
	mux.HandleFunc("POST /livros/{id}/doar", s.BookDonateSubmit)
	mux.HandleFunc("GET /jogos", s.GamesPage)
	mux.HandleFunc("POST /jogos/doar", s.GameDonateSubmit)
	mux.HandleFunc("GET /doacao", s.DonationPage)
	mux.HandleFunc("POST /doacao", s.DonationSubmit)
	mux.HandleFunc("POST /doacao/fechar", s.DonationClose)
	mux.HandleFunc("GET /healthz", s.Healthz)

	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Admin screens.
	mux.Handle("GET /admin", admin(http.HandlerFunc(s.AdminBooksPage)))
	mux.Handle("POST /admin/livros", admin(http.HandlerFunc(s.AdminBookCreateSubmit)))
	mux.Handle("POST /admin/livros/{id}", admin(http.HandlerFunc(s.AdminBookUpdateSubmit)))
	mux.Handle("POST /admin/livros/{id}/excluir", admin(http.HandlerFunc(s.AdminBookDeleteSubmit)))
	mux.Handle("GET /admin/doacoes", admin(http.HandlerFunc(s.AdminPledgesPage)))
	mux.Handle("POST /admin/doacoes/{id}", admin(http.HandlerFunc(s.AdminPledgeUpdateSubmit)))
	mux.Handle("POST /admin/doacoes/{id}/excluir", admin(http.HandlerFunc(s.AdminPledgeDeleteSubmit)))
	mux.Handle("GET /admin/estoque", admin(http.HandlerFunc(s.AdminStockPage)))
	mux.Handle("POST /admin/estoque/{id}/resolver", admin(http.HandlerFunc(s.AdminStockResolveSubmit)))

	var handler http.Handler = mux
	handler = WithSecurityHeaders(opts.CookieSecure)(handler)
	handler = LoggingMiddleware(handler)
	handler = WithRequestID(handler)
	return handler, nil
}
