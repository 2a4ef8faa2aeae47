// Package fakeapi is an in-process implementation of the remote donations
// API. It backs the package tests and the `doacoesctl mock-api` command, and
// can inject failures on chosen routes.
package fakeapi

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/doacoes/internal/model"
)

// DropConnection makes an injected fault close the connection without a
// response, which clients see as a network failure.
const DropConnection = -1

// Request is one recorded incoming request.
type Request struct {
	Method        string
	Path          string
	Authorization string
}

type fault struct {
	method    string
	path      string
	status    int
	remaining int // <= 0 means unlimited
}

// Server holds the in-memory API state.
type Server struct {
	mu        sync.Mutex
	adminUser string
	adminHash []byte
	secret    string

	books      []model.Book
	pledges    []model.DonationRecord
	nextBookID int64
	nextPledge int64

	faults   []*fault
	requests []Request
}

// New creates a server with one admin account.
func New(adminUser, adminPassword string) (*Server, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("hashing admin password: %w", err)
	}
	secret, err := randomSecret()
	if err != nil {
		return nil, err
	}
	return &Server{
		adminUser:  adminUser,
		adminHash:  hash,
		secret:     secret,
		nextBookID: 1,
		nextPledge: 1,
	}, nil
}

// Handler returns the API routes mounted under /api.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	authMW := s.authMiddleware

	// Public.
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/health", s.health)
	mux.HandleFunc("GET /api/livros", s.listBooks)
	mux.HandleFunc("GET /api/livros/buscar", s.searchBooks)
	mux.HandleFunc("GET /api/livros/{id}", s.getBook)
	mux.HandleFunc("PATCH /api/livros/{id}/quantidade", s.updateBookCount)
	mux.HandleFunc("POST /api/doacoes", s.createPledge)

	// Admin.
	mux.Handle("POST /api/livros", authMW(http.HandlerFunc(s.createBook)))
	mux.Handle("PUT /api/livros/{id}", authMW(http.HandlerFunc(s.updateBook)))
	mux.Handle("DELETE /api/livros/{id}", authMW(http.HandlerFunc(s.deleteBook)))
	mux.Handle("GET /api/doacoes", authMW(http.HandlerFunc(s.listPledges)))
	mux.Handle("PUT /api/doacoes/{id}", authMW(http.HandlerFunc(s.updatePledge)))
	mux.Handle("DELETE /api/doacoes/{id}", authMW(http.HandlerFunc(s.deletePledge)))
	mux.Handle("GET /api/stats", authMW(http.HandlerFunc(s.stats)))

	return s.faultMiddleware(mux)
}

// InjectFault makes the next times requests matching method and path fail
// with status (or DropConnection). times <= 0 fails every matching request.
func (s *Server) InjectFault(method, path string, status, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, &fault{method: method, path: path, status: status, remaining: times})
}

// ClearFaults removes all injected faults.
func (s *Server) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = nil
}

// ExpireSessions rotates the signing secret so every issued token is rejected.
func (s *Server) ExpireSessions() error {
	secret, err := randomSecret()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = secret
	return nil
}

// Requests returns a copy of the request log.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// CountRequests counts recorded requests with the given method and path.
func (s *Server) CountRequests(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// ResetRequests clears the request log.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) record(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, Request{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
	})
}

func (s *Server) takeFault(method, path string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.faults {
		if f.method != method || f.path != path {
			continue
		}
		if f.remaining > 0 {
			f.remaining--
			if f.remaining == 0 {
				s.faults = append(s.faults[:i], s.faults[i+1:]...)
			}
		}
		return f.status, true
	}
	return 0, false
}

func (s *Server) currentSecret() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secret
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
