package fakeapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erazemk/doacoes/internal/model"
)

func setupTestServer(t *testing.T) (*Server, *httptest.Server, string) {
	t.Helper()
	api, err := New("admin", "password")
	if err != nil {
		t.Fatalf("creating fake api: %v", err)
	}
	server := httptest.NewServer(api.Handler())
	t.Cleanup(server.Close)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "password"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp loginResponse
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp.Token == "" {
		t.Fatal("empty token from login")
	}
	return api, server, loginResp.Token
}

func send(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestLoginRejectsBadPassword(t *testing.T) {
	_, server, _ := setupTestServer(t)

	resp := send(t, "POST", server.URL+"/api/auth/login", "", map[string]string{"username": "admin", "password": "wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
}

func TestBookCRUDFlow(t *testing.T) {
	api, server, token := setupTestServer(t)

	// Creating requires a token.
	resp := send(t, "POST", server.URL+"/api/livros", "", map[string]any{"titulo": "Dom Casmurro", "autor": "Machado de Assis", "quantidade": 2})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp = send(t, "POST", server.URL+"/api/livros", token, map[string]any{"titulo": "Dom Casmurro", "autor": "Machado de Assis", "quantidade": 2})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created struct {
		Book model.Book `json:"livro"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	if created.Book.ID == 0 || created.Book.Available != 2 {
		t.Fatalf("unexpected created book: %+v", created.Book)
	}

	// Duplicate title and author.
	resp = send(t, "POST", server.URL+"/api/livros", token, map[string]any{"titulo": "Dom Casmurro", "autor": "Machado de Assis"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for duplicate, got %d", resp.StatusCode)
	}

	// Count is public.
	resp = send(t, "PATCH", server.URL+"/api/livros/1/quantidade", "", map[string]int{"quantidade": 1})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for count update, got %d", resp.StatusCode)
	}
	if b, _ := api.Book(created.Book.ID); b.Available != 1 {
		t.Errorf("expected available 1, got %d", b.Available)
	}

	resp = send(t, "PATCH", server.URL+"/api/livros/1/quantidade", "", map[string]int{"quantidade": -1})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for negative count, got %d", resp.StatusCode)
	}

	resp = send(t, "DELETE", server.URL+"/api/livros/1", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for delete, got %d", resp.StatusCode)
	}
	resp = send(t, "GET", server.URL+"/api/livros/1", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestSearchBooks(t *testing.T) {
	api, server, _ := setupTestServer(t)
	api.AddBook("O Cortiço", "Aluísio Azevedo", 1)
	api.AddBook("Memórias Póstumas", "Machado de Assis", 1)

	resp := send(t, "GET", server.URL+"/api/livros/buscar?q=machado", "", nil)
	var out struct {
		Books []model.Book `json:"livros"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	if len(out.Books) != 1 || out.Books[0].Title != "Memórias Póstumas" {
		t.Errorf("unexpected search result: %+v", out.Books)
	}
}

func TestPledgeDoesNotDecrement(t *testing.T) {
	api, server, token := setupTestServer(t)
	book := api.AddBook("Capitães da Areia", "Jorge Amado", 1)

	resp := send(t, "POST", server.URL+"/api/doacoes", "", map[string]any{
		"nome": "Ana", "email": "ana@example.com", "tipo": "livro",
		"item": book.Description(), "livro_id": book.ID, "lgpdConsent": true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if b, _ := api.Book(book.ID); b.Available != 1 {
		t.Errorf("pledge changed available count to %d", b.Available)
	}

	// Deleting a pledge returns the copy.
	resp = send(t, "DELETE", server.URL+"/api/doacoes/1", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if b, _ := api.Book(book.ID); b.Available != 2 {
		t.Errorf("expected available 2 after pledge delete, got %d", b.Available)
	}
}

func TestPledgeValidation(t *testing.T) {
	api, server, _ := setupTestServer(t)
	sold := api.AddBook("Vidas Secas", "Graciliano Ramos", 0)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"no consent", map[string]any{"nome": "A", "email": "a@b.co", "tipo": "jogo", "item": "x"}, http.StatusBadRequest},
		{"bad email", map[string]any{"nome": "A", "email": "nope", "tipo": "jogo", "item": "x", "lgpdConsent": true}, http.StatusBadRequest},
		{"bad kind", map[string]any{"nome": "A", "email": "a@b.co", "tipo": "book", "item": "x", "lgpdConsent": true}, http.StatusBadRequest},
		{"sold out", map[string]any{"nome": "A", "email": "a@b.co", "tipo": "livro", "item": "x", "livro_id": sold.ID, "lgpdConsent": true}, http.StatusBadRequest},
		{"unknown book", map[string]any{"nome": "A", "email": "a@b.co", "tipo": "livro", "item": "x", "livro_id": 99, "lgpdConsent": true}, http.StatusNotFound},
		{"game", map[string]any{"nome": "A", "email": "a@b.co", "tipo": "jogo", "item": model.GameItemDescription, "lgpdConsent": true}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := send(t, "POST", server.URL+"/api/doacoes", "", tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
	if n := len(api.Pledges()); n != 1 {
		t.Errorf("expected 1 stored pledge, got %d", n)
	}
}

func TestListPledgesFiltersByKind(t *testing.T) {
	api, server, token := setupTestServer(t)
	book := api.AddBook("Iracema", "José de Alencar", 3)
	for _, body := range []map[string]any{
		{"nome": "A", "email": "a@b.co", "tipo": "livro", "item": book.Description(), "livro_id": book.ID, "lgpdConsent": true},
		{"nome": "B", "email": "b@b.co", "tipo": "jogo", "item": model.GameItemDescription, "lgpdConsent": true},
	} {
		send(t, "POST", server.URL+"/api/doacoes", "", body)
	}

	resp := send(t, "GET", server.URL+"/api/doacoes?tipo=jogo", token, nil)
	var out struct {
		Pledges []model.DonationRecord `json:"doacoes"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	if len(out.Pledges) != 1 || out.Pledges[0].Kind != model.KindGame {
		t.Errorf("unexpected pledges: %+v", out.Pledges)
	}
}

func TestExpireSessions(t *testing.T) {
	api, server, token := setupTestServer(t)
	if err := api.ExpireSessions(); err != nil {
		t.Fatalf("ExpireSessions: %v", err)
	}
	resp := send(t, "GET", server.URL+"/api/doacoes", token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after expiry, got %d", resp.StatusCode)
	}
}

func TestInjectFault(t *testing.T) {
	api, server, _ := setupTestServer(t)
	api.InjectFault("GET", "/api/health", http.StatusServiceUnavailable, 1)

	resp := send(t, "GET", server.URL+"/api/health", "", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected injected 503, got %d", resp.StatusCode)
	}
	resp = send(t, "GET", server.URL+"/api/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected fault to be consumed, got %d", resp.StatusCode)
	}
	if n := api.CountRequests("GET", "/api/health"); n != 2 {
		t.Errorf("expected 2 recorded requests, got %d", n)
	}
}

func TestUpdatePledge(t *testing.T) {
	api, server, token := setupTestServer(t)
	book := api.AddBook("Macunaíma", "Mário de Andrade", 2)
	send(t, "POST", server.URL+"/api/doacoes", "", map[string]any{
		"nome": "Ana", "email": "ana@example.com", "tipo": "livro",
		"item": book.Description(), "livro_id": book.ID, "lgpdConsent": true,
	})

	edit := map[string]any{"nome": "Ana Souza", "email": "ana.souza@example.com", "tipo": "livro", "item": book.Description()}
	if resp := send(t, "PUT", server.URL+"/api/doacoes/1", "", edit); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}

	tests := []struct {
		name string
		path string
		body map[string]any
		want int
	}{
		{"missing item", "/api/doacoes/1", map[string]any{"nome": "A", "email": "a@b.co", "tipo": "jogo"}, http.StatusBadRequest},
		{"bad email", "/api/doacoes/1", map[string]any{"nome": "A", "email": "nope", "tipo": "jogo", "item": "x"}, http.StatusBadRequest},
		{"bad kind", "/api/doacoes/1", map[string]any{"nome": "A", "email": "a@b.co", "tipo": "game", "item": "x"}, http.StatusBadRequest},
		{"unknown pledge", "/api/doacoes/99", edit, http.StatusNotFound},
		{"ok", "/api/doacoes/1", edit, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if resp := send(t, "PUT", server.URL+tt.path, token, tt.body); resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}

	p := api.Pledges()[0]
	if p.DonorName != "Ana Souza" || p.DonorEmail != "ana.souza@example.com" {
		t.Errorf("pledge not updated: %+v", p)
	}
	if p.BookID == nil || *p.BookID != book.ID {
		t.Errorf("edit must keep the linked book, got %v", p.BookID)
	}
	if b, _ := api.Book(book.ID); b.Available != 2 {
		t.Errorf("edit must not touch the count, got %d", b.Available)
	}
}

func TestStats(t *testing.T) {
	api, server, token := setupTestServer(t)
	api.AddBook("Iracema", "José de Alencar", 3)
	book := api.AddBook("O Guarani", "José de Alencar", 1)
	for _, body := range []map[string]any{
		{"nome": "A", "email": "a@b.co", "tipo": "livro", "item": book.Description(), "livro_id": book.ID, "lgpdConsent": true},
		{"nome": "B", "email": "b@b.co", "tipo": "jogo", "item": model.GameItemDescription, "lgpdConsent": true},
		{"nome": "C", "email": "c@b.co", "tipo": "jogo", "item": model.GameItemDescription, "lgpdConsent": true},
	} {
		send(t, "POST", server.URL+"/api/doacoes", "", body)
	}

	if resp := send(t, "GET", server.URL+"/api/stats", "", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp := send(t, "GET", server.URL+"/api/stats", token, nil)
	var out struct {
		Stats map[string]int `json:"stats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	want := map[string]int{
		"total_livros": 2, "total_doacoes": 3, "doacoes_livros": 1, "doacoes_jogos": 2, "livros_disponiveis": 4,
	}
	for k, v := range want {
		if out.Stats[k] != v {
			t.Errorf("%s = %d, want %d", k, out.Stats[k], v)
		}
	}
}
