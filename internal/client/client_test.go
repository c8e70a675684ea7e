package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sbilibin2017/bookworm/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL})
}

func TestClient_LoginKeepsToken(t *testing.T) {
	userID := uuid.New()
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var in models.Credentials
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "alice@example.com", in.Email)
			_ = json.NewEncoder(w).Encode(models.AuthResult{Token: "tok", User: &models.User{ID: userID}})
		case "/api/books/user":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode([]models.Book{{ID: uuid.New(), UserID: userID}})
		default:
			http.NotFound(w, r)
		}
	})

	res, err := c.Login(context.Background(), models.Credentials{Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, userID, res.User.ID)
	assert.Equal(t, "tok", c.Token())

	books, err := c.UserBooks(context.Background())
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestClient_ListBooks(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(models.BookPage{CurrentPage: 2, TotalBooks: 12, TotalPages: 3,
			Books: []models.BookWithOwner{{ID: uuid.New(), User: &models.BookOwner{Username: "bob"}}}})
	})

	page, err := c.ListBooks(context.Background(), 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, "bob", page.Books[0].User.Username)
}

func TestClient_CreateBook(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var in map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, float64(4), in["rating"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"newBook":{"title":"Dune","rating":4}}`))
	})

	four := 4
	book, err := c.CreateBook(context.Background(), models.NewBook{Title: "Dune", Caption: "c", Image: "i", Rating: &four})
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)
}

func TestClient_APIError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"json message", http.StatusForbidden, `{"message":"Unauthorized to delete this book"}`, "Unauthorized to delete this book"},
		{"plain body", http.StatusBadGateway, "upstream down", "502 Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := c.DeleteBook(context.Background(), uuid.New())
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}
