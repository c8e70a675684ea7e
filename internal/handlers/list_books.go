package handlers

//go:generate mockgen -source=list_books.go -destination=list_books_mock.go -package=handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/sbilibin2017/bookworm/internal/logger"
	"github.com/sbilibin2017/bookworm/internal/models"
)

// BookLister defines the interface for reading the paginated feed.
type BookLister interface {
	List(ctx context.Context, page, limit int) (*models.BookPage, error)
}

// NewListBooksHandler returns an HTTP handler that serves one page of the feed.
// @Summary List books
// @Description Returns books newest first with their owners expanded. Missing or invalid page/limit fall back to 1 and 5.
// @Tags books
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(5)
// @Success 200 {object} models.BookPage "Page of books"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /books [get]
// @Security BearerAuth
func NewListBooksHandler(svc BookLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// non-numeric values parse to 0 and take the service defaults
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		res, err := svc.List(r.Context(), page, limit)
		if err != nil {
			logger.FromContext(r.Context()).Errorw("failed to list books", "err", err)
			writeError(w, http.StatusInternalServerError, internalServerError)
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}
