package handlers

//go:generate mockgen -source=user_books.go -destination=user_books_mock.go -package=handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sbilibin2017/bookworm/internal/logger"
	"github.com/sbilibin2017/bookworm/internal/middlewares"
	"github.com/sbilibin2017/bookworm/internal/models"
)

// UserBookLister defines the interface for reading a user's own books.
type UserBookLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Book, error)
}

// NewUserBooksHandler returns an HTTP handler listing the caller's books.
// @Summary List own books
// @Description Returns every book of the authenticated user, newest first
// @Tags books
// @Produce json
// @Success 200 {array} models.Book "Books"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /books/user [get]
// @Security BearerAuth
func NewUserBooksHandler(svc UserBookLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		user, ok := middlewares.UserFromContext(ctx)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		books, err := svc.ListByUser(ctx, user.ID)
		if err != nil {
			logger.FromContext(ctx).Errorw("failed to list user books", "user_id", user.ID, "err", err)
			writeError(w, http.StatusInternalServerError, internalServerError)
			return
		}
		if books == nil {
			books = []models.Book{}
		}

		writeJSON(w, http.StatusOK, books)
	}
}
