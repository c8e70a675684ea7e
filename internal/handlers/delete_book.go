package handlers

//go:generate mockgen -source=delete_book.go -destination=delete_book_mock.go -package=handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sbilibin2017/bookworm/internal/logger"
	"github.com/sbilibin2017/bookworm/internal/middlewares"
	"github.com/sbilibin2017/bookworm/internal/services"
)

// BookDeleter defines the interface for deleting books.
type BookDeleter interface {
	Delete(ctx context.Context, userID, bookID uuid.UUID) error
}

// NewDeleteBookHandler returns an HTTP handler that deletes one of the caller's books.
// @Summary Delete a book
// @Description Deletes a book owned by the authenticated user together with its stored cover image
// @Tags books
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} handlers.MessageResponse "Book deleted"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 403 {object} handlers.ErrorResponse "Not the owner"
// @Failure 404 {object} handlers.ErrorResponse "Book not found"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /books/{id} [delete]
// @Security BearerAuth
func NewDeleteBookHandler(svc BookDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		user, ok := middlewares.UserFromContext(ctx)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		// an id that cannot name a book is reported like a missing one
		bookID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "Book not found")
			return
		}

		err = svc.Delete(ctx, user.ID, bookID)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, MessageResponse{Message: "Book deleted successfully"})
		case errors.Is(err, services.ErrBookNotFound):
			writeError(w, http.StatusNotFound, "Book not found")
		case errors.Is(err, services.ErrForbidden):
			writeError(w, http.StatusForbidden, "Unauthorized to delete this book")
		default:
			logger.FromContext(ctx).Errorw("failed to delete book", "book_id", bookID, "err", err)
			writeError(w, http.StatusInternalServerError, internalServerError)
		}
	}
}
