package handlers

//go:generate mockgen -source=create_book.go -destination=create_book_mock.go -package=handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sbilibin2017/bookworm/internal/logger"
	"github.com/sbilibin2017/bookworm/internal/middlewares"
	"github.com/sbilibin2017/bookworm/internal/models"
)

// BookCreator defines the interface for creating books.
type BookCreator interface {
	Create(ctx context.Context, userID uuid.UUID, in models.NewBook) (*models.Book, error)
}

// CreateBookRequest represents the JSON body for a new recommendation
// swagger:model CreateBookRequest
type CreateBookRequest struct {
	// Title
	// required: true
	// default: Dune
	Title string `json:"title"`

	// Caption
	// required: true
	// default: Classic
	Caption string `json:"caption"`

	// Image as a base64 data URI or a remote URL
	// required: true
	Image string `json:"image"`

	// Rating from 1 to 5
	// required: true
	// default: 5
	Rating *int `json:"rating"`
}

// CreateBookResponse wraps the created book
// swagger:model CreateBookResponse
type CreateBookResponse struct {
	NewBook *models.Book `json:"newBook"`
}

// NewCreateBookHandler returns an HTTP handler that creates a book recommendation.
// @Summary Create a book recommendation
// @Description Uploads the cover image and stores the book on behalf of the authenticated user
// @Tags books
// @Accept json
// @Produce json
// @Param createBookRequest body handlers.CreateBookRequest true "Book"
// @Success 201 {object} handlers.CreateBookResponse "Created book"
// @Failure 400 {object} handlers.ErrorResponse "Missing or invalid field"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 413 {object} handlers.ErrorResponse "Request body too large"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /books [post]
// @Security BearerAuth
func NewCreateBookHandler(svc BookCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		user, ok := middlewares.UserFromContext(ctx)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req CreateBookRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDecodeError(w, err)
			return
		}

		book, err := svc.Create(ctx, user.ID, models.NewBook{
			Title:   req.Title,
			Caption: req.Caption,
			Image:   req.Image,
			Rating:  req.Rating,
		})
		if err != nil {
			if writeValidationError(w, err) {
				return
			}
			logger.FromContext(ctx).Errorw("failed to create book", "user_id", user.ID, "err", err)
			writeError(w, http.StatusInternalServerError, internalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, CreateBookResponse{NewBook: book})
	}
}
