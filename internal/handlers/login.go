package handlers

//go:generate mockgen -source=login.go -destination=login_mock.go -package=handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sbilibin2017/bookworm/internal/logger"
	"github.com/sbilibin2017/bookworm/internal/models"
	"github.com/sbilibin2017/bookworm/internal/services"
)

// Loginer defines the interface for logging in a user.
type Loginer interface {
	Login(ctx context.Context, in models.Credentials) (*models.AuthResult, error)
}

// LoginRequest represents the JSON body for login
// swagger:model LoginRequest
type LoginRequest struct {
	// Email
	// required: true
	// default: john@example.com
	Email string `json:"email"`

	// Password
	// required: true
	// default: secret123
	Password string `json:"password"`
}

// NewLoginHandler returns an HTTP handler that authenticates a user.
// @Summary Login user
// @Description Authenticates a user by email and password and returns a JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param loginRequest body handlers.LoginRequest true "Login Request"
// @Success 200 {object} models.AuthResult "JWT token returned"
// @Failure 400 {object} handlers.ErrorResponse "Invalid request body / invalid credentials"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /auth/login [post]
func NewLoginHandler(svc Loginer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDecodeError(w, err)
			return
		}

		res, err := svc.Login(r.Context(), models.Credentials{
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			switch {
			case writeValidationError(w, err):
			case errors.Is(err, services.ErrInvalidCredentials):
				writeError(w, http.StatusBadRequest, "Invalid credentials")
			default:
				logger.FromContext(r.Context()).Errorw("internal server error", "err", err)
				writeError(w, http.StatusInternalServerError, internalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}
