package services

//go:generate mockgen -source=auth.go -destination=auth_mock.go -package=services

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/sbilibin2017/bookworm/internal/logger"
	"github.com/sbilibin2017/bookworm/internal/models"
	"github.com/sbilibin2017/bookworm/internal/repositories"
	"github.com/sbilibin2017/bookworm/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

// Error variables
var (
	ErrUserAlreadyExists  = errors.New("username or email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

const avatarURLFormat = "https://api.dicebear.com/7.x/avataaars/svg?seed=%s"

// UserReader defines read-only operations for users.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.UserDB, error)
	GetByEmail(ctx context.Context, email string) (*models.UserDB, error)
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*models.UserDB, error)
}

// UserWriter defines write operations for users.
type UserWriter interface {
	Save(ctx context.Context, username, email, passwordHash, profileImage string) (*models.UserDB, error)
}

// UserCache caches public user records.
type UserCache interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	Set(ctx context.Context, user *models.User) error
}

// JWTGenerator defines an interface for generating JWT tokens.
type JWTGenerator interface {
	Generate(ctx context.Context, userID uuid.UUID) (string, error)
}

// AuthService handles registration, login and user resolution.
type AuthService struct {
	reader    UserReader
	writer    UserWriter
	cache     UserCache
	jwt       JWTGenerator
	validator *validation.Validator
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(reader UserReader, writer UserWriter, cache UserCache, jwt JWTGenerator, validator *validation.Validator) *AuthService {
	return &AuthService{
		reader:    reader,
		writer:    writer,
		cache:     cache,
		jwt:       jwt,
		validator: validator,
	}
}

// Register creates a new account and signs the user in.
func (svc *AuthService) Register(ctx context.Context, in models.Registration) (*models.AuthResult, error) {
	if err := svc.validator.Validate(in); err != nil {
		return nil, err
	}

	existing, err := svc.reader.GetByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		logger.Log.Errorw("failed to check user exists", "err", err)
		return nil, err
	}
	if existing != nil {
		logger.Log.Warnw("user already exists", "username", in.Username, "email", in.Email)
		return nil, ErrUserAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Errorw("failed to hash password", "err", err)
		return nil, err
	}

	avatar := fmt.Sprintf(avatarURLFormat, url.QueryEscape(in.Username))
	user, err := svc.writer.Save(ctx, in.Username, in.Email, string(hashedPassword), avatar)
	if errors.Is(err, repositories.ErrUniqueViolation) {
		return nil, ErrUserAlreadyExists
	}
	if err != nil {
		logger.Log.Errorw("failed to save user", "err", err)
		return nil, err
	}

	return svc.issue(ctx, user)
}

// Login authenticates a user by email and password.
func (svc *AuthService) Login(ctx context.Context, in models.Credentials) (*models.AuthResult, error) {
	if err := svc.validator.Validate(in); err != nil {
		return nil, err
	}

	user, err := svc.reader.GetByEmail(ctx, in.Email)
	if err != nil {
		logger.Log.Errorw("failed to get user", "err", err)
		return nil, err
	}
	if user == nil {
		logger.Log.Warnw("login for unknown email", "email", in.Email)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		logger.Log.Warnw("invalid credentials", "user_id", user.UserID)
		return nil, ErrInvalidCredentials
	}

	return svc.issue(ctx, user)
}

func (svc *AuthService) issue(ctx context.Context, user *models.UserDB) (*models.AuthResult, error) {
	token, err := svc.jwt.Generate(ctx, user.UserID)
	if err != nil {
		logger.Log.Errorw("failed to generate JWT", "err", err)
		return nil, err
	}
	return &models.AuthResult{Token: token, User: user.Public()}, nil
}

// GetUser resolves a user id to its public record, consulting the cache
// before the database.
func (svc *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	cached, err := svc.cache.Get(ctx, id)
	if err != nil {
		logger.Log.Warnw("user cache read failed", "user_id", id, "err", err)
	}
	if cached != nil {
		return cached, nil
	}

	record, err := svc.reader.GetByID(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to get user", "user_id", id, "err", err)
		return nil, err
	}
	if record == nil {
		return nil, ErrUserNotFound
	}

	user := record.Public()
	if err := svc.cache.Set(ctx, user); err != nil {
		logger.Log.Warnw("user cache write failed", "user_id", id, "err", err)
	}
	return user, nil
}
