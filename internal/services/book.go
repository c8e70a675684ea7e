package services

//go:generate mockgen -source=book.go -destination=book_mock.go -package=services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/bookworm/internal/logger"
	"github.com/sbilibin2017/bookworm/internal/metrics"
	"github.com/sbilibin2017/bookworm/internal/models"
	"github.com/sbilibin2017/bookworm/internal/validation"
	"github.com/segmentio/kafka-go"
)

var (
	// ErrBookNotFound is returned when the requested book does not exist.
	ErrBookNotFound = errors.New("book not found")
	// ErrForbidden is returned when a user acts on a book they do not own.
	ErrForbidden = errors.New("not the owner of this book")
)

// Page defaults applied to missing or non-positive query values.
const (
	DefaultPage     = 1
	DefaultPageSize = 5
)

// BookReader defines book read operations.
type BookReader interface {
	ListPage(ctx context.Context, page, limit int) ([]models.BookWithOwner, int, error)
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]models.Book, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
}

// BookWriter defines book write operations.
type BookWriter interface {
	Create(ctx context.Context, userID uuid.UUID, title, caption, image string, rating int) (*models.Book, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ImageStore keeps the cover images.
type ImageStore interface {
	Upload(ctx context.Context, payload string) (string, error)
	Owns(imageURL string) bool
	Delete(ctx context.Context, imageURL string) error
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// BookService orchestrates book recommendations across the database and
// the image store.
type BookService struct {
	reader      BookReader
	writer      BookWriter
	images      ImageStore
	kafkaWriter KafkaWriter
	validator   *validation.Validator
}

// NewBookService creates a new BookService. kafkaWriter may be nil.
func NewBookService(
	reader BookReader,
	writer BookWriter,
	images ImageStore,
	kafkaWriter KafkaWriter,
	validator *validation.Validator,
) *BookService {
	return &BookService{
		reader:      reader,
		writer:      writer,
		images:      images,
		kafkaWriter: kafkaWriter,
		validator:   validator,
	}
}

// Create validates the input, uploads the cover and only then stores the
// book on behalf of userID.
func (s *BookService) Create(ctx context.Context, userID uuid.UUID, in models.NewBook) (*models.Book, error) {
	log := logger.FromContext(ctx)

	if err := s.validator.Validate(in); err != nil {
		log.Warnw("rejected book", "user_id", userID, "error", err)
		return nil, err
	}

	imageURL, err := s.images.Upload(ctx, in.Image)
	if err != nil {
		log.Errorw("failed to upload book image", "user_id", userID, "error", err)
		return nil, err
	}

	book, err := s.writer.Create(ctx, userID, in.Title, in.Caption, imageURL, *in.Rating)
	if err != nil {
		// the uploaded image stays behind; nothing references it
		log.Errorw("failed to save book", "user_id", userID, "image", imageURL, "error", err)
		return nil, err
	}

	metrics.BooksCreated.Inc()
	s.publishEvent(ctx, models.BookCreated, book)
	return book, nil
}

// List returns one page of the feed. Non-positive page or limit fall
// back to DefaultPage and DefaultPageSize.
func (s *BookService) List(ctx context.Context, page, limit int) (*models.BookPage, error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultPageSize
	}

	books, total, err := s.reader.ListPage(ctx, page, limit)
	if err != nil {
		logger.FromContext(ctx).Errorw("failed to list books", "page", page, "limit", limit, "error", err)
		return nil, err
	}

	return &models.BookPage{
		Books:       books,
		CurrentPage: page,
		TotalBooks:  total,
		TotalPages:  pageCount(total, limit),
	}, nil
}

// pageCount is ceil(total/limit) without the overflow of total+limit-1.
func pageCount(total, limit int) int {
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return pages
}

// ListByUser returns all books of userID, newest first.
func (s *BookService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Book, error) {
	books, err := s.reader.ListByOwner(ctx, userID)
	if err != nil {
		logger.FromContext(ctx).Errorw("failed to list user books", "user_id", userID, "error", err)
		return nil, err
	}
	return books, nil
}

// Delete removes a book owned by userID. The cover image is removed on a
// best-effort basis; its failure never blocks the record removal.
func (s *BookService) Delete(ctx context.Context, userID, bookID uuid.UUID) error {
	log := logger.FromContext(ctx)

	book, err := s.reader.GetByID(ctx, bookID)
	if err != nil {
		log.Errorw("failed to get book", "book_id", bookID, "error", err)
		return err
	}
	if book == nil {
		return ErrBookNotFound
	}

	if book.UserID != userID {
		log.Warnw("delete of foreign book refused", "book_id", bookID, "owner", book.UserID, "user_id", userID)
		return ErrForbidden
	}

	if book.Image != "" && s.images.Owns(book.Image) {
		if err := s.images.Delete(ctx, book.Image); err != nil {
			metrics.ImageDeleteFailures.Inc()
			log.Errorw("image delete failed, removing book anyway", "book_id", bookID, "image", book.Image, "error", err)
		}
	}

	if err := s.writer.Delete(ctx, bookID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookNotFound
		}
		log.Errorw("failed to delete book", "book_id", bookID, "error", err)
		return err
	}

	metrics.BooksDeleted.Inc()
	s.publishEvent(ctx, models.BookDeleted, book)
	return nil
}

// publishEvent publishes a book lifecycle event to Kafka.
func (s *BookService) publishEvent(ctx context.Context, eventType string, book *models.Book) {
	if s.kafkaWriter == nil {
		logger.Log.Debugw("Kafka writer not configured, skipping publishing", "type", eventType, "book_id", book.ID)
		return
	}

	event := models.BookEvent{
		EventID:   uuid.NewString(),
		Type:      eventType,
		BookID:    book.ID.String(),
		UserID:    book.UserID.String(),
		Timestamp: time.Now().Unix(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorw("Failed to marshal book event for Kafka", "event_id", event.EventID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.BookID),
		Value: data,
	}

	if err := s.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("Failed to publish book event to Kafka", "event_id", event.EventID, "type", eventType, "error", err)
		return
	}
	logger.Log.Infow("Book event published to Kafka", "event_id", event.EventID, "type", eventType, "book_id", event.BookID)
}
