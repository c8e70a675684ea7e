package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/bookworm/internal/logger"
	"github.com/sbilibin2017/bookworm/internal/models"
)

const bookColumns = `book_id, title, caption, image, rating, user_id, created_at, updated_at`

// BookWriteRepository handles book write operations.
type BookWriteRepository struct {
	db *sqlx.DB
}

func NewBookWriteRepository(db *sqlx.DB) *BookWriteRepository {
	return &BookWriteRepository{db: db}
}

// Create inserts a book owned by userID and returns the stored row with
// its generated id and creation time.
func (r *BookWriteRepository) Create(ctx context.Context, userID uuid.UUID, title, caption, image string, rating int) (*models.Book, error) {
	const query = `
		INSERT INTO books (book_id, title, caption, image, rating, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING ` + bookColumns

	id := uuid.New()
	args := []any{id, title, caption, image, rating, userID}

	var book models.Book
	err := r.db.GetContext(ctx, &book, query, args...)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{id, title, rating, userID},
		"result", book.ID,
		"error", err,
	)

	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Delete removes the book permanently. It returns sql.ErrNoRows when
// there was no such book.
func (r *BookWriteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM books WHERE book_id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logger.Log.Infow(
		"query", query,
		"args", []any{id},
		"result", rowsAffected,
		"error", err,
	)

	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// BookReadRepository handles book read operations.
type BookReadRepository struct {
	db *sqlx.DB
}

func NewBookReadRepository(db *sqlx.DB) *BookReadRepository {
	return &BookReadRepository{db: db}
}

// bookOwnerRow is a book joined with its (possibly missing) owner.
type bookOwnerRow struct {
	models.Book
	OwnerID           uuid.NullUUID  `db:"owner_id"`
	OwnerUsername     sql.NullString `db:"owner_username"`
	OwnerProfileImage sql.NullString `db:"owner_profile_image"`
}

func (row bookOwnerRow) toModel() models.BookWithOwner {
	item := models.BookWithOwner{
		ID:        row.ID,
		Title:     row.Title,
		Caption:   row.Caption,
		Image:     row.Image,
		Rating:    row.Rating,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.OwnerID.Valid {
		item.User = &models.BookOwner{
			ID:           row.OwnerID.UUID,
			Username:     row.OwnerUsername.String,
			ProfileImage: row.OwnerProfileImage.String,
		}
	}
	return item
}

// ListPage returns one page of books, newest first, with owners expanded,
// together with the total number of books. Both reads share one snapshot.
func (r *BookReadRepository) ListPage(ctx context.Context, page, limit int) ([]models.BookWithOwner, int, error) {
	const pageQuery = `
		SELECT b.book_id, b.title, b.caption, b.image, b.rating, b.user_id, b.created_at, b.updated_at,
		       u.user_id AS owner_id, u.username AS owner_username, u.profile_image AS owner_profile_image
		FROM books b
		LEFT JOIN users u ON u.user_id = b.user_id
		ORDER BY b.created_at DESC, b.book_id DESC
		LIMIT $1 OFFSET $2
	`
	const countQuery = `SELECT COUNT(*) FROM books`

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, 0, fmt.Errorf("begin list transaction: %w", err)
	}
	defer tx.Rollback()

	var rows []bookOwnerRow
	// a page whose offset does not fit in an int lies past any table
	if offset, ok := pageOffset(page, limit); ok {
		err = tx.SelectContext(ctx, &rows, pageQuery, limit, offset)

		logger.Log.Infow(
			"query", strings.Join(strings.Fields(pageQuery), " "),
			"args", []any{limit, offset},
			"result", len(rows),
			"error", err,
		)
		if err != nil {
			return nil, 0, err
		}
	}

	var total int
	err = tx.GetContext(ctx, &total, countQuery)

	logger.Log.Infow(
		"query", countQuery,
		"args", []any{},
		"result", total,
		"error", err,
	)
	if err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit list transaction: %w", err)
	}

	books := make([]models.BookWithOwner, 0, len(rows))
	for _, row := range rows {
		books = append(books, row.toModel())
	}
	return books, total, nil
}

// pageOffset returns (page-1)*limit, or false when the pair is out of
// range or the product overflows.
func pageOffset(page, limit int) (int, bool) {
	if page < 1 || limit < 1 || page-1 > math.MaxInt/limit {
		return 0, false
	}
	return (page - 1) * limit, true
}

// ListByOwner returns every book owned by userID, newest first.
func (r *BookReadRepository) ListByOwner(ctx context.Context, userID uuid.UUID) ([]models.Book, error) {
	const query = `
		SELECT ` + bookColumns + `
		FROM books
		WHERE user_id = $1
		ORDER BY created_at DESC, book_id DESC
	`

	books := []models.Book{}
	err := r.db.SelectContext(ctx, &books, query, userID)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{userID},
		"result", len(books),
		"error", err,
	)

	if err != nil {
		return nil, err
	}
	return books, nil
}

// GetByID returns the book with id, or nil when there is none.
func (r *BookReadRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	const query = `SELECT ` + bookColumns + ` FROM books WHERE book_id = $1`

	var book models.Book
	err := r.db.GetContext(ctx, &book, query, id)

	logger.Log.Infow(
		"query", query,
		"args", []any{id},
		"result", book.ID,
		"error", err,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}
