package models

import (
	"time"

	"github.com/google/uuid"
)

// Book is a stored recommendation. The user field is the owner's id.
type Book struct {
	ID        uuid.UUID `json:"_id" db:"book_id"`
	Title     string    `json:"title" db:"title"`
	Caption   string    `json:"caption" db:"caption"`
	Image     string    `json:"image" db:"image"`
	Rating    int       `json:"rating" db:"rating"`
	UserID    uuid.UUID `json:"user" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// BookOwner is the owner projection embedded into feed items.
type BookOwner struct {
	ID           uuid.UUID `json:"_id"`
	Username     string    `json:"username"`
	ProfileImage string    `json:"profileImage"`
}

// BookWithOwner is a feed item: a book with its owner expanded.
// User is nil when the owner record no longer exists.
type BookWithOwner struct {
	ID        uuid.UUID  `json:"_id"`
	Title     string     `json:"title"`
	Caption   string     `json:"caption"`
	Image     string     `json:"image"`
	Rating    int        `json:"rating"`
	User      *BookOwner `json:"user"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// BookPage is one page of the feed.
type BookPage struct {
	Books       []BookWithOwner `json:"books"`
	CurrentPage int             `json:"currentPage"`
	TotalBooks  int             `json:"totalBooks"`
	TotalPages  int             `json:"totalPages"`
}

// NewBook is the input of a create. Rating is a pointer so that an
// absent rating can be told apart from an explicit value.
type NewBook struct {
	Title   string `json:"title" validate:"required"`
	Caption string `json:"caption" validate:"required"`
	Image   string `json:"image" validate:"required"`
	Rating  *int   `json:"rating" validate:"required,min=1,max=5"`
}
