package models

// Book event types published to Kafka.
const (
	BookCreated = "book_created"
	BookDeleted = "book_deleted"
)

// BookEvent is a lifecycle event of a book.
type BookEvent struct {
	EventID   string `json:"event_id"`  // Unique event identifier
	Type      string `json:"type"`      // BookCreated or BookDeleted
	BookID    string `json:"book_id"`   // Book the event is about
	UserID    string `json:"user_id"`   // Owner of the book
	Timestamp int64  `json:"timestamp"` // Unix seconds
}
