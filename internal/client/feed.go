package client

//go:generate mockgen -source=feed.go -destination=feed_mock.go -package=client

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sbilibin2017/bookworm/internal/models"
)

// DefaultFeedPageSize is the page size the feed requests.
const DefaultFeedPageSize = 5

// ErrFetchInFlight is returned by Refresh while another fetch runs.
var ErrFetchInFlight = errors.New("feed fetch already in flight")

// PageFetcher fetches one page of the feed.
type PageFetcher interface {
	ListBooks(ctx context.Context, page, limit int) (*models.BookPage, error)
}

// Feed accumulates feed pages for display. At most one fetch runs at a
// time; books already shown are never appended twice.
type Feed struct {
	fetcher  PageFetcher
	pageSize int

	mu       sync.Mutex
	books    []models.BookWithOwner
	seen     map[uuid.UUID]struct{}
	nextPage int
	hasMore  bool
	inFlight bool
}

// NewFeed creates an empty feed. A non-positive pageSize uses DefaultFeedPageSize.
func NewFeed(fetcher PageFetcher, pageSize int) *Feed {
	if pageSize < 1 {
		pageSize = DefaultFeedPageSize
	}
	return &Feed{
		fetcher:  fetcher,
		pageSize: pageSize,
		seen:     make(map[uuid.UUID]struct{}),
		nextPage: 1,
		hasMore:  true,
	}
}

// LoadMore fetches the next page and appends unseen books. It reports
// false without issuing a request when a fetch is already running or the
// last page has been reached.
func (f *Feed) LoadMore(ctx context.Context) (bool, error) {
	f.mu.Lock()
	if f.inFlight || !f.hasMore {
		f.mu.Unlock()
		return false, nil
	}
	f.inFlight = true
	page := f.nextPage
	f.mu.Unlock()

	res, err := f.fetcher.ListBooks(ctx, page, f.pageSize)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false
	if err != nil {
		return false, err
	}

	for _, b := range res.Books {
		if _, ok := f.seen[b.ID]; ok {
			continue
		}
		f.seen[b.ID] = struct{}{}
		f.books = append(f.books, b)
	}
	f.advance(page, res.TotalPages)
	return true, nil
}

// Refresh fetches the first page and replaces the feed with it.
func (f *Feed) Refresh(ctx context.Context) error {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return ErrFetchInFlight
	}
	f.inFlight = true
	f.mu.Unlock()

	res, err := f.fetcher.ListBooks(ctx, 1, f.pageSize)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false
	if err != nil {
		return err
	}

	f.books = make([]models.BookWithOwner, 0, len(res.Books))
	f.seen = make(map[uuid.UUID]struct{}, len(res.Books))
	for _, b := range res.Books {
		if _, ok := f.seen[b.ID]; ok {
			continue
		}
		f.seen[b.ID] = struct{}{}
		f.books = append(f.books, b)
	}
	f.advance(1, res.TotalPages)
	return nil
}

func (f *Feed) advance(page, totalPages int) {
	f.hasMore = page < totalPages
	f.nextPage = page + 1
}

// Books returns a copy of the books loaded so far.
func (f *Feed) Books() []models.BookWithOwner {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.BookWithOwner, len(f.books))
	copy(out, f.books)
	return out
}

// HasMore reports whether another page is believed to exist.
func (f *Feed) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasMore
}

// Loading reports whether a fetch is running.
func (f *Feed) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}
