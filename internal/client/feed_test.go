package client

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sbilibin2017/bookworm/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageOf(totalPages int, ids ...uuid.UUID) *models.BookPage {
	books := make([]models.BookWithOwner, 0, len(ids))
	for _, id := range ids {
		books = append(books, models.BookWithOwner{ID: id})
	}
	return &models.BookPage{Books: books, TotalPages: totalPages}
}

func TestFeed_LoadMore(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	fetcher := NewMockPageFetcher(ctrl)
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	gomock.InOrder(
		fetcher.EXPECT().ListBooks(ctx, 1, 2).Return(pageOf(2, a, b), nil),
		// b shifted onto page 2 after a newer book was posted
		fetcher.EXPECT().ListBooks(ctx, 2, 2).Return(pageOf(2, b, c), nil),
	)

	feed := NewFeed(fetcher, 2)

	fetched, err := feed.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, fetched)
	assert.True(t, feed.HasMore())

	fetched, err = feed.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, fetched)
	assert.False(t, feed.HasMore())

	got := feed.Books()
	require.Len(t, got, 3)
	assert.Equal(t, []uuid.UUID{a, b, c}, []uuid.UUID{got[0].ID, got[1].ID, got[2].ID})

	// last page reached: no request
	fetched, err = feed.LoadMore(ctx)
	require.NoError(t, err)
	assert.False(t, fetched)
}

func TestFeed_InFlightGuard(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	fetcher := NewMockPageFetcher(ctrl)

	started := make(chan struct{})
	release := make(chan struct{})
	fetcher.EXPECT().ListBooks(ctx, 1, DefaultFeedPageSize).
		DoAndReturn(func(context.Context, int, int) (*models.BookPage, error) {
			close(started)
			<-release
			return pageOf(3, uuid.New()), nil
		}).Times(1)

	feed := NewFeed(fetcher, 0)

	done := make(chan error, 1)
	go func() {
		_, err := feed.LoadMore(ctx)
		done <- err
	}()
	<-started

	assert.True(t, feed.Loading())
	fetched, err := feed.LoadMore(ctx)
	assert.NoError(t, err)
	assert.False(t, fetched)
	assert.ErrorIs(t, feed.Refresh(ctx), ErrFetchInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, feed.Loading())
	assert.Len(t, feed.Books(), 1)
}

func TestFeed_Refresh(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	fetcher := NewMockPageFetcher(ctrl)
	a, b, fresh := uuid.New(), uuid.New(), uuid.New()

	gomock.InOrder(
		fetcher.EXPECT().ListBooks(ctx, 1, 2).Return(pageOf(1, a, b), nil),
		fetcher.EXPECT().ListBooks(ctx, 1, 2).Return(pageOf(2, fresh, a), nil),
		fetcher.EXPECT().ListBooks(ctx, 2, 2).Return(pageOf(2, b), nil),
	)

	feed := NewFeed(fetcher, 2)
	_, err := feed.LoadMore(ctx)
	require.NoError(t, err)
	assert.False(t, feed.HasMore())

	require.NoError(t, feed.Refresh(ctx))
	got := feed.Books()
	require.Len(t, got, 2)
	assert.Equal(t, fresh, got[0].ID)
	assert.True(t, feed.HasMore())

	_, err = feed.LoadMore(ctx)
	require.NoError(t, err)
	assert.Len(t, feed.Books(), 3)
}

func TestFeed_ErrorLeavesFeedUnchanged(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	fetcher := NewMockPageFetcher(ctrl)
	a := uuid.New()

	gomock.InOrder(
		fetcher.EXPECT().ListBooks(ctx, 1, 5).Return(pageOf(2, a), nil),
		fetcher.EXPECT().ListBooks(ctx, 2, 5).Return(nil, errors.New("offline")),
		fetcher.EXPECT().ListBooks(ctx, 2, 5).Return(pageOf(2), nil),
	)

	feed := NewFeed(fetcher, 5)
	_, err := feed.LoadMore(ctx)
	require.NoError(t, err)

	fetched, err := feed.LoadMore(ctx)
	assert.EqualError(t, err, "offline")
	assert.False(t, fetched)
	assert.Len(t, feed.Books(), 1)
	assert.True(t, feed.HasMore())
	assert.False(t, feed.Loading())

	// the same page is retried
	_, err = feed.LoadMore(ctx)
	require.NoError(t, err)
	assert.False(t, feed.HasMore())
}
