package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sbilibin2017/bookworm/internal/metrics"
	"github.com/sbilibin2017/bookworm/internal/models"
	"github.com/sbilibin2017/bookworm/internal/validation"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cloudURL = "https://res.cloudinary.com/demo/image/upload/v1/abc123.jpg"

type bookMocks struct {
	reader *MockBookReader
	writer *MockBookWriter
	images *MockImageStore
	kafka  *MockKafkaWriter
}

func newBookService(t *testing.T, withKafka bool) (*BookService, bookMocks) {
	ctrl := gomock.NewController(t)
	m := bookMocks{
		reader: NewMockBookReader(ctrl),
		writer: NewMockBookWriter(ctrl),
		images: NewMockImageStore(ctrl),
		kafka:  NewMockKafkaWriter(ctrl),
	}
	var kw KafkaWriter
	if withKafka {
		kw = m.kafka
	}
	return NewBookService(m.reader, m.writer, m.images, kw, validation.New()), m
}

func rating(v int) *int { return &v }

func TestBookService_Create(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	valid := models.NewBook{Title: "Dune", Caption: "Spice", Image: "data:image/png;base64,AAAA", Rating: rating(5)}

	t.Run("stores the uploaded url", func(t *testing.T) {
		svc, m := newBookService(t, true)
		before := testutil.ToFloat64(metrics.BooksCreated)

		m.images.EXPECT().Upload(ctx, valid.Image).Return(cloudURL, nil)
		m.writer.EXPECT().Create(ctx, userID, "Dune", "Spice", cloudURL, 5).
			Return(&models.Book{ID: uuid.New(), Title: "Dune", Image: cloudURL, Rating: 5, UserID: userID}, nil)
		m.kafka.EXPECT().WriteMessages(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, msgs ...kafka.Message) error {
				require.Len(t, msgs, 1)
				var ev models.BookEvent
				require.NoError(t, json.Unmarshal(msgs[0].Value, &ev))
				assert.Equal(t, models.BookCreated, ev.Type)
				assert.Equal(t, userID.String(), ev.UserID)
				return nil
			})

		book, err := svc.Create(ctx, userID, valid)
		require.NoError(t, err)
		assert.Equal(t, cloudURL, book.Image)
		assert.Equal(t, userID, book.UserID)
		assert.Equal(t, before+1, testutil.ToFloat64(metrics.BooksCreated))
	})

	invalid := []struct {
		name  string
		input models.NewBook
		field string
	}{
		{"missing title", models.NewBook{Caption: "c", Image: "i", Rating: rating(3)}, "title"},
		{"missing caption", models.NewBook{Title: "t", Image: "i", Rating: rating(3)}, "caption"},
		{"missing image", models.NewBook{Title: "t", Caption: "c", Rating: rating(3)}, "image"},
		{"missing rating", models.NewBook{Title: "t", Caption: "c", Image: "i"}, "rating"},
		{"rating zero", models.NewBook{Title: "t", Caption: "c", Image: "i", Rating: rating(0)}, "rating"},
		{"rating too high", models.NewBook{Title: "t", Caption: "c", Image: "i", Rating: rating(6)}, "rating"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			// no upload and no write are expected
			svc, _ := newBookService(t, true)

			_, err := svc.Create(ctx, userID, tt.input)
			require.ErrorIs(t, err, validation.ErrInvalid)
			var verr *validation.Error
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}

	t.Run("upload failure skips the write", func(t *testing.T) {
		svc, m := newBookService(t, true)
		m.images.EXPECT().Upload(ctx, valid.Image).Return("", errors.New("upload failed"))

		_, err := svc.Create(ctx, userID, valid)
		assert.EqualError(t, err, "upload failed")
	})

	t.Run("write failure", func(t *testing.T) {
		svc, m := newBookService(t, false)
		m.images.EXPECT().Upload(ctx, valid.Image).Return(cloudURL, nil)
		m.writer.EXPECT().Create(ctx, userID, "Dune", "Spice", cloudURL, 5).Return(nil, errors.New("db error"))

		_, err := svc.Create(ctx, userID, valid)
		assert.EqualError(t, err, "db error")
	})
}

func TestBookService_List(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name                string
		page, limit         int
		wantPage, wantLimit int
		total               int
		wantPages           int
	}{
		{"second page of twelve", 2, 5, 2, 5, 12, 3},
		{"defaults", 0, 0, DefaultPage, DefaultPageSize, 7, 2},
		{"negative values", -3, -1, DefaultPage, DefaultPageSize, 0, 0},
		{"exact fit", 1, 4, 1, 4, 8, 2},
		{"limit near max int", 1, math.MaxInt, 1, math.MaxInt, 12, 1},
		{"limit near max int empty", 1, math.MaxInt, 1, math.MaxInt, 0, 0},
		{"page past any offset", 1<<62 + 1, 4, 1<<62 + 1, 4, 12, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newBookService(t, false)
			m.reader.EXPECT().ListPage(ctx, tt.wantPage, tt.wantLimit).Return([]models.BookWithOwner{}, tt.total, nil)

			page, err := svc.List(ctx, tt.page, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, page.CurrentPage)
			assert.Equal(t, tt.total, page.TotalBooks)
			assert.Equal(t, tt.wantPages, page.TotalPages)
			assert.NotNil(t, page.Books)
		})
	}

	t.Run("reader error", func(t *testing.T) {
		svc, m := newBookService(t, false)
		m.reader.EXPECT().ListPage(ctx, 1, 5).Return(nil, 0, errors.New("db error"))

		_, err := svc.List(ctx, 1, 5)
		assert.Error(t, err)
	})
}

func TestBookService_ListByUser(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, m := newBookService(t, false)
	books := []models.Book{{ID: uuid.New(), UserID: userID}, {ID: uuid.New(), UserID: userID}}
	m.reader.EXPECT().ListByOwner(ctx, userID).Return(books, nil)

	got, err := svc.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestBookService_Delete(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	bookID := uuid.New()
	book := &models.Book{ID: bookID, UserID: owner, Image: cloudURL}

	t.Run("owner deletes book and image", func(t *testing.T) {
		svc, m := newBookService(t, true)
		before := testutil.ToFloat64(metrics.BooksDeleted)

		gomock.InOrder(
			m.reader.EXPECT().GetByID(ctx, bookID).Return(book, nil),
			m.images.EXPECT().Owns(cloudURL).Return(true),
			m.images.EXPECT().Delete(ctx, cloudURL).Return(nil),
			m.writer.EXPECT().Delete(ctx, bookID).Return(nil),
			m.kafka.EXPECT().WriteMessages(ctx, gomock.Any()).Return(nil),
		)

		require.NoError(t, svc.Delete(ctx, owner, bookID))
		assert.Equal(t, before+1, testutil.ToFloat64(metrics.BooksDeleted))
	})

	t.Run("foreign image is left alone", func(t *testing.T) {
		svc, m := newBookService(t, false)
		foreign := &models.Book{ID: bookID, UserID: owner, Image: "https://example.com/cover.png"}
		m.reader.EXPECT().GetByID(ctx, bookID).Return(foreign, nil)
		m.images.EXPECT().Owns(foreign.Image).Return(false)
		m.writer.EXPECT().Delete(ctx, bookID).Return(nil)

		assert.NoError(t, svc.Delete(ctx, owner, bookID))
	})

	t.Run("image delete failure is not fatal", func(t *testing.T) {
		svc, m := newBookService(t, false)
		before := testutil.ToFloat64(metrics.ImageDeleteFailures)
		m.reader.EXPECT().GetByID(ctx, bookID).Return(book, nil)
		m.images.EXPECT().Owns(cloudURL).Return(true)
		m.images.EXPECT().Delete(ctx, cloudURL).Return(errors.New("cloud down"))
		m.writer.EXPECT().Delete(ctx, bookID).Return(nil)

		assert.NoError(t, svc.Delete(ctx, owner, bookID))
		assert.Equal(t, before+1, testutil.ToFloat64(metrics.ImageDeleteFailures))
	})

	t.Run("non owner is refused", func(t *testing.T) {
		svc, m := newBookService(t, true)
		m.reader.EXPECT().GetByID(ctx, bookID).Return(book, nil)

		assert.ErrorIs(t, svc.Delete(ctx, uuid.New(), bookID), ErrForbidden)
	})

	t.Run("missing book", func(t *testing.T) {
		svc, m := newBookService(t, true)
		m.reader.EXPECT().GetByID(ctx, bookID).Return(nil, nil).Times(2)

		assert.ErrorIs(t, svc.Delete(ctx, owner, bookID), ErrBookNotFound)
		assert.ErrorIs(t, svc.Delete(ctx, owner, bookID), ErrBookNotFound)
	})

	t.Run("concurrently removed", func(t *testing.T) {
		svc, m := newBookService(t, false)
		m.reader.EXPECT().GetByID(ctx, bookID).Return(&models.Book{ID: bookID, UserID: owner}, nil)
		m.writer.EXPECT().Delete(ctx, bookID).Return(sql.ErrNoRows)

		assert.ErrorIs(t, svc.Delete(ctx, owner, bookID), ErrBookNotFound)
	})

	t.Run("reader error", func(t *testing.T) {
		svc, m := newBookService(t, false)
		m.reader.EXPECT().GetByID(ctx, bookID).Return(nil, errors.New("db error"))

		assert.EqualError(t, svc.Delete(ctx, owner, bookID), "db error")
	})
}

func TestBookService_publishEvent(t *testing.T) {
	ctx := context.Background()
	book := &models.Book{ID: uuid.New(), UserID: uuid.New()}

	ctrl := gomock.NewController(t)
	mockKafka := NewMockKafkaWriter(ctrl)
	svc := &BookService{kafkaWriter: mockKafka}

	mockKafka.EXPECT().WriteMessages(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, msgs ...kafka.Message) error {
			assert.Equal(t, book.ID.String(), string(msgs[0].Key))
			return nil
		})
	svc.publishEvent(ctx, models.BookDeleted, book)

	mockKafka.EXPECT().WriteMessages(ctx, gomock.Any()).Return(errors.New("kafka error"))
	svc.publishEvent(ctx, models.BookDeleted, book)

	// nil writer must not panic
	svc = &BookService{}
	svc.publishEvent(ctx, models.BookCreated, book)
}
