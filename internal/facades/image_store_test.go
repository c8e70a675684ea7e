package facades

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploadAPI struct {
	uploadResp *uploader.UploadResult
	uploadErr  error
	destroyErr error

	uploaded  []interface{}
	destroyed []string
}

func (f *fakeUploadAPI) Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	f.uploaded = append(f.uploaded, file)
	return f.uploadResp, f.uploadErr
}

func (f *fakeUploadAPI) Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.destroyed = append(f.destroyed, params.PublicID)
	if f.destroyErr != nil {
		return nil, f.destroyErr
	}
	return &uploader.DestroyResult{Result: "ok"}, nil
}

func TestCloudinaryImageFacade_Upload(t *testing.T) {
	const payload = "data:image/jpeg;base64,/9j/4AAQ"

	tests := []struct {
		name    string
		api     *fakeUploadAPI
		wantURL string
		wantErr bool
	}{
		{
			name:    "success",
			api:     &fakeUploadAPI{uploadResp: &uploader.UploadResult{SecureURL: "https://res.cloudinary.com/demo/image/upload/v1/abc123.jpg"}},
			wantURL: "https://res.cloudinary.com/demo/image/upload/v1/abc123.jpg",
		},
		{
			name:    "transport error",
			api:     &fakeUploadAPI{uploadErr: errors.New("connection reset")},
			wantErr: true,
		},
		{
			name:    "api error body",
			api:     &fakeUploadAPI{uploadResp: &uploader.UploadResult{Error: api.ErrorResp{Message: "Invalid image file"}}},
			wantErr: true,
		},
		{
			name:    "empty url",
			api:     &fakeUploadAPI{uploadResp: &uploader.UploadResult{}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCloudinaryImageFacade(tt.api)

			got, err := f.Upload(context.Background(), payload)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUpload)
				assert.Empty(t, got)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantURL, got)
			}
			require.Len(t, tt.api.uploaded, 1)
			assert.Equal(t, payload, tt.api.uploaded[0])
		})
	}
}

func TestCloudinaryImageFacade_BreakerOpensAfterFailures(t *testing.T) {
	fake := &fakeUploadAPI{uploadErr: errors.New("503")}
	f := newCloudinaryImageFacade(fake)

	for i := 0; i < 5; i++ {
		_, err := f.Upload(context.Background(), "x")
		assert.ErrorIs(t, err, ErrUpload)
	}
	_, err := f.Upload(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUpload)

	assert.Len(t, fake.uploaded, 5)
}

func TestCloudinaryImageFacade_DeleteFailuresKeepUploadsOpen(t *testing.T) {
	fake := &fakeUploadAPI{
		uploadResp: &uploader.UploadResult{SecureURL: "https://res.cloudinary.com/demo/image/upload/v1/new.png"},
		destroyErr: errors.New("not found"),
	}
	f := newCloudinaryImageFacade(fake)

	for i := 0; i < 6; i++ {
		err := f.Delete(context.Background(), "https://res.cloudinary.com/demo/image/upload/v1/old.png")
		assert.Error(t, err)
	}
	assert.Len(t, fake.destroyed, 5, "destroy breaker opens after five failures")

	url, err := f.Upload(context.Background(), "data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/v1/new.png", url)
}

func TestCloudinaryImageFacade_Delete(t *testing.T) {
	t.Run("managed url", func(t *testing.T) {
		fake := &fakeUploadAPI{}
		f := newCloudinaryImageFacade(fake)

		err := f.Delete(context.Background(), "https://res.cloudinary.com/demo/image/upload/v1700000000/qwerty.png")
		assert.NoError(t, err)
		assert.Equal(t, []string{"qwerty"}, fake.destroyed)
	})

	t.Run("foreign url", func(t *testing.T) {
		fake := &fakeUploadAPI{}
		f := newCloudinaryImageFacade(fake)

		err := f.Delete(context.Background(), "https://images.example.com/covers/dune.jpg")
		assert.ErrorIs(t, err, ErrNotManaged)
		assert.Empty(t, fake.destroyed)
	})

	t.Run("destroy error", func(t *testing.T) {
		fake := &fakeUploadAPI{destroyErr: errors.New("timeout")}
		f := newCloudinaryImageFacade(fake)

		err := f.Delete(context.Background(), "https://res.cloudinary.com/demo/image/upload/abc.jpg")
		assert.Error(t, err)
	})
}

func TestCloudinaryImageFacade_Owns(t *testing.T) {
	f := newCloudinaryImageFacade(&fakeUploadAPI{})

	assert.True(t, f.Owns("https://res.cloudinary.com/demo/image/upload/abc.jpg"))
	assert.False(t, f.Owns("https://example.com/abc.jpg"))
	assert.False(t, f.Owns(""))
}

func TestPublicID(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1/abc123.jpg", "abc123", false},
		{"https://res.cloudinary.com/demo/image/upload/v1/abc.tar.gz", "abc", false},
		{"https://res.cloudinary.com/demo/image/upload/noext", "noext", false},
		{"https://res.cloudinary.com/", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := PublicID(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
