package facades

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/sbilibin2017/bookworm/internal/logger"
)

// managedMarker identifies image URLs served by the managed store.
const managedMarker = "cloudinary"

var (
	// ErrUpload is returned when the image store could not take an upload.
	ErrUpload = errors.New("image upload failed")
	// ErrNotManaged is returned when asked to delete an image the store does not own.
	ErrNotManaged = errors.New("image is not held by the managed store")
)

// uploadAPI is the subset of the Cloudinary upload API used by the facade.
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// CloudinaryImageFacade stores book cover images in Cloudinary.
// Uploads and deletes trip separate breakers so failing cleanups never
// block new books.
type CloudinaryImageFacade struct {
	api      uploadAPI
	uploadCB *gobreaker.CircuitBreaker[string]
	deleteCB *gobreaker.CircuitBreaker[string]
}

// NewCloudinaryImageFacade creates a facade from account credentials.
func NewCloudinaryImageFacade(cloudName, apiKey, apiSecret string) (*CloudinaryImageFacade, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return newCloudinaryImageFacade(&cld.Upload), nil
}

func newCloudinaryImageFacade(api uploadAPI) *CloudinaryImageFacade {
	return &CloudinaryImageFacade{
		api:      api,
		uploadCB: newBreaker("cloudinary-upload"),
		deleteCB: newBreaker("cloudinary-destroy"),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker[string] {
	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Log.Warnw("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
}

// Upload sends payload (a data URI or a remote URL) to the store and
// returns the secure URL of the stored image.
func (f *CloudinaryImageFacade) Upload(ctx context.Context, payload string) (string, error) {
	imageURL, err := f.uploadCB.Execute(func() (string, error) {
		resp, err := f.api.Upload(ctx, payload, uploader.UploadParams{ResourceType: "image"})
		if err != nil {
			return "", err
		}
		if resp.Error.Message != "" {
			return "", errors.New(resp.Error.Message)
		}
		if resp.SecureURL == "" {
			return "", errors.New("empty secure_url in upload response")
		}
		return resp.SecureURL, nil
	})
	if err != nil {
		logger.Log.Errorw("failed to upload image to cloudinary", "error", err)
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	return imageURL, nil
}

// Owns reports whether imageURL points into the managed store.
func (f *CloudinaryImageFacade) Owns(imageURL string) bool {
	return strings.Contains(imageURL, managedMarker)
}

// Delete removes the image behind imageURL from the store.
func (f *CloudinaryImageFacade) Delete(ctx context.Context, imageURL string) error {
	if !f.Owns(imageURL) {
		return ErrNotManaged
	}
	publicID, err := PublicID(imageURL)
	if err != nil {
		return err
	}

	_, err = f.deleteCB.Execute(func() (string, error) {
		resp, err := f.api.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
		if err != nil {
			return "", err
		}
		if resp.Error.Message != "" {
			return "", errors.New(resp.Error.Message)
		}
		return resp.Result, nil
	})
	if err != nil {
		logger.Log.Errorw("failed to delete image from cloudinary", "public_id", publicID, "error", err)
		return fmt.Errorf("delete image %s: %w", publicID, err)
	}
	return nil
}

// PublicID derives the store identifier from an image URL: the last path
// segment up to its first dot.
func PublicID(imageURL string) (string, error) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "", fmt.Errorf("parse image url: %w", err)
	}
	name := path.Base(u.Path)
	id, _, _ := strings.Cut(name, ".")
	if id == "" || id == "/" || id == "." {
		return "", fmt.Errorf("no public id in %q", imageURL)
	}
	return id, nil
}
