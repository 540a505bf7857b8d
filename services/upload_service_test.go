package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nearbite/restaurant-api/config"
	"github.com/nearbite/restaurant-api/repositories"
	"github.com/nearbite/restaurant-api/types"
	"github.com/nearbite/restaurant-api/utils"
)

func testR2Config() config.R2Config {
	return config.R2Config{
		AccountID:       "account",
		AccessKeyID:     "access",
		SecretAccessKey: "secret",
		BucketName:      "reviews-bucket",
		PublicURL:       "https://cdn.example.com/",
		Region:          "auto",
		Endpoint:        "https://r2.example.com",
	}
}

func newTestUploadService(t *testing.T, r2 config.R2Config) (*UploadService, string) {
	t.Helper()
	restaurants := NewRestaurantService(repositories.NewMemoryRestaurantRepository())
	created, err := restaurants.CreateRestaurant(context.Background(), types.CreateRestaurantInput{Name: "Diner", Address: "Road"})
	require.NoError(t, err)

	svc := NewUploadService(r2, restaurants)
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	return svc, created.ID
}

func TestPresignReviewImage_Disabled(t *testing.T) {
	svc, id := newTestUploadService(t, config.R2Config{})

	_, err := svc.PresignReviewImage(context.Background(), types.ReviewImageUploadRequest{
		RestaurantID: id, FileName: "a.jpg", ContentType: "image/jpeg",
	})
	assert.ErrorIs(t, err, utils.ErrUploadsDisabled)
}

func TestPresignReviewImage(t *testing.T) {
	svc, id := newTestUploadService(t, testR2Config())

	resp, err := svc.PresignReviewImage(context.Background(), types.ReviewImageUploadRequest{
		RestaurantID: id, FileName: "Photo.JPG", ContentType: "image/jpeg",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.Key, "reviews/"+id+"/1700000000_"))
	assert.True(t, strings.HasSuffix(resp.Key, ".jpg"))
	assert.Equal(t, "https://cdn.example.com/"+resp.Key, resp.FileURL)
	assert.Contains(t, resp.UploadURL, "https://r2.example.com/reviews-bucket/")
	assert.Contains(t, resp.UploadURL, "X-Amz-Signature=")
	assert.Equal(t, 3600, resp.ExpiresIn)
}

func TestPresignReviewImage_Rejections(t *testing.T) {
	svc, id := newTestUploadService(t, testR2Config())
	ctx := context.Background()

	_, err := svc.PresignReviewImage(ctx, types.ReviewImageUploadRequest{RestaurantID: id, FileName: "a.gif", ContentType: "image/gif"})
	assert.ErrorIs(t, err, utils.ErrInvalidContentType)

	_, err = svc.PresignReviewImage(ctx, types.ReviewImageUploadRequest{RestaurantID: id, ContentType: "image/png"})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	_, err = svc.PresignReviewImage(ctx, types.ReviewImageUploadRequest{
		RestaurantID: "6f1c7a7e-2d7b-4a4c-9b1e-0a6f3c2d1e00", FileName: "a.png", ContentType: "image/png",
	})
	assert.ErrorIs(t, err, utils.ErrRestaurantNotFound)
}
