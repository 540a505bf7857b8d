package services

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/nearbite/restaurant-api/config"
	"github.com/nearbite/restaurant-api/types"
	"github.com/nearbite/restaurant-api/utils"
)

const reviewImageURLExpiry = time.Hour

var reviewImageContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
}

type ReviewImageUploader interface {
	PresignReviewImage(ctx context.Context, req types.ReviewImageUploadRequest) (*types.PresignedURLResponse, error)
}

// UploadService hands out presigned PUT URLs so the front end can upload
// review images straight to R2; the resulting fileUrl goes into review.images.
type UploadService struct {
	restaurants RestaurantServiceInterface
	r2Config    config.R2Config
	presigner   *s3.PresignClient
	validate    *validator.Validate
	now         func() time.Time
}

func NewUploadService(r2Config config.R2Config, restaurants RestaurantServiceInterface) *UploadService {
	svc := &UploadService{
		restaurants: restaurants,
		r2Config:    r2Config,
		validate:    validator.New(),
		now:         time.Now,
	}
	if !r2Config.Enabled() {
		log.Println("R2 is not configured, review image uploads disabled")
		return svc
	}

	endpoint := r2Config.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r2Config.AccountID)
	}
	client := s3.New(s3.Options{
		BaseEndpoint: aws.String(endpoint),
		Credentials: credentials.NewStaticCredentialsProvider(
			r2Config.AccessKeyID,
			r2Config.SecretAccessKey,
			"",
		),
		Region:       r2Config.Region,
		UsePathStyle: true,
	})
	svc.presigner = s3.NewPresignClient(client)
	return svc
}

func (us *UploadService) PresignReviewImage(ctx context.Context, req types.ReviewImageUploadRequest) (*types.PresignedURLResponse, error) {
	if us.presigner == nil {
		return nil, utils.ErrUploadsDisabled
	}
	if err := us.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: restaurantId, fileName and contentType are required", utils.ErrInvalidInput)
	}
	if !reviewImageContentTypes[strings.ToLower(req.ContentType)] {
		return nil, utils.ErrInvalidContentType
	}

	if _, err := us.restaurants.GetRestaurant(ctx, req.RestaurantID); err != nil {
		return nil, err
	}

	key := us.reviewImageKey(req.RestaurantID, req.FileName)
	presigned, err := us.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(us.r2Config.BucketName),
		Key:         aws.String(key),
		ContentType: aws.String(req.ContentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = reviewImageURLExpiry
	})
	if err != nil {
		log.Printf("Error presigning review image upload: %v", err)
		return nil, fmt.Errorf("failed to create upload url: %w", err)
	}

	return &types.PresignedURLResponse{
		UploadURL: presigned.URL,
		FileURL:   fmt.Sprintf("%s/%s", strings.TrimRight(us.r2Config.PublicURL, "/"), key),
		Key:       key,
		ExpiresIn: int(reviewImageURLExpiry.Seconds()),
	}, nil
}

func (us *UploadService) reviewImageKey(restaurantID, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("reviews/%s/%d_%s%s", restaurantID, us.now().Unix(), uuid.New().String(), ext)
}
