package utils

import "errors"

var (
	ErrInvalidID          = errors.New("invalid restaurant id")
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDatabaseError      = errors.New("database error")
	ErrUploadsDisabled    = errors.New("image uploads are not configured")
	ErrInvalidContentType = errors.New("unsupported image content type")
)
