package services

import "errors"

// Error taxonomy for the image core. Handlers collapse all of these to a
// 400 response; the sentinels exist so callers and tests can tell the
// kinds apart with errors.Is.
var (
	ErrUnauthorized           = errors.New("authentication required")
	ErrForbidden              = errors.New("access denied")
	ErrInvalidInput           = errors.New("invalid request")
	ErrInvalidImageID         = errors.New("invalid image id")
	ErrImageNotFound          = errors.New("image does not exist")
	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrPresignFailed          = errors.New("could not presign upload")
)
