package photo

import (
	"context"
	"io"
)

// Uploader stores a visit photo and returns a URL the mobile client can
// render later from the response history.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// AllowedContentType reports whether the uploaded file is a photo format
// the store accepts.
func AllowedContentType(ct string) bool {
	switch ct {
	case "image/jpeg", "image/png", "image/webp":
		return true
	}
	return false
}
