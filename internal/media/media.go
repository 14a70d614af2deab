// Package media prepares uploaded images and turns them into references a record can hold.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotImage is returned for uploads whose content is not an image
var ErrNotImage = errors.New("upload is not an image")

// Upload is one file received from the console
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Compressor reduces an image before it is published
type Compressor interface {
	Compress(ctx context.Context, u Upload) (Upload, error)
}

// Publisher stores an image and returns the reference saved on the record
type Publisher interface {
	Publish(ctx context.Context, u Upload) (string, error)
}

// Passthrough accepts any image unchanged and fills a missing content type
type Passthrough struct{}

func (Passthrough) Compress(_ context.Context, u Upload) (Upload, error) {
	if len(u.Data) == 0 {
		return u, fmt.Errorf("%w: %s is empty", ErrNotImage, u.Name)
	}
	if u.ContentType == "" || u.ContentType == "application/octet-stream" {
		u.ContentType = http.DetectContentType(u.Data)
	}
	if !strings.HasPrefix(u.ContentType, "image/") {
		return u, fmt.Errorf("%w: %s is %s", ErrNotImage, u.Name, u.ContentType)
	}
	return u, nil
}

// DataURIPublisher embeds the image in the record as a base64 data URI
type DataURIPublisher struct{}

func (DataURIPublisher) Publish(_ context.Context, u Upload) (string, error) {
	return "data:" + u.ContentType + ";base64," + base64.StdEncoding.EncodeToString(u.Data), nil
}

// OptimizeImageURL returns a sized variant of an image URL. Images are served
// as stored, so the URL is returned unchanged.
func OptimizeImageURL(url string, width, quality int) string {
	return url
}
