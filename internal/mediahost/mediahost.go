// Package mediahost abstracts the third-party service that stores the actual
// photo and video files. The catalog only keeps metadata; bytes live here.
package mediahost

import (
	"context"
	"errors"
	"time"

	"github.com/memoriam-site/memoriam/internal/domain"
)

var (
	// ErrUnavailable wraps any failure to reach or authenticate with the
	// media host. Reads recover from it by falling back to persisted
	// metadata; mutations surface it.
	ErrUnavailable = errors.New("media host unavailable")
	// ErrObjectMissing reports that the host has no object with the given
	// storage id. A delete hitting it has found metadata drift: the object
	// is already gone remotely.
	ErrObjectMissing = errors.New("object missing from media host")
)

// Object is one stored asset as reported by a listing call.
type Object struct {
	StorageID string
	URL       string
	CreatedAt time.Time
	Width     int
	Height    int
	Format    string
	Kind      domain.MediaKind
}

// UploadResult is what the host reports after accepting a new file. The host
// detects the media kind and dimensions itself.
type UploadResult struct {
	StorageID string
	URL       string
	Width     int
	Height    int
	Format    string
	Kind      domain.MediaKind
}

type MediaHost interface {
	// List returns every object whose storage path starts with prefix.
	List(ctx context.Context, prefix string) ([]Object, error)
	// Upload stores data under a new object in the given folder.
	Upload(ctx context.Context, data []byte, folder string) (*UploadResult, error)
	// Delete removes the object with the given storage id.
	Delete(ctx context.Context, storageID string, kind domain.MediaKind) error
	// Ping verifies the host is reachable with the configured credentials.
	Ping(ctx context.Context) error
}
