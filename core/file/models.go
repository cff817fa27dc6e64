package file

import (
	"context"
	"io"
	"time"
)

// File references an uploaded attachment. The stored bytes live behind the
// Storage collaborator; the record only carries the opaque storage key.
type File struct {
	ID           int       `json:"id"`
	UserID       int       `json:"user_id"`
	OriginalName string    `json:"original_name"`
	Mime         string    `json:"mime"`
	Size         int64     `json:"size"`
	StorageKey   string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewFilePayload is the real-time notice broadcast to the admins room on
// upload; the record itself is fetched over HTTP.
type NewFilePayload struct {
	UserID int `json:"userId"`
	FileID int `json:"fileId"`
}

// Upload is an incoming attachment stream.
type Upload struct {
	Name string
	Mime string
	Size int64
	Body io.Reader
}

// Storage stores and serves raw file bytes under opaque keys.
type Storage interface {
	// Save persists the upload under the given prefix and returns its storage key.
	Save(ctx context.Context, prefix string, up Upload) (string, error)
	Remove(ctx context.Context, key string) error
	// PublicURL resolves a storage key to a client-fetchable URL.
	PublicURL(key string) string
}
