// Package storage holds the binary PDF payloads outside the relational store.
// Rows keep only the key returned by NewKey.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/chempartner/paperdesk/config"
	"github.com/google/uuid"
)

var (
	ErrBlobNotFound = errors.New("blob not found")
	ErrInvalidKey   = errors.New("invalid blob key")
)

// Object is an open blob. Callers must close Body.
type Object struct {
	Body io.ReadCloser
	Size int64
}

// BlobStore is a flat key/value store for binary payloads. Put must never make
// a partially written payload visible under key.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	Open(ctx context.Context, key string) (*Object, error)
	// Delete returns ErrBlobNotFound when key does not exist.
	Delete(ctx context.Context, key string) error
}

// NewKey names a paper's asset: paper id, second-resolution timestamp and a
// random suffix so two uploads in the same second never collide.
func NewKey(paperID uint, at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("paper_%d_%s_%s.pdf", paperID, at.UTC().Format("20060102150405"), suffix)
}

func validateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) || path.Clean(key) != key {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// NewBlobStore builds the store selected by cfg.Upload.Driver.
func NewBlobStore(ctx context.Context, cfg *config.Config) (BlobStore, error) {
	switch cfg.Upload.Driver {
	case config.StorageLocal, "":
		return NewLocalStore(cfg.Upload.Dir)
	case config.StorageS3:
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Upload.Driver)
	}
}
