package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/transdoc/api/internal/client"
	"github.com/transdoc/api/internal/formats"
)

// ObjectClient is the subset of the R2 client the store uses.
type ObjectClient interface {
	Upload(ctx context.Context, name string, body io.Reader, size int64, contentType string) error
	Download(ctx context.Context, name string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]client.ObjectInfo, error)
}

// R2Store keeps outputs in an R2 bucket.
type R2Store struct {
	client ObjectClient
}

func NewR2Store(c ObjectClient) *R2Store {
	return &R2Store{client: c}
}

func (s *R2Store) Save(ctx context.Context, name string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if len(data) == 0 {
		return ErrEmptyOutput
	}
	return s.client.Upload(ctx, name, bytes.NewReader(data), int64(len(data)), formats.ContentTypeForName(name))
}

func (s *R2Store) Open(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	if err := ValidateName(name); err != nil {
		return nil, 0, err
	}
	rc, size, err := s.client.Download(ctx, name)
	if errors.Is(err, client.ErrObjectNotFound) {
		return nil, 0, ErrNotFound
	}
	return rc, size, err
}

func (s *R2Store) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	return s.client.Delete(ctx, name)
}

func (s *R2Store) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	objects, err := s.client.List(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, obj := range objects {
		if obj.LastModified.After(cutoff) {
			continue
		}
		if err := s.client.Delete(ctx, obj.Key); err == nil {
			removed++
		}
	}
	return removed, nil
}
