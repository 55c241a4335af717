// Package storage keeps translated outputs until they are downloaded.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/transdoc/api/internal/formats"
)

var (
	ErrInvalidName = errors.New("invalid file name")
	ErrNotFound    = errors.New("file not found")
	ErrEmptyOutput = errors.New("refusing to store empty output")
)

// Store persists translated documents by name.
type Store interface {
	Save(ctx context.Context, name string, data []byte) error
	// Open returns the stored bytes; the caller must Close the reader.
	Open(ctx context.Context, name string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, name string) error
	// Sweep removes outputs older than maxAge and returns how many went.
	Sweep(ctx context.Context, maxAge time.Duration) (int, error)
}

// OutputName builds translated-<jobId>-<unixMillis><ext>.
func OutputName(jobID, ext string, now time.Time) string {
	return fmt.Sprintf("translated-%s-%d%s", jobID, now.UnixMilli(), strings.ToLower(ext))
}

// ValidateName rejects names that could escape the output directory or
// that carry an extension the pipeline never produces.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return ErrInvalidName
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return ErrInvalidName
	}
	if filepath.Base(name) != name {
		return ErrInvalidName
	}
	if !formats.IsSupportedExt(filepath.Ext(name)) {
		return ErrInvalidName
	}
	return nil
}

// deleteOnClose removes the stored file once the reader is closed.
type deleteOnClose struct {
	io.ReadCloser
	onClose func()
}

func (d *deleteOnClose) Close() error {
	err := d.ReadCloser.Close()
	d.onClose()
	return err
}

// OpenOnce opens name and deletes it from the store when the returned
// reader is closed.
func OpenOnce(ctx context.Context, s Store, name string, onDeleteErr func(error)) (io.ReadCloser, int64, error) {
	if err := ValidateName(name); err != nil {
		return nil, 0, err
	}
	rc, size, err := s.Open(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	return &deleteOnClose{
		ReadCloser: rc,
		onClose: func() {
			if err := s.Delete(context.Background(), name); err != nil && onDeleteErr != nil {
				onDeleteErr(err)
			}
		},
	}, size, nil
}
