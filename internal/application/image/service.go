package image

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"

	"github.com/gabriel-vasile/mimetype"

	"github.com/bike-resale-api/internal/domain"
	"github.com/bike-resale-api/internal/metrics"
	"github.com/bike-resale-api/internal/pkg/id"
)

// Object store folders.
const (
	FolderBikes   = "bike_uploads"
	FolderAvatars = "avatars"
)

var allowed = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// Upload is one client-supplied image.
type Upload struct {
	Reader   io.Reader
	Filename string
}

// CleanupResult reports a best-effort deletion. It is logged, never returned
// as an operation error.
type CleanupResult struct {
	Deleted []string
	Failed  map[string]error
}

func (r CleanupResult) LogValue() slog.Value {
	failed := make([]string, 0, len(r.Failed))
	for u := range r.Failed {
		failed = append(failed, u)
	}
	return slog.GroupValue(
		slog.Int("deleted", len(r.Deleted)),
		slog.Any("failed", failed),
	)
}

type Service interface {
	// Store validates one image and uploads it under folder, returning its URL.
	Store(ctx context.Context, folder string, up Upload) (string, error)
	// StoreAll uploads every image or none: on failure, already-uploaded
	// objects are removed.
	StoreAll(ctx context.Context, folder string, ups []Upload) ([]string, error)
	// Remove deletes the objects behind urls, best-effort.
	Remove(ctx context.Context, folder string, urls []string) CleanupResult
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type ServiceDeps struct {
	Store    objectStore
	MaxBytes int64
	Metrics  metrics.Recorder
}

type service struct {
	store    objectStore
	maxBytes int64
	metrics  metrics.Recorder
}

func NewService(deps ServiceDeps) Service {
	s := &service{store: deps.Store, maxBytes: deps.MaxBytes, metrics: deps.Metrics}
	if s.maxBytes <= 0 {
		s.maxBytes = 10 << 20
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop{}
	}
	return s
}

func (s *service) Store(ctx context.Context, folder string, up Upload) (string, error) {
	data, err := io.ReadAll(io.LimitReader(up.Reader, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload %q: %w", up.Filename, err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("image %q exceeds %d bytes: %w", up.Filename, s.maxBytes, domain.ErrValidation)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("image %q is empty: %w", up.Filename, domain.ErrValidation)
	}
	mt := mimetype.Detect(data)
	ext, ok := allowed[mt.String()]
	if !ok {
		return "", fmt.Errorf("image %q: only jpg and png are allowed, got %s: %w", up.Filename, mt.String(), domain.ErrValidation)
	}
	key := folder + "/" + id.New() + ext
	return s.store.Upload(ctx, key, bytes.NewReader(data), mt.String())
}

func (s *service) StoreAll(ctx context.Context, folder string, ups []Upload) ([]string, error) {
	urls := make([]string, 0, len(ups))
	for _, up := range ups {
		u, err := s.Store(ctx, folder, up)
		if err != nil {
			if len(urls) > 0 {
				res := s.Remove(ctx, folder, urls)
				slog.Warn("rolled back partial image upload", "folder", folder, "cleanup", res)
			}
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}

func (s *service) Remove(ctx context.Context, folder string, urls []string) CleanupResult {
	res := CleanupResult{Failed: map[string]error{}}
	for _, u := range urls {
		key, err := DerivedKey(folder, u)
		if err == nil {
			err = s.store.Delete(ctx, key)
		}
		if err != nil {
			slog.Warn("failed to delete image", "url", u, "err", err)
			res.Failed[u] = err
			continue
		}
		res.Deleted = append(res.Deleted, u)
	}
	s.metrics.RecordImageCleanup(len(res.Deleted), len(res.Failed))
	return res
}

// DerivedKey maps a stored image URL back to its object key: the folder plus
// the last path segment of the URL.
func DerivedKey(folder, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse image url: %w", err)
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return "", fmt.Errorf("image url %q has no object name", rawURL)
	}
	return folder + "/" + base, nil
}
