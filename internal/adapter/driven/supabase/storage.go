package supabase

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ericfisherdev/folio/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ObjectStore = (*Storage)(nil)

// Storage implements the ObjectStore port over Supabase Storage. Buckets are
// expected to be public.
type Storage struct {
	c *Client
}

// NewStorage creates a Storage using c.
func NewStorage(c *Client) *Storage {
	return &Storage{c: c}
}

func objectPath(bucket, name string) string {
	return "/storage/v1/object/" + bucket + "/" + name
}

// Upload stores data as bucket/name. Existing objects are not overwritten.
func (s *Storage) Upload(ctx context.Context, bucket, name, contentType string, data []byte) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	err := s.c.do(ctx, request{
		method: http.MethodPost,
		path:   objectPath(bucket, name),
		header: http.Header{
			"Content-Type":  {contentType},
			"Cache-Control": {"3600"},
			"X-Upsert":      {"false"},
		},
		raw: data,
	}, nil)
	if err != nil {
		return fmt.Errorf("upload %s/%s: %w", bucket, name, err)
	}
	return nil
}

// PublicURL returns the public URL of bucket/name.
func (s *Storage) PublicURL(bucket, name string) string {
	return s.c.endpoint("/storage/v1/object/public/"+bucket+"/"+name, nil)
}

// Remove deletes the named objects from bucket.
func (s *Storage) Remove(ctx context.Context, bucket string, names ...string) error {
	if len(names) == 0 {
		return nil
	}

	err := s.c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/storage/v1/object/" + bucket,
		body:   map[string][]string{"prefixes": names},
	}, nil)
	if err != nil {
		return fmt.Errorf("remove from %s: %w", bucket, err)
	}
	return nil
}
