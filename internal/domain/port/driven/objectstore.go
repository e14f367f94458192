package driven

import "context"

// ObjectStore defines the driven port for uploaded media. Objects are
// addressed by bucket and flat object name.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, name, contentType string, data []byte) error
	PublicURL(bucket, name string) string
	Remove(ctx context.Context, bucket string, names ...string) error
}
