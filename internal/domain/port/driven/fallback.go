package driven

import "github.com/ericfisherdev/folio/internal/domain/model"

// FallbackSource provides the bundled static records of a collection. The
// returned records are marked Synthetic and carry synthesised ids.
type FallbackSource interface {
	Fallback(collection string) ([]model.Record, error)
}
