// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/folio/internal/domain/model"
	"github.com/ericfisherdev/folio/internal/domain/port/driven"
)

// LoadSource tells where the records of a LoadResult came from.
type LoadSource string

const (
	SourceRemote   LoadSource = "remote"
	SourceFallback LoadSource = "fallback"
)

// LoadResult is the outcome of a record load. Records is never nil.
type LoadResult struct {
	Records []model.Record
	Source  LoadSource
}

// LoadSink receives the state transitions of an asynchronous load.
type LoadSink interface {
	SetLoading(loading bool)
	SetResult(result LoadResult)
}

// RecordLoader reads a collection from the row store and substitutes the
// bundled fallback records when the read fails. A nil store means no backend
// is configured; every load then falls back.
type RecordLoader struct {
	store    driven.RowStore
	fallback driven.FallbackSource
	logger   *slog.Logger
}

// NewRecordLoader creates a RecordLoader. store may be nil.
func NewRecordLoader(store driven.RowStore, fallback driven.FallbackSource, logger *slog.Logger) *RecordLoader {
	return &RecordLoader{
		store:    store,
		fallback: fallback,
		logger:   logger,
	}
}

// Load reads the records selected by q. It never fails: a store error is
// logged at Warn and answered with the fallback list. A successful read that
// returns no rows is a genuine empty state and is returned as such.
func (l *RecordLoader) Load(ctx context.Context, q driven.Query) LoadResult {
	q.Order = q.Order.Normalize()

	records, err := l.selectRemote(ctx, q)
	if err == nil {
		if records == nil {
			records = []model.Record{}
		}
		return LoadResult{Records: records, Source: SourceRemote}
	}

	l.logger.Warn("loading collection from fallback",
		"collection", q.Collection,
		"error", err,
	)

	return LoadResult{Records: l.loadFallback(q.Collection), Source: SourceFallback}
}

func (l *RecordLoader) selectRemote(ctx context.Context, q driven.Query) ([]model.Record, error) {
	if l.store == nil {
		return nil, driven.ErrBackendNotConfigured
	}
	return l.store.Select(ctx, q)
}

func (l *RecordLoader) loadFallback(collection string) []model.Record {
	if l.fallback == nil {
		return []model.Record{}
	}

	records, err := l.fallback.Fallback(collection)
	if err != nil {
		l.logger.Warn("fallback data unavailable", "collection", collection, "error", err)
		return []model.Record{}
	}
	if records == nil {
		return []model.Record{}
	}
	return records
}

// Start loads q on a new goroutine and reports to sink. SetLoading(true) is
// called before Start returns. Once the load completes, SetResult and
// SetLoading(false) are called exactly once, unless ctx has been canceled by
// then, in which case sink is left untouched. The returned channel is closed
// when the goroutine exits.
func (l *RecordLoader) Start(ctx context.Context, q driven.Query, sink LoadSink) <-chan struct{} {
	done := make(chan struct{})
	sink.SetLoading(true)

	go func() {
		defer close(done)

		result := l.Load(ctx, q)
		if ctx.Err() != nil {
			return
		}

		sink.SetResult(result)
		sink.SetLoading(false)
	}()

	return done
}

// LoadAll loads several queries concurrently and returns the results keyed by
// collection name. Like Load, it never fails; it only stops early when ctx is
// canceled, in which case the affected collections hold fallback results.
func (l *RecordLoader) LoadAll(ctx context.Context, queries ...driven.Query) map[string]LoadResult {
	results := make(map[string]LoadResult, len(queries))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, q := range queries {
		g.Go(func() error {
			result := l.Load(gctx, q)

			mu.Lock()
			results[q.Collection] = result
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		l.logger.Error("concurrent load failed", "error", err)
	}

	return results
}
