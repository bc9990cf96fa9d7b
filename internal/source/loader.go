package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bulk-deals/internal/deals"
	"bulk-deals/internal/interfaces"
	"bulk-deals/internal/logger"
)

// Snapshot is one exchange's deals as of a fetch
type Snapshot struct {
	Exchange  string
	FetchedAt time.Time
	Deals     []deals.Deal
	Skipped   int
}

// Loader fetches payloads into the cache and turns cached payloads into deals
type Loader struct {
	cache   *Cache
	order   []string
	sources map[string]interfaces.DealSource
}

func NewLoader(cache *Cache, sources ...interfaces.DealSource) *Loader {
	l := &Loader{cache: cache, sources: make(map[string]interfaces.DealSource, len(sources))}
	for _, s := range sources {
		name := strings.ToUpper(s.Exchange())
		if _, dup := l.sources[name]; !dup {
			l.order = append(l.order, name)
		}
		l.sources[name] = s
	}
	return l
}

// Exchanges lists the loader's exchanges in registration order
func (l *Loader) Exchanges() []string {
	return append([]string(nil), l.order...)
}

func (l *Loader) source(exchange string) (interfaces.DealSource, error) {
	s, ok := l.sources[strings.ToUpper(exchange)]
	if !ok {
		return nil, fmt.Errorf("%s: %w: exchange is not enabled", exchange, ErrUnavailable)
	}
	return s, nil
}

// Refresh fetches the exchange and stores the payload
func (l *Loader) Refresh(ctx context.Context, exchange string) (CacheEntry, error) {
	src, err := l.source(exchange)
	if err != nil {
		return CacheEntry{}, err
	}

	raw, err := src.Fetch(ctx)
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			err = unavailable(src.Exchange(), err)
		}
		return CacheEntry{}, err
	}

	entry, err := l.cache.Set(src.Exchange(), raw)
	if err != nil {
		// the payload is still usable for this run
		logger.ErrorWithErr(ctx, "Failed to store snapshot", err, "exchange", src.Exchange())
		return CacheEntry{Key: snapshotKey(src.Exchange()), Exchange: src.Exchange(), Data: raw, Timestamp: time.Now()}, nil
	}
	return entry, nil
}

// Load returns the exchange's deals from the stored snapshot, or from a
// fresh fetch when refresh is set
func (l *Loader) Load(ctx context.Context, exchange string, refresh bool) (*Snapshot, error) {
	src, err := l.source(exchange)
	if err != nil {
		return nil, err
	}

	var entry CacheEntry
	if refresh {
		if entry, err = l.Refresh(ctx, exchange); err != nil {
			logger.Snapshot(ctx, src.Exchange(), Status(err), "error", err)
			return nil, err
		}
	} else {
		var ok bool
		if entry, ok = l.cache.Get(src.Exchange()); !ok {
			err := fmt.Errorf("%s: %w: no snapshot, run fetch first", src.Exchange(), ErrUnavailable)
			logger.Snapshot(ctx, src.Exchange(), Status(err))
			return nil, err
		}
	}

	batch, err := src.Parse(ctx, entry.Data)
	if err != nil {
		if !errors.Is(err, ErrMalformed) {
			err = malformed(src.Exchange(), "%v", err)
		}
		logger.Snapshot(ctx, src.Exchange(), Status(err), "error", err)
		return nil, err
	}

	logger.Snapshot(ctx, src.Exchange(), "ok",
		"deals", len(batch.Deals),
		"skipped", batch.Skipped,
		"fetched_at", entry.Timestamp,
	)
	return &Snapshot{
		Exchange:  src.Exchange(),
		FetchedAt: entry.Timestamp,
		Deals:     batch.Deals,
		Skipped:   batch.Skipped,
	}, nil
}
