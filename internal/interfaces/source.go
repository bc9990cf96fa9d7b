package interfaces

import (
	"context"

	"bulk-deals/internal/deals"
)

// DealSource fetches one exchange's bulk deal disclosure and normalizes it
type DealSource interface {
	// Exchange is the short exchange name, e.g. "BSE"
	Exchange() string

	// Fetch retrieves the raw payload. Failures wrap source.ErrUnavailable.
	Fetch(ctx context.Context) ([]byte, error)

	// Parse turns a raw payload into deals. A payload that cannot be
	// understood at all wraps source.ErrMalformed; individual bad records
	// are skipped and counted.
	Parse(ctx context.Context, raw []byte) (deals.Batch, error)
}
