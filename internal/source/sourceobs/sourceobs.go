package sourceobs

import (
	"context"

	"bulk-deals/internal/deals"
	"bulk-deals/internal/interfaces"
	"bulk-deals/internal/logger"
)

type observableSource struct {
	source interfaces.DealSource
}

var _ interfaces.DealSource = (*observableSource)(nil)

// Wrap adds spans and structured logs around a DealSource
func Wrap(source interfaces.DealSource) interfaces.DealSource {
	return &observableSource{source: source}
}

func (o *observableSource) Exchange() string {
	return o.source.Exchange()
}

func (o *observableSource) Fetch(ctx context.Context) ([]byte, error) {
	op := logger.StartOperation(ctx, "source.Fetch", "exchange", o.source.Exchange())

	raw, err := o.source.Fetch(op.Context())
	if err != nil {
		op.EndWithError(err)
		return nil, err
	}

	op.End("bytes", len(raw))
	logger.Info(op.Context(), "Fetched bulk deals",
		"exchange", o.source.Exchange(),
		"bytes", len(raw),
	)
	return raw, nil
}

func (o *observableSource) Parse(ctx context.Context, raw []byte) (deals.Batch, error) {
	op := logger.StartOperation(ctx, "source.Parse", "exchange", o.source.Exchange(), "bytes", len(raw))

	batch, err := o.source.Parse(op.Context(), raw)
	if err != nil {
		op.EndWithError(err)
		return deals.Batch{}, err
	}

	op.End("deals", len(batch.Deals), "skipped", batch.Skipped)
	return batch, nil
}
