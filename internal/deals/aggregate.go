package deals

import (
	"context"
	"hash/fnv"

	"golang.org/x/sync/errgroup"
)

// Aggregate reduces deals to one net position per client/security pair.
// Invalid deals are excluded from every sum. Pairs whose buys and sells
// cancel out are dropped. The order of the result is unspecified.
func Aggregate(deals []Deal) []NetPosition {
	return positions(fold(deals))
}

func fold(deals []Deal) map[Key]*Ledger {
	ledgers := make(map[Key]*Ledger)
	for _, d := range deals {
		if d.Validate() != nil {
			continue
		}
		key := KeyOf(d)
		l, ok := ledgers[key]
		if !ok {
			l = NewLedger(key)
			ledgers[key] = l
		}
		l.Add(d)
	}
	return ledgers
}

func positions(ledgers map[Key]*Ledger) []NetPosition {
	out := make([]NetPosition, 0, len(ledgers))
	for _, l := range ledgers {
		if pos, ok := l.Position(); ok {
			out = append(out, pos)
		}
	}
	return out
}

// AggregateParallel is Aggregate with the fold spread over workers.
// Deals are partitioned by key hash so every ledger is built by exactly
// one worker; the partial maps are merged after all workers finish.
func AggregateParallel(ctx context.Context, deals []Deal, workers int) ([]NetPosition, error) {
	if workers <= 1 || len(deals) < workers {
		return Aggregate(deals), nil
	}

	parts := make([][]Deal, workers)
	for _, d := range deals {
		i := partition(KeyOf(d), workers)
		parts[i] = append(parts[i], d)
	}

	partial := make([]map[Key]*Ledger, workers)
	g, gctx := errgroup.WithContext(ctx)
	for i := range parts {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			partial[i] = fold(parts[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[Key]*Ledger)
	for _, m := range partial {
		for key, l := range m {
			if existing, ok := merged[key]; ok {
				existing.Merge(l)
				continue
			}
			merged[key] = l
		}
	}
	return positions(merged), nil
}

func partition(key Key, n int) int {
	h := fnv.New32a()
	h.Write([]byte(key.Client))
	h.Write([]byte{0})
	h.Write([]byte(key.Security))
	return int(h.Sum32() % uint32(n))
}
