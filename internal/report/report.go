package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"bulk-deals/internal/deals"
)

// SortKey orders the positions of a report
type SortKey string

const (
	SortClient   SortKey = "client"
	SortSecurity SortKey = "security"
	SortValue    SortKey = "value"
	SortQuantity SortKey = "quantity"
)

// ParseSortKey validates a --sort value. Empty means SortClient.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortClient, nil
	case SortClient, SortSecurity, SortValue, SortQuantity:
		return k, nil
	default:
		return "", fmt.Errorf("unsupported sort key: %s", s)
	}
}

// Report is one exchange's net positions ready for rendering
type Report struct {
	RunID       string              `json:"run_id"`
	Exchange    string              `json:"exchange"`
	GeneratedAt time.Time           `json:"generated_at"`
	FetchedAt   time.Time           `json:"fetched_at"`
	Summary     deals.Summary       `json:"summary"`
	Positions   []deals.NetPosition `json:"positions"`
}

// Build sorts positions and stamps them with a run id
func Build(exchange string, fetchedAt time.Time, positions []deals.NetPosition, key SortKey) *Report {
	sorted := make([]deals.NetPosition, len(positions))
	copy(sorted, positions)
	Sort(sorted, key)

	return &Report{
		RunID:       ulid.Make().String(),
		Exchange:    strings.ToUpper(exchange),
		GeneratedAt: time.Now(),
		FetchedAt:   fetchedAt,
		Summary:     deals.Stats(sorted),
		Positions:   sorted,
	}
}

// Sort orders positions in place. Ties always fall back to client then
// security, so the output is deterministic for any key.
func Sort(positions []deals.NetPosition, key SortKey) {
	byName := func(a, b deals.NetPosition) bool {
		if a.Client != b.Client {
			return a.Client < b.Client
		}
		return a.Security < b.Security
	}
	bySecurity := func(a, b deals.NetPosition) bool {
		if a.Security != b.Security {
			return a.Security < b.Security
		}
		return a.Client < b.Client
	}

	var less func(a, b deals.NetPosition) bool
	switch key {
	case SortSecurity:
		less = bySecurity
	case SortValue:
		less = func(a, b deals.NetPosition) bool {
			if c := a.NetValue.Cmp(b.NetValue); c != 0 {
				return c > 0
			}
			return byName(a, b)
		}
	case SortQuantity:
		less = func(a, b deals.NetPosition) bool {
			if a.NetQuantity != b.NetQuantity {
				return a.NetQuantity > b.NetQuantity
			}
			return byName(a, b)
		}
	default:
		less = byName
	}

	sort.SliceStable(positions, func(i, j int) bool {
		return less(positions[i], positions[j])
	})
}
