package source

import (
	"fmt"
	"time"

	"bulk-deals/internal/interfaces"
	"bulk-deals/internal/source/sourceobs"
	"bulk-deals/internal/store"
)

// CreateSources builds the enabled exchange sources named in exchanges
func CreateSources(cfg *store.Config, exchanges []string) ([]interfaces.DealSource, error) {
	var out []interfaces.DealSource
	for _, ex := range exchanges {
		switch ex {
		case ExchangeBSE:
			if !cfg.Exchanges.BSE.Enabled {
				continue
			}
			out = append(out, sourceobs.Wrap(NewBSE(
				cfg.Exchanges.BSE.URL,
				time.Duration(cfg.Exchanges.BSE.TimeoutSeconds)*time.Second,
			)))
		case ExchangeNSE:
			if !cfg.Exchanges.NSE.Enabled {
				continue
			}
			n := cfg.Exchanges.NSE
			out = append(out, sourceobs.Wrap(NewNSE(NSEOptions{
				HomeURL:      n.HomeURL,
				APIURL:       n.APIURL,
				LookbackDays: n.LookbackDays,
				PrimeDelay:   time.Duration(n.PrimeDelayMS) * time.Millisecond,
				Timeout:      time.Duration(n.TimeoutSeconds) * time.Second,
				Retries:      n.Retries,
			})))
		default:
			return nil, fmt.Errorf("unknown exchange %q", ex)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("none of %v is enabled in config", exchanges)
	}
	return out, nil
}

// NewLoaderFromConfig wires the cache and sources for the given exchanges
func NewLoaderFromConfig(cfg *store.Config, exchanges []string) (*Loader, *Cache, error) {
	cache, err := NewCache(cfg.DataDir, cfg.CacheTTL())
	if err != nil {
		return nil, nil, err
	}
	sources, err := CreateSources(cfg, exchanges)
	if err != nil {
		return nil, nil, err
	}
	return NewLoader(cache, sources...), cache, nil
}
