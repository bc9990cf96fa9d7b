package source

import (
	"errors"
	"fmt"
	"strings"
)

const (
	ExchangeBSE = "BSE"
	ExchangeNSE = "NSE"
)

var (
	// ErrUnavailable means no data could be obtained from the exchange
	ErrUnavailable = errors.New("source unavailable")
	// ErrMalformed means data was obtained but could not be understood
	ErrMalformed = errors.New("source malformed")
)

func unavailable(exchange string, err error) error {
	return fmt.Errorf("%s: %w: %w", exchange, ErrUnavailable, err)
}

func malformed(exchange, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", exchange, ErrMalformed, fmt.Sprintf(format, args...))
}

// Status names the condition an error represents, for reports and logs
func Status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	default:
		return "error"
	}
}

// ParseExchanges expands an --exchange flag value into exchange names
func ParseExchanges(flag string) ([]string, error) {
	switch strings.ToLower(strings.TrimSpace(flag)) {
	case "", "all":
		return []string{ExchangeBSE, ExchangeNSE}, nil
	case "bse":
		return []string{ExchangeBSE}, nil
	case "nse":
		return []string{ExchangeNSE}, nil
	default:
		return nil, fmt.Errorf("unknown exchange %q (valid: bse, nse, all)", flag)
	}
}
