package deals

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Side is the direction of a single bulk deal
type Side int

const (
	SideUnknown Side = iota
	SideBuy
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "BUY":
		*s = SideBuy
	case "SELL":
		*s = SideSell
	default:
		*s = SideUnknown
	}
	return nil
}

// ParseSide maps an exchange buy/sell flag to a Side: any flag containing
// "BUY", in any case, is a buy and everything else is a sell. Exchanges
// that abbreviate to single letters map those before calling ParseSide.
func ParseSide(text string) Side {
	if strings.Contains(strings.ToUpper(text), "BUY") {
		return SideBuy
	}
	return SideSell
}

var (
	ErrMissingSecurity = errors.New("deal has no security")
	ErrMissingClient   = errors.New("deal has no client")
	ErrInvalidSide     = errors.New("deal side is neither BUY nor SELL")
	ErrInvalidQuantity = errors.New("deal quantity must be positive")
	ErrInvalidPrice    = errors.New("deal price must be positive")
)

// Deal is one normalized bulk deal as reported by an exchange.
// Security and Client are opaque keys; exchange-specific formatting
// is done by the source that built the deal.
type Deal struct {
	Security string          `json:"security"`
	Client   string          `json:"client"`
	Side     Side            `json:"side"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// New builds a deal and validates it
func New(security, client string, side Side, qty int64, price decimal.Decimal) (Deal, error) {
	d := Deal{
		Security: strings.TrimSpace(security),
		Client:   strings.TrimSpace(client),
		Side:     side,
		Quantity: qty,
		Price:    price,
	}
	if err := d.Validate(); err != nil {
		return Deal{}, err
	}
	return d, nil
}

// Validate reports the first broken invariant of the deal, or nil
func (d Deal) Validate() error {
	switch {
	case strings.TrimSpace(d.Security) == "":
		return ErrMissingSecurity
	case strings.TrimSpace(d.Client) == "":
		return ErrMissingClient
	case d.Side != SideBuy && d.Side != SideSell:
		return ErrInvalidSide
	case d.Quantity <= 0:
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, d.Quantity)
	case !d.Price.IsPositive():
		return fmt.Errorf("%w: %s", ErrInvalidPrice, d.Price.String())
	}
	return nil
}

// Value is quantity × price
func (d Deal) Value() decimal.Decimal {
	return d.Price.Mul(decimal.NewFromInt(d.Quantity))
}

// Batch is the outcome of normalizing one exchange payload
type Batch struct {
	Deals   []Deal
	Skipped int // records dropped for missing or invalid fields
}
