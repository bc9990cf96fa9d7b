package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"bulk-deals/internal/api"
	"bulk-deals/internal/deals"
	"bulk-deals/internal/logger"
)

var ist = time.FixedZone("IST", 5*3600+30*60)

const nseDateLayout = "02-01-2006"

// NSEOptions configures the NSE source
type NSEOptions struct {
	HomeURL      string
	APIURL       string
	LookbackDays int
	PrimeDelay   time.Duration // pause between the session page and the API call
	Timeout      time.Duration
	Retries      int // extra API attempts after the first
}

// NSE reads bulk deals from the NSE JSON API. The API only answers
// clients that carry the cookies set by the public report page, so every
// fetch visits that page first.
type NSE struct {
	opts    NSEOptions
	client  *api.Client
	limiter *rate.Limiter
	now     func() time.Time
}

func NewNSE(opts NSEOptions) *NSE {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if opts.PrimeDelay > 0 {
		limit = rate.Every(opts.PrimeDelay)
	}
	return &NSE{
		opts: opts,
		client: api.NewClient(
			api.WithTimeout(opts.Timeout),
			api.WithCookieJar(),
			api.WithHeaders(api.NSEHeaders()),
			api.WithLogging(true),
		),
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}
}

func (n *NSE) Exchange() string { return ExchangeNSE }

// Fetch primes the session, waits, then calls the deals API
func (n *NSE) Fetch(ctx context.Context) ([]byte, error) {
	if _, err := n.client.GET(ctx, n.opts.HomeURL, api.BrowserHeaders()); err != nil {
		var se *api.StatusError
		if !errors.As(err, &se) {
			return nil, unavailable(ExchangeNSE, fmt.Errorf("session page: %w", err))
		}
		logger.Warn(ctx, "NSE session page returned an error status, continuing", "status", se.StatusCode)
	}

	// the pause starts once the session page has answered
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, unavailable(ExchangeNSE, err)
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, unavailable(ExchangeNSE, err)
	}

	dealsURL, err := n.dealsURL()
	if err != nil {
		return nil, unavailable(ExchangeNSE, err)
	}
	req := api.NewRequest(http.MethodGet, dealsURL).WithContext(ctx)

	resp, err := n.client.DoWithRetry(req, &api.RetryConfig{
		MaxAttempts: n.opts.Retries + 1,
		InitialWait: time.Second,
		MaxWait:     5 * time.Second,
	})
	if err != nil {
		return nil, unavailable(ExchangeNSE, err)
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil, unavailable(ExchangeNSE, errors.New("empty API response"))
	}
	return resp.Body, nil
}

// dealsURL asks for bulk deals from today minus the lookback up to today
func (n *NSE) dealsURL() (string, error) {
	u, err := url.Parse(n.opts.APIURL)
	if err != nil {
		return "", fmt.Errorf("bad API URL %q: %w", n.opts.APIURL, err)
	}
	today := n.now().In(ist)
	from := today.AddDate(0, 0, -n.opts.LookbackDays)

	q := u.Query()
	q.Set("optionType", "bulk_deals")
	q.Set("from", from.Format(nseDateLayout))
	q.Set("to", today.Format(nseDateLayout))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type nseRecord struct {
	Symbol    string    `json:"BD_SYMBOL"`
	ScripName string    `json:"BD_SCRIP_NAME"`
	Client    string    `json:"BD_CLIENT_NAME"`
	BuySell   string    `json:"BD_BUY_SELL"`
	Quantity  flexValue `json:"BD_QTY_TRD"`
	Price     flexValue `json:"BD_TP_WATP"`
}

// flexValue accepts a JSON number or a string holding one, with
// thousands separators
type flexValue string

func (f *flexValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexValue(n.String())
	return nil
}

func (f flexValue) decimal() (decimal.Decimal, error) { return parseDecimal(string(f)) }
func (f flexValue) quantity() (int64, error)          { return parseQuantity(string(f)) }

// Parse accepts either {"data": [...]} or a bare list of records
func (n *NSE) Parse(ctx context.Context, raw []byte) (deals.Batch, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return deals.Batch{}, malformed(ExchangeNSE, "empty payload")
	}

	var records []json.RawMessage
	switch raw[0] {
	case '{':
		var env struct {
			Data *[]json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return deals.Batch{}, malformed(ExchangeNSE, "bad JSON: %v", err)
		}
		if env.Data == nil {
			return deals.Batch{}, malformed(ExchangeNSE, "object has no data list")
		}
		records = *env.Data
	case '[':
		if err := json.Unmarshal(raw, &records); err != nil {
			return deals.Batch{}, malformed(ExchangeNSE, "bad JSON: %v", err)
		}
	default:
		return deals.Batch{}, malformed(ExchangeNSE, "unexpected payload starting with %q", raw[0])
	}

	var batch deals.Batch
	for _, rec := range records {
		d, err := nseDeal(rec)
		if err != nil {
			batch.Skipped++
			continue
		}
		batch.Deals = append(batch.Deals, d)
	}

	if batch.Skipped > 0 {
		logger.Debug(ctx, "Skipped NSE records", "skipped", batch.Skipped, "kept", len(batch.Deals))
	}
	return batch, nil
}

func nseDeal(raw json.RawMessage) (deals.Deal, error) {
	var r nseRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return deals.Deal{}, err
	}
	symbol := strings.TrimSpace(r.Symbol)
	if symbol == "" {
		return deals.Deal{}, deals.ErrMissingSecurity
	}
	name := strings.TrimSpace(r.ScripName)
	if name == "" {
		name = symbol
	}

	if strings.TrimSpace(r.BuySell) == "" {
		return deals.Deal{}, deals.ErrInvalidSide
	}

	qty, err := r.Quantity.quantity()
	if err != nil {
		return deals.Deal{}, fmt.Errorf("%w: %v", deals.ErrInvalidQuantity, err)
	}
	price, err := r.Price.decimal()
	if err != nil {
		return deals.Deal{}, fmt.Errorf("%w: %v", deals.ErrInvalidPrice, err)
	}

	return deals.New(fmt.Sprintf("%s (%s)", name, symbol), r.Client, deals.ParseSide(r.BuySell), qty, price)
}
