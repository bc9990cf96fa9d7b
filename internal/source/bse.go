package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/shopspring/decimal"

	"bulk-deals/internal/api"
	"bulk-deals/internal/deals"
	"bulk-deals/internal/logger"
)

const bseTableSelector = "table#ContentPlaceHolder1_gvbulk_deals"

// bseFallbackHeaders must each be the whole text of one of a table's header
// cells for it to be taken as the deals table when the primary id is missing
var bseFallbackHeaders = []string{"deal date", "security code", "client name"}

// BSE scrapes the BSE bulk deals HTML page
type BSE struct {
	url     string
	timeout time.Duration
}

// NewBSE creates a BSE source for the given page URL
func NewBSE(pageURL string, timeout time.Duration) *BSE {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BSE{url: pageURL, timeout: timeout}
}

func (b *BSE) Exchange() string { return ExchangeBSE }

// Fetch downloads the page once with a browser identity
func (b *BSE) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(ExchangeBSE, err)
	}

	c := colly.NewCollector(
		colly.AllowedDomains(getDomain(b.url)),
		colly.MaxDepth(1),
		colly.Async(false),
		colly.UserAgent(api.UserAgent()),
	)
	c.SetRequestTimeout(b.timeout)

	c.OnRequest(func(r *colly.Request) {
		for k, v := range api.BrowserHeaders() {
			r.Headers.Set(k, v)
		}
	})

	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "BSE fetch error", err, "url", b.url, "status", r.StatusCode)
	})

	if err := c.Visit(b.url); err != nil {
		return nil, unavailable(ExchangeBSE, fmt.Errorf("failed to visit %s: %w", b.url, err))
	}
	c.Wait()

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, unavailable(ExchangeBSE, fmt.Errorf("empty response from %s", b.url))
	}
	return body, nil
}

// Parse extracts deals from the bulk deals table. Columns are
// deal date, security code, security name, client, deal type, quantity, price.
func (b *BSE) Parse(ctx context.Context, raw []byte) (deals.Batch, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return deals.Batch{}, malformed(ExchangeBSE, "empty page")
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return deals.Batch{}, malformed(ExchangeBSE, "unparseable HTML: %v", err)
	}

	table := findBSETable(ctx, doc)
	if table == nil {
		return deals.Batch{}, malformed(ExchangeBSE, "bulk deals table not found")
	}

	var batch deals.Batch
	rows := table.Find("tr")
	rows.Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header
		}
		cells := row.Find("td")
		if cells.Length() < 7 {
			batch.Skipped++
			return
		}
		col := func(n int) string {
			return strings.TrimSpace(cells.Eq(n).Text())
		}

		code, name, flag := col(1), col(2), col(4)
		if code == "" || name == "" || flag == "" {
			batch.Skipped++
			return
		}
		qty, qerr := parseQuantity(col(5))
		price, perr := parseDecimal(col(6))
		if qerr != nil || perr != nil {
			batch.Skipped++
			return
		}

		d, err := deals.New(fmt.Sprintf("%s (%s)", name, code), col(3), bseSide(flag), qty, price)
		if err != nil {
			batch.Skipped++
			return
		}
		batch.Deals = append(batch.Deals, d)
	})

	if batch.Skipped > 0 {
		logger.Debug(ctx, "Skipped BSE rows", "skipped", batch.Skipped, "kept", len(batch.Deals))
	}
	return batch, nil
}

func findBSETable(ctx context.Context, doc *goquery.Document) *goquery.Selection {
	if t := doc.Find(bseTableSelector).First(); t.Length() > 0 {
		return t
	}

	var found *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		headers := make(map[string]bool)
		t.Find("th").Each(func(_ int, th *goquery.Selection) {
			headers[strings.ToLower(strings.TrimSpace(th.Text()))] = true
		})
		for _, h := range bseFallbackHeaders {
			if !headers[h] {
				return true
			}
		}
		found = t
		return false
	})
	if found != nil {
		logger.Warn(ctx, "Primary BSE deals table not found, using header match")
	}
	return found
}

// bseSide maps BSE deal types. BSE reports single letters B/S as well as
// spelled out words.
func bseSide(flag string) deals.Side {
	if strings.EqualFold(strings.TrimSpace(flag), "B") {
		return deals.SideBuy
	}
	return deals.ParseSide(flag)
}

// parseQuantity accepts grouped integers such as "1,00,000"
func parseQuantity(s string) (int64, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("quantity %q is not whole", s)
	}
	return d.IntPart(), nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty number")
	}
	return decimal.NewFromString(s)
}

func getDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
