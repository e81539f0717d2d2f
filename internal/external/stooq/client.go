// Package stooq downloads daily GPW price history from the Stooq CSV
// endpoint.
package stooq

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/adamwal/gpwetl/internal/contracts"
	"github.com/adamwal/gpwetl/pkg/config"
	"github.com/adamwal/gpwetl/pkg/httputil"
	"github.com/adamwal/gpwetl/pkg/logger"
)

// ErrNoData is returned when Stooq has no history for a symbol.
var ErrNoData = errors.New("stooq: no data for symbol")

// ErrDailyLimit is returned when Stooq throttles the caller for the day.
// Retrying the same run is pointless until the limit window resets.
var ErrDailyLimit = errors.New("stooq: daily download limit exceeded")

// Client handles communication with the Stooq download endpoint.
// SSOT: Stooq requests go through this client only.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	userAgent  string
}

// NewClient creates a Stooq client. The shared HTTP client carries the
// retry and rate-limit policy.
func NewClient(httpClient *httputil.Client, cfg config.StooqConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("module", "stooq"),
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
	}
}

// DailyHistory downloads the full daily history for a symbol, oldest
// record first. Symbols are lowercased on the wire; Stooq is
// case-insensitive but serves lowercase canonically.
func (c *Client) DailyHistory(ctx context.Context, symbol string) ([]contracts.PriceRecord, error) {
	params := url.Values{}
	params.Set("s", strings.ToLower(symbol))
	params.Set("i", "d")

	body, err := c.fetchCSV(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", symbol, err)
	}

	records, err := parseCSV(symbol, body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", symbol, err)
	}

	c.logger.Debugf("Downloaded %d records for %s", len(records), symbol)
	return records, nil
}

func (c *Client) fetchCSV(ctx context.Context, params url.Values) (string, error) {
	fullURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	body := string(raw)
	if err := classifyErrorPage(body); err != nil {
		return "", err
	}
	return body, nil
}

// classifyErrorPage recognizes the plain-text error bodies Stooq serves
// with a 200 status instead of CSV.
func classifyErrorPage(body string) error {
	trimmed := strings.TrimSpace(body)
	switch {
	case trimmed == "" || strings.EqualFold(trimmed, "no data"):
		return ErrNoData
	case strings.Contains(trimmed, "Przekroczony dzienny limit"),
		strings.Contains(trimmed, "Exceeded the daily hits limit"):
		return ErrDailyLimit
	case strings.HasPrefix(trimmed, "<"):
		return fmt.Errorf("stooq: HTML error page instead of CSV")
	}
	return nil
}

// parseCSV decodes Stooq's Date,Open,High,Low,Close,Volume layout.
// Malformed rows abort the parse; a silently shortened history would be
// indistinguishable from a delisting.
func parseCSV(symbol, body string) ([]contracts.PriceRecord, error) {
	reader := csv.NewReader(strings.NewReader(body))
	reader.FieldsPerRecord = -1 // index rows omit the volume column

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, ErrNoData
	}

	header := rows[0]
	if len(header) < 5 || !strings.EqualFold(header[0], "Date") {
		return nil, fmt.Errorf("unexpected header %v", header)
	}

	records := make([]contracts.PriceRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := parseRow(symbol, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}

	// Stooq serves ascending order already; sorting keeps the oldest-first
	// contract independent of the upstream.
	sort.Slice(records, func(a, b int) bool {
		return records[a].TradingDate.Before(records[b].TradingDate)
	})
	return records, nil
}

func parseRow(symbol string, row []string) (contracts.PriceRecord, error) {
	if len(row) < 5 {
		return contracts.PriceRecord{}, fmt.Errorf("short row %v", row)
	}

	date, err := time.Parse("2006-01-02", row[0])
	if err != nil {
		return contracts.PriceRecord{}, fmt.Errorf("bad date %q: %w", row[0], err)
	}

	prices := make([]float64, 4)
	for i, raw := range row[1:5] {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return contracts.PriceRecord{}, fmt.Errorf("bad price %q: %w", raw, err)
		}
		prices[i] = v
	}

	var volume int64
	if len(row) > 5 && row[5] != "" {
		// Index downloads report fractional volumes on some days.
		v, err := strconv.ParseFloat(row[5], 64)
		if err != nil {
			return contracts.PriceRecord{}, fmt.Errorf("bad volume %q: %w", row[5], err)
		}
		volume = int64(v)
	}

	return contracts.PriceRecord{
		Symbol:      symbol,
		TradingDate: date,
		Open:        prices[0],
		High:        prices[1],
		Low:         prices[2],
		Close:       prices[3],
		Volume:      volume,
	}, nil
}
