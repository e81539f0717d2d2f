package stooq

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/adamwal/gpwetl/internal/contracts"
)

// SymbolInfo is one entry from the Stooq instrument directory.
type SymbolInfo struct {
	Symbol string
	Name   string
	Kind   contracts.InstrumentKind
}

// Directory page ids on stooq.com/t/.
const (
	directoryStocksPage  = "513" // WSE equities
	directoryIndicesPage = "510" // WSE indices
)

// ListSymbols scrapes the Stooq instrument directory for GPW equities and
// indices. The directory paginates; scraping stops at the first empty page.
func (c *Client) ListSymbols(ctx context.Context, kind contracts.InstrumentKind) ([]SymbolInfo, error) {
	page := directoryStocksPage
	if kind == contracts.KindIndex {
		page = directoryIndicesPage
	}

	var all []SymbolInfo
	for pageNum := 1; ; pageNum++ {
		listURL := fmt.Sprintf("https://stooq.com/t/?i=%s&l=%d", page, pageNum)

		entries, err := c.scrapeDirectoryPage(ctx, listURL, kind)
		if err != nil {
			return nil, fmt.Errorf("list %s symbols page %d: %w", kind, pageNum, err)
		}
		if len(entries) == 0 {
			break
		}
		all = append(all, entries...)
	}

	c.logger.Infof("Discovered %d %s symbols from directory", len(all), kind)
	return all, nil
}

func (c *Client) scrapeDirectoryPage(ctx context.Context, listURL string, kind contracts.InstrumentKind) ([]SymbolInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse directory HTML: %w", err)
	}

	var entries []SymbolInfo
	doc.Find("table#fth1 tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		symbol := strings.ToUpper(strings.TrimSpace(cells.Eq(0).Text()))
		name := strings.TrimSpace(cells.Eq(1).Text())
		if symbol == "" || name == "" {
			return
		}

		entries = append(entries, SymbolInfo{Symbol: symbol, Name: name, Kind: kind})
	})

	return entries, nil
}

// DefaultSymbols is the built-in instrument set used when the directory is
// unreachable or a run pins its own universe.
func DefaultSymbols() []SymbolInfo {
	return []SymbolInfo{
		{Symbol: "XTB", Name: "XTB S.A.", Kind: contracts.KindStock},
		{Symbol: "PKN", Name: "ORLEN S.A.", Kind: contracts.KindStock},
		{Symbol: "CCC", Name: "CCC S.A.", Kind: contracts.KindStock},
		{Symbol: "LPP", Name: "LPP S.A.", Kind: contracts.KindStock},
		{Symbol: "CDR", Name: "CD Projekt S.A.", Kind: contracts.KindStock},
		{Symbol: "WIG", Name: "WIG", Kind: contracts.KindIndex},
		{Symbol: "WIG20", Name: "WIG20", Kind: contracts.KindIndex},
		{Symbol: "MWIG40", Name: "mWIG40", Kind: contracts.KindIndex},
		{Symbol: "SWIG80", Name: "sWIG80", Kind: contracts.KindIndex},
	}
}
