package contracts

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// PriceRecord is one daily OHLCV row as delivered by the data source.
type PriceRecord struct {
	Symbol      string
	TradingDate time.Time
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      int64
}

// Validate checks OHLC relationships and value ranges.
func (r PriceRecord) Validate() error {
	if r.TradingDate.IsZero() {
		return fmt.Errorf("missing trading date")
	}
	if r.Open < 0 || r.High < 0 || r.Low < 0 || r.Close < 0 {
		return fmt.Errorf("negative price on %s", r.TradingDate.Format("2006-01-02"))
	}
	if r.Volume < 0 {
		return fmt.Errorf("negative volume on %s", r.TradingDate.Format("2006-01-02"))
	}
	if r.High < r.Open || r.High < r.Close || r.High < r.Low {
		return fmt.Errorf("high %.4f below open/close/low on %s", r.High, r.TradingDate.Format("2006-01-02"))
	}
	if r.Low > r.Open || r.Low > r.Close {
		return fmt.Errorf("low %.4f above open/close on %s", r.Low, r.TradingDate.Format("2006-01-02"))
	}
	return nil
}

// Hash returns a deterministic digest of the record, stored alongside the
// row for duplicate detection.
func (r PriceRecord) Hash() string {
	data := fmt.Sprintf("%s%s%v%v%v%v%d",
		r.Symbol, r.TradingDate.Format("2006-01-02"),
		r.Open, r.High, r.Low, r.Close, r.Volume,
	)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}
