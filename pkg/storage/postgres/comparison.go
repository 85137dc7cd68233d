package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"xscreener/internal/quote"

	"gorm.io/gorm/clause"
)

// Save upserts one row per comparison, replacing the previous snapshot of
// the same symbol.
func (p *PostgresClient) Save(ctx context.Context, comparisons []quote.Comparison) error {
	if len(comparisons) == 0 {
		return nil
	}

	records := make([]*ComparisonRecord, 0, len(comparisons))
	for i, c := range comparisons {
		record, err := ToComparisonRecord(c, i)
		if err != nil {
			return err
		}
		records = append(records, record)
	}

	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"stock_symbol", "position", "reference_price", "quote_count",
			"opportunity_count", "best_spread_percent", "payload", "fetched_at", "updated_at",
		}),
	}).Create(&records)
	if tx.Error != nil {
		return fmt.Errorf("upsert comparisons: %w", tx.Error)
	}
	return nil
}

// Latest returns the stored comparisons in the order of the last run.
func (p *PostgresClient) Latest(ctx context.Context) ([]quote.Comparison, error) {
	var records []ComparisonRecord
	err := p.DB.WithContext(ctx).
		Order("position ASC").
		Order("symbol ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("query comparisons: %w", err)
	}

	out := make([]quote.Comparison, 0, len(records))
	for _, r := range records {
		c, err := r.Comparison()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// GetComparison returns the stored comparison of one symbol.
func (p *PostgresClient) GetComparison(ctx context.Context, symbol string) (*ComparisonRecord, error) {
	var record ComparisonRecord
	err := p.DB.WithContext(ctx).
		Where("symbol = ?", symbol).
		First(&record).Error

	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ToComparisonRecord flattens a Comparison into its row. position is the
// comparison's index within the run.
func ToComparisonRecord(c quote.Comparison, position int) (*ComparisonRecord, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal comparison %s: %w", c.Symbol, err)
	}

	record := &ComparisonRecord{
		Symbol:           c.Symbol,
		StockSymbol:      c.StockSymbol,
		Position:         position,
		QuoteCount:       len(c.Present()),
		OpportunityCount: len(c.Opportunities),
		Payload:          string(payload),
		FetchedAt:        time.UnixMilli(c.FetchedAt),
	}
	if c.Reference != nil {
		price := c.Reference.Price
		record.ReferencePrice = &price
	}
	if len(c.Opportunities) > 0 {
		record.BestSpreadPercent = c.Opportunities[0].SpreadPercent
	}
	return record, nil
}

// Comparison decodes the stored payload.
func (r ComparisonRecord) Comparison() (quote.Comparison, error) {
	var c quote.Comparison
	if err := json.Unmarshal([]byte(r.Payload), &c); err != nil {
		return quote.Comparison{}, fmt.Errorf("unmarshal comparison %s: %w", r.Symbol, err)
	}
	return c, nil
}
