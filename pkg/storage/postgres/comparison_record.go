package postgres

import "time"

// ComparisonRecord is the latest comparison of one instrument. Each batch run
// overwrites the row; there is no history.
type ComparisonRecord struct {
	ID uint `gorm:"primaryKey"`

	// unique index
	Symbol string `gorm:"type:text;not null;uniqueIndex:idx_comparison_symbol"`

	StockSymbol string `gorm:"type:text;not null"`
	Position    int    `gorm:"not null;default:0"` // order within the run

	ReferencePrice    *float64 `gorm:"type:numeric"`
	QuoteCount        int      `gorm:"not null"`
	OpportunityCount  int      `gorm:"not null"`
	BestSpreadPercent float64  `gorm:"type:numeric;not null;default:0"`

	Payload string `gorm:"type:json;not null"` // json, not jsonb: venue key order must survive

	FetchedAt time.Time `gorm:"not null;index:idx_comparison_fetched_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName overrides the default table name for GORM.
func (ComparisonRecord) TableName() string {
	return "comparison_record"
}
