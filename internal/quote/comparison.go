package quote

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Opportunity is a detected buy-low/sell-high spread between two venues.
type Opportunity struct {
	Symbol        string  `json:"symbol"`
	BuyFrom       string  `json:"buyFrom"`
	SellTo        string  `json:"sellTo"`
	BuyPrice      float64 `json:"buyPrice"`
	SellPrice     float64 `json:"sellPrice"`
	SpreadPercent float64 `json:"spreadPercent"` // (sell - buy) / buy * 100
	ProfitPerUnit float64 `json:"potentialProfit"`
	DetectedAt    int64   `json:"timestamp"` // unix ms
}

// VenueSlot is one configured venue and its quote for a fetch cycle.
// Quote is nil when the venue returned nothing.
type VenueSlot struct {
	Venue string
	Quote *Quote
}

// Comparison is every quote for one instrument in one fetch cycle.
type Comparison struct {
	Symbol        string        `json:"symbol"`
	StockSymbol   string        `json:"stockSymbol"`
	Reference     *Quote        `json:"stockPrice"`
	Venues        Slots         `json:"prices"`
	Opportunities []Opportunity `json:"arbitrageOpportunities"`
	FetchedAt     int64         `json:"fetchedAt"` // unix ms
}

// Present lists the quotes that exist, reference first, then venues in
// configured order. Labels are venue ids, or ReferenceLabel for the reference.
func (c Comparison) Present() []Labeled {
	out := make([]Labeled, 0, len(c.Venues)+1)
	if c.Reference != nil {
		out = append(out, Labeled{Label: ReferenceLabel, Quote: *c.Reference})
	}
	for _, slot := range c.Venues {
		if slot.Quote != nil {
			out = append(out, Labeled{Label: slot.Venue, Quote: *slot.Quote})
		}
	}
	return out
}

// Quote returns the venue's quote, or nil when absent or not configured.
func (c Comparison) Quote(venue string) *Quote {
	for _, slot := range c.Venues {
		if slot.Venue == venue {
			return slot.Quote
		}
	}
	return nil
}

// Labeled pairs a quote with the label it is reported under.
type Labeled struct {
	Label string
	Quote Quote
}

// Slots keeps venue order stable while encoding as a JSON object whose
// absent venues appear as null.
type Slots []VenueSlot

func (s Slots) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, slot := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(slot.Venue)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := json.Marshal(slot.Quote)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores slots in document order, so snapshots read back
// from a cache keep their venue order.
func (s *Slots) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("quote: venue slots must be a JSON object, got %v", tok)
	}

	var out Slots
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		venue, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("quote: venue slot key must be a string, got %v", keyTok)
		}

		var q *Quote
		if err := dec.Decode(&q); err != nil {
			return err
		}
		out = append(out, VenueSlot{Venue: venue, Quote: q})
	}
	*s = out
	return nil
}
