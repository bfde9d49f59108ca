package marketodds

import (
	"fmt"
	"time"
)

// MarketH2H is the three-way match-winner market.
const MarketH2H = "h2h"

// Odds is one bookmaker price for one selection of a match market.
// Multiple bookmaker rows per selection are expected.
type Odds struct {
	MatchID     string
	BookmakerID string
	MarketType  string
	Selection   string
	Price       float64
	RecordedAt  time.Time
}

func (o Odds) Validate() error {
	if o.MatchID == "" {
		return fmt.Errorf("odds match id is required")
	}
	if o.BookmakerID == "" {
		return fmt.Errorf("odds bookmaker id is required")
	}
	if o.Selection == "" {
		return fmt.Errorf("odds selection is required")
	}
	if o.Price <= 1.0 {
		return fmt.Errorf("odds price must be greater than 1.0, got %.4f", o.Price)
	}

	return nil
}

// BestPrice is one selection reduced to its highest price across bookmakers.
// BookmakerCount doubles as a confidence signal downstream.
type BestPrice struct {
	Selection      string
	Price          float64
	BookmakerCount int
}

// ReduceBest groups odds rows by selection, keeping the maximum price and
// the number of distinct bookmakers quoting the selection.
func ReduceBest(rows []Odds) []BestPrice {
	index := make(map[string]int)
	bookies := make(map[string]map[string]struct{})
	out := make([]BestPrice, 0, 3)
	for _, row := range rows {
		i, ok := index[row.Selection]
		if !ok {
			i = len(out)
			index[row.Selection] = i
			bookies[row.Selection] = make(map[string]struct{})
			out = append(out, BestPrice{Selection: row.Selection, Price: row.Price})
		}
		bookies[row.Selection][row.BookmakerID] = struct{}{}
		if row.Price > out[i].Price {
			out[i].Price = row.Price
		}
		out[i].BookmakerCount = len(bookies[row.Selection])
	}
	return out
}
