package products

import (
	"time"

	"github.com/2beens/fittracker/internal/fitness"

	"github.com/shopspring/decimal"
)

const (
	// page size of the table view
	pageSize = 5
	// hard cap on search results, the table has no cursor in search mode
	searchLimit = 1000
)

// Product is a legacy shop catalog row, kept around for the table
// listing component.
type Product struct {
	ID        int              `json:"id"`
	Name      string           `json:"name"`
	Status    string           `json:"status"`
	Price     *decimal.Decimal `json:"price"`
	Stock     int              `json:"stock"`
	CreatedAt time.Time        `json:"createdAt"`
}

// ListResult is one page (or search result set) of the catalog.
// NewOffset is only set in page mode and only when the page came back
// full, signalling that more pages exist.
type ListResult struct {
	Products      []Product `json:"products"`
	NewOffset     *int      `json:"newOffset"`
	TotalProducts int       `json:"totalProducts"`
}

type AddParams struct {
	Name   string           `json:"name"`
	Status *string          `json:"status"`
	Price  *decimal.Decimal `json:"price"`
	Stock  *int             `json:"stock"`
}

func (p *AddParams) Validate() error {
	if p.Name == "" {
		return fitness.NewValidationError("name", "must not be empty")
	}
	if p.Stock != nil && *p.Stock < 0 {
		return fitness.NewValidationError("stock", "must not be negative")
	}
	return nil
}
