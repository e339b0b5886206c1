package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/dhobi-app/ordering/internal/enum"
	"github.com/shopspring/decimal"
)

// ErrCatalogUnavailable is returned when the price source has no rows for
// the requested company/branch or the fetch itself fails. Callers present a
// "no pricing available" state instead of crashing.
var ErrCatalogUnavailable = errors.New("no price details found")

// PriceEntry is one purchasable (garment type, service) pairing as returned
// by the price-list endpoint. Entries are immutable once loaded; a re-fetch
// replaces the whole catalog.
type PriceEntry struct {
	ID              int64           `json:"ID"`
	GarmentTypeID   int64           `json:"DressTypeId"`
	GarmentTypeName string          `json:"DressTypeName"`
	ServiceID       int64           `json:"ServiceId"`
	ServiceName     string          `json:"ServiceName"`
	Description     string          `json:"Description"`
	ImageFileName   string          `json:"ImageFileName"`
	Price           decimal.Decimal `json:"Price"`
	Currency        string          `json:"Currency"`
}

// ServiceGroup is the set of price entries belonging to one service, in
// catalog (input) order. Derived from the flat row list, never mutated
// independently.
type ServiceGroup struct {
	ServiceID   int64        `json:"serviceId"`
	ServiceName string       `json:"serviceName"`
	Items       []PriceEntry `json:"items"`
}

// Source fetches the raw price rows for a (company, branch) pair.
// Satisfied by *client.Client.
type Source interface {
	FetchPriceList(ctx context.Context, companyID, branchID string) ([]PriceEntry, error)
}

// Catalog is the service-grouped price list plus the currency used for
// displaying cart totals.
type Catalog struct {
	Groups   []ServiceGroup
	Currency string
}

// Load fetches and normalizes the price catalog for a company/branch.
// An empty row set and a failed fetch are both reported as
// ErrCatalogUnavailable.
func Load(ctx context.Context, src Source, companyID, branchID string) (*Catalog, error) {
	rows, err := src.FetchPriceList(ctx, companyID, branchID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	if len(rows) == 0 {
		return nil, ErrCatalogUnavailable
	}
	return &Catalog{
		Groups:   GroupByService(rows),
		Currency: DominantCurrency(rows),
	}, nil
}

// Entries returns the catalog's price entries flattened back to catalog
// order: group order first, input order within a group.
func (c *Catalog) Entries() []PriceEntry {
	var entries []PriceEntry
	for _, g := range c.Groups {
		entries = append(entries, g.Items...)
	}
	return entries
}

// GroupByService groups flat price rows by service ID, preserving first-seen
// group order and input row order within each group.
func GroupByService(rows []PriceEntry) []ServiceGroup {
	var groups []ServiceGroup
	index := make(map[int64]int)

	for _, row := range rows {
		i, ok := index[row.ServiceID]
		if !ok {
			i = len(groups)
			index[row.ServiceID] = i
			groups = append(groups, ServiceGroup{
				ServiceID:   row.ServiceID,
				ServiceName: row.ServiceName,
			})
		}
		groups[i].Items = append(groups[i].Items, row)
	}

	return groups
}

// DominantCurrency picks the currency used for cart total display: the most
// frequent code across all rows, ties broken by first-encountered code.
// Individual entries may carry a different code; the total is still shown in
// the dominant one (known limitation carried over from the product).
func DominantCurrency(rows []PriceEntry) string {
	counts := make(map[string]int)
	var order []string

	for _, row := range rows {
		if row.Currency == "" {
			continue
		}
		if _, seen := counts[row.Currency]; !seen {
			order = append(order, row.Currency)
		}
		counts[row.Currency]++
	}

	dominant := enum.FallbackCurrency
	highest := 0
	for _, code := range order {
		if counts[code] > highest {
			dominant = code
			highest = counts[code]
		}
	}
	return dominant
}
