package cart

import (
	"github.com/dhobi-app/ordering/internal/catalog"
	"github.com/shopspring/decimal"
)

// Line is one cart row, created per catalog price entry. The unit price is
// copied from the entry at initialization so a later catalog refresh cannot
// change a cart in progress.
type Line struct {
	EntryID         int64
	GarmentTypeID   int64
	GarmentTypeName string
	ServiceID       int64
	ServiceName     string
	UnitPrice       decimal.Decimal
	Quantity        int
}

// Cart holds a quantity per priced line item, in catalog order.
type Cart struct {
	lines    []Line
	index    map[int64]int
	currency string
}

// New creates a cart with one zero-quantity line per catalog entry.
func New(c *catalog.Catalog) *Cart {
	entries := c.Entries()
	crt := &Cart{
		lines:    make([]Line, 0, len(entries)),
		index:    make(map[int64]int, len(entries)),
		currency: c.Currency,
	}
	for _, e := range entries {
		crt.index[e.ID] = len(crt.lines)
		crt.lines = append(crt.lines, Line{
			EntryID:         e.ID,
			GarmentTypeID:   e.GarmentTypeID,
			GarmentTypeName: e.GarmentTypeName,
			ServiceID:       e.ServiceID,
			ServiceName:     e.ServiceName,
			UnitPrice:       e.Price,
		})
	}
	return crt
}

// Adjust changes a line's quantity by delta, clamped to a minimum of zero.
// There is no upper bound. Adjusting an unknown entry ID is a no-op.
func (c *Cart) Adjust(entryID int64, delta int) {
	i, ok := c.index[entryID]
	if !ok {
		return
	}
	q := c.lines[i].Quantity + delta
	if q < 0 {
		q = 0
	}
	c.lines[i].Quantity = q
}

// Quantity reports the current quantity for an entry, zero for unknown IDs.
func (c *Cart) Quantity(entryID int64) int {
	if i, ok := c.index[entryID]; ok {
		return c.lines[i].Quantity
	}
	return 0
}

// Total is the sum of quantity × unit price over all lines, recomputed from
// the lines on every call.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		if l.Quantity == 0 {
			continue
		}
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// SelectedLines returns the lines with quantity > 0, in catalog order.
func (c *Cart) SelectedLines() []Line {
	var selected []Line
	for _, l := range c.lines {
		if l.Quantity > 0 {
			selected = append(selected, l)
		}
	}
	return selected
}

// Lines returns all lines in catalog order, including zero-quantity ones.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Currency is the display currency for the cart total, inherited from the
// catalog's dominant currency.
func (c *Cart) Currency() string {
	return c.currency
}
