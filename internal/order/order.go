package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// PickupDateLayout is the wire format for the scheduled pickup date.
const PickupDateLayout = "2006-01-02"

// fallbackTurnaround estimates delivery when the service has not set a due
// date yet.
const fallbackTurnaround = 3 * 24 * time.Hour

// Line is one submitted order line, mapped from a selected cart line.
type Line struct {
	GarmentTypeID int64           `json:"dressTypeId"`
	ServiceID     int64           `json:"serviceId"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	IsActive      int             `json:"isActive"`
}

// Draft is an order submission not yet accepted by the order service. A
// failed submission leaves the draft intact so it can be retried verbatim.
type Draft struct {
	UserID        string          `json:"userId"`
	BranchID      string          `json:"BranchID"`
	CompanyID     string          `json:"companyId"`
	PickupSlot    int             `json:"pickupSlot"`
	PickupDate    string          `json:"pickupDate"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentMethod string          `json:"PaymentMethod"`
	Lines         []Line          `json:"orderDetails"`

	// RequestKey deduplicates retried submissions; sent as a header, not
	// part of the order payload.
	RequestKey string `json:"-"`
}

// Order is the record owned by the order service. Read-only to this engine;
// status changes arrive from the service (or the optimistic local cancel).
type Order struct {
	ID            string          `json:"OrderId"`
	CompanyID     string          `json:"CompanyId"`
	Status        int             `json:"OrderStatus"`
	StatusName    string          `json:"OrderStatusName"`
	OrderDateTime time.Time       `json:"OrderDateTime"`
	DueDate       *time.Time      `json:"DueDate,omitempty"`
	PickupSlot    int             `json:"PickupSlot"`
	PickupDate    string          `json:"PickupDate"`
	PaymentMethod string          `json:"PaymentMethod"`
	TotalAmount   decimal.Decimal `json:"TotalAmount"`
	Address       string          `json:"FullAddress,omitempty"`
	PhoneNumber   string          `json:"PhoneNumber,omitempty"`
}

// EstimatedDelivery is the due date when the service has set one, otherwise
// three days after the order was placed.
func (o *Order) EstimatedDelivery() time.Time {
	if o.DueDate != nil {
		return *o.DueDate
	}
	return o.OrderDateTime.Add(fallbackTurnaround)
}

// SummaryLine is one receipt row of a placed order, fetched separately from
// the order record.
type SummaryLine struct {
	GarmentTypeID   int64           `json:"DressTypeId"`
	GarmentTypeName string          `json:"DressTypeName"`
	ServiceName     string          `json:"ServiceName"`
	Quantity        int             `json:"Quantity"`
	UnitPrice       decimal.Decimal `json:"UnitPrice"`
	TotalPrice      decimal.Decimal `json:"TotalPrice"`
}
