package enum

// ── Order status codes (authoritative from the order service) ──
//
// The numeric codes do not follow the display order: PICKED_UP was added
// after the original statuses and took the next free code (6). Cancellation
// eligibility compares against the IN_PROGRESS code, so these exact values
// matter.

const (
	StatusOrderPlaced    = 1
	StatusInProgress     = 2
	StatusOutForDelivery = 3
	StatusDelivered      = 4
	StatusCancelled      = 5
	StatusPickedUp       = 6
)

const (
	StatusNameOrderPlaced    = "Order Placed"
	StatusNamePickedUp       = "Picked Up"
	StatusNameInProgress     = "In Progress"
	StatusNameOutForDelivery = "Out for Delivery"
	StatusNameDelivered      = "Delivered"
	StatusNameCancelled      = "Cancelled"
)

// ── Payment methods (closed set, stored verbatim on the order) ──

const (
	PaymentMethodPrepaid  = "prepaid"
	PaymentMethodPostpaid = "postpaid"
)

// ── Scheduling ──

const (
	// DefaultScheduleID is the sentinel slot selection used when a company
	// has no pickup slots configured: the client offers a single all-day
	// window instead of an empty list.
	DefaultScheduleID = 0

	// DefaultSlotWindow is the display window for DefaultScheduleID.
	DefaultSlotWindow = "8:30 AM to 10:00 PM"
)

// FallbackCurrency is used when a price list carries no currency codes.
const FallbackCurrency = "INR"
