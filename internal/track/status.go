package track

import "github.com/dhobi-app/ordering/internal/enum"

// Status is one lifecycle state of an order. Code is the service's numeric
// status; label, icon and color are for display. The numeric code and the
// position in the display sequence are independent properties: PickedUp
// carries code 6 but sits second in the sequence.
type Status struct {
	Code        int
	Label       string
	Icon        string
	Color       string
	Description string
}

var (
	OrderPlaced    = Status{enum.StatusOrderPlaced, enum.StatusNameOrderPlaced, "hourglass-outline", "#FF9800", "Your order has been received"}
	PickedUp       = Status{enum.StatusPickedUp, enum.StatusNamePickedUp, "bag-check-outline", "#edc81f", "Items have been picked up"}
	InProgress     = Status{enum.StatusInProgress, enum.StatusNameInProgress, "water-outline", "#2196F3", "Your clothes are being pressed"}
	OutForDelivery = Status{enum.StatusOutForDelivery, enum.StatusNameOutForDelivery, "bicycle-outline", "#9C27B0", "Your order is out for delivery"}
	Delivered      = Status{enum.StatusDelivered, enum.StatusNameDelivered, "checkmark-done-outline", "#4CAF50", "Your order has been delivered"}
	Cancelled      = Status{enum.StatusCancelled, enum.StatusNameCancelled, "close-circle-outline", "#F44336", "This order has been cancelled"}
)

// DisplaySequence is the fixed forward progression shown to the user.
// Cancelled is not part of it; it gets a distinct visual branch.
var DisplaySequence = []Status{OrderPlaced, PickedUp, InProgress, OutForDelivery, Delivered}

// percentages maps each display-sequence position to its progress value.
var percentages = []int{0, 25, 50, 75, 100}

// ByCode resolves a status code to its Status. ok is false for unknown
// codes.
func ByCode(code int) (Status, bool) {
	switch code {
	case enum.StatusOrderPlaced:
		return OrderPlaced, true
	case enum.StatusPickedUp:
		return PickedUp, true
	case enum.StatusInProgress:
		return InProgress, true
	case enum.StatusOutForDelivery:
		return OutForDelivery, true
	case enum.StatusDelivered:
		return Delivered, true
	case enum.StatusCancelled:
		return Cancelled, true
	}
	return Status{}, false
}

// sequenceIndex is the position of a code in the display sequence, -1 when
// the code is not part of it (Cancelled, unknown).
func sequenceIndex(code int) int {
	for i, s := range DisplaySequence {
		if s.Code == code {
			return i
		}
	}
	return -1
}

// Percentage is the progress value for a status code: its display-sequence
// percentage, or 0 for codes outside the sequence.
func Percentage(code int) int {
	i := sequenceIndex(code)
	if i < 0 {
		return 0
	}
	return percentages[i]
}

// IsCompletedOrPast reports whether target's position in the display
// sequence is at or before current's position; used to render which
// lifecycle icons appear filled.
func IsCompletedOrPast(current, target int) bool {
	ci := sequenceIndex(current)
	ti := sequenceIndex(target)
	if ci < 0 || ti < 0 {
		return false
	}
	return ti <= ci
}

// CanCancel reports cancellation eligibility. The rule is the exact numeric
// comparison code < 2, not a display-sequence position check: it permits
// OrderPlaced (1) and excludes PickedUp (6) even though PickedUp renders
// earlier than InProgress (2). Possibly a product defect; do not change
// without product confirmation.
func CanCancel(code int) bool {
	return code < enum.StatusInProgress
}
