package order

import (
	"context"
	"strings"
	"time"

	"github.com/dhobi-app/ordering/internal/cart"
	"github.com/dhobi-app/ordering/internal/enum"
	"github.com/google/uuid"
)

// ValidationError carries every reason a draft cannot be built yet. All
// validation failures are recoverable: the user corrects input and retries,
// no state is lost.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "order validation failed: " + strings.Join(e.Reasons, "; ")
}

// SubmissionError is a transport or server failure during order submission.
// The service's message is surfaced verbatim when available.
type SubmissionError struct {
	Message string
}

func (e *SubmissionError) Error() string {
	if e.Message == "" {
		return "failed to place order, please try again"
	}
	return e.Message
}

// Submitter sends a finished draft to the order service.
// Satisfied by *client.Client.
type Submitter interface {
	SubmitOrder(ctx context.Context, draft *Draft) (*Order, error)
}

// Selection is the user's scheduling and payment choice for a draft.
// ScheduleID is a pointer so "nothing picked yet" is distinguishable from
// the default-window sentinel (0).
type Selection struct {
	ScheduleID    *int
	Date          time.Time
	PaymentMethod string
}

// Builder assembles order drafts for one user session at one laundry.
type Builder struct {
	UserID    string
	BranchID  string
	CompanyID string
}

// Validate reports every missing precondition for submission. It returns
// nil when the cart has at least one selected line and schedule, date and
// payment method are all set.
func (b Builder) Validate(c *cart.Cart, sel Selection) error {
	var reasons []string

	if b.UserID == "" || b.BranchID == "" || b.CompanyID == "" {
		reasons = append(reasons, "missing account or laundry information")
	}
	if len(c.SelectedLines()) == 0 {
		reasons = append(reasons, "select at least one item")
	}
	if sel.ScheduleID == nil {
		reasons = append(reasons, "pickup slot is required")
	}
	if sel.Date.IsZero() {
		reasons = append(reasons, "pickup date is required")
	}
	if sel.PaymentMethod == "" {
		reasons = append(reasons, "payment method is required")
	} else if sel.PaymentMethod != enum.PaymentMethodPrepaid && sel.PaymentMethod != enum.PaymentMethodPostpaid {
		reasons = append(reasons, "invalid payment method")
	}

	if len(reasons) > 0 {
		return &ValidationError{Reasons: reasons}
	}
	return nil
}

// Build validates and assembles the submission draft: each selected cart
// line becomes a submission line, and the total is the cart total.
func (b Builder) Build(c *cart.Cart, sel Selection) (*Draft, error) {
	if err := b.Validate(c, sel); err != nil {
		return nil, err
	}

	selected := c.SelectedLines()
	lines := make([]Line, len(selected))
	for i, l := range selected {
		lines[i] = Line{
			GarmentTypeID: l.GarmentTypeID,
			ServiceID:     l.ServiceID,
			Quantity:      l.Quantity,
			UnitPrice:     l.UnitPrice,
			IsActive:      1,
		}
	}

	return &Draft{
		UserID:        b.UserID,
		BranchID:      b.BranchID,
		CompanyID:     b.CompanyID,
		PickupSlot:    *sel.ScheduleID,
		PickupDate:    sel.Date.Format(PickupDateLayout),
		TotalAmount:   c.Total(),
		PaymentMethod: sel.PaymentMethod,
		Lines:         lines,
		RequestKey:    uuid.New().String(),
	}, nil
}

// Submit sends the draft to the order service. The draft is never mutated,
// so a failed submission can be retried without re-entering anything; the
// service's error is passed through untouched.
func Submit(ctx context.Context, s Submitter, draft *Draft) (*Order, error) {
	return s.SubmitOrder(ctx, draft)
}
