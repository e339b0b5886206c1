package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dhobi-app/ordering/internal/enum"
)

// ErrScheduleUnavailable is returned when schedule or slot data cannot be
// loaded. Callers degrade to the synthetic default window instead of
// blocking order placement.
var ErrScheduleUnavailable = errors.New("schedule information unavailable")

// startLayout parses the leading time token of a slot window, e.g. the
// "2:00 PM" in "2:00 PM to 4:00 PM". time.Parse handles the noon/midnight
// boundary (12 PM = hour 12, 12 AM = hour 0).
const startLayout = "3:04 PM"

// Definition is the activation record a slot is linked to.
type Definition struct {
	ScheduleID int  `json:"ScheduleID"`
	IsActive   bool `json:"IsActive"`
}

// Slot is one offerable pickup window for a company.
type Slot struct {
	ScheduleID int    `json:"ScheduleID"`
	Window     string `json:"Schedule"`
	IsActive   bool   `json:"IsActive"`
	CompanyID  string `json:"CompanyID"`
}

// Source fetches schedule definitions and slots for a company.
// Satisfied by *client.Client.
type Source interface {
	FetchSchedulesAndSlots(ctx context.Context, companyID string) ([]Definition, []Slot, error)
}

// Load fetches and pre-filters the offerable slots for a company. A failed
// fetch is reported as ErrScheduleUnavailable. Callers presenting slots to a
// user should prefer Offered, which degrades that failure to the default
// window instead of blocking order placement.
func Load(ctx context.Context, src Source, companyID string) ([]Slot, error) {
	defs, slots, err := src.FetchSchedulesAndSlots(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScheduleUnavailable, err)
	}
	return Available(slots, defs, companyID), nil
}

// Offered loads the company's slots and applies Offer for the date. A load
// failure degrades to the synthetic default window rather than blocking the
// flow; the ErrScheduleUnavailable is returned alongside so callers can
// report it, but the slot set is usable either way.
func Offered(ctx context.Context, src Source, companyID string, date, now time.Time) ([]Slot, error) {
	available, err := Load(ctx, src, companyID)
	if err != nil {
		return []Slot{DefaultSlot()}, err
	}
	return Offer(available, date, now), nil
}

// Available returns the slots that are valid to offer regardless of date:
// the slot is active, belongs to the company, and its linked schedule
// definition is active.
func Available(slots []Slot, defs []Definition, companyID string) []Slot {
	active := make(map[int]bool, len(defs))
	for _, d := range defs {
		if d.IsActive {
			active[d.ScheduleID] = true
		}
	}

	var out []Slot
	for _, s := range slots {
		if !s.IsActive || s.CompanyID != companyID {
			continue
		}
		if !active[s.ScheduleID] {
			continue
		}
		out = append(out, s)
	}
	return out
}

// ForDate filters available slots for a target date. For today, slots whose
// window start has already passed now are excluded; future dates keep every
// slot. Slots with an unparseable window are excluded for today only.
func ForDate(available []Slot, date, now time.Time) []Slot {
	if !sameDay(date, now) {
		return available
	}

	var out []Slot
	for _, s := range available {
		start, err := StartAt(s.Window, date, now.Location())
		if err != nil {
			continue
		}
		if start.After(now) {
			out = append(out, s)
		}
	}
	return out
}

// Offer is what gets presented to the user for a date: the date-filtered
// slots, or the synthetic default full-day window when the company has no
// available slots configured at all. An available-but-filtered-empty set
// stays empty (the user picks another date).
func Offer(available []Slot, date, now time.Time) []Slot {
	if len(available) == 0 {
		return []Slot{DefaultSlot()}
	}
	return ForDate(available, date, now)
}

// DefaultSlot is the client-side placeholder window offered when no slots
// exist for a company. Its schedule ID is the sentinel meaning "no
// predefined slot, use the default all-day window".
func DefaultSlot() Slot {
	return Slot{
		ScheduleID: enum.DefaultScheduleID,
		Window:     enum.DefaultSlotWindow,
		IsActive:   true,
	}
}

// StartAt resolves a slot window's start boundary on the given date. Only
// the start of the "<start> to <end>" range matters for filtering.
func StartAt(window string, date time.Time, loc *time.Location) (time.Time, error) {
	startTok, _, found := strings.Cut(window, " to ")
	if !found {
		startTok = window
	}
	t, err := time.Parse(startLayout, strings.TrimSpace(startTok))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse slot window %q: %w", window, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
