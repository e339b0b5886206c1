// Package store is the in-memory backing of the reference order service.
// It stands in for the real backend's database in development and tests;
// persistence design is owned by the external service, not this repo.
package store

import (
	"errors"
	"sync"

	"github.com/dhobi-app/ordering/internal/catalog"
	"github.com/dhobi-app/ordering/internal/order"
	"github.com/dhobi-app/ordering/internal/schedule"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderAlreadyExists = errors.New("order already exists")
)

// StoredOrder is an order record plus the server-side data never exposed on
// the order resource itself.
type StoredOrder struct {
	order.Order
	UserID  string
	Summary []order.SummaryLine
}

// Store holds the reference backend's data. All access is copy-on-read and
// copy-on-write so callers never share memory with the store.
type Store struct {
	mu        sync.RWMutex
	prices    map[string][]catalog.PriceEntry // keyed companyID + "/" + branchID
	schedules []schedule.Definition
	slots     []schedule.Slot
	orders    map[string]*StoredOrder
	byRequest map[string]string // submission request key -> order ID
}

func New() *Store {
	return &Store{
		prices:    make(map[string][]catalog.PriceEntry),
		orders:    make(map[string]*StoredOrder),
		byRequest: make(map[string]string),
	}
}

func priceKey(companyID, branchID string) string {
	return companyID + "/" + branchID
}

// SeedPrices replaces the price list for a company/branch.
func (s *Store) SeedPrices(companyID, branchID string, rows []catalog.PriceEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[priceKey(companyID, branchID)] = append([]catalog.PriceEntry(nil), rows...)
}

// SeedSchedules replaces the schedule definitions and slots.
func (s *Store) SeedSchedules(defs []schedule.Definition, slots []schedule.Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules = append([]schedule.Definition(nil), defs...)
	s.slots = append([]schedule.Slot(nil), slots...)
}

// PriceList returns the raw price rows for a company/branch; empty when
// none are seeded.
func (s *Store) PriceList(companyID, branchID string) []catalog.PriceEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]catalog.PriceEntry(nil), s.prices[priceKey(companyID, branchID)]...)
}

// Schedules returns every schedule definition.
func (s *Store) Schedules() []schedule.Definition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]schedule.Definition(nil), s.schedules...)
}

// Slots returns the slots belonging to a company.
func (s *Store) Slots(companyID string) []schedule.Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []schedule.Slot
	for _, sl := range s.slots {
		if sl.CompanyID == companyID {
			out = append(out, sl)
		}
	}
	return out
}

// CreateOrder stores a new order, registering its request key for
// idempotent retries.
func (s *Store) CreateOrder(o *StoredOrder, requestKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[o.ID]; exists {
		return ErrOrderAlreadyExists
	}

	cp := cloneOrder(o)
	s.orders[o.ID] = cp
	if requestKey != "" {
		s.byRequest[requestKey] = o.ID
	}
	return nil
}

// OrderByRequestKey resolves a previously seen submission key, for
// replaying the original response to a retried submit.
func (s *Store) OrderByRequestKey(requestKey string) (*StoredOrder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byRequest[requestKey]
	if !ok {
		return nil, false
	}
	o, ok := s.orders[id]
	if !ok {
		return nil, false
	}
	return cloneOrder(o), true
}

// GetOrder returns a copy of one order.
func (s *Store) GetOrder(orderID string) (*StoredOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

// OrdersByUser returns copies of a user's orders, most recent first.
func (s *Store) OrdersByUser(userID string) []*StoredOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*StoredOrder
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, cloneOrder(o))
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].OrderDateTime.After(out[i].OrderDateTime) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

// UpdateStatus sets an order's status and returns the updated copy.
func (s *Store) UpdateStatus(orderID string, code int, name string) (*StoredOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	o.Status = code
	o.StatusName = name
	return cloneOrder(o), nil
}

func cloneOrder(o *StoredOrder) *StoredOrder {
	cp := *o
	cp.Summary = append([]order.SummaryLine(nil), o.Summary...)
	if o.DueDate != nil {
		due := *o.DueDate
		cp.DueDate = &due
	}
	return &cp
}
