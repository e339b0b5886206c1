// Package client is the HTTP implementation of the engine's external
// collaborators: the price list, schedule, and order endpoints of the
// laundry backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dhobi-app/ordering/internal/catalog"
	"github.com/dhobi-app/ordering/internal/enum"
	"github.com/dhobi-app/ordering/internal/order"
	"github.com/dhobi-app/ordering/internal/schedule"
	"github.com/dhobi-app/ordering/internal/track"
)

// RequestKeyHeader carries the submission idempotency key so a retried
// submit after a transport failure cannot double-create an order.
const RequestKeyHeader = "X-Request-Key"

// Client talks to one laundry backend. Safe for concurrent use; the bearer
// token is guarded so a re-login can race in-flight calls.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// New creates a client for the backend at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken sets the bearer token attached to every subsequent call.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token (also used for the ws stream).
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// apiError is the backend's error envelope.
type apiError struct {
	Message string `json:"message"`
}

// Login obtains a bearer token for the user and keeps it on the client.
func (c *Client) Login(ctx context.Context, userID, branchID string) error {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]string{"userId": userID, "BranchID": branchID}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", nil, body, &resp); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	c.SetToken(resp.Token)
	return nil
}

// FetchPriceList implements catalog.Source.
func (c *Client) FetchPriceList(ctx context.Context, companyID, branchID string) ([]catalog.PriceEntry, error) {
	q := url.Values{}
	q.Set("CompanyId", companyID)
	q.Set("BranchID", branchID)

	var rows []catalog.PriceEntry
	if err := c.doJSON(ctx, http.MethodGet, "/price-list", q, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// FetchSchedulesAndSlots implements schedule.Source. Schedules and slots
// are independent data, so the two reads run concurrently.
func (c *Client) FetchSchedulesAndSlots(ctx context.Context, companyID string) ([]schedule.Definition, []schedule.Slot, error) {
	var (
		wg      sync.WaitGroup
		defs    []schedule.Definition
		slots   []schedule.Slot
		defErr  error
		slotErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		defErr = c.doJSON(ctx, http.MethodGet, "/schedules", nil, nil, &defs)
	}()
	go func() {
		defer wg.Done()
		q := url.Values{}
		q.Set("CompanyID", companyID)
		slotErr = c.doJSON(ctx, http.MethodGet, "/slots", q, nil, &slots)
	}()
	wg.Wait()

	if defErr != nil {
		return nil, nil, defErr
	}
	if slotErr != nil {
		return nil, nil, slotErr
	}
	return defs, slots, nil
}

// SubmitOrder implements order.Submitter. Failures come back as
// *order.SubmissionError with the backend's message when it sent one; the
// draft is never modified.
func (c *Client) SubmitOrder(ctx context.Context, draft *order.Draft) (*order.Order, error) {
	var o order.Order
	err := c.do(ctx, http.MethodPost, "/orders", nil, draft, &o, map[string]string{
		RequestKeyHeader: draft.RequestKey,
	})
	if err != nil {
		if herr, ok := err.(*httpError); ok {
			return nil, &order.SubmissionError{Message: herr.Message}
		}
		return nil, &order.SubmissionError{Message: err.Error()}
	}
	return &o, nil
}

// FetchOrders returns the user's order history, newest first.
func (c *Client) FetchOrders(ctx context.Context, userID string) ([]order.Order, error) {
	q := url.Values{}
	q.Set("userId", userID)

	var orders []order.Order
	if err := c.doJSON(ctx, http.MethodGet, "/orders", q, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// FetchOrder returns one order record by ID.
func (c *Client) FetchOrder(ctx context.Context, orderID string) (*order.Order, error) {
	var o order.Order
	if err := c.doJSON(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// FetchOrderSummary returns the receipt lines of an order.
func (c *Client) FetchOrderSummary(ctx context.Context, orderID string) ([]order.SummaryLine, error) {
	var resp struct {
		Orders []order.SummaryLine `json:"orders"`
	}
	path := "/orders/" + url.PathEscape(orderID) + "/summary"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

// CancelOrder implements track.OrderService. Failures come back as
// *track.CancellationError with the backend's message.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (*order.Order, error) {
	body := map[string]int{"OrderStatus": enum.StatusCancelled}
	path := "/orders/" + url.PathEscape(orderID) + "/cancel"

	var o order.Order
	if err := c.doJSON(ctx, http.MethodPut, path, nil, body, &o); err != nil {
		if herr, ok := err.(*httpError); ok {
			return nil, &track.CancellationError{Message: herr.Message}
		}
		return nil, &track.CancellationError{Message: err.Error()}
	}
	return &o, nil
}

// UpdateOrderStatus advances an order's lifecycle status. This is the
// laundry-side operation; the customer engine only cancels.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status int) error {
	body := map[string]int{"OrderStatus": status}
	path := "/orders/" + url.PathEscape(orderID) + "/status"
	return c.doJSON(ctx, http.MethodPatch, path, nil, body, nil)
}

// httpError is a non-2xx response, carrying the decoded backend message.
type httpError struct {
	StatusCode int
	Message    string
}

func (e *httpError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	return c.do(ctx, method, path, query, body, out, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}, headers map[string]string) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		// Best effort: the envelope may be absent on proxy errors.
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &httpError{StatusCode: resp.StatusCode, Message: apiErr.Message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
