// Package stream subscribes to the backend's live order-status feed and
// forwards updates to the caller, typically a track.Tracker.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// Event mirrors the ws hub's broadcast envelope.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// StatusPayload is the payload of an "order.status" event.
type StatusPayload struct {
	OrderID    string `json:"order_id"`
	Status     int    `json:"status"`
	StatusName string `json:"status_name"`
}

// EventTypeStatus is the only event type the watcher acts on; others are
// ignored so the backend can add event types without breaking old clients.
const EventTypeStatus = "order.status"

// Watch dials the backend's status stream for one order and invokes apply
// for every status update until the connection closes or ctx is done. A
// normal close returns nil; the caller keeps the tracker's last
// authoritative status either way.
func Watch(ctx context.Context, baseURL, token, orderID string, apply func(code int, name string)) error {
	u, err := wsURL(baseURL, orderID, token)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("dial status stream: %w", err)
	}

	// Unblock ReadMessage when the caller gives up.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
			conn.Close()
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read status stream: %w", err)
		}

		// The hub may batch newline-separated events in one frame.
		for _, raw := range strings.Split(string(msg), "\n") {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			var ev Event
			if err := json.Unmarshal([]byte(raw), &ev); err != nil {
				continue
			}
			if ev.Type != EventTypeStatus {
				continue
			}
			var p StatusPayload
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				continue
			}
			if p.OrderID != orderID {
				continue
			}
			apply(p.Status, p.StatusName)
		}
	}
}

func wsURL(baseURL, orderID, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/orders/" + url.PathEscape(orderID)
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
