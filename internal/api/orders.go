package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"shopfront/internal/cart"
	"shopfront/internal/logging"
)

// Order is a finalized cart as confirmed by the backend.
type Order struct {
	ID        int64       `json:"order_id"`
	CartID    int64       `json:"cart_id"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	Lines     []cart.Line `json:"items"`
}

// PlaceOrder finalizes the active cart into an order. Requires an
// authenticated shopper; the session header still rides along so a freshly
// migrated guest cart is the one that gets ordered.
//
// Failure is reported as failure. The order flow never pretends success when
// the finalize call did not succeed.
func (c *Client) PlaceOrder(ctx context.Context) (Order, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/orders", nil)
	if err != nil {
		return Order{}, err
	}
	if err := c.identity.Apply(req.Header); err != nil {
		return Order{}, err
	}

	status, body, err := c.do(req)
	if err != nil {
		return Order{}, err
	}
	if err := classify(status, body); err != nil {
		return Order{}, err
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return Order{}, fmt.Errorf("%w: order response: %v", cart.ErrMalformed, err)
	}
	logging.Cart("Placed order %d for cart %d", order.ID, order.CartID)
	return order, nil
}

// ListOrders returns the shopper's past orders, newest ordering as the
// backend provides it. Requires a bearer token.
func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/orders", nil)
	if err != nil {
		return nil, err
	}
	c.bearer(req.Header)

	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if err := classify(status, body); err != nil {
		return nil, err
	}

	var orders []Order
	if err := json.Unmarshal(body, &orders); err != nil {
		return nil, fmt.Errorf("%w: orders response: %v", cart.ErrMalformed, err)
	}
	if orders == nil {
		orders = []Order{}
	}
	return orders, nil
}
