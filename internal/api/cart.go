package api

import (
	"context"
	"encoding/json"
	"net/http"

	"shopfront/internal/cart"
	"shopfront/internal/logging"
)

type addItemRequest struct {
	ItemID int64 `json:"item_id"`
}

// FetchCart retrieves the shopper's current cart and normalizes it.
//
// A 4xx here usually means "no cart yet" and its body normalizes to the
// empty cart, so client-error statuses are fed to the normalizer rather than
// classified as failures. A response that defeats normalization falls back
// to an empty cart with the error returned for logging; a broken cart view
// is preferable to an unusable page.
func (c *Client) FetchCart(ctx context.Context) (cart.Cart, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/carts", nil)
	if err != nil {
		return cart.Empty(), err
	}
	if err := c.identity.Apply(req.Header); err != nil {
		return cart.Empty(), err
	}

	status, body, err := c.do(req)
	if err != nil {
		return cart.Empty(), err
	}
	if status >= 500 {
		return cart.Empty(), &ConnectivityError{Status: status}
	}

	normalized, err := cart.NormalizeCart(body)
	if err != nil {
		logging.Cart("Cart response failed normalization: %v", err)
		return cart.Empty(), err
	}
	logging.Cart("Fetched cart %d with %d lines", normalized.ID, len(normalized.Lines))
	return normalized, nil
}

// AddItem adds one unit of the given product to the cart and returns the
// refetched cart. The server is the sole source of truth for price and
// stock, so the cart is always refetched rather than incremented locally.
//
// A non-positive item id is rejected before any network call. Concurrent
// additions are independent request-response pairs; callers debounce at the
// UI level only.
func (c *Client) AddItem(ctx context.Context, itemID int64) (cart.Cart, error) {
	if itemID <= 0 {
		return cart.Empty(), &ValidationError{Msg: "invalid item selected"}
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/carts", addItemRequest{ItemID: itemID})
	if err != nil {
		return cart.Empty(), err
	}
	if err := c.identity.Apply(req.Header); err != nil {
		return cart.Empty(), err
	}

	status, body, err := c.do(req)
	if err != nil {
		return cart.Empty(), err
	}
	if err := classify(status, body); err != nil {
		return cart.Empty(), err
	}

	// The backend sometimes reports failure inside a 2xx envelope.
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		return cart.Empty(), &APIError{Status: status, Message: envelope.Error}
	}

	logging.Cart("Added item %d, refetching cart", itemID)
	return c.FetchCart(ctx)
}
