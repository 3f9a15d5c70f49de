package api

import (
	"context"
	"net/http"

	"shopfront/internal/cart"
)

// ListItems fetches the product catalog. Duplicate catalog entries from the
// backend are collapsed by the normalizer. The bearer header rides along
// when the shopper is signed in; no session header is needed here.
func (c *Client) ListItems(ctx context.Context) ([]cart.Product, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/items", nil)
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

	products, err := cart.NormalizeCatalog(body)
	if err != nil {
		return nil, err
	}
	return products, nil
}
