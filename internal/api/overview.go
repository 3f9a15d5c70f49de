package api

import (
	"context"

	"golang.org/x/sync/errgroup"

	"shopfront/internal/cart"
)

// Overview fetches the catalog and the cart in parallel for the initial
// storefront render. The two fetches are independent; a failure in either
// fails the overview and the caller decides how much of the page survives.
func (c *Client) Overview(ctx context.Context) ([]cart.Product, cart.Cart, error) {
	var (
		products []cart.Product
		current  = cart.Empty()
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		products, err = c.ListItems(egCtx)
		return err
	})
	eg.Go(func() error {
		var err error
		current, err = c.FetchCart(egCtx)
		return err
	})

	if err := eg.Wait(); err != nil {
		return nil, cart.Empty(), err
	}
	return products, current, nil
}
