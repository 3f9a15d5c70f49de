// This file contains the backend calls wrapped as tea commands. Every
// command carries the generation it was launched under so stale responses
// can be discarded in Update.
package shop

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"shopfront/internal/api"
	"shopfront/internal/cart"
)

func (m Model) loadOverview(gen int) tea.Cmd {
	client := m.client
	ctx := m.lifetime
	return func() tea.Msg {
		products, basket, err := client.Overview(ctx)
		return overviewMsg{gen: gen, products: products, basket: basket, err: err}
	}
}

func (m Model) loadCart(gen int, note string) tea.Cmd {
	client := m.client
	ctx := m.lifetime
	return func() tea.Msg {
		basket, err := client.FetchCart(ctx)
		if errors.Is(err, cart.ErrMalformed) {
			// The empty-cart fallback already happened; surface nothing.
			err = nil
		}
		return cartMsg{gen: gen, basket: basket, note: note, err: err}
	}
}

func (m Model) addItem(gen int, p cart.Product) tea.Cmd {
	client := m.client
	ctx := m.lifetime
	return func() tea.Msg {
		basket, err := client.AddItem(ctx, p.ID)
		if err != nil {
			return cartMsg{gen: gen, err: err}
		}
		note := fmt.Sprintf("%s added (%d in cart)", p.Name, basket.Quantity(p.ID))
		return cartMsg{gen: gen, basket: basket, note: note}
	}
}

func (m Model) loadOrders(gen int) tea.Cmd {
	client := m.client
	ctx := m.lifetime
	return func() tea.Msg {
		orders, err := client.ListOrders(ctx)
		return ordersMsg{gen: gen, orders: orders, err: err}
	}
}

func (m Model) placeOrder() tea.Cmd {
	client := m.client
	ctx := m.lifetime
	return func() tea.Msg {
		order, err := client.PlaceOrder(ctx)
		return checkoutMsg{order: order, err: err}
	}
}

func (m Model) login(username, password string) tea.Cmd {
	mgr := m.auth
	ctx := m.lifetime
	return func() tea.Msg {
		user, err := mgr.Login(ctx, username, password)
		return authMsg{user: user, mode: LoginPage, err: err}
	}
}

func (m Model) register(username, password string) tea.Cmd {
	mgr := m.auth
	ctx := m.lifetime
	return func() tea.Msg {
		err := mgr.Register(ctx, username, password)
		return authMsg{mode: RegisterPage, err: err}
	}
}

// loadProfile restores the signed-in identity from a persisted token at
// startup. Failure is silent; the shopper just starts anonymous.
func (m Model) loadProfile() tea.Cmd {
	mgr := m.auth
	ctx := m.lifetime
	return func() tea.Msg {
		if !mgr.IsAuthenticated() {
			return whoamiMsg{err: errors.New("no token")}
		}
		user, err := mgr.CurrentUser(ctx)
		return whoamiMsg{user: user, err: err}
	}
}

// describe turns the error taxonomy into shopper-facing text.
func describe(err error) string {
	var valErr *api.ValidationError
	if errors.As(err, &valErr) {
		return valErr.Msg
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var connErr *api.ConnectivityError
	if errors.As(err, &connErr) {
		return "Cannot reach the store, try again shortly"
	}
	if errors.Is(err, cart.ErrMalformed) {
		return "The store sent an unexpected response"
	}
	return err.Error()
}
