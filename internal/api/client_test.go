package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"shopfront/internal/cart"
	"shopfront/internal/session"
)

// memStore backs the session provider in tests.
type memStore struct {
	values map[string]string
}

func (m *memStore) Get(key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memStore) Set(key, value string) error {
	m.values[key] = value
	return nil
}

// testIdentity is an authenticated shopper with a fixed session id.
func testIdentity(sessionID, token string) session.Identity {
	store := &memStore{values: map[string]string{"session_id": sessionID}}
	return session.Identity{
		Sessions:      session.NewProvider(store),
		Token:         func() (string, bool) { return token, token != "" },
		Authenticated: func() bool { return token != "" },
	}
}

func newTestClient(t *testing.T, identity session.Identity, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	cfg := DefaultConfig()
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond
	client := New(server.URL, identity, cfg)
	t.Cleanup(func() {
		client.http.CloseIdleConnections()
		server.Close()
	})
	return client
}

func TestFetchCartSendsBothIdentityHeaders(t *testing.T) {
	var gotAuth, gotSession string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotSession = r.Header.Get("X-Session-ID")
		w.Write([]byte(`{"cart_id": 1, "items": []}`))
	})
	client := newTestClient(t, testIdentity("sess_1", "abc"), handler)

	_, err := client.FetchCart(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer abc", gotAuth)
	require.Equal(t, "sess_1", gotSession)
}

func TestFetchCartAnonymousOmitsBearer(t *testing.T) {
	var gotAuth, gotSession string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotSession = r.Header.Get("X-Session-ID")
		w.Write([]byte(`{}`))
	})
	client := newTestClient(t, testIdentity("sess_anon", ""), handler)

	got, err := client.FetchCart(context.Background())
	require.NoError(t, err)
	require.Empty(t, gotAuth)
	require.Equal(t, "sess_anon", gotSession)
	require.Equal(t, cart.Empty(), got)
}

func TestFetchCartClientErrorNormalizesToEmpty(t *testing.T) {
	// "No cart yet" arrives as a 4xx with an error envelope; the shopper
	// just sees an empty cart.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "no active cart"}`))
	})
	client := newTestClient(t, testIdentity("sess_1", ""), handler)

	got, err := client.FetchCart(context.Background())
	require.NoError(t, err)
	require.Equal(t, cart.Empty(), got)
}

func TestFetchCartMalformedFallsBackToEmpty(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"cart_id": 3, "items": 42}`))
	})
	client := newTestClient(t, testIdentity("sess_1", ""), handler)

	got, err := client.FetchCart(context.Background())
	require.ErrorIs(t, err, cart.ErrMalformed)
	require.Equal(t, cart.Empty(), got)
}

func TestFetchCartServerErrorIsConnectivity(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	client := newTestClient(t, testIdentity("sess_1", ""), handler)

	_, err := client.FetchCart(context.Background())
	var connErr *ConnectivityError
	require.ErrorAs(t, err, &connErr)
	require.Equal(t, http.StatusBadGateway, connErr.Status)
}

func TestAddItemRejectsInvalidIDWithoutNetworkCall(t *testing.T) {
	var calls atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	client := newTestClient(t, testIdentity("sess_1", ""), handler)

	for _, id := range []int64{0, -5} {
		_, err := client.AddItem(context.Background(), id)
		var valErr *ValidationError
		require.ErrorAs(t, err, &valErr, "itemID %d", id)
	}
	require.Zero(t, calls.Load(), "validation failures must not reach the network")
}

func TestAddItemRefetchesCartAfterMutation(t *testing.T) {
	var gets atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			w.Write([]byte(`{"cart_id": 7}`))
		case http.MethodGet:
			gets.Add(1)
			w.Write([]byte(`{"cart_id": 7, "items": [{"item_id": 3, "quantity": 1, "name": "Widget", "price": 9.99}]}`))
		}
	})
	client := newTestClient(t, testIdentity("sess_1", "abc"), handler)

	got, err := client.AddItem(context.Background(), 3)
	require.NoError(t, err)
	require.EqualValues(t, 1, gets.Load(), "mutation must be followed by a full refetch")
	require.EqualValues(t, 7, got.ID)
	require.Len(t, got.Lines, 1)
	require.Equal(t, "Widget", got.Lines[0].Name)
}

func TestAddItemApplicationErrorMessageExtraction(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message": "item is out of stock"}`, "item is out of stock"},
		{"error field", `{"error": "item not found"}`, "item not found"},
		{"details field", `{"details": "quantity limit reached"}`, "quantity limit reached"},
		{"message wins over error", `{"message": "first", "error": "second"}`, "first"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tc.body))
			})
			client := newTestClient(t, testIdentity("sess_1", ""), handler)

			_, err := client.AddItem(context.Background(), 3)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, tc.want, apiErr.Message)
		})
	}
}

func TestAddItemErrorInsideSuccessEnvelope(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "item no longer available"}`))
	})
	client := newTestClient(t, testIdentity("sess_1", ""), handler)

	_, err := client.AddItem(context.Background(), 3)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "item no longer available", apiErr.Message)
}

func TestAddItemNotRetriedOnServerError(t *testing.T) {
	var posts atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	client := newTestClient(t, testIdentity("sess_1", ""), handler)

	_, err := client.AddItem(context.Background(), 3)
	var connErr *ConnectivityError
	require.ErrorAs(t, err, &connErr)
	require.EqualValues(t, 1, posts.Load(), "mutations must be sent exactly once")
}

func TestGetRetriesOnServerError(t *testing.T) {
	var attempts atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"id": 1, "name": "Widget", "price": 9.99, "status": "available"}]`))
	})
	client := newTestClient(t, testIdentity("sess_1", ""), handler)

	products, err := client.ListItems(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, attempts.Load())
	require.Len(t, products, 1)
}

func TestListItemsDeduplicatesCatalog(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id": 1, "name": "Widget", "price": 9.99, "status": "available"},
			{"id": 1, "name": "Widget", "price": 9.99, "status": "available"},
			{"id": 2, "name": "Gadget", "price": 4.50, "status": "available"}
		]`))
	})
	client := newTestClient(t, testIdentity("sess_1", ""), handler)

	products, err := client.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
}

func TestConnectivityErrorOnUnreachableBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRetries = 0
	cfg.Timeout = time.Second
	client := New("http://127.0.0.1:1", testIdentity("sess_1", ""), cfg)
	t.Cleanup(client.http.CloseIdleConnections)

	_, err := client.FetchCart(context.Background())
	var connErr *ConnectivityError
	require.ErrorAs(t, err, &connErr)
	require.Zero(t, connErr.Status)
}

func TestLogin(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/users/login", r.URL.Path)
		w.Write([]byte(`{"token": "tok_1", "user_id": 42}`))
	})
	client := newTestClient(t, testIdentity("sess_1", ""), handler)

	result, err := client.Login(context.Background(), "  alice  ", "pw")
	require.NoError(t, err)
	require.Equal(t, "tok_1", result.Token)
	require.EqualValues(t, 42, result.UserID)
}

func TestLoginWithoutTokenIsMalformed(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user_id": 42}`))
	})
	client := newTestClient(t, testIdentity("sess_1", ""), handler)

	_, err := client.Login(context.Background(), "alice", "pw")
	require.ErrorIs(t, err, cart.ErrMalformed)
}

func TestRegisterConflictFallbackMessage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{}`))
	})
	client := newTestClient(t, testIdentity("sess_1", ""), handler)

	err := client.Register(context.Background(), "alice", "pw")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Contains(t, apiErr.Message, "already exists")
}

func TestPlaceOrder(t *testing.T) {
	var gotAuth, gotSession string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotSession = r.Header.Get("X-Session-ID")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{
			"message": "Order created successfully",
			"order_id": 11, "cart_id": 7, "status": "completed",
			"created_at": "2026-02-10T12:00:00Z",
			"items": [{"id": 3, "name": "Widget", "price": 9.99, "quantity": 2}]
		}`))
	})
	client := newTestClient(t, testIdentity("sess_1", "abc"), handler)

	order, err := client.PlaceOrder(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer abc", gotAuth)
	require.Equal(t, "sess_1", gotSession)
	require.EqualValues(t, 11, order.ID)
	require.Len(t, order.Lines, 1)
	require.Equal(t, 2, order.Lines[0].Quantity)
}

func TestPlaceOrderFailureIsNotSuccess(t *testing.T) {
	// Regression guard: the order flow must report failure distinctly, never
	// a success message on a failed finalize call.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "Cannot create order with empty cart"}`))
	})
	client := newTestClient(t, testIdentity("sess_1", "abc"), handler)

	_, err := client.PlaceOrder(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Cannot create order with empty cart", apiErr.Message)
}

func TestListOrdersNullBody(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	})
	client := newTestClient(t, testIdentity("sess_1", "abc"), handler)

	orders, err := client.ListOrders(context.Background())
	require.NoError(t, err)
	require.NotNil(t, orders)
	require.Empty(t, orders)
}

func TestOverviewFetchesCatalogAndCart(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/items":
			w.Write([]byte(`[{"id": 1, "name": "Widget", "price": 9.99, "status": "available"}]`))
		case "/api/carts":
			w.Write([]byte(`{"cart_id": 7, "items": [{"item_id": 1, "quantity": 2}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	client := newTestClient(t, testIdentity("sess_1", ""), handler)

	products, current, err := client.Overview(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.EqualValues(t, 7, current.ID)
	require.Equal(t, 2, current.Quantity(1))
}

func TestCancelledContextStopsRequest(t *testing.T) {
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	})
	client := newTestClient(t, testIdentity("sess_1", ""), handler)
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := client.FetchCart(ctx)
	var connErr *ConnectivityError
	require.ErrorAs(t, err, &connErr)
}
