// Package shop provides the interactive TUI storefront. The functionality is
// split across files:
//   - model.go: Types, Init, Update loop (this file)
//   - commands.go: Backend calls as tea commands
//   - view.go: Rendering functions
package shop

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"shopfront/cmd/shopfront/ui"
	"shopfront/internal/api"
	"shopfront/internal/auth"
	"shopfront/internal/cart"
	"shopfront/internal/logging"
)

// Page determines which screen is active.
type Page int

const (
	CatalogPage Page = iota
	CartPage
	OrdersPage
	LoginPage
	RegisterPage
	HelpPage
)

// CheckoutState is the confirmation flow for placing an order. Checkout is
// always explicit: browse, confirm, submit. A failed submit returns to idle
// with the failure on screen, never a success message.
type CheckoutState int

const (
	CheckoutIdle CheckoutState = iota
	CheckoutConfirming
	CheckoutSubmitting
)

// Model is the main model for the interactive storefront.
type Model struct {
	// Backend
	client *api.Client
	auth   *auth.Manager

	// UI components
	styles   ui.Styles
	spinner  spinner.Model
	username textinput.Model
	password textinput.Model
	help     viewport.Model
	renderer *glamour.TermRenderer

	// State
	page     Page
	products []cart.Product
	basket   cart.Cart
	orders   []api.Order
	user     *api.User

	cursor  int
	loading bool
	toast   ui.Toast

	checkout  CheckoutState
	lastOrder *api.Order

	// reqGen stamps every in-flight load; responses from a superseded
	// generation are discarded so a slow fetch cannot overwrite newer state.
	reqGen int

	width  int
	height int
	ready  bool

	// lifetime bounds all backend calls; cancelled on quit.
	lifetime context.Context
	cancel   context.CancelFunc
}

// New creates the storefront model. The caller owns program startup; the
// model owns its backend-call lifetime.
func New(client *api.Client, mgr *auth.Manager, styles ui.Styles) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		renderer = nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		client:   client,
		auth:     mgr,
		styles:   styles,
		spinner:  sp,
		username: username,
		password: password,
		renderer: renderer,
		page:     CatalogPage,
		basket:   cart.Empty(),
		loading:  true,
		lifetime: ctx,
		cancel:   cancel,
	}
}

// Messages for tea updates
type (
	overviewMsg struct {
		gen      int
		products []cart.Product
		basket   cart.Cart
		err      error
	}
	cartMsg struct {
		gen    int
		basket cart.Cart
		note   string
		err    error
	}
	ordersMsg struct {
		gen    int
		orders []api.Order
		err    error
	}
	checkoutMsg struct {
		order api.Order
		err   error
	}
	authMsg struct {
		user api.User
		mode Page // LoginPage or RegisterPage
		err  error
	}
	whoamiMsg struct {
		user api.User
		err  error
	}
)

// Init starts the spinner and the initial catalog+cart fetch. The initial
// load runs under generation zero, matching the model's starting reqGen.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		textinput.Blink,
		m.loadOverview(m.reqGen),
		m.loadProfile(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.help = viewport.New(msg.Width-4, msg.Height-8)
			m.ready = true
		} else {
			m.help.Width = msg.Width - 4
			m.help.Height = msg.Height - 8
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case overviewMsg:
		if msg.gen != m.reqGen {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.toast = ui.ErrorToast(describe(msg.err))
			return m, nil
		}
		m.products = msg.products
		m.basket = msg.basket
		m.clampCursor()
		return m, nil

	case cartMsg:
		if msg.gen != m.reqGen {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.toast = ui.ErrorToast(describe(msg.err))
			return m, nil
		}
		m.basket = msg.basket
		if msg.note != "" {
			m.toast = ui.SuccessToast(msg.note)
		}
		return m, nil

	case ordersMsg:
		if msg.gen != m.reqGen {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.toast = ui.ErrorToast(describe(msg.err))
			return m, nil
		}
		m.orders = msg.orders
		return m, nil

	case checkoutMsg:
		m.checkout = CheckoutIdle
		m.loading = false
		if msg.err != nil {
			// The whole point of the confirmation flow: a failed order is
			// shown as a failure while the cart stays intact.
			m.toast = ui.ErrorToast("Checkout failed: " + describe(msg.err))
			return m, nil
		}
		order := msg.order
		m.lastOrder = &order
		m.toast = ui.SuccessToast("Order placed")
		m.reqGen++
		m.loading = true
		return m, m.loadCart(m.reqGen, "")

	case authMsg:
		m.loading = false
		if msg.err != nil {
			m.toast = ui.ErrorToast(describe(msg.err))
			return m, nil
		}
		if msg.mode == RegisterPage {
			m.toast = ui.SuccessToast("Account created, sign in to continue")
			m.page = LoginPage
			m.resetForm()
			return m, nil
		}
		user := msg.user
		m.user = &user
		m.toast = ui.SuccessToast("Signed in as " + user.Username)
		m.page = CatalogPage
		m.resetForm()
		// The backend may have migrated the guest cart onto the account.
		m.reqGen++
		m.loading = true
		return m, m.loadCart(m.reqGen, "")

	case whoamiMsg:
		if msg.err == nil {
			user := msg.user
			m.user = &user
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.cancel()
		return m, tea.Quit
	}

	// The confirmation dialog swallows everything except its own keys.
	if m.checkout == CheckoutConfirming {
		switch msg.String() {
		case "y", "enter":
			m.checkout = CheckoutSubmitting
			m.loading = true
			return m, m.placeOrder()
		case "n", "esc":
			m.checkout = CheckoutIdle
			m.toast = ui.InfoToast("Checkout cancelled")
		}
		return m, nil
	}
	if m.checkout == CheckoutSubmitting {
		return m, nil
	}

	if m.page == LoginPage || m.page == RegisterPage {
		return m.handleFormKey(msg)
	}

	switch msg.String() {
	case "q", "esc":
		if m.page != CatalogPage {
			m.page = CatalogPage
			return m, nil
		}
		m.cancel()
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		m.cursor++
		m.clampCursor()

	case "enter", "a":
		if m.page == CatalogPage {
			return m.addSelected()
		}

	case "c":
		if len(m.basket.Lines) == 0 {
			m.toast = ui.WarningToast("Cart is empty")
			return m, nil
		}
		m.page = CartPage
		m.checkout = CheckoutConfirming
		return m, nil

	case "tab":
		switch m.page {
		case CatalogPage:
			m.page = CartPage
		case CartPage:
			m.page = OrdersPage
			return m.refreshOrders()
		default:
			m.page = CatalogPage
		}
		m.cursor = 0

	case "b":
		m.page = CartPage
	case "o":
		m.page = OrdersPage
		return m.refreshOrders()
	case "l":
		if m.user != nil {
			m.toast = ui.InfoToast("Already signed in as " + m.user.Username)
			return m, nil
		}
		m.page = LoginPage
		m.resetForm()
		return m, textinput.Blink
	case "s":
		m.page = RegisterPage
		m.resetForm()
		return m, textinput.Blink
	case "x":
		if m.user == nil {
			m.toast = ui.WarningToast("Not signed in")
			return m, nil
		}
		if err := m.auth.Logout(); err != nil {
			m.toast = ui.ErrorToast(describe(err))
			return m, nil
		}
		m.user = nil
		m.toast = ui.InfoToast("Signed out, back to your guest cart")
		m.reqGen++
		m.loading = true
		return m, m.loadCart(m.reqGen, "")

	case "r":
		m.reqGen++
		m.loading = true
		m.toast = ui.Toast{}
		return m, m.loadOverview(m.reqGen)

	case "?":
		if m.page == HelpPage {
			m.page = CatalogPage
		} else {
			m.page = HelpPage
			m.help.SetContent(m.renderHelp())
		}
	}

	// Remaining keys scroll the help viewport.
	if m.page == HelpPage {
		var cmd tea.Cmd
		m.help, cmd = m.help.Update(msg)
		return m, cmd
	}

	return m, nil
}

// addSelected requests one more unit of the product under the cursor.
// Unavailable products are refused locally; no request goes out.
func (m Model) addSelected() (tea.Model, tea.Cmd) {
	if len(m.products) == 0 || m.cursor >= len(m.products) {
		return m, nil
	}
	p := m.products[m.cursor]
	if !p.Available() {
		m.toast = ui.WarningToast(p.Name + " is not available")
		return m, nil
	}
	m.reqGen++
	m.loading = true
	logging.UI("Adding item %d to cart", p.ID)
	return m, m.addItem(m.reqGen, p)
}

func (m Model) refreshOrders() (tea.Model, tea.Cmd) {
	if m.user == nil {
		m.toast = ui.WarningToast("Sign in to see your orders")
		m.page = LoginPage
		m.resetForm()
		return m, textinput.Blink
	}
	m.reqGen++
	m.loading = true
	return m, m.loadOrders(m.reqGen)
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.page = CatalogPage
		return m, nil
	case "tab", "shift+tab", "up", "down":
		if m.username.Focused() {
			m.username.Blur()
			return m, m.password.Focus()
		}
		m.password.Blur()
		return m, m.username.Focus()
	case "enter":
		if m.username.Focused() {
			m.username.Blur()
			return m, m.password.Focus()
		}
		username := m.username.Value()
		password := m.password.Value()
		if username == "" || password == "" {
			m.toast = ui.WarningToast("Username and password are required")
			return m, nil
		}
		m.loading = true
		if m.page == RegisterPage {
			return m, m.register(username, password)
		}
		return m, m.login(username, password)
	}

	var cmd tea.Cmd
	if m.username.Focused() {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) resetForm() {
	m.username.SetValue("")
	m.password.SetValue("")
	m.password.Blur()
	m.username.Focus()
}

func (m *Model) clampCursor() {
	max := len(m.products) - 1
	if m.page == CartPage {
		max = len(m.basket.Lines) - 1
	}
	if m.cursor > max {
		m.cursor = max
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
