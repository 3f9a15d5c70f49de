// This file contains view rendering functions for the storefront TUI.
package shop

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"shopfront/cmd/shopfront/ui"
)

const helpMarkdown = `# shopfront keys

| Key | Action |
|-----|--------|
| up/down | move the cursor |
| enter, a | add the selected product to the cart |
| b | view the cart |
| c | checkout (asks for confirmation) |
| o | past orders |
| l | sign in |
| s | create an account |
| x | sign out |
| r | refresh catalog and cart |
| ? | toggle this help |
| q | back, then quit |

The cart follows you: anonymous carts live against your terminal session and
move onto your account when you sign in.
`

func (m Model) View() string {
	if !m.ready {
		return "Loading storefront..."
	}

	header := m.renderHeader()

	var content string
	switch m.page {
	case CartPage:
		content = m.renderCart()
	case OrdersPage:
		content = m.renderOrders()
	case LoginPage:
		content = m.renderForm("Sign in")
	case RegisterPage:
		content = m.renderForm("Create account")
	case HelpPage:
		content = m.help.View()
	default:
		content = m.renderCatalog()
	}

	if m.checkout == CheckoutConfirming {
		content = lipgloss.JoinVertical(lipgloss.Left, content, m.renderCheckoutDialog())
	}

	footer := m.renderFooter()

	return m.styles.App.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		footer,
	))
}

func (m Model) renderHeader() string {
	title := m.styles.Header.Render(" shopfront ")

	var status string
	if m.loading {
		status = lipgloss.JoinHorizontal(lipgloss.Center, m.spinner.View(), " ", m.styles.Badge.Render("Working..."))
	} else {
		status = m.styles.Success.Render("Ready")
	}

	identity := m.styles.Muted.Render("guest")
	if m.user != nil {
		identity = m.styles.Subtitle.Render(m.user.Username)
	}

	units := m.basket.Units()
	basket := m.styles.Bold.Render(fmt.Sprintf("Cart: %d", units))
	if units > 0 {
		basket += m.styles.Price.Render("  " + ui.Money(m.basket.Subtotal()))
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Center,
		title, "  ", status, "  ", identity, "  ", basket,
	)
}

func (m Model) renderCatalog() string {
	if len(m.products) == 0 {
		if m.loading {
			return m.styles.Muted.Render("\nFetching the catalog...")
		}
		return m.styles.Muted.Render("\nNo products to show. Press r to refresh.")
	}

	tbl := ui.NewTable("Products", "", "Name", "Price", "Status", "In cart")
	tbl.AlignRight(2)
	tbl.AlignRight(4)
	tbl.Cursor = m.cursor
	for i, p := range m.products {
		marker := " "
		if i == m.cursor {
			marker = ">"
		}
		status := p.Status
		if !p.Available() {
			status = m.styles.Muted.Render(p.Status)
		}
		inCart := ""
		if q := m.basket.Quantity(p.ID); q > 0 {
			inCart = fmt.Sprintf("%d", q)
		}
		tbl.AddRow(marker, p.Name, ui.Money(p.Price), status, inCart)
	}
	return tbl.View(m.styles)
}

func (m Model) renderCart() string {
	if len(m.basket.Lines) == 0 {
		return m.styles.Muted.Render("\nYour cart is empty. Press tab to browse the catalog.")
	}

	tbl := ui.NewTable("Your cart", "Name", "Price", "Qty", "Subtotal")
	tbl.AlignRight(1)
	tbl.AlignRight(2)
	tbl.AlignRight(3)
	for _, l := range m.basket.Lines {
		tbl.AddRow(l.Name, ui.Money(l.Price), fmt.Sprintf("%d", l.Quantity), ui.Money(l.Subtotal()))
	}

	total := fmt.Sprintf("%d units   total %s",
		m.basket.Units(), ui.Money(m.basket.Subtotal()))
	return lipgloss.JoinVertical(
		lipgloss.Left,
		tbl.View(m.styles),
		m.styles.Price.Render(total),
		m.styles.Muted.Render("Press c to checkout."),
	)
}

func (m Model) renderOrders() string {
	var parts []string

	if m.lastOrder != nil {
		parts = append(parts, m.renderReceipt())
	}

	if len(m.orders) == 0 {
		if m.loading {
			parts = append(parts, m.styles.Muted.Render("Fetching your orders..."))
		} else {
			parts = append(parts, m.styles.Muted.Render("No past orders."))
		}
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	tbl := ui.NewTable("Past orders", "Order", "Status", "Items", "Placed")
	tbl.AlignRight(2)
	for _, o := range m.orders {
		units := 0
		for _, l := range o.Lines {
			units += l.Quantity
		}
		placed := ""
		if !o.CreatedAt.IsZero() {
			placed = o.CreatedAt.Format("2006-01-02 15:04")
		}
		tbl.AddRow(fmt.Sprintf("#%d", o.ID), o.Status, fmt.Sprintf("%d", units), placed)
	}
	parts = append(parts, tbl.View(m.styles))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderReceipt shows the most recent confirmation as markdown.
func (m Model) renderReceipt() string {
	o := m.lastOrder
	var b strings.Builder
	fmt.Fprintf(&b, "## Order #%d confirmed\n\n", o.ID)
	if o.Status != "" {
		fmt.Fprintf(&b, "Status: **%s**\n\n", o.Status)
	}
	for _, l := range o.Lines {
		fmt.Fprintf(&b, "- %s x %d = %s\n", l.Name, l.Quantity, ui.Money(l.Subtotal()))
	}
	return m.renderMarkdown(b.String())
}

func (m Model) renderForm(title string) string {
	hint := "enter: next field / submit   esc: back"
	form := lipgloss.JoinVertical(
		lipgloss.Left,
		m.styles.Title.Render(title),
		"",
		m.username.View(),
		m.password.View(),
		"",
		m.styles.Muted.Render(hint),
	)
	return m.styles.Dialog.Render(form)
}

func (m Model) renderHelp() string {
	return m.renderMarkdown(helpMarkdown)
}

func (m Model) renderCheckoutDialog() string {
	prompt := fmt.Sprintf("Place order for %d units (%s)?",
		m.basket.Units(), ui.Money(m.basket.Subtotal()))
	body := lipgloss.JoinVertical(
		lipgloss.Left,
		m.styles.Title.Render("Confirm checkout"),
		m.styles.Body.Render(prompt),
		m.styles.Muted.Render("y: confirm   n: cancel"),
	)
	return m.styles.Dialog.Render(body)
}

func (m Model) renderFooter() string {
	var keys string
	switch m.page {
	case CartPage:
		keys = "c: checkout | tab: orders | esc: catalog | q: quit"
	case OrdersPage:
		keys = "tab: catalog | esc: catalog | q: quit"
	case LoginPage, RegisterPage:
		keys = "enter: submit | esc: back"
	default:
		keys = "enter: add | b: cart | c: checkout | l: sign in | ?: help | q: quit"
	}

	line := m.styles.Footer.Render(keys)
	if !m.toast.Empty() {
		line = lipgloss.JoinVertical(lipgloss.Left, m.toast.Render(m.styles), line)
	}
	return lipgloss.NewStyle().MarginTop(1).Render(line)
}

// renderMarkdown renders markdown with panic recovery; glamour styles vary
// by terminal and a bad one must not take the page down.
func (m Model) renderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content
		}
	}()

	if m.renderer != nil {
		if rendered, err := m.renderer.Render(content); err == nil {
			return rendered
		}
	}
	return content
}
