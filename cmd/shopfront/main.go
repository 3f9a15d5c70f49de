package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"shopfront/cmd/shopfront/shop"
	"shopfront/cmd/shopfront/ui"
	"shopfront/internal/api"
	"shopfront/internal/auth"
	"shopfront/internal/config"
	"shopfront/internal/logging"
	"shopfront/internal/session"
	"shopfront/internal/storage"
)

var (
	// Global flags
	verbose    bool
	baseURL    string
	profileDir string
	timeout    time.Duration

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "shopfront",
	Short: "shopfront - terminal storefront client",
	Long: `shopfront is a terminal client for the storefront API.

It keeps an anonymous session identity so your cart survives restarts, and
migrates that cart onto your account when you sign in.

Run without arguments to start the interactive storefront.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip the stderr logger for interactive mode (it has its own UI)
		if cmd.Use == "shopfront" && cmd.CalledAs() == "shopfront" {
			return nil
		}

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive()
	},
}

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "List the product catalog",
	RunE:  listItems,
}

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Show the current cart",
	RunE:  showCart,
}

var addCmd = &cobra.Command{
	Use:   "add [item-id]",
	Short: "Add one unit of a product to the cart",
	Args:  cobra.ExactArgs(1),
	RunE:  addItem,
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Place an order for the current cart",
	Long: `Finalizes the current cart into an order.

Asks for confirmation unless --yes is given. Requires a signed-in account.`,
	RunE: checkout,
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List past orders",
	RunE:  listOrders,
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Sign in and adopt your guest cart",
	Args:  cobra.ExactArgs(1),
	RunE:  login,
}

var registerCmd = &cobra.Command{
	Use:   "register [username]",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE:  register,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out, keeping the guest cart",
	RunE:  logout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE:  whoami,
}

var assumeYes bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&baseURL, "api-url", "", "Storefront API base URL (or set SHOPFRONT_API_URL)")
	rootCmd.PersistentFlags().StringVar(&profileDir, "profile", "", "Profile directory (default: ~/.shopfront)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")

	checkoutCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")

	rootCmd.AddCommand(itemsCmd)
	rootCmd.AddCommand(cartCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(ordersCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds the wired client stack shared by every command.
type app struct {
	cfg    *config.Config
	store  *storage.Local
	client *api.Client
	auth   *auth.Manager
	styles ui.Styles
}

// bootstrap loads config, opens local storage, and wires the identity into
// the API client. The returned cleanup closes storage and flushes logs.
func bootstrap() (*app, func(), error) {
	dir := profileDir
	if dir == "" {
		dir = config.DefaultProfileDir()
	}

	cfg, err := config.Load(filepath.Join(dir, "config.json"))
	if err != nil {
		return nil, nil, err
	}
	if baseURL != "" {
		cfg.API.BaseURL = baseURL
	}

	if err := logging.Initialize(dir); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	store, err := storage.Open(filepath.Join(dir, "store.db"))
	if err != nil {
		logging.Close()
		return nil, nil, err
	}

	var mgr *auth.Manager
	identity := session.Identity{
		Sessions:      session.NewProvider(store),
		Token:         func() (string, bool) { return mgr.Token() },
		Authenticated: func() bool { return mgr.IsAuthenticated() },
	}
	client := api.New(cfg.API.BaseURL, identity, api.Config{
		Timeout:      cfg.GetTimeout(),
		MaxRetries:   cfg.API.MaxRetries,
		RetryWaitMin: cfg.GetRetryWaitMin(),
		RetryWaitMax: cfg.GetRetryWaitMax(),
	})
	mgr = auth.NewManager(store, client)

	a := &app{
		cfg:    cfg,
		store:  store,
		client: client,
		auth:   mgr,
		styles: ui.NewStyles(ui.ThemeFor(cfg.UI.Theme)),
	}
	cleanup := func() {
		_ = store.Close()
		logging.Close()
	}
	return a, cleanup, nil
}

// cmdContext bounds a one-shot command and cancels it on SIGINT/SIGTERM.
func cmdContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func runInteractive() error {
	a, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	model := shop.New(a.client, a.auth, a.styles)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func listItems(cmd *cobra.Command, args []string) error {
	a, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := cmdContext()
	defer cancel()

	logger.Debug("Fetching catalog", zap.String("url", a.cfg.API.BaseURL))
	products, err := a.client.ListItems(ctx)
	if err != nil {
		return err
	}

	tbl := ui.NewTable("Products", "ID", "Name", "Price", "Status")
	tbl.AlignRight(2)
	for _, p := range products {
		tbl.AddRow(strconv.FormatInt(p.ID, 10), p.Name, ui.Money(p.Price), p.Status)
	}
	fmt.Print(tbl.View(a.styles))
	return nil
}

func showCart(cmd *cobra.Command, args []string) error {
	a, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := cmdContext()
	defer cancel()

	basket, err := a.client.FetchCart(ctx)
	if err != nil {
		logger.Warn("Cart fetch degraded to empty", zap.Error(err))
	}
	if len(basket.Lines) == 0 {
		fmt.Println("Your cart is empty.")
		return nil
	}

	tbl := ui.NewTable("Your cart", "ID", "Name", "Price", "Qty", "Subtotal")
	tbl.AlignRight(2)
	tbl.AlignRight(3)
	tbl.AlignRight(4)
	for _, l := range basket.Lines {
		tbl.AddRow(strconv.FormatInt(l.ID, 10), l.Name, ui.Money(l.Price),
			strconv.Itoa(l.Quantity), ui.Money(l.Subtotal()))
	}
	fmt.Print(tbl.View(a.styles))
	fmt.Printf("%d units, total %s\n", basket.Units(), ui.Money(basket.Subtotal()))
	return nil
}

func addItem(cmd *cobra.Command, args []string) error {
	a, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	itemID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid item id %q", args[0])
	}

	ctx, cancel := cmdContext()
	defer cancel()

	basket, err := a.client.AddItem(ctx, itemID)
	if err != nil {
		return err
	}
	logger.Info("Item added", zap.Int64("item_id", itemID), zap.Int("units", basket.Units()))
	fmt.Printf("Added. Cart now holds %d units (%s).\n", basket.Units(), ui.Money(basket.Subtotal()))
	return nil
}

func checkout(cmd *cobra.Command, args []string) error {
	a, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := cmdContext()
	defer cancel()

	basket, err := a.client.FetchCart(ctx)
	if err != nil {
		return err
	}
	if len(basket.Lines) == 0 {
		return fmt.Errorf("cart is empty, nothing to order")
	}

	if !assumeYes {
		fmt.Printf("Place order for %d units (%s)? [y/N] ", basket.Units(), ui.Money(basket.Subtotal()))
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if answer = strings.ToLower(strings.TrimSpace(answer)); answer != "y" && answer != "yes" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	order, err := a.client.PlaceOrder(ctx)
	if err != nil {
		return fmt.Errorf("checkout failed: %w", err)
	}
	logger.Info("Order placed", zap.Int64("order_id", order.ID))
	fmt.Printf("Order #%d placed (%s).\n", order.ID, order.Status)
	return nil
}

func listOrders(cmd *cobra.Command, args []string) error {
	a, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := cmdContext()
	defer cancel()

	orders, err := a.client.ListOrders(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Println("No past orders.")
		return nil
	}

	tbl := ui.NewTable("Past orders", "Order", "Status", "Items", "Placed")
	tbl.AlignRight(2)
	for _, o := range orders {
		units := 0
		for _, l := range o.Lines {
			units += l.Quantity
		}
		placed := ""
		if !o.CreatedAt.IsZero() {
			placed = o.CreatedAt.Format("2006-01-02 15:04")
		}
		tbl.AddRow(fmt.Sprintf("#%d", o.ID), o.Status, strconv.Itoa(units), placed)
	}
	fmt.Print(tbl.View(a.styles))
	return nil
}

func login(cmd *cobra.Command, args []string) error {
	a, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	user, err := a.auth.Login(ctx, args[0], password)
	if err != nil {
		return err
	}
	logger.Info("Signed in", zap.Int64("user_id", user.ID))
	fmt.Printf("Signed in as %s. Your guest cart is now on your account.\n", user.Username)
	return nil
}

func register(cmd *cobra.Command, args []string) error {
	a, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()

	if err := a.auth.Register(ctx, args[0], password); err != nil {
		return err
	}
	fmt.Printf("Account %s created. Run 'shopfront login %s' to sign in.\n", args[0], args[0])
	return nil
}

func logout(cmd *cobra.Command, args []string) error {
	a, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := a.auth.Logout(); err != nil {
		return err
	}
	fmt.Println("Signed out. Your guest cart is still here.")
	return nil
}

func whoami(cmd *cobra.Command, args []string) error {
	a, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := cmdContext()
	defer cancel()

	user, err := a.auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s (user %d)\n", user.Username, user.ID)
	return nil
}

// readPassword prompts without echo when stdin is a terminal, falling back
// to a plain line read for piped input.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
