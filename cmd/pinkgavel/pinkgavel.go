// Command pinkgavel is the auction house client. It wraps every remote call
// in the governed request pipeline (rate limiting, retries, response cache)
// and exposes browse, search, bid, and profile operations plus an interactive
// watch mode that runs queries through the debounced search pipeline.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"pinkgavel/internal/auction"
	"pinkgavel/internal/cache"
	"pinkgavel/internal/config"
	"pinkgavel/internal/fetch"
	"pinkgavel/internal/logger"
	"pinkgavel/internal/models"
	"pinkgavel/internal/observability"
	"pinkgavel/internal/pagination"
	"pinkgavel/internal/ratelimit"
	"pinkgavel/internal/search"
	"pinkgavel/internal/searchctrl"
	"pinkgavel/internal/session"
	"pinkgavel/internal/version"
)

var configFile = flag.String("config", "", "Path to configuration file")

const usage = `Usage: pinkgavel [-config file] <command> [args]

Commands:
  listings [active]        List auction listings (optionally active only)
  show <id>                Show one listing with its bid history
  search <query>           Search listings by title, description, seller, tags
  suggest <query>          Instant search suggestions
  watch                    Interactive search-as-you-type mode
  bid <id> <amount>        Place a bid (requires login)
  profile [name]           Show a profile (default: the logged-in account)
  login <token>            Store an access token in the local session
  logout                   Clear the stored token
  theme [dark|light]       Show or set the theme preference
  config <path>            Write an example configuration file
  version                  Print version information
`

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	// Commands with no pipeline behind them run before any wiring.
	switch command {
	case "version":
		fmt.Println(version.GetInfo().String())
		return
	case "config":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "usage: pinkgavel config <path>")
			os.Exit(2)
		}
		if err := config.SaveExample(args[0]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		fmt.Println("wrote", args[0])
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	log, closer, err := logger.Setup(cfg.Logging, version.GetInfo())
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	otelProvider, err := observability.Setup(cfg.Metrics, cfg.Observability, version.GetInfo())
	if err != nil {
		slog.Error("Failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	store, err := session.Open(cfg.Session.Path)
	if err != nil {
		slog.Error("Failed to open session store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	limiter := ratelimit.NewSlidingWindow(
		cfg.RateLimit.RequestsPerMinute,
		cfg.RateLimit.MinInterval,
		cfg.RateLimit.WaitCeiling,
	)

	var fetcher fetch.Fetcher = fetch.NewClient(&http.Client{Timeout: cfg.API.Timeout}, limiter, log)
	if cfg.Metrics.Enabled {
		instrumented, err := observability.NewInstrumentedFetcher(fetcher)
		if err != nil {
			slog.Error("Failed to create instrumented fetcher", "error", err)
			os.Exit(1)
		}
		fetcher = instrumented
	}

	var responses *cache.Cache[*fetch.Response]
	if cfg.Cache.Enabled {
		responses = cache.New[*fetch.Response](cfg.Cache.TTL)
		fetcher = fetch.NewCachedClient(fetcher, responses)
	}

	client := auction.NewClient(cfg.API.BaseURL, cfg.API.Key, fetcher, store, log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch command {
	case "listings":
		err = runListings(ctx, client, cfg.Search.FetchLimit, args)
	case "show":
		err = runShow(ctx, client, args)
	case "search":
		err = runSearch(ctx, client, cfg, log, args)
	case "suggest":
		err = runSuggest(ctx, client, cfg, log, args)
	case "watch":
		err = runWatch(client, store, responses, otelProvider, cfg, log)
	case "bid":
		err = runBid(ctx, client, args)
	case "profile":
		err = runProfile(ctx, client, store, cfg.Search.ProfilePageSize, args)
	case "login":
		err = runLogin(store, args)
	case "logout":
		err = store.ClearToken()
	case "theme":
		err = runTheme(store, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		if errors.Is(err, auction.ErrAuthRequired) {
			fmt.Fprintln(os.Stderr, "error: not logged in (run: pinkgavel login <token>)")
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func runListings(ctx context.Context, client *auction.Client, limit int, args []string) error {
	opts := auction.ListingsOptions{Limit: limit}
	if len(args) > 0 && args[0] == "active" {
		opts.ActiveOnly = true
	}

	listings, err := client.Listings(ctx, opts)
	if err != nil {
		return err
	}
	for i := range listings {
		printListing(&listings[i])
	}
	fmt.Printf("%d listings\n", len(listings))
	return nil
}

func runShow(ctx context.Context, client *auction.Client, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: pinkgavel show <id>")
	}
	listing, err := client.Listing(ctx, args[0])
	if err != nil {
		return err
	}
	printListing(listing)
	for _, b := range listing.Bids {
		fmt.Printf("  bid %.2f by %s at %s\n", b.Amount, b.Bidder.Name, b.Created.Format(time.RFC3339))
	}
	return nil
}

func runSearch(ctx context.Context, client *auction.Client, cfg *models.Config, log *slog.Logger, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: pinkgavel search <query>")
	}
	query := strings.Join(args, " ")

	ctrl := searchctrl.New(client, cfg.Search, cfg.Cache.TTL, log)
	defer ctrl.Stop()

	done := make(chan searchctrl.Event, 1)
	unsubscribe := ctrl.Subscribe(func(ev searchctrl.Event) { done <- ev })
	defer unsubscribe()

	ctrl.SearchNow(ctx, query)

	ev := <-done
	if ev.Err != nil {
		return ev.Err
	}
	printEvent(ctrl, ev)
	return nil
}

func runSuggest(ctx context.Context, client *auction.Client, cfg *models.Config, log *slog.Logger, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: pinkgavel suggest <query>")
	}
	ctrl := searchctrl.New(client, cfg.Search, cfg.Cache.TTL, log)
	defer ctrl.Stop()

	for _, l := range ctrl.Suggest(ctx, strings.Join(args, " ")) {
		fmt.Printf("  %s  %s\n", l.ID, l.Title)
	}
	return nil
}

// runWatch is the long-running interactive mode: stdin lines feed the
// debounced search pipeline, the cache sweeper keeps idle caches bounded,
// and the metrics server exposes the pipeline's instruments.
func runWatch(client *auction.Client, store *session.Store, responses *cache.Cache[*fetch.Response], provider *observability.Provider, cfg *models.Config, log *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrl := searchctrl.New(client, cfg.Search, cfg.Cache.TTL, log)
	defer ctrl.Stop()

	unsubscribe := ctrl.Subscribe(func(ev searchctrl.Event) {
		if ev.Err != nil {
			fmt.Println("search failed:", ev.Err)
			return
		}
		printEvent(ctrl, ev)
	})
	defer unsubscribe()

	unsubSession := store.Subscribe(func(ch session.Change) {
		log.Info("session changed", "key", ch.Key)
	})
	defer unsubSession()

	targets := []cache.Expirable{ctrl}
	if responses != nil {
		targets = append(targets, responses)
	}
	if cfg.Cache.SweepInterval > 0 {
		sweeper := cache.NewSweeper(cfg.Cache.SweepInterval, log, targets...)
		go sweeper.Run(ctx)
	}

	var metricsServer *observability.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = observability.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, provider)
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	fmt.Println("type to search; :sort <strategy>, :more, :less, :quit")

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-quit:
			return shutdownWatch(metricsServer)
		case line, ok := <-lines:
			if !ok {
				return shutdownWatch(metricsServer)
			}
			if done := watchLine(ctrl, line); done {
				return shutdownWatch(metricsServer)
			}
		}
	}
}

// watchLine handles one input line and reports whether the session is over.
func watchLine(ctrl *searchctrl.Controller, line string) bool {
	switch {
	case line == ":quit":
		return true
	case line == ":more":
		for _, l := range ctrl.LoadMore() {
			fmt.Printf("  %s  %s\n", l.ID, l.Title)
		}
	case line == ":less":
		fmt.Printf("showing %d\n", len(ctrl.ViewLess()))
	case strings.HasPrefix(line, ":sort "):
		ctrl.SetSort(search.ParseStrategy(strings.TrimPrefix(line, ":sort ")))
	case line == "":
		ctrl.Clear()
	default:
		ctrl.Search(line)
	}
	return false
}

func shutdownWatch(metricsServer *observability.MetricsServer) error {
	if metricsServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return metricsServer.Shutdown(ctx)
}

func runBid(ctx context.Context, client *auction.Client, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: pinkgavel bid <id> <amount>")
	}
	amount, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[1], err)
	}

	listing, err := client.PlaceBid(ctx, args[0], amount)
	if err != nil {
		return err
	}
	fmt.Printf("bid placed: %s now at %.2f (%d bids)\n", listing.Title, listing.HighestBid(), listing.BidCount())
	return nil
}

func runProfile(ctx context.Context, client *auction.Client, store *session.Store, pageSize int, args []string) error {
	name := ""
	if len(args) > 0 {
		name = args[0]
	} else if current, ok := store.CurrentUser(); ok {
		name = current.Name
	}
	if name == "" {
		return errors.New("usage: pinkgavel profile <name> (or log in first)")
	}

	profile, err := client.Profile(ctx, name)
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s>  credits: %.0f\n", profile.Name, profile.Email, profile.Credits)

	printSection("listings", profile.Listings, pageSize)
	printSection("wins", profile.Wins, pageSize)

	if err := store.SetProfile(profile); err != nil {
		slog.Warn("failed to cache profile", "error", err)
	}
	return nil
}

// printSection shows the first page of a profile sub-section, the way the
// profile view paginates listings and wins separately.
func printSection(label string, listings []models.Listing, pageSize int) {
	page := pagination.New(pageSize)
	page.Reset(len(listings))

	fmt.Printf("  %s (%d):\n", label, len(listings))
	for i := range listings[:min(pageSize, len(listings))] {
		fmt.Printf("    %s  %s\n", listings[i].ID, listings[i].Title)
	}
	if page.Buttons(len(listings)).LoadMore {
		fmt.Printf("    ... %d more\n", len(listings)-pageSize)
	}
}

func runLogin(store *session.Store, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: pinkgavel login <token>")
	}
	if err := store.SetToken(args[0]); err != nil {
		return err
	}
	fmt.Println("logged in")
	return nil
}

func runTheme(store *session.Store, args []string) error {
	if len(args) == 0 {
		fmt.Println(store.Theme())
		return nil
	}
	return store.SetTheme(args[0])
}

func printListing(l *models.Listing) {
	state := "active"
	if !l.Active(time.Now()) {
		state = "ended"
	}
	fmt.Printf("%s  %-40s %s  bids:%d high:%.2f  ends %s\n",
		l.ID, l.Title, state, l.BidCount(), l.HighestBid(), l.EndsAt.Format(time.RFC3339))
}

func printEvent(ctrl *searchctrl.Controller, ev searchctrl.Event) {
	fmt.Printf("%q: %d results (sort: %s)\n", ev.Query, len(ev.Results), ev.SortBy)
	for _, l := range ctrl.Visible() {
		fmt.Printf("  %s  %s\n", l.ID, l.Title)
	}
	if b := ctrl.Buttons(); b.LoadMore {
		fmt.Println("  ... :more to load more")
	}
}
