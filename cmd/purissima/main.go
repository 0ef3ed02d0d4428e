package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"purissima/internal"
	"purissima/internal/config"
	"purissima/internal/fetch"
	"purissima/internal/logging"
	"purissima/internal/mapping"
	"purissima/internal/metrics"
	"purissima/internal/orders"
	"purissima/internal/pipeline"
	"purissima/internal/production"
	"purissima/internal/session"
	"purissima/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: "stderr"})
	must(err)
	defer logger.Sync()

	rules, err := config.LoadRules(cfg.ItemRulesPath)
	must(err)
	parser, err := pipeline.NewParserFromRules(rules, logger)
	must(err)

	store, _, closeStore, err := storage.OpenBackend(cfg)
	must(err)
	defer closeStore()

	reg := metrics.NewRegistry()
	sessions := session.NewManager(store, logger)
	ctx := context.Background()

	cmd := os.Args[1]
	switch cmd {
	case "orders:parse":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "html, mhtml or json file")
		from := fs.String("from", "", "keep orders created at or after (dd/mm/yyyy or yyyy-mm-dd[Thh:mm])")
		to := fs.String("to", "", "keep orders created at or before")
		search := fs.String("search", "", "case-insensitive text filter")
		sortDir := fs.String("sort", "desc", "asc|desc by order id")
		limit := fs.Int("limit", 0, "max orders (0 = all)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		svc := pipeline.NewService(fetch.FileFetcher{Path: *input}, parser, sessions, cfg, reg, logger)
		res, err := svc.LoadOrders(ctx, fetch.Window{})
		must(err)
		opts := orders.Options{Search: *search, Sort: orders.ParseDirection(*sortDir), Limit: *limit, Location: cfg.Location()}
		opts.From, err = parseBound(*from, cfg.Location(), false)
		must(err)
		opts.To, err = parseBound(*to, cfg.Location(), true)
		must(err)
		printJSON(map[string]any{
			"format":        res.Format,
			"orders":        orders.Query(res.Orders, opts),
			"skippedBlocks": res.SkippedBlocks,
			"skippedRows":   res.SkippedRows,
		})
	case "orders:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		f := windowFlags(fs)
		raw := fs.String("raw", "", "also write the upstream body to this path")
		_ = fs.Parse(os.Args[2:])
		must(cfg.Require("ORDERS_API_URL", cfg.OrdersAPIURL))
		client := fetch.NewClient(cfg, logger, reg)
		svc := pipeline.NewService(client, parser, sessions, cfg, reg, logger)
		w := svc.Window(f.filters())
		if *raw != "" {
			body, err := client.Fetch(ctx, w)
			must(err)
			must(os.WriteFile(*raw, body, 0o644))
			res, err := svc.ParseRaw(body)
			must(err)
			printJSON(res.Orders)
			return
		}
		res, err := svc.LoadOrders(ctx, w)
		must(err)
		printJSON(res.Orders)
	case "items:aggregate":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "html, mhtml or json file (fetches from the API when empty)")
		f := windowFlags(fs)
		_ = fs.Parse(os.Args[2:])
		svc := pipeline.NewService(makeFetcher(cfg, *input, logger, reg), parser, sessions, cfg, reg, logger)
		filters := f.filters()
		res, err := svc.LoadOrders(ctx, svc.Window(filters))
		must(err)
		printJSON(svc.AggregateItems(res, filters))
	case "production:report":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		sessionID := fs.String("session", "", "session id")
		input := fs.String("input", "", "html, mhtml or json file (fetches from the API when empty)")
		xlsx := fs.String("xlsx", "", "also export the snapshot to this xlsx path")
		f := windowFlags(fs)
		_ = fs.Parse(os.Args[2:])
		svc := pipeline.NewService(makeFetcher(cfg, *input, logger, reg), parser, sessions, cfg, reg, logger)
		snap, err := svc.Load(ctx, *sessionID, f.filters())
		must(err)
		if *xlsx != "" {
			must(pipeline.ExportSnapshotToXLSX(snap, *xlsx))
			logger.Info("snapshot exported", zap.String("path", *xlsx))
		}
		printJSON(snap)
	case "production:update":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		sessionID := fs.String("session", "", "session id")
		contextKey := fs.String("context", "", "production context (defaults to the --from/--to range)")
		item := fs.String("item", "", "canonical item name")
		qty := fs.Int("qty", 0, "produced quantity (0 clears the counter)")
		f := windowFlags(fs)
		_ = fs.Parse(os.Args[2:])
		svc := pipeline.NewService(nil, parser, sessions, cfg, reg, logger)
		if strings.TrimSpace(*contextKey) == "" {
			w := svc.Window(f.filters())
			*contextKey = production.RangeContext(w.From, w.To)
		}
		req := production.UpdateRequest{Context: *contextKey, Item: *item, Quantity: *qty}
		must(svc.UpdateProduction(ctx, *sessionID, req))
		printJSON(req)
	case "orders:remove", "orders:restore":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		sessionID := fs.String("session", "", "session id")
		ids := fs.String("ids", "", "comma separated order ids")
		_ = fs.Parse(os.Args[2:])
		svc := pipeline.NewService(nil, parser, sessions, cfg, reg, logger)
		list := splitIDs(*ids)
		var out []string
		if cmd == "orders:remove" {
			out, err = svc.RemoveOrders(ctx, *sessionID, list)
		} else {
			out, err = svc.RestoreOrders(ctx, *sessionID, list)
		}
		must(err)
		printJSON(out)
	case "orders:purge":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		sessionID := fs.String("session", "", "session id")
		maxAge := fs.Duration("max-age", 24*time.Hour, "forget removals older than this")
		_ = fs.Parse(os.Args[2:])
		svc := pipeline.NewService(nil, parser, sessions, cfg, reg, logger)
		n, err := svc.PurgeRemoved(ctx, *sessionID, *maxAge)
		must(err)
		printJSON(map[string]int{"purged": n})
	case "session:create":
		s := sessions.Create()
		printJSON(map[string]string{"session": s.ID})
	case "session:destroy":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		sessionID := fs.String("session", "", "session id")
		_ = fs.Parse(os.Args[2:])
		must(sessions.Destroy(ctx, *sessionID))
		printJSON(map[string]string{"destroyed": *sessionID})
	case "item:canonicalize":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		name := fs.String("name", "", "item name as it appears on the order")
		_ = fs.Parse(os.Args[2:])
		svc := pipeline.NewService(nil, parser, sessions, cfg, reg, logger)
		m := svc.Canonicalize(*name)
		printJSON(map[string]any{
			"input":     *name,
			"canonical": m.Label,
			"period":    m.Period,
			"matched":   m.Matched,
			"base":      mapping.BaseName(m.Label),
		})
	default:
		usage()
		os.Exit(1)
	}
}

type windowArgs struct {
	from, to, status, search, sort *string
	limit                          *int
}

func windowFlags(fs *flag.FlagSet) windowArgs {
	return windowArgs{
		from:   fs.String("from", "", "window start yyyy-mm-ddThh:mm (default: lookback)"),
		to:     fs.String("to", "", "window end yyyy-mm-ddThh:mm (default: now)"),
		status: fs.String("status", "", "order status (default: DEFAULT_STATUS)"),
		search: fs.String("search", "", "case-insensitive text filter"),
		sort:   fs.String("sort", "desc", "asc|desc by order id"),
		limit:  fs.Int("limit", 0, "max orders (0 = all)"),
	}
}

func (a windowArgs) filters() pipeline.Filters {
	return pipeline.Filters{
		From:   *a.from,
		To:     *a.to,
		Status: *a.status,
		Limit:  *a.limit,
		Search: *a.search,
		Sort:   orders.ParseDirection(*a.sort),
	}
}

func makeFetcher(cfg config.Config, input string, logger *zap.Logger, reg *metrics.Registry) fetch.Fetcher {
	if strings.TrimSpace(input) != "" {
		return fetch.FileFetcher{Path: input}
	}
	must(cfg.Require("ORDERS_API_URL", cfg.OrdersAPIURL))
	return fetch.NewClient(cfg, logger, reg)
}

// parseBound reads a --from/--to value. A date-only upper bound covers the whole day.
func parseBound(value string, loc *time.Location, upper bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, ok := orders.ParseTimestamp(value, loc)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: unreadable date %q", internal.ErrInvalidInput, value)
	}
	if upper && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && !strings.ContainsAny(value, ":") {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}

func splitIDs(input string) []string {
	var out []string
	for _, id := range strings.Split(input, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	must(enc.Encode(v))
}

func usage() {
	fmt.Println("usage: purissima <command>")
	fmt.Println("commands:")
	fmt.Println("  orders:parse --input=page.html [--from=01/05/2025] [--to=31/05/2025] [--search=...] [--sort=asc|desc] [--limit=N]")
	fmt.Println("  orders:fetch [--from=2025-05-01T00:00] [--to=...] [--status=released] [--raw=body.json]")
	fmt.Println("  items:aggregate [--input=page.html] [--from=...] [--to=...] [--search=...] [--limit=N]")
	fmt.Println("  production:report --session=ID [--input=page.html] [--from=...] [--to=...] [--xlsx=out.xlsx]")
	fmt.Println("  production:update --session=ID --item=Vital --qty=3 [--context=...|--from=... --to=...]")
	fmt.Println("  orders:remove --session=ID --ids=1001,1002")
	fmt.Println("  orders:restore --session=ID --ids=1001")
	fmt.Println("  orders:purge --session=ID [--max-age=24h]")
	fmt.Println("  session:create")
	fmt.Println("  session:destroy --session=ID")
	fmt.Println("  item:canonicalize --name=\"Pouch Vital\"")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
