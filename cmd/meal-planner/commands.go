package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"meal-planner/internal/checkout"
	"meal-planner/internal/config"
	"meal-planner/internal/database"
	"meal-planner/internal/metrics"
	"meal-planner/internal/planner"
	"meal-planner/internal/seed"
	"meal-planner/internal/server"
	"meal-planner/internal/telemetry"
)

var (
	fromDate   string
	toDate     string
	format     string
	outPath    string
	storeID    string
	listenAddr string

	rootCmd = &cobra.Command{
		Use:           "meal-planner",
		Short:         "Plan meals, build grocery lists and send them to online carts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE:  runMigrate,
	}

	seedCmd = &cobra.Command{
		Use:   "seed [file]",
		Short: "Load stores, catalog, pantry, recipes and a plan from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE:  runSeed,
	}

	groceriesCmd = &cobra.Command{
		Use:   "groceries",
		Short: "Print the grocery list for a date range",
		RunE:  runGroceries,
	}

	checkoutCmd = &cobra.Command{
		Use:   "checkout",
		Short: "Create an online checkout session for one store",
		RunE:  runCheckout,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
)

func init() {
	for _, c := range []*cobra.Command{groceriesCmd, checkoutCmd} {
		c.Flags().StringVar(&fromDate, "from", "", "first day (YYYY-MM-DD), defaults to next Monday")
		c.Flags().StringVar(&toDate, "to", "", "last day (YYYY-MM-DD), defaults to the following Sunday")
	}
	groceriesCmd.Flags().StringVar(&format, "format", "text", "output format: text, json or html")
	groceriesCmd.Flags().StringVarP(&outPath, "out", "o", "", "write to a file instead of stdout")

	checkoutCmd.Flags().StringVar(&storeID, "store", "", "store id")
	checkoutCmd.MarkFlagRequired("store")

	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address, defaults to :$PORT")

	rootCmd.AddCommand(migrateCmd, seedCmd, groceriesCmd, checkoutCmd, serveCmd)
}

// dateRange reads --from/--to. With neither set it covers next week; with
// only one set it covers that single day.
func dateRange() (planner.DateRange, error) {
	switch {
	case fromDate == "" && toDate == "":
		return planner.WeekOf(time.Now()), nil
	case toDate == "":
		return planner.ParseRange(fromDate, fromDate)
	case fromDate == "":
		return planner.ParseRange(toDate, toDate)
	}
	return planner.ParseRange(fromDate, toDate)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := database.RunMigrations(cfg.DatabasePath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied to %s\n", cfg.DatabasePath)
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	f, err := seed.LoadFile(args[0])
	if err != nil {
		return err
	}
	e, err := setup(nil)
	if err != nil {
		return err
	}
	defer e.Close()

	sum, err := seed.Apply(cmd.Context(), f, seed.Writers{
		Stores:  e.app.StoreRepository(),
		Recipes: e.app.Recipes(),
		Plans:   e.app.Plans(),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s\n", sum)
	return nil
}

func runGroceries(cmd *cobra.Command, _ []string) error {
	dr, err := dateRange()
	if err != nil {
		return err
	}
	e, err := setup(nil)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	var out string
	switch format {
	case "text":
		out, err = e.app.ExportText(ctx, dr)
		out += "\n"
	case "html":
		out, err = e.app.PrintHTML(ctx, dr)
	case "json":
		list, lerr := e.app.GroceryList(ctx, dr)
		if lerr != nil {
			return lerr
		}
		raw, merr := json.MarshalIndent(list, "", "  ")
		out, err = string(raw)+"\n", merr
	default:
		return fmt.Errorf("unknown format %q: expected text, json or html", format)
	}
	if err != nil {
		return err
	}
	return write(cmd.OutOrStdout(), out)
}

func write(stdout io.Writer, out string) error {
	if outPath == "" {
		_, err := io.WriteString(stdout, out)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outPath, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return nil
}

func runCheckout(cmd *cobra.Command, _ []string) error {
	dr, err := dateRange()
	if err != nil {
		return err
	}
	e, err := setup(nil)
	if err != nil {
		return err
	}
	defer e.Close()

	session, err := e.app.CheckoutStore(cmd.Context(), storeID, dr)
	if err != nil {
		if ce, ok := checkout.AsError(err); ok {
			return fmt.Errorf("%s: %s", ce.Code(), ce.Message)
		}
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(session)
}

func runServe(cmd *cobra.Command, _ []string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewCheckout(reg)

	e, err := setup(m)
	if err != nil {
		return err
	}
	defer e.Close()

	shutdownTracing, err := telemetry.Init(cmd.Context(), telemetry.Config{
		ServiceName:  "meal-planner",
		Exporter:     e.cfg.TraceExporter,
		OTLPEndpoint: e.cfg.OTLPEndpoint,
		OTLPInsecure: e.cfg.OTLPInsecure,
	})
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			e.logger.Error("failed to flush traces", "error", err)
		}
	}()

	addr := listenAddr
	if addr == "" {
		addr = ":" + e.cfg.Port
	}

	router := server.NewRouter(server.Deps{
		Groceries: e.app,
		Checkout:  e.app,
		Limiter:   checkout.NewRateLimiter(e.cfg.RateLimitMax, e.cfg.RateLimitWindow, nil),
		Metrics:   m,
		Gatherer:  reg,
		DataDir:   filepath.Dir(e.db.Path()),
		Started:   time.Now(),
		Logger:    e.logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx, addr, router, e.logger)
}
