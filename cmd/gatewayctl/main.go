// Package main is a thin operational entry point for the shipping
// gateway core. It builds one App from process-start configuration and
// exposes its three operations (quote, purchase, health) as subcommands;
// the HTTP server, auth, and OpenAPI surface that would normally front
// this core are out of scope for this repository and are left to the
// (external) edge service that imports it as a library.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shipflow/gateway/internal/app"
	"github.com/shipflow/gateway/internal/config"
	"github.com/shipflow/gateway/internal/obslog"
	"github.com/shipflow/gateway/pkg/shipmodel"
)

func main() {
	if err := run(); err != nil {
		slog.Error("gatewayctl failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	command := flag.String("cmd", "health", "one of: quote, purchase, health")
	provider := flag.String("provider", "", "provider for purchase (A, B, C)")
	rateID := flag.String("rate-id", "", "rate id for purchase")
	shipmentID := flag.String("shipment-id", "", "shipment id for purchase")
	flag.Parse()

	cfg := config.Load()
	logger := obslog.New(obslog.Config{
		Level:      parseLevel(cfg.LogLevel),
		Output:     os.Stdout,
		JSONFormat: true,
	})

	gw, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer gw.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch *command {
	case "quote":
		return runQuote(ctx, gw)
	case "purchase":
		return runPurchase(ctx, gw, *provider, *rateID, *shipmentID)
	case "health":
		return runHealth(ctx, gw)
	default:
		return fmt.Errorf("unknown -cmd %q", *command)
	}
}

// runQuote reads a ShipmentInput as JSON from stdin and prints the merged
// rate quotes as JSON to stdout.
func runQuote(ctx context.Context, gw *app.App) error {
	var input shipmodel.ShipmentInput
	if err := json.NewDecoder(os.Stdin).Decode(&input); err != nil {
		return fmt.Errorf("decode shipment input: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	quotes := gw.Quote(ctx, "", input)
	return json.NewEncoder(os.Stdout).Encode(quotes)
}

func runPurchase(ctx context.Context, gw *app.App, provider, rateID, shipmentID string) error {
	if provider == "" || rateID == "" {
		return fmt.Errorf("-provider and -rate-id are required for purchase")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := gw.Purchase(ctx, "", shipmodel.PurchaseRequest{
		Provider:   shipmodel.Provider(provider),
		RateID:     rateID,
		ShipmentID: shipmentID,
	})
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(result)
}

func runHealth(ctx context.Context, gw *app.App) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	report := gw.Health(ctx, "")
	return json.NewEncoder(os.Stdout).Encode(report)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
