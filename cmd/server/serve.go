package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verre/backend/config"
	httpDelivery "github.com/verre/backend/internal/delivery/http"
	"github.com/verre/backend/internal/domain"
	"github.com/verre/backend/internal/infrastructure/cache"
	"github.com/verre/backend/internal/infrastructure/google"
	"github.com/verre/backend/internal/infrastructure/llm"
	"github.com/verre/backend/internal/infrastructure/menuprobe"
	"github.com/verre/backend/internal/infrastructure/retail"
	"github.com/verre/backend/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// app holds the wired components and whatever must be released on exit
type app struct {
	googleClient *google.Client
	handler      *httpDelivery.Handler
	closers      []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newGoogleClient(cfg *config.Config) *google.Client {
	return google.NewClient(google.Options{
		APIKey:              cfg.Google.APIKey,
		GeocodeBaseURL:      cfg.Google.GeocodeBaseURL,
		PlacesBaseURL:       cfg.Google.PlacesBaseURL,
		LegacyPlacesBaseURL: cfg.Google.LegacyPlacesBaseURL,
		Timeout:             cfg.Google.RequestTimeout,
		RequestsPerSecond:   cfg.RateLimit.Places,
	})
}

// buildApp wires infrastructure into the use cases. Missing provider keys
// are logged and leave the affected features degraded.
func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{}

	memoryCache := cache.New(cache.Options{MaxEntries: cfg.Cache.MaxEntries})
	a.closers = append(a.closers, memoryCache.Close)

	a.googleClient = newGoogleClient(cfg)
	if !a.googleClient.Configured() {
		logger.Warn("google API key not configured: geocoding, places and photos will return empty results")
	}
	geocoder := usecase.NewCachedGeocoder(a.googleClient, memoryCache, cfg.Cache.TTL)

	var model domain.LanguageModel
	gemini, err := llm.NewGeminiClient(ctx, cfg.LLM.APIKey, cfg.LLM.TextModel, cfg.LLM.RequestTimeout)
	switch {
	case errors.Is(err, domain.ErrMissingAPIKey):
		logger.Warn("language model API key not configured: discovery and sommelier endpoints will report misconfiguration")
	case err != nil:
		a.Close()
		return nil, fmt.Errorf("failed to create language model client: %w", err)
	default:
		model = gemini
		a.closers = append(a.closers, gemini.Close)
	}

	extraRetailers, err := retail.LoadCatalog(cfg.Retail.CatalogPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load retailer catalog: %w", err)
	}
	registry := retail.DefaultRegistry(&http.Client{Timeout: cfg.Retail.Timeout}, extraRetailers...)

	advisor := usecase.NewRegionalAdvisor(model, memoryCache, usecase.RegionalAdvisorConfig{
		Model:    cfg.LLM.AdvisorModel,
		CacheTTL: cfg.Cache.TTL,
	})
	localWine := usecase.NewLocalWineService(
		geocoder,
		a.googleClient,
		menuprobe.NewProber(cfg.Probe.Timeout),
		advisor,
		model,
		usecase.LocalWineServiceConfig{
			ProbeBatchSize: cfg.Probe.BatchSize,
			MaxCandidates:  cfg.Probe.MaxCandidates,
		},
	)
	wineSearch := usecase.NewWineSearchService(a.googleClient, registry, usecase.WineSearchServiceConfig{
		ScraperTimeout: cfg.Retail.Timeout,
		Observer:       usecase.LoggingObserver{Logger: logger.Named("winesearch")},
	})
	sommelier := usecase.NewSommelierService(model, usecase.SommelierServiceConfig{
		TextModel:   cfg.LLM.TextModel,
		VisionModel: cfg.LLM.VisionModel,
	})

	logger.Info("components wired",
		zap.Int("retailers", len(registry.Scrapers())),
		zap.Duration("cache_ttl", cfg.Cache.TTL),
		zap.Duration("probe_timeout", cfg.Probe.Timeout),
		zap.Int("probe_batch_size", cfg.Probe.BatchSize),
	)

	a.handler = httpDelivery.NewHandler(httpDelivery.Services{
		LocalWine:  localWine,
		WineSearch: wineSearch,
		Sommelier:  sommelier,
		Photos:     a.googleClient,
	})
	return a, nil
}

func runServe(cmd *cobra.Command) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting verre backend",
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           httpDelivery.SetupRouter(cfg, a.handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
