package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Amund211/collapser/internal/adapters/cache"
	"github.com/Amund211/collapser/internal/adapters/recordprovider"
	"github.com/Amund211/collapser/internal/app"
	"github.com/Amund211/collapser/internal/config"
	"github.com/Amund211/collapser/internal/domain"
	"github.com/Amund211/collapser/internal/logging"
	"github.com/Amund211/collapser/internal/ports"
	"github.com/Amund211/collapser/internal/reporting"
	"github.com/Amund211/collapser/internal/server"
	"github.com/Amund211/collapser/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "golang.org/x/crypto/x509roots/fallback"
)

func main() {
	instanceID := uuid.New().String()
	logger := slog.New(
		logging.NewTracingLogHandler(slog.NewJSONHandler(os.Stdout, nil)),
	).With("instanceID", instanceID, "component", "consumer")

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conf, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}
	logger.Info("Loaded config", "config", conf.NonSensitiveString())

	if conf.OTelEnabled() {
		shutdown, err := telemetry.SetupOTelSDK(ctx, "collapser-consumer")
		if err != nil {
			fail("Failed to initialize OpenTelemetry", "error", err.Error())
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error("Failed to shut down OpenTelemetry", "error", err.Error())
			}
		}()
		logger.Info("Initialized OpenTelemetry")
	}

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(conf)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	// The coordinator bounds each upstream fetch, so the client itself has no timeout
	httpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	recordProvider, err := recordprovider.NewRecordProviderOrMock(conf, httpClient)
	if err != nil {
		fail("Failed to initialize record provider", "error", err.Error())
	}
	logger.Info("Initialized record provider")

	recordStore := cache.NewTTLStore[[]domain.Record](conf.CacheTTL(), conf.CacheMaxEntries())
	coordinator := cache.NewCoordinator[[]domain.Record](recordStore, conf.UpstreamTimeout())

	searchRecords := app.BuildSearchRecordsWithCache(coordinator, recordProvider, conf.FollowerTimeout())

	allowedOrigins, err := ports.NewAllowedOrigins(conf.CORSAllowedDomains()...)
	if err != nil {
		fail("Failed to initialize allowed origins", "error", err.Error())
	}
	corsMiddleware := ports.BuildCORSMiddleware(allowedOrigins)

	mux := http.NewServeMux()

	mux.HandleFunc(
		"OPTIONS /v1/search",
		corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
	)
	mux.HandleFunc(
		"GET /v1/search",
		corsMiddleware(
			ports.MakeSearchHandler(
				searchRecords,
				logger.With("port", "search"),
				sentryMiddleware,
				time.Now,
			),
		),
	)

	mux.HandleFunc(
		"GET /health",
		ports.MakeConsumerHealthHandler(
			recordProvider,
			instanceID,
			logger.With("port", "health"),
			time.Now,
		),
	)

	logger.Info("Init complete")
	err = server.ListenAndServe(
		ctx,
		logger,
		fmt.Sprintf(":%s", conf.Port("8081")),
		otelhttp.NewHandler(mux, "collapser-consumer"),
	)
	if err != nil {
		fail("Server error", "error", err.Error())
	}
}
