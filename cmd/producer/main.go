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

	"github.com/Amund211/collapser/internal/adapters/database"
	"github.com/Amund211/collapser/internal/adapters/recordrepository"
	"github.com/Amund211/collapser/internal/app"
	"github.com/Amund211/collapser/internal/config"
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
	).With("instanceID", instanceID, "component", "producer")

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
		shutdown, err := telemetry.SetupOTelSDK(ctx, "collapser-producer")
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

	logger.Info("Initializing database connection")
	db, err := database.NewPostgresDatabaseFromConfig(conf)
	if err != nil {
		fail("Failed to initialize database connection", "error", err.Error())
	}
	defer db.Close()
	logger.Info("Initialized database connection")

	schemaName := database.GetSchemaName(!conf.IsProduction())

	err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, schemaName)
	if err != nil {
		fail("Failed to migrate database", "error", err.Error())
	}

	recordRepo := recordrepository.NewPostgres(db, schemaName)
	logger.Info("Initialized RecordRepository")

	storeRecord := app.BuildStoreRecord(recordRepo)
	listRecords := app.BuildListRecords(recordRepo)

	mux := http.NewServeMux()

	mux.HandleFunc(
		"POST /v1/records",
		ports.MakeStoreRecordHandler(
			storeRecord,
			logger.With("port", "storerecord"),
			sentryMiddleware,
			time.Now,
		),
	)
	mux.HandleFunc(
		"GET /v1/records",
		ports.MakeListRecordsHandler(
			listRecords,
			logger.With("port", "listrecords"),
			sentryMiddleware,
			time.Now,
		),
	)

	mux.HandleFunc(
		"GET /health",
		ports.MakeProducerHealthHandler(
			db.PingContext,
			instanceID,
			logger.With("port", "health"),
			time.Now,
		),
	)

	logger.Info("Init complete")
	err = server.ListenAndServe(
		ctx,
		logger,
		fmt.Sprintf(":%s", conf.Port("8080")),
		otelhttp.NewHandler(mux, "collapser-producer"),
	)
	if err != nil {
		fail("Server error", "error", err.Error())
	}
}
