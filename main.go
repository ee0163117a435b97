package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	_ "golang.org/x/crypto/x509roots/fallback"

	"github.com/pathways-mc/pathways/internal/adapters/database"
	"github.com/pathways-mc/pathways/internal/adapters/hooks"
	"github.com/pathways-mc/pathways/internal/adapters/pathstaterepository"
	"github.com/pathways-mc/pathways/internal/adapters/playtimerepository"
	"github.com/pathways-mc/pathways/internal/checker"
	"github.com/pathways-mc/pathways/internal/config"
	"github.com/pathways-mc/pathways/internal/debug"
	"github.com/pathways-mc/pathways/internal/logging"
	"github.com/pathways-mc/pathways/internal/pathconfig"
	"github.com/pathways-mc/pathways/internal/pathing"
	"github.com/pathways-mc/pathways/internal/playtime"
	"github.com/pathways-mc/pathways/internal/ports"
	"github.com/pathways-mc/pathways/internal/registry"
	"github.com/pathways-mc/pathways/internal/reporting"
	"github.com/pathways-mc/pathways/internal/requirement"
	"github.com/pathways-mc/pathways/internal/result"
	"github.com/pathways-mc/pathways/internal/scheduler"
	"github.com/pathways-mc/pathways/internal/telemetry"
)

func main() {
	instanceID := uuid.New().String()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	conf, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}
	logger.Info("Loaded config", "config", conf.NonSensitiveString())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.AddToContext(ctx, logger)

	otelShutdown, err := telemetry.SetupOTelSDK(ctx, "pathways")
	if err != nil {
		logger.Warn("Failed to set up telemetry", "error", err.Error())
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			logger.Warn("Failed to shut down telemetry", "error", err.Error())
		}
	}()

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(conf)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	bridge := hooks.NewBridgeOrMock(httpClient, conf.BridgeURL(), conf.BridgeToken())
	if err := bridge.Refresh(ctx); err != nil {
		// Without the capability set every hook-backed requirement and
		// result degrades at load, leaving the engine inert.
		if !conf.IsDevelopment() {
			fail("Failed to fetch bridge capabilities", "error", err.Error())
		}
		logger.Warn("Failed to fetch bridge capabilities", "error", err.Error())
	}
	logger.Info("Initialized server bridge")

	logger.Info("Initializing database connection")
	db, err := database.NewConfiguredPostgresDatabase(conf)
	if err != nil {
		if !conf.IsDevelopment() {
			fail("Failed to connect to database", "error", err.Error())
		}
		logger.Warn("Failed to connect to database", "error", err.Error())
		db = nil
	}
	if db != nil {
		schemaName := database.GetSchemaName(!conf.IsProduction())
		err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, schemaName)
		if err != nil {
			fail("Failed to migrate database", "error", err.Error())
		}
	}

	stateRepo, err := pathstaterepository.NewPostgresOrMock(conf, db, logger)
	if err != nil {
		fail("Failed to initialize path state repository", "error", err.Error())
	}

	playTimeRepo, err := playtimerepository.NewPostgresOrMock(conf, db, logger)
	if err != nil {
		fail("Failed to initialize playtime repository", "error", err.Error())
	}
	playTimes := playtime.NewManager(playTimeRepo)

	reg := registry.New()
	err = requirement.RegisterBuiltins(reg, requirement.Deps{
		PlayTime:   playTimes,
		Permission: bridge,
		Economy:    bridge,
		Skyblock:   bridge,
		Statistic:  bridge,
		World:      bridge,
	})
	if err != nil {
		fail("Failed to register requirement types", "error", err.Error())
	}
	err = result.RegisterBuiltins(reg, result.Deps{
		Groups:   bridge,
		Commands: bridge,
		Messages: bridge,
	})
	if err != nil {
		fail("Failed to register result types", "error", err.Error())
	}

	loaded, err := pathconfig.LoadFile(ctx, conf.PathsFile(), reg, bridge)
	if err != nil {
		fail("Failed to load path config", "error", err.Error())
	}
	logger.Info("Loaded path config", "paths", len(loaded.Paths), "warnings", len(loaded.Warnings))

	manager := pathing.NewManager(stateRepo, conf.MaxActivePaths(), time.Now)
	for _, path := range loaded.Paths {
		if err := manager.AddPath(path); err != nil {
			fail("Failed to add path", "path", path.DisplayName(), "error", err.Error())
		}
	}

	playerChecker, err := checker.NewChecker(manager)
	if err != nil {
		fail("Failed to initialize checker", "error", err.Error())
	}

	sched, err := scheduler.New(bridge, playTimes, playerChecker, conf.CheckInterval(), time.Now)
	if err != nil {
		fail("Failed to initialize scheduler", "error", err.Error())
	}
	go sched.Run(ctx)

	debugReporter := debug.NewReporter(instanceID, conf, reg, manager, loaded.Warnings)

	http.HandleFunc(
		"GET /v1/paths",
		ports.MakeListPathsHandler(manager, logger.With("port", "paths"), sentryMiddleware),
	)
	http.HandleFunc(
		"GET /v1/paths/{name}",
		ports.MakeGetPathHandler(manager, logger.With("port", "path"), sentryMiddleware),
	)
	http.HandleFunc(
		"GET /v1/players/{uuid}/paths",
		ports.MakeGetPlayerPathsHandler(manager, logger.With("port", "playerpaths"), sentryMiddleware),
	)
	http.HandleFunc(
		"POST /v1/players/{uuid}/paths/{name}/activation",
		ports.MakeActivatePathHandler(manager, logger.With("port", "activation"), sentryMiddleware),
	)
	http.HandleFunc(
		"POST /v1/players/{uuid}/check",
		ports.MakeCheckPlayerHandler(playerChecker, logger.With("port", "check"), sentryMiddleware),
	)
	http.HandleFunc(
		"GET /v1/players/{uuid}/times",
		ports.MakeGetPlayerTimesHandler(playTimes, logger.With("port", "times"), sentryMiddleware),
	)
	http.HandleFunc(
		"POST /v1/players/{uuid}/times",
		ports.MakeSetPlayerTimeHandler(playTimes, logger.With("port", "settimes"), sentryMiddleware),
	)
	http.HandleFunc(
		"GET /v1/times/top",
		ports.MakeTopTimesHandler(playTimes, logger.With("port", "toptimes"), sentryMiddleware),
	)
	http.HandleFunc(
		"GET /v1/debug",
		ports.MakeDebugHandler(debugReporter, logger.With("port", "debug"), sentryMiddleware),
	)

	logger.Info("Init complete")
	err = http.ListenAndServe(
		fmt.Sprintf(":%s", conf.Port()),
		otelhttp.NewHandler(http.DefaultServeMux, "pathways"),
	)
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server shutdown")
	} else {
		fail("Server error", "error", err.Error())
	}
}
