package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldmark/beacon/internal/config"
	"github.com/fieldmark/beacon/internal/device"
	"github.com/fieldmark/beacon/internal/geocoding"
	"github.com/fieldmark/beacon/internal/geofence"
	"github.com/fieldmark/beacon/internal/handler"
	"github.com/fieldmark/beacon/internal/ipgeo"
	"github.com/fieldmark/beacon/internal/metrics"
	"github.com/fieldmark/beacon/internal/models"
	"github.com/fieldmark/beacon/internal/monitor"
	"github.com/fieldmark/beacon/internal/repository"
	"github.com/fieldmark/beacon/internal/service"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// Initialize the sites database connection.
	dtb, err := repository.NewDatabase(
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
	)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer dtb.Close()

	// Create a new repository instance using the database connection.
	repo := repository.NewRepository(dtb, logger)

	// Assemble the reverse-geocoding chain. The keyed Google provider joins
	// only when a credential is configured.
	providers, err := geocoding.NewChain(geocoding.ChainConfig{
		GoogleAPIKey: cfg.GoogleAPIKey,
		RateLimit:    cfg.GeocoderRateLimit,
		Logger:       logger,
	})
	if err != nil {
		log.Fatalf("Failed to create reverse-geocoding chain: %v", err)
	}
	placeResolver := geocoding.NewResolver(providers, appMetrics, logger)

	// IP geolocation chain, the lower-confidence substitute tier.
	ipChain := ipgeo.NewChain(appMetrics, logger)

	// Device position feed: MQTT when a broker is configured, otherwise the
	// always-unavailable source so resolutions go straight to the IP tier.
	source := newLocationSource(ctx, cfg, logger)

	acquirer := device.NewAcquirer(source, logger)
	validator := geofence.NewValidator(logger)

	locationService := service.NewLocationService(
		logger,
		acquirer,
		placeResolver,
		ipChain,
		validator,
		appMetrics,
		models.Coordinates{Latitude: cfg.FallbackLatitude, Longitude: cfg.FallbackLongitude},
	)

	// Continuous monitoring over the device feed. Without a feed the watch
	// cannot open and the engine runs in request-response mode only.
	mon := monitor.New(source, placeResolver, validator, appMetrics, logger)
	startMonitoring(ctx, logger, mon, repo)
	defer mon.Stop()

	logger.InfoContext(ctx, "Location engine initialized",
		"providers", len(providers), "mqtt", cfg.MQTTBroker != "")

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Start the HTTP server in a goroutine to allow main to listen for signals.
	go startServer(ctx, logger, reg, dtb, locationService, repo, cfg)

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	// Log graceful shutdown completion.
	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// startMonitoring opens a continuous session against the active sites and
// logs every update that fails validation.
func startMonitoring(ctx context.Context, logger *slog.Logger, mon *monitor.Monitor, repo *repository.Repository) {
	zones, err := repo.FetchActiveSites(ctx)
	if err != nil {
		logger.WarnContext(ctx, "Failed to load authorized sites for monitoring", "error", err)
	}

	if err := mon.Start(ctx, zones, device.AcquireOptions{HighAccuracy: true}); err != nil {
		logger.InfoContext(ctx, "Continuous monitoring not started", "error", err)
		return
	}

	mon.Subscribe(func(u monitor.Update) {
		if u.Validation.IsValid {
			return
		}
		logger.WarnContext(ctx, "Monitored location failed validation",
			"risk", u.Validation.Security.RiskLevel,
			"display", u.Location.DisplayName,
			"warnings", u.Validation.Warnings,
		)
	})
}

// newLocationSource picks the device position feed for this deployment.
func newLocationSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) device.LocationSource {
	if cfg.MQTTBroker == "" {
		logger.InfoContext(ctx, "No MQTT broker configured; device acquisition disabled")
		return device.NewUnavailableSource()
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID("beacon-location-engine").
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		logger.ErrorContext(ctx, "Failed to connect to MQTT broker; device acquisition disabled",
			"broker", cfg.MQTTBroker, "error", token.Error())
		return device.NewUnavailableSource()
	}

	logger.InfoContext(ctx, "Connected to MQTT device position feed", "broker", cfg.MQTTBroker)
	return device.NewMQTTSource(client, cfg.MQTTTopic, logger)
}

// startServer serves the engine endpoints plus health check and metrics.
// It listens on the specified port and logs the server's status and any errors encountered.
func startServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	dtb *pgxpool.Pool,
	svc *service.LocationService,
	repo *repository.Repository,
	cfg *config.Config,
) {
	if cfg.Env != envLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	locationHandler := handler.NewLocationHandler(svc, repo, log)
	locationHandler.Register(router.Group("/v1"))

	router.GET("/healthz", func(c *gin.Context) {
		log.DebugContext(ctx, "Performing health checks...")
		if err := dtb.Ping(c.Request.Context()); err != nil {
			c.String(http.StatusServiceUnavailable, "DB ping failed")
			return
		}
		c.String(http.StatusOK, "OK")
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	log.InfoContext(ctx, "Starting HTTP server", "port", cfg.Port)
	readTimeout := 5
	writeTimeout := 60
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.ErrorContext(ctx, "HTTP server failed", "error", err)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
