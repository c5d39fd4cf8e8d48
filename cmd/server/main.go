package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/crypto/bcrypt"

	echoapi "github.com/authcore-io/authcore/api/echo"
	"github.com/authcore-io/authcore/cache"
	redcache "github.com/authcore-io/authcore/cache/redis"
	"github.com/authcore-io/authcore/config"
	"github.com/authcore-io/authcore/internal/auth"
	"github.com/authcore-io/authcore/internal/crypto"
	"github.com/authcore-io/authcore/internal/metrics"
	"github.com/authcore-io/authcore/internal/notify"
	"github.com/authcore-io/authcore/internal/server"
	applog "github.com/authcore-io/authcore/log"
	"github.com/authcore-io/authcore/mongodb"
	"github.com/authcore-io/authcore/services"
	"github.com/authcore-io/authcore/token"
	"github.com/authcore-io/authcore/tracing"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	applog.Setup(cfg.LogLevel, cfg.LogPretty)
	log.Info().
		Str("http_port", cfg.HTTPPort).
		Str("mongo_db_name", cfg.MongoDBName).
		Str("log_level", cfg.LogLevel).
		Msg("Starting authcore server")

	ctx := context.Background()

	tracerProvider, err := tracing.InitTracerProvider(cfg.OtelServiceName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize TracerProvider")
	}

	mongoClient, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	db := mongoClient.Database(cfg.MongoDBName)

	sessionRepo, err := mongodb.NewSessionRepositoryMongo(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize SessionRepository")
	}
	principalRepo, err := mongodb.NewPrincipalRepositoryMongo(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PrincipalRepository")
	}

	var sessionCache cache.SessionCache
	var redisClient *goredis.Client
	if cfg.RedisAddr != "" {
		redisClient = goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Failed to connect to Redis")
		}
		sessionCache = redcache.NewSessionCache(redisClient, "authcore")
	} else {
		log.Warn().Msg("REDIS_ADDR not set, using in-process session cache")
		sessionCache = cache.NewMemorySessionCache()
	}

	transportKey, err := cfg.TransportKey()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid transport encryption key")
	}
	cipher, err := crypto.NewTransportCipher(transportKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize transport cipher")
	}

	// TTLs were validated at load, so parse errors cannot happen here.
	accessTTL, _ := config.ParseTTL(cfg.AccessTokenTTL)
	refreshTTL, _ := config.ParseTTL(cfg.RefreshTokenTTL)
	sessionTTL, _ := config.ParseTTL(cfg.SessionTTL)
	storeTimeout, _ := config.ParseTTL(cfg.StoreTimeout)

	codec := token.NewCodec([]byte(cfg.TokenSigningSecret), cfg.TokenIssuer, accessTTL, refreshTTL)
	hasher := auth.NewBcryptPasswordHasher(bcrypt.DefaultCost)
	notifier := notify.NewLogNotifier(log.Logger)

	sessionService := services.NewSessionService(
		sessionRepo, sessionCache, principalRepo, notifier,
		hasher, codec, cipher,
		sessionTTL, storeTimeout,
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.InitCustomMetrics(registry)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	authAPI := echoapi.NewAuthAPI(sessionService, echoapi.CookieSettings{
		Secure:     cfg.CookieSecure,
		SessionTTL: sessionTTL,
		RefreshTTL: refreshTTL,
	})
	authAPI.RegisterRoutes(e)

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	e.GET("/healthz", healthHandler(mongoClient))

	httpServer := server.NewHTTPServer(cfg.HTTPPort, e)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("TracerProvider shutdown error")
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("Redis close error")
		}
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("MongoDB disconnect error")
	}

	log.Info().Msg("Server gracefully stopped")
}

// healthHandler reports liveness of the process and its session store.
func healthHandler(client *mongo.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := mongodb.Ping(c.Request().Context(), client); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}
