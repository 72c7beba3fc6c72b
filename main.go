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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/slayerbot/panel/handlers"
	"github.com/slayerbot/panel/internal/config"
	"github.com/slayerbot/panel/internal/database"
	"github.com/slayerbot/panel/internal/discord"
	"github.com/slayerbot/panel/internal/oauth"
	"github.com/slayerbot/panel/internal/settings/service"
	"github.com/slayerbot/panel/internal/tokens"
	"github.com/slayerbot/panel/pkg/logger"
	"github.com/slayerbot/panel/pkg/metrics"
	"github.com/slayerbot/panel/pkg/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Configure(cfg.Server.Environment)
	defer logger.Sync()
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	logger.Infof("config loaded: env=%s mongo=%v redis=%v bot=%v",
		cfg.Server.Environment, cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Discord.BotToken != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, err := connectMongo(ctx, cfg.MongoDB)
	if err != nil {
		logger.Fatalf("could not connect to MongoDB: %v", err)
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()
	db := mongoClient.Database(cfg.MongoDB.Database)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		logger.Warnf("failed to ensure indexes: %v", err)
	}
	logger.Infof("MongoDB connected (database=%s)", cfg.MongoDB.Database)

	rdb := connectRedis(ctx, cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	bot, err := discord.NewBot(cfg.Discord.BotToken, nil)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	if err := bot.Open(); err != nil {
		logger.Fatalf("%v", err)
	}
	defer bot.Close()

	codec := tokens.FromConfig(cfg)
	exchanger := oauth.New(cfg.Discord, &http.Client{Timeout: 15 * time.Second})
	settings := service.NewMongoService(db)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectors(reg)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Recovery(),
		middleware.CORS(cfg.Server.CORSOrigins),
	)

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	handlers.RegisterSwagger(r)
	handlers.RegisterHealth(r,
		handlers.ReadinessCheck{Name: "mongo", Check: func(ctx context.Context) error {
			return database.Ping(ctx, mongoClient)
		}},
		handlers.ReadinessCheck{Name: "discord", Check: func(context.Context) error {
			if !bot.Ready() {
				return errors.New("gateway not ready")
			}
			return nil
		}},
		handlers.ReadinessCheck{Name: "redis", Optional: true, Check: func(ctx context.Context) error {
			if rdb == nil {
				return errors.New("not configured")
			}
			return rdb.Ping(ctx).Err()
		}},
	)

	routes := handlers.APIRoutes{
		Auth:        handlers.NewAuthHandler(exchanger, codec),
		Guilds:      handlers.NewGuildsHandler(discord.NewUserGuilds(bot), bot, settings),
		Session:     middleware.RequireSession(codec),
		GuildAccess: middleware.RequireGuildAccess(discord.NewOracle(bot), "guildId"),
	}
	if cfg.RateLimit.Enabled {
		// Keyed by IP before the session check, by user after it.
		routes.PreAuth = append(routes.PreAuth, newLimiter(cfg.RateLimit, rdb))
		routes.PostAuth = append(routes.PostAuth, newLimiter(cfg.RateLimit, rdb))
	}
	routes.Register(r.Group(cfg.Server.APIPrefix))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("Starting panel API on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Warnf("graceful shutdown failed: %v", err)
	}
	logger.Info("Shutdown complete")
}

// connectMongo retries with backoff to tolerate startup races with the database container.
func connectMongo(ctx context.Context, cfg config.MongoDBConfig) (*mongo.Client, error) {
	const maxAttempts = 5
	backoff := time.Second
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		client, err := database.ConnectMongo(ctx, cfg.URI, cfg.Timeout)
		if err == nil {
			return client, nil
		}
		lastErr = err
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, err)
		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return nil, lastErr
}

// connectRedis returns nil when Redis is not configured or unreachable.
func connectRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Host == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warnf("failed to connect to Redis (%s:%s), using in-memory rate limiting: %v", cfg.Host, cfg.Port, err)
		_ = rdb.Close()
		return nil
	}
	logger.Infof("Connected to Redis: %s:%s", cfg.Host, cfg.Port)
	return rdb
}

func newLimiter(cfg config.RateLimitConfig, rdb *redis.Client) gin.HandlerFunc {
	if cfg.UseRedis && rdb != nil {
		return middleware.RedisRateLimitMiddleware(rdb, cfg.Max, cfg.Window)
	}
	return middleware.RateLimitMiddleware(cfg.RPS, cfg.Burst)
}
