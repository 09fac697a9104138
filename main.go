package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tasklight/tasklight/handlers"
	"github.com/tasklight/tasklight/internal/audit"
	"github.com/tasklight/tasklight/internal/auth"
	"github.com/tasklight/tasklight/internal/config"
	"github.com/tasklight/tasklight/internal/database"
	"github.com/tasklight/tasklight/internal/ratelimit"
	"github.com/tasklight/tasklight/internal/sessions"
	"github.com/tasklight/tasklight/internal/todos"
	"github.com/tasklight/tasklight/internal/tokens"
	"github.com/tasklight/tasklight/internal/users"
	"github.com/tasklight/tasklight/pkg/logger"
	"github.com/tasklight/tasklight/pkg/metrics"
	"github.com/tasklight/tasklight/pkg/middleware"
)

var startTime = time.Now()

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Init("info")
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.Server.LogLevel)
	defer logger.Sync()
	logger.Infof("config loaded: mongo=%v redis=%v", cfg.MongoDB.URI != "", cfg.Redis.Host != "")

	codec, err := tokens.NewCodec(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)
	if err != nil {
		logger.Fatalf("token codec: %v", err)
	}

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Device-Id")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	r.Use(gin.Logger(), gin.Recovery())

	// Coarse whole-API backstop; the login/refresh windows sit behind it.
	r.Use(middleware.GlobalRateLimitMiddleware(cfg.RateLimit.GlobalRPS, cfg.RateLimit.GlobalBurst))

	ctx := context.Background()

	// Connect to Redis early so sessions and rate limiting can use it
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Session store: Redis when available, otherwise Mongo, otherwise memory
	var sessionRepo sessions.Repository
	if redisClient != nil {
		sessionRepo = sessions.NewRedisRepository(redisClient, "refresh:")
		logger.Infof("using Redis for session storage")
	}

	var userRepo users.Repository
	var todoRepo todos.Repository
	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		// Retry with backoff to tolerate startup races against the database
		const maxAttempts = 5
		backoff := time.Second
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			mongoClient, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
		} else {
			defer func() { _ = mongoClient.Disconnect(ctx) }()
			db := mongoClient.Database(cfg.MongoDB.Database)
			counters := db.Collection("counters")
			userRepo = users.NewMongoRepository(db.Collection("users"), counters)
			todoRepo = todos.NewMongoRepository(db.Collection("todos"), counters)
			if sessionRepo == nil {
				sessionRepo = sessions.NewMongoRepository(db.Collection("sessions"))
			}
		}
	}
	if userRepo == nil {
		logger.Warnf("no MongoDB configured, using in-memory user store")
		userRepo = users.NewMemoryRepository()
	}
	if todoRepo == nil {
		todoRepo = todos.NewMemoryRepository()
	}
	if sessionRepo == nil {
		sessionRepo = sessions.NewMemoryRepository()
	}

	sink := audit.NewZapSink(logger.L())
	authSvc := auth.NewService(userRepo, sessionRepo, codec, sink)
	todoSvc := todos.NewService(todoRepo)

	// Per-endpoint limiters: Redis-backed when available so the window is
	// shared across instances
	var loginLimiter, refreshLimiter gin.HandlerFunc
	if redisClient != nil {
		loginLimiter = middleware.RedisRateLimitMiddleware(
			ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit.LoginMax, cfg.RateLimit.Window), "login")
		refreshLimiter = middleware.RedisRateLimitMiddleware(
			ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit.RefreshMax, cfg.RateLimit.Window), "refresh")
	} else {
		limiter := ratelimit.New(cfg.RateLimit.LoginMax, cfg.RateLimit.Window)
		refreshWindow := ratelimit.New(cfg.RateLimit.RefreshMax, cfg.RateLimit.Window)
		loginLimiter = middleware.RateLimitMiddleware(limiter, "login")
		refreshLimiter = middleware.RateLimitMiddleware(refreshWindow, "refresh")
	}

	root := r.Group("/")
	authHandler := handlers.NewAuthHandler(authSvc, loginLimiter, refreshLimiter)
	authHandler.Register(root, codec)

	api := r.Group("/api")
	todoHandler := handlers.NewTodoHandler(todoSvc)
	todoHandler.Register(api, codec)

	handlers.RegisterOpenAPI(r)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{
			"sessions": sessionRepo != nil,
			"users":    userRepo != nil,
		}
		if cfg.Redis.Host != "" {
			deps["redis"] = redisClient != nil
			if redisClient == nil {
				ready = false
			}
		}
		if cfg.MongoDB.URI != "" {
			deps["mongodb"] = mongoClient != nil
			if mongoClient == nil {
				ready = false
			}
		}
		status := http.StatusOK
		label := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			label = "not_ready"
		}
		c.JSON(status, gin.H{"status": label, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting tasklight on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
