package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/invisibility-inc/echo-backend/handlers"
	"github.com/invisibility-inc/echo-backend/internal/config"
	"github.com/invisibility-inc/echo-backend/internal/crm"
	"github.com/invisibility-inc/echo-backend/internal/database"
	"github.com/invisibility-inc/echo-backend/internal/storage"
	"github.com/invisibility-inc/echo-backend/internal/syncer"
	"github.com/invisibility-inc/echo-backend/internal/tokens"
	"github.com/invisibility-inc/echo-backend/internal/users"
	"github.com/invisibility-inc/echo-backend/internal/workos"
	"github.com/invisibility-inc/echo-backend/pkg/logger"
	"github.com/invisibility-inc/echo-backend/pkg/metrics"
	"github.com/invisibility-inc/echo-backend/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: workos=%v mongo=%v redis=%v", cfg.WorkOS.APIKey != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "")

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple — production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	// Global middlewares: logging + recovery
	r.Use(gin.Logger(), gin.Recovery())

	ctx := context.Background()

	// Connect to Redis early so the rate-limiter can use it when configured
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			rdb = nil
		} else {
			logger.Infof("Connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Optional global rate limiter. Installed before the route-level auth
	// middleware, so here every request is keyed by client IP; the limiter
	// keys by subject only when mounted after Auth on a protected group.
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimit(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Connect to MongoDB with retry/backoff to tolerate startup races; fall
	// back to the in-memory store so local runs work without a database.
	var repo users.Repository
	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
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
			col := mongoClient.Database(cfg.MongoDB.Database).Collection("users")
			repo = users.NewMongoRepository(col)
		}
	}
	if repo == nil {
		logger.Warnf("MongoDB unavailable, using in-memory user store")
		repo = users.NewMemoryRepository()
	}

	// Upstream clients and the sync engine
	provider := workos.NewClient(cfg.WorkOS.BaseURL, cfg.WorkOS.APIKey, cfg.WorkOS.ClientID, cfg.WorkOS.Timeout)
	keywords := crm.NewKeywordsClient(cfg.Keywords.BaseURL, cfg.Keywords.APIKey, cfg.Keywords.Timeout)
	engine := syncer.NewEngine(repo, provider, keywords)

	// Auth middleware stack: bearer token verification plus the admin allow-list
	auth := middleware.Auth(tokens.NewVerifier(cfg))
	admin := middleware.RequireAdmin(middleware.NewAllowList(cfg.Auth.AdminIDs))

	handlers.NewAuthHandler(cfg, provider, engine).Register(r, auth, admin)

	// Recordings presigning is optional: register only when MinIO is configured
	var store *storage.MinIOStorage
	if mcfg := storage.LoadMinIOConfig(); mcfg.Endpoint != "" {
		store, err = storage.NewMinIOStorage(mcfg)
		if err != nil {
			logger.Warnf("object storage unavailable, recordings routes disabled: %v", err)
		} else {
			handlers.NewRecordingsHandler(store).Register(r, auth)
		}
	}

	handlers.RegisterSwagger(r)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness endpoint — return 200 only when critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["workos"] = cfg.WorkOS.APIKey != ""
		if !deps["workos"] {
			ready = false
		}

		deps["mongo"] = mongoClient != nil
		deps["recordings"] = store != nil

		if cfg.Redis.Host != "" && cfg.RateLimit.UseRedis {
			deps["redis"] = rdb != nil
			if !deps["redis"] {
				ready = false
			}
		} else {
			deps["redis"] = true
		}

		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Starting auth service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
