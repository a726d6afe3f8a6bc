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

	"github.com/waveline/waveline-backend/handlers"
	"github.com/waveline/waveline-backend/internal/config"
	"github.com/waveline/waveline-backend/internal/content"
	"github.com/waveline/waveline-backend/internal/database"
	"github.com/waveline/waveline-backend/internal/messages"
	"github.com/waveline/waveline-backend/internal/sessions"
	"github.com/waveline/waveline-backend/internal/settings"
	"github.com/waveline/waveline-backend/internal/testimonials"
	"github.com/waveline/waveline-backend/pkg/logger"
	"github.com/waveline/waveline-backend/pkg/metrics"
	"github.com/waveline/waveline-backend/pkg/middleware"
)

var startTime = time.Now()

// contentResources maps URL resource names onto their Mongo collections.
var contentResources = map[string]string{
	"blog":         "blogposts",
	"case-studies": "casestudies",
	"portfolio":    "portfolioitems",
	"podcasts":     "podcasts",
}

func main() {
	// logging level is controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v env=%s",
		cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Server.Environment)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.RequestID())

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple; production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	ctx := context.Background()

	// Connect to Redis early so the rate limiter and the inbox feed bridge can use it
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

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Connect to MongoDB with retry/backoff to tolerate startup races; fall back
	// to in-memory stores when unavailable so local development still works.
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
			mongoClient = nil
		} else {
			defer func() { _ = mongoClient.Disconnect(ctx) }()
		}
	}
	if mongoClient == nil {
		logger.Warnf("MongoDB unavailable; using in-memory stores (data will not persist)")
	}

	// Health / readiness
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["mongodb"] = mongoClient != nil
		if cfg.MongoDB.URI != "" && mongoClient == nil {
			ready = false
		}
		if cfg.Redis.Host != "" {
			deps["redis"] = redisClient != nil
			if redisClient == nil {
				ready = false
			}
		} else {
			deps["redis"] = true
		}

		status := gin.H{"deps": deps, "uptime": time.Since(startTime).String()}
		if !ready {
			status["status"] = "not_ready"
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		status["status"] = "ready"
		c.JSON(http.StatusOK, status)
	})

	// Session manager and route groups: public reads stay open, admin writes sit
	// behind the session cookie gate.
	mgr := sessions.NewManager(cfg.Session.Secret, cfg.Session.TTL)
	pub := r.Group("/api")
	admin := r.Group("/api")
	admin.Use(middleware.SessionGuardAPI(mgr, cfg.IsProduction()))

	handlers.NewAuthHandler(cfg, mgr).Register(pub)

	// Browser entry for the admin panel: no valid session cookie means a
	// redirect to the login page instead of a bare 401.
	adminUI := r.Group("/admin")
	adminUI.Use(middleware.SessionGuard(mgr, cfg.Session.LoginPath, cfg.IsProduction()))
	adminUI.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "uptime": time.Since(startTime).String()})
	})

	db := func(name string) *mongo.Collection {
		return mongoClient.Database(cfg.MongoDB.Database).Collection(name)
	}

	// Content resources, one service per collection
	for resource, collection := range contentResources {
		var repo content.Repository
		if mongoClient != nil {
			repo = content.NewMongoRepository(db(collection))
		} else {
			repo = content.NewMemoryRepository()
		}
		handlers.NewContentHandler(resource, content.NewService(repo)).Register(pub, admin)
	}

	// Settings
	var settingsRepo settings.Repository
	if mongoClient != nil {
		settingsRepo = settings.NewMongoRepository(db("settings"))
	} else {
		settingsRepo = settings.NewMemoryRepository()
	}
	handlers.NewSettingsHandler(settingsRepo).Register(pub, admin)

	// Testimonials
	var testimonialsRepo testimonials.Repository
	if mongoClient != nil {
		testimonialsRepo = testimonials.NewMongoRepository(db("testimonials"))
	} else {
		testimonialsRepo = testimonials.NewMemoryRepository()
	}
	handlers.NewTestimonialsHandler(testimonials.NewService(testimonialsRepo)).Register(pub, admin)

	// Contact inbox: broker feeds SSE subscribers; change streams catch writes
	// from other replicas, and the Redis bridge covers deployments where change
	// streams are unavailable (standalone mongod).
	var messagesRepo messages.Repository
	if mongoClient != nil {
		messagesRepo = messages.NewMongoRepository(db("messages"))
	} else {
		messagesRepo = messages.NewMemoryRepository()
	}
	broker := messages.NewBroker(messagesRepo)
	var notifier messages.Notifier = broker
	if redisClient != nil {
		bridge := messages.NewRedisBridge(redisClient, broker)
		go bridge.Run(ctx)
		notifier = bridge
	}
	if mongoClient != nil {
		go messages.WatchCollection(ctx, db("messages"), broker)
	}
	messagesSvc := messages.NewService(messagesRepo, notifier)
	handlers.NewMessagesHandler(messagesSvc, broker).Register(pub, admin)

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting waveline backend on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
