package server

import (
	"time"

	"backend-chirper/internal/apperr"
	"backend-chirper/internal/auth"
	"backend-chirper/internal/config"
	"backend-chirper/internal/metrics"
	"backend-chirper/internal/notification"
	"backend-chirper/internal/policy"
	"backend-chirper/internal/social"
	"backend-chirper/internal/store"
	"backend-chirper/internal/tweet"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	App   *fiber.App
	Cfg   config.Config
	Store store.Store
	Redis *redis.Client
	Hub   *notification.Hub
	Log   *zap.Logger
}

func NewServer(cfg config.Config, st store.Store, redisClient *redis.Client, log *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: apperr.Handler(log),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(requestLogger(log))
	app.Use(metrics.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigin,
		// fiber rejects credentials combined with a wildcard origin
		AllowCredentials: cfg.CORSOrigin != "" && cfg.CORSOrigin != "*",
	}))

	s := &Server{
		App:   app,
		Cfg:   cfg,
		Store: st,
		Redis: redisClient,
		Hub:   notification.NewHub(redisClient, log),
		Log:   log,
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	gate := auth.NewGate(s.Cfg.JWTSecret, s.Cfg.TokenTTL, s.Store)
	authMiddleware := auth.Middleware(gate, s.Log)
	rules := policy.New(s.Store)
	notifications := notification.NewService(s.Store, s.Hub, s.Log)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Store, gate), authMiddleware,
		auth.CookieOptions{Secure: s.Cfg.IsProduction()})
	// /user/tweets goes first so /user/:id does not capture it.
	tweet.RegisterRoutes(s.App.Group("/user/tweets"), tweet.NewService(s.Store, rules, notifications), authMiddleware)
	social.RegisterRoutes(s.App.Group("/user"), s.App.Group("/follow"), social.NewService(s.Store, rules, notifications), authMiddleware)
	notification.RegisterRoutes(s.App.Group("/notifications"), notifications, s.Hub, authMiddleware)
}

// Close stops the notification hub. The store and Redis client belong to the caller.
func (s *Server) Close() {
	s.Hub.Close()
}

func requestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		log.Info("http request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", metrics.StatusOf(c, err)),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
			zap.String("ip", c.IP()),
		)
		return err
	}
}
