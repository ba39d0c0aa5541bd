package server

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/lancewilhelm/shpacer-sub001/internal/auth"
	"github.com/lancewilhelm/shpacer-sub001/internal/config"
	"github.com/lancewilhelm/shpacer-sub001/internal/course"
	"github.com/lancewilhelm/shpacer-sub001/internal/library"
	"github.com/lancewilhelm/shpacer-sub001/internal/observability"
	"github.com/lancewilhelm/shpacer-sub001/internal/pacing"
	"github.com/lancewilhelm/shpacer-sub001/internal/plan"
	"github.com/lancewilhelm/shpacer-sub001/internal/progress"
	"github.com/lancewilhelm/shpacer-sub001/internal/stream"
	"github.com/lancewilhelm/shpacer-sub001/internal/waypoint"
)

type Server struct {
	App     *fiber.App
	Cfg     config.Config
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Stream  *stream.Hub
	Metrics *observability.Collector
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	collector, err := observability.NewCollector(nil)
	if err != nil {
		log.Printf("metrics collector: %v", err)
	}
	app.Use(collector.Middleware())

	s := &Server{
		App:     app,
		Cfg:     cfg,
		DB:      db,
		Redis:   redisClient,
		Stream:  stream.NewHub(redisClient, collector),
		Metrics: collector,
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.App.Get("/metrics", adaptor.HTTPHandler(s.Metrics.Handler()))

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	opts := pacing.Options{SampleStepM: s.Cfg.SampleStepM, GradeWindowM: s.Cfg.GradeWindowM}
	settingsDefaults := auth.Settings{
		DistanceUnit:       "km",
		DefaultStoppageSec: s.Cfg.DefaultStoppageSec,
		SampleStepM:        s.Cfg.SampleStepM,
		GradeWindowM:       s.Cfg.GradeWindowM,
	}

	planSvc := plan.NewService(s.DB, s.Redis, s.Stream, s.Metrics, opts)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB, settingsDefaults), jwtMiddleware)
	course.RegisterRoutes(s.App.Group("/courses"), course.NewService(s.DB, s.Metrics, opts), jwtMiddleware)
	waypoint.RegisterRoutes(s.App, waypoint.NewService(s.DB), jwtMiddleware)
	plan.RegisterRoutes(s.App.Group("/plans"), planSvc, jwtMiddleware)
	progress.RegisterRoutes(s.App.Group("/plans"), progress.NewService(s.DB, planSvc, s.Stream), jwtMiddleware)
	library.RegisterRoutes(s.App.Group("/library"), library.NewService(s.DB), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
