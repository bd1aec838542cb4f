package server

import (
	"github.com/go-redis/redis_rate/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mansoorceksport/workoutgen/internal/config"
	"github.com/mansoorceksport/workoutgen/internal/domain"
	"github.com/mansoorceksport/workoutgen/internal/handler"
	"github.com/mansoorceksport/workoutgen/internal/middleware"
	"github.com/mansoorceksport/workoutgen/internal/repository"
	"github.com/mansoorceksport/workoutgen/internal/service"
	"github.com/mansoorceksport/workoutgen/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Config      *config.Config
	MongoDB     *mongo.Database
	RedisClient *redis.Client
	// AuthClient verifies Firebase ID tokens. Ignored when Config.JWT.Secret is set.
	AuthClient middleware.FirebaseAuthClient
	Generator  domain.WorkoutGenerator
	// Archive is optional; nil skips storing raw AI responses
	Archive domain.ResponseArchive
	// Metrics is optional; nil records nothing
	Metrics *telemetry.Metrics
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) *fiber.App {
	cfg := deps.Config

	// Repositories
	cacheRepo := repository.NewRedisCacheRepository(deps.RedisClient)
	workoutRepo := repository.NewMongoWorkoutRepository(deps.MongoDB)
	linkRepo := repository.NewMongoWorkoutExerciseRepository(deps.MongoDB)
	exerciseRepo := repository.NewCachedExerciseRepository(
		repository.NewMongoExerciseRepository(deps.MongoDB),
		cacheRepo,
		cfg.RateLimit.CatalogCacheTTL,
	)
	profileRepo := repository.NewMongoProfileRepository(deps.MongoDB)

	// Services
	resolver := service.NewExerciseResolver(exerciseRepo)
	limiter := service.NewWorkoutCountLimiter(workoutRepo, cfg.RateLimit.DailyWorkouts)
	workoutService := service.NewWorkoutService(workoutRepo, linkRepo, exerciseRepo, resolver, limiter, deps.Generator).
		WithCache(cacheRepo, cfg.RateLimit.ListCacheTTL).
		WithMetrics(deps.Metrics)
	if deps.Archive != nil {
		workoutService.WithArchive(deps.Archive)
	}

	// Handlers
	workoutHandler := handler.NewWorkoutHandler(workoutService)
	exerciseHandler := handler.NewExerciseHandler(exerciseRepo)
	profileHandler := handler.NewProfileHandler(profileRepo)

	app := fiber.New(fiber.Config{
		AppName:      "Workout Generator API",
		BodyLimit:    cfg.Server.BodyLimitKB * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(telemetry.FiberMiddleware(middleware.GetUserID))
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Correlation-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "workoutgen-api",
		})
	})

	v1 := app.Group("/v1")
	authenticate := authMiddleware(deps)

	// Catalog reads are public
	v1.Get("/exercises", exerciseHandler.List)
	v1.Get("/exercises/:id", exerciseHandler.Get)

	workouts := v1.Group("/workouts", authenticate)
	workouts.Post("/generate",
		middleware.IdempotencyMiddleware(deps.RedisClient, cfg.RateLimit.IdempotencyTTL),
		middleware.BurstLimit(redis_rate.NewLimiter(deps.RedisClient), "generate", cfg.RateLimit.BurstPerMinute),
		workoutHandler.Generate,
	)
	workouts.Get("/", workoutHandler.List)
	workouts.Put("/update", workoutHandler.Update)
	workouts.Delete("/delete", workoutHandler.Delete)
	workouts.Get("/:id", workoutHandler.Get)
	workouts.Delete("/:id", workoutHandler.Delete)

	me := v1.Group("/me", authenticate)
	me.Get("/profile", profileHandler.Get)
	me.Put("/profile", profileHandler.Update)

	return app
}

// authMiddleware prefers shared-secret JWTs when a secret is configured
func authMiddleware(deps AppDependencies) fiber.Handler {
	if deps.Config.JWT.Secret != "" {
		return middleware.VerifyAccessToken(deps.Config.JWT.Secret)
	}
	return middleware.FirebaseAuth(deps.AuthClient)
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	logrus.WithError(err).WithField("path", c.Path()).Error("request failed")
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
