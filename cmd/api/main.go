package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/tahfidz-app/tahfidz-api/api/swagger"
	"github.com/tahfidz-app/tahfidz-api/internal/handler"
	"github.com/tahfidz-app/tahfidz-api/internal/middleware"
	"github.com/tahfidz-app/tahfidz-api/internal/models"
	"github.com/tahfidz-app/tahfidz-api/internal/repository"
	"github.com/tahfidz-app/tahfidz-api/internal/service"
	"github.com/tahfidz-app/tahfidz-api/pkg/cache"
	"github.com/tahfidz-app/tahfidz-api/pkg/config"
	"github.com/tahfidz-app/tahfidz-api/pkg/database"
	"github.com/tahfidz-app/tahfidz-api/pkg/jobs"
	"github.com/tahfidz-app/tahfidz-api/pkg/logger"
	"github.com/tahfidz-app/tahfidz-api/pkg/media"
	corsmiddleware "github.com/tahfidz-app/tahfidz-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tahfidz-app/tahfidz-api/pkg/middleware/requestid"
	"github.com/tahfidz-app/tahfidz-api/pkg/storage"
)

// @title Tahfidz API
// @version 1.0.0
// @description Quran memorization tracking: submissions, quizzes, points and achievements
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := database.Migrate(cfg.Database); err != nil {
		logr.Sugar().Fatalw("migrations failed", "error", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Caching is an optimization; the API runs without it.
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	staging, err := storage.NewLocalStorage(cfg.Media.StagingDir)
	if err != nil {
		logr.Sugar().Fatalw("staging directory unavailable", "error", err)
	}

	validate := validator.New()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	organizeRepo := repository.NewOrganizeRepository(db)
	setoranRepo := repository.NewSetoranRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	poinRepo := repository.NewPoinRepository(db)
	labelRepo := repository.NewLabelRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Achievement.CacheTTL, logr, cfg.Achievement.CacheEnabled && redisClient != nil)
	poinSvc := service.NewPoinService(poinRepo, metricsSvc, cacheSvc, logr)
	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	userSvc := service.NewUserService(userRepo, organizeRepo, validate, logr)
	organizeSvc := service.NewOrganizeService(organizeRepo, userRepo, validate, logr)
	setoranSvc := service.NewSetoranService(setoranRepo, userRepo, organizeRepo, labelRepo, poinSvc, metricsSvc, cfg.Setoran, validate, logr)
	quizSvc := service.NewQuizService(quizRepo, organizeRepo, poinSvc, metricsSvc, validate, logr)
	achievementSvc := service.NewAchievementService(poinRepo, labelRepo, userRepo, cacheSvc, cfg.Achievement.CacheTTL, logr)

	mediaClient := media.NewClient(cfg.Media)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	organizeHandler := handler.NewOrganizeHandler(organizeSvc)
	setoranHandler := handler.NewSetoranHandler(setoranSvc, mediaClient, staging, cfg.Media.MaxFileSize)
	quizHandler := handler.NewQuizHandler(quizSvc)
	achievementHandler := handler.NewAchievementHandler(achievementSvc, poinSvc)

	// Staging reaper: abandoned uploads are deleted after the TTL.
	reaper := jobs.NewQueue("staging-reaper", func(ctx context.Context, job jobs.Job) error {
		deleted, err := staging.CleanupOlderThan(cfg.Media.StagingTTL)
		if err != nil {
			return err
		}
		if len(deleted) > 0 {
			logr.Sugar().Infow("staging cleanup", "deleted", len(deleted))
		}
		return nil
	}, jobs.QueueConfig{Workers: 1, Logger: logr})
	reaperCtx, cancelReaper := context.WithCancel(context.Background())
	defer cancelReaper()
	reaper.Start(reaperCtx)
	defer reaper.Stop()
	go scheduleCleanup(reaperCtx, reaper, cfg.Media.CleanupInterval)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", middleware.Audit(userRepo, models.AuditActionRegister, "users"), authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)

		authed := auth.Group("", middleware.JWT(authSvc))
		authed.POST("/logout", authHandler.Logout)
		authed.POST("/change-password", authHandler.ChangePassword)
		authed.GET("/me", authHandler.Me)
	}

	protected := api.Group("", middleware.JWT(authSvc))

	setoran := protected.Group("/setoran")
	{
		setoran.POST("/upload", middleware.RequireCapability(models.CapSubmitSetoran), setoranHandler.Upload)
		setoran.POST("", middleware.RequireCapability(models.CapSubmitSetoran), middleware.Audit(userRepo, models.AuditActionSetoranCreate, "setoran"), setoranHandler.Create)
		setoran.GET("", middleware.RequireCapability(models.CapViewOwnSetoran, models.CapViewClassSetoran, models.CapViewChildren), setoranHandler.List)
		setoran.GET("/status-counts", middleware.RequireCapability(models.CapViewOwnSetoran, models.CapViewClassSetoran, models.CapViewChildren), setoranHandler.StatusCounts)
		setoran.GET("/:id", setoranHandler.Get)
		setoran.PATCH("/:id/review", middleware.RequireCapability(models.CapReviewSetoran), middleware.Audit(userRepo, models.AuditActionSetoranReview, "setoran"), setoranHandler.Review)
	}

	quizzes := protected.Group("/quizzes")
	{
		quizzes.GET("", middleware.RequireCapability(models.CapViewQuiz, models.CapViewChildren), quizHandler.List)
		quizzes.POST("", middleware.RequireCapability(models.CapManageQuiz), quizHandler.Create)
		quizzes.DELETE("/:id", middleware.RequireCapability(models.CapManageQuiz), quizHandler.Delete)
		quizzes.POST("/:id/answer", middleware.RequireCapability(models.CapAnswerQuiz), middleware.Audit(userRepo, models.AuditActionQuizAnswer, "quiz_answers"), quizHandler.Answer)
		quizzes.GET("/answers/summary", quizHandler.AnswerSummary)
	}

	achievements := protected.Group("/achievements")
	{
		achievements.GET("", middleware.RequireCapability(models.CapViewOwnProgress, models.CapViewChildren, models.CapViewAnyProgress), achievementHandler.Summary)
		achievements.GET("/leaderboard", achievementHandler.Leaderboard)
		achievements.GET("/export", middleware.RequireCapability(models.CapViewOwnProgress, models.CapViewChildren, models.CapViewAnyProgress), achievementHandler.Export)
	}

	users := protected.Group("/users")
	{
		users.GET("/me/children", middleware.RequireCapability(models.CapViewChildren), userHandler.Children)
		users.GET("", middleware.RequireCapability(models.CapManageUsers), userHandler.List)
		users.GET("/:id", middleware.RequireCapability(models.CapManageUsers), userHandler.Get)
		users.PATCH("/:id/organize", middleware.RequireCapability(models.CapManageUsers), userHandler.AssignOrganize)
		users.DELETE("/:id", middleware.RequireCapability(models.CapManageUsers), userHandler.Deactivate)
		users.POST("/:id/children", middleware.RequireCapability(models.CapManageUsers), userHandler.LinkChild)
	}

	organizes := protected.Group("/organizes")
	{
		organizes.GET("", organizeHandler.List)
		organizes.GET("/:id", organizeHandler.Get)
		organizes.POST("", middleware.RequireCapability(models.CapManageOrganizes), organizeHandler.Create)
		organizes.PATCH("/:id", middleware.RequireCapability(models.CapManageOrganizes), organizeHandler.Update)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// scheduleCleanup enqueues a staging sweep on every tick until ctx ends.
func scheduleCleanup(ctx context.Context, q *jobs.Queue, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = q.Enqueue(jobs.Job{ID: uuid.NewString(), Type: "staging-cleanup"})
		}
	}
}
