package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"engage_backend/internal/config"
	"engage_backend/internal/controller"
	"engage_backend/internal/repository"
	"engage_backend/internal/service"
	"engage_backend/pkg/database"
	"engage_backend/pkg/logger"
	"engage_backend/pkg/monitoring"
	"engage_backend/pkg/security"
	"engage_backend/pkg/tracing"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

// ReloadConfig 配置文件变更后回调，仅热更新可以安全替换的参数
func (a *App) ReloadConfig(cfg interface{}) {
	newCfg, ok := cfg.(*config.Config)
	if !ok {
		return
	}
	a.services.submission.UpdateRewards(newCfg.Rewards)
	logger.Log.Info("configuration reloaded")
}

type repositories struct {
	user       *repository.UserRepository
	survey     *repository.SurveyRepository
	surveyLink *repository.SurveyLinkRepository
	submission *repository.SubmissionRepository
}

type services struct {
	auth       *service.AuthService
	user       *service.UserService
	survey     *service.SurveyService
	surveyLink *service.SurveyLinkService
	submission *service.SubmissionService
	analytics  *service.AnalyticsService
	export     *service.ExportService
	storage    *service.StorageService
	cache      *service.AnalyticsCache
}

type controllers struct {
	auth      *controller.AuthController
	user      *controller.UserController
	survey    *controller.SurveyController
	response  *controller.ResponseController
	analytics *controller.AnalyticsController
	upload    *controller.UploadController
	health    *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		survey:     repository.NewSurveyRepository(db),
		surveyLink: repository.NewSurveyLinkRepository(db),
		submission: repository.NewSubmissionRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) (*services, error) {
	s := &services{}

	cacheTTL := time.Duration(cfg.Analytics.CacheTTLMinutes) * time.Minute
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	s.cache = service.NewAnalyticsCache(rdb, cacheTTL, logger.Log)

	storage, err := service.NewStorageService(&cfg.Storage, logger.Log)
	if err != nil {
		return nil, err
	}
	s.storage = storage

	s.auth = service.NewAuthService(repos.user, cfg, logger.Log)
	s.user = service.NewUserService(repos.user, logger.Log)
	s.submission = service.NewSubmissionService(repos.submission, s.cache, cfg.Rewards, logger.Log)
	s.survey = service.NewSurveyService(repos.survey, s.submission, s.cache, logger.Log)
	s.surveyLink = service.NewSurveyLinkService(repos.surveyLink, repos.survey, logger.Log)
	s.analytics = service.NewAnalyticsService(repos.submission, s.cache, logger.Log)
	s.export = service.NewExportService(repos.submission, logger.Log)

	return s, nil
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth),
		user:      controller.NewUserController(s.user),
		survey:    controller.NewSurveyController(s.survey, s.surveyLink),
		response:  controller.NewResponseController(s.submission),
		analytics: controller.NewAnalyticsController(s.analytics, s.export),
		upload:    controller.NewUploadController(s.storage),
		health:    controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 10000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services, err := app.initServices(repos, cfg, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("engage-platform", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
