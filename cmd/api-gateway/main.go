package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/univ-dsi/accessplan-api/api/swagger"
	"github.com/univ-dsi/accessplan-api/internal/handler"
	"github.com/univ-dsi/accessplan-api/internal/middleware"
	"github.com/univ-dsi/accessplan-api/internal/models"
	"github.com/univ-dsi/accessplan-api/internal/repository"
	"github.com/univ-dsi/accessplan-api/internal/service"
	"github.com/univ-dsi/accessplan-api/pkg/cache"
	"github.com/univ-dsi/accessplan-api/pkg/config"
	"github.com/univ-dsi/accessplan-api/pkg/database"
	"github.com/univ-dsi/accessplan-api/pkg/logger"
	corsmiddleware "github.com/univ-dsi/accessplan-api/pkg/middleware/cors"
	reqidmiddleware "github.com/univ-dsi/accessplan-api/pkg/middleware/requestid"
)

// @title AccessPlan API
// @version 1.0.0
// @description Disability accommodation management for university students
// @BasePath /api/v1
// @schemes http

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
	sugar := logr.Sugar()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		sugar.Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		sugar.Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	beneficiaryRepo := repository.NewBeneficiaryRepository(db)
	accommodationRepo := repository.NewAccommodationRepository(db)
	intervenantRepo := repository.NewIntervenantRepository(db)
	rateRepo := repository.NewRateRepository(db)
	parameterRepo := repository.NewParameterRepository(db)

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	roleSvc := service.NewRoleService(userRepo, beneficiaryRepo, intervenantRepo, requestRepo, logr)
	authSvc := service.NewAuthService(userRepo, roleSvc, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	campaignSvc := service.NewCampaignService(campaignRepo, validate, logr)
	requestSvc := service.NewRequestService(requestRepo, campaignRepo, beneficiaryRepo, userRepo, validate, logr)
	beneficiarySvc := service.NewBeneficiaryService(beneficiaryRepo, accommodationRepo, userRepo, validate, logr)
	accommodationSvc := service.NewAccommodationService(accommodationRepo, validate, logr)
	intervenantSvc := service.NewIntervenantService(intervenantRepo, beneficiaryRepo, validate, logr)
	rateSvc := service.NewRateService(rateRepo, validate, logr)

	var parameterCache = redisClient
	if !cfg.Parameters.CacheEnabled {
		parameterCache = nil
	}
	parameterSvc := service.NewParameterService(parameterRepo, parameterCache, metricsSvc, validate, logr, cfg.Parameters.CacheTTL)
	exportSvc := service.NewExportService(beneficiaryRepo, accommodationRepo, logr, cfg.Exports.MaxRows)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc, roleSvc)
	campaignHandler := handler.NewCampaignHandler(campaignSvc)
	requestHandler := handler.NewRequestHandler(requestSvc)
	beneficiaryHandler := handler.NewBeneficiaryHandler(beneficiarySvc)
	accommodationHandler := handler.NewAccommodationHandler(accommodationSvc)
	intervenantHandler := handler.NewIntervenantHandler(intervenantSvc)
	rateHandler := handler.NewRateHandler(rateSvc)
	parameterHandler := handler.NewParameterHandler(parameterSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if metricsSvc != nil {
		r.Use(middleware.Metrics(metricsSvc))
	}

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	authed := auth.Group("")
	authed.Use(middleware.JWT(authSvc))
	authed.POST("/logout", authHandler.Logout)
	authed.POST("/change-password", authHandler.ChangePassword)
	authed.GET("/me", authHandler.Me)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	admin := middleware.RequireRoles(models.RoleAdmin, models.RoleAdminTechnique)
	staff := middleware.RequireRoles(models.RoleGestionnaire, models.RoleAdmin, models.RoleAdminTechnique)
	committee := middleware.RequireRoles(models.RoleMembreCommission, models.RoleGestionnaire, models.RoleAdmin)

	users := protected.Group("/users")
	users.GET("", staff, userHandler.List)
	users.GET("/:id", middleware.RBAC("SELF", "GESTIONNAIRE", "ADMIN", "ADMIN_TECHNIQUE"), userHandler.Get)
	users.POST("", admin, userHandler.Create)
	users.PUT("/:id", admin, userHandler.Update)
	users.GET("/:id/roles", middleware.RBAC("SELF", "GESTIONNAIRE", "ADMIN"), userHandler.EffectiveRoles)
	users.PUT("/:id/roles", admin, middleware.Audit(userRepo, "ROLE_OVERRIDE", "users"), userHandler.OverrideRoles)

	campaigns := protected.Group("/campaigns")
	campaigns.GET("", campaignHandler.List)
	campaigns.GET("/:id", campaignHandler.Get)
	campaigns.POST("", staff, campaignHandler.Create)
	campaigns.PUT("/:id", staff, campaignHandler.Update)

	requests := protected.Group("/requests")
	requests.GET("", staff, requestHandler.List)
	requests.GET("/:id", requestHandler.Get)
	requests.POST("", requestHandler.Submit)
	requests.POST("/:id/transition", committee, requestHandler.Transition)

	beneficiaries := protected.Group("/beneficiaries")
	beneficiaries.GET("", staff, beneficiaryHandler.List)
	beneficiaries.GET("/window", staff, beneficiaryHandler.InWindow)
	beneficiaries.GET("/:id", beneficiaryHandler.Get)
	beneficiaries.POST("", staff, beneficiaryHandler.Create)
	beneficiaries.PUT("/:id", staff, beneficiaryHandler.Update)
	beneficiaries.PUT("/:id/grants/:grantId", staff, beneficiaryHandler.AttachGrant)
	beneficiaries.DELETE("/:id/grants/:grantId", staff, beneficiaryHandler.DetachGrant)
	beneficiaries.POST("/:id/opinions", staff, beneficiaryHandler.AddOpinion)

	accommodations := protected.Group("/accommodations")
	accommodations.GET("", accommodationHandler.List)
	accommodations.GET("/types", accommodationHandler.ListTypes)
	accommodations.GET("/:id", accommodationHandler.Get)
	accommodations.POST("", staff, accommodationHandler.Create)
	accommodations.PUT("/:id", staff, accommodationHandler.Update)
	accommodations.DELETE("/:id", staff, accommodationHandler.Delete)

	intervenants := protected.Group("/intervenants")
	intervenants.GET("", staff, intervenantHandler.List)
	intervenants.GET("/:id", intervenantHandler.Get)
	intervenants.POST("", staff, intervenantHandler.Create)
	intervenants.PUT("/:id/event-types", staff, intervenantHandler.ReplaceEventTypes)
	intervenants.POST("/:id/forfaits", staff, intervenantHandler.AddForfaitPeriod)
	intervenants.GET("/:id/forfaits/compatible/:periodId", staff, intervenantHandler.CompatibleForfaits)
	intervenants.POST("/:id/events", staff, intervenantHandler.ScheduleEvent)
	intervenants.POST("/:id/archive", staff, intervenantHandler.Archive)
	protected.GET("/event-types", intervenantHandler.ListEventTypes)

	rates := protected.Group("/rates")
	rates.GET("/:eventTypeId", staff, rateHandler.Timeline)
	rates.GET("/:eventTypeId/current", staff, rateHandler.Current)
	rates.POST("", admin, rateHandler.Create)

	parameters := protected.Group("/parameters")
	parameters.GET("", staff, parameterHandler.Keys)
	parameters.GET("/:key", staff, parameterHandler.Timeline)
	parameters.GET("/:key/current", staff, parameterHandler.Current)
	parameters.POST("", admin, parameterHandler.Create)

	if cfg.Exports.Enabled {
		exports := protected.Group("/exports")
		exports.GET("/beneficiaries", staff, exportHandler.BeneficiaryPeriods)
		exports.GET("/beneficiaries/:id/grants", staff, exportHandler.PeriodGrants)
	}

	if cfg.Metrics.Enabled {
		protected.GET("/metrics/snapshot", admin, metricsHandler.Snapshot)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sugar.Infow("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		sugar.Errorw("graceful shutdown failed", "error", err)
	}
}
