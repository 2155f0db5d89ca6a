package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/pledgetrack/backend/internal/auth"
	"github.com/pledgetrack/backend/internal/config"
	"github.com/pledgetrack/backend/internal/db"
	"github.com/pledgetrack/backend/internal/geocode"
	"github.com/pledgetrack/backend/internal/http/handlers"
	"github.com/pledgetrack/backend/internal/http/middleware"
	"github.com/pledgetrack/backend/internal/interest"
	"github.com/pledgetrack/backend/internal/metrics"
	"github.com/pledgetrack/backend/internal/photo"
	"github.com/pledgetrack/backend/internal/service"

	_ "github.com/pledgetrack/backend/docs"
)

func Router(cfg config.Config, store *db.Store, uploader photo.Uploader, geocoder geocode.Geocoder, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(metrics.Middleware())
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, time.Duration(cfg.JWTExpiryHours)*time.Hour)
	responses := &service.ResponseService{
		Store:   store,
		Logger:  logger,
		Timeout: cfg.RequestTimeout,
	}

	h := &handlers.Handler{
		Store:          store,
		Responses:      responses,
		Photos:         uploader,
		Geocoder:       geocoder,
		JWT:            jwtManager,
		Validator:      validator.New(),
		Logger:         logger,
		Policy:         interest.ParsePolicy(cfg.MinDaysPolicy, cfg.MinDaysDefault),
		Env:            cfg.Env,
		MaxUploadMB:    cfg.MaxUploadSizeMB,
		GeocodeCountry: cfg.GeocodeCountry,
	}

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/login", h.Login)

	authed := api.Group("")
	authed.Use(middleware.Auth(jwtManager))
	{
		authed.GET("/customers", h.CustomersList)
		authed.GET("/customers/:id/loans", h.CustomerLoans)
		authed.POST("/customers/:id/responses", h.SaveResponse)
		authed.POST("/loans/:pt_no/responses", h.SaveLoanResponse)
		authed.GET("/responses", h.ResponsesHistory)
		authed.POST("/uploads", h.Upload)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/regeocode", h.RegeocodeCustomers)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
