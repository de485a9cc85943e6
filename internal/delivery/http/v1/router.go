package v1

import (
	"net/http"

	"portfolio-backend/config"
	"portfolio-backend/internal/delivery/http/middleware"
	"portfolio-backend/internal/domain"
	"portfolio-backend/pkg/apperror"
	"portfolio-backend/pkg/logger"
	"portfolio-backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const apiName = "Portfolio Contact API"

type RouterDeps struct {
	ContactUC domain.ContactUsecase
	HealthUC  domain.HealthUsecase
	Security  *security.SecurityLogger
	Config    *config.Config
}

// APIIndex is the body of GET /api.
type APIIndex struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	r := gin.New()
	r.HandleMethodNotAllowed = true
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Log.Warn("invalid trusted proxies, trusting none", "error", err)
		_ = r.SetTrustedProxies(nil)
	}

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins, cfg.IsProduction())) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeadersMiddleware(cfg.IsProduction()))
	r.Use(middleware.Throttle(cfg.ThrottleRPS, cfg.ThrottleBurst))
	r.Use(middleware.ErrorHandler())

	index := func(c *gin.Context) {
		c.JSON(http.StatusOK, APIIndex{
			Name:    apiName,
			Version: cfg.APIVersion,
			Endpoints: map[string]string{
				"GET /api/health":   "Health check",
				"POST /api/contact": "Submit contact form",
			},
		})
	}
	r.GET("/", index)

	api := r.Group("/api")
	api.GET("", index)

	NewHealthHandler(api, deps.HealthUC)
	NewContactHandler(api, deps.ContactUC, deps.Security)

	// Swagger
	api.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Rendered by ErrorHandler, which gin also runs for these
	r.NoRoute(func(c *gin.Context) {
		c.Error(apperror.NotFound("Endpoint not found"))
	})
	r.NoMethod(func(c *gin.Context) {
		c.Error(apperror.MethodNotAllowed("Method not allowed"))
	})

	return r
}
