package handlers

import (
	"net/http"

	"github.com/SscSPs/artist_ledger_app/cmd/docs"
	portssvc "github.com/SscSPs/artist_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/artist_ledger_app/internal/middleware"
	"github.com/SscSPs/artist_ledger_app/internal/platform/config"
	"github.com/SscSPs/artist_ledger_app/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	posthogClient *utils.PosthogClientWrapper,
) error {
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if err := setupAPIV1Routes(r, cfg, services, posthogClient); err != nil {
		return err
	}

	setupSwaggerRoutes(r, cfg)
	return nil
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	posthogClient *utils.PosthogClientWrapper,
) error {
	handlersChain := []gin.HandlerFunc{middleware.AuthMiddleware(cfg.JWTSecret)}
	if cfg.RateLimit != "" {
		limiter, err := middleware.NewLimiter(cfg.RateLimit)
		if err != nil {
			return err
		}
		handlersChain = append(handlersChain, middleware.RateLimit(limiter))
	}
	handlersChain = append(handlersChain, middleware.PosthogMiddleware(posthogClient))

	v1 := r.Group("/api/v1", handlersChain...)

	RegisterIdentityRoutes(v1, services.AliasResolver, services.IdentityReconciler)
	RegisterBalanceRoutes(v1, services.Balance)
	RegisterPaymentRoutes(v1, services.Payment)
	RegisterFXRoutes(v1, services.PayoutFX, cfg.SettlementCurrency)
	return nil
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
