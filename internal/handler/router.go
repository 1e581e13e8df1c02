package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/daily-ledger/internal/events"
	"github.com/daily-ledger/internal/middleware"
	"github.com/daily-ledger/internal/service"
	"github.com/daily-ledger/pkg/validation"
	"github.com/gin-gonic/gin"
)

// BuildInfo is reported by the health endpoint
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// Services bundles everything the HTTP layer calls into
type Services struct {
	Auth   *service.AuthService
	Users  *service.UserService
	Ledger *service.LedgerService
	Audit  *service.AuditService
	Bus    events.AuditBus
	// Ping checks the backing store for the health endpoint; optional
	Ping func(ctx context.Context) error
}

// NewRouter builds the gin engine with all API routes
func NewRouter(svc Services, build BuildInfo) *gin.Engine {
	validation.UseJSONNames()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLoggerMiddleware())
	router.Use(middleware.CORSMiddleware())

	router.GET("/health", func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		if svc.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := svc.Ping(ctx); err != nil {
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{
			"status":     status,
			"version":    build.Version,
			"commit":     build.Commit,
			"build_time": build.BuildTime,
			"time":       time.Now().Unix(),
		})
	})

	authMiddleware := middleware.AuthMiddleware(svc.Auth)

	v1 := router.Group("/api/v1")
	{
		NewAuthHandler(svc.Auth).RegisterRoutes(v1)
		NewAdminHandler(svc.Users, svc.Ledger, svc.Audit).RegisterRoutes(v1, authMiddleware)
		NewDailyHandler(svc.Ledger).RegisterRoutes(v1, authMiddleware)
		if svc.Bus != nil {
			NewAuditStreamHandler(svc.Bus).RegisterRoutes(v1, authMiddleware)
		}
	}

	return router
}
