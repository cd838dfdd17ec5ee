package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"pousada/internal/infra/config"
	"pousada/internal/infra/obs"
)

type AuthHTTP interface {
	Login(c *gin.Context)
	Logout(c *gin.Context)
	Session(c *gin.Context)
	SwitchTenant(c *gin.Context)
}

type ReservationHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Preview(c *gin.Context)
	CheckIn(c *gin.Context)
	CheckOut(c *gin.Context)
	Cancel(c *gin.Context)
	ExtendStay(c *gin.Context)
	ChangeAccommodation(c *gin.Context)
}

type FolioHTTP interface {
	AddCharge(c *gin.Context)
	AddPayment(c *gin.Context)
	Statement(c *gin.Context)
}

type AccommodationHTTP interface {
	Options(c *gin.Context)
}

type Handlers struct {
	Auth           AuthHTTP
	Reservation    ReservationHTTP
	Folio          FolioHTTP
	Accommodation  AccommodationHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/session", h.Auth.Session)
		api.PUT("/auth/tenant", h.Auth.SwitchTenant)
	}
	if h.Accommodation != nil {
		api.GET("/accommodations/options", h.Accommodation.Options)
	}
	if h.Reservation != nil {
		group := api.Group("/reservations")
		group.POST("", h.Reservation.Create)
		group.POST("/preview", h.Reservation.Preview)
		group.GET("/:id", h.Reservation.Get)
		group.POST("/:id/check-in", h.Reservation.CheckIn)
		group.POST("/:id/check-out", h.Reservation.CheckOut)
		group.POST("/:id/cancel", h.Reservation.Cancel)
		group.PATCH("/:id/dates", h.Reservation.ExtendStay)
		group.PATCH("/:id/accommodation", h.Reservation.ChangeAccommodation)
	}
	if h.Folio != nil {
		group := api.Group("/reservations/:id")
		group.POST("/charges", h.Folio.AddCharge)
		group.POST("/payments", h.Folio.AddPayment)
		group.POST("/statement", h.Folio.Statement)
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", tenantHeader},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug", "dev", "local":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
