// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"strings"
	"time"

	"github.com/amirphl/vitrine/app/dto"
	"github.com/amirphl/vitrine/app/handlers"
	"github.com/amirphl/vitrine/app/middleware"
	businessflow "github.com/amirphl/vitrine/business_flow"
	"github.com/amirphl/vitrine/config"
	_ "github.com/amirphl/vitrine/docs"
	"github.com/amirphl/vitrine/utils"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app                     *fiber.App
	cfg                     *config.ProductionConfig
	contactHandler          handlers.ContactHandlerInterface
	trackingHandler         handlers.TrackingHandlerInterface
	dashboardContactHandler handlers.DashboardContactHandlerInterface
	dashboardStatsHandler   handlers.DashboardStatsHandlerInterface
	formSettingsHandler     handlers.FormSettingsHandlerInterface
	staffAuthHandler        handlers.StaffAuthHandlerInterface
	authMiddleware          *middleware.AuthMiddleware
	visitTracker            businessflow.VisitTracker
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	cfg *config.ProductionConfig,
	contactHandler handlers.ContactHandlerInterface,
	trackingHandler handlers.TrackingHandlerInterface,
	dashboardContactHandler handlers.DashboardContactHandlerInterface,
	dashboardStatsHandler handlers.DashboardStatsHandlerInterface,
	formSettingsHandler handlers.FormSettingsHandlerInterface,
	staffAuthHandler handlers.StaffAuthHandlerInterface,
	authMiddleware *middleware.AuthMiddleware,
	visitTracker businessflow.VisitTracker,
) Router {
	fiberCfg := fiber.Config{
		AppName:      "Vitrine API",
		ServerHeader: "Vitrine",
		ErrorHandler: errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	}
	if cfg.Server.ProxyHeader != "" && len(cfg.Server.TrustedProxies) > 0 {
		fiberCfg.ProxyHeader = cfg.Server.ProxyHeader
		fiberCfg.TrustProxy = true
		fiberCfg.TrustProxyConfig = fiber.TrustProxyConfig{Proxies: cfg.Server.TrustedProxies}
	}

	return &FiberRouter{
		app:                     fiber.New(fiberCfg),
		cfg:                     cfg,
		contactHandler:          contactHandler,
		trackingHandler:         trackingHandler,
		dashboardContactHandler: dashboardContactHandler,
		dashboardStatsHandler:   dashboardStatsHandler,
		formSettingsHandler:     formSettingsHandler,
		staffAuthHandler:        staffAuthHandler,
		authMiddleware:          authMiddleware,
		visitTracker:            visitTracker,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	r.setupMiddleware()

	// Health and metrics sit outside rate limiting
	r.app.Get("/health", r.healthCheck)
	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	// Public site pages, tracked before the handler runs
	contactLimiter := r.rateLimiter(r.cfg.Security.ContactRateLimit)
	track := middleware.TrackVisits(r.visitTracker, r.cfg.Tracking.SessionCookie)
	r.app.Get("/", track, r.trackingHandler.Landing)
	r.app.Post("/", track, contactLimiter, r.contactHandler.Submit)
	r.app.Get("/portfolio/:id", track, r.trackingHandler.Portfolio)

	api := r.app.Group("/api/v1")
	api.Use(r.rateLimiter(r.cfg.Security.GlobalRateLimit))

	api.Get("/health", r.healthCheck)
	if r.cfg.Deployment.Environment == "development" || r.cfg.Deployment.Environment == "local" {
		api.Get("/swagger.json", r.serveSwaggerJSON)
		log.Println("API documentation enabled for development")
	}

	api.Post("/track", r.trackingHandler.Track)
	api.Post("/contact", contactLimiter, r.contactHandler.Submit)
	api.Get("/stats", r.trackingHandler.PublicStats)

	dashboard := api.Group("/dashboard")

	// Auth routes with stricter rate limiting
	auth := dashboard.Group("/auth")
	auth.Use(r.rateLimiter(r.cfg.Security.AuthRateLimit))
	auth.Get("/captcha/init", r.staffAuthHandler.InitCaptcha)
	auth.Post("/login", r.staffAuthHandler.Login)
	auth.Post("/refresh", r.staffAuthHandler.Refresh)
	auth.Post("/logout", r.authMiddleware.StaffAuthenticate(), r.staffAuthHandler.Logout)

	protected := dashboard.Group("", r.authMiddleware.StaffAuthenticate())
	protected.Get("/home", r.dashboardStatsHandler.Home)
	protected.Get("/analytics", r.dashboardStatsHandler.Analytics)

	protected.Get("/contacts", r.dashboardContactHandler.List)
	protected.Get("/contacts/:id", r.dashboardContactHandler.Detail)
	protected.Put("/contacts/:id/notes", r.dashboardContactHandler.UpdateNotes)
	protected.Get("/contacts/:id/attachment", r.dashboardContactHandler.DownloadAttachment)
	protected.Get("/export/contacts/:format", r.dashboardContactHandler.Export)

	protected.Get("/settings", r.formSettingsHandler.Get)
	protected.Put("/settings", r.formSettingsHandler.Update)

	protected.Post("/stats/daily-summary/recompute", r.dashboardStatsHandler.RecomputeDailySummary)
	protected.Get("/stats/daily-summaries", r.dashboardStatsHandler.ListDailySummaries)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

func (r *FiberRouter) rateLimiter(max int) fiber.Handler {
	window := r.cfg.Security.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c fiber.Ctx) string {
			return middleware.ClientIP(c)
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
		Next: func(c fiber.Ctx) bool {
			return max <= 0
		},
	})
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header:    "X-Request-ID",
		Generator: generateRequestID,
	}))

	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				requestid.FromContext(c),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))

	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             r.cfg.Security.XFrameOptions,
		HSTSMaxAge:                31536000,
		ContentSecurityPolicy:     r.cfg.Security.CSPPolicy,
		ReferrerPolicy:            r.cfg.Security.ReferrerPolicy,
		CrossOriginResourcePolicy: "cross-origin",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	maxAge := r.cfg.Security.CORSMaxAge
	if maxAge <= 0 {
		maxAge = utils.CORSMaxAge
	}
	r.app.Use(cors.New(cors.Config{
		AllowOrigins:     r.cfg.Security.AllowedOrigins,
		AllowMethods:     r.cfg.Security.AllowedMethods,
		AllowHeaders:     r.cfg.Security.AllowedHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: r.cfg.Security.AllowCredentials,
		MaxAge:           maxAge,
	}))

	if r.cfg.Server.EnableCompression {
		r.app.Use(compress.New(compress.Config{
			Level: compress.LevelBestSpeed,
			Next: func(c fiber.Ctx) bool {
				return strings.HasPrefix(c.Path(), "/api/v1/dashboard/contacts/") && strings.HasSuffix(c.Path(), "/attachment")
			},
		}))
	}

	if r.cfg.Logging.EnableAccessLog {
		r.app.Use(logger.New(logger.Config{
			Format:     `{"time":"${time}","pid":"${pid}","request_id":"${respHeader:X-Request-ID}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
			TimeFormat: time.RFC3339,
			TimeZone:   "UTC",
			Next: func(c fiber.Ctx) bool {
				return c.Path() == "/health" || c.Path() == r.cfg.Metrics.Path
			},
		}))
	}

	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics("/health", "/api/v1/health", r.cfg.Metrics.Path))
	}
}

func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"version":   r.cfg.Deployment.Version,
			"service":   "vitrine-api",
		},
	})
}

func (r *FiberRouter) serveSwaggerJSON(c fiber.Ctx) error {
	doc, err := swag.ReadDoc()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Failed to load Swagger documentation",
			Error: dto.ErrorDetail{
				Code: "SWAGGER_LOAD_ERROR",
			},
		})
	}

	c.Set("Content-Type", "application/json")
	return c.SendString(doc)
}

func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestid.FromContext(c),
			},
		},
	})
}

func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Printf("Error %d: %v", code, err)

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestid.FromContext(c),
			},
		},
	})
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
