// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	"github.com/clearwater-medical/outreach-portal/app/handlers"
	"github.com/clearwater-medical/outreach-portal/app/middleware"
	"github.com/clearwater-medical/outreach-portal/config"
	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/clearwater-medical/outreach-portal/utils"
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
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// Handlers bundles the portal's HTTP handlers for route registration
type Handlers struct {
	Auth     handlers.AuthHandlerInterface
	Patient  handlers.PatientHandlerInterface
	Outreach handlers.OutreachHandlerInterface
	Broker   handlers.BrokerHandlerInterface
	Message  handlers.MessageHandlerInterface
	Project  handlers.ProjectHandlerInterface
	Report   handlers.ReportHandlerInterface
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app      *fiber.App
	handlers Handlers
	auth     *middleware.AuthMiddleware
	origins  []string
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(h Handlers, auth *middleware.AuthMiddleware, server config.ServerConfig, security config.SecurityConfig) Router {
	app := fiber.New(fiber.Config{
		AppName:      "Outreach Portal API",
		ServerHeader: "outreach-portal",
		ErrorHandler: errorHandler,
		BodyLimit:    server.BodyLimit, // CSV imports
		ReadTimeout:  server.ReadTimeout,
		WriteTimeout: server.WriteTimeout,
		IdleTimeout:  server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:      app,
		handlers: h,
		auth:     auth,
		origins:  security.AllowedOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	r.setupMiddleware()

	// Operational endpoints outside the API group
	r.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting)
	api.Get("/health", r.healthCheck)

	// General rate limiting for all API routes
	api.Use(limiter.New(limiter.Config{
		Max:        2000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: rateLimitReached,
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health"
		},
	}))

	// Auth routes with stricter rate limiting
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: rateLimitReached,
	}))

	auth.Post("/login", r.handlers.Auth.Login)
	auth.Post("/refresh", r.handlers.Auth.RefreshToken)
	auth.Post("/logout", r.auth.Authenticate(), r.handlers.Auth.Logout)

	authenticated := api.Group("", r.auth.Authenticate())

	// Projects
	projects := authenticated.Group("/projects")
	projects.Get("/", r.handlers.Project.ListProjects)
	projects.Post("/", r.handlers.Project.CreateProject, r.auth.RequireRole(models.RoleAdmin))
	projects.Post("/assign", r.handlers.Project.AssignUser, r.auth.RequireRole(models.RoleAdmin))
	projects.Put("/status", r.handlers.Project.UpdateProjectStatus, r.auth.RequireRole(models.RoleAdmin))

	// Patient queue
	patients := authenticated.Group("/patients")
	patients.Get("/", r.handlers.Patient.ListPatients)
	patients.Post("/import", r.handlers.Patient.ImportPatients, r.auth.RequireRole(models.RoleAdmin))
	patients.Get("/:uuid", r.handlers.Patient.GetPatient)

	// Call workflow
	outreach := authenticated.Group("/outreach", r.auth.RequireRole(models.RoleAdmin, models.RoleStaff))
	outreach.Post("/calls", r.handlers.Outreach.RecordCallAttempt)
	outreach.Get("/calls/:uuid", r.handlers.Outreach.ListCallHistory)
	outreach.Post("/reopen", r.handlers.Outreach.ReopenPatient)
	outreach.Post("/forward", r.handlers.Outreach.ForwardToBroker)

	// Broker updates. Reads are open to all roles; the write path enforces
	// broker ownership inside the flow.
	broker := authenticated.Group("/broker")
	broker.Post("/updates", r.handlers.Broker.RecordBrokerUpdate, r.auth.RequireRole(models.RoleBroker))
	broker.Get("/updates/:uuid", r.handlers.Broker.ListBrokerUpdates)

	// Patient threads
	messages := authenticated.Group("/messages")
	messages.Post("/", r.handlers.Message.PostMessage)
	messages.Post("/read", r.handlers.Message.MarkMessageRead)
	messages.Get("/:uuid", r.handlers.Message.ListMessages)

	// Reports
	reports := authenticated.Group("/reports")
	reports.Get("/:uuid/summary", r.handlers.Report.ProjectSummary)
	reports.Get("/:uuid/activity", r.handlers.Report.StaffActivity)
	reports.Get("/:uuid/volume", r.handlers.Report.DailyCallVolume)
	reports.Get("/:uuid/export", r.handlers.Report.ExportReport, r.auth.RequireRole(models.RoleAdmin))

	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// Security headers middleware
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'; frame-ancestors 'none';",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	r.app.Use(cors.New(cors.Config{
		AllowOrigins: r.origins,
		AllowMethods: []string{
			"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Requested-With",
			"X-Request-ID",
			"Cache-Control",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
		},
		AllowCredentials: true,
		MaxAge:           utils.CORSMaxAge,
	}))

	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			// XLSX downloads are already compressed
			return strings.Contains(c.Path(), "/export")
		},
	}))

	// Structured request logging
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent}}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health" || c.Path() == "/metrics"
		},
	}))

	r.app.Use(middleware.Metrics())

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// Health check endpoint
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"version":   "1.0.0",
			"service":   "outreach-portal-api",
		},
	})
}

// Not found handler
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	requestID := c.Locals("requestid")

	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestID,
			},
		},
	})
}

func rateLimitReached(c fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
		Success: false,
		Message: "Too many requests. Please try again later.",
		Error: dto.ErrorDetail{
			Code: "RATE_LIMIT_EXCEEDED",
		},
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Printf("Error %d: %v", code, err)

	requestID := c.Locals("requestid")

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestID,
			},
		},
	})
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
