package handlers

import (
	"net/http"

	"github.com/a2developers/website/backend/go-services/pkg/logger"
	"github.com/a2developers/website/backend/go-services/pkg/metrics"
	"github.com/a2developers/website/backend/go-services/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// RouterOptions collects the collaborators the HTTP surface is built from.
// Nil BookLimiter, AdminVerifier or Metrics switch the feature off.
type RouterOptions struct {
	Demos          DemoService
	Status         StatusSource
	Environment    string
	AllowedOrigins []string
	MaxBodyBytes   int64
	BookLimiter    gin.HandlerFunc
	AdminVerifier  middleware.Verifier
	Metrics        http.Handler
}

func NewRouter(opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.ErrorContext(c.Request.Context(), "panic recovered", "panic", recovered, "request_id", c.GetString(middleware.CtxRequestID))
		respondError(c, http.StatusInternalServerError, msgInternalServer)
	}))
	r.Use(
		middleware.RequestID(),
		middleware.Tracing(),
		middleware.RequestLogger(),
		metrics.GinMiddleware(),
		middleware.SecurityHeaders(),
		middleware.CORS(opts.AllowedOrigins),
	)

	health := NewHealthHandler(opts.Status, opts.Environment)
	r.GET("/", health.Root)

	api := r.Group("/api")
	api.GET("/health", health.Health)
	api.GET("/ready", health.Ready)

	demos := NewDemoHandler(opts.Demos)
	// limiter first: 415/413/400 responses spend budget too
	var book []gin.HandlerFunc
	if opts.BookLimiter != nil {
		book = append(book, opts.BookLimiter)
	}
	book = append(book, middleware.RequireJSON(), middleware.MaxBodyBytes(opts.MaxBodyBytes), demos.Book)
	api.POST("/book-demo", book...)

	if opts.AdminVerifier != nil {
		api.GET("/demos", middleware.AuthMiddleware(opts.AdminVerifier), demos.List)
	} else {
		logger.Warnf("admin auth not configured: GET /api/demos is open")
		api.GET("/demos", demos.List)
	}

	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	RegisterSwagger(r)

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, msgNotFound)
	})
	return r
}
