package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/citydesk/api/handler"
)

type Handlers struct {
	Auth     *apiHandler.AuthHandler
	Requests *apiHandler.RequestHandler
	Health   *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/session", handlers.Auth.CreateSession)
	r.POST("/api/v1/auth/refresh", authMiddleware(handlers.Auth.Refresh))
	r.DELETE("/api/v1/auth/session", authMiddleware(handlers.Auth.Revoke))

	r.GET("/api/v1/categories", handlers.Requests.Categories)

	// Protected routes
	v1 := r.Group("/api/v1")
	v1.GET("/requests", authMiddleware(handlers.Requests.List))
	v1.POST("/requests", authMiddleware(handlers.Requests.Create))
	v1.GET("/requests/grouped", authMiddleware(handlers.Requests.Grouped))
	v1.GET("/requests/summary", authMiddleware(handlers.Requests.Summary))
	v1.GET("/requests/{id}", authMiddleware(handlers.Requests.Get))
	v1.GET("/requests/{id}/events", authMiddleware(handlers.Requests.Events))
	v1.POST("/requests/{id}/messages", authMiddleware(handlers.Requests.SendMessage))
	v1.POST("/requests/{id}/close", authMiddleware(handlers.Requests.Close))
	v1.POST("/requests/{id}/read", authMiddleware(handlers.Requests.MarkRead))

	v1.GET("/unread", authMiddleware(handlers.Requests.Unread))
	v1.GET("/focus", authMiddleware(handlers.Requests.Focus))
	v1.PUT("/focus", authMiddleware(handlers.Requests.SetFocus))

	return r
}
