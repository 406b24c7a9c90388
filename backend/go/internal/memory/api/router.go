// Package api is the HTTP surface of the memory service.
package api

import (
	"Recall_1.0/backend/go/internal/auth"
	"Recall_1.0/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RelationshipRoutes is implemented by the relationship handler.
type RelationshipRoutes interface {
	RegisterRoutes(r gin.IRouter, userAuth gin.HandlerFunc)
}

// RouterOptions selects the optional parts of the router.
type RouterOptions struct {
	// Tokens enables bearer authentication on per-user routes when set.
	Tokens *auth.Tokens
	// AllowTokenIssue mounts POST /auth/token. Requires Tokens.
	AllowTokenIssue bool
	Relationships   RelationshipRoutes
	// Health adds per-backend status to /healthz when set.
	Health HealthReporter
	Logger *logger.Logger
}

// NewRouter builds the gin engine with recovery, request logging and every route.
func NewRouter(a *API, opts RouterOptions) *gin.Engine {
	l := opts.Logger
	if l == nil {
		l = logger.Discard()
	}

	r := gin.New()
	r.Use(RequestLogger(l), Recovery(l))

	r.GET("/healthz", Health(opts.Health))

	var userAuth gin.HandlerFunc
	if opts.Tokens != nil {
		userAuth = auth.RequireUser(opts.Tokens)
		if opts.AllowTokenIssue {
			r.POST("/auth/token", auth.IssueHandler(opts.Tokens))
		}
	}

	user := r.Group("/")
	if userAuth != nil {
		user.Use(userAuth)
	}
	{
		user.POST("/chat", a.Chat)
		user.GET("/chat/history", a.History)
		if a.memory.ExportEnabled() {
			user.POST("/memory/export", a.Export)
		}
	}

	if opts.Relationships != nil {
		opts.Relationships.RegisterRoutes(r, userAuth)
	}
	return r
}
