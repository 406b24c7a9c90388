package api

import (
	"Recall_1.0/backend/go/internal/apperr"
	"Recall_1.0/backend/go/internal/auth"
	"Recall_1.0/backend/go/internal/memory/service"
	"Recall_1.0/backend/go/internal/models"
	"Recall_1.0/backend/go/pkg/logger"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// API serves the chat and memory routes.
type API struct {
	memory *service.MemoryService
	logger *logger.Logger
}

// NewAPI creates an API.
func NewAPI(memory *service.MemoryService, l *logger.Logger) *API {
	if l == nil {
		l = logger.Discard()
	}
	return &API{memory: memory, logger: l}
}

type chatRequest struct {
	Message string `json:"message"`
	User    string `json:"user"`
}

type chatResponse struct {
	Response string   `json:"response"`
	Score    *float32 `json:"score,omitempty"`
}

type exportRequest struct {
	User string `json:"user"`
}

func (a *API) fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	body := gin.H{"error": apperr.Message(err)}
	if d := apperr.Details(err); d != "" {
		body["details"] = d
	}
	if status >= http.StatusInternalServerError {
		traceID, _ := c.Get(traceKey)
		a.logger.WithField("trace_id", traceID).
			WithError(models.ErrorInfo{Message: err.Error(), Type: string(apperr.KindOf(err)), StatusCode: status}).
			Error("request failed")
	}
	c.JSON(status, body)
}

// Chat handles POST /chat.
func (a *API) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.fail(c, apperr.Validation("Missing message or user"))
		return
	}
	owner, err := auth.Owner(c, req.User)
	if err != nil {
		a.fail(c, err)
		return
	}
	reply, err := a.memory.Handle(c.Request.Context(), owner, req.Message)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chatResponse{Response: reply.Response, Score: reply.Score})
}

// History handles GET /chat/history?limit=N.
func (a *API) History(c *gin.Context) {
	owner, err := auth.Owner(c, c.Query("user"))
	if err != nil {
		a.fail(c, err)
		return
	}
	if owner == "" {
		a.fail(c, apperr.Validation("Missing user"))
		return
	}
	limit := 0
	if s := c.Query("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil {
			a.fail(c, apperr.Validation("limit must be an integer"))
			return
		}
	}
	turns, err := a.memory.History(c.Request.Context(), owner, limit)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": owner, "turns": turns})
}

// Export handles POST /memory/export.
func (a *API) Export(c *gin.Context) {
	var req exportRequest
	// An empty body is allowed when the owner comes from the token.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		a.fail(c, apperr.Validation("Invalid request body"))
		return
	}
	owner, err := auth.Owner(c, req.User)
	if err != nil {
		a.fail(c, err)
		return
	}
	if owner == "" {
		a.fail(c, apperr.Validation("Missing user"))
		return
	}
	res, err := a.memory.Export(c.Request.Context(), owner)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// HealthReporter reports each backend as "ok" or with its error text.
type HealthReporter func(ctx context.Context) map[string]string

// Health handles GET /healthz. Any failing backend turns the answer into a 503.
func Health(report HealthReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if report == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		backends := report(c.Request.Context())
		status, code := "ok", http.StatusOK
		for _, s := range backends {
			if s != "ok" {
				status, code = "degraded", http.StatusServiceUnavailable
				break
			}
		}
		c.JSON(code, gin.H{"status": status, "backends": backends})
	}
}
