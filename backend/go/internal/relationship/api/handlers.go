// Package api exposes relationship mappings over HTTP.
package api

import (
	"Recall_1.0/backend/go/internal/apperr"
	"Recall_1.0/backend/go/internal/auth"
	"Recall_1.0/backend/go/internal/memory/store"
	"Recall_1.0/backend/go/internal/relationship/service"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Handler serves the /relationship routes.
type Handler struct {
	service *service.Service
	graph   store.GraphStore
}

// NewHandler creates a Handler. graph may be nil, in which case
// /relationship/graph is not registered.
func NewHandler(s *service.Service, graph store.GraphStore) *Handler {
	return &Handler{service: s, graph: graph}
}

// RegisterRoutes mounts the handlers on r. userAuth guards the per-user graph
// route and may be nil.
func (h *Handler) RegisterRoutes(r gin.IRouter, userAuth gin.HandlerFunc) {
	rel := r.Group("/relationship")
	rel.POST("/add", h.Add)
	rel.GET("/get", h.Get)
	rel.PUT("/update", h.Update)
	rel.DELETE("/delete", h.Delete)
	rel.GET("/list", h.List)
	if h.graph != nil {
		if userAuth != nil {
			rel.GET("/graph", userAuth, h.Graph)
		} else {
			rel.GET("/graph", h.Graph)
		}
	}
}

type addRequest struct {
	Relationship string `json:"relationship"`
	Category     string `json:"category"`
}

type updateRequest struct {
	Relationship string `json:"relationship"`
	NewCategory  string `json:"new_category"`
}

type deleteRequest struct {
	Relationship string `json:"relationship"`
}

func writeError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.Message(err)})
}

// Add handles POST /relationship/add.
func (h *Handler) Add(c *gin.Context) {
	var req addRequest
	if err := c.ShouldBindJSON(&req); err != nil || blank(req.Relationship) || blank(req.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing relationship or category"})
		return
	}
	if err := h.service.Add(c.Request.Context(), req.Relationship, req.Category); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Added '%s' as '%s'", req.Relationship, req.Category)})
}

// Get handles GET /relationship/get?relationship=x.
func (h *Handler) Get(c *gin.Context) {
	rel := c.Query("relationship")
	if blank(rel) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing relationship"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"relationship": rel, "category": h.service.Get(rel)})
}

// Update handles PUT /relationship/update.
func (h *Handler) Update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil || blank(req.Relationship) || blank(req.NewCategory) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing relationship or new_category"})
		return
	}
	if err := h.service.Update(c.Request.Context(), req.Relationship, req.NewCategory); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Updated '%s' to '%s'", req.Relationship, req.NewCategory)})
}

// Delete handles DELETE /relationship/delete.
func (h *Handler) Delete(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil || blank(req.Relationship) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing relationship"})
		return
	}
	if err := h.service.Delete(c.Request.Context(), req.Relationship); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Deleted relationship '%s'", req.Relationship)})
}

// List handles GET /relationship/list.
func (h *Handler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"relationships": h.service.List()})
}

// Graph handles GET /relationship/graph, listing the caller's relation edges.
func (h *Handler) Graph(c *gin.Context) {
	owner, err := auth.Owner(c, c.Query("user"))
	if err != nil {
		writeError(c, err)
		return
	}
	if owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing user"})
		return
	}
	edges, err := h.graph.Relations(c.Request.Context(), owner)
	if err != nil {
		writeError(c, apperr.Upstream("Failed to read relation graph", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": owner, "relations": edges})
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
