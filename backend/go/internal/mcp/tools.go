// Package mcp exposes the memory assistant as MCP tools.
package mcp

import (
	"Recall_1.0/backend/go/internal/apperr"
	"Recall_1.0/backend/go/internal/memory/service"
	"Recall_1.0/backend/go/internal/memory/transcript"
	relservice "Recall_1.0/backend/go/internal/relationship/service"
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool names.
const (
	ToolChat            = "memory_chat"
	ToolHistory         = "memory_history"
	ToolRelationshipGet = "relationship_get"
)

// Handler answers tool calls against the memory and relationship services.
type Handler struct {
	memory        *service.MemoryService
	relationships *relservice.Service
}

func NewHandler(memory *service.MemoryService, relationships *relservice.Service) *Handler {
	return &Handler{memory: memory, relationships: relationships}
}

// Register adds every tool to s.
func (h *Handler) Register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool(ToolChat,
		mcp.WithDescription("Sends one message to the memory assistant. Use '@store <key> is <value>' to save, '@update' and '@delete' to change facts, or ask a question to recall them."),
		mcp.WithString("user", mcp.Required(), mcp.Description("Owner of the memories.")),
		mcp.WithString("message", mcp.Required(), mcp.Description("The chat message.")),
	), h.HandleChat)

	s.AddTool(mcp.NewTool(ToolHistory,
		mcp.WithDescription("Returns the most recent chat turns of a user, newest first."),
		mcp.WithString("user", mcp.Required(), mcp.Description("Owner of the transcript.")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of turns, 20 by default.")),
	), h.HandleHistory)

	s.AddTool(mcp.NewTool(ToolRelationshipGet,
		mcp.WithDescription("Returns the category of a relationship word, or 'unknown'."),
		mcp.WithString("relationship", mcp.Required(), mcp.Description("Relationship word, e.g. 'sister'.")),
	), h.HandleRelationshipGet)
}

func (h *Handler) HandleChat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, err := req.RequireString("user")
	if err != nil {
		return nil, err
	}
	message, err := req.RequireString("message")
	if err != nil {
		return nil, err
	}

	reply, err := h.memory.Handle(ctx, user, message)
	if err != nil {
		return toolError(err), nil
	}
	text := reply.Response
	if reply.Score != nil {
		text = fmt.Sprintf("%s (score %.2f)", text, *reply.Score)
	}
	return mcp.NewToolResultText(text), nil
}

func (h *Handler) HandleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, err := req.RequireString("user")
	if err != nil {
		return nil, err
	}
	limit := transcript.ClampLimit(req.GetInt("limit", transcript.DefaultLimit))

	turns, err := h.memory.History(ctx, user, limit)
	if err != nil {
		return toolError(err), nil
	}
	if len(turns) == 0 {
		return mcp.NewToolResultText("No conversation history."), nil
	}
	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "[%s] %s\n-> %s\n", t.At.Format("2006-01-02 15:04:05"), t.Message, t.Response)
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func (h *Handler) HandleRelationshipGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rel, err := req.RequireString("relationship")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(h.relationships.Get(rel)), nil
}

func toolError(err error) *mcp.CallToolResult {
	msg := apperr.Message(err)
	if d := apperr.Details(err); d != "" {
		msg += ": " + d
	}
	return mcp.NewToolResultError(msg)
}
