// Package mcp exposes the memory engine as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdlog "log"
	"sync"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sandevgo/ragmemory/internal/core"
	"github.com/sandevgo/ragmemory/internal/service/engine"
	"github.com/sandevgo/ragmemory/pkg/log"
)

const (
	ToolQuery  = "memory_query"
	ToolUpload = "memory_upload"
)

type Engine interface {
	Query(ctx context.Context, req engine.QueryRequest) (engine.QueryResponse, error)
	Upload(ctx context.Context, req engine.UploadRequest) (engine.UploadResponse, error)
}

type Server struct {
	mcp    *server.MCPServer
	engine Engine
	in     io.Reader
	out    io.Writer

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewServer(eng Engine, in io.Reader, out io.Writer) *Server {
	s := &Server{
		mcp: server.NewMCPServer(
			core.AppName,
			core.AppVersion,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		engine: eng,
		in:     in,
		out:    out,
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcpproto.NewTool(ToolQuery,
		mcpproto.WithDescription("Recall memories and the profile of a user relevant to the current message. "+
			"Returns JSON with augmented_context ready to be put into a system prompt."),
		mcpproto.WithString("user_id", mcpproto.Required(), mcpproto.Description("Tenant the memories belong to")),
		mcpproto.WithString("query", mcpproto.Required(), mcpproto.Description("Current user message")),
		mcpproto.WithString("time", mcpproto.Description("ISO 8601 time of the message, UTC when no offset is given")),
	), s.handleQuery)

	s.mcp.AddTool(mcpproto.NewTool(ToolUpload,
		mcpproto.WithDescription("Store a finished conversation turn or files in the user's memory."),
		mcpproto.WithString("user_id", mcpproto.Required(), mcpproto.Description("Tenant the memories belong to")),
		mcpproto.WithArray("messages",
			mcpproto.Description("Conversation messages"),
			mcpproto.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"role":    map[string]any{"type": "string"},
					"content": map[string]any{"type": "string"},
				},
			}),
		),
		mcpproto.WithArray("multifiles",
			mcpproto.Description("Base64 encoded text or HTML files"),
			mcpproto.Items(map[string]any{"type": "string"}),
		),
		mcpproto.WithString("time", mcpproto.Description("ISO 8601 time of the upload, UTC when no offset is given")),
	), s.handleUpload)
}

func (s *Server) handleQuery(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	var in engine.QueryRequest
	if err := req.BindArguments(&in); err != nil {
		return mcpproto.NewToolResultError("invalid arguments: " + err.Error()), nil
	}
	resp, err := s.engine.Query(ctx, in)
	if err != nil {
		return toolError(ctx, err), nil
	}
	return jsonResult(resp)
}

func (s *Server) handleUpload(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	var in engine.UploadRequest
	if err := req.BindArguments(&in); err != nil {
		return mcpproto.NewToolResultError("invalid arguments: " + err.Error()), nil
	}
	resp, err := s.engine.Upload(ctx, in)
	if err != nil {
		return toolError(ctx, err), nil
	}
	return jsonResult(resp)
}

func toolError(ctx context.Context, err error) *mcpproto.CallToolResult {
	log.FromCtx(ctx).Warn().Err(err).Msg("tool call failed")
	return mcpproto.NewToolResultError(core.PublicMessage(err))
}

func jsonResult(v any) (*mcpproto.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcpproto.NewToolResultText(string(data)), nil
}

// Start serves stdio until ctx is done or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	logger := log.FromCtx(ctx)
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(stdlog.New(logger, "", 0))
	stdio.SetContextFunc(func(c context.Context) context.Context {
		return logger.WithContext(c)
	})

	logger.Info().Msg("serving mcp over stdio")
	if err := stdio.Listen(ctx, s.in, s.out); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}
