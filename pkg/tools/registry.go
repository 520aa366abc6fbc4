// Package tools exposes the footprint calculations as MCP tools.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/NERVsystems/greenlens/pkg/engine"
	"github.com/NERVsystems/greenlens/pkg/tracing"
)

// HandlerFunc is the MCP tool handler signature.
type HandlerFunc func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Registry contains all tool definitions and handlers
type Registry struct {
	logger *slog.Logger
	engine *engine.Engine
}

// NewRegistry creates a new tool registry backed by eng
func NewRegistry(eng *engine.Engine, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger, engine: eng}
}

// ToolDefinition represents a GreenLens MCP tool definition.
type ToolDefinition struct {
	Name    string
	Tool    mcp.Tool
	Handler HandlerFunc
}

// GetToolDefinitions returns the list of all available tools.
func (r *Registry) GetToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:    ToolCalculateElectricity,
			Tool:    CalculateElectricityTool(),
			Handler: r.HandleCalculateElectricity,
		},
		{
			Name:    ToolCalculateTravel,
			Tool:    CalculateTravelTool(),
			Handler: r.HandleCalculateTravel,
		},
		{
			Name:    ToolListEmissionFactors,
			Tool:    ListEmissionFactorsTool(),
			Handler: HandleListEmissionFactors,
		},
	}
}

// RegisterTools registers all tools with the MCP server.
func (r *Registry) RegisterTools(mcpServer *server.MCPServer) {
	for _, def := range r.GetToolDefinitions() {
		r.logger.Info("registering tool", "name", def.Name)
		mcpServer.AddTool(def.Tool, r.wrapWithTracing(def.Name, def.Handler))
	}
}

// wrapWithTracing wraps a tool handler with OpenTelemetry tracing
func (r *Registry) wrapWithTracing(toolName string, handler HandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("mcp.tool.%s", toolName),
			trace.WithAttributes(attribute.String(tracing.AttrMCPToolName, toolName)),
		)
		defer span.End()

		start := time.Now()
		result, err := handler(ctx, req)
		durationMs := time.Since(start).Milliseconds()

		status := tracing.StatusSuccess
		switch {
		case err != nil:
			status = tracing.StatusError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case result != nil && result.IsError:
			status = tracing.StatusError
			span.SetStatus(codes.Error, "tool returned an error result")
		default:
			span.SetStatus(codes.Ok, "")
		}

		span.SetAttributes(
			attribute.String(tracing.AttrMCPToolStatus, status),
			attribute.Int64(tracing.AttrMCPToolDuration, durationMs),
		)

		r.logger.Debug("tool execution traced",
			"tool", toolName,
			"duration_ms", durationMs,
			"status", status)

		return result, err
	}
}

// GetToolNames returns a list of all tool names.
func (r *Registry) GetToolNames() []string {
	defs := r.GetToolDefinitions()
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}
	return names
}

// argumentsJSON re-encodes tool arguments so they go through the same strict
// decoding as HTTP request bodies.
func argumentsJSON(req mcp.CallToolRequest) ([]byte, error) {
	args := req.GetArguments()
	if args == nil {
		args = map[string]any{}
	}
	return json.Marshal(args)
}
