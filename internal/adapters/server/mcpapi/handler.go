// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/hylla/famboard/internal/adapters/server/common"
	"github.com/hylla/famboard/internal/state"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing the store as tools.
func NewHandler(cfg Config, store common.StoreService) (*Handler, error) {
	if store == nil {
		return nil, fmt.Errorf("store service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerStateTool(mcpSrv, store)
	registerDispatchTool(mcpSrv, store)
	registerIntentsTool(mcpSrv, store)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "famboard"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerStateTool registers the `famboard.state` tool.
func registerStateTool(srv *mcpserver.MCPServer, store common.StoreService) {
	srv.AddTool(
		mcp.NewTool(
			"famboard.state",
			mcp.WithDescription("Return the current family board state, or one top-level slice of it."),
			mcp.WithString("slice", mcp.Description("Optional state slice"), mcp.Enum(common.StateSlices()...)),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var payload any
			var err error
			if slice := strings.TrimSpace(req.GetString("slice", "")); slice != "" {
				payload, err = store.CaptureSlice(ctx, slice)
			} else {
				payload, err = store.CaptureState(ctx)
			}
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(payload)
			if err != nil {
				return nil, fmt.Errorf("encode state result: %w", err)
			}
			return result, nil
		},
	)
}

// registerDispatchTool registers the `famboard.dispatch` tool.
func registerDispatchTool(srv *mcpserver.MCPServer, store common.StoreService) {
	srv.AddTool(
		mcp.NewTool(
			"famboard.dispatch",
			mcp.WithDescription("Dispatch one intent by type name; famboard.intents lists the accepted types."),
			mcp.WithString("type", mcp.Required(), mcp.Description("Intent type, for example shopping.add_item")),
			mcp.WithObject("payload", mcp.Description("Intent payload object")),
			mcp.WithBoolean("settle", mcp.Description("Wait for follow-up results before returning state")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args struct {
				Type    string          `json:"type"`
				Payload json.RawMessage `json:"payload"`
				Settle  bool            `json:"settle"`
			}
			if err := req.BindArguments(&args); err != nil {
				return mcp.NewToolResultError("invalid_request: " + err.Error()), nil
			}
			if strings.TrimSpace(args.Type) == "" {
				return mcp.NewToolResultError(`invalid_request: required argument "type" not found`), nil
			}
			out, err := store.Dispatch(ctx, common.DispatchRequest{
				Envelope: state.Envelope{Type: args.Type, Payload: args.Payload},
				Settle:   args.Settle,
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(out)
			if err != nil {
				return nil, fmt.Errorf("encode dispatch result: %w", err)
			}
			return result, nil
		},
	)
}

// registerIntentsTool registers the `famboard.intents` tool.
func registerIntentsTool(srv *mcpserver.MCPServer, store common.StoreService) {
	srv.AddTool(
		mcp.NewTool(
			"famboard.intents",
			mcp.WithDescription("List the intent types famboard.dispatch accepts."),
		),
		func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			result, err := mcp.NewToolResultJSON(map[string]any{
				"intents": store.Catalog(),
			})
			if err != nil {
				return nil, fmt.Errorf("encode intents result: %w", err)
			}
			return result, nil
		},
	)
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, state.ErrUnknownIntent):
		return mcp.NewToolResultError("unknown_intent: " + err.Error())
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrUnsupportedIntent):
		return mcp.NewToolResultError("unsupported_intent: " + err.Error())
	case errors.Is(err, common.ErrUnavailable):
		return mcp.NewToolResultError("service_unavailable: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
