// Package server exposes catalog endpoints as MCP tools, over stdio or streamable HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/brizzai/httpdeco/internal/catalog"
	"github.com/brizzai/httpdeco/internal/config"
	"github.com/brizzai/httpdeco/internal/logger"
	"github.com/brizzai/httpdeco/internal/metrics"
	"github.com/brizzai/httpdeco/internal/server/tool"
	"github.com/brizzai/httpdeco/internal/utils"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// shutdownTimeout is the maximum time to wait for server shutdown
	shutdownTimeout = 5 * time.Second
	healthPath      = "/healthz"
)

// Params are the server dependencies.
type Params struct {
	fx.In

	Config  *config.Config
	Catalog *catalog.Service
	Metrics *metrics.Collector `optional:"true"`
}

// Server registers one MCP tool per catalog endpoint and serves them in the configured mode.
type Server struct {
	config  *config.Config
	catalog *catalog.Service
	mcp     *mcpserver.MCPServer
	tool    *tool.Handler
	metrics *metrics.Collector
	tools   []mcp.Tool
}

// NewServer creates a new MCP server instance with a tool for every catalog endpoint.
func NewServer(p Params) (*Server, error) {
	if p.Config == nil {
		return nil, errors.New("config cannot be nil")
	}
	if p.Catalog == nil {
		return nil, errors.New("catalog cannot be nil")
	}

	srv := &Server{
		config:  p.Config,
		catalog: p.Catalog,
		mcp:     mcpserver.NewMCPServer(p.Config.Server.Name, p.Config.Server.Version),
		tool:    tool.NewHandler(p.Catalog),
		metrics: p.Metrics,
	}
	if err := srv.setupTools(); err != nil {
		return nil, fmt.Errorf("failed to setup tools: %w", err)
	}
	return srv, nil
}

func (s *Server) setupTools() error {
	for _, ep := range s.catalog.Endpoints() {
		t, err := ToolFor(ep)
		if err != nil {
			return err
		}
		logger.Debug("Adding tool", zap.String("name", t.Name), zap.String("route", ep.Verb+" "+ep.URL))
		s.mcp.AddTool(t, s.tool.CreateHandler(&t, ep.Name, ep.TakesParams()))
		s.tools = append(s.tools, t)
	}
	logger.Info("Registered tools", zap.Int("count", len(s.tools)))
	return nil
}

// Tools returns the registered tools in endpoint order.
func (s *Server) Tools() []mcp.Tool {
	return s.tools
}

// ToolFor describes an endpoint as a tool. A JSON schema on the entry is used as is; otherwise the
// documented arguments are listed. Endpoints without a params slot take no arguments.
func ToolFor(ep *catalog.Endpoint) (mcp.Tool, error) {
	desc := ep.Description
	if desc == "" {
		desc = ep.Verb + " " + ep.URL
	}

	if ep.TakesParams() && ep.Schema != nil {
		raw, err := json.Marshal(ep.Schema)
		if err != nil {
			return mcp.Tool{}, fmt.Errorf("endpoint %s: invalid schema: %w", ep.Name, err)
		}
		return mcp.NewToolWithRawSchema(ep.Name, desc, raw), nil
	}

	opts := []mcp.ToolOption{mcp.WithDescription(desc)}
	if ep.TakesParams() {
		for _, arg := range ep.Arguments {
			opts = append(opts, argumentOption(arg))
		}
	}
	return mcp.NewTool(ep.Name, opts...), nil
}

func argumentOption(arg catalog.Argument) mcp.ToolOption {
	var props []mcp.PropertyOption
	if arg.Description != "" {
		props = append(props, mcp.Description(arg.Description))
	}
	if arg.Required {
		props = append(props, mcp.Required())
	}

	switch arg.Type {
	case "integer", "number":
		return mcp.WithNumber(arg.Name, props...)
	case "boolean":
		return mcp.WithBoolean(arg.Name, props...)
	case "object":
		return mcp.WithObject(arg.Name, props...)
	case "array":
		return mcp.WithArray(arg.Name, props...)
	default:
		return mcp.WithString(arg.Name, props...)
	}
}

// createHTTPHandler mounts the MCP handler, the health check and, when metrics are collected, the
// metrics endpoint.
func (s *Server) createHTTPHandler(mcpHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	if s.metrics != nil && s.config.Server.MetricsPath != "" {
		mux.Handle(s.config.Server.MetricsPath, s.metrics.Handler())
	}
	mux.HandleFunc(healthPath, s.handleHealth)
	mux.Handle("/", LoggingMiddleware(mcpHandler))
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		utils.WriteError(w, "method_not_allowed", "use GET", http.StatusMethodNotAllowed)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"name":    s.config.Server.Name,
		"version": s.config.Server.Version,
		"tools":   len(s.tools),
	})
}

// ServeStreamableHTTP serves the tools over streamable HTTP until ctx is done.
func (s *Server) ServeStreamableHTTP(ctx context.Context) error {
	logger.Info("Starting HTTP server")
	httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
	return s.serveHTTP(ctx, s.createHTTPHandler(httpServer), "HTTP")
}

func (s *Server) serveHTTP(ctx context.Context, handler http.Handler, mode string) error {
	addr := net.JoinHostPort(s.config.Server.Host, strconv.Itoa(s.config.Server.Port))
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel for server errors
	errChan := make(chan error, 1)

	go func() {
		logger.Info("Starting server",
			zap.String("mode", mode),
			zap.String("address", addr),
		)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server",
			zap.String("mode", mode),
			zap.Duration("timeout", shutdownTimeout),
		)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}

// ServeSTDIO serves the tools over standard I/O until ctx is done.
func (s *Server) ServeSTDIO(ctx context.Context) error {
	logger.Info("Starting STDIO server")
	stdioServer := mcpserver.NewStdioServer(s.mcp)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// Start serves in the configured mode. It returns when ctx is done or the server fails.
func (s *Server) Start(ctx context.Context) error {
	logger.Info("Starting server",
		zap.String("mode", string(s.config.Server.Mode)),
		zap.String("version", s.config.Server.Version),
	)

	switch s.config.Server.Mode {
	case config.ServerModeHTTP:
		return s.ServeStreamableHTTP(ctx)
	case config.ServerModeSTDIO:
		return s.ServeSTDIO(ctx)
	default:
		return fmt.Errorf("unsupported server mode: %s", s.config.Server.Mode)
	}
}

// Module provides the MCP server
var Module = fx.Module("mcp_server",
	fx.Provide(
		NewServer,
	),
)
