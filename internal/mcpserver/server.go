// Package mcpserver exposes the librarian to MCP clients: summary lookup and
// full recommendations as tools.
package mcpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"librarian/internal/domain"
)

// Version is the MCP server version.
const Version = "0.1.0"

// ErrMissingLibrarian is returned when NewServer gets no librarian.
var ErrMissingLibrarian = errors.New("mcpserver: librarian is required")

// Server is the MCP server for the librarian.
type Server struct {
	librarian domain.Librarian
	logger    *zap.Logger
	server    *mcp.Server
}

func NewServer(librarian domain.Librarian, logger *zap.Logger) (*Server, error) {
	if librarian == nil {
		return nil, ErrMissingLibrarian
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		librarian: librarian,
		logger:    logger,
		server:    mcp.NewServer(&mcp.Implementation{Name: "librarian", Version: Version}, nil),
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect attaches the server to an arbitrary transport.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	s.logger.Info("mcp http server listening", zap.String("addr", addr))
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
