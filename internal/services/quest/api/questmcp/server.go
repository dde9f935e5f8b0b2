// Package questmcp exposes the challenge program as MCP tools and resources.
package questmcp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/chronoquest/internal/platform/timeouts"
	"github.com/louisbranch/chronoquest/internal/services/quest/host"
	"github.com/louisbranch/chronoquest/internal/services/quest/query"
)

const (
	serverName    = "chronoquest MCP"
	serverVersion = "0.1.0"

	defaultHTTPAddr = "localhost:8081"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP serves MCP over streamable HTTP.
	TransportHTTP TransportKind = "http"
	// TransportNone disables the MCP surface.
	TransportNone TransportKind = "none"
)

// ParseTransportKind parses a transport label; empty means stdio.
func ParseTransportKind(value string) (TransportKind, error) {
	switch TransportKind(strings.ToLower(strings.TrimSpace(value))) {
	case "", TransportStdio:
		return TransportStdio, nil
	case TransportHTTP:
		return TransportHTTP, nil
	case TransportNone:
		return TransportNone, nil
	default:
		return "", fmt.Errorf("transport %q is not supported", value)
	}
}

// Deps are the program surfaces the tools call into.
type Deps struct {
	Dispatcher Dispatcher
	Queries    query.Service
	Transfers  TransferLister
	Clock      host.Clock
}

type registrationTarget interface {
	AddTool(*mcp.Tool, any) error
	AddResourceTemplate(*mcp.ResourceTemplate, mcp.ResourceHandler)
}

type serverRegistrationAdapter struct {
	server *mcp.Server
}

func (r serverRegistrationAdapter) AddTool(tool *mcp.Tool, handler any) error {
	return addTool(r.server, tool, handler)
}

func (r serverRegistrationAdapter) AddResourceTemplate(template *mcp.ResourceTemplate, handler mcp.ResourceHandler) {
	r.server.AddResourceTemplate(template, handler)
}

type toolRegistrar struct {
	matches func(any) bool
	add     func(*mcp.Server, *mcp.Tool, any)
}

func newToolRegistrar[I any, O any]() toolRegistrar {
	return toolRegistrar{
		matches: func(handler any) bool {
			_, ok := handler.(mcp.ToolHandlerFor[I, O])
			return ok
		},
		add: func(server *mcp.Server, tool *mcp.Tool, handler any) {
			mcp.AddTool(server, tool, handler.(mcp.ToolHandlerFor[I, O]))
		},
	}
}

var toolRegistrars = []toolRegistrar{
	newToolRegistrar[ChallengeCreateInput, CommandResult](),
	newToolRegistrar[ChallengePaymentInput, CommandResult](),
	newToolRegistrar[ChallengeCompleteDailyInput, CommandResult](),
	newToolRegistrar[ChallengeCountInput, ChallengeCountResult](),
	newToolRegistrar[ChallengeGetInput, query.ChallengeView](),
	newToolRegistrar[ChallengeListInput, ChallengeListResult](),
	newToolRegistrar[ChallengeWindowInput, ChallengeWindowResult](),
	newToolRegistrar[TransferListInput, TransferListResult](),
}

func addTool(server *mcp.Server, tool *mcp.Tool, handler any) error {
	for _, registrar := range toolRegistrars {
		if registrar.matches(handler) {
			registrar.add(server, tool, handler)
			return nil
		}
	}
	toolName := "<nil>"
	if tool != nil {
		toolName = tool.Name
	}
	return fmt.Errorf("mcp registration adapter does not support handler type %T for tool %q", handler, toolName)
}

func registerTools(registrar registrationTarget, deps Deps) error {
	registrations := []struct {
		tool    *mcp.Tool
		handler any
	}{
		{tool: ChallengeCreateTool(), handler: ChallengeCreateHandler(deps.Dispatcher)},
		{tool: ChallengeJoinTool(), handler: ChallengeJoinHandler(deps.Dispatcher)},
		{tool: ChallengeSponsorTool(), handler: ChallengeSponsorHandler(deps.Dispatcher)},
		{tool: ChallengeCompleteDailyTool(), handler: ChallengeCompleteDailyHandler(deps.Dispatcher)},
		{tool: ChallengeCountTool(), handler: ChallengeCountHandler(deps.Queries)},
		{tool: ChallengeGetTool(), handler: ChallengeGetHandler(deps.Queries)},
		{tool: ChallengeListTool(), handler: ChallengeListHandler(deps.Queries)},
		{tool: ChallengeWindowTool(), handler: ChallengeWindowHandler(deps.Clock)},
		{tool: TransferListTool(), handler: TransferListHandler(deps.Transfers)},
	}
	for _, registration := range registrations {
		if err := registrar.AddTool(registration.tool, registration.handler); err != nil {
			return err
		}
	}
	registrar.AddResourceTemplate(ChallengeResourceTemplate(), ChallengeResourceHandler(deps.Queries))
	return nil
}

// NewServer builds an MCP server with every challenge tool registered.
func NewServer(deps Deps) (*mcp.Server, error) {
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("command dispatcher is required")
	}
	if deps.Queries.Reader == nil {
		return nil, query.ErrReaderRequired
	}
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	if err := registerTools(serverRegistrationAdapter{server: server}, deps); err != nil {
		return nil, fmt.Errorf("register MCP tools: %w", err)
	}
	return server, nil
}

// Config selects how the MCP server is exposed.
type Config struct {
	Transport TransportKind
	// HTTPAddr is the listen address for HTTP transport. Defaults to
	// localhost:8081.
	HTTPAddr string
}

// Serve runs server on the configured transport until ctx is done.
func Serve(ctx context.Context, server *mcp.Server, cfg Config) error {
	if server == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	switch cfg.Transport {
	case "", TransportStdio:
		err := server.Run(ctx, &mcp.StdioTransport{})
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("serve MCP: %w", err)
		}
		return nil
	case TransportHTTP:
		return serveHTTP(ctx, server, cfg.HTTPAddr)
	case TransportNone:
		<-ctx.Done()
		return nil
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

func serveHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	if strings.TrimSpace(addr) == "" {
		addr = defaultHTTPAddr
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on MCP address %s: %w", addr, err)
	}
	return serveListener(ctx, server, listener)
}

func serveListener(ctx context.Context, server *mcp.Server, listener net.Listener) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
	mux := http.NewServeMux()
	mux.Handle("/mcp", handler)
	httpServer := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(listener)
	}()
	log.Printf("MCP HTTP server listening at %v", listener.Addr())

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve MCP HTTP: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown MCP HTTP: %w", err)
	}
	<-serveErr
	return nil
}
