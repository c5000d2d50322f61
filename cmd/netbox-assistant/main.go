// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// main.go - Entry point for the NetBox assistant.
//
// One binary serves every surface. All of them share one set of services
// built at startup: the endpoint catalog, the NetBox client, the dispatcher
// and, for chat surfaces, the language model App.
//
// Modes:
//   slack       Socket-mode Slack bot (default)
//   stdio       MCP server on stdin/stdout
//   streamable  MCP server over streamable HTTP
//   web         Browser chat page and POST /api/chat
//   ask         Answer --message once and exit
//
// Usage:
//   go build -o netbox-assistant ./cmd/netbox-assistant
//   ./netbox-assistant                                  # Slack bot
//   ./netbox-assistant --mode=streamable --port=8081    # MCP over HTTP
//   ./netbox-assistant --mode=ask --message="list sites"
//
// SIGHUP reloads the endpoint catalog in long-running modes.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/pflag"

	"github.com/gebl/netbox-assistant/internal/agent"
	"github.com/gebl/netbox-assistant/internal/audit"
	"github.com/gebl/netbox-assistant/internal/auth"
	"github.com/gebl/netbox-assistant/internal/authorization"
	"github.com/gebl/netbox-assistant/internal/bot"
	"github.com/gebl/netbox-assistant/internal/catalog"
	"github.com/gebl/netbox-assistant/internal/config"
	"github.com/gebl/netbox-assistant/internal/inventory"
	"github.com/gebl/netbox-assistant/internal/llm"
	"github.com/gebl/netbox-assistant/internal/logging"
	"github.com/gebl/netbox-assistant/internal/slack"
	"github.com/gebl/netbox-assistant/internal/tools"
)

// Version is the current version of the NetBox assistant.
const Version = "1.0.0"

const (
	modeSlack      = "slack"
	modeStdio      = "stdio"
	modeStreamable = "streamable"
	modeWeb        = "web"
	modeAsk        = "ask"
)

var validModes = []string{modeSlack, modeStdio, modeStreamable, modeWeb, modeAsk}

// services are built once at startup and shared by every turn.
type services struct {
	cfg        *config.Config
	store      *catalog.Store
	client     *inventory.Client
	dispatcher *tools.Dispatcher
	registry   *tools.ToolsetRegistry
	closers    []func()
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func main() {
	logging.Initialize()
	logger := logging.MainLogger

	mode := pflag.String("mode", modeSlack, "Mode: slack, stdio, streamable, web or ask")
	port := pflag.String("port", "8080", "Port for HTTP modes (streamable, web)")
	catalogPath := pflag.String("catalog", "", "Endpoint catalog file (overrides NETBOX_CATALOG)")
	message := pflag.String("message", "", "Message to answer in ask mode")
	pflag.Parse()

	logger.Info("NetBox assistant starting", "version", Version, "mode", *mode)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *catalogPath != "" {
		cfg.CatalogPath = *catalogPath
	}

	logging.InitializeFromConfig(cfg)
	logger = logging.MainLogger

	if err := run(*mode, *port, *message, cfg); err != nil {
		logger.Error("NetBox assistant stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(mode, port, message string, cfg *config.Config) error {
	logger := logging.MainLogger
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	checkNetBox(ctx, svc.client)

	switch mode {
	case modeStdio:
		watchReload(ctx, svc.store)
		logger.Info("Starting MCP server", "transport", "stdio")
		return server.ServeStdio(newMCPServer(svc))

	case modeStreamable:
		watchReload(ctx, svc.store)
		streamable := server.NewStreamableHTTPServer(newMCPServer(svc), server.WithStateLess(cfg.Stateless))
		return serveHTTP(ctx, port, applyAuthIfEnabled(streamable, cfg, "mcp"))

	case modeWeb:
		app, err := newApp(cfg, svc)
		if err != nil {
			return err
		}
		watchReload(ctx, svc.store)
		return serveHTTP(ctx, port, applyAuthIfEnabled(newWebHandler(app), cfg, "web"))

	case modeSlack:
		if err := cfg.ValidateForSlack(); err != nil {
			return fmt.Errorf("invalid Slack configuration: %w", err)
		}
		app, err := newApp(cfg, svc)
		if err != nil {
			return err
		}
		adapter, err := slack.New(ctx, app, slack.Options{BotToken: cfg.SlackBotToken, AppToken: cfg.SlackAppToken})
		if err != nil {
			return err
		}
		watchReload(ctx, svc.store)
		return adapter.Run(ctx)

	case modeAsk:
		if message == "" {
			return errors.New("--message is required in ask mode")
		}
		app, err := newApp(cfg, svc)
		if err != nil {
			return err
		}
		ctx = audit.WithActor(ctx, "cli")
		app.Handle(ctx, message, func(reply string) { fmt.Fprintln(os.Stdout, reply) })
		return nil
	}

	return fmt.Errorf("invalid mode %q (valid modes: %v)", mode, validModes)
}

// newServices builds the shared catalog, NetBox client and dispatcher.
func newServices(cfg *config.Config) (*services, error) {
	svc := &services{cfg: cfg, store: catalog.NewStore(cfg.CatalogPath)}

	client, err := inventory.NewClient(inventory.Options{
		BaseURL:            cfg.NetBoxURL,
		Token:              cfg.NetBoxToken,
		Timeout:            cfg.RequestTimeout,
		InsecureSkipVerify: cfg.SkipTLSVerify(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create NetBox client: %w", err)
	}
	svc.client = client

	policy, err := authorization.NewPolicy(cfg.ReadOnly, cfg.EndpointPermissions)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint permissions: %w", err)
	}
	if err := policy.RestrictToHost(cfg.NetBoxURL); err != nil {
		return nil, err
	}

	var publisher audit.Publisher = audit.NoOpPublisher{}
	if cfg.AuditNATSURL != "" {
		nc, err := audit.Connect(cfg.AuditNATSURL, "netbox-assistant")
		if err != nil {
			return nil, err
		}
		nats := audit.NewNATSPublisher(nc, cfg.AuditSubject)
		svc.closers = append(svc.closers, func() {
			if err := nats.Close(); err != nil {
				logging.AuditLogger.Warn("Failed to drain NATS connection", "error", err)
			}
		})
		publisher = nats
	}

	svc.dispatcher = tools.NewDispatcher(tools.Deps{
		Catalog:   svc.store,
		Inventory: client,
		Policy:    policy,
		Publisher: publisher,
	})
	svc.registry = tools.DefaultRegistry(cfg.ReadOnly)
	return svc, nil
}

// newApp builds the chat App for the configured provider and mode.
func newApp(cfg *config.Config, svc *services) (*bot.App, error) {
	if err := cfg.ValidateForLLM(); err != nil {
		return nil, fmt.Errorf("invalid language model configuration: %w", err)
	}
	provider, err := llm.New(cfg)
	if err != nil {
		return nil, err
	}

	opts := bot.Options{Mode: cfg.LLMMode, Provider: provider, Catalog: svc.store}
	if cfg.LLMMode == config.ModeAgent {
		openAI, ok := provider.(*llm.OpenAI)
		if !ok {
			return nil, fmt.Errorf("agent mode requires the %s provider", config.ProviderOpenAI)
		}
		opts.Agent = agent.New(agent.Options{
			Client:        openAI.Client(),
			Model:         openAI.Model(),
			Timeout:       openAI.Timeout(),
			MaxIterations: cfg.AgentMaxIterations,
			Registry:      svc.registry,
			Dispatcher:    svc.dispatcher,
		})
	}
	logging.MainLogger.Info("Language model configured", "provider", provider.Name(), "mode", cfg.LLMMode)
	return bot.New(opts), nil
}

// checkNetBox reports the NetBox version. Failures are logged only: the
// first turn that needs NetBox reports the problem to the user.
func checkNetBox(ctx context.Context, client *inventory.Client) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := client.Status(ctx); err != nil {
		logging.InventoryLogger.Warn("NetBox status check failed", "url", client.BaseURL(), "error", err)
	}
}

// watchReload reloads the catalog on SIGHUP until ctx ends.
func watchReload(ctx context.Context, store *catalog.Store) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		defer signal.Stop(hup)
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				if err := store.Reload(); err != nil {
					logging.CatalogLogger.Error("Catalog reload failed", "path", store.Path(), "error", err)
				}
			}
		}
	}()
}

// serveHTTP runs handler until ctx is cancelled, then shuts down gracefully.
func serveHTTP(ctx context.Context, port string, handler http.Handler) error {
	logger := logging.MainLogger
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           auth.RequestLoggingMiddleware()(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", fmt.Sprintf("http://localhost:%s", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

// applyAuthIfEnabled wraps handler with bearer authentication when
// MCP_AUTH_ENABLED is set and a token is configured.
func applyAuthIfEnabled(handler http.Handler, cfg *config.Config, surface string) http.Handler {
	logger := logging.MainLogger
	if !cfg.MCPAuthEnabled {
		logger.Debug("HTTP authentication disabled", "surface", surface)
		return handler
	}
	if cfg.MCPBearerToken == "" {
		logger.Warn("HTTP authentication is enabled but no bearer token is configured",
			"recommendation", "set MCP_BEARER_TOKEN")
		return handler
	}
	logger.Info("HTTP authentication enabled", "surface", surface, "token_length", len(cfg.MCPBearerToken))
	return auth.BearerTokenMiddleware(cfg.MCPBearerToken, surface)(handler)
}
