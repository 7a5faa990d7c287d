// Package encounter parses encounter server flags and selects stdio or
// HTTP transport.
package encounter

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/initiative-engine/internal/platform/config"
	"github.com/louisbranch/initiative-engine/internal/platform/otel"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/app"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/content"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/service"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/storage/memory"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/storage/sqlite"
)

const shutdownTimeout = 10 * time.Second

// Config holds encounter server configuration.
type Config struct {
	Transport         string        `env:"INITIATIVE_ENGINE_TRANSPORT"          envDefault:"stdio"`
	HTTPAddr          string        `env:"INITIATIVE_ENGINE_HTTP_ADDR"          envDefault:"localhost:8080"`
	DBPath            string        `env:"INITIATIVE_ENGINE_DB_PATH"`
	BestiaryDir       string        `env:"INITIATIVE_ENGINE_BESTIARY_DIR"`
	CollectionTimeout time.Duration `env:"INITIATIVE_ENGINE_COLLECTION_TIMEOUT" envDefault:"60s"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path; empty keeps rosters in memory")
	fs.StringVar(&cfg.BestiaryDir, "bestiary", cfg.BestiaryDir, "directory of YAML monster statblocks")
	fs.DurationVar(&cfg.CollectionTimeout, "collection-timeout", cfg.CollectionTimeout, "response-collection window before synthesis kicks in")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the encounter MCP server on the configured transport.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "encounter")
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	registryConfig := app.RegistryConfig{CollectionTimeout: cfg.CollectionTimeout}
	if cfg.DBPath != "" {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("close store: %v", err)
			}
		}()
		registryConfig.Characters = store
		registryConfig.TurnLog = store
	} else {
		store := memory.NewStore()
		registryConfig.Characters = store
		registryConfig.TurnLog = store
	}
	if cfg.BestiaryDir != "" {
		bestiary, err := content.LoadBestiary(cfg.BestiaryDir)
		if err != nil {
			return fmt.Errorf("load bestiary: %w", err)
		}
		registryConfig.Bestiary = bestiary
	}

	registry := app.NewRegistry(registryConfig)
	defer registry.CloseAll()

	server, err := service.New(registry)
	if err != nil {
		return err
	}

	switch cfg.Transport {
	case "stdio":
		return server.Serve(ctx)
	case "http":
		return serveHTTP(ctx, cfg.HTTPAddr, server, registry)
	default:
		return fmt.Errorf("unknown transport %q: use stdio or http", cfg.Transport)
	}
}

// serveHTTP mounts the MCP endpoint at /mcp next to the websocket event
// gateway and blocks until the context ends or the server fails.
func serveHTTP(ctx context.Context, addr string, server *service.Server, registry *app.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server.MCP()
	}, nil))
	mux.Handle("/", service.NewGateway(registry))

	httpServer := &http.Server{Addr: addr, Handler: mux}

	log.Printf("serving transport=http addr=%s", addr)
	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP server: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("HTTP server error: %w", err)
	}
}
