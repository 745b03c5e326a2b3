// Package main is the Silicon CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/deepfates/silicon/internal/config"
	"github.com/deepfates/silicon/internal/embedding"
	"github.com/deepfates/silicon/internal/indexer"
	"github.com/deepfates/silicon/internal/models"
	"github.com/deepfates/silicon/internal/query"
	"github.com/deepfates/silicon/internal/search"
	"github.com/deepfates/silicon/internal/server"
	"github.com/deepfates/silicon/internal/store"
	"github.com/deepfates/silicon/internal/vault"
	"github.com/deepfates/silicon/internal/watcher"
	"github.com/deepfates/silicon/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/silicon/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "similar":
		runSimilar()
	case "reindex":
		runReindex()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("silicon version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (file events, pass progress, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("vault_root", cfg.Vault.Root),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	idx := components.Indexer
	watchOpts := []watcher.WatcherOption{
		watcher.WithDebounce(time.Duration(cfg.Vault.DebounceMillis) * time.Millisecond),
	}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.NewWatcher(
		components.Vault.Root(),
		func(path string) {
			if _, err := idx.Reindex(context.Background()); err != nil {
				logger.Warn("reindex after change failed", zap.String("path", path), zap.Error(err))
			}
		},
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}

	// Startup pass brings the store in sync with the vault as it is now.
	go func() {
		if _, err := idx.Reindex(context.Background()); err != nil {
			logger.Error("startup reindex failed", zap.Error(err))
		}
	}()

	srv := server.NewServer(components.Orchestrator, idx, components.Store, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchSvc.Stop()
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runSimilar() {
	fs := flag.NewFlagSet("similar", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: silicon similar [flags] <path>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	var neighbors []models.Neighbor
	if *serverURL != "" {
		res, err := similarViaHTTP(*serverURL, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
			os.Exit(1)
		}
		neighbors = res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger, cfg.Debug)
		if err != nil {
			logger.Fatal("Failed to initialize", zap.Error(err))
		}
		defer components.Close()
		neighbors, err = components.Orchestrator.SimilarTo(context.Background(), path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
			os.Exit(1)
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(neighbors); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		if len(neighbors) == 0 {
			fmt.Println("No similar documents above threshold.")
			return
		}
		for _, n := range neighbors {
			fmt.Printf("%.4f  %s\n", n.Similarity, n.Path)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func similarViaHTTP(serverURL, path string) ([]models.Neighbor, error) {
	resp, err := http.Get(serverURL + "/api/v1/similar?path=" + url.QueryEscape(path))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var neighbors []models.Neighbor
	if err := json.NewDecoder(resp.Body).Decode(&neighbors); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return neighbors, nil
}

func runReindex() {
	fs := flag.NewFlagSet("reindex", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = run the pass in-process)")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		resp, err := http.Post(*serverURL+"/api/v1/reindex", "application/json", nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		var out struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Reindex: %s\n", out.Status)
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()
	if _, err := components.Indexer.Reindex(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Reindex failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Reindex: done")
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		resp, err := http.Get(*serverURL + "/api/v1/status")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Status failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		body, _ := io.ReadAll(resp.Body)
		fmt.Println(string(body))
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()
	count, err := components.Store.Count(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Count failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("documents:  %d\n", count)
	fmt.Printf("vault_root: %s\n", cfg.Vault.Root)
	fmt.Printf("threshold:  %g\n", cfg.Search.Threshold)
	fmt.Printf("database:   %s\n", cfg.Storage.DatabasePath)
}

// Components holds initialized services.
type Components struct {
	Vault        *vault.FSVault
	Store        store.RecordStore
	Provider     embedding.Embedder
	Indexer      *indexer.Indexer
	Engine       *search.Engine
	Orchestrator *query.Orchestrator
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Provider != nil {
		_ = c.Provider.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	v, err := vault.NewFSVault(cfg.Vault.Root, cfg.Vault.IgnorePrefixes)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}
	recordStore, err := store.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	provider, err := embedding.NewOpenAIEmbedder(
		cfg.Embedding.BaseURL,
		cfg.Embedding.Model,
		cfg.Embedding.APIKey,
		cfg.Embedding.Dimensions,
	)
	if err != nil {
		_ = recordStore.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	docEmbedder := embedding.NewDocumentEmbedder(
		provider,
		cfg.Embedding.MaxChunkSize,
		cfg.Embedding.Precision,
		cfg.Embedding.CacheSize,
	)

	idxOpts := []indexer.Option{}
	queryOpts := []query.Option{}
	if debug && logger != nil {
		idxOpts = append(idxOpts, indexer.WithLogger(logger))
		queryOpts = append(queryOpts, query.WithLogger(logger))
	}
	idx := indexer.New(v, recordStore, docEmbedder, idxOpts...)
	engine := search.NewEngine(recordStore)
	orchestrator := query.New(v, recordStore, idx, engine, cfg.Search.Threshold, cfg.Search.Candidates, queryOpts...)

	return &Components{
		Vault:        v,
		Store:        recordStore,
		Provider:     provider,
		Indexer:      idx,
		Engine:       engine,
		Orchestrator: orchestrator,
	}, nil
}

func printUsage() {
	fmt.Println(`silicon - Neural similarity index for a markdown vault

Usage:
  silicon server [flags]            Start the watcher and HTTP server
  silicon similar [flags] <path>    Show documents similar to <path>
  silicon reindex [flags]           Trigger a reconciliation pass
  silicon status [flags]            Show index status
  silicon version                   Show version
  silicon help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/silicon/config.yaml)
  --debug            Enable debug logging (file events, pass progress, etc.)

Similar Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") when the server is not running.
  --output string    Output format: text or json (default: text)

Reindex/Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.

Examples:
  silicon server
  silicon similar "notes/spells.md"
  silicon similar --output json "notes/spells.md"
  silicon reindex
  silicon status`)
}
