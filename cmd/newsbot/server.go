package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/newsbot/internal/api"
	"github.com/kalambet/newsbot/internal/audit"
	"github.com/kalambet/newsbot/internal/chat"
	"github.com/kalambet/newsbot/internal/config"
	"github.com/kalambet/newsbot/internal/embedding"
	"github.com/kalambet/newsbot/internal/generation"
	"github.com/kalambet/newsbot/internal/retrieval"
	"github.com/kalambet/newsbot/internal/session"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the newsbot server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running newsbot server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show newsbot system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "newsbot.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "newsbot version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Write PID file. Check if a server is already running via health endpoint.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("newsbot is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("newsbot is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open the audit store. Unreachable MySQL at startup is a deployment
	// fault; per-request audit failures later degrade gracefully.
	auditStore, err := audit.Open(cfg.MySQL.DSN)
	if err != nil {
		return fmt.Errorf("opening audit store: %w", err)
	}
	defer func() {
		if err := auditStore.Close(); err != nil {
			slog.Warn("closing audit store", "error", err)
		}
	}()
	slog.Info("connected to MySQL")

	// Open the session store. Redis being down only costs conversation
	// memory, so log and continue.
	sessions, err := session.Open(cfg.Redis.URL, time.Duration(cfg.Redis.TTLSeconds)*time.Second)
	if err != nil {
		return fmt.Errorf("configuring session store: %w", err)
	}
	defer sessions.Close()
	if sessions.Ping(ctx) {
		slog.Info("connected to Redis")
	} else {
		slog.Warn("Redis is not reachable, session memory degraded", "url", cfg.Redis.URL)
	}

	// Connect to Qdrant and ensure the collection exists with the
	// configured dimensionality. A mismatch is fatal here, never per-request.
	index, err := retrieval.New(retrieval.Config{
		Host:       cfg.Qdrant.Host,
		Port:       cfg.Qdrant.Port,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.Qdrant.Collection,
		VectorSize: uint64(cfg.Qdrant.VectorSize),
	})
	if err != nil {
		return fmt.Errorf("connecting to vector index: %w", err)
	}
	if err := index.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("ensuring collection: %w", err)
	}
	slog.Info("vector index ready", "collection", cfg.Qdrant.Collection, "size", cfg.Qdrant.VectorSize)

	embedder := embedding.New(embedding.Config{
		BaseURL: cfg.Embedding.BaseURL,
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
	})

	generator, err := generation.New(ctx, generation.Config{
		APIKey: cfg.Gemini.APIKey,
		Model:  cfg.Gemini.Model,
	})
	if err != nil {
		return fmt.Errorf("creating generation client: %w", err)
	}

	svc := chat.NewService(sessions, embedder, index, generator, auditStore, chat.Options{
		TopK: cfg.Retrieval.TopK,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.New(svc, sessions),
	}

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "newsbot listening on %s\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("newsbot is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop newsbot (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to newsbot (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	ctx := context.Background()
	client := &http.Client{Timeout: 2 * time.Second}

	// Check server health.
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port))
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	// Check Redis.
	if sessions, err := session.Open(cfg.Redis.URL, 0); err == nil {
		if sessions.Ping(ctx) {
			printStatus("Redis", "running at %s", cfg.Redis.URL)
		} else {
			printStatus("Redis", "not reachable")
		}
		sessions.Close()
	}

	// Check Qdrant.
	index, err := retrieval.New(retrieval.Config{
		Host:       cfg.Qdrant.Host,
		Port:       cfg.Qdrant.Port,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.Qdrant.Collection,
		VectorSize: uint64(cfg.Qdrant.VectorSize),
	})
	if err == nil && index.Ping(ctx) {
		printStatus("Qdrant", "running at %s:%d", cfg.Qdrant.Host, cfg.Qdrant.Port)
	} else {
		printStatus("Qdrant", "not reachable")
	}

	// Check MySQL.
	if store, err := audit.Open(cfg.MySQL.DSN); err == nil {
		printStatus("MySQL", "reachable")
		store.Close()
	} else {
		printStatus("MySQL", "not reachable")
	}

	printStatus("Collection", "%s (dim %d)", cfg.Qdrant.Collection, cfg.Qdrant.VectorSize)
	printStatus("Embedding model", "%s", cfg.Embedding.Model)
	printStatus("Generation model", "%s", cfg.Gemini.Model)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
