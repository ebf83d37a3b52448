// Package main is the typegait CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/typegait/typegait/internal/biometric"
	"github.com/typegait/typegait/internal/config"
	"github.com/typegait/typegait/internal/metrics"
	"github.com/typegait/typegait/internal/models"
	"github.com/typegait/typegait/internal/server"
	"github.com/typegait/typegait/internal/storage"
	"github.com/typegait/typegait/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/typegait/config.yaml"

// captureFile is the on-disk shape of a recorded typing sample.
type captureFile struct {
	Text   string            `json:"text"`
	Events []models.KeyEvent `json:"events"`
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "server":
		runServer()
	case "enroll":
		runEnroll()
	case "identify":
		runIdentify()
	case "users":
		runUsers()
	case "stats":
		runStats()
	case "version", "--version", "-v":
		fmt.Printf("typegait version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// loadConfig loads config from path. When path is the default, a config.yaml
// in the current directory wins (for development).
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				return config.Load(fallback)
			}
		}
	}
	return config.Load(path)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
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

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	engine := biometric.NewEngine()
	restoreModel(context.Background(), engine, store, logger)

	m := metrics.New()
	srv := server.NewServer(engine, store, cfg, logger, m)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if blob, err := engine.ExportModel(); err == nil {
		if err := store.SaveModel(context.Background(), blob); err != nil {
			logger.Warn("model save failed", zap.Error(err))
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// restoreModel loads the persisted normalization blob. A missing or invalid
// blob is not fatal: the model is re-derived from the stored enrollment set.
func restoreModel(ctx context.Context, engine *biometric.Engine, store storage.Storage, logger *zap.Logger) {
	blob, err := store.LoadModel(ctx)
	if err == nil && blob != nil {
		if err := engine.RestoreModel(blob); err == nil {
			logger.Info("normalization model restored")
			return
		}
		logger.Warn("stored model rejected, refitting", zap.Error(err))
	}
	users, err := store.AllUsers(ctx)
	if err != nil {
		logger.Warn("failed to load users for refit", zap.Error(err))
		return
	}
	engine.Train(users)
	if engine.Fitted() {
		logger.Info("normalization model refitted from stored samples")
	}
}

func runEnroll() {
	fs := flag.NewFlagSet("enroll", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	userID := fs.String("user", "", "user id to enroll")
	_ = fs.Parse(os.Args[2:])

	if *userID == "" || fs.NArg() < 1 {
		fmt.Println("Usage: typegait enroll --user <id> <capture.json>")
		os.Exit(1)
	}
	capture, err := readCapture(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read capture: %v\n", err)
		os.Exit(1)
	}

	req := models.EnrollRequest{UserID: *userID, Events: capture.Events, Text: capture.Text}
	var resp models.EnrollResponse
	if err := postJSON(*serverURL+"/api/v1/enroll", req, &resp); err != nil {
		fmt.Fprintf(os.Stderr, "Enroll failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Enrolled %s (%d samples)\n", resp.UserID, resp.SamplesCount)
}

func runIdentify() {
	fs := flag.NewFlagSet("identify", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	topK := fs.Int("top-k", 0, "number of candidates to return (0 = server default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: typegait identify [flags] <capture.json>")
		os.Exit(1)
	}
	capture, err := readCapture(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read capture: %v\n", err)
		os.Exit(1)
	}

	req := models.IdentifyRequest{Events: capture.Events, Text: capture.Text, TopK: *topK}
	var resp models.IdentifyResponse
	if err := postJSON(*serverURL+"/api/v1/identify", req, &resp); err != nil {
		fmt.Fprintf(os.Stderr, "Identify failed: %v\n", err)
		os.Exit(1)
	}

	if *outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(resp)
		return
	}
	if len(resp.Matches) == 0 {
		fmt.Println("No enrolled users to match against.")
		return
	}
	for i, match := range resp.Matches {
		fmt.Printf("%d. %-20s similarity=%.1f confidence=%.1f (samples=%d)\n",
			i+1, match.UserID, match.Similarity, match.Confidence, match.SamplesCount)
	}
	fmt.Printf("query_time_ms: %d\n", resp.QueryTime)
}

func runUsers() {
	fs := flag.NewFlagSet("users", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	var out struct {
		Users []*models.UserSummary `json:"users"`
		Total int                   `json:"total"`
	}
	if err := getJSON(*serverURL+"/api/v1/users", &out); err != nil {
		fmt.Fprintf(os.Stderr, "Users failed: %v\n", err)
		os.Exit(1)
	}
	for _, u := range out.Users {
		fmt.Printf("%-20s samples=%d enrolled=%s\n", u.ID, u.SamplesCount, u.CreatedAt.Format(time.RFC3339))
	}
	fmt.Printf("total: %d\n", out.Total)
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	var out map[string]interface{}
	if err := getJSON(*serverURL+"/api/v1/stats", &out); err != nil {
		fmt.Fprintf(os.Stderr, "Stats failed: %v\n", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

func readCapture(path string) (*captureFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var capture captureFile
	if err := json.Unmarshal(data, &capture); err != nil {
		return nil, fmt.Errorf("parse capture: %w", err)
	}
	return &capture, nil
}

func postJSON(url string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func getJSON(url string, out interface{}) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func printUsage() {
	fmt.Println(`typegait - keystroke-dynamics user identification

Usage:
  typegait server [flags]                  Start the HTTP server
  typegait enroll --user <id> <capture>    Enroll a typing sample for a user
  typegait identify [flags] <capture>      Rank enrolled users against a sample
  typegait users [flags]                   List enrolled users
  typegait stats [flags]                   Show service statistics
  typegait version                         Show version
  typegait help                            Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/typegait/config.yaml)
  --debug            Enable debug logging

Client Flags:
  --server string    Server URL (default: http://localhost:8080)
  --top-k int        identify: number of candidates (0 = server default)
  --output string    identify: text or json (default: text)

A capture file is JSON: {"text": "...", "events": [{"kind": "press", "key": "a", "timestamp": 12.5}, ...]}`)
}
