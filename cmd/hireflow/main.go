// ABOUTME: Entry point for the hireflow job posting assistant
// ABOUTME: Serves the HTTP API, runs an interactive chat, and manages config and tokens

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/2389/hireflow/internal/auth"
	"github.com/2389/hireflow/internal/classifier"
	"github.com/2389/hireflow/internal/config"
	"github.com/2389/hireflow/internal/crew"
	"github.com/2389/hireflow/internal/flow"
	"github.com/2389/hireflow/internal/httpapi"
	"github.com/2389/hireflow/internal/llm"
	"github.com/2389/hireflow/internal/pipeline"
	"github.com/2389/hireflow/internal/router"
	"github.com/2389/hireflow/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _     _          __ _
| |__ (_)_ __ ___ / _| | _____      __
| '_ \| | '__/ _ \ |_| |/ _ \ \ /\ / /
| | | | | | |  __/  _| | (_) \ V  V /
|_| |_|_|_|  \___|_| |_|\___/ \_/\_/
`

// getConfigPath returns the path to the hireflow config file.
// Priority: HIREFLOW_CONFIG env var > XDG_CONFIG_HOME/hireflow/hireflow.yaml > ~/.config/hireflow/hireflow.yaml
func getConfigPath() string {
	if envPath := os.Getenv("HIREFLOW_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "hireflow.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "hireflow", "hireflow.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: hireflow <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve              Start the HTTP API server")
		fmt.Println("  chat               Talk to the assistant in your terminal")
		fmt.Println("  init               Write a starter config file")
		fmt.Println("  token CLIENT_ID    Mint an API bearer token")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "chat":
		err = runChat(ctx)
	case "init":
		err = runInit()
	case "token":
		err = runToken()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildController wires storage, the classifier, and the posting crew from
// config. The caller owns closing the returned store.
func buildController(cfg *config.Config, logger *slog.Logger) (*flow.Controller, *store.SQLiteStore, error) {
	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}

	routerLLM, err := llm.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.RouterModel, cfg.OpenAI.Timeout)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("creating router client: %w", err)
	}
	crewLLM, err := llm.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.CrewModel, cfg.OpenAI.Timeout)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("creating crew client: %w", err)
	}

	crewOpts := []crew.Option{crew.WithLogger(logger)}
	if cfg.Prompts.Path != "" {
		prompts, err := crew.LoadPrompts(cfg.Prompts.Path)
		if err != nil {
			st.Close()
			return nil, nil, fmt.Errorf("loading prompts: %w", err)
		}
		crewOpts = append(crewOpts, crew.WithPrompts(prompts))
	}
	hrCrew, err := crew.New(crewLLM, crewOpts...)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("creating crew: %w", err)
	}

	cls := classifier.New(routerLLM, classifier.WithLogger(logger))
	dispatcher := pipeline.New(hrCrew, hrCrew, logger)
	controller := flow.New(st, cls, router.New(logger), dispatcher, logger)
	return controller, st, nil
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	fmt.Println()

	controller, st, err := buildController(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	var verifier auth.TokenVerifier
	if cfg.Auth.JWTSecret != "" {
		verifier = auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	} else {
		logger.Warn("auth.jwt_secret not set, API authentication disabled")
	}

	api := httpapi.New(controller, verifier, logger)
	server := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: api.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting hireflow", "http_addr", cfg.Server.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runChat(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Keep log noise out of the conversation
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	controller, st, err := buildController(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	sessionID := uuid.New().String()

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	cyan.Println("hireflow — tell me about the role you're hiring for")
	gray.Printf("session %s — ctrl-d to quit\n\n", sessionID)

	scanner := bufio.NewScanner(os.Stdin)
	prompt := color.New(color.FgGreen, color.Bold)
	for {
		prompt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}

		reply, err := controller.SubmitTurn(ctx, sessionID, line)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			color.Red("something went wrong, please try again")
			logger.Error("turn failed", "error", err)
			continue
		}

		cyan.Print("assistant> ")
		fmt.Printf("%s\n\n", reply)
	}
}

func runInit() error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists at %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(config.Default()), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Wrote %s\n", configPath)
	fmt.Println("Set OPENAI_API_KEY (and HIREFLOW_JWT_SECRET for the API) before running serve.")
	return nil
}

func runToken() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: hireflow token CLIENT_ID")
	}
	clientID := os.Args[2]

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is not configured")
	}

	ttl := cfg.Auth.TokenTTL
	if ttl == 0 {
		ttl = 720 * time.Hour
	}

	token, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret)).Generate(clientID, ttl)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	fmt.Println(token)
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	// Handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
