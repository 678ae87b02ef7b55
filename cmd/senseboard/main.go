// Command senseboard is the SenseBoard server process: it loads config,
// wires every collaborating package (AI provider chain, transcription
// router, personalization store, broadcast hub, room registry, the AI
// orchestration engine, the WebSocket and REST transports), and serves
// HTTP. Grounded in the teacher's cmd/main.go ("build an App, then Run
// it") generalized with an explicit bind-retry loop for spec §6's
// port-scan-on-conflict behavior, since SenseBoard has no worker-only
// mode to fall back to.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/piyushdatta/senseboard-server/internal/aiprovider"
	"github.com/piyushdatta/senseboard-server/internal/broadcast"
	"github.com/piyushdatta/senseboard-server/internal/config"
	"github.com/piyushdatta/senseboard-server/internal/httpapi"
	"github.com/piyushdatta/senseboard-server/internal/logger"
	"github.com/piyushdatta/senseboard-server/internal/orchestrator"
	"github.com/piyushdatta/senseboard-server/internal/personalization"
	"github.com/piyushdatta/senseboard-server/internal/transcribe"
	"github.com/piyushdatta/senseboard-server/internal/wsapi"
)

func main() {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}

	// A bare bootstrap logger so config.Load itself can log its own
	// resolution decisions (spec §6 env-var table) before the level from
	// that same config is known.
	bootLog, err := logger.New(logMode, "info")
	if err != nil {
		fmt.Printf("failed to init logger: %v\n", err)
		os.Exit(1)
	}

	cfgPath := os.Getenv("SENSEBOARD_CONFIG_PATH")
	cfg, err := config.Load(cfgPath, bootLog)
	if err != nil {
		bootLog.Fatal("failed to load config", "error", err)
	}

	log, err := logger.New(logMode, cfg.Logging.Level)
	if err != nil {
		bootLog.Fatal("failed to init logger at configured level", "error", err)
	}
	defer log.Sync()

	log.Info("senseboard: starting", "aiProvider", cfg.AI.Provider, "port", cfg.Server.Port)

	chain := aiprovider.NewChain(cfg.AI, log.SugaredLogger.Desugar())

	store, err := personalization.Open(cfg.Personalization.SQLitePath, cfg.Personalization.MaxContextLines, log)
	if err != nil {
		log.Fatal("failed to open personalization store", "error", err)
	}
	defer store.Close()

	router := transcribe.NewRouter(
		mustOpenAI(cfg, log),
		mustAnthropic(cfg, log),
		mustCodexCLI(cfg, log),
		cfg.EnableCodexTranscribeFallback,
	)

	hub := broadcast.NewHub(log)
	if cfg.Redis.Addr != "" {
		pub, err := broadcast.NewRedisPublisher(cfg.Redis.Addr, cfg.Redis.ChannelPrefix, log)
		if err != nil {
			log.Warn("senseboard: redis publisher disabled", "error", err)
		} else {
			hub.SetPublisher(pub)
			defer pub.Close()
		}
	}

	registry := httpapi.NewRegistry(hub, log)

	engine := orchestrator.NewEngine(registry, chain, log.SugaredLogger.Desugar())
	engine.SetContextProvider(store)

	ws := wsapi.NewServer(registry, engine, log)
	handlers := httpapi.NewHandlers(registry, engine, chain, router, store, log)
	httpRouter := httpapi.NewRouter(handlers, ws.Handler(), log)

	ln, addr, err := listenWithPortScan(cfg.Server.Port, cfg.Server.PortScanSpan)
	if err != nil {
		log.Fatal("senseboard: failed to bind", "error", err)
	}
	srv := &http.Server{Addr: addr, Handler: httpRouter}
	log.Info("senseboard: listening", "addr", addr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("senseboard: server error", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("senseboard: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("senseboard: graceful shutdown error", "error", err)
	}
}

// listenWithPortScan implements spec §6's "if the configured port is
// already bound, try the next one" behavior: the teacher's own cmd/main.go
// binds a single fixed port, so this retry loop is new code grounded
// directly in the spec text rather than an existing teacher pattern.
func listenWithPortScan(port, span int) (net.Listener, string, error) {
	if span <= 0 {
		span = 1
	}
	var lastErr error
	for i := 0; i < span; i++ {
		addr := fmt.Sprintf(":%d", port+i)
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			return ln, addr, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, "", err
		}
		lastErr = err
	}
	return nil, "", fmt.Errorf("no free port in [%d, %d): %w", port, port+span, lastErr)
}

func mustOpenAI(cfg *config.Config, log *logger.Logger) *aiprovider.OpenAIClient {
	c, err := aiprovider.NewOpenAI(cfg.AI.OpenAIAPIKey, cfg.AI.OpenAIModel, cfg.AI.OpenAITranscriptionModel)
	if err != nil {
		log.Warn("senseboard: openai client unavailable", "error", err)
		return nil
	}
	return c
}

func mustAnthropic(cfg *config.Config, log *logger.Logger) *aiprovider.AnthropicClient {
	c, err := aiprovider.NewAnthropic(cfg.AI.AnthropicAPIKey, cfg.AI.AnthropicModel)
	if err != nil {
		log.Warn("senseboard: anthropic client unavailable", "error", err)
		return nil
	}
	return c
}

func mustCodexCLI(cfg *config.Config, log *logger.Logger) *aiprovider.CodexCLIClient {
	c, err := aiprovider.NewCodexCLI(cfg.AI.CodexModel, config.CodexCLITimeout, config.CodexCLIPingTimeout, nil)
	if err != nil {
		log.Warn("senseboard: codex cli client unavailable", "error", err)
		return nil
	}
	return c
}
