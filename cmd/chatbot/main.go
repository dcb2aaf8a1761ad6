package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Omarrvv/final-bot-sub003/pkg/api"
	"github.com/Omarrvv/final-bot-sub003/pkg/chatbot"
	"github.com/Omarrvv/final-bot-sub003/pkg/config"
	"github.com/Omarrvv/final-bot-sub003/pkg/dialog"
	"github.com/Omarrvv/final-bot-sub003/pkg/generative"
	"github.com/Omarrvv/final-bot-sub003/pkg/knowledge"
	"github.com/Omarrvv/final-bot-sub003/pkg/nlu"
	"github.com/Omarrvv/final-bot-sub003/pkg/observability/logging"
	"github.com/Omarrvv/final-bot-sub003/pkg/session"
	"github.com/Omarrvv/final-bot-sub003/pkg/svccache"
)

func main() {
	var (
		configPath  = flag.String("config", "config/config.yaml", "Path to the configuration file")
		port        = flag.Int("port", 8080, "Port to listen on for the chat API")
		metricsPort = flag.Int("metrics-port", 9190, "Port for Prometheus metrics")
	)
	flag.Parse()

	if _, err := logging.InitLoggerFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
	}

	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		logging.Fatalf("Config file not found: %s", *configPath)
	}
	cfg, err := config.Parse(*configPath)
	if err != nil {
		logging.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics server.
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		metricsAddr := fmt.Sprintf(":%d", *metricsPort)
		logging.Infof("Starting metrics server on %s", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, nil); err != nil {
			logging.Errorf("Metrics server error: %v", err)
		}
	}()

	bot, sessions, cleanup, err := buildChatbot(ctx, cfg)
	if err != nil {
		logging.Fatalf("Failed to build chatbot: %v", err)
	}
	defer cleanup()

	server := api.NewServer(bot, sessions, *port)
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logging.Infof("Shutdown signal received, draining requests")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logging.Errorf("Shutdown error: %v", err)
		}
	case err := <-errCh:
		logging.Fatalf("Chat API server error: %v", err)
	}
}

// buildChatbot wires every component from config. Construction failures are
// configuration errors; they stop the process before any message is served.
func buildChatbot(ctx context.Context, cfg *config.Config) (*chatbot.Chatbot, session.Store, func(), error) {
	intents, err := config.LoadIntents(cfg.NLU.IntentsFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading intent catalog: %w", err)
	}
	flows, err := config.LoadFlows(cfg.Dialog.FlowsFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading dialog flows: %w", err)
	}

	knowStore, err := knowledge.NewStore(cfg.Knowledge)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating knowledge store: %w", err)
	}
	sessions, err := session.NewStore(cfg.Session)
	if err != nil {
		knowStore.Close()
		return nil, nil, nil, fmt.Errorf("creating session store: %w", err)
	}
	cleanup := func() {
		if err := sessions.Close(); err != nil {
			logging.Warnf("Closing session store: %v", err)
		}
		if err := knowStore.Close(); err != nil {
			logging.Warnf("Closing knowledge store: %v", err)
		}
	}

	detector := nlu.NewLanguageDetector(cfg.NLU.Language)
	embedder := nlu.NewOpenAIEmbedder(cfg.NLU.Embedding)
	classifier, err := nlu.NewClassifier(ctx, intents, embedder, cfg.NLU)
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("creating intent classifier: %w", err)
	}

	extractors := make(map[string]*nlu.Extractor, len(cfg.NLU.Language.Supported))
	for _, lang := range cfg.NLU.Language.Supported {
		base := config.BaseLanguage(lang)
		if _, ok := extractors[base]; ok {
			continue
		}
		extractors[base] = nlu.NewExtractor(base, cfg.NLU.Entity, nlu.WithResolver(knowStore))
	}

	engine, err := nlu.NewEngine(cfg.NLU, detector, classifier, extractors)
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("creating NLU engine: %w", err)
	}
	manager, err := dialog.NewManager(flows, cfg)
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("creating dialog manager: %w", err)
	}
	generator, err := generative.New(cfg.Generative)
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("creating generative client: %w", err)
	}

	var opts []chatbot.Option
	if len(cfg.Services) > 0 {
		hub := chatbot.NewCachedHub(chatbot.NewHTTPHub(cfg.Services), svccache.New(cfg.Cache))
		opts = append(opts, chatbot.WithServiceHub(hub))
	}

	bot, err := chatbot.New(cfg, engine, manager, sessions, knowStore, generator, opts...)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	return bot, sessions, cleanup, nil
}
