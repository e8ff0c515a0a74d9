// Package server hosts the stock assistant behind an A2A endpoint and
// exposes its conversation state and transcript DAG for inspection.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/tickertape/pkg/a2a"
	"github.com/papercomputeco/tickertape/pkg/assistant"
	"github.com/papercomputeco/tickertape/pkg/chat"
	"github.com/papercomputeco/tickertape/pkg/conversation"
	"github.com/papercomputeco/tickertape/pkg/extract"
	"github.com/papercomputeco/tickertape/pkg/intent"
	"github.com/papercomputeco/tickertape/pkg/logger"
	"github.com/papercomputeco/tickertape/pkg/lookup"
	"github.com/papercomputeco/tickertape/pkg/mcpagent"
	"github.com/papercomputeco/tickertape/pkg/merkle"
	"github.com/papercomputeco/tickertape/pkg/ollama"
	"github.com/papercomputeco/tickertape/pkg/transcript"
)

// Server wires the assistant to its collaborators and serves it over HTTP.
type Server struct {
	config     Config
	assistant  *assistant.Assistant
	store      *conversation.Store
	classifier *intent.KeywordClassifier
	recorder   *transcript.Recorder
	backend    *ollama.Client
	closers    []io.Closer
	logger     *zap.Logger
	server     *fiber.App
}

// New builds a Server from config. Collaborators reached over MCP are
// connected here, so ctx bounds the dial.
func New(ctx context.Context, config Config, logger *zap.Logger) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		config: config,
		store:  conversation.NewStore(),
		logger: logger,
	}

	var storer merkle.Storer
	if config.DBPath != "" {
		sqliteStorer, err := merkle.NewSQLiteStorer(config.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite storer: %w", err)
		}
		storer = sqliteStorer
		logger.Info("using SQLite transcript storage", zap.String("path", config.DBPath))
	} else {
		storer = merkle.NewMemoryStorer()
		logger.Info("using in-memory transcript storage")
	}
	s.closers = append(s.closers, storer)
	s.recorder = transcript.NewRecorder(storer, logger)

	vocab := intent.DefaultVocabulary()
	if config.VocabularyPath != "" {
		v, err := intent.LoadVocabulary(config.VocabularyPath)
		if err != nil {
			s.Close()
			return nil, err
		}
		vocab = v
	}
	s.classifier = intent.NewKeywordClassifier(vocab)

	s.backend = ollama.New(config.OllamaHost, config.Model, logger, ollama.WithTimeout(config.BackendTimeout.Duration))

	tickerAgent, err := s.dialAgent(ctx, "ticker", config.TickerAgent)
	if err != nil {
		s.Close()
		return nil, err
	}
	priceAgent, err := s.dialAgent(ctx, "price", config.PriceAgent)
	if err != nil {
		s.Close()
		return nil, err
	}

	responder := chat.NewResponder(s.backend, s.store, config.SystemPrompt, logger)
	extractor := extract.NewCompanyExtractor(responder, s.classifier, logger)
	pipeline := lookup.NewPipeline(tickerAgent, priceAgent, logger, lookup.WithTimeout(config.AgentTimeout.Duration))

	s.assistant = assistant.New(s.classifier, extractor, pipeline, responder, logger)
	s.assistant.Observe(s.record)

	s.server = fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})
	s.routes(s.server)

	return s, nil
}

func (s *Server) dialAgent(ctx context.Context, name string, cfg AgentConfig) (lookup.Agent, error) {
	switch cfg.Transport {
	case TransportMCP:
		agent, err := mcpagent.Dial(ctx, cfg.URL, cfg.Tool, cfg.Argument)
		if err != nil {
			return nil, fmt.Errorf("failed to connect %s agent: %w", name, err)
		}
		s.closers = append(s.closers, agent)
		s.logger.Info("using mcp collaborator",
			zap.String("agent", name),
			zap.String("url", cfg.URL),
			zap.String("tool", cfg.Tool),
		)
		return agent, nil
	default:
		s.logger.Info("using a2a collaborator",
			zap.String("agent", name),
			zap.String("url", cfg.URL),
		)
		// The pipeline applies the per-call timeout through the context.
		return a2a.NewClient(cfg.URL, &http.Client{}), nil
	}
}

func (s *Server) routes(app *fiber.App) {
	a2a.Mount(app, "/a2a", s.assistant, s.logger)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	app.Get("/conversations/:id", s.handleGetConversation)

	// DAG inspection endpoints
	app.Get("/dag/stats", s.handleDAGStats)
	app.Get("/dag/node/:hash", s.handleGetNode)
	app.Get("/dag/history", s.handleListHistories)
	app.Get("/dag/history/:hash", s.handleGetHistory)
	app.Get("/dag/conversations/:id", s.handleGetTranscript)
}

// record stores each answered exchange. Failures never affect the reply.
func (s *Server) record(ctx context.Context, in, reply a2a.Message, route intent.Route) {
	headHash, err := s.recorder.Record(ctx, in, reply, string(route))
	if err != nil {
		s.logger.Error("failed to record transcript", zap.Error(err))
		return
	}
	s.logger.Debug("transcript stored", zap.String("head_hash", logger.Truncate(headHash, 16)))
}

// Probe checks that the inference backend answers. A failure is logged and
// not fatal: every backend failure is later turned into a reply anyway.
func (s *Server) Probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	version, err := s.backend.Version(ctx)
	if err != nil {
		s.logger.Warn("cannot reach inference backend",
			zap.String("ollama_host", s.config.OllamaHost),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("connected to inference backend",
		zap.String("ollama_host", s.config.OllamaHost),
		zap.String("version", version),
	)
}

// WatchVocabulary hot-reloads the configured vocabulary file until ctx is
// done. Without a vocabulary file it just waits for ctx.
func (s *Server) WatchVocabulary(ctx context.Context) error {
	if s.config.VocabularyPath == "" {
		<-ctx.Done()
		return nil
	}
	return intent.WatchVocabulary(ctx, s.config.VocabularyPath, s.classifier.SetVocabulary, s.logger)
}

// Handler returns the assistant as an a2a.Handler.
func (s *Server) Handler() a2a.Handler {
	return s.assistant
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting tickertape server",
		zap.String("listen", s.config.ListenAddr),
		zap.String("ollama_host", s.config.OllamaHost),
		zap.String("model", s.config.Model),
	)

	return s.server.Listen(s.config.ListenAddr)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.ShutdownWithContext(ctx)
}

// Close releases storage and collaborator sessions.
func (s *Server) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
