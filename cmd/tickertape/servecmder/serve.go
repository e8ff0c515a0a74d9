package servecmder

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/tickertape/pkg/logger"
	"github.com/papercomputeco/tickertape/server"
)

const serveLongDesc string = `Run the stock assistant as an A2A agent.

Configuration is read from a TOML file when --config is given. Flags
override values from the file.

Examples:
  tickertape serve
  tickertape serve --config tickertape.toml --debug
  tickertape serve --listen :5000 --model llama3 --db ~/.tickertape/transcripts.db`

const serveShortDesc string = "Run the assistant server"

type serveCommander struct {
	configPath string
	listenAddr string
	ollamaHost string
	model      string
	tickerURL  string
	priceURL   string
	vocabulary string
	dbPath     string
	debug      bool
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to TOML config file")
	cmd.Flags().StringVarP(&cmder.listenAddr, "listen", "l", "", "Address to listen on")
	cmd.Flags().StringVar(&cmder.ollamaHost, "ollama-host", "", "Ollama base URL")
	cmd.Flags().StringVarP(&cmder.model, "model", "m", "", "Model used for chat and extraction")
	cmd.Flags().StringVar(&cmder.tickerURL, "ticker-agent", "", "Ticker lookup agent URL")
	cmd.Flags().StringVar(&cmder.priceURL, "price-agent", "", "Price lookup agent URL")
	cmd.Flags().StringVar(&cmder.vocabulary, "vocabulary", "", "Path to a TOML keyword vocabulary (reloaded on change)")
	cmd.Flags().StringVar(&cmder.dbPath, "db", "", "Path to SQLite transcript database (default: in-memory)")
	cmd.Flags().BoolVarP(&cmder.debug, "debug", "d", false, "Enable debug logging")

	return cmd
}

// config resolves the server configuration from the file and flags.
func (c *serveCommander) config() (server.Config, error) {
	cfg := server.DefaultConfig()
	if c.configPath != "" {
		loaded, err := server.LoadConfig(c.configPath)
		if err != nil {
			return server.Config{}, err
		}
		cfg = loaded
	}

	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.ListenAddr, c.listenAddr)
	override(&cfg.OllamaHost, c.ollamaHost)
	override(&cfg.Model, c.model)
	override(&cfg.TickerAgent.URL, c.tickerURL)
	override(&cfg.PriceAgent.URL, c.priceURL)
	override(&cfg.VocabularyPath, c.vocabulary)
	override(&cfg.DBPath, c.dbPath)

	return cfg, cfg.Validate()
}

func (c *serveCommander) run(ctx context.Context, _ *cobra.Command, _ []string) error {
	cfg, err := c.config()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.NewLogger(c.debug)
	defer func() { _ = log.Sync() }()

	s, err := server.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("could not create server: %w", err)
	}
	defer s.Close()

	s.Probe(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(s.Run)
	g.Go(func() error {
		return s.WatchVocabulary(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Error("server failed", zap.Error(err))
		return err
	}
	return nil
}
