// Package lookup resolves a company name to a ticker and a live price by
// querying two collaborator agents in sequence.
package lookup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/tickertape/pkg/logger"
)

// DefaultTimeout bounds each collaborator call.
const DefaultTimeout = 30 * time.Second

// Agent answers one natural-language request with one natural-language reply.
type Agent interface {
	Ask(ctx context.Context, text string) (string, error)
}

// AgentFunc adapts a function to Agent.
type AgentFunc func(ctx context.Context, text string) (string, error)

func (f AgentFunc) Ask(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// Result is the outcome of a successful lookup. It is never persisted.
type Result struct {
	Company string
	Ticker  string
	Price   string
}

// Compose renders the reply sent to the user.
func (r Result) Compose() string {
	return fmt.Sprintf("%s (%s): %s", r.Company, r.Ticker, r.Price)
}

// Pipeline asks the ticker agent first and, only on success, the price agent.
type Pipeline struct {
	tickerAgent Agent
	priceAgent  Agent
	parser      TickerParser
	timeout     time.Duration
	logger      *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithParser replaces the ticker parser.
func WithParser(p TickerParser) Option {
	return func(pl *Pipeline) { pl.parser = p }
}

// WithTimeout bounds each collaborator call; zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(pl *Pipeline) { pl.timeout = d }
}

// NewPipeline creates a Pipeline over the two collaborators.
func NewPipeline(tickerAgent, priceAgent Agent, log *zap.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		tickerAgent: tickerAgent,
		priceAgent:  priceAgent,
		parser:      DefaultParser(),
		timeout:     DefaultTimeout,
		logger:      log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TickerRequest and PriceRequest are the texts sent to the collaborators.
func TickerRequest(company string) string { return fmt.Sprintf("What's the ticker for %s?", company) }
func PriceRequest(ticker string) string   { return fmt.Sprintf("What's the current price of %s?", ticker) }

// Lookup resolves company. It returns ErrNotFound when the company is empty
// or the ticker reply does not name a ticker, in which case the price agent
// is not called, and *LookupError when a collaborator fails.
func (p *Pipeline) Lookup(ctx context.Context, company string) (*Result, error) {
	if company == "" {
		return nil, ErrNotFound{}
	}

	tickerReply, err := p.ask(ctx, StepTicker, p.tickerAgent, TickerRequest(company))
	if err != nil {
		return nil, err
	}

	ticker, ok := p.parser.ParseTicker(tickerReply)
	if !ok {
		p.logger.Info("ticker not found",
			zap.String("company", company),
			zap.String("reply", logger.Truncate(tickerReply, 100)),
		)
		return nil, ErrNotFound{Company: company}
	}

	price, err := p.ask(ctx, StepPrice, p.priceAgent, PriceRequest(ticker))
	if err != nil {
		return nil, err
	}

	return &Result{Company: company, Ticker: ticker, Price: price}, nil
}

func (p *Pipeline) ask(ctx context.Context, step Step, agent Agent, text string) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := agent.Ask(ctx, text)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		p.logger.Warn("collaborator call failed",
			zap.String("step", string(step)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return "", &LookupError{Step: step, Err: err}
	}

	p.logger.Debug("collaborator replied",
		zap.String("step", string(step)),
		zap.String("reply", logger.Truncate(reply, 100)),
		zap.Duration("duration", time.Since(start)),
	)
	return reply, nil
}
