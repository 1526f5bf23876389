// Package source implements the draw-source aggregator: an ordered list of
// fetch strategies (relay + target + parser) tried one after another until
// one yields at least one valid draw.
//
// Upstreams are best effort. Every transport or parse failure is recorded as
// a short diagnostic and the sweep moves on; the aggregator never invents
// data. It holds no mutable state, so concurrent sweeps are independent.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/atmx/bingo-engine/internal/metrics"
	"github.com/atmx/bingo-engine/internal/model"
)

const (
	// DefaultTimeout bounds a single strategy attempt.
	DefaultTimeout = 5 * time.Second

	// DefaultUserAgent is sent with every upstream request; some mirrors
	// reject the Go default.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/122.0.0.0"

	maxBodyBytes = 4 << 20
)

var (
	ErrNoStrategies = errors.New("source: no strategies configured")
	ErrBadStatus    = errors.New("source: unexpected status")
)

// Strategy is one way of obtaining draws.
type Strategy struct {
	Name   string
	Target string
	Relay  Relay
	Parser Parser
}

// URL returns the request URL after relaying.
func (s Strategy) URL() string {
	if s.Relay == nil {
		return s.Target
	}
	return s.Relay.Wrap(s.Target)
}

// Aggregator runs strategies in priority order; the first success wins.
type Aggregator struct {
	client     *http.Client
	strategies []Strategy
	timeout    time.Duration
	userAgent  string
}

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(a *Aggregator) { a.userAgent = ua }
}

// New creates an aggregator. A nil client uses a fresh http.Client; request
// deadlines come from the per-attempt context, not the client.
func New(client *http.Client, strategies []Strategy, opts ...Option) *Aggregator {
	if client == nil {
		client = &http.Client{}
	}
	a := &Aggregator{
		client:     client,
		strategies: append([]Strategy(nil), strategies...),
		timeout:    DefaultTimeout,
		userAgent:  DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Strategies returns the strategy names in priority order.
func (a *Aggregator) Strategies() []string {
	names := make([]string, len(a.strategies))
	for i, s := range a.strategies {
		names[i] = s.Name
	}
	return names
}

// Fetch sweeps the strategies once. On success Records holds the draws from
// the first strategy that produced any and Source names it. When every
// strategy fails Success is false, Records is empty and Diagnostic joins
// the individual failures.
func (a *Aggregator) Fetch(ctx context.Context) model.FetchResult {
	result := model.FetchResult{
		Records:   []model.DrawRecord{},
		Source:    "none",
		FetchedAt: time.Now().UTC(),
	}
	if len(a.strategies) == 0 {
		result.Diagnostic = ErrNoStrategies.Error()
		return result
	}

	var diagnostics []string
	for _, s := range a.strategies {
		if ctx.Err() != nil {
			diagnostics = append(diagnostics, fmt.Sprintf("%s: %v", s.Name, ctx.Err()))
			break
		}

		start := time.Now()
		records, err := a.attempt(ctx, s)
		elapsed := time.Since(start)
		metrics.FetchLatency.WithLabelValues(s.Name).Observe(elapsed.Seconds())

		attempt := model.Attempt{Strategy: s.Name, Duration: elapsed}
		if err != nil {
			attempt.Error = err.Error()
			result.Attempts = append(result.Attempts, attempt)
			diagnostics = append(diagnostics, fmt.Sprintf("%s: %v", s.Name, err))
			metrics.FetchAttempts.WithLabelValues(s.Name, "failure").Inc()
			slog.Warn("draw source failed", "strategy", s.Name, "err", err, "elapsed", elapsed)
			continue
		}

		attempt.OK = true
		attempt.Records = len(records)
		result.Attempts = append(result.Attempts, attempt)
		metrics.FetchAttempts.WithLabelValues(s.Name, "success").Inc()
		slog.Info("draw source succeeded", "strategy", s.Name, "records", len(records), "elapsed", elapsed)

		result.Records = records
		result.Success = true
		result.Source = s.Name
		result.Diagnostic = strings.Join(diagnostics, "; ")
		return result
	}

	metrics.FetchSweepFailures.Inc()
	result.Diagnostic = strings.Join(diagnostics, "; ")
	return result
}

func (a *Aggregator) attempt(ctx context.Context, s Strategy) ([]model.DrawRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w %d", ErrBadStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if s.Parser == nil {
		return nil, fmt.Errorf("strategy %s has no parser", s.Name)
	}
	return s.Parser.Parse(body)
}
