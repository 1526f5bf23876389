// Package lottery provides the service layer and HTTP handlers that tie the
// draw aggregator, the draw cache, the settlement engine and the ticket
// store together.
//
// Money is whole NTD in int64 throughout; only the return rate is a decimal.
package lottery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/atmx/bingo-engine/internal/cache"
	"github.com/atmx/bingo-engine/internal/drawid"
	"github.com/atmx/bingo-engine/internal/metrics"
	"github.com/atmx/bingo-engine/internal/model"
	"github.com/atmx/bingo-engine/internal/prize"
	"github.com/atmx/bingo-engine/internal/settle"
	"github.com/atmx/bingo-engine/internal/stats"
	"github.com/atmx/bingo-engine/internal/store"
)

// ErrSourcesUnavailable means no strategy produced draws and no fallback
// applies.
var ErrSourcesUnavailable = errors.New("lottery: draw sources unavailable")

// Fetcher runs one sweep over the draw sources. *source.Aggregator
// satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context) model.FetchResult
}

// Options configures a Service.
type Options struct {
	CacheTTL       time.Duration
	BonusActive    bool // default when a request does not say
	AllowSynthetic bool
}

// Service handles draw, settlement and ticket operations.
type Service struct {
	fetcher Fetcher
	cache   cache.Cache[model.FetchResult]
	engine  *settle.Engine
	store   store.Store
	opts    Options
	now     func() time.Time
}

// NewService creates a new lottery service.
func NewService(f Fetcher, c cache.Cache[model.FetchResult], engine *settle.Engine, st store.Store, opts Options) *Service {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 60 * time.Second
	}
	return &Service{
		fetcher: f,
		cache:   c,
		engine:  engine,
		store:   st,
		opts:    opts,
		now:     time.Now,
	}
}

// Tables returns the payout configuration the engine settles with.
func (s *Service) Tables() prize.Tables {
	return s.engine.Tables()
}

// BonusActive reports the configured default bonus flag.
func (s *Service) BonusActive() bool {
	return s.opts.BonusActive
}

// Draws returns the latest fetch result, from cache when fresh. When every
// source fails the error wraps ErrSourcesUnavailable and the failed result
// (empty records, joined diagnostic) is returned alongside it, unless
// synthetic fallback is enabled.
func (s *Service) Draws(ctx context.Context) (model.FetchResult, error) {
	res, hit, err := s.cache.GetOrRefresh(ctx, s.opts.CacheTTL, s.fetch)
	if hit {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, ErrSourcesUnavailable) {
		// The cache could not even run the refresh; report it the same way.
		err = fmt.Errorf("%w: %w", ErrSourcesUnavailable, err)
	}
	if s.opts.AllowSynthetic {
		slog.Warn("serving synthetic draws", "diagnostic", res.Diagnostic)
		return syntheticResult(res, s.now()), nil
	}
	return res, err
}

// Refresh drops the cached snapshot and fetches again.
func (s *Service) Refresh(ctx context.Context) (model.FetchResult, error) {
	if err := s.cache.Invalidate(ctx); err != nil {
		slog.Warn("cache invalidate failed", "err", err)
	}
	return s.Draws(ctx)
}

// Warm is the background refresh job. A successful sweep replaces the
// snapshot; a failed one leaves the current snapshot to live out its ttl and
// is reported without fallback so the scheduler logs it.
func (s *Service) Warm(ctx context.Context) error {
	_, err := s.cache.Refresh(ctx, s.opts.CacheTTL, s.fetch)
	return err
}

func (s *Service) fetch(ctx context.Context) (model.FetchResult, error) {
	res := s.fetcher.Fetch(ctx)
	if !res.Success {
		return res, fmt.Errorf("%w: %s", ErrSourcesUnavailable, res.Diagnostic)
	}

	metrics.DrawsCached.Set(float64(len(res.Records)))
	ids := make([]string, len(res.Records))
	for i, r := range res.Records {
		ids[i] = r.DrawID
	}
	if gaps := drawid.Gaps(ids); len(gaps) > 0 {
		slog.Info("draw id gaps in snapshot", "source", res.Source, "gaps", len(gaps), "first_after", gaps[0].After)
	}
	return res, nil
}

// Settle validates bet, loads draws and settles it. Validation failures wrap
// settle.ErrInvalidBet. Synthetic draws are never settled against.
func (s *Service) Settle(ctx context.Context, bet model.BetSpec, bonusActive bool) (*model.SettlementResult, error) {
	if err := settle.Validate(bet); err != nil {
		return nil, err
	}

	res, err := s.Draws(ctx)
	if err != nil {
		return nil, err
	}
	if res.Synthetic {
		return nil, fmt.Errorf("%w: only synthetic draws available", ErrSourcesUnavailable)
	}

	result, err := s.engine.Settle(bet, model.NewDrawCollection(res.Records), bonusActive)
	if err != nil {
		return nil, err
	}

	metrics.Settlements.WithLabelValues(string(bet.Mode), result.Status).Inc()
	metrics.PrizePaid.WithLabelValues(string(bet.Mode)).Add(float64(result.TotalPrize))
	slog.Info("bet settled",
		"mode", bet.Mode,
		"start", bet.StartDrawID,
		"span", bet.DrawSpan,
		"multiplier", bet.Multiplier,
		"bonus", bonusActive,
		"rows", len(result.Rows),
		"missing", len(result.MissingDrawIDs),
		"cost", result.TotalCost,
		"prize", result.TotalPrize,
	)
	return result, nil
}

// Frequency tallies numbers over the current snapshot.
func (s *Service) Frequency(ctx context.Context) (stats.Frequency, stats.Distribution, model.FetchResult, error) {
	res, err := s.Draws(ctx)
	if err != nil {
		return stats.Frequency{}, stats.Distribution{}, res, err
	}
	return stats.Tally(res.Records), stats.Distribute(res.Records, s.engine.Tables()), res, nil
}

// CreateTicket validates and stores a new ticket.
func (s *Service) CreateTicket(ctx context.Context, label string, bet model.BetSpec, bonusActive bool) (*model.Ticket, error) {
	if err := settle.Validate(bet); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	t := &model.Ticket{
		ID:          uuid.New().String(),
		Label:       label,
		Bet:         bet,
		BonusActive: bonusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateTicket(ctx, t); err != nil {
		return nil, err
	}
	slog.Info("ticket created", "id", t.ID, "mode", bet.Mode, "start", bet.StartDrawID)
	return t, nil
}

// GetTicket returns a stored ticket.
func (s *Service) GetTicket(ctx context.Context, id string) (*model.Ticket, error) {
	return s.store.GetTicket(ctx, id)
}

// UpdateTicket replaces a ticket's label and bet.
func (s *Service) UpdateTicket(ctx context.Context, id, label string, bet model.BetSpec, bonusActive bool) (*model.Ticket, error) {
	if err := settle.Validate(bet); err != nil {
		return nil, err
	}
	t, err := s.store.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Label = label
	t.Bet = bet
	t.BonusActive = bonusActive
	t.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateTicket(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ListTickets returns every stored ticket, oldest first.
func (s *Service) ListTickets(ctx context.Context) ([]model.Ticket, error) {
	return s.store.ListTickets(ctx)
}

// SettleTicket settles a stored ticket against the current draws.
func (s *Service) SettleTicket(ctx context.Context, id string) (*model.Ticket, *model.SettlementResult, error) {
	t, err := s.store.GetTicket(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	result, err := s.Settle(ctx, t.Bet, t.BonusActive)
	if err != nil {
		return t, nil, err
	}
	return t, result, nil
}
