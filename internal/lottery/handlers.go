package lottery

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atmx/bingo-engine/internal/model"
	"github.com/atmx/bingo-engine/internal/prize"
	"github.com/atmx/bingo-engine/internal/settle"
	"github.com/atmx/bingo-engine/internal/stats"
	"github.com/atmx/bingo-engine/internal/store"
)

const defaultTop = 10

// Routes mounts the API handlers on r.
func (s *Service) Routes(r chi.Router) {
	// Draws.
	r.Get("/draws", s.GetDraws)
	r.Post("/draws/refresh", s.RefreshDraws)

	// Payout configuration and settlement.
	r.Get("/prizes", s.GetPrizes)
	r.Post("/settle", s.SettleBet)

	r.Get("/stats/frequency", s.GetFrequency)

	// Stored tickets.
	r.Get("/tickets", s.ListTicketsHandler)
	r.Post("/tickets", s.CreateTicketHandler)
	r.Get("/tickets/{ticketID}", s.GetTicketHandler)
	r.Put("/tickets/{ticketID}", s.UpdateTicketHandler)
	r.Get("/tickets/{ticketID}/settlement", s.SettleTicketHandler)
}

// GetDraws handles GET /api/v1/draws
// A failed sweep is still returned as 200 with success=false so the caller
// sees the diagnostic.
func (s *Service) GetDraws(w http.ResponseWriter, r *http.Request) {
	res, err := s.Draws(r.Context())
	if err != nil {
		slog.Warn("draws unavailable", "err", err)
	}
	writeJSON(w, http.StatusOK, res)
}

// RefreshDraws handles POST /api/v1/draws/refresh
func (s *Service) RefreshDraws(w http.ResponseWriter, r *http.Request) {
	res, err := s.Refresh(r.Context())
	if err != nil {
		slog.Warn("refresh failed", "err", err)
	}
	writeJSON(w, http.StatusOK, res)
}

// PrizesResponse is the payout configuration view.
type PrizesResponse struct {
	UnitPrice   int64             `json:"unit_price"`
	BonusActive bool              `json:"bonus_active"`
	Normal      prize.Table       `json:"normal"`
	Bonus       prize.Table       `json:"bonus"`
	Size        map[string]int64  `json:"size"`
	Parity      map[string]int64  `json:"parity"`
	SizeBands   prize.SizeBands   `json:"size_bands"`
	ParityBands prize.ParityBands `json:"parity_bands"`
}

// GetPrizes handles GET /api/v1/prizes
func (s *Service) GetPrizes(w http.ResponseWriter, r *http.Request) {
	t := s.Tables()
	writeJSON(w, http.StatusOK, PrizesResponse{
		UnitPrice:   model.UnitPrice,
		BonusActive: s.opts.BonusActive,
		Normal:      t.Normal,
		Bonus:       t.Bonus,
		Size:        t.Size,
		Parity:      t.Parity,
		SizeBands:   t.SizeBands,
		ParityBands: t.ParityBands,
	})
}

// SettleBet handles POST /api/v1/settle
func (s *Service) SettleBet(w http.ResponseWriter, r *http.Request) {
	var req BetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	result, err := s.Settle(r.Context(), req.Spec(), s.bonus(req.BonusActive))
	if err != nil {
		writeSettleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// FrequencyResponse is the GET /stats/frequency body.
type FrequencyResponse struct {
	Source       string              `json:"source"`
	Synthetic    bool                `json:"synthetic"`
	Draws        int                 `json:"draws"`
	Hot          []stats.NumberCount `json:"hot"`
	Cold         []stats.NumberCount `json:"cold"`
	Counts       []stats.NumberCount `json:"counts"`
	Distribution stats.Distribution  `json:"distribution"`
}

// GetFrequency handles GET /api/v1/stats/frequency?top=N
func (s *Service) GetFrequency(w http.ResponseWriter, r *http.Request) {
	top := defaultTop
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > model.MaxNumber {
			writeError(w, "top must be between 1 and 80", http.StatusBadRequest)
			return
		}
		top = n
	}

	freq, dist, res, err := s.Frequency(r.Context())
	if err != nil {
		writeError(w, "draw sources unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, FrequencyResponse{
		Source:       res.Source,
		Synthetic:    res.Synthetic,
		Draws:        freq.Draws,
		Hot:          freq.Hot(top),
		Cold:         freq.Cold(top),
		Counts:       freq.Counts,
		Distribution: dist,
	})
}

// ListTicketsHandler handles GET /api/v1/tickets
func (s *Service) ListTicketsHandler(w http.ResponseWriter, r *http.Request) {
	tickets, err := s.ListTickets(r.Context())
	if err != nil {
		writeError(w, "failed to list tickets", http.StatusInternalServerError)
		return
	}
	if tickets == nil {
		tickets = []model.Ticket{}
	}
	writeJSON(w, http.StatusOK, tickets)
}

// CreateTicketHandler handles POST /api/v1/tickets
func (s *Service) CreateTicketHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeTicket(w, r)
	if !ok {
		return
	}
	t, err := s.CreateTicket(r.Context(), req.Label, req.Bet.Spec(), s.bonus(req.Bet.BonusActive))
	if err != nil {
		writeTicketError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// GetTicketHandler handles GET /api/v1/tickets/{ticketID}
func (s *Service) GetTicketHandler(w http.ResponseWriter, r *http.Request) {
	t, err := s.GetTicket(r.Context(), chi.URLParam(r, "ticketID"))
	if err != nil {
		writeTicketError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// UpdateTicketHandler handles PUT /api/v1/tickets/{ticketID}
func (s *Service) UpdateTicketHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeTicket(w, r)
	if !ok {
		return
	}
	t, err := s.UpdateTicket(r.Context(), chi.URLParam(r, "ticketID"), req.Label, req.Bet.Spec(), s.bonus(req.Bet.BonusActive))
	if err != nil {
		writeTicketError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// TicketSettlement pairs a ticket with its settlement.
type TicketSettlement struct {
	Ticket     *model.Ticket           `json:"ticket"`
	Settlement *model.SettlementResult `json:"settlement"`
}

// SettleTicketHandler handles GET /api/v1/tickets/{ticketID}/settlement
func (s *Service) SettleTicketHandler(w http.ResponseWriter, r *http.Request) {
	t, result, err := s.SettleTicket(r.Context(), chi.URLParam(r, "ticketID"))
	if err != nil {
		if errors.Is(err, store.ErrTicketNotFound) {
			writeError(w, "ticket not found", http.StatusNotFound)
			return
		}
		writeSettleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TicketSettlement{Ticket: t, Settlement: result})
}

func (s *Service) bonus(flag *bool) bool {
	if flag == nil {
		return s.opts.BonusActive
	}
	return *flag
}

func decodeTicket(w http.ResponseWriter, r *http.Request) (TicketRequest, bool) {
	var req TicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return req, false
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, validationMessage(err), http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func writeSettleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, settle.ErrInvalidBet):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrSourcesUnavailable):
		slog.Warn("settlement without draws", "err", err)
		writeError(w, "draw sources unavailable", http.StatusServiceUnavailable)
	default:
		slog.Error("settlement failed", "err", err)
		writeError(w, "internal error", http.StatusInternalServerError)
	}
}

func writeTicketError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, settle.ErrInvalidBet):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrTicketNotFound):
		writeError(w, "ticket not found", http.StatusNotFound)
	case errors.Is(err, store.ErrTicketExists):
		writeError(w, err.Error(), http.StatusConflict)
	default:
		slog.Error("ticket operation failed", "err", err)
		writeError(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
