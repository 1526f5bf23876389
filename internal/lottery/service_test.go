package lottery_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atmx/bingo-engine/internal/cache"
	"github.com/atmx/bingo-engine/internal/lottery"
	"github.com/atmx/bingo-engine/internal/model"
	"github.com/atmx/bingo-engine/internal/prize"
	"github.com/atmx/bingo-engine/internal/settle"
	"github.com/atmx/bingo-engine/internal/store"
)

// fakeFetcher returns a canned sweep and counts calls.
type fakeFetcher struct {
	result model.FetchResult
	calls  int32
}

func (f *fakeFetcher) Fetch(context.Context) model.FetchResult {
	atomic.AddInt32(&f.calls, 1)
	return f.result
}

// winning builds a draw containing 1..20.
func winning(id string) model.DrawRecord {
	nums := make([]int, 20)
	for i := range nums {
		nums[i] = i + 1
	}
	return model.DrawRecord{DrawID: id, DrawnAt: "2024-05-01 09:05", Numbers: nums}
}

func okResult(records ...model.DrawRecord) model.FetchResult {
	return model.FetchResult{Records: records, Success: true, Source: "official", FetchedAt: time.Now().UTC()}
}

func failedResult() model.FetchResult {
	return model.FetchResult{
		Records:    []model.DrawRecord{},
		Source:     "none",
		Diagnostic: "official: source: unexpected status 502",
	}
}

// newTestEnv creates a Service over an in-memory cache and store with a chi
// router mounted like the server does.
func newTestEnv(t *testing.T, f *fakeFetcher, opts lottery.Options) (*lottery.Service, chi.Router) {
	t.Helper()
	engine, err := settle.NewEngine(prize.Default())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	svc := lottery.NewService(f, cache.NewMemoryCache[model.FetchResult](time.Minute), engine, store.NewMemoryStore(), opts)

	r := chi.NewRouter()
	r.Route("/api/v1", svc.Routes)
	return svc, r
}

func do(t *testing.T, router chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func threeStar(start string, span int) map[string]any {
	return map[string]any{
		"mode":          "star_pick",
		"stars":         3,
		"numbers":       []int{1, 2, 3},
		"multiplier":    4,
		"draw_span":     span,
		"start_draw_id": start,
	}
}

// --- Draws ---

func TestGetDraws_CachesSnapshot(t *testing.T) {
	f := &fakeFetcher{result: okResult(winning("113000123"))}
	_, router := newTestEnv(t, f, lottery.Options{})

	for i := 0; i < 3; i++ {
		w := do(t, router, "GET", "/api/v1/draws", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	}
	if f.calls != 1 {
		t.Errorf("expected 1 upstream sweep, got %d", f.calls)
	}

	w := do(t, router, "POST", "/api/v1/draws/refresh", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if f.calls != 2 {
		t.Errorf("refresh should sweep again, got %d sweeps", f.calls)
	}

	var res model.FetchResult
	json.Unmarshal(w.Body.Bytes(), &res)
	if !res.Success || res.Source != "official" || len(res.Records) != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestGetDraws_FailureIsReportedAndNotCached(t *testing.T) {
	f := &fakeFetcher{result: failedResult()}
	_, router := newTestEnv(t, f, lottery.Options{})

	w := do(t, router, "GET", "/api/v1/draws", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var res model.FetchResult
	json.Unmarshal(w.Body.Bytes(), &res)
	if res.Success || res.Synthetic || len(res.Records) != 0 {
		t.Errorf("failed sweep must not carry records: %+v", res)
	}
	if !strings.Contains(res.Diagnostic, "502") {
		t.Errorf("expected diagnostic to be passed through, got %q", res.Diagnostic)
	}

	do(t, router, "GET", "/api/v1/draws", nil)
	if f.calls != 2 {
		t.Errorf("failures must not be cached, got %d sweeps", f.calls)
	}
}

func TestGetDraws_SyntheticFallback(t *testing.T) {
	f := &fakeFetcher{result: failedResult()}
	_, router := newTestEnv(t, f, lottery.Options{AllowSynthetic: true})

	w := do(t, router, "GET", "/api/v1/draws", nil)
	var res model.FetchResult
	json.Unmarshal(w.Body.Bytes(), &res)
	if !res.Synthetic || res.Source != lottery.SyntheticSource {
		t.Fatalf("expected flagged synthetic result, got %+v", res)
	}
	if len(res.Records) == 0 || res.Diagnostic == "" {
		t.Errorf("expected sample draws and the original diagnostic, got %+v", res)
	}
}

// --- Settlement ---

func TestSettle_StarPick(t *testing.T) {
	f := &fakeFetcher{result: okResult(winning("113000123"), winning("113000125"))}
	_, router := newTestEnv(t, f, lottery.Options{})

	w := do(t, router, "POST", "/api/v1/settle", threeStar("113000123", 3))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var res model.SettlementResult
	json.Unmarshal(w.Body.Bytes(), &res)
	if res.TotalCost != 300 {
		t.Errorf("expected cost 300, got %d", res.TotalCost)
	}
	if len(res.Rows) != 2 || res.TotalPrize != 4000 {
		t.Errorf("expected 2 rows paying 4000, got %d rows paying %d", len(res.Rows), res.TotalPrize)
	}
	if len(res.MissingDrawIDs) != 1 || res.MissingDrawIDs[0] != "113000124" {
		t.Errorf("expected 113000124 missing, got %v", res.MissingDrawIDs)
	}
	if res.Profit != 3700 {
		t.Errorf("expected profit 3700, got %d", res.Profit)
	}
}

func TestSettle_BonusFlag(t *testing.T) {
	f := &fakeFetcher{result: okResult(winning("113000123"))}
	_, router := newTestEnv(t, f, lottery.Options{BonusActive: true})

	// Configured default applies when the request is silent.
	w := do(t, router, "POST", "/api/v1/settle", threeStar("113000123", 1))
	var res model.SettlementResult
	json.Unmarshal(w.Body.Bytes(), &res)
	if !res.BonusActive || res.TotalPrize != 4000 {
		t.Errorf("expected bonus prize 4000, got %d (bonus=%v)", res.TotalPrize, res.BonusActive)
	}

	body := threeStar("113000123", 1)
	body["bonus_active"] = false
	w = do(t, router, "POST", "/api/v1/settle", body)
	json.Unmarshal(w.Body.Bytes(), &res)
	if res.BonusActive || res.TotalPrize != 2000 {
		t.Errorf("expected normal prize 2000, got %d (bonus=%v)", res.TotalPrize, res.BonusActive)
	}
}

func TestSettle_NoDrawsInRange(t *testing.T) {
	f := &fakeFetcher{result: okResult(winning("113000123"))}
	_, router := newTestEnv(t, f, lottery.Options{})

	w := do(t, router, "POST", "/api/v1/settle", threeStar("999999999", 5))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var res model.SettlementResult
	json.Unmarshal(w.Body.Bytes(), &res)
	if res.Status != model.StatusNoDrawsInRange || len(res.Rows) != 0 || res.TotalCost != 500 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestSettle_ValidationErrors(t *testing.T) {
	f := &fakeFetcher{result: okResult(winning("113000123"))}
	_, router := newTestEnv(t, f, lottery.Options{})

	tests := []struct {
		name string
		body any
		want string
	}{
		{"malformed json", `{"mode":`, "invalid request body"},
		{"unknown mode", map[string]any{"mode": "lucky", "multiplier": 1, "draw_span": 1, "start_draw_id": "1"}, "mode must be one of"},
		{"non numeric start", map[string]any{"mode": "size_guess", "choice": "big", "multiplier": 1, "draw_span": 1, "start_draw_id": "abc"}, "start_draw_id must be a numeric draw id"},
		{"span too long", map[string]any{"mode": "size_guess", "choice": "big", "multiplier": 1, "draw_span": 5000, "start_draw_id": "1"}, "draw_span must be at most 1000"},
		{"number out of range", map[string]any{"mode": "star_pick", "stars": 1, "numbers": []int{81}, "multiplier": 1, "draw_span": 1, "start_draw_id": "1"}, "numbers[0] must be at most 80"},
		{"star count mismatch", map[string]any{"mode": "star_pick", "stars": 3, "numbers": []int{1, 2}, "multiplier": 1, "draw_span": 1, "start_draw_id": "1"}, "invalid bet"},
		{"bad parity choice", map[string]any{"mode": "parity_guess", "choice": "big", "multiplier": 1, "draw_span": 1, "start_draw_id": "1"}, "invalid bet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, "POST", "/api/v1/settle", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tt.want) {
				t.Errorf("expected error containing %q, got %s", tt.want, w.Body.String())
			}
		})
	}
	if f.calls != 0 {
		t.Errorf("invalid bets must not trigger a fetch, got %d sweeps", f.calls)
	}
}

func TestSettle_SourcesUnavailable(t *testing.T) {
	for _, synthetic := range []bool{false, true} {
		f := &fakeFetcher{result: failedResult()}
		_, router := newTestEnv(t, f, lottery.Options{AllowSynthetic: synthetic})

		w := do(t, router, "POST", "/api/v1/settle", threeStar("113000123", 1))
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("synthetic=%v: expected 503, got %d", synthetic, w.Code)
		}
		if !strings.Contains(w.Body.String(), "draw sources unavailable") {
			t.Errorf("unexpected body: %s", w.Body.String())
		}
	}
}

// --- Prizes and stats ---

func TestGetPrizes(t *testing.T) {
	_, router := newTestEnv(t, &fakeFetcher{}, lottery.Options{})

	w := do(t, router, "GET", "/api/v1/prizes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp lottery.PrizesResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.UnitPrice != 25 {
		t.Errorf("expected unit price 25, got %d", resp.UnitPrice)
	}
	if resp.Normal[3][3] != 500 || resp.Bonus[3][3] != 1000 {
		t.Errorf("unexpected 3-star tiers: normal=%d bonus=%d", resp.Normal[3][3], resp.Bonus[3][3])
	}
}

func TestGetFrequency(t *testing.T) {
	f := &fakeFetcher{result: okResult(winning("113000123"), winning("113000124"))}
	_, router := newTestEnv(t, f, lottery.Options{})

	w := do(t, router, "GET", "/api/v1/stats/frequency?top=3", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp lottery.FrequencyResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Draws != 2 || len(resp.Hot) != 3 || resp.Hot[0].Number != 1 || resp.Hot[0].Count != 2 {
		t.Errorf("unexpected hot numbers: %+v", resp.Hot)
	}
	if resp.Cold[0].Number != 21 || resp.Cold[0].Count != 0 {
		t.Errorf("unexpected cold numbers: %+v", resp.Cold)
	}

	if w := do(t, router, "GET", "/api/v1/stats/frequency?top=0", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for top=0, got %d", w.Code)
	}
}

// --- Tickets ---

func TestTickets_Lifecycle(t *testing.T) {
	f := &fakeFetcher{result: okResult(winning("113000123"))}
	_, router := newTestEnv(t, f, lottery.Options{})

	w := do(t, router, "POST", "/api/v1/tickets", map[string]any{
		"label": "lunch break",
		"bet":   threeStar("113000123", 2),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created model.Ticket
	json.Unmarshal(w.Body.Bytes(), &created)
	if created.ID == "" || created.Label != "lunch break" {
		t.Fatalf("unexpected ticket: %+v", created)
	}

	w = do(t, router, "GET", "/api/v1/tickets/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	update := threeStar("113000123", 1)
	update["multiplier"] = 2
	w = do(t, router, "PUT", "/api/v1/tickets/"+created.ID, map[string]any{"label": "renamed", "bet": update})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = do(t, router, "GET", "/api/v1/tickets/"+created.ID+"/settlement", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var ts lottery.TicketSettlement
	json.Unmarshal(w.Body.Bytes(), &ts)
	if ts.Ticket.Label != "renamed" || ts.Settlement.TotalPrize != 1000 || ts.Settlement.TotalCost != 50 {
		t.Errorf("unexpected settlement: ticket=%+v settlement=%+v", ts.Ticket, ts.Settlement)
	}

	w = do(t, router, "GET", "/api/v1/tickets", nil)
	var list []model.Ticket
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 1 {
		t.Errorf("expected 1 ticket, got %d", len(list))
	}
}

func TestTickets_Errors(t *testing.T) {
	_, router := newTestEnv(t, &fakeFetcher{}, lottery.Options{})

	if w := do(t, router, "GET", "/api/v1/tickets/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if w := do(t, router, "GET", "/api/v1/tickets/nope/settlement", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if w := do(t, router, "PUT", "/api/v1/tickets/nope", map[string]any{"bet": threeStar("1", 1)}); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}

	bad := threeStar("1", 1)
	bad["numbers"] = []int{1, 1, 2}
	if w := do(t, router, "POST", "/api/v1/tickets", map[string]any{"bet": bad}); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for duplicate numbers, got %d", w.Code)
	}

	w := do(t, router, "GET", "/api/v1/tickets", nil)
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("expected empty list, got %s", w.Body.String())
	}
}

func TestWarm(t *testing.T) {
	f := &fakeFetcher{result: failedResult()}
	svc, _ := newTestEnv(t, f, lottery.Options{AllowSynthetic: true})

	// Warm reports the failure even when synthetic fallback is on.
	if err := svc.Warm(context.Background()); err == nil {
		t.Error("expected warm to fail")
	}

	f.result = okResult(winning("113000123"))
	if err := svc.Warm(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := svc.Draws(context.Background())
	if err != nil || res.Synthetic || f.calls != 2 {
		t.Errorf("expected warmed snapshot to be served, got %+v err=%v calls=%d", res, err, f.calls)
	}
}

func TestWarm_FailureKeepsSnapshot(t *testing.T) {
	f := &fakeFetcher{result: okResult(winning("113000123"))}
	svc, router := newTestEnv(t, f, lottery.Options{CacheTTL: 5 * time.Minute})

	if _, err := svc.Draws(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.result = failedResult()
	if err := svc.Warm(context.Background()); err == nil {
		t.Fatal("expected warm to fail")
	}

	w := do(t, router, "GET", "/api/v1/draws", nil)
	var res model.FetchResult
	json.Unmarshal(w.Body.Bytes(), &res)
	if !res.Success || len(res.Records) != 1 || res.Records[0].DrawID != "113000123" {
		t.Errorf("expected the earlier snapshot after a failed warm, got %+v", res)
	}
	if f.calls != 2 {
		t.Errorf("expected 2 sweeps (prime and warm), got %d", f.calls)
	}

	// Settlement keeps working off the held snapshot.
	if w := do(t, router, "POST", "/api/v1/settle", threeStar("113000123", 1)); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}
