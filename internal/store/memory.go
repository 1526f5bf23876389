package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/atmx/bingo-engine/internal/model"
)

// MemoryStore implements Store with an in-memory map.
type MemoryStore struct {
	mu      sync.RWMutex
	tickets map[string]*model.Ticket
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tickets: make(map[string]*model.Ticket),
	}
}

func (s *MemoryStore) CreateTicket(_ context.Context, t *model.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tickets[t.ID]; ok {
		return fmt.Errorf("%w: %s", ErrTicketExists, t.ID)
	}
	s.tickets[t.ID] = cloneTicket(t)
	return nil
}

func (s *MemoryStore) GetTicket(_ context.Context, id string) (*model.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tickets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTicketNotFound, id)
	}
	return cloneTicket(t), nil
}

func (s *MemoryStore) UpdateTicket(_ context.Context, t *model.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tickets[t.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTicketNotFound, t.ID)
	}
	updated := cloneTicket(t)
	updated.CreatedAt = existing.CreatedAt
	s.tickets[t.ID] = updated
	return nil
}

func (s *MemoryStore) ListTickets(_ context.Context) ([]model.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tickets := make([]model.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		tickets = append(tickets, *cloneTicket(t))
	}
	sort.Slice(tickets, func(i, j int) bool {
		if tickets[i].CreatedAt.Equal(tickets[j].CreatedAt) {
			return tickets[i].ID < tickets[j].ID
		}
		return tickets[i].CreatedAt.Before(tickets[j].CreatedAt)
	})
	return tickets, nil
}

// cloneTicket copies a ticket including its number slice so callers cannot
// mutate stored state.
func cloneTicket(t *model.Ticket) *model.Ticket {
	c := *t
	c.Bet.Numbers = append([]int(nil), t.Bet.Numbers...)
	return &c
}
