// Package store defines the ticket store: the caller-owned key/value store
// of saved bets, keyed by ticket id. The settlement engine never touches it;
// the HTTP layer reads tickets and hands their bets to the engine.
//
// Tickets live for the lifetime of the process only.
package store

import (
	"context"
	"errors"

	"github.com/atmx/bingo-engine/internal/model"
)

var (
	ErrTicketNotFound = errors.New("store: ticket not found")
	ErrTicketExists   = errors.New("store: ticket already exists")
)

// Store is the ticket persistence interface.
type Store interface {
	// CreateTicket stores a new ticket.
	CreateTicket(ctx context.Context, ticket *model.Ticket) error

	// GetTicket retrieves a ticket by its ID.
	GetTicket(ctx context.Context, id string) (*model.Ticket, error)

	// UpdateTicket replaces the bet, label and bonus flag of a ticket.
	UpdateTicket(ctx context.Context, ticket *model.Ticket) error

	// ListTickets returns all tickets, oldest first.
	ListTickets(ctx context.Context) ([]model.Ticket, error)
}
