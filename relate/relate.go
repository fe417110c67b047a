// Package relate stores the ticket the next commit relates to.
package relate

import (
	"context"
	"errors"
	"strings"

	"github.com/jeffrom/mit/model"
	"github.com/jeffrom/mit/vcs"
)

// TicketKey holds the current relation. It never expires on its own.
const TicketKey = "mit.relate.ticket-number"

var ErrEmptyTicket = errors.New("relate: ticket must not be empty")

type Store struct {
	store vcs.ConfigStore
}

func New(store vcs.ConfigStore) *Store {
	return &Store{store: store}
}

func (s *Store) Set(ctx context.Context, ticket string) error {
	ticket = strings.TrimSpace(ticket)
	if ticket == "" {
		return ErrEmptyTicket
	}
	return s.store.Set(ctx, TicketKey, ticket)
}

func (s *Store) Get(ctx context.Context) (model.Relation, bool, error) {
	v, ok, err := s.store.Get(ctx, TicketKey)
	if err != nil || !ok || v == "" {
		return model.Relation{}, false, err
	}
	return model.Relation{Ticket: v}, true, nil
}

func (s *Store) Clear(ctx context.Context) error {
	return s.store.Remove(ctx, TicketKey)
}
