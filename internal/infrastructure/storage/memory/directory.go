package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"ebase/internal/core/apperror"
	"ebase/internal/core/id"
	"ebase/internal/domain/audit"
	"ebase/internal/domain/equipment"
)

// Directory implements equipment.Directory over cards put by seeding code.
type Directory struct{ store *Store }

var _ equipment.Directory = (*Directory)(nil)

// GetCard implements equipment.Directory.
func (d *Directory) GetCard(ctx context.Context, accountingID id.ID) (*equipment.Card, error) {
	var out *equipment.Card
	err := d.store.do(ctx, func(st *state) error {
		c, ok := st.cards[accountingID]
		if !ok {
			return apperror.NewNotFound("equipment", accountingID.String())
		}
		out = &c
		return nil
	})
	return out, err
}

// Put registers or replaces a card.
func (d *Directory) Put(ctx context.Context, card equipment.Card) error {
	return d.store.do(ctx, func(st *state) error {
		st.cards[card.AccountingID] = card
		return nil
	})
}

// LoadCards puts every card of a JSON array and returns how many were loaded.
// Nothing is stored when any card lacks an accounting id.
func (d *Directory) LoadCards(ctx context.Context, r io.Reader) (int, error) {
	var cards []equipment.Card
	if err := json.NewDecoder(r).Decode(&cards); err != nil {
		return 0, fmt.Errorf("decode equipment cards: %w", err)
	}
	for i, c := range cards {
		if id.IsNil(c.AccountingID) {
			return 0, apperror.NewValidation("equipment card has no accounting id").
				WithField(fmt.Sprintf("[%d].accountingId", i))
		}
	}
	err := d.store.do(ctx, func(st *state) error {
		for _, c := range cards {
			st.cards[c.AccountingID] = c
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(cards), nil
}

// AuditLog implements audit.Recorder, keeping events in memory.
type AuditLog struct{ store *Store }

var _ audit.Recorder = (*AuditLog)(nil)

// Record implements audit.Recorder. Events of a rolled back transaction are discarded with it.
func (a *AuditLog) Record(ctx context.Context, event audit.Event) error {
	return a.store.do(ctx, func(st *state) error {
		st.audit = append(st.audit, event)
		return nil
	})
}

// Events returns a copy of the recorded events in order.
func (a *AuditLog) Events(ctx context.Context) []audit.Event {
	var out []audit.Event
	_ = a.store.do(ctx, func(st *state) error {
		out = append(out, st.audit...)
		return nil
	})
	return out
}
