// Package audit defines the audit trail contract used by document services.
package audit

import (
	"context"

	"ebase/internal/core/id"
)

// Action is the type of audited operation.
type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionGenerate Action = "generate"
)

// Event is one audited change of an entity.
type Event struct {
	EntityType string
	EntityID   id.ID
	Action     Action
	// Changes is serialized as JSON; large payloads are compressed by the store.
	Changes any
}

// Recorder persists audit events. Implementations join the caller's transaction.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

// Nop discards events.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Event) error { return nil }

// OrNop returns r, or Nop when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return Nop{}
	}
	return r
}
