// Package entity provides the building blocks shared by catalogs, documents and registers.
package entity

import (
	"context"
	"time"

	"ebase/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	Validate(ctx context.Context) error
}

// BaseEntity contains the identity and optimistic-lock version of a record.
type BaseEntity struct {
	ID id.ID `db:"id" json:"id"`

	// Version for optimistic locking; Update succeeds only against the stored
	// version and increments it.
	Version int `db:"version" json:"version"`
}

// NewBaseEntity creates a new BaseEntity with generated ID.
func NewBaseEntity() BaseEntity {
	return BaseEntity{
		ID:      id.New(),
		Version: 1,
	}
}

// NextVersion advances the version after the repository stored an update.
func (b *BaseEntity) NextVersion() {
	b.Version++
}

// BaseDocument extends BaseEntity with audit fields for documents.
type BaseDocument struct {
	BaseEntity

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewBaseDocument creates a new BaseDocument with generated ID and timestamps.
func NewBaseDocument(userID string) BaseDocument {
	now := time.Now().UTC()
	return BaseDocument{
		BaseEntity: NewBaseEntity(),
		CreatedAt:  now,
		UpdatedAt:  now,
		CreatedBy:  userID,
		UpdatedBy:  userID,
	}
}

// Touch stamps the modification time and author.
// Version is advanced by the repository when the update is stored.
func (b *BaseDocument) Touch(userID string) {
	b.UpdatedAt = time.Now().UTC()
	b.UpdatedBy = userID
}
