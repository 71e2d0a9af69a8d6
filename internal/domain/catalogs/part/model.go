// Package part provides the spare part catalog.
package part

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"ebase/internal/core/apperror"
	"ebase/internal/core/entity"
)

// Part is a sparable component tracked by the inventory ledger.
// (Article, Name) is unique.
type Part struct {
	entity.BaseEntity

	Article string `db:"article" json:"article"`
	Name    string `db:"name" json:"name"`

	// Unit is the unit of measure (шт., компл., л)
	Unit string `db:"unit" json:"unit"`

	// IsExpiration marks parts whose stock lots carry an expiration date.
	IsExpiration bool `db:"is_expiration" json:"isExpiration"`

	Comment *string `db:"comment" json:"comment,omitempty"`
}

// NewPart creates a new Part with required fields.
func NewPart(article, name, unit string, isExpiration bool) *Part {
	return &Part{
		BaseEntity:   entity.NewBaseEntity(),
		Article:      strings.TrimSpace(article),
		Name:         strings.TrimSpace(name),
		Unit:         strings.TrimSpace(unit),
		IsExpiration: isExpiration,
	}
}

// Validate implements entity.Validatable interface.
func (p *Part) Validate(_ context.Context) error {
	if strings.TrimSpace(p.Article) == "" {
		return apperror.NewValidation("article is required").WithField("article")
	}
	if utf8.RuneCountInString(p.Article) > 50 {
		return apperror.NewValidation("article must be at most 50 characters").WithField("article")
	}
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("name is required").WithField("name")
	}
	if utf8.RuneCountInString(p.Name) > 256 {
		return apperror.NewValidation("name must be at most 256 characters").WithField("name")
	}
	return nil
}

// Title renders the part the way acts and comments print it: "name (арт. article)".
func (p *Part) Title() string {
	return fmt.Sprintf("%s (арт. %s)", p.Name, p.Article)
}
