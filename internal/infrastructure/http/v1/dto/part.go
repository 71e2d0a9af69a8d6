package dto

import (
	"strings"

	"ebase/internal/domain/catalogs/part"
)

// CreatePartRequest registers a spare part.
type CreatePartRequest struct {
	Article      string  `json:"article" binding:"required,max=50"`
	Name         string  `json:"name" binding:"required,max=300"`
	Unit         string  `json:"unit" binding:"required"`
	IsExpiration bool    `json:"isExpiration"`
	Comment      *string `json:"comment"`
}

// ToEntity converts request to domain entity.
func (r *CreatePartRequest) ToEntity() *part.Part {
	p := part.NewPart(r.Article, r.Name, r.Unit, r.IsExpiration)
	p.Comment = trimmed(r.Comment)
	return p
}

// UpdatePartRequest edits a part; Version must match the stored one.
type UpdatePartRequest struct {
	Article      *string `json:"article" binding:"omitempty,max=50"`
	Name         *string `json:"name" binding:"omitempty,max=300"`
	Unit         *string `json:"unit"`
	IsExpiration *bool   `json:"isExpiration"`
	Comment      *string `json:"comment"`
	Version      int     `json:"version" binding:"required,min=1"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdatePartRequest) ApplyTo(p *part.Part) {
	if r.Article != nil {
		p.Article = strings.TrimSpace(*r.Article)
	}
	if r.Name != nil {
		p.Name = strings.TrimSpace(*r.Name)
	}
	if r.Unit != nil {
		p.Unit = strings.TrimSpace(*r.Unit)
	}
	if r.IsExpiration != nil {
		p.IsExpiration = *r.IsExpiration
	}
	if r.Comment != nil {
		p.Comment = trimmed(r.Comment)
	}
	p.Version = r.Version
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
