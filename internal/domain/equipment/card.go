// Package equipment exposes the read model of installed equipment needed by
// repairs and acts: the unit itself, its owner and its installation site.
package equipment

import (
	"context"
	"strings"

	"ebase/internal/core/id"
)

// Client is the owner organization of an installed unit.
type Client struct {
	ID      id.ID   `db:"id" json:"id"`
	Name    string  `db:"name" json:"name"`
	INN     *string `db:"inn" json:"inn,omitempty"`
	KPP     *string `db:"kpp" json:"kpp,omitempty"`
	Address *string `db:"address" json:"address,omitempty"`
	Phone   *string `db:"phone" json:"phone,omitempty"`
	Email   *string `db:"email" json:"email,omitempty"`
}

// Department is an installation site of a client.
type Department struct {
	ID      id.ID   `db:"id" json:"id"`
	Name    string  `db:"name" json:"name"`
	Address *string `db:"address" json:"address,omitempty"`
	City    *string `db:"city" json:"city,omitempty"`
}

// Contact is the responsible person at the installation site.
type Contact struct {
	Surname    string  `db:"surname" json:"surname"`
	Name       *string `db:"name" json:"name,omitempty"`
	Patronymic *string `db:"patronymic" json:"patronymic,omitempty"`
	Position   *string `db:"position" json:"position,omitempty"`
	MobPhone   *string `db:"mob_phone" json:"mobPhone,omitempty"`
	WorkPhone  *string `db:"work_phone" json:"workPhone,omitempty"`
	Email      *string `db:"email" json:"email,omitempty"`
}

// ShortName renders "Surname N. P.".
func (c *Contact) ShortName() string {
	var b strings.Builder
	b.WriteString(c.Surname)
	for _, part := range []*string{c.Name, c.Patronymic} {
		if part == nil {
			continue
		}
		r := []rune(strings.TrimSpace(*part))
		if len(r) == 0 {
			continue
		}
		b.WriteString(" ")
		b.WriteString(string(r[0]))
		b.WriteString(".")
	}
	return b.String()
}

// Phone returns the mobile phone, falling back to the work phone.
func (c *Contact) Phone() *string {
	if c.MobPhone != nil && *c.MobPhone != "" {
		return c.MobPhone
	}
	return c.WorkPhone
}

// Card is one accounted equipment unit with the context acts print.
type Card struct {
	AccountingID id.ID  `json:"accountingId"`
	FullName     string `json:"fullName"`
	ShortName    string `json:"shortName"`
	SerialNumber string `json:"serialNumber"`

	Client *Client `json:"client,omitempty"`
	// Department is the first active installation site; nil when the unit is not installed anywhere.
	Department *Department `json:"department,omitempty"`
	Contact    *Contact    `json:"contact,omitempty"`
}

// DisplayShortName falls back to the full name when no short name is set.
func (c *Card) DisplayShortName() string {
	if strings.TrimSpace(c.ShortName) != "" {
		return c.ShortName
	}
	return c.FullName
}

// Directory loads equipment cards.
type Directory interface {
	// GetCard returns a NOT_FOUND AppError for an unknown accounting ID.
	GetCard(ctx context.Context, accountingID id.ID) (*Card, error)
}
