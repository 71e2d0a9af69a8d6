// Package acts renders the Word acts of a repair: the repair act and the two
// transfer acts. Templates are ordinary .docx files; a Descriptor tells the
// renderer which table plays which role.
package acts

import (
	"time"

	"ebase/internal/domain/repair"
)

// Role is the meaning of a template table.
type Role string

const (
	// RoleRequisites holds client and equipment placeholders.
	RoleRequisites    Role = "requisites"
	RoleDescription   Role = "description"
	RoleWorkPerformed Role = "work_performed"
	RoleParts         Role = "parts"
	RoleAccessories   Role = "accessories"
	RoleReplacement   Role = "replacement"
)

// Anchor tokens template authors put into a table to mark its role.
const (
	AnchorRequisites    = "{{ CLIENT }}"
	AnchorDescription   = "{{ DESCRIPTION }}"
	AnchorWorkPerformed = "{{ JOB_CONTENT }}"
	AnchorParts         = "{{ PARTS }}"
	AnchorAccessories   = "{{ ACCESSORIES }}"
	AnchorReplacement   = "{{ REPLACEMENT_ITEMS }}"
)

// Region binds a role to a table of the template.
//
// The table is found by Anchor first. Index is the 1-based table position used
// by templates that predate anchors; zero disables positional lookup.
type Region struct {
	Role     Role
	Anchor   string
	Index    int
	Required bool

	// Row is the 1-based row receiving free text when the table was found by Index.
	Row int
	// FirstRow is the 1-based first item row of a list table found by Index.
	// Tables found by Anchor list items below the anchor row.
	FirstRow int
}

// Descriptor describes one act template.
type Descriptor struct {
	Kind     repair.ActKind
	Template string
	// Dir is the directory under the documents root that collects acts of this kind.
	Dir    string
	Prefix string
	// FontSize of substituted runs in half-points; zero keeps the template size.
	FontSize int
	Regions  []Region
	// Date picks the act date printed in the document and in the file name.
	Date func(rec *repair.Record) *time.Time
}

// Region returns the region for role, if the descriptor declares one.
func (d *Descriptor) Region(role Role) (Region, bool) {
	for _, r := range d.Regions {
		if r.Role == role {
			return r, true
		}
	}
	return Region{}, false
}

func endDate(rec *repair.Record) *time.Time { return rec.EndDate }

func begDate(rec *repair.Record) *time.Time {
	d := rec.BegDate
	return &d
}

// DefaultDescriptors returns the descriptors of the stock templates.
// The repair act keeps the positional layout of the MEDSIL service act template.
func DefaultDescriptors() map[repair.ActKind]*Descriptor {
	return map[repair.ActKind]*Descriptor{
		repair.ActRepair: {
			Kind:     repair.ActRepair,
			Template: "service_akt.docx",
			Dir:      "service_akt",
			Prefix:   "service_akt",
			FontSize: 20,
			Date:     endDate,
			Regions: []Region{
				{Role: RoleRequisites, Anchor: AnchorRequisites, Index: 1, Required: true},
				{Role: RoleDescription, Anchor: AnchorDescription, Index: 2, Row: 4, Required: true},
				{Role: RoleWorkPerformed, Anchor: AnchorWorkPerformed, Index: 3, Row: 1, Required: true},
				{Role: RoleParts, Anchor: AnchorParts, Index: 4, FirstRow: 1},
				{Role: RoleAccessories, Anchor: AnchorAccessories},
			},
		},
		repair.ActTransferIn: {
			Kind:     repair.ActTransferIn,
			Template: "transfer_in_akt.docx",
			Dir:      "transfer_in_akt",
			Prefix:   "transfer_in_akt",
			FontSize: 22,
			Date:     begDate,
			Regions: []Region{
				{Role: RoleRequisites, Anchor: AnchorRequisites, Index: 1, Required: true},
				{Role: RoleAccessories, Anchor: AnchorAccessories},
				{Role: RoleReplacement, Anchor: AnchorReplacement},
			},
		},
		repair.ActTransferOut: {
			Kind:     repair.ActTransferOut,
			Template: "transfer_out_akt.docx",
			Dir:      "transfer_out_akt",
			Prefix:   "transfer_out_akt",
			FontSize: 22,
			Date:     endDate,
			Regions: []Region{
				{Role: RoleRequisites, Anchor: AnchorRequisites, Index: 1, Required: true},
				{Role: RoleAccessories, Anchor: AnchorAccessories},
				{Role: RoleReplacement, Anchor: AnchorReplacement},
			},
		},
	}
}
