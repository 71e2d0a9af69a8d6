package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"ebase/internal/core/apperror"
	"ebase/internal/core/id"
	"ebase/internal/domain"
	"ebase/internal/domain/documents/shipment"
	"ebase/internal/domain/documents/supply"
)

// SupplyRepo implements supply.Repository.
type SupplyRepo struct{ store *Store }

var _ supply.Repository = (*SupplyRepo)(nil)

// Create implements supply.Repository.
func (r *SupplyRepo) Create(ctx context.Context, doc *supply.Supply) error {
	return r.store.do(ctx, func(st *state) error {
		if _, ok := st.supplies[doc.ID]; ok {
			return apperror.NewDuplicate("supply", "id", doc.ID.String())
		}
		st.supplies[doc.ID] = *doc
		return nil
	})
}

// GetByID implements supply.Repository.
func (r *SupplyRepo) GetByID(ctx context.Context, docID id.ID) (*supply.Supply, error) {
	var out *supply.Supply
	err := r.store.do(ctx, func(st *state) error {
		doc, ok := st.supplies[docID]
		if !ok {
			return apperror.NewNotFound("supply", docID.String())
		}
		out = &doc
		return nil
	})
	return out, err
}

// GetForUpdate implements supply.Repository.
func (r *SupplyRepo) GetForUpdate(ctx context.Context, docID id.ID) (*supply.Supply, error) {
	return r.GetByID(ctx, docID)
}

// Delete implements supply.Repository.
func (r *SupplyRepo) Delete(ctx context.Context, docID id.ID) error {
	return r.store.do(ctx, func(st *state) error {
		if _, ok := st.supplies[docID]; !ok {
			return apperror.NewNotFound("supply", docID.String())
		}
		delete(st.supplies, docID)
		return nil
	})
}

// List implements supply.Repository. Newest supplies come first.
func (r *SupplyRepo) List(ctx context.Context, f supply.ListFilter) (domain.ListResult[*supply.Supply], error) {
	var items []*supply.Supply
	err := r.store.do(ctx, func(st *state) error {
		for _, doc := range st.supplies {
			if f.PartID != nil && doc.PartID != *f.PartID {
				continue
			}
			if !inRange(doc.SupplyDate, f.DateFrom, f.DateTo) {
				continue
			}
			if !matches(f.Search, doc.DocNum, deref(doc.Comment)) {
				continue
			}
			items = append(items, &doc)
		}
		return nil
	})
	if err != nil {
		return domain.ListResult[*supply.Supply]{}, err
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].SupplyDate.Equal(items[j].SupplyDate) {
			return items[i].SupplyDate.After(items[j].SupplyDate)
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return domain.Paginate(items, f.ListFilter), nil
}

// ShipmentRepo implements shipment.Repository.
type ShipmentRepo struct{ store *Store }

var _ shipment.Repository = (*ShipmentRepo)(nil)

// Create implements shipment.Repository. Lines are stored separately by SaveLines.
func (r *ShipmentRepo) Create(ctx context.Context, doc *shipment.Shipment) error {
	return r.store.do(ctx, func(st *state) error {
		if _, ok := st.shipments[doc.ID]; ok {
			return apperror.NewDuplicate("shipment", "id", doc.ID.String())
		}
		cp := *doc
		cp.Lines = nil
		st.shipments[doc.ID] = cp
		return nil
	})
}

// GetByID implements shipment.Repository. Lines are not loaded.
func (r *ShipmentRepo) GetByID(ctx context.Context, docID id.ID) (*shipment.Shipment, error) {
	var out *shipment.Shipment
	err := r.store.do(ctx, func(st *state) error {
		doc, ok := st.shipments[docID]
		if !ok {
			return apperror.NewNotFound("shipment", docID.String())
		}
		out = &doc
		return nil
	})
	return out, err
}

// GetForUpdate implements shipment.Repository.
func (r *ShipmentRepo) GetForUpdate(ctx context.Context, docID id.ID) (*shipment.Shipment, error) {
	return r.GetByID(ctx, docID)
}

// Update implements shipment.Repository.
func (r *ShipmentRepo) Update(ctx context.Context, doc *shipment.Shipment) error {
	return r.store.do(ctx, func(st *state) error {
		cur, ok := st.shipments[doc.ID]
		if !ok || cur.Version != doc.Version {
			return apperror.NewConcurrentModification("shipment", doc.ID.String())
		}
		doc.NextVersion()
		cp := *doc
		cp.Lines = nil
		st.shipments[doc.ID] = cp
		return nil
	})
}

// Delete implements shipment.Repository; lines go with the header.
func (r *ShipmentRepo) Delete(ctx context.Context, docID id.ID) error {
	return r.store.do(ctx, func(st *state) error {
		if _, ok := st.shipments[docID]; !ok {
			return apperror.NewNotFound("shipment", docID.String())
		}
		delete(st.shipments, docID)
		delete(st.lines, docID)
		for k, rec := range st.repairs {
			if rec.ShipmentID != nil && *rec.ShipmentID == docID {
				rec.ShipmentID = nil
				st.repairs[k] = rec
			}
		}
		return nil
	})
}

// GetLines implements shipment.Repository.
func (r *ShipmentRepo) GetLines(ctx context.Context, docID id.ID) ([]shipment.Line, error) {
	var out []shipment.Line
	err := r.store.do(ctx, func(st *state) error {
		out = slices.Clone(st.lines[docID])
		return nil
	})
	return out, err
}

// SaveLines implements shipment.Repository.
func (r *ShipmentRepo) SaveLines(ctx context.Context, docID id.ID, lines []shipment.Line) error {
	return r.store.do(ctx, func(st *state) error {
		if _, ok := st.shipments[docID]; !ok {
			return apperror.NewNotFound("shipment", docID.String())
		}
		st.lines[docID] = slices.Clone(lines)
		return nil
	})
}

// List implements shipment.Repository. Newest shipments come first.
func (r *ShipmentRepo) List(ctx context.Context, f shipment.ListFilter) (domain.ListResult[*shipment.Shipment], error) {
	var items []*shipment.Shipment
	err := r.store.do(ctx, func(st *state) error {
		for _, doc := range st.shipments {
			if f.RepairID != nil && (doc.RepairID == nil || *doc.RepairID != *f.RepairID) {
				continue
			}
			if f.PartID != nil && !slices.ContainsFunc(st.lines[doc.ID], func(l shipment.Line) bool {
				return l.PartID == *f.PartID
			}) {
				continue
			}
			if !inRange(doc.ShipmentDate, f.DateFrom, f.DateTo) {
				continue
			}
			if !matches(f.Search, doc.DocNum, deref(doc.Comment)) {
				continue
			}
			items = append(items, &doc)
		}
		return nil
	})
	if err != nil {
		return domain.ListResult[*shipment.Shipment]{}, err
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].ShipmentDate.Equal(items[j].ShipmentDate) {
			return items[i].ShipmentDate.After(items[j].ShipmentDate)
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return domain.Paginate(items, f.ListFilter), nil
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
