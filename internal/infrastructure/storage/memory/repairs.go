package memory

import (
	"context"
	"slices"
	"sort"

	"ebase/internal/core/apperror"
	"ebase/internal/core/id"
	"ebase/internal/domain"
	"ebase/internal/domain/repair"
)

// RepairRepo implements repair.Repository.
type RepairRepo struct{ store *Store }

var _ repair.Repository = (*RepairRepo)(nil)

func storedRecord(rec *repair.Record) repair.Record {
	cp := *rec
	cp.Parts, cp.Accessories = nil, nil
	return cp
}

// Create implements repair.Repository. Usages are stored by SaveParts/SaveAccessories.
func (r *RepairRepo) Create(ctx context.Context, rec *repair.Record) error {
	return r.store.do(ctx, func(st *state) error {
		if _, ok := st.repairs[rec.ID]; ok {
			return apperror.NewDuplicate("repair", "id", rec.ID.String())
		}
		st.repairs[rec.ID] = storedRecord(rec)
		return nil
	})
}

// GetByID implements repair.Repository. Usages are not loaded.
func (r *RepairRepo) GetByID(ctx context.Context, repairID id.ID) (*repair.Record, error) {
	var out *repair.Record
	err := r.store.do(ctx, func(st *state) error {
		rec, ok := st.repairs[repairID]
		if !ok {
			return apperror.NewNotFound("repair", repairID.String())
		}
		out = &rec
		return nil
	})
	return out, err
}

// GetForUpdate implements repair.Repository.
func (r *RepairRepo) GetForUpdate(ctx context.Context, repairID id.ID) (*repair.Record, error) {
	return r.GetByID(ctx, repairID)
}

// Update implements repair.Repository.
func (r *RepairRepo) Update(ctx context.Context, rec *repair.Record) error {
	return r.store.do(ctx, func(st *state) error {
		cur, ok := st.repairs[rec.ID]
		if !ok || cur.Version != rec.Version {
			return apperror.NewConcurrentModification("repair", rec.ID.String())
		}
		rec.NextVersion()
		next := storedRecord(rec)
		// columns owned by dedicated setters
		next.ShipmentID = cur.ShipmentID
		next.RepairActPath = cur.RepairActPath
		next.TransferInActPath = cur.TransferInActPath
		next.TransferOutActPath = cur.TransferOutActPath
		st.repairs[rec.ID] = next
		return nil
	})
}

// Delete implements repair.Repository.
func (r *RepairRepo) Delete(ctx context.Context, repairID id.ID) error {
	return r.store.do(ctx, func(st *state) error {
		if _, ok := st.repairs[repairID]; !ok {
			return apperror.NewNotFound("repair", repairID.String())
		}
		delete(st.repairs, repairID)
		delete(st.usages, repairID)
		delete(st.accessories, repairID)
		for k, doc := range st.shipments {
			if doc.RepairID != nil && *doc.RepairID == repairID {
				doc.RepairID = nil
				st.shipments[k] = doc
			}
		}
		return nil
	})
}

// GetParts implements repair.Repository.
func (r *RepairRepo) GetParts(ctx context.Context, repairID id.ID) ([]repair.PartUsage, error) {
	var out []repair.PartUsage
	err := r.store.do(ctx, func(st *state) error {
		out = slices.Clone(st.usages[repairID])
		return nil
	})
	return out, err
}

// SaveParts implements repair.Repository.
func (r *RepairRepo) SaveParts(ctx context.Context, repairID id.ID, parts []repair.PartUsage) error {
	return r.store.do(ctx, func(st *state) error {
		if len(parts) == 0 {
			delete(st.usages, repairID)
			return nil
		}
		st.usages[repairID] = slices.Clone(parts)
		return nil
	})
}

// GetAccessories implements repair.Repository.
func (r *RepairRepo) GetAccessories(ctx context.Context, repairID id.ID) ([]repair.AccessoryUsage, error) {
	var out []repair.AccessoryUsage
	err := r.store.do(ctx, func(st *state) error {
		out = slices.Clone(st.accessories[repairID])
		return nil
	})
	return out, err
}

// SaveAccessories implements repair.Repository.
func (r *RepairRepo) SaveAccessories(ctx context.Context, repairID id.ID, items []repair.AccessoryUsage) error {
	return r.store.do(ctx, func(st *state) error {
		if len(items) == 0 {
			delete(st.accessories, repairID)
			return nil
		}
		st.accessories[repairID] = slices.Clone(items)
		return nil
	})
}

// SetShipment implements repair.Repository.
func (r *RepairRepo) SetShipment(ctx context.Context, repairID id.ID, shipmentID *id.ID) error {
	return r.store.do(ctx, func(st *state) error {
		rec, ok := st.repairs[repairID]
		if !ok {
			return apperror.NewNotFound("repair", repairID.String())
		}
		rec.ShipmentID = shipmentID
		st.repairs[repairID] = rec
		return nil
	})
}

// SetActPath implements repair.Repository.
func (r *RepairRepo) SetActPath(ctx context.Context, repairID id.ID, kind repair.ActKind, path string) error {
	return r.store.do(ctx, func(st *state) error {
		rec, ok := st.repairs[repairID]
		if !ok {
			return apperror.NewNotFound("repair", repairID.String())
		}
		rec.SetActPath(kind, path)
		st.repairs[repairID] = rec
		return nil
	})
}

// List implements repair.Repository. Newest repairs come first.
func (r *RepairRepo) List(ctx context.Context, f repair.ListFilter) (domain.ListResult[*repair.Record], error) {
	var items []*repair.Record
	err := r.store.do(ctx, func(st *state) error {
		for _, rec := range st.repairs {
			if f.EquipmentAccountingID != nil && rec.EquipmentAccountingID != *f.EquipmentAccountingID {
				continue
			}
			if f.OnlyOpen && !rec.IsOpen() {
				continue
			}
			if !inRange(rec.BegDate, f.DateFrom, f.DateTo) {
				continue
			}
			if !matches(f.Search, deref(rec.Reason), deref(rec.Description), deref(rec.Engineer)) {
				continue
			}
			items = append(items, &rec)
		}
		return nil
	})
	if err != nil {
		return domain.ListResult[*repair.Record]{}, err
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].BegDate.Equal(items[j].BegDate) {
			return items[i].BegDate.After(items[j].BegDate)
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return domain.Paginate(items, f.ListFilter), nil
}
