package repair

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ebase/internal/core/apperror"
	appctx "ebase/internal/core/context"
	"ebase/internal/core/entity"
	"ebase/internal/core/id"
	"ebase/internal/core/tx"
	"ebase/internal/core/types"
	"ebase/internal/domain"
	"ebase/internal/domain/audit"
	"ebase/internal/domain/documents/shipment"
	"ebase/internal/domain/equipment"
	"ebase/pkg/logger"
)

// Shipments is the shipment recorder a repair save delegates to.
type Shipments interface {
	RecordShipment(ctx context.Context, cmd shipment.RecordCommand) (*shipment.Shipment, error)
	ReviseShipment(ctx context.Context, docID id.ID, cmd shipment.ReviseCommand) (*shipment.Shipment, error)
	ReverseShipment(ctx context.Context, docID id.ID) error
}

// Service owns the repair lifecycle. A save persists the record, its usages,
// the loaner assignment and the resulting shipment in one transaction.
type Service struct {
	repo         Repository
	replacements ReplacementRepository
	shipments    Shipments
	directory    equipment.Directory
	txManager    tx.Manager
	audit        audit.Recorder
	replCatalog  *domain.CatalogService[*Replacement]
}

// Config wires the repair service.
type Config struct {
	Repo         Repository
	Replacements ReplacementRepository
	Shipments    Shipments
	Directory    equipment.Directory
	TxManager    tx.Manager
	Audit        audit.Recorder
}

// NewService creates a new repair service.
func NewService(cfg Config) *Service {
	return &Service{
		repo:         cfg.Repo,
		replacements: cfg.Replacements,
		shipments:    cfg.Shipments,
		directory:    cfg.Directory,
		txManager:    cfg.TxManager,
		audit:        audit.OrNop(cfg.Audit),
		replCatalog: domain.NewCatalogService(domain.CatalogServiceConfig[*Replacement]{
			Repo:       cfg.Replacements,
			TxManager:  cfg.TxManager,
			EntityName: "replacement equipment",
		}),
	}
}

// SaveCommand creates (ID nil) or updates a repair.
type SaveCommand struct {
	ID      *id.ID
	Version int

	EquipmentAccountingID id.ID
	ServiceType           *string
	Reason                *string
	Description           *string
	JobContent            *string
	Engineer              *string
	BegDate               time.Time
	EndDate               *time.Time
	ReplacementID         *id.ID

	Parts       []PartUsage
	Accessories []AccessoryUsage

	// ShipmentComment overrides the auto comment of the repair shipment.
	ShipmentComment *string
}

func (c SaveCommand) apply(rec *Record) {
	rec.EquipmentAccountingID = c.EquipmentAccountingID
	rec.ServiceType = c.ServiceType
	rec.Reason = c.Reason
	rec.Description = c.Description
	rec.JobContent = c.JobContent
	rec.Engineer = c.Engineer
	begDate := c.BegDate
	if begDate.IsZero() {
		begDate = time.Now()
	}
	rec.BegDate = types.DateOf(begDate)
	rec.EndDate = types.DatePtr(c.EndDate)
	rec.ReplacementID = c.ReplacementID

	rec.Parts = make([]PartUsage, len(c.Parts))
	for i, u := range c.Parts {
		u.ExpirationDate = types.DatePtr(u.ExpirationDate)
		rec.Parts[i] = u
	}
	rec.Accessories = append([]AccessoryUsage(nil), c.Accessories...)
}

// Save validates and stores the repair, then brings its shipment in line with
// the submitted usages: created on first use, revised by deltas, reversed when emptied.
func (s *Service) Save(ctx context.Context, cmd SaveCommand) (*Record, error) {
	userID := appctx.GetUserID(ctx)

	var rec *Record
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var (
			prevReplacement *id.ID
			creating        = cmd.ID == nil
		)

		if creating {
			rec = &Record{BaseDocument: entity.NewBaseDocument(userID)}
		} else {
			var err error
			rec, err = s.repo.GetForUpdate(ctx, *cmd.ID)
			if err != nil {
				return err
			}
			if cmd.Version > 0 && cmd.Version != rec.Version {
				return apperror.NewConcurrentModification("repair", rec.ID.String())
			}
			prevReplacement = rec.ReplacementID
			rec.Touch(userID)
		}

		cmd.apply(rec)
		if err := rec.Validate(ctx); err != nil {
			return err
		}
		if _, err := s.directory.GetCard(ctx, rec.EquipmentAccountingID); err != nil {
			return err
		}

		var assign *Replacement
		switch {
		case rec.ReplacementID != nil && !sameID(prevReplacement, rec.ReplacementID):
			var err error
			if assign, err = s.checkAssignable(ctx, rec); err != nil {
				return err
			}
		case rec.ReplacementID != nil && rec.IsOpen():
			if err := s.checkKept(ctx, rec); err != nil {
				return err
			}
		}

		if creating {
			if err := s.repo.Create(ctx, rec); err != nil {
				return fmt.Errorf("create repair: %w", err)
			}
		} else if err := s.repo.Update(ctx, rec); err != nil {
			return fmt.Errorf("update repair: %w", err)
		}

		if prevReplacement != nil && !sameID(prevReplacement, rec.ReplacementID) {
			if err := s.releaseReplacement(ctx, *prevReplacement, rec.ID); err != nil {
				return err
			}
		}
		if assign != nil {
			assign.handOver(rec.ID)
			if err := s.replacements.Update(ctx, assign); err != nil {
				return fmt.Errorf("hand over replacement: %w", err)
			}
		}

		if err := s.repo.SaveParts(ctx, rec.ID, rec.Parts); err != nil {
			return fmt.Errorf("save parts: %w", err)
		}
		if err := s.repo.SaveAccessories(ctx, rec.ID, rec.Accessories); err != nil {
			return fmt.Errorf("save accessories: %w", err)
		}

		if err := s.syncShipment(ctx, rec, cmd.ShipmentComment); err != nil {
			return err
		}

		action := audit.ActionUpdate
		if creating {
			action = audit.ActionCreate
		}
		return s.audit.Record(ctx, audit.Event{
			EntityType: "repair",
			EntityID:   rec.ID,
			Action:     action,
			Changes:    rec,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "repair saved",
		"id", rec.ID,
		"parts", len(rec.Parts),
		"shipment_id", rec.ShipmentID,
	)
	return rec, nil
}

// syncShipment delegates part usages to the shipment recorder.
func (s *Service) syncShipment(ctx context.Context, rec *Record, comment *string) error {
	lines := make([]shipment.LineInput, len(rec.Parts))
	for i, u := range rec.Parts {
		lines[i] = shipment.LineInput{
			PartID:         u.PartID,
			ExpirationDate: u.ExpirationDate,
			Quantity:       u.Quantity,
		}
	}

	switch {
	case rec.ShipmentID == nil && len(lines) > 0:
		repairID := rec.ID
		sh, err := s.shipments.RecordShipment(ctx, shipment.RecordCommand{
			Lines:        lines,
			ShipmentDate: rec.BegDate,
			RepairID:     &repairID,
			Comment:      comment,
		})
		if err != nil {
			return remapLines(err)
		}
		rec.ShipmentID = &sh.ID
		return s.repo.SetShipment(ctx, rec.ID, rec.ShipmentID)

	case rec.ShipmentID != nil && len(lines) > 0:
		if _, err := s.shipments.ReviseShipment(ctx, *rec.ShipmentID, shipment.ReviseCommand{
			Lines:   lines,
			Comment: comment,
		}); err != nil {
			return remapLines(err)
		}
		return nil

	case rec.ShipmentID != nil:
		shipmentID := *rec.ShipmentID
		rec.ShipmentID = nil
		if err := s.repo.SetShipment(ctx, rec.ID, nil); err != nil {
			return err
		}
		return s.shipments.ReverseShipment(ctx, shipmentID)
	}
	return nil
}

// checkAssignable loads the loaner and rejects it when another open repair holds it.
func (s *Service) checkAssignable(ctx context.Context, rec *Record) (*Replacement, error) {
	if !rec.IsOpen() {
		return nil, apperror.NewValidation("replacement equipment can only be assigned to an open repair").
			WithField("replacementId")
	}

	repl, err := s.replacements.GetForUpdate(ctx, *rec.ReplacementID)
	if err != nil {
		return nil, err
	}
	if err := s.checkHolder(ctx, rec, repl); err != nil {
		return nil, err
	}
	return repl, nil
}

// checkKept verifies that a loaner the open repair already references has not
// been handed to another open repair in the meantime.
func (s *Service) checkKept(ctx context.Context, rec *Record) error {
	repl, err := s.replacements.GetForUpdate(ctx, *rec.ReplacementID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	return s.checkHolder(ctx, rec, repl)
}

// checkHolder fails with ALREADY_IN_USE when an open repair other than rec holds repl.
func (s *Service) checkHolder(ctx context.Context, rec *Record, repl *Replacement) error {
	if repl.RepairID == nil || *repl.RepairID == rec.ID {
		return nil
	}
	holder, err := s.repo.GetByID(ctx, *repl.RepairID)
	switch {
	case err == nil && holder.IsOpen():
		return apperror.NewAlreadyInUse("replacement equipment", repl.ID.String(), holder.ID.String()).
			WithField("replacementId")
	case err != nil && !apperror.IsNotFound(err):
		return err
	}
	return nil
}

// releaseReplacement returns the loaner to the office if repairID still holds it.
func (s *Service) releaseReplacement(ctx context.Context, replacementID, repairID id.ID) error {
	repl, err := s.replacements.GetForUpdate(ctx, replacementID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if repl.RepairID == nil || *repl.RepairID != repairID {
		return nil
	}
	repl.release()
	if err := s.replacements.Update(ctx, repl); err != nil {
		return fmt.Errorf("release replacement: %w", err)
	}
	return nil
}

// Close sets the end date of an open repair.
func (s *Service) Close(ctx context.Context, repairID id.ID, endDate time.Time) (*Record, error) {
	return s.mutate(ctx, repairID, func(rec *Record) error {
		if !rec.IsOpen() {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "repair is already closed")
		}
		d := types.DateOf(endDate)
		rec.EndDate = &d
		return rec.Validate(ctx)
	})
}

// Reopen clears the end date. A loaner that has since gone to another open
// repair blocks reopening until one of the two repairs lets it go.
func (s *Service) Reopen(ctx context.Context, repairID id.ID) (*Record, error) {
	return s.mutate(ctx, repairID, func(rec *Record) error {
		rec.EndDate = nil
		if rec.ReplacementID != nil {
			return s.checkKept(ctx, rec)
		}
		return nil
	})
}

// ReturnReplacement records that the client gave the loaner back.
// The repair keeps its ReplacementID for the transfer-out act.
func (s *Service) ReturnReplacement(ctx context.Context, repairID id.ID) (*Record, error) {
	var rec *Record
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.repo.GetForUpdate(ctx, repairID)
		if err != nil {
			return err
		}
		if rec.ReplacementID == nil {
			return apperror.NewValidation("repair has no replacement equipment").WithField("replacementId")
		}
		return s.releaseReplacement(ctx, *rec.ReplacementID, rec.ID)
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "replacement returned", "repair_id", repairID, "replacement_id", rec.ReplacementID)
	return rec, nil
}

func (s *Service) mutate(ctx context.Context, repairID id.ID, fn func(rec *Record) error) (*Record, error) {
	var rec *Record
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.repo.GetForUpdate(ctx, repairID)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
		rec.Touch(appctx.GetUserID(ctx))
		if err := s.repo.Update(ctx, rec); err != nil {
			return fmt.Errorf("update repair: %w", err)
		}
		return s.audit.Record(ctx, audit.Event{
			EntityType: "repair",
			EntityID:   rec.ID,
			Action:     audit.ActionUpdate,
			Changes:    map[string]any{"endDate": rec.EndDate},
		})
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete reverses the repair shipment, releases the loaner and removes the record.
func (s *Service) Delete(ctx context.Context, repairID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.repo.GetForUpdate(ctx, repairID)
		if err != nil {
			return err
		}
		if rec.ShipmentID != nil {
			if err := s.repo.SetShipment(ctx, rec.ID, nil); err != nil {
				return err
			}
			if err := s.shipments.ReverseShipment(ctx, *rec.ShipmentID); err != nil {
				return err
			}
		}
		if rec.ReplacementID != nil {
			if err := s.releaseReplacement(ctx, *rec.ReplacementID, rec.ID); err != nil {
				return err
			}
		}
		if err := s.repo.Delete(ctx, repairID); err != nil {
			return fmt.Errorf("delete repair: %w", err)
		}
		return s.audit.Record(ctx, audit.Event{
			EntityType: "repair",
			EntityID:   repairID,
			Action:     audit.ActionDelete,
			Changes:    rec,
		})
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "repair deleted", "id", repairID)
	return nil
}

// GetByID retrieves a repair with its usages.
func (s *Service) GetByID(ctx context.Context, repairID id.ID) (*Record, error) {
	rec, err := s.repo.GetByID(ctx, repairID)
	if err != nil {
		return nil, err
	}
	if rec.Parts, err = s.repo.GetParts(ctx, repairID); err != nil {
		return nil, fmt.Errorf("get parts: %w", err)
	}
	if rec.Accessories, err = s.repo.GetAccessories(ctx, repairID); err != nil {
		return nil, fmt.Errorf("get accessories: %w", err)
	}
	return rec, nil
}

// List retrieves repairs with filtering. Usages are not loaded.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Record], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// Replacements exposes catalog operations on loaner units.
func (s *Service) Replacements() *domain.CatalogService[*Replacement] {
	return s.replCatalog
}

// remapLines renames shipment line fields to the repair's parts fields.
func remapLines(err error) error {
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Details == nil {
		return err
	}
	if field, ok := appErr.Details["field"].(string); ok && strings.HasPrefix(field, "lines[") {
		appErr.Details["field"] = "parts[" + strings.TrimPrefix(field, "lines[")
	}
	return appErr
}

func sameID(a, b *id.ID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
