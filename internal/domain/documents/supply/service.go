package supply

import (
	"context"
	"fmt"

	"ebase/internal/core/apperror"
	appctx "ebase/internal/core/context"
	"ebase/internal/core/entity"
	"ebase/internal/core/id"
	"ebase/internal/core/tx"
	"ebase/internal/core/types"
	"ebase/internal/domain"
	"ebase/internal/domain/audit"
	"ebase/internal/domain/catalogs/part"
	"ebase/pkg/logger"
)

// PartLookup resolves the part a supply refers to.
type PartLookup interface {
	GetByID(ctx context.Context, partID id.ID) (*part.Part, error)
}

// Ledger is the part of the inventory ledger the recorder drives.
type Ledger interface {
	Adjust(ctx context.Context, lot entity.Lot, delta types.Quantity) error
}

// Service records and reverses supplies. Every ledger effect commits together
// with the supply row it belongs to.
type Service struct {
	repo      Repository
	parts     PartLookup
	ledger    Ledger
	txManager tx.Manager
	audit     audit.Recorder
}

// NewService creates a new supply service.
func NewService(repo Repository, parts PartLookup, ledger Ledger, txManager tx.Manager, auditor audit.Recorder) *Service {
	return &Service{
		repo:      repo,
		parts:     parts,
		ledger:    ledger,
		txManager: txManager,
		audit:     audit.OrNop(auditor),
	}
}

// RecordSupply validates, persists the supply and adds its quantity to the lot.
func (s *Service) RecordSupply(ctx context.Context, cmd RecordCommand) (*Supply, error) {
	doc := cmd.toSupply(appctx.GetUserID(ctx))
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	p, err := s.parts.GetByID(ctx, doc.PartID)
	if err != nil {
		return nil, err
	}
	if p.IsExpiration && doc.ExpirationDate == nil {
		return nil, apperror.NewValidation(fmt.Sprintf("Для %q необходимо указать срок годности", p.Name)).
			WithField("expirationDate").
			WithDetail("partId", p.ID.String())
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create supply: %w", err)
		}
		if err := s.ledger.Adjust(ctx, doc.Lot(), doc.Quantity); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.Event{
			EntityType: "supply",
			EntityID:   doc.ID,
			Action:     audit.ActionCreate,
			Changes:    doc,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "supply recorded",
		"id", doc.ID,
		"part_id", doc.PartID,
		"quantity", doc.Quantity.String(),
		"expiration", types.FormatDate(doc.ExpirationDate),
	)
	return doc, nil
}

// ReverseSupply deletes the supply and takes its quantity back out of the lot.
// Fails with INSUFFICIENT_STOCK when part of the supplied stock has already shipped.
func (s *Service) ReverseSupply(ctx context.Context, docID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if err := s.ledger.Adjust(ctx, doc.Lot(), doc.Quantity.Neg()); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, docID); err != nil {
			return fmt.Errorf("delete supply: %w", err)
		}
		return s.audit.Record(ctx, audit.Event{
			EntityType: "supply",
			EntityID:   doc.ID,
			Action:     audit.ActionDelete,
			Changes:    doc,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "supply reversed", "id", docID)
	return nil
}

// GetByID retrieves a supply.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Supply, error) {
	return s.repo.GetByID(ctx, docID)
}

// List retrieves supplies with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Supply], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}
