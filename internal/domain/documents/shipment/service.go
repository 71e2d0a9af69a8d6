package shipment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ebase/internal/core/apperror"
	appctx "ebase/internal/core/context"
	"ebase/internal/core/entity"
	"ebase/internal/core/id"
	"ebase/internal/core/numerator"
	"ebase/internal/core/tx"
	"ebase/internal/core/types"
	"ebase/internal/domain"
	"ebase/internal/domain/audit"
	"ebase/internal/domain/catalogs/part"
	"ebase/pkg/logger"
)

// PartLookup loads the parts referenced by lines.
type PartLookup interface {
	GetMany(ctx context.Context, ids []id.ID) (map[id.ID]*part.Part, error)
}

// Ledger is the part of the inventory ledger the recorder drives.
type Ledger interface {
	GetQuantity(ctx context.Context, lot entity.Lot) (types.Quantity, error)
	Adjust(ctx context.Context, lot entity.Lot, delta types.Quantity) error
}

// RepairDescriber renders the audit comment of a repair-driven shipment.
type RepairDescriber interface {
	DescribeRepair(ctx context.Context, repairID id.ID) (string, error)
}

// Service records, revises and reverses shipments.
// The ledger is only ever changed by the per-lot difference a call introduces.
type Service struct {
	repo      Repository
	parts     PartLookup
	ledger    Ledger
	numerator numerator.Generator
	describer RepairDescriber
	txManager tx.Manager
	audit     audit.Recorder
}

// Config wires the shipment service.
type Config struct {
	Repo      Repository
	Parts     PartLookup
	Ledger    Ledger
	Numerator numerator.Generator
	// Describer is optional; without it repair shipments carry no auto comment.
	Describer RepairDescriber
	TxManager tx.Manager
	Audit     audit.Recorder
}

// NewService creates a new shipment service.
func NewService(cfg Config) *Service {
	return &Service{
		repo:      cfg.Repo,
		parts:     cfg.Parts,
		ledger:    cfg.Ledger,
		numerator: cfg.Numerator,
		describer: cfg.Describer,
		txManager: cfg.TxManager,
		audit:     audit.OrNop(cfg.Audit),
	}
}

// SetDescriber wires the repair describer after construction; repair and
// shipment services depend on each other only through this hook.
func (s *Service) SetDescriber(d RepairDescriber) {
	s.describer = d
}

// RecordCommand carries a new shipment.
type RecordCommand struct {
	Lines        []LineInput
	DocNum       string
	ShipmentDate time.Time
	RepairID     *id.ID
	// Comment typed by the user; nil lets a repair shipment describe itself.
	Comment *string
}

// ReviseCommand replaces the lines of a shipment.
type ReviseCommand struct {
	Lines []LineInput
	// Comment, when set, becomes a user comment and stops auto regeneration.
	Comment *string
}

// RecordShipment validates every line against the on-hand quantity of its lot,
// persists the shipment and takes the quantities out of the ledger.
func (s *Service) RecordShipment(ctx context.Context, cmd RecordCommand) (*Shipment, error) {
	userID := appctx.GetUserID(ctx)
	shipDate := cmd.ShipmentDate
	if shipDate.IsZero() {
		shipDate = time.Now()
	}
	doc := &Shipment{
		BaseDocument: entity.NewBaseDocument(userID),
		DocNum:       strings.TrimSpace(cmd.DocNum),
		ShipmentDate: types.DateOf(shipDate),
		RepairID:     cmd.RepairID,
		Lines:        buildLines(cmd.Lines),
	}
	if c := trimmed(cmd.Comment); c != nil {
		doc.Comment = c
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.checkParts(ctx, doc.Lines); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.assignNumber(ctx, doc); err != nil {
			return err
		}
		if doc.Comment == nil && doc.RepairID != nil {
			if err := s.describe(ctx, doc); err != nil {
				return err
			}
		}

		for _, t := range totalsByLot(doc.Lines) {
			if err := s.checkAvailable(ctx, t, doc.Lines); err != nil {
				return err
			}
		}

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create shipment: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}

		for i, l := range doc.Lines {
			if err := s.ledger.Adjust(ctx, l.Lot(), l.Quantity.Neg()); err != nil {
				return attributeLine(err, i)
			}
		}

		return s.audit.Record(ctx, audit.Event{
			EntityType: "shipment",
			EntityID:   doc.ID,
			Action:     audit.ActionCreate,
			Changes:    doc,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "shipment recorded",
		"id", doc.ID,
		"doc_num", doc.DocNum,
		"lines", len(doc.Lines),
		"repair_id", doc.RepairID,
	)
	return doc, nil
}

// ReviseShipment replaces the line set and applies only the per-lot deltas to the ledger,
// so movements of other documents against the same lots are not clobbered.
func (s *Service) ReviseShipment(ctx context.Context, docID id.ID, cmd ReviseCommand) (*Shipment, error) {
	newLines := buildLines(cmd.Lines)
	if len(newLines) == 0 {
		return nil, apperror.NewValidation("shipment must have at least one line").WithField("lines")
	}
	if err := validateLines(newLines); err != nil {
		return nil, err
	}
	if err := s.checkParts(ctx, newLines); err != nil {
		return nil, err
	}

	var doc *Shipment
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		oldLines, err := s.repo.GetLines(ctx, docID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}

		for _, d := range diffLines(oldLines, newLines) {
			if err := s.ledger.Adjust(ctx, d.lot, d.delta.Neg()); err != nil {
				if d.line >= 0 {
					return attributeLine(err, d.line)
				}
				return err
			}
		}

		if err := s.repo.SaveLines(ctx, docID, newLines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		doc.Lines = newLines

		if c := trimmed(cmd.Comment); c != nil {
			doc.Comment = c
			doc.CommentIsAuto = false
		} else if doc.RepairID != nil && (doc.CommentIsAuto || doc.Comment == nil) {
			if err := s.describe(ctx, doc); err != nil {
				return err
			}
		}

		doc.Touch(appctx.GetUserID(ctx))
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update shipment: %w", err)
		}

		return s.audit.Record(ctx, audit.Event{
			EntityType: "shipment",
			EntityID:   doc.ID,
			Action:     audit.ActionUpdate,
			Changes:    map[string]any{"before": oldLines, "after": newLines},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "shipment revised", "id", docID, "lines", len(newLines))
	return doc, nil
}

// ReverseShipment returns every line to its lot and deletes the shipment.
func (s *Service) ReverseShipment(ctx context.Context, docID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		lines, err := s.repo.GetLines(ctx, docID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}

		for _, l := range lines {
			if err := s.ledger.Adjust(ctx, l.Lot(), l.Quantity); err != nil {
				return err
			}
		}

		if err := s.repo.Delete(ctx, docID); err != nil {
			return fmt.Errorf("delete shipment: %w", err)
		}

		doc.Lines = lines
		return s.audit.Record(ctx, audit.Event{
			EntityType: "shipment",
			EntityID:   doc.ID,
			Action:     audit.ActionDelete,
			Changes:    doc,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "shipment reversed", "id", docID)
	return nil
}

// GetByID retrieves a shipment with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Shipment, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines
	return doc, nil
}

// List retrieves shipments with filtering. Lines are not loaded.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Shipment], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// checkParts verifies every part exists and that dated parts name their lot.
func (s *Service) checkParts(ctx context.Context, lines []Line) error {
	parts, err := s.parts.GetMany(ctx, partIDs(lines))
	if err != nil {
		return fmt.Errorf("load parts: %w", err)
	}
	for i, l := range lines {
		p, ok := parts[l.PartID]
		if !ok {
			return apperror.NewNotFound("part", l.PartID.String()).
				WithField(fmt.Sprintf("lines[%d].partId", i)).
				WithLine(i + 1)
		}
		if p.IsExpiration && l.ExpirationDate == nil {
			return apperror.NewValidation(fmt.Sprintf("Для %q необходимо указать срок годности", p.Name)).
				WithField(fmt.Sprintf("lines[%d].expirationDate", i)).
				WithLine(i + 1)
		}
	}
	return nil
}

func (s *Service) checkAvailable(ctx context.Context, t lotTotal, lines []Line) error {
	available, err := s.ledger.GetQuantity(ctx, t.lot)
	if err != nil {
		return err
	}
	if t.quantity > available {
		e := apperror.NewInsufficientStock(
			t.lot.PartID.String(),
			t.lot.ExpirationString(),
			t.quantity.String(),
			available.String(),
		)
		return attributeLine(e, t.firstLine)
	}
	return nil
}

func (s *Service) assignNumber(ctx context.Context, doc *Shipment) error {
	if doc.DocNum != "" {
		return nil
	}
	if doc.RepairID == nil || s.numerator == nil {
		doc.DocNum = DefaultDocNum
		return nil
	}
	number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(NumeratorPrefix), &numerator.Options{Strategy: NumeratorStrategy}, doc.ShipmentDate)
	if err != nil {
		return fmt.Errorf("generate number: %w", err)
	}
	doc.DocNum = number
	return nil
}

func (s *Service) describe(ctx context.Context, doc *Shipment) error {
	if s.describer == nil {
		return nil
	}
	text, err := s.describer.DescribeRepair(ctx, *doc.RepairID)
	if err != nil {
		return fmt.Errorf("describe repair: %w", err)
	}
	doc.Comment = &text
	doc.CommentIsAuto = true
	return nil
}

// attributeLine pins an AppError to the 0-based line index i.
func attributeLine(err error, i int) error {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.
			WithField(fmt.Sprintf("lines[%d].quantity", i)).
			WithLine(i + 1)
	}
	return err
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
