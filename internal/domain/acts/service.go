package acts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ebase/internal/core/apperror"
	"ebase/internal/core/id"
	"ebase/internal/core/tx"
	"ebase/internal/domain/audit"
	"ebase/internal/domain/catalogs/part"
	"ebase/internal/domain/equipment"
	"ebase/internal/domain/repair"
	"ebase/pkg/docx"
	"ebase/pkg/logger"
)

var tracer = otel.Tracer("ebase/acts")

// RepairStore is the slice of the repair repository acts need.
type RepairStore interface {
	GetByID(ctx context.Context, repairID id.ID) (*repair.Record, error)
	GetParts(ctx context.Context, repairID id.ID) ([]repair.PartUsage, error)
	GetAccessories(ctx context.Context, repairID id.ID) ([]repair.AccessoryUsage, error)
	SetActPath(ctx context.Context, repairID id.ID, kind repair.ActKind, path string) error
}

// ReplacementLookup loads loaner units.
type ReplacementLookup interface {
	GetByID(ctx context.Context, replacementID id.ID) (*repair.Replacement, error)
}

// PartLookup loads part titles.
type PartLookup interface {
	GetMany(ctx context.Context, ids []id.ID) (map[id.ID]*part.Part, error)
}

// Config wires the generator.
type Config struct {
	Repairs      RepairStore
	Replacements ReplacementLookup
	Parts        PartLookup
	Directory    equipment.Directory
	TxManager    tx.Manager
	Audit        audit.Recorder

	// TemplatesDir holds the .docx templates named by descriptors.
	TemplatesDir string
	// DocsRoot is where generated acts are stored.
	DocsRoot string
	// Descriptors defaults to DefaultDescriptors.
	Descriptors map[repair.ActKind]*Descriptor
}

// Generator renders acts to disk and records their paths on the repair.
type Generator struct {
	repairs      RepairStore
	replacements ReplacementLookup
	parts        PartLookup
	directory    equipment.Directory
	txManager    tx.Manager
	audit        audit.Recorder
	templatesDir string
	docsRoot     string
	descriptors  map[repair.ActKind]*Descriptor
}

// NewGenerator creates a Generator.
func NewGenerator(cfg Config) *Generator {
	descriptors := cfg.Descriptors
	if descriptors == nil {
		descriptors = DefaultDescriptors()
	}
	return &Generator{
		repairs:      cfg.Repairs,
		replacements: cfg.Replacements,
		parts:        cfg.Parts,
		directory:    cfg.Directory,
		txManager:    cfg.TxManager,
		audit:        audit.OrNop(cfg.Audit),
		templatesDir: cfg.TemplatesDir,
		docsRoot:     cfg.DocsRoot,
		descriptors:  descriptors,
	}
}

// Generate renders the act of the given kind and returns the stored file path.
// A failure leaves the other acts of the repair untouched.
func (g *Generator) Generate(ctx context.Context, repairID id.ID, kind repair.ActKind) (path string, err error) {
	ctx, span := tracer.Start(ctx, "acts.Generate",
		trace.WithAttributes(
			attribute.String("repair.id", repairID.String()),
			attribute.String("act.kind", string(kind)),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	desc, ok := g.descriptors[kind]
	if !ok {
		return "", apperror.NewValidation(fmt.Sprintf("unknown act kind %q", kind)).WithField("kind")
	}

	snap, err := g.load(ctx, repairID, desc)
	if err != nil {
		return "", err
	}

	templatePath := filepath.Join(g.templatesDir, desc.Template)
	doc, err := docx.Open(templatePath)
	if err != nil {
		return "", apperror.NewTemplate(desc.Template, "cannot open act template").WithCause(err)
	}
	if err := Render(doc, desc, snap); err != nil {
		return "", err
	}

	dir := filepath.Join(g.docsRoot, desc.Dir, SanitizeDir(snap.Card.DisplayShortName()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create act directory: %w", err)
	}
	path = filepath.Join(dir, FileName(desc, snap.Card.SerialNumber, snap.Date))
	if err := doc.Save(path); err != nil {
		return "", fmt.Errorf("save act: %w", err)
	}

	err = g.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := g.repairs.SetActPath(ctx, repairID, kind, path); err != nil {
			return fmt.Errorf("set act path: %w", err)
		}
		return g.audit.Record(ctx, audit.Event{
			EntityType: "repair",
			EntityID:   repairID,
			Action:     audit.ActionGenerate,
			Changes:    map[string]any{"kind": kind, "path": path},
		})
	})
	if err != nil {
		return "", err
	}

	logger.Info(ctx, "act generated",
		"repair_id", repairID,
		"kind", kind,
		"path", path,
	)
	return path, nil
}

// load gathers the snapshot an act prints.
func (g *Generator) load(ctx context.Context, repairID id.ID, desc *Descriptor) (*Snapshot, error) {
	rec, err := g.repairs.GetByID(ctx, repairID)
	if err != nil {
		return nil, err
	}
	if rec.Parts, err = g.repairs.GetParts(ctx, repairID); err != nil {
		return nil, fmt.Errorf("get parts: %w", err)
	}
	if rec.Accessories, err = g.repairs.GetAccessories(ctx, repairID); err != nil {
		return nil, fmt.Errorf("get accessories: %w", err)
	}

	card, err := g.directory.GetCard(ctx, rec.EquipmentAccountingID)
	if err != nil {
		return nil, err
	}
	if card.Department == nil {
		return nil, apperror.NewPreconditionFailed("no active installation site for this equipment").
			WithDetail("equipmentAccountingId", rec.EquipmentAccountingID.String())
	}
	if card.Client == nil {
		return nil, apperror.NewPreconditionFailed("equipment has no client").
			WithDetail("equipmentAccountingId", rec.EquipmentAccountingID.String())
	}

	ids := make([]id.ID, 0, len(rec.Parts))
	for _, u := range rec.Parts {
		ids = append(ids, u.PartID)
	}
	parts := map[id.ID]*part.Part{}
	if len(ids) > 0 {
		if parts, err = g.parts.GetMany(ctx, ids); err != nil {
			return nil, fmt.Errorf("get part titles: %w", err)
		}
	}

	var repl *repair.Replacement
	if rec.ReplacementID != nil {
		repl, err = g.replacements.GetByID(ctx, *rec.ReplacementID)
		if err != nil && !apperror.IsNotFound(err) {
			return nil, err
		}
	}

	var date *time.Time
	if desc.Date != nil {
		date = desc.Date(rec)
	}
	return &Snapshot{
		Record:      rec,
		Card:        card,
		Parts:       parts,
		Replacement: repl,
		Date:        date,
	}, nil
}

// Download returns the stored path of a generated act.
func (g *Generator) Download(ctx context.Context, repairID id.ID, kind repair.ActKind) (string, error) {
	rec, err := g.repairs.GetByID(ctx, repairID)
	if err != nil {
		return "", err
	}
	p := rec.ActPath(kind)
	if p == nil || *p == "" {
		return "", apperror.NewNotFound("act", string(kind)).WithDetail("repairId", repairID.String())
	}
	if _, err := os.Stat(*p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", apperror.NewNotFound("act file", *p).WithDetail("repairId", repairID.String())
		}
		return "", fmt.Errorf("stat act: %w", err)
	}
	return *p, nil
}
