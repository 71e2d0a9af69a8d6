package repair

import (
	"context"
	"fmt"
	"strings"

	"ebase/internal/core/id"
	"ebase/internal/domain/equipment"
)

// CommentBuilder renders the audit comment of shipments created by repairs:
// "Ремонт: <equipment> s/n <serial>; <client>; <department>; <date>".
type CommentBuilder struct {
	repo      Repository
	directory equipment.Directory
}

// NewCommentBuilder creates a CommentBuilder.
func NewCommentBuilder(repo Repository, directory equipment.Directory) *CommentBuilder {
	return &CommentBuilder{repo: repo, directory: directory}
}

// DescribeRepair implements shipment.RepairDescriber.
func (b *CommentBuilder) DescribeRepair(ctx context.Context, repairID id.ID) (string, error) {
	rec, err := b.repo.GetByID(ctx, repairID)
	if err != nil {
		return "", err
	}
	card, err := b.directory.GetCard(ctx, rec.EquipmentAccountingID)
	if err != nil {
		return "", err
	}

	parts := []string{fmt.Sprintf("Ремонт: %s s/n %s", card.DisplayShortName(), card.SerialNumber)}
	if card.Client != nil {
		parts = append(parts, card.Client.Name)
	}
	if card.Department != nil {
		parts = append(parts, card.Department.Name)
	}
	parts = append(parts, rec.BegDate.Format("02.01.2006"))
	return strings.Join(parts, "; "), nil
}
