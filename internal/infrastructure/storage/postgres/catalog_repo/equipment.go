package catalog_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"ebase/internal/core/apperror"
	"ebase/internal/core/id"
	"ebase/internal/domain/equipment"
	"ebase/internal/infrastructure/storage/postgres"
)

// unitRow is one accounted unit joined with its equipment model.
type unitRow struct {
	AccountingID id.ID  `db:"accounting_id"`
	FullName     string `db:"full_name"`
	ShortName    string `db:"short_name"`
	SerialNumber string `db:"serial_number"`
	ClientID     *id.ID `db:"client_id"`
}

type siteRow struct {
	equipment.Department
	ContactID *id.ID `db:"contact_id"`
}

// EquipmentDirectory implements equipment.Directory over the eq_* tables.
type EquipmentDirectory struct {
	txManager *postgres.TxManager
}

var _ equipment.Directory = (*EquipmentDirectory)(nil)

// NewEquipmentDirectory creates a new equipment directory.
func NewEquipmentDirectory(txManager *postgres.TxManager) *EquipmentDirectory {
	return &EquipmentDirectory{txManager: txManager}
}

func (d *EquipmentDirectory) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// GetCard implements equipment.Directory.
func (d *EquipmentDirectory) GetCard(ctx context.Context, accountingID id.ID) (*equipment.Card, error) {
	q := d.txManager.GetQuerier(ctx)

	var unit unitRow
	found, err := d.get(ctx, q, &unit, d.unitQuery(accountingID))
	if err != nil {
		return nil, fmt.Errorf("get equipment unit: %w", err)
	}
	if !found {
		return nil, apperror.NewNotFound("equipment", accountingID.String())
	}

	card := &equipment.Card{
		AccountingID: unit.AccountingID,
		FullName:     unit.FullName,
		ShortName:    unit.ShortName,
		SerialNumber: unit.SerialNumber,
	}

	if unit.ClientID != nil {
		var client equipment.Client
		found, err := d.get(ctx, q, &client, d.builder().
			Select("id", "name", "inn", "kpp", "address", "phone", "email").
			From("eq_clients").
			Where(squirrel.Eq{"id": *unit.ClientID}))
		if err != nil {
			return nil, fmt.Errorf("get client: %w", err)
		}
		if found {
			card.Client = &client
		}
	}

	var site siteRow
	found, err = d.get(ctx, q, &site, d.siteQuery(accountingID))
	if err != nil {
		return nil, fmt.Errorf("get installation: %w", err)
	}
	if !found {
		return card, nil
	}
	card.Department = &site.Department

	if site.ContactID != nil {
		var contact equipment.Contact
		found, err := d.get(ctx, q, &contact, d.builder().
			Select("surname", "name", "patronymic", "position", "mob_phone", "work_phone", "email").
			From("eq_contacts").
			Where(squirrel.Eq{"id": *site.ContactID}))
		if err != nil {
			return nil, fmt.Errorf("get contact: %w", err)
		}
		if found {
			card.Contact = &contact
		}
	}

	return card, nil
}

func (d *EquipmentDirectory) unitQuery(accountingID id.ID) squirrel.SelectBuilder {
	return d.builder().
		Select(
			"a.id AS accounting_id",
			"e.full_name",
			"COALESCE(e.short_name, '') AS short_name",
			"a.serial_number",
			"a.client_id",
		).
		From("eq_accounting a").
		Join("eq_equipment e ON e.id = a.equipment_id").
		Where(squirrel.Eq{"a.id": accountingID})
}

// siteQuery picks the earliest active installation.
func (d *EquipmentDirectory) siteQuery(accountingID id.ID) squirrel.SelectBuilder {
	return d.builder().
		Select("dp.id", "dp.name", "dp.address", "dp.city", "i.contact_id").
		From("eq_installations i").
		Join("eq_departments dp ON dp.id = i.department_id").
		Where(squirrel.Eq{"i.accounting_id": accountingID, "i.is_active": true}).
		OrderBy("i.installed_at", "i.id").
		Limit(1)
}

func (d *EquipmentDirectory) get(ctx context.Context, q postgres.Querier, dst any, sb squirrel.SelectBuilder) (bool, error) {
	sql, args, err := sb.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, q, dst, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
