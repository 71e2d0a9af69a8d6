package catalog_repo

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebase/internal/core/apperror"
	"ebase/internal/core/id"
	"ebase/internal/domain"
	"ebase/internal/domain/catalogs/part"
)

func TestPartRepo_Columns(t *testing.T) {
	repo := NewPartRepo(nil)
	p := part.NewPart("F-100", "Фильтр", "шт.", false)

	cols := repo.columns(p, "id", "version")
	assert.NotContains(t, cols, "id")
	assert.NotContains(t, cols, "version")
	assert.Equal(t, "F-100", cols["article"])
	assert.Len(t, cols, 5)
}

func TestBaseCatalogRepo_Filtered(t *testing.T) {
	repo := NewPartRepo(nil)
	partID := id.New()

	q := repo.filtered(repo.baseSelect(), domain.ListFilter{Search: " фильтр ", IDs: []id.ID{partID}})
	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, version, article, name, unit, is_expiration, comment FROM cat_parts "+
			"WHERE (article ILIKE $1 OR name ILIKE $2) AND id IN ($3)",
		sql)
	assert.Equal(t, []any{"%фильтр%", "%фильтр%", partID}, args)
}

func TestBaseCatalogRepo_ParseOrderBy(t *testing.T) {
	repo := NewReplacementRepo(nil)

	order, err := repo.parseOrderBy("")
	require.NoError(t, err)
	assert.Equal(t, []string{"equipment_name, serial_number", "id"}, order)

	order, err = repo.parseOrderBy("-serial_number")
	require.NoError(t, err)
	assert.Equal(t, []string{"serial_number DESC", "id"}, order)

	_, err = repo.parseOrderBy("name; DROP TABLE cat_replacements")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestBaseCatalogRepo_UpdateSQL(t *testing.T) {
	repo := NewPartRepo(nil)
	p := part.NewPart("F-100", "Фильтр", "шт.", false)

	sql, _, err := repo.Builder().
		Update(repo.tableName).
		SetMap(repo.columns(p, "id", "version")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": p.ID, "version": p.Version}).
		ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"UPDATE cat_parts SET article = $1, comment = $2, is_expiration = $3, name = $4, unit = $5, version = version + 1 "+
			"WHERE id = $6 AND version = $7",
		sql)
}
