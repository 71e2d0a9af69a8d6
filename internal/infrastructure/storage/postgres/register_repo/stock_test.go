package register_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebase/internal/core/entity"
	"ebase/internal/core/id"
	"ebase/internal/core/types"
	"ebase/internal/domain"
	"ebase/internal/domain/registers/stock"
)

func TestDecrementQuery(t *testing.T) {
	repo := NewStockRepo(nil)
	partID := id.New()
	qty := types.NewQuantity(3)

	t.Run("undated lot", func(t *testing.T) {
		sql, args, err := repo.decrementQuery(entity.NewLot(partID, nil), qty)
		require.NoError(t, err)
		assert.Equal(t,
			"UPDATE reg_part_stock SET quantity = quantity - $1, updated_at = now() "+
				"WHERE expiration_date IS NULL AND part_id = $2 AND quantity >= $3",
			sql)
		assert.Equal(t, []any{qty, partID.String(), qty}, args)
	})

	t.Run("dated lot", func(t *testing.T) {
		exp := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		sql, args, err := repo.decrementQuery(entity.NewLot(partID, &exp), qty)
		require.NoError(t, err)
		assert.Equal(t,
			"UPDATE reg_part_stock SET quantity = quantity - $1, updated_at = now() "+
				"WHERE expiration_date = $2 AND part_id = $3 AND quantity >= $4",
			sql)
		assert.Equal(t, exp, args[1])
	})
}

func TestViewSelect(t *testing.T) {
	repo := NewStockRepo(nil)
	partID := id.New()

	sql, _, err := repo.viewSelect(stock.ListFilter{
		ListFilter:   domain.ListFilter{Search: "фильтр"},
		PartID:       &partID,
		OnlyPositive: true,
	}).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT s.part_id, s.expiration_date, s.quantity, s.is_overdue, s.updated_at, p.article, p.name, p.unit "+
			"FROM reg_part_stock s JOIN cat_parts p ON p.id = s.part_id "+
			"WHERE s.part_id = $1 AND s.quantity > $2 AND (p.article ILIKE $3 OR p.name ILIKE $4)",
		sql)
}
