package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDDL_CoversRepositoryTables(t *testing.T) {
	for _, table := range []string{
		"sys_sequences", "sys_audit", "sys_idempotency",
		"eq_accounting", "eq_installations",
		"cat_parts", "cat_replacements", "reg_part_stock",
		"doc_supplies", "doc_shipments", "doc_shipment_lines",
		"doc_repairs", "doc_repair_parts", "doc_repair_accessories",
	} {
		assert.Contains(t, DDL(), "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
}

func TestDDL_LotUniquenessTreatsUndatedAsOneLot(t *testing.T) {
	assert.True(t, strings.Contains(DDL(), "UNIQUE NULLS NOT DISTINCT (part_id, expiration_date)"))
}
