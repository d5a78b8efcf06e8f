package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockcore/internal/core/entity"
	"stockcore/internal/core/id"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/documents/adjustment"
	"stockcore/internal/domain/product"
)

func TestExtractDBColumns_FlattensEmbedded(t *testing.T) {
	cols := ExtractDBColumns[product.Product]()

	require.GreaterOrEqual(t, len(cols), 5)
	assert.Equal(t, []string{"id", "org_id", "version", "created_at", "updated_at"}, cols[:5])
	for _, expected := range []string{"name", "stock", "avg_cost", "stock_content", "min_content"} {
		assert.Contains(t, cols, expected)
	}
}

func TestExtractDBColumns_Document(t *testing.T) {
	cols := ExtractDBColumns[adjustment.StockAdjustment]()
	for _, expected := range []string{"id", "org_id", "date", "created_by", "product_id", "kind", "stock_before"} {
		assert.Contains(t, cols, expected)
	}
}

func TestStructToMap(t *testing.T) {
	orgID := id.New()
	p := product.NewProduct(orgID, "Susu", "minuman", types.MustMoney("15000"))
	p.Version = 5
	p.Stock = 7

	m := StructToMap(p)

	assert.Equal(t, p.ID, m["id"])
	assert.Equal(t, orgID, m["org_id"])
	assert.Equal(t, int64(5), m["version"])
	assert.Equal(t, int64(7), m["stock"])
	assert.Equal(t, "Susu", m["name"])
	assert.Nil(t, StructToMap(42))
}

func TestColumnValues(t *testing.T) {
	base := entity.NewBaseEntity(id.New())
	base.UpdatedAt = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	m := ColumnValues(&base, []string{"updated_at", "missing"})
	assert.Equal(t, base.UpdatedAt, m["updated_at"])
	assert.Contains(t, m, "missing")
	assert.Nil(t, m["missing"])
}

func TestWithout(t *testing.T) {
	assert.Equal(t, []string{"b"}, Without([]string{"a", "b", "seq"}, "a", "seq"))
}
