package postgres

import (
	"testing"

	"aurum/internal/core/entity"
	"aurum/internal/core/id"

	"github.com/stretchr/testify/assert"
)

type mockCatalogEntity struct {
	entity.Catalog
	Classification string `db:"classification" json:"classification"`
}

func TestExtractDBColumns_EmbeddedCatalog(t *testing.T) {
	cols := ExtractDBColumns[mockCatalogEntity]()

	expectedCols := []string{
		"id", "deletion_mark", "version", "code", "name", "created_at", "updated_at", "classification",
	}

	for _, expected := range expectedCols {
		assert.Contains(t, cols, expected)
	}
}

func TestStructToMap_EmbeddedCatalog(t *testing.T) {
	cat := mockCatalogEntity{
		Catalog:        entity.NewCatalog("ACC-1", "Cash Drawer"),
		Classification: "cash",
	}
	cat.DeletionMark = true
	cat.Version = 5

	m := StructToMap(cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, true, m["deletion_mark"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "ACC-1", m["code"])
	assert.Equal(t, "Cash Drawer", m["name"])
	assert.Equal(t, "cash", m["classification"])
}

func TestExtractDBColumns_SkipsUntagged(t *testing.T) {
	type plain struct {
		ID      id.ID  `db:"id"`
		Skipped string `db:"-"`
		NoTag   string
	}

	cols := ExtractDBColumns[plain]()
	assert.Equal(t, []string{"id"}, cols)
}
