package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		search string
		want   string
	}{
		{"Omar", "%omar%"},
		{"50%", `%50\%%`},
		{"a_1", `%a\_1%`},
		{`c:\temp`, `%c:\\temp%`},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			assert.Equal(t, tt.want, containsPattern(tt.search))
		})
	}
}

func TestMatchAny(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DryRun: true,
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	render := func(search string) string {
		return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
			return matchAny(tx.Table("clients"), search, "name", "email").Find(&[]map[string]any{})
		})
	}

	sql := render(" A_b ")
	assert.Contains(t, sql, `LOWER(name) LIKE "%a\_b%" ESCAPE '\'`)
	assert.Contains(t, sql, `LOWER(email) LIKE "%a\_b%" ESCAPE '\'`)
	assert.Equal(t, "SELECT * FROM `clients`", render("   "))
}
