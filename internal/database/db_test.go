package database

import (
	"testing"

	"fs25hub/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// The schema must migrate on sqlite as well as postgres; ID assignment comes
// from the BeforeCreate hooks, not database-specific column defaults.
func TestMigrateOnSqlite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, Migrate(db))

	user := &model.User{Username: "migrator", Email: "migrator@example.com"}
	require.NoError(t, db.Create(user).Error)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", user.ID.String())

	var count int64
	require.NoError(t, db.Model(&model.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
