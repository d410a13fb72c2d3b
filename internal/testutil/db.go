// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/snapshare/internal/config"
	"github.com/zfogg/snapshare/internal/database"
	"github.com/zfogg/snapshare/internal/models"
	"gorm.io/gorm"
)

// NewTestDB opens an isolated in-memory SQLite database with the schema migrated.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", URL: dsn}, false)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}

// CreateUser inserts a user with the given display name
func CreateUser(t testing.TB, db *gorm.DB, name string) *models.User {
	t.Helper()

	user := &models.User{Name: name, Image: "/avatars/" + name + ".png"}
	require.NoError(t, db.Create(user).Error)
	return user
}
