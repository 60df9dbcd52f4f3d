// Package storetest provides an in-memory database for tests.
package storetest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"studyroom-backend/internal/db"
	"studyroom-backend/internal/model"
)

// Open returns a migrated, private in-memory sqlite database that is closed
// when the test ends.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gormDB))
	return gormDB
}

// SeedSlot inserts an Available slot for d and returns it.
func SeedSlot(t testing.TB, gormDB *gorm.DB, d model.Descriptor) model.Slot {
	t.Helper()
	slot := model.Slot{
		RoomID:      d.RoomID,
		Campus:      d.Campus,
		Date:        d.Date,
		TimeRange:   d.TimeRange,
		Description: d.Description,
		Status:      model.SlotAvailable,
	}
	require.NoError(t, gormDB.Create(&slot).Error)
	return slot
}

// SeedAccount inserts an account with the given role.
func SeedAccount(t testing.TB, gormDB *gorm.DB, username string, role model.Role) model.Account {
	t.Helper()
	account := model.Account{
		ID:           uuid.NewString(),
		Username:     username,
		FullName:     "Student " + username,
		StudentID:    "ID-" + username,
		Phone:        "090-" + username,
		Email:        username + "@example.edu",
		Role:         role,
		PasswordHash: "x",
	}
	require.NoError(t, gormDB.Create(&account).Error)
	return account
}
