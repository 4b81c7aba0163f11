package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tgbazaar/marketplace-backend/internal/database"
	"github.com/tgbazaar/marketplace-backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBCounter int64

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Shared-cache in-memory database lives as long as one connection holds it.
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, telegramID int64, isAdmin bool) *models.User {
	t.Helper()
	user := &models.User{
		TelegramID: telegramID,
		Username:   fmt.Sprintf("user%d", telegramID),
		FirstName:  fmt.Sprintf("User %d", telegramID),
		IsAdmin:    isAdmin,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestPost(t *testing.T, db *gorm.DB, author *models.User, title string) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:       title,
		Content:     "content of " + title,
		Category:    "продажа",
		ContactInfo: "@" + author.Username,
		IsActive:    true,
		UserID:      author.ID,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}
