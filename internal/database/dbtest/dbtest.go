// Package dbtest provides throwaway migrated databases for tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/grillhouse/internal/database"
	"github.com/example/grillhouse/internal/models"
)

// New returns an isolated in-memory sqlite database with all tables migrated.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := database.Connect(database.Options{
		Driver:   "sqlite",
		DSN:      dsn,
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// Product inserts a product with the given price.
func Product(t *testing.T, conn *gorm.DB, name, price string, active bool) models.Product {
	t.Helper()

	product := models.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		IsActive: true,
	}
	require.NoError(t, conn.Create(&product).Error)
	if !active {
		require.NoError(t, conn.Model(&product).Update("is_active", false).Error)
		product.IsActive = false
	}
	return product
}

// User inserts an active customer with the given phone.
func User(t *testing.T, conn *gorm.DB, phone string) models.User {
	t.Helper()

	user := models.User{Phone: phone, Role: models.RoleUser, IsActive: true}
	require.NoError(t, conn.Create(&user).Error)
	return user
}
