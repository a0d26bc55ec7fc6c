package repositories

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"ferreteria/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestGORMProductRepository(t *testing.T) {
	testProductRepository(t, NewGORMProductRepository(newTestDB(t)))
}

func TestGORMSaleRepository(t *testing.T) {
	repo := NewGORMSaleRepository(newTestDB(t))
	ctx := context.Background()

	now := time.Now()
	later := &models.Sale{ProductID: "p1", ProductName: "Martillo", Quantity: 1, UnitPrice: 14.5, Total: 14.5, CreatedAt: now.Add(time.Minute)}
	earlier := &models.Sale{ProductID: "p2", ProductName: "Serrucho", Quantity: 2, UnitPrice: 25, Total: 50, CreatedAt: now}
	require.NoError(t, repo.Create(ctx, later))
	require.NoError(t, repo.Create(ctx, earlier))
	assert.NotEmpty(t, later.ID)

	sales, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, "p2", sales[0].ProductID)
	assert.Equal(t, "p1", sales[1].ProductID)
}

func TestGORMStaffRepository(t *testing.T) {
	repo := NewGORMStaffRepository(newTestDB(t))
	ctx := context.Background()

	staff := &models.Staff{Username: "encargado", Email: "encargado@ferreteria.pe", Password: "hash"}
	require.NoError(t, repo.Create(ctx, staff))
	assert.NotEmpty(t, staff.ID)

	found, err := repo.GetByUsername(ctx, "encargado")
	require.NoError(t, err)
	assert.Equal(t, staff.ID, found.ID)

	found, err = repo.GetByEmail(ctx, "encargado@ferreteria.pe")
	require.NoError(t, err)
	assert.Equal(t, "encargado", found.Username)

	_, err = repo.GetByUsername(ctx, "nadie")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, repo.Create(ctx, &models.Staff{Username: "encargado", Email: "otro@ferreteria.pe", Password: "hash"}))
}
