package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mifaly/new-ae-server/internal/models"
	"github.com/mifaly/new-ae-server/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// 固定时钟，测试里所有服务都用它替换 time.Now
var testNow = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Offer{}, &models.Product{}, &models.Order{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

type testEnv struct {
	db       *gorm.DB
	offers   *repository.GormOfferRepository
	products *repository.GormProductRepository
	orders   *repository.GormOrderRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	return &testEnv{
		db:       db,
		offers:   repository.NewOfferRepository(db),
		products: repository.NewProductRepository(db),
		orders:   repository.NewOrderRepository(db),
	}
}
