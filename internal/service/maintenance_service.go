package service

import (
	"time"

	"github.com/mifaly/new-ae-server/internal/config"
	"github.com/mifaly/new-ae-server/internal/logger"
	"github.com/mifaly/new-ae-server/internal/repository"
)

// MaintenanceService 周期性清理：软删除超过保留期的货源/商品，
// 以及超出保留期的历史订单
type MaintenanceService struct {
	offers   repository.OfferRepository
	products repository.ProductRepository
	orders   repository.OrderRepository
	policy   config.PolicyConfig
	now      func() time.Time
}

// NewMaintenanceService 创建清理服务
func NewMaintenanceService(offers repository.OfferRepository, products repository.ProductRepository, orders repository.OrderRepository, policy config.PolicyConfig) *MaintenanceService {
	return &MaintenanceService{
		offers:   offers,
		products: products,
		orders:   orders,
		policy:   policy,
		now:      time.Now,
	}
}

// PurgeExpired 执行一轮过期清理
func (s *MaintenanceService) PurgeExpired() error {
	cutoff := s.now().AddDate(0, 0, -s.policy.RetentionDays)

	offers, err := s.offers.PurgeDeletedBefore(cutoff)
	if err != nil {
		return err
	}
	products, err := s.products.PurgeDeletedBefore(cutoff)
	if err != nil {
		return err
	}
	orders, err := s.orders.PurgeCreatedBefore(cutoff)
	if err != nil {
		return err
	}
	if offers+products+orders > 0 {
		logger.Infow("maintenance_purge_expired",
			"offers", offers, "products", products, "orders", orders)
	}
	return nil
}
