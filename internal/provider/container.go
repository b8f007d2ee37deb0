package provider

import (
	"github.com/mifaly/new-ae-server/internal/cache"
	"github.com/mifaly/new-ae-server/internal/config"
	"github.com/mifaly/new-ae-server/internal/logger"
	"github.com/mifaly/new-ae-server/internal/models"
	"github.com/mifaly/new-ae-server/internal/queue"
	"github.com/mifaly/new-ae-server/internal/repository"
	"github.com/mifaly/new-ae-server/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	OfferRepo   repository.OfferRepository
	ProductRepo repository.ProductRepository
	OrderRepo   repository.OrderRepository

	// Services
	OfferService       *service.OfferService
	ProductService     *service.ProductService
	OrderService       *service.OrderService
	MaintenanceService *service.MaintenanceService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.OfferRepo = repository.NewOfferRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
}

func (c *Container) initServices() {
	policy := c.Config.Policy
	c.OfferService = service.NewOfferService(c.OfferRepo, c.ProductRepo, policy)
	c.ProductService = service.NewProductService(c.ProductRepo, c.OfferRepo, c.OrderRepo, policy)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.ProductRepo, policy)
	c.MaintenanceService = service.NewMaintenanceService(c.OfferRepo, c.ProductRepo, c.OrderRepo, policy)
}
