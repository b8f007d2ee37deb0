package router

import (
	"fmt"
	"strings"

	"github.com/mifaly/new-ae-server/internal/cache"
	"github.com/mifaly/new-ae-server/internal/config"
	adminhandlers "github.com/mifaly/new-ae-server/internal/http/handlers/admin"
	publichandlers "github.com/mifaly/new-ae-server/internal/http/handlers/public"
	"github.com/mifaly/new-ae-server/internal/logger"
	"github.com/mifaly/new-ae-server/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按采集端/管理端分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "ae"
	}
	redisClient := cache.Client()
	ingestRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:ingest", redisPrefix),
		WindowSeconds: cfg.Ingest.RateWindowSeconds,
		MaxRequests:   cfg.Ingest.RateMaxRequests,
		BlockSeconds:  cfg.Ingest.RateBlockSeconds,
	}
	ingestLimit := RateLimitMiddleware(redisClient, ingestRule, KeyByIP)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		apiV1.POST("/cfg", publicHandler.GetConfig)

		// 货源：采集脚本的快照入口
		offers := apiV1.Group("/offers")
		{
			offers.POST("", ingestLimit, publicHandler.CreateOffer)
			offers.PUT("", ingestLimit, publicHandler.ReconcileOffer)
			offers.GET("/next", publicHandler.NextOffer)
			offers.GET("/:offer_id", publicHandler.GetOffer)
		}

		// 商品
		products := apiV1.Group("/products")
		{
			products.POST("", ingestLimit, publicHandler.CreateProduct)
			products.PUT("", ingestLimit, publicHandler.UpdateProduct)
			products.POST("/batch", publicHandler.BatchProducts)
			products.POST("/use-stock", publicHandler.UseStock)
			products.GET("/:product_id", publicHandler.GetProduct)
		}

		// 订单
		orders := apiV1.Group("/orders")
		{
			orders.POST("", ingestLimit, publicHandler.BatchUpsertOrders)
			orders.GET("/next", publicHandler.NextOrder)
			orders.POST("/lg-ids", publicHandler.AssignLgIDs)
			orders.POST("/:order_id/weight/:weight/:item_num", publicHandler.RecordOrderWeight)
			orders.GET("/:order_id", publicHandler.GetOrder)
		}

		// 管理端
		admin := apiV1.Group("/admin")
		{
			admin.POST("/cfg", adminHandler.GetConfig)

			admin.POST("/offers/search", adminHandler.SearchOffers)
			admin.PUT("/offers/tips", adminHandler.SetOfferTips)
			admin.PUT("/offers/:id/pending/:pending", adminHandler.SetOfferPending)
			admin.PUT("/offers/:id/deleted/:deleted", adminHandler.SetOfferDeleted)
			admin.PUT("/offers/:id/product/:pid", adminHandler.SetOfferProductID)
			admin.PUT("/offers/:id/model/:mid", adminHandler.SetOfferModelID)
			admin.POST("/offers/discount-acknowledge-all", adminHandler.AcknowledgeDiscountChanges)

			admin.POST("/products/search", adminHandler.SearchProducts)
			admin.PUT("/products/tips", adminHandler.SetProductTips)
			admin.PUT("/products/info", adminHandler.UpdateProductInfo)
			admin.POST("/products/available", adminHandler.PromoteDrafts)
			admin.POST("/products/import-daily", adminHandler.ImportDaily)
			admin.PUT("/products/:id/pending/:pending", adminHandler.SetProductPending)
			admin.PUT("/products/:id/inited-weight/:inited", adminHandler.SetProductInitedWeight)
			admin.PUT("/products/:id/deleted/:deleted", adminHandler.SetProductDeleted)
			admin.PUT("/products/:id/offer/:oid", adminHandler.SetProductOfferID)
			admin.PUT("/products/:id/clear-stock-info", adminHandler.ClearProductStockInfo)
			admin.PUT("/products/:id/discount/:discount", adminHandler.SetProductDiscount)

			admin.POST("/orders/search", adminHandler.SearchOrders)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
