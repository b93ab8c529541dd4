package api

import (
	"errors"
	"log"

	"github.com/Mieluoxxx/Catalogx-API/internal/api/handlers"
	"github.com/Mieluoxxx/Catalogx-API/internal/catalog"
	"github.com/Mieluoxxx/Catalogx-API/internal/config"
	"github.com/Mieluoxxx/Catalogx-API/internal/credentials"
	"github.com/Mieluoxxx/Catalogx-API/internal/events"
	"github.com/Mieluoxxx/Catalogx-API/internal/feed"
	"github.com/Mieluoxxx/Catalogx-API/internal/image"
	"github.com/Mieluoxxx/Catalogx-API/internal/mapping"
	"github.com/Mieluoxxx/Catalogx-API/internal/models"
	"github.com/Mieluoxxx/Catalogx-API/internal/priority"
	catalogsync "github.com/Mieluoxxx/Catalogx-API/internal/sync"
	"github.com/Mieluoxxx/Catalogx-API/internal/vendor"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Dependencies 应用依赖图
// 在进程启动时装配一次，路由与同步源注册都从这里取。
type Dependencies struct {
	Registry     *priority.Registry
	Vendors      *vendor.Service
	Catalog      *catalog.Service
	Mappings     *mapping.Service
	Resolver     *image.Resolver
	Orchestrator *catalogsync.Orchestrator
	Events       *events.Service
	Credentials  *credentials.Provider
}

// BuildDependencies 装配应用依赖
// encryptionKey 为 nil 时凭证明文存储（仅限本地开发）。
func BuildDependencies(db *gorm.DB, encryptionKey []byte, syncCfg config.SyncConfig) *Dependencies {
	registry := priority.NewRegistry(db)
	eventsSvc := events.NewService(db)
	creds := credentials.NewProvider(db, encryptionKey)

	vendorRepo := vendor.NewRepository(db)
	vendorSvc := vendor.NewService(vendorRepo, registry, eventsSvc, creds)

	mappingRepo := mapping.NewRepository(db)
	mappingSvc := mapping.NewService(mappingRepo)

	productRepo := catalog.NewRepository(db)
	engine := catalog.NewEngine(registry, nil)
	catalogSvc := catalog.NewService(productRepo, engine, mappingSvc)

	resolver := image.NewResolver(productRepo, mappingSvc, registry, eventsSvc)

	orchestrator := catalogsync.NewOrchestrator(
		vendorRepo, catalogSvc, resolver, eventsSvc,
		syncCfg.Workers, syncCfg.ResolveImages,
	)

	deps := &Dependencies{
		Registry:     registry,
		Vendors:      vendorSvc,
		Catalog:      catalogSvc,
		Mappings:     mappingSvc,
		Resolver:     resolver,
		Orchestrator: orchestrator,
		Events:       eventsSvc,
		Credentials:  creds,
	}

	// 为已有供应商注册同步源，之后由供应商写路径维护
	deps.RegisterFeedSources()

	return deps
}

// RegisterFeed 根据供应商的 FeedURL 维护其同步源注册
// FeedURL 为空时移除注册；凭证未配置按无认证的源处理。
func (d *Dependencies) RegisterFeed(v *models.Vendor) {
	if v.FeedURL == "" {
		d.Orchestrator.UnregisterSource(v.Slug)
		return
	}

	credential, err := d.Credentials.CredentialFor(v.ID)
	if err != nil && !errors.Is(err, credentials.ErrCredentialNotFound) {
		log.Printf("⚠️ 解密供应商凭证失败，跳过同步源注册: vendor=%s, err=%v", v.Slug, err)
		return
	}

	adapter := feed.NewHTTPFeedAdapter(feed.HTTPFeedConfig{
		BaseURL:    v.FeedURL,
		Credential: credential,
	})
	d.Orchestrator.RegisterSource(v.Slug, catalogsync.Source{Adapter: adapter})
}

// UnregisterFeed 移除供应商的同步源注册
func (d *Dependencies) UnregisterFeed(slug string) {
	d.Orchestrator.UnregisterSource(slug)
}

// RegisterFeedSources 为全部配置了 FeedURL 的供应商注册同步源
func (d *Dependencies) RegisterFeedSources() {
	vendors, err := d.Vendors.ListVendors()
	if err != nil {
		log.Printf("⚠️ 加载供应商列表失败，同步源未注册: %v", err)
		return
	}
	for _, v := range vendors {
		d.RegisterFeed(v)
	}
}

// SetupRouter 配置路由
func SetupRouter(deps *Dependencies) *gin.Engine {
	// 创建 Gin 引擎
	router := gin.Default()
	router.Use(cors.Default())

	// 健康检查端点
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "Catalogx-API",
		})
	})

	// API 路由组
	apiGroup := router.Group("/api")
	{
		setupVendorRoutes(apiGroup, deps)
		setupProductRoutes(apiGroup, deps)
		setupStatsRoutes(apiGroup, deps)
	}

	return router
}

// setupVendorRoutes 配置供应商与同步路由
func setupVendorRoutes(group *gin.RouterGroup, deps *Dependencies) {
	vendorHandler := handlers.NewVendorHandler(deps.Vendors, deps)
	syncHandler := handlers.NewSyncHandler(deps.Orchestrator)

	vendors := group.Group("/vendors")
	{
		vendors.POST("", vendorHandler.CreateVendor)
		vendors.GET("", vendorHandler.ListVendors)
		vendors.GET("/:id", vendorHandler.GetVendor)
		vendors.PUT("/:id", vendorHandler.UpdateVendor)
		vendors.PUT("/:id/priority", vendorHandler.SetPriority)
		vendors.DELETE("/:id", vendorHandler.DeleteVendor)

		vendors.POST("/:id/sync/full", syncHandler.TriggerFullSync)
		vendors.POST("/:id/sync/incremental", syncHandler.TriggerIncrementalSync)
	}
}

// setupProductRoutes 配置商品路由
func setupProductRoutes(group *gin.RouterGroup, deps *Dependencies) {
	productHandler := handlers.NewProductHandler(deps.Catalog, deps.Resolver)

	products := group.Group("/products")
	{
		products.GET("/:upc", productHandler.GetProduct)
		products.GET("/:upc/image", productHandler.ResolveBestImage)
	}
}

// setupStatsRoutes 配置统计与事件路由
func setupStatsRoutes(group *gin.RouterGroup, deps *Dependencies) {
	statsHandler := handlers.NewStatsHandler(deps.Registry, deps.Orchestrator, deps.Events)

	group.GET("/stats", statsHandler.GetStats)
	group.GET("/events", statsHandler.GetRecentEvents)
}
