package priority

import (
	"errors"
	"log"

	"github.com/Mieluoxxx/Catalogx-API/internal/models"
	"gorm.io/gorm"
)

// UnknownPriority 未知或禁用供应商的哨兵优先级
// 数值足够大，保证它们永远不会胜过任何已知的供应商。
const UnknownPriority = 999

// Registry 供应商优先级注册表
// 提供按 slug 的热路径优先级查询，背后是一个读穿透缓存，
// 避免高吞吐同步期间每条记录一次数据库往返。
type Registry struct {
	db    *gorm.DB
	cache Cache
}

// NewRegistry 创建 Registry 实例
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{
		db:    db,
		cache: NewMemoryCache(),
	}
}

// PriorityOf 查询供应商优先级
// 未知或禁用的供应商返回 UnknownPriority，合并决策据此优雅降级而不是报错。
func (r *Registry) PriorityOf(slug string) int {
	if slug == "" {
		return UnknownPriority
	}

	// 缓存命中
	if priority, ok := r.cache.Get(slug); ok {
		return priority
	}

	// 缓存未命中，回源数据库
	var vendor models.Vendor
	err := r.db.Where("slug = ?", slug).First(&vendor).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("⚠️ 查询供应商优先级失败: slug=%s, err=%v", slug, err)
		}
		// 未知供应商也写入缓存，避免反复回源；
		// 供应商创建时会显式失效该条目。
		r.cache.Set(slug, UnknownPriority)
		return UnknownPriority
	}

	priority := vendor.Priority
	if !vendor.Enabled {
		priority = UnknownPriority
	}

	r.cache.Set(slug, priority)
	return priority
}

// Invalidate 失效单个供应商的缓存条目
// 必须在供应商的优先级、名称或启用状态变更时调用。
func (r *Registry) Invalidate(slug string) {
	r.cache.Delete(slug)
}

// InvalidateAll 清空全部缓存
// 优先级重排会影响多个供应商，直接整体失效。
func (r *Registry) InvalidateAll() {
	r.cache.Clear()
}

// CacheStats 获取缓存统计
func (r *Registry) CacheStats() CacheStats {
	return r.cache.Stats()
}
