package priority

import (
	"sync"
	"sync/atomic"
)

// ==================== 缓存接口 ====================

// Cache 优先级缓存接口
// 没有 TTL 和后台清理：正确性完全依赖供应商变更路径上的显式失效。
type Cache interface {
	// Get 获取缓存的优先级
	Get(slug string) (int, bool)

	// Set 写入缓存
	Set(slug string, priority int)

	// Delete 删除指定缓存条目
	Delete(slug string)

	// Clear 清空所有缓存
	Clear()

	// Stats 获取缓存统计
	Stats() CacheStats
}

// CacheStats 缓存统计信息
type CacheStats struct {
	Size      int     `json:"size"`       // 当前缓存条目数
	HitCount  int64   `json:"hit_count"`  // 缓存命中次数
	MissCount int64   `json:"miss_count"` // 缓存未命中次数
	HitRate   float64 `json:"hit_rate"`   // 缓存命中率
}

// ==================== 内存缓存实现 ====================

// MemoryCache 内存缓存实现
type MemoryCache struct {
	mu        sync.RWMutex
	data      map[string]int
	hitCount  int64 // 原子操作
	missCount int64 // 原子操作
}

// NewMemoryCache 创建内存缓存
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]int),
	}
}

// Get 获取缓存的优先级
func (c *MemoryCache) Get(slug string) (int, bool) {
	c.mu.RLock()
	priority, exists := c.data[slug]
	c.mu.RUnlock()

	if !exists {
		atomic.AddInt64(&c.missCount, 1)
		return 0, false
	}

	atomic.AddInt64(&c.hitCount, 1)
	return priority, true
}

// Set 写入缓存
func (c *MemoryCache) Set(slug string, priority int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[slug] = priority
}

// Delete 删除指定缓存条目
func (c *MemoryCache) Delete(slug string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, slug)
}

// Clear 清空所有缓存
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[string]int)
	atomic.StoreInt64(&c.hitCount, 0)
	atomic.StoreInt64(&c.missCount, 0)
}

// Stats 获取缓存统计
func (c *MemoryCache) Stats() CacheStats {
	c.mu.RLock()
	size := len(c.data)
	c.mu.RUnlock()

	hits := atomic.LoadInt64(&c.hitCount)
	misses := atomic.LoadInt64(&c.missCount)

	totalRequests := hits + misses
	hitRate := 0.0
	if totalRequests > 0 {
		hitRate = float64(hits) / float64(totalRequests)
	}

	return CacheStats{
		Size:      size,
		HitCount:  hits,
		MissCount: misses,
		HitRate:   hitRate,
	}
}
