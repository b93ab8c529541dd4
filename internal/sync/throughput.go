package sync

import (
	gosync "sync"
	"sync/atomic"
	"time"
)

// RecordCounter 同步记录吞吐计数器
// 内存计数器 + 滑动时间窗口，统计同步期间的记录处理速率。
type RecordCounter struct {
	totalRecords int64 // 总处理记录数（原子操作）

	windowMutex    gosync.RWMutex
	currentWindow  *timeWindow
	previousWindow *timeWindow
	windowDuration time.Duration
}

// timeWindow 时间窗口
type timeWindow struct {
	count     int64
	startTime time.Time
}

// NewRecordCounter 创建吞吐计数器
func NewRecordCounter(windowDuration time.Duration) *RecordCounter {
	if windowDuration == 0 {
		windowDuration = 60 * time.Second // 默认 60 秒窗口
	}

	counter := &RecordCounter{
		windowDuration: windowDuration,
		currentWindow: &timeWindow{
			startTime: time.Now(),
		},
		previousWindow: &timeWindow{
			startTime: time.Now().Add(-windowDuration),
		},
	}

	// 启动后台协程，定期滚动时间窗口
	go counter.rotateWindows()

	return counter
}

// Increment 增加记录计数
func (rc *RecordCounter) Increment() {
	atomic.AddInt64(&rc.totalRecords, 1)

	rc.windowMutex.Lock()
	rc.currentWindow.count++
	rc.windowMutex.Unlock()
}

// GetTotal 获取总处理记录数
func (rc *RecordCounter) GetTotal() int64 {
	return atomic.LoadInt64(&rc.totalRecords)
}

// GetRate 获取当前每秒处理记录数
// 基于滑动时间窗口计算
func (rc *RecordCounter) GetRate() float64 {
	rc.windowMutex.RLock()
	defer rc.windowMutex.RUnlock()

	now := time.Now()

	currentElapsed := now.Sub(rc.currentWindow.startTime).Seconds()
	if currentElapsed == 0 {
		currentElapsed = 1 // 避免除零
	}

	currentRate := float64(rc.currentWindow.count) / currentElapsed

	// 当前窗口时间很短时，结合上一个窗口的数据做加权平均
	if currentElapsed < rc.windowDuration.Seconds() {
		prevWeight := (rc.windowDuration.Seconds() - currentElapsed) / rc.windowDuration.Seconds()
		prevRate := float64(rc.previousWindow.count) / rc.windowDuration.Seconds()

		return currentRate*(1-prevWeight) + prevRate*prevWeight
	}

	return currentRate
}

// rotateWindows 定期滚动时间窗口
func (rc *RecordCounter) rotateWindows() {
	ticker := time.NewTicker(rc.windowDuration)
	defer ticker.Stop()

	for range ticker.C {
		rc.windowMutex.Lock()

		rc.previousWindow = rc.currentWindow
		rc.currentWindow = &timeWindow{
			startTime: time.Now(),
		}

		rc.windowMutex.Unlock()
	}
}

// ThroughputStats 吞吐统计信息
type ThroughputStats struct {
	Total       int64   `json:"total"`
	CurrentRate float64 `json:"current_rate"`
}

// GetStats 获取统计信息
func (rc *RecordCounter) GetStats() ThroughputStats {
	return ThroughputStats{
		Total:       rc.GetTotal(),
		CurrentRate: rc.GetRate(),
	}
}
