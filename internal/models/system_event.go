package models

import "time"

// SystemEvent 系统事件日志
// 用于记录系统重要事件，如同步生命周期、供应商变更、缓存失效等
type SystemEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Type      string    `gorm:"type:varchar(50);not null;index" json:"type"` // sync_started, vendor_deleted, etc.
	Message   string    `gorm:"type:text;not null" json:"message"`
	Level     string    `gorm:"type:varchar(20);not null;default:'info'" json:"level"` // info, warning, error
	Metadata  string    `gorm:"type:json" json:"metadata,omitempty"`                   // 额外的元数据（JSON 格式）
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (SystemEvent) TableName() string {
	return "system_events"
}

// EventType 事件类型常量
const (
	EventTypeSyncStarted         = "sync_started"         // 同步开始
	EventTypeSyncCompleted       = "sync_completed"       // 同步完成
	EventTypeSyncFailed          = "sync_failed"          // 同步失败
	EventTypeVendorCreated       = "vendor_created"       // 供应商创建
	EventTypeVendorUpdated       = "vendor_updated"       // 供应商更新
	EventTypeVendorDeleted       = "vendor_deleted"       // 供应商删除
	EventTypePriorityResequenced = "priority_resequenced" // 优先级重排
	EventTypeCacheInvalidation   = "cache_invalidation"   // 缓存失效
	EventTypeImageFallback       = "image_fallback"       // 图片回退
)

// EventLevel 事件级别常量
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)
