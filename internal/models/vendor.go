package models

import "time"

// SyncStatus 同步状态常量
// never_synced -> in_progress -> success/error，下一次运行重新进入 in_progress
const (
	SyncStatusNeverSynced = "never_synced"
	SyncStatusInProgress  = "in_progress"
	SyncStatusSuccess     = "success"
	SyncStatusError       = "error"
)

// Vendor 供应商模型
// 每个供应商持有唯一的整数优先级，数字越小权威越高。
// 活跃供应商的优先级集合必须始终是稠密序列 {1..N}。
type Vendor struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Slug       string `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"` // 稳定标识，创建后不可变
	Name       string `gorm:"type:varchar(200);not null" json:"name"`             // 展示名称，不参与身份判定
	Priority   int    `gorm:"not null;index" json:"priority"`                     // 1, 2, 3...，数字越小权威越高
	Enabled    bool   `gorm:"default:true;not null" json:"enabled"`
	Credential string `gorm:"type:text" json:"-"` // 加密存储的凭证，核心不解析内容

	// FeedURL 目录源端点，为空时该供应商没有可触发的同步源
	FeedURL string `gorm:"type:varchar(500)" json:"feed_url"`

	// 同步状态字段（原子化部分更新）
	SyncStatus    string     `gorm:"type:varchar(20);not null;default:'never_synced'" json:"sync_status"`
	LastSyncAt    *time.Time `json:"last_sync_at,omitempty"` // 仅在整体成功时推进
	LastSyncError string     `gorm:"type:text" json:"last_sync_error,omitempty"`

	// 最近一次同步的统计
	LastProcessed int `gorm:"default:0;not null" json:"last_processed"`
	LastCreated   int `gorm:"default:0;not null" json:"last_created"`
	LastUpdated   int `gorm:"default:0;not null" json:"last_updated"`
	LastSkipped   int `gorm:"default:0;not null" json:"last_skipped"`
	LastFailed    int `gorm:"default:0;not null" json:"last_failed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Vendor) TableName() string {
	return "vendors"
}
