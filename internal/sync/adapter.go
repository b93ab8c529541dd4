package sync

import (
	"context"
	"time"

	"github.com/Mieluoxxx/Catalogx-API/internal/catalog"
	"github.com/Mieluoxxx/Catalogx-API/internal/feed"
)

// FetchAdapter 供应商拉取适配器接口
// 每个供应商的具体线协议（REST/JSON、SOAP/XML、FTP 文件投递）各实现一个，
// 编排器只面向这两个方法编写，一次性有限序列，拉取级失败使整个任务中止。
type FetchAdapter interface {
	// FetchFull 返回当前完整目录
	FetchFull(ctx context.Context) ([]feed.RawRecord, error)

	// FetchSince 返回指定时间之后变更的记录
	FetchSince(ctx context.Context, since time.Time) ([]feed.RawRecord, error)
}

// CredentialProvider 凭证提供者接口
// 为拉取适配器提供按供应商的认证材料，核心不解析凭证内容。
type CredentialProvider interface {
	CredentialFor(vendorID uint) (string, error)
}

// Source 一个供应商的同步源配置
type Source struct {
	Adapter    FetchAdapter
	Normalizer *feed.Normalizer
	Mode       catalog.Mode // 为空时默认 smart_merge
}

// JobSummary 一次同步任务的汇总
// 任务本身是瞬态的，只有这份汇总会写入供应商的状态字段。
type JobSummary struct {
	VendorSlug string   `json:"vendor_slug"`
	Full       bool     `json:"full"` // 本次是否为全量同步
	Processed  int      `json:"processed"`
	Created    int      `json:"created"`
	Updated    int      `json:"updated"`
	Skipped    int      `json:"skipped"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
}
