package sync

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/Mieluoxxx/Catalogx-API/internal/catalog"
	"github.com/Mieluoxxx/Catalogx-API/internal/events"
	"github.com/Mieluoxxx/Catalogx-API/internal/feed"
	"github.com/Mieluoxxx/Catalogx-API/internal/image"
	"github.com/Mieluoxxx/Catalogx-API/internal/models"
	"github.com/Mieluoxxx/Catalogx-API/internal/vendor"
)

var (
	// ErrSyncInProgress 同一供应商已有同步任务在执行
	ErrSyncInProgress = errors.New("该供应商已有同步任务在执行")
	// ErrVendorDisabled 供应商已禁用
	ErrVendorDisabled = errors.New("供应商已禁用，无法同步")
	// ErrNoSourceRegistered 供应商未注册同步源
	ErrNoSourceRegistered = errors.New("供应商未注册同步源")
)

// Orchestrator 目录同步编排器
// 按供应商驱动全量/增量同步：拉取、逐条走合并引擎、维护映射、
// 聚合统计并写回供应商的同步状态字段。
// 不同供应商的同步可以并发执行；同一供应商同一时刻至多一个任务。
type Orchestrator struct {
	vendors    *vendor.Repository
	catalogSvc *catalog.Service
	resolver   *image.Resolver
	events     *events.Service
	throughput *RecordCounter

	workers       int
	resolveImages bool

	sourcesMu gosync.RWMutex
	sources   map[string]Source // 按供应商 slug 注册

	inflightMu gosync.Mutex
	inflight   map[uint]struct{}
}

// NewOrchestrator 创建编排器
func NewOrchestrator(vendors *vendor.Repository, catalogSvc *catalog.Service, resolver *image.Resolver, eventsSvc *events.Service, workers int, resolveImages bool) *Orchestrator {
	if workers <= 0 {
		workers = 4
	}
	return &Orchestrator{
		vendors:       vendors,
		catalogSvc:    catalogSvc,
		resolver:      resolver,
		events:        eventsSvc,
		throughput:    NewRecordCounter(0),
		workers:       workers,
		resolveImages: resolveImages,
		sources:       make(map[string]Source),
		inflight:      make(map[uint]struct{}),
	}
}

// RegisterSource 为供应商注册同步源
func (o *Orchestrator) RegisterSource(vendorSlug string, source Source) {
	if source.Normalizer == nil {
		source.Normalizer = feed.NewNormalizer(nil)
	}
	if source.Mode == "" {
		source.Mode = catalog.ModeSmartMerge
	}

	o.sourcesMu.Lock()
	defer o.sourcesMu.Unlock()
	o.sources[vendorSlug] = source
}

// UnregisterSource 移除供应商的同步源注册
func (o *Orchestrator) UnregisterSource(vendorSlug string) {
	o.sourcesMu.Lock()
	defer o.sourcesMu.Unlock()
	delete(o.sources, vendorSlug)
}

// Throughput 获取吞吐统计
func (o *Orchestrator) Throughput() ThroughputStats {
	return o.throughput.GetStats()
}

// TriggerFullSync 触发全量同步
func (o *Orchestrator) TriggerFullSync(ctx context.Context, vendorID uint) (*JobSummary, error) {
	return o.run(ctx, vendorID, false)
}

// TriggerIncrementalSync 触发增量同步
// 没有上一次成功同步时间戳时自动退化为全量（没有可对比的基线）。
func (o *Orchestrator) TriggerIncrementalSync(ctx context.Context, vendorID uint) (*JobSummary, error) {
	return o.run(ctx, vendorID, true)
}

// ==================== 任务执行 ====================

// run 执行一次同步任务
func (o *Orchestrator) run(ctx context.Context, vendorID uint, incremental bool) (*JobSummary, error) {
	v, err := o.vendors.FindByID(vendorID)
	if err != nil {
		return nil, err
	}
	if !v.Enabled {
		return nil, ErrVendorDisabled
	}

	o.sourcesMu.RLock()
	source, ok := o.sources[v.Slug]
	o.sourcesMu.RUnlock()
	if !ok {
		return nil, ErrNoSourceRegistered
	}

	// 同一供应商的并发触发直接拒绝，绝不与自己并发
	if !o.acquire(v.ID) {
		return nil, ErrSyncInProgress
	}
	defer o.release(v.ID)

	// 任何网络调用之前先置 in_progress：中途崩溃可被观察到"卡住"，
	// 而不是悄悄变成"成功"。该写入同时兼任数据库侧的互斥。
	marked, err := o.vendors.MarkSyncInProgress(v.ID)
	if err != nil {
		return nil, err
	}
	if !marked {
		return nil, ErrSyncInProgress
	}

	full := !incremental || v.LastSyncAt == nil
	summary := &JobSummary{VendorSlug: v.Slug, Full: full}

	o.logEvent(models.EventTypeSyncStarted,
		fmt.Sprintf("供应商 %s 同步开始 (full=%v)", v.Slug, full),
		map[string]interface{}{"vendor_id": v.ID, "full": full})

	// 拉取：失败对整个任务是致命的，计数器不推进，时间戳不前移
	var records []feed.RawRecord
	if full {
		records, err = source.Adapter.FetchFull(ctx)
	} else {
		records, err = source.Adapter.FetchSince(ctx, *v.LastSyncAt)
	}
	if err != nil {
		summary.Success = false
		summary.Message = fmt.Sprintf("拉取失败: %v", err)
		o.finish(v, summary, err.Error(), nil)
		return summary, nil
	}

	// 逐条处理：按商品身份分片给 worker，同一身份串行，跨身份并行
	counters := o.process(ctx, v, source, records, summary)

	summary.Processed = int(counters.processed)
	summary.Created = int(counters.created)
	summary.Updated = int(counters.updated)
	summary.Skipped = int(counters.skipped)
	summary.Failed = int(counters.failed)
	summary.Success = true
	summary.Message = fmt.Sprintf("处理 %d 条：新建 %d，更新 %d，跳过 %d，失败 %d",
		summary.Processed, summary.Created, summary.Updated, summary.Skipped, summary.Failed)

	now := time.Now()
	o.finish(v, summary, "", &now)

	return summary, nil
}

// jobCounters 单次任务的原子计数器
type jobCounters struct {
	processed int64
	created   int64
	updated   int64
	skipped   int64
	failed    int64
}

// process 用有界 worker 池处理全部记录
// 记录按身份键（UPC，缺失时 MPN）哈希分片，保证同一商品的记录
// 始终由同一个 worker 顺序处理；单条失败只计数并继续。
func (o *Orchestrator) process(ctx context.Context, v *models.Vendor, source Source, records []feed.RawRecord, summary *JobSummary) *jobCounters {
	counters := &jobCounters{}

	workers := o.workers
	if len(records) < workers {
		workers = len(records)
	}
	if workers == 0 {
		return counters
	}

	shards := make([]chan catalog.CandidateFields, workers)
	for i := range shards {
		shards[i] = make(chan catalog.CandidateFields, 16)
	}

	var listMu gosync.Mutex
	appendError := func(msg string) {
		listMu.Lock()
		summary.Errors = append(summary.Errors, msg)
		listMu.Unlock()
	}
	appendWarning := func(msg string) {
		listMu.Lock()
		summary.Warnings = append(summary.Warnings, msg)
		listMu.Unlock()
	}

	var wg gosync.WaitGroup
	var imageWg gosync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(shard chan catalog.CandidateFields) {
			defer wg.Done()
			for candidate := range shard {
				o.processCandidate(v, source, candidate, counters, appendError, appendWarning, &imageWg)
			}
		}(shards[i])
	}

	drainCancelled := func() *jobCounters {
		appendWarning(fmt.Sprintf("任务被取消，剩余记录未处理: %v", ctx.Err()))
		for _, shard := range shards {
			close(shard)
		}
		wg.Wait()
		imageWg.Wait()
		return counters
	}

	// 分发：在这里做一次规范化，身份键哈希决定分片；
	// 规范化失败的记录直接计数，不进入 worker。
	for _, record := range records {
		select {
		case <-ctx.Done():
			return drainCancelled()
		default:
		}

		candidate, err := source.Normalizer.Normalize(record)
		if err != nil {
			atomic.AddInt64(&counters.processed, 1)
			o.throughput.Increment()
			atomic.AddInt64(&counters.failed, 1)
			appendError(err.Error())
			continue
		}

		key := candidate.UPC
		if key == "" {
			key = candidate.ManufacturerPartNumber
		}

		// 发送本身也要能被取消打断，分片写满时不能卡死整个任务
		select {
		case shards[shardIndex(key, workers)] <- candidate:
		case <-ctx.Done():
			return drainCancelled()
		}
	}

	for _, shard := range shards {
		close(shard)
	}
	wg.Wait()
	imageWg.Wait()

	return counters
}

// processCandidate 处理单条规范化后的候选
func (o *Orchestrator) processCandidate(v *models.Vendor, source Source, candidate catalog.CandidateFields, counters *jobCounters, appendError, appendWarning func(string), imageWg *gosync.WaitGroup) {
	atomic.AddInt64(&counters.processed, 1)
	o.throughput.Increment()

	action, product, err := o.catalogSvc.ApplyCandidate(v, candidate, source.Mode)
	if err != nil {
		atomic.AddInt64(&counters.failed, 1)
		appendError(fmt.Sprintf("记录 upc=%s: %v", candidate.UPC, err))
		return
	}

	switch action {
	case catalog.ActionCreate:
		atomic.AddInt64(&counters.created, 1)
	case catalog.ActionReplace, catalog.ActionMerge:
		atomic.AddInt64(&counters.updated, 1)
	default:
		atomic.AddInt64(&counters.skipped, 1)
	}

	// 写入后异步触发图片回退解析，失败只记警告，绝不影响同步任务
	if o.resolveImages && o.resolver != nil && action != catalog.ActionSkip && product != nil && product.UPC != "" {
		upc := product.UPC
		imageWg.Add(1)
		go func() {
			defer imageWg.Done()
			if _, err := o.resolver.ResolveBestImage(upc); err != nil {
				appendWarning(fmt.Sprintf("图片解析失败 upc=%s: %v", upc, err))
			}
		}()
	}
}

// finish 写入任务终态并记录事件
// lastSyncAt 仅在整体成功时传入，拉取失败不会推进时间戳。
func (o *Orchestrator) finish(v *models.Vendor, summary *JobSummary, errMsg string, lastSyncAt *time.Time) {
	status := models.SyncStatusSuccess
	eventType := models.EventTypeSyncCompleted
	level := models.EventLevelInfo
	if !summary.Success {
		status = models.SyncStatusError
		eventType = models.EventTypeSyncFailed
		level = models.EventLevelError
	}

	err := o.vendors.FinishSync(v.ID, status, errMsg, lastSyncAt,
		summary.Processed, summary.Created, summary.Updated, summary.Skipped, summary.Failed)
	if err != nil {
		log.Printf("⚠️ 写入同步终态失败: vendor=%s, err=%v", v.Slug, err)
	}

	if o.events != nil {
		logErr := o.events.LogEvent(eventType, fmt.Sprintf("供应商 %s: %s", v.Slug, summary.Message), level,
			map[string]interface{}{
				"vendor_id": v.ID,
				"processed": summary.Processed,
				"created":   summary.Created,
				"updated":   summary.Updated,
				"skipped":   summary.Skipped,
				"failed":    summary.Failed,
			})
		if logErr != nil {
			log.Printf("⚠️ 记录同步事件失败: %v", logErr)
		}
	}
}

// ==================== 并发控制 ====================

// acquire 获取供应商的进程内互斥
func (o *Orchestrator) acquire(vendorID uint) bool {
	o.inflightMu.Lock()
	defer o.inflightMu.Unlock()

	if _, exists := o.inflight[vendorID]; exists {
		return false
	}
	o.inflight[vendorID] = struct{}{}
	return true
}

// release 释放供应商的进程内互斥
func (o *Orchestrator) release(vendorID uint) {
	o.inflightMu.Lock()
	defer o.inflightMu.Unlock()

	delete(o.inflight, vendorID)
}

// logEvent 记录事件
func (o *Orchestrator) logEvent(eventType, message string, metadata map[string]interface{}) {
	if o.events == nil {
		return
	}
	if err := o.events.LogInfo(eventType, message, metadata); err != nil {
		log.Printf("⚠️ 记录事件失败: type=%s, err=%v", eventType, err)
	}
}

// shardIndex 按身份键哈希选择分片
func shardIndex(key string, workers int) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(workers))
}
