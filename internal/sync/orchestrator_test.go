package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Mieluoxxx/Catalogx-API/internal/catalog"
	"github.com/Mieluoxxx/Catalogx-API/internal/events"
	"github.com/Mieluoxxx/Catalogx-API/internal/feed"
	"github.com/Mieluoxxx/Catalogx-API/internal/mapping"
	"github.com/Mieluoxxx/Catalogx-API/internal/models"
	"github.com/Mieluoxxx/Catalogx-API/internal/priority"
	"github.com/Mieluoxxx/Catalogx-API/internal/vendor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fakeAdapter 测试用同步源
type fakeAdapter struct {
	records    []feed.RawRecord
	fetchErr   error
	fullCalls  int
	sinceCalls int
	lastSince  time.Time
}

func (f *fakeAdapter) FetchFull(ctx context.Context) ([]feed.RawRecord, error) {
	f.fullCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.records, nil
}

func (f *fakeAdapter) FetchSince(ctx context.Context, since time.Time) ([]feed.RawRecord, error) {
	f.sinceCalls++
	f.lastSince = since
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.records, nil
}

func setupTestOrchestrator(t *testing.T) (*Orchestrator, *vendor.Repository, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// 内存 sqlite 每个连接是独立数据库，worker 并发时必须锁定单连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Vendor{}, &models.Product{}, &models.VendorProductMapping{}, &models.SystemEvent{}))

	vendors := vendor.NewRepository(db)
	registry := priority.NewRegistry(db)
	mappings := mapping.NewService(mapping.NewRepository(db))
	products := catalog.NewRepository(db)
	engine := catalog.NewEngine(registry, nil)
	catalogSvc := catalog.NewService(products, engine, mappings)
	eventsSvc := events.NewService(db)

	orchestrator := NewOrchestrator(vendors, catalogSvc, nil, eventsSvc, 2, false)
	return orchestrator, vendors, db
}

func seedSyncVendor(t *testing.T, vendors *vendor.Repository, slug string, prio int, enabled bool) *models.Vendor {
	v := &models.Vendor{Slug: slug, Name: slug, Priority: prio, Enabled: enabled, SyncStatus: models.SyncStatusNeverSynced}
	require.NoError(t, vendors.Create(v))
	return v
}

func glockRecord(upc, name string) feed.RawRecord {
	return feed.RawRecord{"upc": upc, "name": name, "brand": "Glock"}
}

func TestOrchestrator_FullSync_Counters(t *testing.T) {
	orchestrator, vendors, _ := setupTestOrchestrator(t)
	v := seedSyncVendor(t, vendors, "sports-south", 1, true)

	adapter := &fakeAdapter{records: []feed.RawRecord{
		glockRecord("012345678905", "Glock 19 Gen5"),
		glockRecord("012345678912", "Glock 17 Gen5"),
	}}
	orchestrator.RegisterSource("sports-south", Source{Adapter: adapter})

	summary, err := orchestrator.TriggerFullSync(context.Background(), v.ID)
	require.NoError(t, err)

	assert.True(t, summary.Success)
	assert.True(t, summary.Full)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 0, summary.Updated)
	assert.Equal(t, 0, summary.Failed)

	// 状态机落到 success，时间戳推进，计数器持久化
	after, err := vendors.FindByID(v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSuccess, after.SyncStatus)
	require.NotNil(t, after.LastSyncAt)
	assert.Equal(t, 2, after.LastProcessed)
	assert.Equal(t, 2, after.LastCreated)
}

// TestOrchestrator_SecondRunSkips 相同数据再同步一轮必须全部 Skip
func TestOrchestrator_SecondRunSkips(t *testing.T) {
	orchestrator, vendors, _ := setupTestOrchestrator(t)
	v := seedSyncVendor(t, vendors, "sports-south", 1, true)

	adapter := &fakeAdapter{records: []feed.RawRecord{glockRecord("012345678905", "Glock 19 Gen5")}}
	orchestrator.RegisterSource("sports-south", Source{Adapter: adapter})

	_, err := orchestrator.TriggerFullSync(context.Background(), v.ID)
	require.NoError(t, err)

	summary, err := orchestrator.TriggerFullSync(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Created)
	assert.Equal(t, 0, summary.Updated)
	assert.Equal(t, 1, summary.Skipped)
}

// TestOrchestrator_IncrementalFallsBackToFull 无基线时增量退化为全量
func TestOrchestrator_IncrementalFallsBackToFull(t *testing.T) {
	orchestrator, vendors, _ := setupTestOrchestrator(t)
	v := seedSyncVendor(t, vendors, "sports-south", 1, true)

	adapter := &fakeAdapter{records: []feed.RawRecord{glockRecord("012345678905", "Glock 19 Gen5")}}
	orchestrator.RegisterSource("sports-south", Source{Adapter: adapter})

	summary, err := orchestrator.TriggerIncrementalSync(context.Background(), v.ID)
	require.NoError(t, err)
	assert.True(t, summary.Full)
	assert.Equal(t, 1, adapter.fullCalls)
	assert.Equal(t, 0, adapter.sinceCalls)

	// 有了基线之后，第二次增量走 FetchSince
	summary, err = orchestrator.TriggerIncrementalSync(context.Background(), v.ID)
	require.NoError(t, err)
	assert.False(t, summary.Full)
	assert.Equal(t, 1, adapter.sinceCalls)
	assert.False(t, adapter.lastSince.IsZero())
}

// TestOrchestrator_FetchFailure 拉取失败致命：状态 error，时间戳不前移
func TestOrchestrator_FetchFailure(t *testing.T) {
	orchestrator, vendors, _ := setupTestOrchestrator(t)
	v := seedSyncVendor(t, vendors, "sports-south", 1, true)

	adapter := &fakeAdapter{fetchErr: errors.New("connection refused")}
	orchestrator.RegisterSource("sports-south", Source{Adapter: adapter})

	summary, err := orchestrator.TriggerFullSync(context.Background(), v.ID)
	require.NoError(t, err, "拉取失败记录在任务摘要里，不作为调用错误返回")
	assert.False(t, summary.Success)
	assert.Contains(t, summary.Message, "connection refused")

	after, err := vendors.FindByID(v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusError, after.SyncStatus)
	assert.Contains(t, after.LastSyncError, "connection refused")
	assert.Nil(t, after.LastSyncAt, "失败不推进同步基线")
}

// TestOrchestrator_RecordFailureContinues 单条失败只计数，不中断任务
func TestOrchestrator_RecordFailureContinues(t *testing.T) {
	orchestrator, vendors, _ := setupTestOrchestrator(t)
	v := seedSyncVendor(t, vendors, "sports-south", 1, true)

	adapter := &fakeAdapter{records: []feed.RawRecord{
		glockRecord("012345678905", "Glock 19 Gen5"),
		{"upc": "012345678912", "msrp": "not-a-price"},
		{"name": "no identifiers"},
	}}
	orchestrator.RegisterSource("sports-south", Source{Adapter: adapter})

	summary, err := orchestrator.TriggerFullSync(context.Background(), v.ID)
	require.NoError(t, err)

	assert.True(t, summary.Success, "存在失败记录的任务整体仍算成功")
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 2, summary.Failed)
	assert.Len(t, summary.Errors, 2)

	after, _ := vendors.FindByID(v.ID)
	assert.Equal(t, models.SyncStatusSuccess, after.SyncStatus)
	assert.NotNil(t, after.LastSyncAt)
}

func TestOrchestrator_DisabledVendor(t *testing.T) {
	orchestrator, vendors, _ := setupTestOrchestrator(t)
	v := seedSyncVendor(t, vendors, "sports-south", 1, false)
	orchestrator.RegisterSource("sports-south", Source{Adapter: &fakeAdapter{}})

	_, err := orchestrator.TriggerFullSync(context.Background(), v.ID)
	assert.ErrorIs(t, err, ErrVendorDisabled)
}

func TestOrchestrator_NoSourceRegistered(t *testing.T) {
	orchestrator, vendors, _ := setupTestOrchestrator(t)
	v := seedSyncVendor(t, vendors, "sports-south", 1, true)

	_, err := orchestrator.TriggerFullSync(context.Background(), v.ID)
	assert.ErrorIs(t, err, ErrNoSourceRegistered)
}

func TestOrchestrator_VendorNotFound(t *testing.T) {
	orchestrator, _, _ := setupTestOrchestrator(t)

	_, err := orchestrator.TriggerFullSync(context.Background(), 42)
	assert.ErrorIs(t, err, vendor.ErrVendorNotFound)
}

// TestOrchestrator_InProgressRejected 数据库侧 in_progress 互斥生效
func TestOrchestrator_InProgressRejected(t *testing.T) {
	orchestrator, vendors, _ := setupTestOrchestrator(t)
	v := seedSyncVendor(t, vendors, "sports-south", 1, true)
	orchestrator.RegisterSource("sports-south", Source{Adapter: &fakeAdapter{}})

	// 模拟另一进程已标记 in_progress（例如崩溃残留）
	marked, err := vendors.MarkSyncInProgress(v.ID)
	require.NoError(t, err)
	require.True(t, marked)

	_, err = orchestrator.TriggerFullSync(context.Background(), v.ID)
	assert.ErrorIs(t, err, ErrSyncInProgress)
}

func TestOrchestrator_ThroughputCounting(t *testing.T) {
	orchestrator, vendors, _ := setupTestOrchestrator(t)
	v := seedSyncVendor(t, vendors, "sports-south", 1, true)

	adapter := &fakeAdapter{records: []feed.RawRecord{
		glockRecord("012345678905", "Glock 19 Gen5"),
		glockRecord("012345678912", "Glock 17 Gen5"),
	}}
	orchestrator.RegisterSource("sports-south", Source{Adapter: adapter})

	_, err := orchestrator.TriggerFullSync(context.Background(), v.ID)
	require.NoError(t, err)

	stats := orchestrator.Throughput()
	assert.Equal(t, int64(2), stats.Total)
}

// TestOrchestrator_CancelledContext 取消后分发停止，任务以警告收尾而不是卡死
func TestOrchestrator_CancelledContext(t *testing.T) {
	orchestrator, vendors, _ := setupTestOrchestrator(t)
	v := seedSyncVendor(t, vendors, "sports-south", 1, true)

	// 记录数远超分片缓冲，若取消不能打断分片发送，分发循环会阻塞
	records := make([]feed.RawRecord, 0, 256)
	for i := 0; i < 256; i++ {
		records = append(records, glockRecord("012345678905", "Glock 19 Gen5"))
	}
	adapter := &fakeAdapter{records: records}
	orchestrator.RegisterSource("sports-south", Source{Adapter: adapter})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	var summary *JobSummary
	go func() {
		defer close(done)
		var err error
		summary, err = orchestrator.TriggerFullSync(ctx, v.ID)
		assert.NoError(t, err)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("取消后同步任务未在期限内返回")
	}

	// 预先取消：分发循环入口即停，一条记录都不处理
	assert.Equal(t, 0, summary.Processed)
	require.NotEmpty(t, summary.Warnings)
	assert.Contains(t, summary.Warnings[0], "取消")
}

func TestShardIndex_StableForSameKey(t *testing.T) {
	a := shardIndex("012345678905", 4)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a, shardIndex("012345678905", 4))
	}
	assert.GreaterOrEqual(t, a, 0)
	assert.Less(t, a, 4)
}
