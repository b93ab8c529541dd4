package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Mieluoxxx/Catalogx-API/internal/config"
	"github.com/Mieluoxxx/Catalogx-API/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *Dependencies) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// 内存 sqlite 每个连接是独立数据库，同步 worker 并发时必须锁定单连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Vendor{}, &models.Product{}, &models.VendorProductMapping{}, &models.SystemEvent{}))

	deps := BuildDependencies(db, nil, config.SyncConfig{Workers: 2, ResolveImages: false})
	return SetupRouter(deps), deps
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestRouter_VendorLifecycle(t *testing.T) {
	router, _ := setupTestRouter(t)

	// 创建
	w := doJSON(t, router, http.MethodPost, "/api/vendors", map[string]interface{}{
		"slug":       "sports-south",
		"name":       "Sports South",
		"credential": "api-user:s3cret",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, float64(1), created["priority"])
	assert.Equal(t, true, created["has_credential"])
	assert.NotContains(t, w.Body.String(), "s3cret", "凭证不回显")

	// 重复 slug 冲突
	w = doJSON(t, router, http.MethodPost, "/api/vendors", map[string]interface{}{
		"slug": "sports-south",
		"name": "Again",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "SLUG_CONFLICT")

	// 列表
	w = doJSON(t, router, http.MethodGet, "/api/vendors", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// 非法优先级
	w = doJSON(t, router, http.MethodPut, "/api/vendors/1/priority", map[string]interface{}{
		"priority": 99,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 删除
	w = doJSON(t, router, http.MethodDelete, "/api/vendors/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/vendors/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_SyncTriggerErrors(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/vendors/42/sync/full", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 未注册同步源的供应商
	w = doJSON(t, router, http.MethodPost, "/api/vendors", map[string]interface{}{
		"slug": "sports-south",
		"name": "Sports South",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/vendors/1/sync/full", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "SYNC_UNAVAILABLE")
}

// TestRouter_FeedSyncEndToEnd 配置 feed_url 的供应商创建后即可触发同步：
// 适配器按 FeedURL 拉取目录，凭证以 Bearer 头下发，商品落库。
func TestRouter_FeedSyncEndToEnd(t *testing.T) {
	router, deps := setupTestRouter(t)

	var gotAuth string
	catalogServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"upc": "012345678905", "name": "Glock 19 Gen5", "brand": "Glock"},
			{"upc": "012345678912", "name": "Glock 17 Gen5", "brand": "Glock"}
		]`))
	}))
	defer catalogServer.Close()

	w := doJSON(t, router, http.MethodPost, "/api/vendors", map[string]interface{}{
		"slug":       "sports-south",
		"name":       "Sports South",
		"credential": "feed-token-abc",
		"feed_url":   catalogServer.URL,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/vendors/1/sync/full", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var summary map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, true, summary["success"])
	assert.Equal(t, float64(2), summary["processed"])
	assert.Equal(t, float64(2), summary["created"])
	assert.Equal(t, "Bearer feed-token-abc", gotAuth, "凭证经解密后注入请求头")

	// 商品确实落库
	w = doJSON(t, router, http.MethodGet, "/api/products/012345678905", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Glock 19 Gen5")

	// 吞吐计数随同步推进
	assert.Equal(t, int64(2), deps.Orchestrator.Throughput().Total)
}

// TestRouter_FeedURLUpdateRewiresSource 更新清空 feed_url 后同步源随之注销
func TestRouter_FeedURLUpdateRewiresSource(t *testing.T) {
	router, _ := setupTestRouter(t)

	catalogServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer catalogServer.Close()

	w := doJSON(t, router, http.MethodPost, "/api/vendors", map[string]interface{}{
		"slug":     "sports-south",
		"name":     "Sports South",
		"feed_url": catalogServer.URL,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/vendors/1/sync/full", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// 清空 feed_url，同步入口回到未注册状态
	w = doJSON(t, router, http.MethodPut, "/api/vendors/1", map[string]interface{}{
		"feed_url": "",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/vendors/1/sync/full", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "SYNC_UNAVAILABLE")
}

// TestRouter_BootRegistersExistingFeeds 进程启动时为库中已有供应商注册同步源
func TestRouter_BootRegistersExistingFeeds(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Vendor{}, &models.Product{}, &models.VendorProductMapping{}, &models.SystemEvent{}))

	catalogServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"upc": "012345678905", "name": "Glock 19 Gen5"}]`))
	}))
	defer catalogServer.Close()

	// 供应商在依赖装配之前就已存在于库中
	seeded := &models.Vendor{
		Slug: "sports-south", Name: "Sports South", Priority: 1, Enabled: true,
		FeedURL: catalogServer.URL, SyncStatus: models.SyncStatusNeverSynced,
	}
	require.NoError(t, db.Create(seeded).Error)

	deps := BuildDependencies(db, nil, config.SyncConfig{Workers: 2, ResolveImages: false})
	router := SetupRouter(deps)

	w := doJSON(t, router, http.MethodPost, "/api/vendors/1/sync/full", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"created":1`)
}

func TestRouter_ProductNotFound(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/products/000000000000", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Stats(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "priority_cache")

	w = doJSON(t, router, http.MethodGet, "/api/events", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
