package handlers

import (
	"errors"
	"net/http"

	catalogsync "github.com/Mieluoxxx/Catalogx-API/internal/sync"
	"github.com/Mieluoxxx/Catalogx-API/internal/vendor"
	"github.com/gin-gonic/gin"
)

// SyncHandler 同步触发 HTTP 处理器
type SyncHandler struct {
	orchestrator *catalogsync.Orchestrator
}

// NewSyncHandler 创建 SyncHandler 实例
func NewSyncHandler(orchestrator *catalogsync.Orchestrator) *SyncHandler {
	return &SyncHandler{orchestrator: orchestrator}
}

// TriggerFullSync 触发全量同步
// @Summary 触发全量同步
// @Tags sync
// @Produce json
// @Param id path int true "供应商 ID"
// @Success 200 {object} sync.JobSummary
// @Failure 404 {object} vendor.ErrorResponse
// @Failure 409 {object} vendor.ErrorResponse
// @Router /api/vendors/{id}/sync/full [post]
func (h *SyncHandler) TriggerFullSync(c *gin.Context) {
	h.trigger(c, false)
}

// TriggerIncrementalSync 触发增量同步
// @Summary 触发增量同步
// @Tags sync
// @Produce json
// @Param id path int true "供应商 ID"
// @Success 200 {object} sync.JobSummary
// @Failure 404 {object} vendor.ErrorResponse
// @Failure 409 {object} vendor.ErrorResponse
// @Router /api/vendors/{id}/sync/incremental [post]
func (h *SyncHandler) TriggerIncrementalSync(c *gin.Context) {
	h.trigger(c, true)
}

// trigger 执行同步并统一处理错误
func (h *SyncHandler) trigger(c *gin.Context, incremental bool) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var summary *catalogsync.JobSummary
	var err error
	if incremental {
		summary, err = h.orchestrator.TriggerIncrementalSync(c.Request.Context(), id)
	} else {
		summary, err = h.orchestrator.TriggerFullSync(c.Request.Context(), id)
	}

	if err != nil {
		switch {
		case errors.Is(err, vendor.ErrVendorNotFound):
			c.JSON(http.StatusNotFound, vendor.ErrorResponse{
				Error: vendor.ErrorDetail{
					Code:    "NOT_FOUND",
					Message: "Vendor not found",
				},
			})
		case errors.Is(err, catalogsync.ErrSyncInProgress):
			c.JSON(http.StatusConflict, vendor.ErrorResponse{
				Error: vendor.ErrorDetail{
					Code:    "SYNC_IN_PROGRESS",
					Message: err.Error(),
				},
			})
		case errors.Is(err, catalogsync.ErrVendorDisabled), errors.Is(err, catalogsync.ErrNoSourceRegistered):
			c.JSON(http.StatusBadRequest, vendor.ErrorResponse{
				Error: vendor.ErrorDetail{
					Code:    "SYNC_UNAVAILABLE",
					Message: err.Error(),
				},
			})
		default:
			c.JSON(http.StatusInternalServerError, vendor.ErrorResponse{
				Error: vendor.ErrorDetail{
					Code:    "INTERNAL_ERROR",
					Message: "Failed to trigger sync",
				},
			})
		}
		return
	}

	c.JSON(http.StatusOK, summary)
}
