package handlers

import (
	"net/http"
	"strconv"

	"github.com/Mieluoxxx/Catalogx-API/internal/events"
	"github.com/Mieluoxxx/Catalogx-API/internal/priority"
	catalogsync "github.com/Mieluoxxx/Catalogx-API/internal/sync"
	"github.com/gin-gonic/gin"
)

// StatsHandler 统计与事件 HTTP 处理器
type StatsHandler struct {
	registry     *priority.Registry
	orchestrator *catalogsync.Orchestrator
	events       *events.Service
}

// NewStatsHandler 创建 StatsHandler 实例
func NewStatsHandler(registry *priority.Registry, orchestrator *catalogsync.Orchestrator, eventsSvc *events.Service) *StatsHandler {
	return &StatsHandler{
		registry:     registry,
		orchestrator: orchestrator,
		events:       eventsSvc,
	}
}

// GetStats 获取运行统计
// @Summary 获取运行统计
// @Tags stats
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/stats [get]
func (h *StatsHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"priority_cache": h.registry.CacheStats(),
		"throughput":     h.orchestrator.Throughput(),
	})
}

// GetRecentEvents 获取最近的系统事件
// @Summary 获取最近的系统事件
// @Tags stats
// @Produce json
// @Param limit query int false "返回条数，默认 50"
// @Success 200 {array} models.SystemEvent
// @Router /api/events [get]
func (h *StatsHandler) GetRecentEvents(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	eventList, err := h.events.GetRecentEvents(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get events"})
		return
	}

	c.JSON(http.StatusOK, eventList)
}
