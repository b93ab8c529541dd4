package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Mieluoxxx/Catalogx-API/internal/models"
	"github.com/Mieluoxxx/Catalogx-API/internal/vendor"
	"github.com/gin-gonic/gin"
)

// FeedRegistrar 供应商写路径之后刷新同步源注册
type FeedRegistrar interface {
	RegisterFeed(v *models.Vendor)
	UnregisterFeed(slug string)
}

// VendorHandler 供应商 HTTP 处理器
type VendorHandler struct {
	service *vendor.Service
	feeds   FeedRegistrar
}

// NewVendorHandler 创建 VendorHandler 实例
func NewVendorHandler(service *vendor.Service, feeds FeedRegistrar) *VendorHandler {
	return &VendorHandler{service: service, feeds: feeds}
}

// CreateVendor 创建供应商
// @Summary 创建供应商
// @Tags vendors
// @Accept json
// @Produce json
// @Param vendor body vendor.CreateVendorRequest true "供应商信息"
// @Success 201 {object} vendor.VendorResponse
// @Failure 400 {object} vendor.ErrorResponse
// @Failure 409 {object} vendor.ErrorResponse
// @Router /api/vendors [post]
func (h *VendorHandler) CreateVendor(c *gin.Context) {
	var req vendor.CreateVendorRequest

	// 绑定请求体
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, vendor.ErrorResponse{
			Error: vendor.ErrorDetail{
				Code:    "VALIDATION_ERROR",
				Message: "Invalid request parameters",
				Details: err.Error(),
			},
		})
		return
	}

	v, err := h.service.CreateVendor(req)
	if err != nil {
		if errors.Is(err, vendor.ErrVendorSlugExists) {
			c.JSON(http.StatusConflict, vendor.ErrorResponse{
				Error: vendor.ErrorDetail{
					Code:    "SLUG_CONFLICT",
					Message: "Vendor slug already exists",
				},
			})
			return
		}
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, vendor.ErrorResponse{
				Error: vendor.ErrorDetail{
					Code:    "VALIDATION_ERROR",
					Message: err.Error(),
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, vendor.ErrorResponse{
			Error: vendor.ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to create vendor",
			},
		})
		return
	}

	h.refreshFeed(v)
	c.JSON(http.StatusCreated, vendor.ToVendorResponse(v))
}

// GetVendor 获取单个供应商
// @Summary 获取单个供应商
// @Tags vendors
// @Produce json
// @Param id path int true "供应商 ID"
// @Success 200 {object} vendor.VendorResponse
// @Failure 404 {object} vendor.ErrorResponse
// @Router /api/vendors/{id} [get]
func (h *VendorHandler) GetVendor(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	v, err := h.service.GetVendor(id)
	if err != nil {
		if errors.Is(err, vendor.ErrVendorNotFound) {
			c.JSON(http.StatusNotFound, vendor.ErrorResponse{
				Error: vendor.ErrorDetail{
					Code:    "NOT_FOUND",
					Message: "Vendor not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, vendor.ErrorResponse{
			Error: vendor.ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to get vendor",
			},
		})
		return
	}

	c.JSON(http.StatusOK, vendor.ToVendorResponse(v))
}

// ListVendors 获取供应商列表（按优先级升序）
// @Summary 获取供应商列表
// @Tags vendors
// @Produce json
// @Success 200 {array} vendor.VendorResponse
// @Router /api/vendors [get]
func (h *VendorHandler) ListVendors(c *gin.Context) {
	vendors, err := h.service.ListVendors()
	if err != nil {
		c.JSON(http.StatusInternalServerError, vendor.ErrorResponse{
			Error: vendor.ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to list vendors",
			},
		})
		return
	}

	c.JSON(http.StatusOK, vendor.ToVendorResponseList(vendors))
}

// UpdateVendor 更新供应商
// @Summary 更新供应商
// @Tags vendors
// @Accept json
// @Produce json
// @Param id path int true "供应商 ID"
// @Param vendor body vendor.UpdateVendorRequest true "更新内容"
// @Success 200 {object} vendor.VendorResponse
// @Failure 400 {object} vendor.ErrorResponse
// @Failure 404 {object} vendor.ErrorResponse
// @Router /api/vendors/{id} [put]
func (h *VendorHandler) UpdateVendor(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req vendor.UpdateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, vendor.ErrorResponse{
			Error: vendor.ErrorDetail{
				Code:    "VALIDATION_ERROR",
				Message: "Invalid request parameters",
				Details: err.Error(),
			},
		})
		return
	}

	v, err := h.service.UpdateVendor(id, req)
	if err != nil {
		h.writeUpdateError(c, err)
		return
	}

	h.refreshFeed(v)
	c.JSON(http.StatusOK, vendor.ToVendorResponse(v))
}

// SetPriority 设置供应商优先级
// @Summary 设置供应商优先级
// @Tags vendors
// @Accept json
// @Produce json
// @Param id path int true "供应商 ID"
// @Param priority body vendor.SetPriorityRequest true "新优先级"
// @Success 200 {object} vendor.VendorResponse
// @Failure 400 {object} vendor.ErrorResponse
// @Failure 404 {object} vendor.ErrorResponse
// @Router /api/vendors/{id}/priority [put]
func (h *VendorHandler) SetPriority(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req vendor.SetPriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, vendor.ErrorResponse{
			Error: vendor.ErrorDetail{
				Code:    "VALIDATION_ERROR",
				Message: "Invalid request parameters",
				Details: err.Error(),
			},
		})
		return
	}

	v, err := h.service.SetPriority(id, req.Priority)
	if err != nil {
		h.writeUpdateError(c, err)
		return
	}

	c.JSON(http.StatusOK, vendor.ToVendorResponse(v))
}

// DeleteVendor 删除供应商（触发优先级重排）
// @Summary 删除供应商
// @Tags vendors
// @Produce json
// @Param id path int true "供应商 ID"
// @Success 204
// @Failure 404 {object} vendor.ErrorResponse
// @Router /api/vendors/{id} [delete]
func (h *VendorHandler) DeleteVendor(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	// 删除前取 slug，成功后据此移除同步源注册
	v, err := h.service.GetVendor(id)
	if err != nil {
		if errors.Is(err, vendor.ErrVendorNotFound) {
			c.JSON(http.StatusNotFound, vendor.ErrorResponse{
				Error: vendor.ErrorDetail{
					Code:    "NOT_FOUND",
					Message: "Vendor not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, vendor.ErrorResponse{
			Error: vendor.ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to delete vendor",
			},
		})
		return
	}

	if err := h.service.DeleteVendor(id); err != nil {
		if errors.Is(err, vendor.ErrVendorNotFound) {
			c.JSON(http.StatusNotFound, vendor.ErrorResponse{
				Error: vendor.ErrorDetail{
					Code:    "NOT_FOUND",
					Message: "Vendor not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, vendor.ErrorResponse{
			Error: vendor.ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to delete vendor",
			},
		})
		return
	}

	if h.feeds != nil {
		h.feeds.UnregisterFeed(v.Slug)
	}
	c.Status(http.StatusNoContent)
}

// ==================== 私有方法 ====================

// refreshFeed 供应商写入成功后刷新同步源注册
func (h *VendorHandler) refreshFeed(v *models.Vendor) {
	if h.feeds != nil {
		h.feeds.RegisterFeed(v)
	}
}

// writeUpdateError 统一处理更新类错误
func (h *VendorHandler) writeUpdateError(c *gin.Context, err error) {
	if errors.Is(err, vendor.ErrVendorNotFound) {
		c.JSON(http.StatusNotFound, vendor.ErrorResponse{
			Error: vendor.ErrorDetail{
				Code:    "NOT_FOUND",
				Message: "Vendor not found",
			},
		})
		return
	}
	if isValidationError(err) {
		c.JSON(http.StatusBadRequest, vendor.ErrorResponse{
			Error: vendor.ErrorDetail{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}
	c.JSON(http.StatusInternalServerError, vendor.ErrorResponse{
		Error: vendor.ErrorDetail{
			Code:    "INTERNAL_ERROR",
			Message: "Failed to update vendor",
		},
	})
}

// isValidationError 判断是否为同步拒绝的校验错误
func isValidationError(err error) bool {
	return errors.Is(err, vendor.ErrInvalidSlug) ||
		errors.Is(err, vendor.ErrSlugEmpty) ||
		errors.Is(err, vendor.ErrNameEmpty) ||
		errors.Is(err, vendor.ErrPriorityOutOfRange) ||
		errors.Is(err, vendor.ErrPriorityHeld)
}

// parseID 解析路径中的 ID 参数
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, vendor.ErrorResponse{
			Error: vendor.ErrorDetail{
				Code:    "INVALID_ID",
				Message: "Invalid vendor ID",
			},
		})
		return 0, false
	}
	return uint(id), true
}
