package handlers

import (
	"errors"
	"net/http"

	"github.com/Mieluoxxx/Catalogx-API/internal/catalog"
	"github.com/Mieluoxxx/Catalogx-API/internal/image"
	"github.com/Mieluoxxx/Catalogx-API/internal/vendor"
	"github.com/gin-gonic/gin"
)

// ProductHandler 商品 HTTP 处理器
type ProductHandler struct {
	catalogSvc *catalog.Service
	resolver   *image.Resolver
}

// NewProductHandler 创建 ProductHandler 实例
func NewProductHandler(catalogSvc *catalog.Service, resolver *image.Resolver) *ProductHandler {
	return &ProductHandler{
		catalogSvc: catalogSvc,
		resolver:   resolver,
	}
}

// GetProduct 根据 UPC 获取商品
// @Summary 根据 UPC 获取商品
// @Tags products
// @Produce json
// @Param upc path string true "UPC"
// @Success 200 {object} models.Product
// @Failure 404 {object} vendor.ErrorResponse
// @Router /api/products/{upc} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	upc := c.Param("upc")

	product, err := h.catalogSvc.GetByUPC(upc)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, vendor.ErrorResponse{
				Error: vendor.ErrorDetail{
					Code:    "NOT_FOUND",
					Message: "Product not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, vendor.ErrorResponse{
			Error: vendor.ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to get product",
			},
		})
		return
	}

	c.JSON(http.StatusOK, product)
}

// ResolveBestImage 为商品解析最佳图片
// @Summary 为商品解析最佳图片
// @Tags products
// @Produce json
// @Param upc path string true "UPC"
// @Success 200 {object} image.ImageResult
// @Success 204
// @Failure 404 {object} vendor.ErrorResponse
// @Router /api/products/{upc}/image [get]
func (h *ProductHandler) ResolveBestImage(c *gin.Context) {
	upc := c.Param("upc")

	result, err := h.resolver.ResolveBestImage(upc)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, vendor.ErrorResponse{
				Error: vendor.ErrorDetail{
					Code:    "NOT_FOUND",
					Message: "Product not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, vendor.ErrorResponse{
			Error: vendor.ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to resolve image",
			},
		})
		return
	}

	// 没有任何可用候选
	if result == nil {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, result)
}
