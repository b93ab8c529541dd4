package mapping

import (
	"errors"
	"strings"

	"github.com/Mieluoxxx/Catalogx-API/internal/models"
)

var (
	// ErrVendorSKUEmpty 供应商 SKU 为空
	ErrVendorSKUEmpty = errors.New("供应商 SKU 不能为空")
)

// Service 供应商商品映射业务逻辑层
// 维护 (商品, 供应商) -> 供应商自有 SKU 的关联。
// 映射的维护独立于商品字段是否变更，也不代表任何字段权威。
type Service struct {
	repo *Repository
}

// NewService 创建 Service 实例
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Upsert 幂等维护映射
// 不存在则创建，存在则更新 SKU 与该供应商最近提供的图片。
func (s *Service) Upsert(productID, vendorID uint, vendorSKU, imageURL string) (*models.VendorProductMapping, error) {
	sku := strings.TrimSpace(vendorSKU)
	if sku == "" {
		return nil, ErrVendorSKUEmpty
	}

	existing, err := s.repo.FindByProductAndVendor(productID, vendorID)
	if err != nil {
		if !errors.Is(err, ErrMappingNotFound) {
			return nil, err
		}
		m := &models.VendorProductMapping{
			ProductID:    productID,
			VendorID:     vendorID,
			VendorSKU:    sku,
			LastImageURL: strings.TrimSpace(imageURL),
		}
		if err := s.repo.Create(m); err != nil {
			return nil, err
		}
		return m, nil
	}

	changed := false
	if existing.VendorSKU != sku {
		existing.VendorSKU = sku
		changed = true
	}
	if url := strings.TrimSpace(imageURL); url != "" && existing.LastImageURL != url {
		existing.LastImageURL = url
		changed = true
	}
	if changed {
		if err := s.repo.Update(existing); err != nil {
			return nil, err
		}
	}
	return existing, nil
}

// ListByProduct 列出商品的全部供应商映射
func (s *Service) ListByProduct(productID uint) ([]*models.VendorProductMapping, error) {
	return s.repo.ListByProduct(productID)
}

// FindByProductAndVendor 查找单条映射
func (s *Service) FindByProductAndVendor(productID, vendorID uint) (*models.VendorProductMapping, error) {
	return s.repo.FindByProductAndVendor(productID, vendorID)
}
