package mapping

import (
	"errors"

	"github.com/Mieluoxxx/Catalogx-API/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrMappingNotFound 映射不存在
	ErrMappingNotFound = errors.New("vendor product mapping not found")
)

// Repository 供应商商品映射数据访问层
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建 Repository 实例
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByProductAndVendor 查找 (商品, 供应商) 映射
func (r *Repository) FindByProductAndVendor(productID, vendorID uint) (*models.VendorProductMapping, error) {
	var m models.VendorProductMapping
	err := r.db.Where("product_id = ? AND vendor_id = ?", productID, vendorID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMappingNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListByProduct 列出商品的全部供应商映射（含供应商信息）
func (r *Repository) ListByProduct(productID uint) ([]*models.VendorProductMapping, error) {
	var mappings []*models.VendorProductMapping
	err := r.db.Preload("Vendor").Where("product_id = ?", productID).Find(&mappings).Error
	if err != nil {
		return nil, err
	}
	return mappings, nil
}

// ListByVendor 列出供应商的全部商品映射
func (r *Repository) ListByVendor(vendorID uint) ([]*models.VendorProductMapping, error) {
	var mappings []*models.VendorProductMapping
	err := r.db.Where("vendor_id = ?", vendorID).Find(&mappings).Error
	if err != nil {
		return nil, err
	}
	return mappings, nil
}

// Create 创建映射
func (r *Repository) Create(m *models.VendorProductMapping) error {
	return r.db.Create(m).Error
}

// Update 更新映射
func (r *Repository) Update(m *models.VendorProductMapping) error {
	return r.db.Save(m).Error
}

// CountAll 统计映射总数
func (r *Repository) CountAll() (int64, error) {
	var count int64
	err := r.db.Model(&models.VendorProductMapping{}).Count(&count).Error
	return count, err
}
