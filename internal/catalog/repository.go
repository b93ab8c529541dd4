package catalog

import (
	"errors"

	"github.com/Mieluoxxx/Catalogx-API/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrProductNotFound 商品不存在
	ErrProductNotFound = errors.New("product not found")
)

// Repository 商品数据访问层
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建 Repository 实例
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create 创建商品
func (r *Repository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// Save 保存商品（全字段写回）
func (r *Repository) Save(product *models.Product) error {
	return r.db.Save(product).Error
}

// FindByID 根据 ID 查找商品
func (r *Repository) FindByID(id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByUPC 根据 UPC 精确查找商品
func (r *Repository) FindByUPC(upc string) (*models.Product, error) {
	var product models.Product
	err := r.db.Where("upc = ?", upc).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByMPN 根据厂商件号精确查找商品
func (r *Repository) FindByMPN(mpn string) (*models.Product, error) {
	var product models.Product
	err := r.db.Where("manufacturer_part_number = ?", mpn).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// UpdateImage 仅更新商品的图片与图片来源
func (r *Repository) UpdateImage(id uint, imageURL, imageSource string) error {
	return r.db.Model(&models.Product{}).Where("id = ?", id).Updates(map[string]interface{}{
		"image_url":    imageURL,
		"image_source": imageSource,
	}).Error
}

// SetStatus 更新商品状态（active/inactive）
// 本子系统从不硬删除商品。
func (r *Repository) SetStatus(id uint, status string) error {
	result := r.db.Model(&models.Product{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// CountAll 统计商品总数
func (r *Repository) CountAll() (int64, error) {
	var count int64
	err := r.db.Model(&models.Product{}).Count(&count).Error
	return count, err
}
