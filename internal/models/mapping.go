package models

import "time"

// VendorProductMapping 供应商商品映射
// 将主目录商品关联到某个供应商自己的 SKU（多供应商对一商品）。
// 映射的存在不代表该供应商对商品字段拥有权威。
type VendorProductMapping struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ProductID uint   `gorm:"not null;uniqueIndex:idx_product_vendor" json:"product_id"`
	VendorID  uint   `gorm:"not null;uniqueIndex:idx_product_vendor" json:"vendor_id"`
	VendorSKU string `gorm:"type:varchar(100);not null" json:"vendor_sku"`

	// 该供应商针对此 SKU 最近一次提供的图片，供图片回退解析使用
	LastImageURL string `gorm:"type:varchar(500)" json:"last_image_url"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 外键关系
	Product Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product,omitempty"`
	Vendor  Vendor  `gorm:"foreignKey:VendorID;constraint:OnDelete:CASCADE" json:"vendor,omitempty"`
}

// TableName 指定表名
func (VendorProductMapping) TableName() string {
	return "vendor_product_mappings"
}
