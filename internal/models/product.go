package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus 商品状态常量
const (
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
)

// Product 主目录商品
// 以 UPC 为主匹配键，UPC 缺失时以厂商件号（MPN）为次匹配键。
// 本子系统从不硬删除商品，只会标记为 inactive。
type Product struct {
	ID                     uint   `gorm:"primaryKey" json:"id"`
	UPC                    string `gorm:"type:varchar(50);index" json:"upc"`
	ManufacturerPartNumber string `gorm:"type:varchar(100);index" json:"manufacturer_part_number"`
	Name                   string `gorm:"type:varchar(255);not null" json:"name"`
	Brand                  string `gorm:"type:varchar(100)" json:"brand"`
	Model                  string `gorm:"type:varchar(100)" json:"model"`
	Category               string `gorm:"type:varchar(100)" json:"category"`    // 供应商无关的类目
	Subcategory            string `gorm:"type:varchar(100)" json:"subcategory"` // 供应商无关的子类目
	Description            string `gorm:"type:text" json:"description"`

	Weight   decimal.Decimal `gorm:"type:decimal(10,2)" json:"weight"`
	MSRP     decimal.Decimal `gorm:"type:decimal(10,2)" json:"msrp"`
	MAPPrice decimal.Decimal `gorm:"type:decimal(10,2)" json:"map_price"`

	ImageURL    string `gorm:"type:varchar(500)" json:"image_url"`
	ImageSource string `gorm:"type:varchar(100)" json:"image_source"` // 提供当前图片的供应商 slug

	Serialized     bool   `gorm:"default:false;not null" json:"serialized"` // 需要序列号追踪的商品
	Specifications string `gorm:"type:json" json:"specifications,omitempty"`
	Status         string `gorm:"type:varchar(20);not null;default:'active'" json:"status"`

	Source       string `gorm:"type:varchar(100);index" json:"source"` // 最近一次赢得非合并字段的供应商 slug
	SourceLocked bool   `gorm:"default:false;not null" json:"source_locked"`

	RetailVerticalID uint `gorm:"index" json:"retail_vertical_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
