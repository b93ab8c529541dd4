package feed

import (
	"fmt"
	"strings"

	"github.com/Mieluoxxx/Catalogx-API/internal/catalog"
	"github.com/shopspring/decimal"
)

// RawRecord 供应商源里的一条原始记录
// 键空间由各供应商自定，通过字段映射表转换为规范候选。
type RawRecord map[string]interface{}

// FieldMap 供应商字段映射表
// 键为规范字段名，值为该供应商源中的字段名。
// 未配置的规范字段在候选记录中保持缺失。
type FieldMap map[string]string

// 规范字段名（FieldMap 的键空间）
const (
	KeyUPC            = "upc"
	KeyMPN            = "manufacturer_part_number"
	KeyName           = "name"
	KeyBrand          = "brand"
	KeyModel          = "model"
	KeyCategory       = "category"
	KeySubcategory    = "subcategory"
	KeyDescription    = "description"
	KeyWeight         = "weight"
	KeyMSRP           = "msrp"
	KeyMAPPrice       = "map_price"
	KeyImageURL       = "image_url"
	KeySerialized     = "serialized"
	KeySpecifications = "specifications"
	KeyVendorSKU      = "vendor_sku"
)

// DefaultFieldMap 恒等映射：源字段名与规范字段名一致
func DefaultFieldMap() FieldMap {
	return FieldMap{
		KeyUPC:            KeyUPC,
		KeyMPN:            KeyMPN,
		KeyName:           KeyName,
		KeyBrand:          KeyBrand,
		KeyModel:          KeyModel,
		KeyCategory:       KeyCategory,
		KeySubcategory:    KeySubcategory,
		KeyDescription:    KeyDescription,
		KeyWeight:         KeyWeight,
		KeyMSRP:           KeyMSRP,
		KeyMAPPrice:       KeyMAPPrice,
		KeyImageURL:       KeyImageURL,
		KeySerialized:     KeySerialized,
		KeySpecifications: KeySpecifications,
		KeyVendorSKU:      KeyVendorSKU,
	}
}

// Normalizer 原始记录规范化器
// 每个供应商源配一张字段映射表，把异构的原始记录
// 转换为合并引擎消费的 CandidateFields。
type Normalizer struct {
	fields FieldMap
}

// NewNormalizer 创建规范化器
// fields 为 nil 时使用恒等映射。
func NewNormalizer(fields FieldMap) *Normalizer {
	if fields == nil {
		fields = DefaultFieldMap()
	}
	return &Normalizer{fields: fields}
}

// Normalize 将一条原始记录转换为规范候选
func (n *Normalizer) Normalize(record RawRecord) (catalog.CandidateFields, error) {
	c := catalog.CandidateFields{
		UPC:                    n.stringField(record, KeyUPC),
		ManufacturerPartNumber: n.stringField(record, KeyMPN),
		Name:                   n.stringField(record, KeyName),
		Brand:                  n.stringField(record, KeyBrand),
		Model:                  n.stringField(record, KeyModel),
		Category:               n.stringField(record, KeyCategory),
		Subcategory:            n.stringField(record, KeySubcategory),
		Description:            n.stringField(record, KeyDescription),
		ImageURL:               n.stringField(record, KeyImageURL),
		Serialized:             n.boolField(record, KeySerialized),
		Specifications:         n.stringField(record, KeySpecifications),
		VendorSKU:              n.stringField(record, KeyVendorSKU),
	}

	var err error
	if c.Weight, err = n.decimalField(record, KeyWeight); err != nil {
		return c, err
	}
	if c.MSRP, err = n.decimalField(record, KeyMSRP); err != nil {
		return c, err
	}
	if c.MAPPrice, err = n.decimalField(record, KeyMAPPrice); err != nil {
		return c, err
	}

	return c, nil
}

// ==================== 字段提取 ====================

func (n *Normalizer) lookup(record RawRecord, key string) (interface{}, bool) {
	source, ok := n.fields[key]
	if !ok {
		return nil, false
	}
	value, ok := record[source]
	return value, ok
}

func (n *Normalizer) stringField(record RawRecord, key string) string {
	value, ok := n.lookup(record, key)
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return decimal.NewFromFloat(v).String()
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

func (n *Normalizer) boolField(record RawRecord, key string) bool {
	value, ok := n.lookup(record, key)
	if !ok || value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true") || v == "1"
	case float64:
		return v != 0
	default:
		return false
	}
}

func (n *Normalizer) decimalField(record RawRecord, key string) (decimal.Decimal, error) {
	value, ok := n.lookup(record, key)
	if !ok || value == nil {
		return decimal.Zero, nil
	}
	switch v := value.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("字段 %s 不是合法数值: %q", key, v)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("字段 %s 类型不支持: %T", key, value)
	}
}
