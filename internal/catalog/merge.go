package catalog

import (
	"strings"

	"github.com/Mieluoxxx/Catalogx-API/internal/models"
	"github.com/shopspring/decimal"
)

// ==================== 合并决策类型 ====================

// Action 合并引擎的写入决策
type Action int

const (
	// ActionSkip 不做任何写入
	ActionSkip Action = iota
	// ActionCreate 创建新商品
	ActionCreate
	// ActionReplace 整条记录覆盖
	ActionReplace
	// ActionMerge 字段级合并后写回
	ActionMerge
)

// String 返回动作名称
func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionReplace:
		return "replace"
	case ActionMerge:
		return "merge"
	default:
		return "skip"
	}
}

// Mode 同步运行的合并策略
type Mode string

const (
	// ModeIgnore 已存在的商品一律跳过
	ModeIgnore Mode = "ignore"
	// ModeOverwrite 有任何字段差异就整条覆盖
	ModeOverwrite Mode = "overwrite"
	// ModeSmartMerge 默认策略：按优先级决定覆盖或补缺
	ModeSmartMerge Mode = "smart_merge"
)

// FieldPolicy 单个字段的合并子策略
type FieldPolicy int

const (
	// PolicyAuthorityControlled 字段始终由权威供应商控制，合并时不回填
	PolicyAuthorityControlled FieldPolicy = iota
	// PolicyFillIfMissing 仅当现有值为空时从低权威来源补缺
	PolicyFillIfMissing
)

// 字段名常量，作为策略表的键
const (
	FieldName        = "name"
	FieldBrand       = "brand"
	FieldModel       = "model"
	FieldMPN         = "manufacturer_part_number"
	FieldCategory    = "category"
	FieldSubcategory = "subcategory"
	FieldDescription = "description"
	FieldWeight      = "weight"
	FieldMSRP        = "msrp"
	FieldMAPPrice    = "map_price"
	FieldImageURL    = "image_url"
)

// DefaultFieldPolicies 默认字段策略表
// 字段清单是配置而不是硬编码逻辑：来源系统里这份清单是随时间增长的。
func DefaultFieldPolicies() map[string]FieldPolicy {
	return map[string]FieldPolicy{
		FieldName:        PolicyAuthorityControlled,
		FieldCategory:    PolicyAuthorityControlled,
		FieldSubcategory: PolicyAuthorityControlled,
		FieldBrand:       PolicyFillIfMissing,
		FieldModel:       PolicyFillIfMissing,
		FieldMPN:         PolicyFillIfMissing,
		FieldDescription: PolicyFillIfMissing,
		FieldWeight:      PolicyFillIfMissing,
		FieldMSRP:        PolicyFillIfMissing,
		FieldMAPPrice:    PolicyFillIfMissing,
		FieldImageURL:    PolicyFillIfMissing,
	}
}

// ==================== 候选记录 ====================

// CandidateFields 规范化后的入站候选记录
type CandidateFields struct {
	UPC                    string
	ManufacturerPartNumber string
	Name                   string
	Brand                  string
	Model                  string
	Category               string
	Subcategory            string
	Description            string
	Weight                 decimal.Decimal
	MSRP                   decimal.Decimal
	MAPPrice               decimal.Decimal
	ImageURL               string
	Serialized             bool
	Specifications         string
	VendorSKU              string

	// ManualOverride 显式人工覆盖：无视优先级比较与 source_locked，强制 Replace。
	// 这是唯一一条刻意降级权威的通道。
	ManualOverride bool
}

// ==================== 合并引擎 ====================

// PriorityLookup 优先级查询接口，由 priority.Registry 实现
type PriorityLookup interface {
	PriorityOf(slug string) int
}

// Decision 合并引擎的输出
type Decision struct {
	Action  Action
	Product *models.Product // Create/Replace/Merge 时为待持久化的记录
}

// Engine 合并引擎
// 全局"优先级胜出"规则的唯一实现点：给定现有商品（可为 nil）、
// 入站候选和候选供应商，决定 Create / Replace / Merge / Skip。
type Engine struct {
	priorities PriorityLookup
	policies   map[string]FieldPolicy
}

// NewEngine 创建合并引擎
// policies 为 nil 时使用默认字段策略表。
func NewEngine(priorities PriorityLookup, policies map[string]FieldPolicy) *Engine {
	if policies == nil {
		policies = DefaultFieldPolicies()
	}
	return &Engine{
		priorities: priorities,
		policies:   policies,
	}
}

// Reconcile 对一条入站候选做出写入决策
func (e *Engine) Reconcile(existing *models.Product, incoming CandidateFields, vendorSlug string, mode Mode) Decision {
	// 不存在则创建，与策略无关
	if existing == nil {
		return Decision{
			Action:  ActionCreate,
			Product: e.buildProduct(incoming, vendorSlug),
		}
	}

	switch mode {
	case ModeIgnore:
		// 新供应商永远不触碰已见过的商品
		return Decision{Action: ActionSkip}

	case ModeOverwrite:
		replacement := e.overwrite(existing, incoming, vendorSlug)
		if !e.differs(existing, replacement) {
			return Decision{Action: ActionSkip}
		}
		return Decision{Action: ActionReplace, Product: replacement}

	default:
		return e.smartMerge(existing, incoming, vendorSlug)
	}
}

// smartMerge 默认合并策略
func (e *Engine) smartMerge(existing *models.Product, incoming CandidateFields, vendorSlug string) Decision {
	// 人工覆盖强制 Replace，无视优先级与 source_locked
	if incoming.ManualOverride {
		return Decision{
			Action:  ActionReplace,
			Product: e.overwrite(existing, incoming, vendorSlug),
		}
	}

	// 同一供应商重新同步自己的数据：直接覆盖
	if existing.Source == vendorSlug {
		replacement := e.overwrite(existing, incoming, vendorSlug)
		if !e.differs(existing, replacement) {
			return Decision{Action: ActionSkip}
		}
		return Decision{Action: ActionReplace, Product: replacement}
	}

	incomingPriority := e.priorities.PriorityOf(vendorSlug)
	currentPriority := e.priorities.PriorityOf(existing.Source)

	// 更高权威（数值更小）displace 更低权威，除非记录被锁定来源
	if incomingPriority < currentPriority && !existing.SourceLocked {
		replacement := e.overwrite(existing, incoming, vendorSlug)
		if !e.differs(existing, replacement) {
			return Decision{Action: ActionSkip}
		}
		return Decision{Action: ActionReplace, Product: replacement}
	}

	// 权威不足（或来源被锁定）：只允许按字段策略补缺
	merged := e.fillMissing(existing, incoming, vendorSlug)
	if !e.differs(existing, merged) {
		return Decision{Action: ActionSkip}
	}
	return Decision{Action: ActionMerge, Product: merged}
}

// buildProduct 从候选记录构造新商品
func (e *Engine) buildProduct(c CandidateFields, vendorSlug string) *models.Product {
	product := &models.Product{
		UPC:                    normalize(c.UPC),
		ManufacturerPartNumber: normalize(c.ManufacturerPartNumber),
		Name:                   normalize(c.Name),
		Brand:                  normalize(c.Brand),
		Model:                  normalize(c.Model),
		Category:               normalize(c.Category),
		Subcategory:            normalize(c.Subcategory),
		Description:            normalize(c.Description),
		Weight:                 c.Weight,
		MSRP:                   c.MSRP,
		MAPPrice:               c.MAPPrice,
		Serialized:             c.Serialized,
		Specifications:         c.Specifications,
		Status:                 models.ProductStatusActive,
		Source:                 vendorSlug,
	}
	if url := normalize(c.ImageURL); url != "" {
		product.ImageURL = url
		product.ImageSource = vendorSlug
	}
	return product
}

// overwrite 整条记录覆盖，保留主键、创建时间与锁定标记
func (e *Engine) overwrite(existing *models.Product, c CandidateFields, vendorSlug string) *models.Product {
	product := e.buildProduct(c, vendorSlug)
	product.ID = existing.ID
	product.CreatedAt = existing.CreatedAt
	product.Status = existing.Status
	product.SourceLocked = existing.SourceLocked
	product.RetailVerticalID = existing.RetailVerticalID

	// 候选没带标识键时不清空既有的匹配键
	if product.UPC == "" {
		product.UPC = existing.UPC
	}
	if product.ManufacturerPartNumber == "" {
		product.ManufacturerPartNumber = existing.ManufacturerPartNumber
	}
	// 候选没带图片时保留现有图片，由图片回退解析器事后裁决
	if product.ImageURL == "" {
		product.ImageURL = existing.ImageURL
		product.ImageSource = existing.ImageSource
	}
	return product
}

// fillMissing 按字段策略表补缺
// 只有策略为 PolicyFillIfMissing 且现有值为空、候选值非空的字段会被填充；
// 权威控制的字段（名称、类目）在合并路径上永不改写。
func (e *Engine) fillMissing(existing *models.Product, c CandidateFields, vendorSlug string) *models.Product {
	merged := *existing

	fillString := func(field string, dst *string, candidate string) {
		if e.policies[field] != PolicyFillIfMissing {
			return
		}
		if normalize(*dst) == "" {
			if v := normalize(candidate); v != "" {
				*dst = v
			}
		}
	}
	fillDecimal := func(field string, dst *decimal.Decimal, candidate decimal.Decimal) {
		if e.policies[field] != PolicyFillIfMissing {
			return
		}
		if dst.IsZero() && !candidate.IsZero() {
			*dst = candidate
		}
	}

	fillString(FieldName, &merged.Name, c.Name)
	fillString(FieldBrand, &merged.Brand, c.Brand)
	fillString(FieldModel, &merged.Model, c.Model)
	fillString(FieldMPN, &merged.ManufacturerPartNumber, c.ManufacturerPartNumber)
	fillString(FieldCategory, &merged.Category, c.Category)
	fillString(FieldSubcategory, &merged.Subcategory, c.Subcategory)
	fillString(FieldDescription, &merged.Description, c.Description)
	fillDecimal(FieldWeight, &merged.Weight, c.Weight)
	fillDecimal(FieldMSRP, &merged.MSRP, c.MSRP)
	fillDecimal(FieldMAPPrice, &merged.MAPPrice, c.MAPPrice)

	if e.policies[FieldImageURL] == PolicyFillIfMissing && normalize(merged.ImageURL) == "" {
		if url := normalize(c.ImageURL); url != "" {
			merged.ImageURL = url
			merged.ImageSource = vendorSlug
		}
	}

	return &merged
}

// differs 比较两条商品记录的受比较字段是否有差异
// 比较前统一做空值规范化，避免 ""/空白差异造成的假阳性写入。
func (e *Engine) differs(a, b *models.Product) bool {
	if normalize(a.UPC) != normalize(b.UPC) {
		return true
	}
	if normalize(a.ManufacturerPartNumber) != normalize(b.ManufacturerPartNumber) {
		return true
	}
	if normalize(a.Name) != normalize(b.Name) {
		return true
	}
	if normalize(a.Brand) != normalize(b.Brand) {
		return true
	}
	if normalize(a.Model) != normalize(b.Model) {
		return true
	}
	if normalize(a.Category) != normalize(b.Category) {
		return true
	}
	if normalize(a.Subcategory) != normalize(b.Subcategory) {
		return true
	}
	if normalize(a.Description) != normalize(b.Description) {
		return true
	}
	if !a.Weight.Equal(b.Weight) || !a.MSRP.Equal(b.MSRP) || !a.MAPPrice.Equal(b.MAPPrice) {
		return true
	}
	if normalize(a.ImageURL) != normalize(b.ImageURL) {
		return true
	}
	if a.Serialized != b.Serialized {
		return true
	}
	if normalize(a.Specifications) != normalize(b.Specifications) {
		return true
	}
	if a.Source != b.Source {
		return true
	}
	return false
}

// normalize 将 null/空白统一为规范的缺失值
func normalize(s string) string {
	return strings.TrimSpace(s)
}
