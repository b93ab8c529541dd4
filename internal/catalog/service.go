package catalog

import (
	"errors"

	"github.com/Mieluoxxx/Catalogx-API/internal/mapping"
	"github.com/Mieluoxxx/Catalogx-API/internal/models"
)

var (
	// ErrMissingIdentifiers 候选记录缺少 UPC 和厂商件号
	ErrMissingIdentifiers = errors.New("候选记录缺少 UPC 与厂商件号，无法匹配")
)

// Service 目录业务逻辑层
// 把合并引擎的决策落地：匹配、持久化、维护供应商映射。
type Service struct {
	repo     *Repository
	engine   *Engine
	mappings *mapping.Service
}

// NewService 创建 Service 实例
func NewService(repo *Repository, engine *Engine, mappings *mapping.Service) *Service {
	return &Service{
		repo:     repo,
		engine:   engine,
		mappings: mappings,
	}
}

// Engine 暴露合并引擎（供测试与只读决策使用）
func (s *Service) Engine() *Engine {
	return s.engine
}

// ApplyCandidate 处理一条入站候选记录
// 匹配顺序：UPC 精确匹配优先，UPC 缺失或未命中时按厂商件号精确匹配；
// 不做任何模糊匹配。无论决策结果如何，(商品, 供应商) 映射都会被幂等维护。
func (s *Service) ApplyCandidate(vendor *models.Vendor, c CandidateFields, mode Mode) (Action, *models.Product, error) {
	existing, err := s.match(c)
	if err != nil {
		return ActionSkip, nil, err
	}

	decision := s.engine.Reconcile(existing, c, vendor.Slug, mode)

	var product *models.Product
	switch decision.Action {
	case ActionCreate:
		if err := s.repo.Create(decision.Product); err != nil {
			return ActionSkip, nil, err
		}
		product = decision.Product

	case ActionReplace, ActionMerge:
		if err := s.repo.Save(decision.Product); err != nil {
			return ActionSkip, nil, err
		}
		product = decision.Product

	default:
		product = existing
	}

	// 映射维护独立于商品字段是否变更
	if product != nil {
		sku := normalize(c.VendorSKU)
		if sku == "" {
			sku = normalize(c.UPC)
		}
		if sku != "" {
			if _, err := s.mappings.Upsert(product.ID, vendor.ID, sku, c.ImageURL); err != nil {
				return decision.Action, product, err
			}
		}
	}

	return decision.Action, product, nil
}

// GetByUPC 根据 UPC 查找商品
func (s *Service) GetByUPC(upc string) (*models.Product, error) {
	return s.repo.FindByUPC(normalize(upc))
}

// match 按 UPC、厂商件号的顺序精确匹配现有商品
func (s *Service) match(c CandidateFields) (*models.Product, error) {
	upc := normalize(c.UPC)
	mpn := normalize(c.ManufacturerPartNumber)

	if upc == "" && mpn == "" {
		return nil, ErrMissingIdentifiers
	}

	if upc != "" {
		product, err := s.repo.FindByUPC(upc)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, ErrProductNotFound) {
			return nil, err
		}
	}

	if mpn != "" {
		product, err := s.repo.FindByMPN(mpn)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, ErrProductNotFound) {
			return nil, err
		}
	}

	return nil, nil
}
