package image

import (
	"fmt"
	"log"
	"net/url"
	"sort"

	"github.com/Mieluoxxx/Catalogx-API/internal/catalog"
	"github.com/Mieluoxxx/Catalogx-API/internal/events"
	"github.com/Mieluoxxx/Catalogx-API/internal/mapping"
	"github.com/Mieluoxxx/Catalogx-API/internal/models"
)

// ImageResult 图片解析结果
type ImageResult struct {
	URL          string `json:"url"`
	SourceVendor string `json:"source_vendor"`
}

// candidate 单个供应商的图片候选
type candidate struct {
	vendorSlug string
	priority   int
	url        string
}

// Resolver 图片回退解析器
// 汇集商品在各供应商处的已知图片，剔除无效候选，
// 按优先级从小到大逐个尝试，选中第一个可用的。
type Resolver struct {
	products   *catalog.Repository
	mappings   *mapping.Service
	priorities catalog.PriorityLookup
	events     *events.Service
}

// NewResolver 创建 Resolver 实例
func NewResolver(products *catalog.Repository, mappings *mapping.Service, priorities catalog.PriorityLookup, eventsSvc *events.Service) *Resolver {
	return &Resolver{
		products:   products,
		mappings:   mappings,
		priorities: priorities,
		events:     eventsSvc,
	}
}

// ResolveBestImage 为指定 UPC 选出最佳图片
// 返回 nil 表示当前没有任何可用候选。选中的图片与现存不同时会写回商品。
func (r *Resolver) ResolveBestImage(upc string) (*ImageResult, error) {
	product, err := r.products.FindByUPC(upc)
	if err != nil {
		return nil, err
	}

	candidates, err := r.gatherCandidates(product.ID)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	// 1. 按优先级排序（数值越小权威越高）
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].priority < candidates[j].priority
	})

	// 2. 优先级并列在稠密唯一性不变量下不应出现，防御性处理：保持现状不变
	if len(candidates) > 1 && candidates[0].priority == candidates[1].priority && product.ImageURL != "" {
		return &ImageResult{URL: product.ImageURL, SourceVendor: product.ImageSource}, nil
	}

	winner := candidates[0]

	// 3. 选中结果与现存不同时写回（现存来源失效时即发生晋升）
	if winner.url != product.ImageURL || winner.vendorSlug != product.ImageSource {
		if err := r.products.UpdateImage(product.ID, winner.url, winner.vendorSlug); err != nil {
			return nil, err
		}
		r.logFallback(product, winner)
	}

	return &ImageResult{URL: winner.url, SourceVendor: winner.vendorSlug}, nil
}

// gatherCandidates 汇集商品的全部有效图片候选
// 剔除禁用的供应商与空/非法 URL。
func (r *Resolver) gatherCandidates(productID uint) ([]candidate, error) {
	mappings, err := r.mappings.ListByProduct(productID)
	if err != nil {
		return nil, err
	}

	candidates := make([]candidate, 0, len(mappings))
	for _, m := range mappings {
		if !m.Vendor.Enabled {
			continue
		}
		if !validImageURL(m.LastImageURL) {
			continue
		}
		candidates = append(candidates, candidate{
			vendorSlug: m.Vendor.Slug,
			priority:   r.priorities.PriorityOf(m.Vendor.Slug),
			url:        m.LastImageURL,
		})
	}
	return candidates, nil
}

// logFallback 记录图片回退事件
func (r *Resolver) logFallback(product *models.Product, winner candidate) {
	if r.events == nil {
		return
	}
	err := r.events.LogInfo(models.EventTypeImageFallback,
		fmt.Sprintf("商品 %s 图片来源切换为 %s", product.UPC, winner.vendorSlug),
		map[string]interface{}{
			"product_id": product.ID,
			"upc":        product.UPC,
			"source":     winner.vendorSlug,
		})
	if err != nil {
		log.Printf("⚠️ 记录图片回退事件失败: %v", err)
	}
}

// validImageURL 校验图片 URL 是否可用
func validImageURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
