package credentials

import (
	"errors"

	"github.com/Mieluoxxx/Catalogx-API/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrCredentialNotFound 供应商未配置凭证
	ErrCredentialNotFound = errors.New("vendor credential not configured")
)

// Provider 供应商凭证提供者
// 为拉取适配器提供按供应商解密后的认证材料。
// 核心引擎从不解析凭证内容，只做透传。
type Provider struct {
	db  *gorm.DB
	key []byte
}

// NewProvider 创建凭证提供者
// key 为 nil 时凭证按明文存取（仅用于本地开发与测试）。
func NewProvider(db *gorm.DB, key []byte) *Provider {
	return &Provider{db: db, key: key}
}

// CredentialFor 获取供应商的明文凭证
func (p *Provider) CredentialFor(vendorID uint) (string, error) {
	var vendor models.Vendor
	if err := p.db.First(&vendor, vendorID).Error; err != nil {
		return "", err
	}

	if vendor.Credential == "" {
		return "", ErrCredentialNotFound
	}

	if p.key == nil {
		return vendor.Credential, nil
	}

	return DecryptString(vendor.Credential, p.key)
}

// Seal 加密凭证用于持久化
func (p *Provider) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	if p.key == nil {
		return plaintext, nil
	}
	return EncryptString(plaintext, p.key)
}
