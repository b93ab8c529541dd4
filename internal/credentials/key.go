package credentials

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrMissingEncryptionKey 未配置凭证加密密钥
	ErrMissingEncryptionKey = errors.New("missing CREDENTIAL_ENCRYPTION_KEY environment variable")
	// ErrInvalidEncryptionKey 凭证加密密钥格式错误
	ErrInvalidEncryptionKey = errors.New("invalid CREDENTIAL_ENCRYPTION_KEY: must be 32 bytes (Base64 encoded)")
)

// LoadEncryptionKey 从 CREDENTIAL_ENCRYPTION_KEY 环境变量加载凭证密钥
// 密钥是 Base64 编码的 32 字节随机串，解码后直接作为 AES-256 密钥使用。
// 未配置时返回 ErrMissingEncryptionKey，由启动逻辑决定是否降级为明文存储。
func LoadEncryptionKey() ([]byte, error) {
	keyStr := os.Getenv("CREDENTIAL_ENCRYPTION_KEY")
	if keyStr == "" {
		return nil, ErrMissingEncryptionKey
	}

	key, err := base64.StdEncoding.DecodeString(keyStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode CREDENTIAL_ENCRYPTION_KEY: %w", err)
	}

	if len(key) != 32 {
		return nil, fmt.Errorf("%w: got %d bytes, expected 32", ErrInvalidEncryptionKey, len(key))
	}

	return key, nil
}

// GenerateEncryptionKey 生成一把新的凭证密钥（部署初始化用）
// 返回可直接写入环境变量的 Base64 字符串。
func GenerateEncryptionKey() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate encryption key: %w", err)
	}

	return base64.StdEncoding.EncodeToString(key), nil
}

// ValidateEncryptionKey 校验一个候选密钥串是否可用
// 与 LoadEncryptionKey 的校验一致，但不碰环境变量，供配置检查使用。
func ValidateEncryptionKey(keyStr string) error {
	if keyStr == "" {
		return ErrMissingEncryptionKey
	}

	key, err := base64.StdEncoding.DecodeString(keyStr)
	if err != nil {
		return fmt.Errorf("invalid Base64 encoding: %w", err)
	}

	if len(key) != 32 {
		return fmt.Errorf("%w: got %d bytes, expected 32", ErrInvalidEncryptionKey, len(key))
	}

	return nil
}
