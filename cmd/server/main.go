package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/Mieluoxxx/Catalogx-API/internal/api"
	"github.com/Mieluoxxx/Catalogx-API/internal/config"
	"github.com/Mieluoxxx/Catalogx-API/internal/credentials"
	"github.com/Mieluoxxx/Catalogx-API/internal/db"
)

const (
	// Version 项目版本
	Version = "0.1.0"
	// AppName 应用名称
	AppName = "Catalogx-API"
)

func main() {
	log.Printf("=== %s v%s ===\n", AppName, Version)
	log.Println("多源商品目录聚合与合并引擎")

	// 加载配置
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("❌ 加载配置失败: %v", err)
	}

	// 初始化数据库
	database, err := db.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatalf("❌ 初始化数据库失败: %v", err)
	}
	defer func() {
		if err := db.CloseDatabase(database); err != nil {
			log.Printf("⚠️ 关闭数据库失败: %v", err)
		}
	}()

	// 自动迁移
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(database); err != nil {
			log.Fatalf("❌ 数据库迁移失败: %v", err)
		}
	}

	// 加载凭证加密密钥（未配置时凭证明文存储，仅建议本地开发使用）
	encryptionKey, err := credentials.LoadEncryptionKey()
	if err != nil {
		if errors.Is(err, credentials.ErrMissingEncryptionKey) {
			log.Println("⚠️ 未配置 CREDENTIAL_ENCRYPTION_KEY，供应商凭证将明文存储")
			encryptionKey = nil
		} else {
			log.Fatalf("❌ 加载凭证加密密钥失败: %v", err)
		}
	}

	// 装配依赖并启动服务
	deps := api.BuildDependencies(database, encryptionKey, cfg.Sync)
	router := api.SetupRouter(deps)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("🚀 服务启动: http://localhost%s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("❌ 服务启动失败: %v", err)
	}
}
