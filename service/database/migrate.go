/*
 * @module service/database/migrate
 * @description 数据库迁移模块，负责创建和更新数据库表结构，提供演示数据种子
 * @architecture 数据访问层 - 迁移管理
 * @documentReference dev_docs/carrier_pipeline.md
 * @stateFlow 应用启动时执行数据库迁移
 * @rules 确保数据库结构与模型定义保持一致
 * @dependencies carrierwatch-service/service/models, gorm.io/gorm
 * @refs service/init.go
 */

package database

import (
	"log"
	"os"

	"gorm.io/gorm"

	"carrierwatch-service/service/models"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate(db *gorm.DB) error {
	log.Println("开始数据库迁移...")

	// 承运商档案与监控关系
	err := db.AutoMigrate(
		&models.CarrierProfile{},
		&models.MonitoredCarrier{},
	)
	if err != nil {
		return err
	}

	// 风险快照与告警
	err = db.AutoMigrate(
		&models.RiskSnapshot{},
		&models.Alert{},
	)
	if err != nil {
		return err
	}

	// 账户权益与系统配置
	err = db.AutoMigrate(
		&models.Account{},
		&models.SystemConfig{},
	)
	if err != nil {
		return err
	}

	log.Println("数据库迁移完成")
	return nil
}

// InitializeData 初始化演示数据，仅在SEED_DEMO_DATA=true时写入
func InitializeData(db *gorm.DB) error {
	if os.Getenv("SEED_DEMO_DATA") != "true" {
		return nil
	}

	var count int64
	if err := db.Model(&models.Account{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("已有账户数据，跳过演示数据初始化")
		return nil
	}

	demo := &models.Account{
		Email:              "demo@carrierwatch.local",
		SubscriptionTier:   models.TierPro,
		SubscriptionActive: true,
	}
	if err := db.Create(demo).Error; err != nil {
		return err
	}

	// 监控离线演示DOT号，无webkey时也能跑通完整周期
	monitored := &models.MonitoredCarrier{
		AccountID: demo.ID,
		DOTNumber: "3487341",
		Alias:     "演示承运商",
		IsActive:  true,
	}
	if err := db.Create(monitored).Error; err != nil {
		return err
	}

	log.Printf("演示数据初始化完成: account=%s", demo.Email)
	return nil
}
