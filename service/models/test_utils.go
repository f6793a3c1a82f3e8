/*
 * @module service/models/test_utils
 * @description 模型测试辅助工具
 * @architecture 测试基础设施 - 专门为模型测试提供工具
 * @dependencies gorm, sqlite, time
 */

package models

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ModelTestDB 模型测试数据库配置
type ModelTestDB struct {
	DB *gorm.DB
}

// NewModelTestDB 创建模型测试数据库
func NewModelTestDB() *ModelTestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	err = db.AutoMigrate(
		&CarrierProfile{},
		&MonitoredCarrier{},
		&RiskSnapshot{},
		&Alert{},
		&Account{},
		&SystemConfig{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &ModelTestDB{DB: db}
}

// CleanDB 清理数据库
func (tdb *ModelTestDB) CleanDB() {
	tables := []string{
		"carrier_profiles",
		"monitored_carriers",
		"risk_snapshots",
		"alerts",
		"accounts",
		"system_configs",
	}

	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close 关闭数据库连接
func (tdb *ModelTestDB) Close() {
	sqlDB, err := tdb.DB.DB()
	if err != nil {
		fmt.Printf("Error getting underlying DB: %v\n", err)
		return
	}
	sqlDB.Close()
}

// ModelTestDataFactory 模型测试数据工厂
type ModelTestDataFactory struct {
	DB *gorm.DB
}

// NewModelTestDataFactory 创建新的模型测试数据工厂
func NewModelTestDataFactory(db *gorm.DB) *ModelTestDataFactory {
	return &ModelTestDataFactory{DB: db}
}

// CreateCarrierProfile 创建测试承运商档案
func (f *ModelTestDataFactory) CreateCarrierProfile(dotNumber string) *CarrierProfile {
	now := time.Now()
	profile := &CarrierProfile{
		DOTNumber:       dotNumber,
		LegalName:       "测试承运商 " + dotNumber,
		OperatingStatus: "authorized",
		SafetyRating:    "satisfactory",
		LastFetchedAt:   &now,
	}

	if err := f.DB.Create(profile).Error; err != nil {
		panic(fmt.Sprintf("failed to create test carrier profile: %v", err))
	}

	return profile
}

// CreateMonitoredCarrier 创建测试监控关系
func (f *ModelTestDataFactory) CreateMonitoredCarrier(accountID, dotNumber string, active bool) *MonitoredCarrier {
	monitored := &MonitoredCarrier{
		AccountID: accountID,
		DOTNumber: dotNumber,
		IsActive:  active,
	}

	if err := f.DB.Create(monitored).Error; err != nil {
		panic(fmt.Sprintf("failed to create test monitored carrier: %v", err))
	}

	// GORM对零值且带default标签的字段会在插入时写入默认值，导致IsActive=false无法直接落库，需显式更新
	if !active {
		if err := f.DB.Model(monitored).Update("is_active", false).Error; err != nil {
			panic(fmt.Sprintf("failed to deactivate test monitored carrier: %v", err))
		}
	}

	return monitored
}

// CreateRiskSnapshot 创建测试风险快照
func (f *ModelTestDataFactory) CreateRiskSnapshot(dotNumber, snapshotDate, level string, score int) *RiskSnapshot {
	snapshot := &RiskSnapshot{
		DOTNumber:    dotNumber,
		SnapshotDate: snapshotDate,
		RiskLevel:    level,
		RiskScore:    score,
		Reasons:      JSONBStringArray{},
		Actions:      JSONBStringArray{},
		Inputs:       JSONB{},
	}

	if err := f.DB.Create(snapshot).Error; err != nil {
		panic(fmt.Sprintf("failed to create test risk snapshot: %v", err))
	}

	return snapshot
}
