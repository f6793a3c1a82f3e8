/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference dev_docs/test_plan.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, time
 * @refs service/models
 */

package testutil

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"carrierwatch-service/service/models"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建测试数据库
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	// 自动迁移所有模型
	err = db.AutoMigrate(
		&models.CarrierProfile{},
		&models.MonitoredCarrier{},
		&models.RiskSnapshot{},
		&models.Alert{},
		&models.Account{},
		&models.SystemConfig{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB 清理数据库
func (tdb *TestDB) CleanDB() {
	// 清空所有表的数据
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
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// TestDataFactory 测试数据工厂
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory 创建测试数据工厂
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

// CarrierProfileOption 承运商档案选项函数类型
type CarrierProfileOption func(*models.CarrierProfile)

// CreateCarrierProfile 创建测试承运商档案
func (f *TestDataFactory) CreateCarrierProfile(dotNumber string, opts ...CarrierProfileOption) *models.CarrierProfile {
	now := time.Now()
	vehicleRate := 8.5
	driverRate := 2.1
	profile := &models.CarrierProfile{
		ID:               generateID("cp"),
		DOTNumber:        dotNumber,
		LegalName:        "测试承运商 " + dotNumber,
		OperatingStatus:  "authorized",
		SafetyRating:     models.SafetyRatingSatisfactory,
		VehicleOOSRate:   &vehicleRate,
		DriverOOSRate:    &driverRate,
		TotalInspections: 50,
		TotalVehicles:    20,
		TotalDrivers:     25,
		RawData:          models.JSONB{"dotNumber": dotNumber},
		LastFetchedAt:    &now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	// 应用选项
	for _, opt := range opts {
		opt(profile)
	}

	err := f.DB.Create(profile).Error
	if err != nil {
		panic(fmt.Sprintf("failed to create test carrier profile: %v", err))
	}

	return profile
}

// WithLastFetchedAt 设置最后抓取时间
func WithLastFetchedAt(t time.Time) CarrierProfileOption {
	return func(p *models.CarrierProfile) {
		p.LastFetchedAt = &t
	}
}

// WithSafetyRating 设置安全评级
func WithSafetyRating(rating string) CarrierProfileOption {
	return func(p *models.CarrierProfile) {
		p.SafetyRating = rating
	}
}

// WithVehicleOOSRate 设置车辆停运率
func WithVehicleOOSRate(rate float64) CarrierProfileOption {
	return func(p *models.CarrierProfile) {
		p.VehicleOOSRate = &rate
	}
}

// MonitoredCarrierOption 监控关系选项函数类型
type MonitoredCarrierOption func(*models.MonitoredCarrier)

// CreateMonitoredCarrier 创建测试监控关系
func (f *TestDataFactory) CreateMonitoredCarrier(accountID, dotNumber string, opts ...MonitoredCarrierOption) *models.MonitoredCarrier {
	now := time.Now()
	monitored := &models.MonitoredCarrier{
		ID:        generateID("mc"),
		AccountID: accountID,
		DOTNumber: dotNumber,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, opt := range opts {
		opt(monitored)
	}

	err := f.DB.Create(monitored).Error
	if err != nil {
		panic(fmt.Sprintf("failed to create test monitored carrier: %v", err))
	}

	return monitored
}

// RiskSnapshotOption 风险快照选项函数类型
type RiskSnapshotOption func(*models.RiskSnapshot)

// CreateRiskSnapshot 创建测试风险快照
func (f *TestDataFactory) CreateRiskSnapshot(dotNumber, snapshotDate string, opts ...RiskSnapshotOption) *models.RiskSnapshot {
	now := time.Now()
	snapshot := &models.RiskSnapshot{
		ID:           generateID("rs"),
		DOTNumber:    dotNumber,
		SnapshotDate: snapshotDate,
		RiskLevel:    models.RiskLevelLow,
		RiskScore:    10,
		Reasons:      models.JSONBStringArray{},
		Actions:      models.JSONBStringArray{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for _, opt := range opts {
		opt(snapshot)
	}

	err := f.DB.Create(snapshot).Error
	if err != nil {
		panic(fmt.Sprintf("failed to create test risk snapshot: %v", err))
	}

	return snapshot
}

// WithRisk 设置快照的等级和分数
func WithRisk(level string, score int) RiskSnapshotOption {
	return func(s *models.RiskSnapshot) {
		s.RiskLevel = level
		s.RiskScore = score
	}
}

// WithSnapshotInputs 设置快照的评分输入（变化检测测试用）
func WithSnapshotInputs(inputs models.JSONB) RiskSnapshotOption {
	return func(s *models.RiskSnapshot) {
		s.Inputs = inputs
	}
}

// AlertOption 告警选项函数类型
type AlertOption func(*models.Alert)

// CreateAlert 创建测试告警
func (f *TestDataFactory) CreateAlert(accountID, dotNumber, alertType string, opts ...AlertOption) *models.Alert {
	now := time.Now()
	alert := &models.Alert{
		ID:          generateID("al"),
		AccountID:   accountID,
		DOTNumber:   dotNumber,
		AlertType:   alertType,
		Severity:    models.SeverityInfo,
		Summary:     "测试告警",
		Fingerprint: generateID("fp"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for _, opt := range opts {
		opt(alert)
	}

	err := f.DB.Create(alert).Error
	if err != nil {
		panic(fmt.Sprintf("failed to create test alert: %v", err))
	}

	return alert
}

// WithCreatedAt 设置告警创建时间（冷却/升级窗口测试用）
func WithCreatedAt(t time.Time) AlertOption {
	return func(a *models.Alert) {
		a.CreatedAt = t
	}
}

// WithRead 将告警标记为已读
func WithRead() AlertOption {
	return func(a *models.Alert) {
		a.IsRead = true
	}
}

// AccountOption 账户选项函数类型
type AccountOption func(*models.Account)

// WithTier 设置订阅层级
func WithTier(tier string) AccountOption {
	return func(a *models.Account) {
		a.SubscriptionTier = tier
	}
}

// WithSubscriptionActive 设置订阅有效状态
func WithSubscriptionActive(active bool) AccountOption {
	return func(a *models.Account) {
		a.SubscriptionActive = active
	}
}

// CreateAccount 创建测试账户
func (f *TestDataFactory) CreateAccount(opts ...AccountOption) *models.Account {
	now := time.Now()
	account := &models.Account{
		ID:                 generateID("ac"),
		Email:              fmt.Sprintf("test_%s@example.com", generateSuffix()),
		SubscriptionTier:   models.TierPro,
		SubscriptionActive: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	for _, opt := range opts {
		opt(account)
	}

	err := f.DB.Create(account).Error
	if err != nil {
		panic(fmt.Sprintf("failed to create test account: %v", err))
	}

	return account
}

// 辅助函数
var idSequence int64

func generateID(prefix string) string {
	idSequence++
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano(), idSequence)
}

func generateSuffix() string {
	idSequence++
	return fmt.Sprintf("%d", time.Now().UnixNano()%100000+idSequence)
}
