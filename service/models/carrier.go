/*
 * @module service/models/carrier
 * @description 承运商档案模型定义，保存FMCSA抓取并归一化后的承运商数据
 * @architecture 分层架构 - 数据模型层
 * @documentReference dev_docs/carrier_pipeline.md
 * @stateFlow 上游抓取 -> 归一化 -> upsert入库 -> 评分/告警读取
 * @rules CarrierProfile仅由缓存提供方(ProfileService)写入，LastFetchedAt仅在抓取成功后更新
 * @dependencies gorm.io/gorm, time, github.com/google/uuid
 * @refs service/carrier/profile_service.go, service/fmcsa/normalizer.go
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 安全评级枚举值
const (
	SafetyRatingSatisfactory   = "satisfactory"
	SafetyRatingConditional    = "conditional"
	SafetyRatingUnsatisfactory = "unsatisfactory"
	SafetyRatingUnrated        = "unrated"
)

// CarrierProfile 承运商档案模型，每个DOT号一行
type CarrierProfile struct {
	ID        string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	DOTNumber string `json:"dot_number" gorm:"not null;size:8;uniqueIndex"` // DOT号，1-8位数字

	// 描述信息
	LegalName       string `json:"legal_name" gorm:"size:255"`       // 法定名称
	DBAName         string `json:"dba_name" gorm:"size:255"`         // 经营名称
	PhysicalAddress string `json:"physical_address" gorm:"size:500"` // 实际地址
	MailingAddress  string `json:"mailing_address" gorm:"size:500"`  // 邮寄地址
	Phone           string `json:"phone" gorm:"size:30"`             // 联系电话
	OperatingStatus string `json:"operating_status" gorm:"size:50"`  // 运营状态

	// 安全信息
	SafetyRating     string     `json:"safety_rating" gorm:"size:20;default:'unrated'"` // 安全评级：satisfactory, conditional, unsatisfactory, unrated
	SafetyRatingDate *time.Time `json:"safety_rating_date,omitempty"`                   // 评级日期

	// 派生指标，nil表示数据不足（区别于0）
	VehicleOOSRate *float64 `json:"vehicle_oos_rate,omitempty"` // 车辆停运率（百分比）
	DriverOOSRate  *float64 `json:"driver_oos_rate,omitempty"`  // 驾驶员停运率（百分比）
	HazmatOOSRate  *float64 `json:"hazmat_oos_rate,omitempty"`  // 危险品停运率（百分比）

	TotalInspections int `json:"total_inspections" gorm:"default:0"` // 检查总数（滚动窗口）
	TotalVehicles    int `json:"total_vehicles" gorm:"default:0"`    // 车辆总数
	TotalDrivers     int `json:"total_drivers" gorm:"default:0"`     // 驾驶员总数

	// 溯源信息
	RawData       JSONB      `json:"raw_data,omitempty" gorm:"type:jsonb"` // 上游原始载荷，审计用
	LastFetchedAt *time.Time `json:"last_fetched_at,omitempty"`            // 最后成功抓取时间，nil视为永久过期

	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// MonitoredCarrier 监控关系模型，账户订阅的承运商
type MonitoredCarrier struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	AccountID string    `json:"account_id" gorm:"not null;type:varchar(36);index"`          // 所属账户ID
	DOTNumber string    `json:"dot_number" gorm:"not null;size:8;index:idx_monitored_dot"`  // 承运商DOT号
	Alias     string    `json:"alias,omitempty" gorm:"size:255"`                            // 用户自定义备注名
	IsActive  bool      `json:"is_active" gorm:"not null;default:true;index"`               // 是否处于监控中
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// IsStale 判断档案是否超过TTL需要刷新
func (cp *CarrierProfile) IsStale(ttl time.Duration, now time.Time) bool {
	if cp.LastFetchedAt == nil {
		return true
	}
	return now.Sub(*cp.LastFetchedAt) >= ttl
}

// StalenessHours 距最后成功抓取经过的小时数，未抓取过返回-1
func (cp *CarrierProfile) StalenessHours(now time.Time) float64 {
	if cp.LastFetchedAt == nil {
		return -1
	}
	return now.Sub(*cp.LastFetchedAt).Hours()
}

// BeforeCreate 钩子
func (cp *CarrierProfile) BeforeCreate(tx *gorm.DB) error {
	if cp.ID == "" {
		cp.ID = uuid.New().String()
	}
	return nil
}

func (mc *MonitoredCarrier) BeforeCreate(tx *gorm.DB) error {
	if mc.ID == "" {
		mc.ID = uuid.New().String()
	}
	return nil
}

// GetActiveMonitoredDOTNumbers 获取当前处于监控中的DOT号去重列表
func GetActiveMonitoredDOTNumbers(db *gorm.DB) ([]string, error) {
	var dotNumbers []string
	err := db.Model(&MonitoredCarrier{}).
		Where("is_active = ?", true).
		Distinct("dot_number").
		Order("dot_number").
		Pluck("dot_number", &dotNumbers).Error
	return dotNumbers, err
}

// GetMonitoringAccountIDs 获取正在监控指定承运商的账户ID列表
func GetMonitoringAccountIDs(db *gorm.DB, dotNumber string) ([]string, error) {
	var accountIDs []string
	err := db.Model(&MonitoredCarrier{}).
		Where("dot_number = ? AND is_active = ?", dotNumber, true).
		Distinct("account_id").
		Pluck("account_id", &accountIDs).Error
	return accountIDs, err
}

// TableName 指定表名
func (CarrierProfile) TableName() string {
	return "carrier_profiles"
}

func (MonitoredCarrier) TableName() string {
	return "monitored_carriers"
}
