/*
 * @module service/models/risk_snapshot
 * @description 风险快照模型定义，每个承运商每个日历日一条不可变记录
 * @architecture 分层架构 - 数据模型层
 * @documentReference dev_docs/carrier_pipeline.md
 * @stateFlow 评分引擎计算 -> 按(dot_number, snapshot_date)幂等upsert -> 告警引擎按日对比
 * @rules 同日重复评分覆盖当日快照而非新增记录
 * @dependencies gorm.io/gorm, time, github.com/google/uuid
 * @refs service/risk/snapshot_service.go, service/monitoring/monitor_service.go
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 风险等级枚举值
const (
	RiskLevelLow      = "low"
	RiskLevelElevated = "elevated"
	RiskLevelHigh     = "high"
)

// RiskSnapshot 风险快照模型，(dot_number, snapshot_date)唯一
type RiskSnapshot struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	DOTNumber    string    `json:"dot_number" gorm:"not null;size:8;uniqueIndex:idx_snapshot_dot_date,priority:1"` // 承运商DOT号
	SnapshotDate string    `json:"snapshot_date" gorm:"not null;size:10;uniqueIndex:idx_snapshot_dot_date,priority:2"` // 快照日期，UTC日历日，格式2006-01-02
	RiskLevel    string    `json:"risk_level" gorm:"not null;size:20"` // 风险等级：low, elevated, high
	RiskScore    int       `json:"risk_score" gorm:"not null"`         // 风险分数，0-100

	Reasons JSONBStringArray `json:"reasons" gorm:"type:jsonb"` // 评分因素说明（人类可读）
	Actions JSONBStringArray `json:"actions" gorm:"type:jsonb"` // 建议采取的措施

	Inputs JSONB `json:"inputs,omitempty" gorm:"type:jsonb"` // 评分输入，回放/审计用

	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate 钩子
func (rs *RiskSnapshot) BeforeCreate(tx *gorm.DB) error {
	if rs.ID == "" {
		rs.ID = uuid.New().String()
	}
	return nil
}

// GetLatestSnapshotBefore 获取指定日期之前最近的一条快照
func GetLatestSnapshotBefore(db *gorm.DB, dotNumber, snapshotDate string) (*RiskSnapshot, error) {
	var snapshot RiskSnapshot
	err := db.Where("dot_number = ? AND snapshot_date < ?", dotNumber, snapshotDate).
		Order("snapshot_date DESC").
		First(&snapshot).Error
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// GetRecentSnapshots 获取承运商最近的快照列表
func GetRecentSnapshots(db *gorm.DB, dotNumber string, limit int) ([]RiskSnapshot, error) {
	if limit <= 0 || limit > 365 {
		limit = 30
	}
	var snapshots []RiskSnapshot
	err := db.Where("dot_number = ?", dotNumber).
		Order("snapshot_date DESC").
		Limit(limit).
		Find(&snapshots).Error
	return snapshots, err
}

// TableName 指定表名
func (RiskSnapshot) TableName() string {
	return "risk_snapshots"
}
