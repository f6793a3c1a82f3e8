/*
 * @module service/models/alert
 * @description 告警模型定义，包含指纹去重约束和已读状态
 * @architecture 分层架构 - 数据模型层
 * @documentReference dev_docs/carrier_pipeline.md
 * @stateFlow 告警决策 -> 指纹查重 -> 创建 -> 下游消费 -> 确认已读
 * @rules 同一账户内同一指纹至多一条告警；已读状态单向（unread -> read），核心流程不删除告警
 * @dependencies gorm.io/gorm, time, github.com/google/uuid
 * @refs service/alert/alert_service.go, service/alert/intelligence.go
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 告警严重级别枚举值
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// 告警类型枚举值（自由标签，以下为内置类型）
const (
	AlertTypeRiskIncrease = "risk_increase"
	AlertTypeOOSSpike     = "oos_spike"
	AlertTypeInspection   = "inspection"
	AlertTypeViolation    = "violation"
)

// Alert 告警模型，每条通知事件一行
type Alert struct {
	ID          string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	AccountID   string `json:"account_id" gorm:"not null;type:varchar(36);index;uniqueIndex:idx_alert_account_fingerprint,priority:1"` // 所属账户ID
	DOTNumber   string `json:"dot_number" gorm:"not null;size:8;index"`           // 承运商DOT号
	AlertType   string `json:"alert_type" gorm:"not null;size:50"`                // 告警类型：risk_increase, oos_spike, inspection, violation等
	Severity    string `json:"severity" gorm:"not null;size:20"`                  // 严重级别：info, warning, critical
	Summary     string `json:"summary" gorm:"not null;size:1000"`                 // 人类可读摘要
	IsRead      bool   `json:"is_read" gorm:"not null;default:false;index"`       // 是否已读
	Fingerprint string `json:"fingerprint" gorm:"not null;size:128;uniqueIndex:idx_alert_account_fingerprint,priority:2"` // 指纹（账户内去重用）

	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate 钩子
func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// MarkRead 确认已读，单向操作
func (a *Alert) MarkRead(db *gorm.DB) error {
	a.IsRead = true
	return db.Model(a).Updates(map[string]interface{}{
		"is_read":    true,
		"updated_at": time.Now(),
	}).Error
}

// GetLastAlertOfType 获取承运商指定类型的最近一条告警
func GetLastAlertOfType(db *gorm.DB, accountID, dotNumber, alertType string) (*Alert, error) {
	var alert Alert
	err := db.Where("account_id = ? AND dot_number = ? AND alert_type = ?", accountID, dotNumber, alertType).
		Order("created_at DESC").
		First(&alert).Error
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

// CountRecentAlerts 统计滚动窗口内的告警数量（升级判断用）
func CountRecentAlerts(db *gorm.DB, accountID, dotNumber string, since time.Time) (int64, error) {
	var count int64
	err := db.Model(&Alert{}).
		Where("account_id = ? AND dot_number = ? AND created_at >= ?", accountID, dotNumber, since).
		Count(&count).Error
	return count, err
}

// TableName 指定表名
func (Alert) TableName() string {
	return "alerts"
}
