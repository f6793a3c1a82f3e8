/*
 * @module service/models/account
 * @description 账户模型定义，订阅状态与API密钥作为权益校验的数据来源
 * @architecture 分层架构 - 数据模型层
 * @documentReference dev_docs/carrier_pipeline.md
 * @stateFlow 账户创建 -> 订阅状态同步（外部计费系统写入）-> 权益校验读取
 * @rules 本核心只读账户权益，订阅生命周期由外部计费系统维护
 * @dependencies gorm.io/gorm, time, github.com/google/uuid
 * @refs service/entitlement/entitlement_service.go, api/middleware/apikey_auth.go
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 订阅层级枚举值
const (
	TierFree    = "free"
	TierPro     = "pro"
	TierPremium = "premium"
)

// Account 账户模型
type Account struct {
	ID                 string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email              string     `json:"email" gorm:"not null;size:255;uniqueIndex"`            // 账户邮箱
	SubscriptionTier   string     `json:"subscription_tier" gorm:"not null;size:20;default:'free'"` // 订阅层级：free, pro, premium
	SubscriptionActive bool       `json:"subscription_active" gorm:"not null;default:false"`     // 订阅是否有效（外部计费系统维护）
	APIKeyPrefix       string     `json:"api_key_prefix" gorm:"size:12;index"`                   // API密钥前缀（定位用）
	APIKeyHash         string     `json:"-" gorm:"size:100"`                                     // API密钥bcrypt哈希
	LastSeenAt         *time.Time `json:"last_seen_at,omitempty"`                                // 最后访问时间
	CreatedAt          time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate 钩子
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (Account) TableName() string {
	return "accounts"
}
