/*
 * @module service/entitlement/entitlement_service
 * @description 账户权益校验服务：API密钥认证与高级数据访问判定
 * @architecture 分层架构 - 服务层
 * @documentReference dev_docs/carrier_pipeline.md
 * @stateFlow 请求携带API密钥 -> 按前缀定位账户 -> bcrypt校验 -> 订阅权益判定
 * @rules 1. 密钥原文不落库，只存bcrypt哈希与前缀
 *        2. 权益判定只读账户表，订阅生命周期由外部计费系统维护
 *        3. 高级数据要求pro或premium且订阅有效
 * @dependencies gorm.io/gorm, golang.org/x/crypto/bcrypt
 * @refs api/middleware/apikey_auth.go, service/models/account.go
 */

package entitlement

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"carrierwatch-service/service/models"
)

const apiKeyPrefixLen = 12

// 认证失败的哨兵错误，对外统一表现为401
var ErrInvalidAPIKey = errors.New("API密钥无效")

// EntitlementService 权益校验服务
type EntitlementService struct {
	db *gorm.DB
}

func NewEntitlementService(db *gorm.DB) *EntitlementService {
	return &EntitlementService{db: db}
}

// AuthenticateAPIKey 校验API密钥并返回账户
// 按前缀定位候选账户后用bcrypt比对，避免全表扫描
func (s *EntitlementService) AuthenticateAPIKey(apiKey string) (*models.Account, error) {
	apiKey = strings.TrimSpace(apiKey)
	if len(apiKey) < apiKeyPrefixLen {
		return nil, ErrInvalidAPIKey
	}
	prefix := apiKey[:apiKeyPrefixLen]

	var candidates []models.Account
	err := s.db.Where("api_key_prefix = ?", prefix).Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("查询账户失败: %w", err)
	}

	for i := range candidates {
		account := &candidates[i]
		if bcrypt.CompareHashAndPassword([]byte(account.APIKeyHash), []byte(apiKey)) == nil {
			s.touchLastSeen(account)
			return account, nil
		}
	}

	return nil, ErrInvalidAPIKey
}

// MayAccessPremiumData 高级数据访问判定：pro/premium且订阅有效
func (s *EntitlementService) MayAccessPremiumData(accountID string) (bool, error) {
	var account models.Account
	err := s.db.First(&account, "id = ?", accountID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("查询账户失败: %w", err)
	}

	if !account.SubscriptionActive {
		return false, nil
	}
	return account.SubscriptionTier == models.TierPro || account.SubscriptionTier == models.TierPremium, nil
}

// IssueAPIKey 为账户生成新的API密钥，返回密钥原文（仅此一次可见）
func (s *EntitlementService) IssueAPIKey(accountID string) (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("生成密钥失败: %w", err)
	}
	apiKey := "cw_" + hex.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("密钥哈希失败: %w", err)
	}

	err = s.db.Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"api_key_prefix": apiKey[:apiKeyPrefixLen],
			"api_key_hash":   string(hash),
			"updated_at":     time.Now(),
		}).Error
	if err != nil {
		return "", fmt.Errorf("保存密钥失败: %w", err)
	}

	slog.Info("已为账户签发API密钥", "account_id", accountID, "prefix", apiKey[:apiKeyPrefixLen])
	return apiKey, nil
}

func (s *EntitlementService) touchLastSeen(account *models.Account) {
	now := time.Now()
	if err := s.db.Model(account).Update("last_seen_at", now).Error; err != nil {
		slog.Warn("更新账户最后访问时间失败", "account_id", account.ID, "error", err)
	}
}
