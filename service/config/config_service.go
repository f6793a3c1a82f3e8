/*
 * @module service/config/config_service
 * @description 配置服务，提供数据保留策略等运行时配置的读写
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/carrier_pipeline.md
 * @stateFlow 服务调用 -> 环境变量覆盖 -> 数据库 -> 默认值
 * @rules 配置读取失败时回退默认值，不阻断业务流程
 * @dependencies service/models, gorm.io/gorm
 * @refs service/cleanup/retention_service.go
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"carrierwatch-service/service/models"

	"gorm.io/gorm"
)

// 配置键
const (
	ConfigKeyAlertRetentionDays    = "alert_retention_days"
	ConfigKeySnapshotRetentionDays = "snapshot_retention_days"
)

// 默认值
const (
	DefaultAlertRetentionDays    = 90
	DefaultSnapshotRetentionDays = 365
)

// ConfigService 配置服务
type ConfigService struct {
	db *gorm.DB
}

// NewConfigService 创建配置服务实例
func NewConfigService(db *gorm.DB) *ConfigService {
	return &ConfigService{db: db}
}

// GetConfig 读取配置，优先级：环境变量 > 数据库 > 未找到错误
// 环境变量名为配置键的大写形式，如 ALERT_RETENTION_DAYS
func (s *ConfigService) GetConfig(key string) (string, error) {
	if value := os.Getenv(strings.ToUpper(key)); value != "" {
		return value, nil
	}

	var cfg models.SystemConfig
	err := s.db.Where("key = ? AND environment = ?", key, "default").First(&cfg).Error
	if err != nil {
		return "", fmt.Errorf("配置不存在: %s", key)
	}
	return cfg.Value, nil
}

// SetConfig 写入配置，同键覆盖
func (s *ConfigService) SetConfig(key, value, description string) error {
	var cfg models.SystemConfig
	err := s.db.Where("key = ? AND environment = ?", key, "default").First(&cfg).Error
	switch {
	case err == nil:
		cfg.Value = value
		cfg.Description = description
		return s.db.Save(&cfg).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		cfg = models.SystemConfig{
			Key:         key,
			Value:       value,
			Environment: "default",
			Description: description,
		}
		return s.db.Create(&cfg).Error
	default:
		return fmt.Errorf("查询配置失败: %w", err)
	}
}

// GetAlertRetentionDays 获取已读预警的保留天数
func (s *ConfigService) GetAlertRetentionDays() (int, error) {
	return s.getIntConfig(ConfigKeyAlertRetentionDays, DefaultAlertRetentionDays)
}

// GetSnapshotRetentionDays 获取风险快照的保留天数
func (s *ConfigService) GetSnapshotRetentionDays() (int, error) {
	return s.getIntConfig(ConfigKeySnapshotRetentionDays, DefaultSnapshotRetentionDays)
}

func (s *ConfigService) getIntConfig(key string, defaultValue int) (int, error) {
	valueStr, err := s.GetConfig(key)
	if err != nil {
		return defaultValue, nil // 返回默认值
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil || value <= 0 {
		return defaultValue, nil // 解析失败返回默认值
	}

	return value, nil
}
