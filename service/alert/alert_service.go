/*
 * @module service/alert/alert_service
 * @description 告警持久化服务：组合决策引擎完成分类、冷却、升级、指纹查重后落库，
 *              并向下游投递新建告警
 * @architecture 分层架构 - 服务层
 * @documentReference dev_docs/alert_rules.md
 * @stateFlow 候选告警 -> ClassifySeverity -> 冷却检查 -> 升级检查 -> 指纹查重 -> 入库 -> 投递
 * @rules 1. 指纹唯一约束兜底并发插入，唯一冲突按去重no-op处理而非错误
 *        2. 抑制（冷却/去重）是成功的no-op结果，与真实失败在日志中区分
 *        3. 投递失败不影响告警落库
 * @dependencies gorm.io/gorm, github.com/lib/pq
 * @refs intelligence.go, service/event/alert_publisher.go
 */

package alert

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"carrierwatch-service/service/models"
)

// 候选告警被抑制时的结果原因
const (
	OutcomeCreated           = "created"
	OutcomeSuppressedCooldown = "suppressed_cooldown"
	OutcomeSuppressedDedup    = "suppressed_dedup"
)

// Candidate 候选告警，由监控编排器或API层构造
type Candidate struct {
	AccountID string
	DOTNumber string
	AlertType string
	Summary   string
	DiffKey   string // 标识具体变化，参与指纹
}

// Publisher 新建告警的下游投递接口
type Publisher interface {
	PublishAlert(alert *models.Alert) error
}

// AlertService 告警服务
type AlertService struct {
	db        *gorm.DB
	publisher Publisher // 可为nil，表示不投递
}

func NewAlertService(db *gorm.DB, publisher Publisher) *AlertService {
	return &AlertService{db: db, publisher: publisher}
}

// ProcessCandidate 完整执行告警决策链并在通过时落库
// 返回的outcome标识创建或抑制原因，抑制不是错误
func (s *AlertService) ProcessCandidate(candidate Candidate, now time.Time) (*models.Alert, string, error) {
	severity := ClassifySeverity(candidate.AlertType)

	lastAlertAt, err := s.lastAlertTime(candidate.AccountID, candidate.DOTNumber, candidate.AlertType)
	if err != nil {
		return nil, "", fmt.Errorf("查询历史告警失败: %w", err)
	}
	if !ShouldCreateAlert(candidate.AlertType, lastAlertAt, now) {
		slog.Info("告警因冷却窗口被抑制",
			"dot_number", candidate.DOTNumber,
			"alert_type", candidate.AlertType,
			"last_alert_at", lastAlertAt)
		return nil, OutcomeSuppressedCooldown, nil
	}

	recentCount, err := models.CountRecentAlerts(s.db, candidate.AccountID, candidate.DOTNumber, EscalationWindowStart(now))
	if err != nil {
		return nil, "", fmt.Errorf("统计近期告警失败: %w", err)
	}
	severity = MaybeEscalateSeverity(severity, recentCount)

	fingerprint := Fingerprint(candidate.DOTNumber, candidate.AlertType, now, candidate.DiffKey)

	var existing models.Alert
	err = s.db.Where("account_id = ? AND fingerprint = ?", candidate.AccountID, fingerprint).First(&existing).Error
	if err == nil {
		slog.Info("告警因指纹重复被抑制", "fingerprint", fingerprint)
		return &existing, OutcomeSuppressedDedup, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("指纹查重失败: %w", err)
	}

	newAlert := &models.Alert{
		AccountID:   candidate.AccountID,
		DOTNumber:   candidate.DOTNumber,
		AlertType:   candidate.AlertType,
		Severity:    severity,
		Summary:     candidate.Summary,
		Fingerprint: fingerprint,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.Create(newAlert).Error; err != nil {
		// 并发插入同一指纹时由唯一约束兜底，视为去重no-op
		if isUniqueViolation(err) {
			slog.Info("告警并发插入冲突，按去重处理", "fingerprint", fingerprint)
			var winner models.Alert
			if findErr := s.db.Where("account_id = ? AND fingerprint = ?", candidate.AccountID, fingerprint).First(&winner).Error; findErr == nil {
				return &winner, OutcomeSuppressedDedup, nil
			}
			return nil, OutcomeSuppressedDedup, nil
		}
		return nil, "", fmt.Errorf("创建告警失败: %w", err)
	}

	slog.Info("告警已创建",
		"alert_id", newAlert.ID,
		"dot_number", candidate.DOTNumber,
		"alert_type", candidate.AlertType,
		"severity", severity)

	if s.publisher != nil {
		if err := s.publisher.PublishAlert(newAlert); err != nil {
			// 投递属尽力而为，下游也可轮询未读告警
			slog.Error("告警投递失败", "alert_id", newAlert.ID, "error", err)
		}
	}

	return newAlert, OutcomeCreated, nil
}

// ListAlerts 按账户查询告警，unreadOnly时只返回未读
func (s *AlertService) ListAlerts(accountID string, unreadOnly bool, limit int) ([]models.Alert, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := s.db.Where("account_id = ?", accountID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	var alerts []models.Alert
	err := query.Order("created_at DESC").Limit(limit).Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("查询告警列表失败: %w", err)
	}
	return alerts, nil
}

// AcknowledgeAlert 确认告警已读，越权访问返回not found
func (s *AlertService) AcknowledgeAlert(accountID, alertID string) (*models.Alert, error) {
	var alert models.Alert
	err := s.db.Where("id = ? AND account_id = ?", alertID, accountID).First(&alert).Error
	if err != nil {
		return nil, err
	}
	if err := alert.MarkRead(s.db); err != nil {
		return nil, fmt.Errorf("更新告警状态失败: %w", err)
	}
	return &alert, nil
}

func (s *AlertService) lastAlertTime(accountID, dotNumber, alertType string) (*time.Time, error) {
	last, err := models.GetLastAlertOfType(s.db, accountID, dotNumber, alertType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &last.CreatedAt, nil
}

// isUniqueViolation 识别唯一约束冲突，postgres为23505，sqlite按错误文本识别
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
