/*
 * @module service/alert/intelligence
 * @description 告警智能决策引擎：严重级别分类、指纹去重键、冷却抑制、升级判断
 * @architecture 领域层 - 纯函数决策，无I/O
 * @documentReference dev_docs/alert_rules.md
 * @stateFlow 分类 -> 冷却检查 -> 升级检查 -> 指纹生成 -> 交由alert_service持久化
 * @rules 1. 严重级别是静态映射表，不由事件幅度推导
 *        2. 冷却仅适用于inspection/violation两类；无历史告警一律放行
 *        3. 升级只升不降，critical为顶级
 * @dependencies time
 * @refs alert_service.go, service/monitoring/monitor_service.go
 */

package alert

import (
	"fmt"
	"time"

	"carrierwatch-service/service/models"
)

const (
	// CooldownDays inspection/violation类告警的冷却天数
	CooldownDays = 30

	// EscalationWindowDays 升级判断的滚动窗口天数
	EscalationWindowDays = 14

	// EscalationThreshold 窗口内达到该数量即升级一档
	EscalationThreshold = 2
)

// ClassifySeverity 按告警类型映射严重级别，静态表
func ClassifySeverity(alertType string) string {
	switch alertType {
	case models.AlertTypeOOSSpike:
		return models.SeverityCritical
	case models.AlertTypeRiskIncrease, models.AlertTypeViolation:
		return models.SeverityWarning
	default:
		// inspection及未知类型归为info
		return models.SeverityInfo
	}
}

// Fingerprint 生成去重指纹：carrierId:type:UTC日历日:diffKey
// diffKey由调用方提供，标识触发告警的具体变化（如"status_change"或OOS事件日期）
func Fingerprint(dotNumber, alertType string, now time.Time, diffKey string) string {
	return fmt.Sprintf("%s:%s:%s:%s", dotNumber, alertType, now.UTC().Format("2006-01-02"), diffKey)
}

// ShouldCreateAlert 冷却抑制判断
// lastAlertAt为该承运商同类型最近一条告警的时间，nil表示无历史、一律放行
func ShouldCreateAlert(alertType string, lastAlertAt *time.Time, now time.Time) bool {
	if lastAlertAt == nil {
		return true
	}
	// 只有低价值的周期性类型受冷却约束
	if alertType != models.AlertTypeInspection && alertType != models.AlertTypeViolation {
		return true
	}
	elapsedDays := now.Sub(*lastAlertAt).Hours() / 24
	return elapsedDays >= CooldownDays
}

// MaybeEscalateSeverity 按近期告警数量升级严重级别，只升不降
func MaybeEscalateSeverity(severity string, recentAlertCount int64) string {
	if recentAlertCount < EscalationThreshold {
		return severity
	}
	switch severity {
	case models.SeverityInfo:
		return models.SeverityWarning
	case models.SeverityWarning:
		return models.SeverityCritical
	default:
		return severity
	}
}

// EscalationWindowStart 返回升级判断窗口的起点
func EscalationWindowStart(now time.Time) time.Time {
	return now.Add(-EscalationWindowDays * 24 * time.Hour)
}
