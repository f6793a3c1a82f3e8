/*
 * @module service/risk/snapshot_service
 * @description 风险快照持久化服务，评分结果按(dot_number, snapshot_date)幂等落库
 * @architecture 分层架构 - 服务层
 * @documentReference dev_docs/risk_model.md
 * @stateFlow 读取档案 -> Score计算 -> upsert当日快照 -> 返回评估结果
 * @rules 1. 同日重复评估覆盖当日快照，反映更新的源数据
 *        2. 档案不存在是该承运商评分步骤的致命错误，用独立错误码标识，不做默认兜底
 * @dependencies gorm.io/gorm, service/models
 * @refs scoring_engine.go, service/monitoring/monitor_service.go
 */

package risk

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"carrierwatch-service/service/models"
)

// ErrNoProfile 承运商档案不存在时返回，调用方据此区分评分前置条件失败与存储故障
var ErrNoProfile = errors.New("承运商档案不存在，无法评分")

// SnapshotService 风险快照服务
type SnapshotService struct {
	db *gorm.DB
}

func NewSnapshotService(db *gorm.DB) *SnapshotService {
	return &SnapshotService{db: db}
}

// SnapshotDateFor 返回UTC日历日，格式2006-01-02
func SnapshotDateFor(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

// AssessAndRecord 读取档案、计算评估并写入当日快照
func (s *SnapshotService) AssessAndRecord(dotNumber string) (*Assessment, *models.RiskSnapshot, error) {
	var profile models.CarrierProfile
	err := s.db.Where("dot_number = ?", dotNumber).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: dot_number=%s", ErrNoProfile, dotNumber)
		}
		return nil, nil, fmt.Errorf("查询承运商档案失败: %w", err)
	}

	assessment := Score(&profile)
	snapshot, err := s.RecordAssessment(dotNumber, assessment, &profile, time.Now())
	if err != nil {
		return nil, nil, err
	}
	return assessment, snapshot, nil
}

// RecordAssessment 将评估结果upsert到当日快照
func (s *SnapshotService) RecordAssessment(dotNumber string, assessment *Assessment, profile *models.CarrierProfile, now time.Time) (*models.RiskSnapshot, error) {
	snapshotDate := SnapshotDateFor(now)
	snapshot := &models.RiskSnapshot{
		DOTNumber:    dotNumber,
		SnapshotDate: snapshotDate,
		RiskLevel:    assessment.RiskLevel,
		RiskScore:    assessment.RiskScore,
		Reasons:      models.JSONBStringArray(assessment.Reasons),
		Actions:      models.JSONBStringArray(assessment.Actions),
		Inputs:       scoringInputs(profile),
		UpdatedAt:    now,
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "dot_number"}, {Name: "snapshot_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"risk_level", "risk_score", "reasons", "actions", "inputs", "updated_at",
		}),
	}).Create(snapshot).Error
	if err != nil {
		slog.Error("写入风险快照失败", "dot_number", dotNumber, "snapshot_date", snapshotDate, "error", err)
		return nil, fmt.Errorf("写入风险快照失败: %w", err)
	}

	// upsert冲突路径不回填ID，重新读取权威行
	var stored models.RiskSnapshot
	err = s.db.Where("dot_number = ? AND snapshot_date = ?", dotNumber, snapshotDate).First(&stored).Error
	if err != nil {
		return nil, fmt.Errorf("读取风险快照失败: %w", err)
	}

	slog.Debug("风险快照已记录",
		"dot_number", dotNumber,
		"snapshot_date", snapshotDate,
		"risk_level", stored.RiskLevel,
		"risk_score", stored.RiskScore)
	return &stored, nil
}

// scoringInputs 保留评分当时的关键输入，审计与回放用
func scoringInputs(profile *models.CarrierProfile) models.JSONB {
	inputs := models.JSONB{
		"safetyRating":     profile.SafetyRating,
		"operatingStatus":  profile.OperatingStatus,
		"totalInspections": profile.TotalInspections,
	}
	if profile.VehicleOOSRate != nil {
		inputs["vehicleOosRate"] = *profile.VehicleOOSRate
	}
	if profile.DriverOOSRate != nil {
		inputs["driverOosRate"] = *profile.DriverOOSRate
	}
	if profile.HazmatOOSRate != nil {
		inputs["hazmatOosRate"] = *profile.HazmatOOSRate
	}
	return inputs
}
