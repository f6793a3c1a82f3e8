/*
 * @module service/monitoring/candidate_builder
 * @description 变化检测与候选告警构建：对比当日快照与前一快照，产出待决策的告警候选
 * @architecture 领域层 - 纯函数计算，无I/O
 * @documentReference dev_docs/alert_rules.md
 * @stateFlow 当日快照+前快照 -> 逐项对比 -> 候选列表 -> 告警服务决策
 * @rules 1. 首次快照无对比基准，不产出候选
 *        2. 风险等级只在上升时产出候选，下降静默
 *        3. diffKey标识具体变化，参与告警指纹
 * @dependencies github.com/spf13/cast, service/models
 * @refs monitor_service.go, service/alert/alert_service.go
 */

package monitoring

import (
	"fmt"

	"github.com/spf13/cast"

	"carrierwatch-service/service/models"
)

const (
	// ScoreJumpThreshold 等级未变时触发risk_increase的最小分数涨幅
	ScoreJumpThreshold = 10

	// OOSSpikeLevel 车辆停运率突破该水平视为尖峰
	OOSSpikeLevel = 20.0
)

// ChangeCandidate 候选告警，尚未经过冷却/去重决策
type ChangeCandidate struct {
	AlertType string
	Summary   string
	DiffKey   string
}

var riskLevelRank = map[string]int{
	models.RiskLevelLow:      0,
	models.RiskLevelElevated: 1,
	models.RiskLevelHigh:     2,
}

// BuildChangeCandidates 对比当日快照与前一快照，返回候选告警列表
// previous为nil表示首次评估，无对比基准
func BuildChangeCandidates(profile *models.CarrierProfile, current, previous *models.RiskSnapshot) []ChangeCandidate {
	if previous == nil {
		return nil
	}

	candidates := make([]ChangeCandidate, 0, 3)

	// 风险上升：等级跃升优先，其次分数大幅上涨
	if riskLevelRank[current.RiskLevel] > riskLevelRank[previous.RiskLevel] {
		candidates = append(candidates, ChangeCandidate{
			AlertType: models.AlertTypeRiskIncrease,
			Summary: fmt.Sprintf("承运商%s风险等级从%s上升到%s（%d -> %d分）",
				profile.DOTNumber, previous.RiskLevel, current.RiskLevel, previous.RiskScore, current.RiskScore),
			DiffKey: "level_change",
		})
	} else if current.RiskScore-previous.RiskScore >= ScoreJumpThreshold {
		candidates = append(candidates, ChangeCandidate{
			AlertType: models.AlertTypeRiskIncrease,
			Summary: fmt.Sprintf("承运商%s风险分数从%d上涨到%d",
				profile.DOTNumber, previous.RiskScore, current.RiskScore),
			DiffKey: "score_jump",
		})
	}

	// 车辆停运率尖峰：从阈值以下（或无数据）突破到阈值以上
	if profile.VehicleOOSRate != nil && *profile.VehicleOOSRate > OOSSpikeLevel {
		previousRate, hadRate := previousVehicleRate(previous)
		if !hadRate || previousRate <= OOSSpikeLevel {
			candidates = append(candidates, ChangeCandidate{
				AlertType: models.AlertTypeOOSSpike,
				Summary: fmt.Sprintf("承运商%s车辆停运率升至%.2f%%，超过%.0f%%尖峰水平",
					profile.DOTNumber, *profile.VehicleOOSRate, OOSSpikeLevel),
				DiffKey: "vehicle_oos",
			})
		}
	}

	// 运营资质变化：从authorized转为其他状态
	previousStatus := cast.ToString(previous.Inputs["operatingStatus"])
	if previousStatus == "authorized" && profile.OperatingStatus != "authorized" {
		candidates = append(candidates, ChangeCandidate{
			AlertType: models.AlertTypeViolation,
			Summary: fmt.Sprintf("承运商%s运营状态从authorized变为%s",
				profile.DOTNumber, profile.OperatingStatus),
			DiffKey: "status_change",
		})
	}

	// 新增检查记录
	previousInspections := cast.ToInt(previous.Inputs["totalInspections"])
	if profile.TotalInspections > previousInspections {
		candidates = append(candidates, ChangeCandidate{
			AlertType: models.AlertTypeInspection,
			Summary: fmt.Sprintf("承运商%s新增%d条检查记录",
				profile.DOTNumber, profile.TotalInspections-previousInspections),
			DiffKey: fmt.Sprintf("insp_count_%d", profile.TotalInspections),
		})
	}

	return candidates
}

func previousVehicleRate(snapshot *models.RiskSnapshot) (float64, bool) {
	value, exists := snapshot.Inputs["vehicleOosRate"]
	if !exists {
		return 0, false
	}
	rate, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, false
	}
	return rate, true
}
