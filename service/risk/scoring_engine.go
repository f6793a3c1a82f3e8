/*
 * @module service/risk/scoring_engine
 * @description 承运商风险评分引擎，基于安全评级与停运(OOS)率的加法计分模型
 * @architecture 领域层 - 纯函数计算，无I/O
 * @documentReference dev_docs/risk_model.md
 * @stateFlow 档案输入 -> 逐因子计分 -> 封顶100 -> 等级映射 -> 输出评估结果
 * @rules 1. 评分确定性：相同输入必须产生相同输出
 *        2. 各因子只取最高档位得分，理由文本按单一阈值独立生成
 *        3. 检查样本不足(<10)追加提示理由，不影响分数
 * @dependencies service/models
 * @refs scoring_engine_test.go
 */

package risk

import (
	"fmt"

	"carrierwatch-service/service/models"
)

// 评分参数，与风险模型文档保持一致
const (
	MaxScore = 100

	HighRiskThreshold     = 60
	ElevatedRiskThreshold = 30

	VehicleOOSThreshold = 10.0 // 百分比
	DriverOOSThreshold  = 5.0
	HazmatOOSThreshold  = 8.0

	MinInspectionSample = 10
)

// Assessment 评分结果
type Assessment struct {
	RiskLevel string   `json:"riskLevel"`
	RiskScore int      `json:"riskScore"`
	Reasons   []string `json:"reasons"`
	Actions   []string `json:"actions"`
}

// Score 对承运商档案计算风险评估，纯函数
func Score(profile *models.CarrierProfile) *Assessment {
	score := 0
	reasons := make([]string, 0, 4)
	actions := make([]string, 0, 4)

	score += scoreSafetyRating(profile.SafetyRating, &reasons, &actions)
	score += scoreVehicleOOS(profile.VehicleOOSRate, &reasons, &actions)
	score += scoreDriverOOS(profile.DriverOOSRate, &reasons, &actions)
	score += scoreHazmatOOS(profile.HazmatOOSRate, &reasons, &actions)

	if score > MaxScore {
		score = MaxScore
	}

	if profile.TotalInspections < MinInspectionSample {
		reasons = append(reasons, fmt.Sprintf("检查记录不足（近期%d次），统计置信度低", profile.TotalInspections))
	}

	return &Assessment{
		RiskLevel: levelForScore(score),
		RiskScore: score,
		Reasons:   reasons,
		Actions:   actions,
	}
}

func levelForScore(score int) string {
	switch {
	case score >= HighRiskThreshold:
		return models.RiskLevelHigh
	case score >= ElevatedRiskThreshold:
		return models.RiskLevelElevated
	default:
		return models.RiskLevelLow
	}
}

func scoreSafetyRating(rating string, reasons, actions *[]string) int {
	switch rating {
	case models.SafetyRatingUnsatisfactory:
		*reasons = append(*reasons, "安全评级为不合格(Unsatisfactory)")
		*actions = append(*actions, "立即复核该承运商的运营资质")
		return 40
	case models.SafetyRatingConditional:
		*reasons = append(*reasons, "安全评级为有条件合格(Conditional)")
		*actions = append(*actions, "关注整改进度，限期复查")
		return 20
	case models.SafetyRatingSatisfactory:
		return 0
	default:
		// 未评级与未知评级同等处理
		*reasons = append(*reasons, "无有效安全评级")
		return 10
	}
}

func scoreVehicleOOS(rate *float64, reasons, actions *[]string) int {
	if rate == nil || *rate <= VehicleOOSThreshold {
		return 0
	}
	*reasons = append(*reasons, fmt.Sprintf("车辆停运率%.2f%%，超过行业阈值%.0f%%", *rate, VehicleOOSThreshold))
	*actions = append(*actions, "核查车辆维护与年检记录")
	if *rate > 2*VehicleOOSThreshold {
		return 25
	}
	return 15
}

func scoreDriverOOS(rate *float64, reasons, actions *[]string) int {
	if rate == nil || *rate <= DriverOOSThreshold {
		return 0
	}
	*reasons = append(*reasons, fmt.Sprintf("驾驶员停运率%.2f%%，超过行业阈值%.0f%%", *rate, DriverOOSThreshold))
	*actions = append(*actions, "核查驾驶员资格与工时合规情况")
	if *rate > 2*DriverOOSThreshold {
		return 20
	}
	return 10
}

func scoreHazmatOOS(rate *float64, reasons, actions *[]string) int {
	if rate == nil || *rate <= 0 {
		return 0
	}
	if *rate > HazmatOOSThreshold {
		*reasons = append(*reasons, fmt.Sprintf("危险品停运率%.2f%%，超过行业阈值%.0f%%", *rate, HazmatOOSThreshold))
		*actions = append(*actions, "核查危险品运输许可与操作规范")
		return 15
	}
	if *rate > HazmatOOSThreshold/2 {
		return 8
	}
	return 0
}
