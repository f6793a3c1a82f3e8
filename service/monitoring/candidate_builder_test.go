/*
 * @module service/monitoring/candidate_builder_test
 * @description 变化检测单元测试：等级跃升、分数上涨、停运率尖峰、资质变化、新增检查
 * @architecture 测试层 - 纯函数测试
 * @refs candidate_builder.go
 */

package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrierwatch-service/service/models"
)

func rate(v float64) *float64 { return &v }

func snapshotWith(level string, score int, inputs models.JSONB) *models.RiskSnapshot {
	return &models.RiskSnapshot{
		DOTNumber:    "123456",
		SnapshotDate: "2026-09-01",
		RiskLevel:    level,
		RiskScore:    score,
		Inputs:       inputs,
	}
}

func stableInputs() models.JSONB {
	return models.JSONB{
		"operatingStatus":  "authorized",
		"vehicleOosRate":   8.0,
		"totalInspections": 50,
	}
}

func stableProfile() *models.CarrierProfile {
	return &models.CarrierProfile{
		DOTNumber:        "123456",
		OperatingStatus:  "authorized",
		VehicleOOSRate:   rate(8.0),
		TotalInspections: 50,
	}
}

func TestBuildChangeCandidates_NoPreviousSnapshot(t *testing.T) {
	current := snapshotWith(models.RiskLevelHigh, 80, stableInputs())

	candidates := BuildChangeCandidates(stableProfile(), current, nil)

	assert.Empty(t, candidates)
}

func TestBuildChangeCandidates_NoChange(t *testing.T) {
	previous := snapshotWith(models.RiskLevelLow, 10, stableInputs())
	current := snapshotWith(models.RiskLevelLow, 10, stableInputs())

	candidates := BuildChangeCandidates(stableProfile(), current, previous)

	assert.Empty(t, candidates)
}

func TestBuildChangeCandidates_LevelEscalation(t *testing.T) {
	previous := snapshotWith(models.RiskLevelLow, 20, stableInputs())
	current := snapshotWith(models.RiskLevelElevated, 35, stableInputs())

	candidates := BuildChangeCandidates(stableProfile(), current, previous)

	require.Len(t, candidates, 1)
	assert.Equal(t, models.AlertTypeRiskIncrease, candidates[0].AlertType)
	assert.Equal(t, "level_change", candidates[0].DiffKey)
	assert.Contains(t, candidates[0].Summary, "low")
	assert.Contains(t, candidates[0].Summary, "elevated")
}

func TestBuildChangeCandidates_ScoreJumpWithinLevel(t *testing.T) {
	previous := snapshotWith(models.RiskLevelLow, 10, stableInputs())
	current := snapshotWith(models.RiskLevelLow, 20, stableInputs())

	candidates := BuildChangeCandidates(stableProfile(), current, previous)

	require.Len(t, candidates, 1)
	assert.Equal(t, models.AlertTypeRiskIncrease, candidates[0].AlertType)
	assert.Equal(t, "score_jump", candidates[0].DiffKey)

	// 涨幅不足阈值不触发
	current = snapshotWith(models.RiskLevelLow, 19, stableInputs())
	assert.Empty(t, BuildChangeCandidates(stableProfile(), current, previous))
}

func TestBuildChangeCandidates_RiskDecreaseIsSilent(t *testing.T) {
	previous := snapshotWith(models.RiskLevelHigh, 70, stableInputs())
	current := snapshotWith(models.RiskLevelLow, 10, stableInputs())

	candidates := BuildChangeCandidates(stableProfile(), current, previous)

	assert.Empty(t, candidates)
}

func TestBuildChangeCandidates_VehicleOOSSpike(t *testing.T) {
	previous := snapshotWith(models.RiskLevelElevated, 35, stableInputs())
	current := snapshotWith(models.RiskLevelElevated, 35, stableInputs())

	profile := stableProfile()
	profile.VehicleOOSRate = rate(25.0)

	candidates := BuildChangeCandidates(profile, current, previous)

	require.Len(t, candidates, 1)
	assert.Equal(t, models.AlertTypeOOSSpike, candidates[0].AlertType)
	assert.Equal(t, "vehicle_oos", candidates[0].DiffKey)
}

func TestBuildChangeCandidates_SustainedHighOOSIsNotSpike(t *testing.T) {
	// 前一快照已在尖峰水平之上，持续高位不算新尖峰
	inputs := stableInputs()
	inputs["vehicleOosRate"] = 30.0
	previous := snapshotWith(models.RiskLevelElevated, 35, inputs)
	current := snapshotWith(models.RiskLevelElevated, 35, inputs)

	profile := stableProfile()
	profile.VehicleOOSRate = rate(28.0)

	candidates := BuildChangeCandidates(profile, current, previous)

	assert.Empty(t, candidates)
}

func TestBuildChangeCandidates_SpikeFromMissingData(t *testing.T) {
	// 前一快照无停运率数据，当前突破尖峰水平也视为尖峰
	inputs := stableInputs()
	delete(inputs, "vehicleOosRate")
	previous := snapshotWith(models.RiskLevelLow, 10, inputs)
	current := snapshotWith(models.RiskLevelLow, 10, inputs)

	profile := stableProfile()
	profile.VehicleOOSRate = rate(21.0)

	candidates := BuildChangeCandidates(profile, current, previous)

	require.Len(t, candidates, 1)
	assert.Equal(t, models.AlertTypeOOSSpike, candidates[0].AlertType)
}

func TestBuildChangeCandidates_OperatingStatusChange(t *testing.T) {
	previous := snapshotWith(models.RiskLevelLow, 10, stableInputs())
	current := snapshotWith(models.RiskLevelLow, 10, stableInputs())

	profile := stableProfile()
	profile.OperatingStatus = "not_authorized"

	candidates := BuildChangeCandidates(profile, current, previous)

	require.Len(t, candidates, 1)
	assert.Equal(t, models.AlertTypeViolation, candidates[0].AlertType)
	assert.Equal(t, "status_change", candidates[0].DiffKey)
}

func TestBuildChangeCandidates_NewInspections(t *testing.T) {
	previous := snapshotWith(models.RiskLevelLow, 10, stableInputs())
	current := snapshotWith(models.RiskLevelLow, 10, stableInputs())

	profile := stableProfile()
	profile.TotalInspections = 55

	candidates := BuildChangeCandidates(profile, current, previous)

	require.Len(t, candidates, 1)
	assert.Equal(t, models.AlertTypeInspection, candidates[0].AlertType)
	assert.Equal(t, "insp_count_55", candidates[0].DiffKey)
	assert.Contains(t, candidates[0].Summary, "新增5条")
}

func TestBuildChangeCandidates_MultipleChangesStack(t *testing.T) {
	previous := snapshotWith(models.RiskLevelLow, 10, stableInputs())
	current := snapshotWith(models.RiskLevelHigh, 75, stableInputs())

	profile := stableProfile()
	profile.VehicleOOSRate = rate(30.0)
	profile.OperatingStatus = "not_authorized"
	profile.TotalInspections = 60

	candidates := BuildChangeCandidates(profile, current, previous)

	require.Len(t, candidates, 4)
	types := make([]string, 0, len(candidates))
	for _, c := range candidates {
		types = append(types, c.AlertType)
	}
	assert.Contains(t, types, models.AlertTypeRiskIncrease)
	assert.Contains(t, types, models.AlertTypeOOSSpike)
	assert.Contains(t, types, models.AlertTypeViolation)
	assert.Contains(t, types, models.AlertTypeInspection)
}
