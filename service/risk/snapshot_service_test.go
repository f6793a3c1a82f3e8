/*
 * @module service/risk/snapshot_service_test
 * @description 风险快照服务测试，覆盖同日幂等覆盖与档案缺失错误
 * @architecture 测试层 - sqlite内存库
 * @refs snapshot_service.go
 */

package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrierwatch-service/service/models"
	"carrierwatch-service/testutil"
)

func setupSnapshotService(t *testing.T) (*SnapshotService, *testutil.TestDB, *testutil.TestDataFactory) {
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)
	return NewSnapshotService(tdb.DB), tdb, testutil.NewTestDataFactory(tdb.DB)
}

func TestAssessAndRecord_StoresSnapshot(t *testing.T) {
	service, tdb, factory := setupSnapshotService(t)
	factory.CreateCarrierProfile("123456",
		testutil.WithSafetyRating(models.SafetyRatingConditional),
		testutil.WithVehicleOOSRate(15.0))

	assessment, snapshot, err := service.AssessAndRecord("123456")

	require.NoError(t, err)
	assert.Equal(t, 35, assessment.RiskScore) // 20 + 15
	assert.Equal(t, models.RiskLevelElevated, assessment.RiskLevel)
	assert.Equal(t, SnapshotDateFor(time.Now()), snapshot.SnapshotDate)
	assert.NotEmpty(t, snapshot.ID)
	assert.Equal(t, "conditional", snapshot.Inputs["safetyRating"])

	var count int64
	tdb.DB.Model(&models.RiskSnapshot{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAssessAndRecord_SameDayOverwrites(t *testing.T) {
	service, tdb, factory := setupSnapshotService(t)
	profile := factory.CreateCarrierProfile("123456",
		testutil.WithSafetyRating(models.SafetyRatingSatisfactory))

	_, first, err := service.AssessAndRecord("123456")
	require.NoError(t, err)
	assert.Equal(t, 0, first.RiskScore)

	// 源数据当日更新后重新评估，覆盖当日快照
	require.NoError(t, tdb.DB.Model(profile).
		Update("safety_rating", models.SafetyRatingUnsatisfactory).Error)

	_, second, err := service.AssessAndRecord("123456")
	require.NoError(t, err)
	assert.Equal(t, 40, second.RiskScore)
	assert.Equal(t, first.SnapshotDate, second.SnapshotDate)

	var count int64
	tdb.DB.Model(&models.RiskSnapshot{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAssessAndRecord_NoProfileIsDistinctError(t *testing.T) {
	service, tdb, _ := setupSnapshotService(t)

	_, _, err := service.AssessAndRecord("999999")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoProfile)

	var count int64
	tdb.DB.Model(&models.RiskSnapshot{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestRecordAssessment_DistinctDaysKeepDistinctRows(t *testing.T) {
	service, tdb, factory := setupSnapshotService(t)
	profile := factory.CreateCarrierProfile("123456")
	assessment := Score(profile)

	day1 := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	_, err := service.RecordAssessment("123456", assessment, profile, day1)
	require.NoError(t, err)
	_, err = service.RecordAssessment("123456", assessment, profile, day2)
	require.NoError(t, err)

	var count int64
	tdb.DB.Model(&models.RiskSnapshot{}).Count(&count)
	assert.Equal(t, int64(2), count)

	previous, err := models.GetLatestSnapshotBefore(tdb.DB, "123456", "2026-08-31")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-30", previous.SnapshotDate)
}
