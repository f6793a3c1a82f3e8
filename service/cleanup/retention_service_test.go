/*
 * @module service/cleanup/retention_service_test
 * @description 数据保留服务单元测试，覆盖已读预警与历史快照的清理边界
 * @architecture 测试层
 * @documentReference dev_docs/carrier_pipeline.md
 * @stateFlow 测试数据准备 -> 执行清理 -> 剩余数据验证
 * @rules 未读预警永不删除
 * @dependencies testing, stretchr/testify, testutil
 */

package cleanup

import (
	"context"
	"testing"
	"time"

	"carrierwatch-service/service/config"
	"carrierwatch-service/service/models"
	"carrierwatch-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (*RetentionService, *testutil.TestDataFactory, *testutil.TestDB) {
	t.Helper()
	testDB := testutil.NewTestDB()
	t.Cleanup(testDB.Close)

	svc := NewRetentionService(testDB.DB, config.NewConfigService(testDB.DB))
	return svc, testutil.NewTestDataFactory(testDB.DB), testDB
}

func TestCleanupReadAlertsRemovesOnlyExpiredRead(t *testing.T) {
	svc, factory, testDB := setupService(t)

	old := time.Now().AddDate(0, 0, -100)
	recent := time.Now().AddDate(0, 0, -10)

	expired := factory.CreateAlert("acc-1", "123456", models.AlertTypeRiskIncrease,
		testutil.WithRead(), testutil.WithCreatedAt(old))
	// 已读但未过期
	factory.CreateAlert("acc-1", "123456", models.AlertTypeInspection,
		testutil.WithRead(), testutil.WithCreatedAt(recent))
	// 过期但未读，必须保留
	unread := factory.CreateAlert("acc-1", "123456", models.AlertTypeOOSSpike,
		testutil.WithCreatedAt(old))

	deleted, err := svc.CleanupReadAlerts(context.Background(), 90)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []models.Alert
	require.NoError(t, testDB.DB.Find(&remaining).Error)
	assert.Len(t, remaining, 2)
	for _, a := range remaining {
		assert.NotEqual(t, expired.ID, a.ID)
	}

	var keptUnread models.Alert
	require.NoError(t, testDB.DB.First(&keptUnread, "id = ?", unread.ID).Error)
	assert.False(t, keptUnread.IsRead)
}

func TestCleanupOldSnapshots(t *testing.T) {
	svc, factory, testDB := setupService(t)

	oldDate := time.Now().UTC().AddDate(0, 0, -400).Format("2006-01-02")
	recentDate := time.Now().UTC().AddDate(0, 0, -30).Format("2006-01-02")

	factory.CreateRiskSnapshot("123456", oldDate)
	kept := factory.CreateRiskSnapshot("123456", recentDate)

	deleted, err := svc.CleanupOldSnapshots(context.Background(), 365)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []models.RiskSnapshot
	require.NoError(t, testDB.DB.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, kept.ID, remaining[0].ID)
}

func TestCleanupExpiredDataUsesConfiguredRetention(t *testing.T) {
	svc, factory, testDB := setupService(t)

	cfg := config.NewConfigService(testDB.DB)
	require.NoError(t, cfg.SetConfig(config.ConfigKeyAlertRetentionDays, "30", ""))

	factory.CreateAlert("acc-1", "123456", models.AlertTypeRiskIncrease,
		testutil.WithRead(), testutil.WithCreatedAt(time.Now().AddDate(0, 0, -45)))

	require.NoError(t, svc.CleanupExpiredData(context.Background()))

	var count int64
	testDB.DB.Model(&models.Alert{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestStartScheduledCleanupTwice(t *testing.T) {
	svc, _, _ := setupService(t)

	require.NoError(t, svc.StartScheduledCleanup())
	defer svc.StopScheduledCleanup()

	assert.Error(t, svc.StartScheduledCleanup())
}
