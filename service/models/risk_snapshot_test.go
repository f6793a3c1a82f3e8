/*
 * @module service/models/risk_snapshot_test
 * @description 风险快照模型单元测试，覆盖唯一约束与历史查询
 * @architecture 测试层
 * @documentReference dev_docs/carrier_pipeline.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 使用内存数据库隔离测试
 * @dependencies testing, stretchr/testify
 */

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskSnapshotUniquePerDay(t *testing.T) {
	testDB := NewModelTestDB()
	defer testDB.Close()
	factory := NewModelTestDataFactory(testDB.DB)

	factory.CreateRiskSnapshot("123456", "2026-08-30", "low", 10)

	dup := &RiskSnapshot{
		DOTNumber:    "123456",
		SnapshotDate: "2026-08-30",
		RiskLevel:    "high",
		RiskScore:    80,
	}
	assert.Error(t, testDB.DB.Create(dup).Error)

	// 不同日期的同一承运商可以有多条
	factory.CreateRiskSnapshot("123456", "2026-08-31", "elevated", 35)

	var count int64
	testDB.DB.Model(&RiskSnapshot{}).Where("dot_number = ?", "123456").Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestGetLatestSnapshotBefore(t *testing.T) {
	testDB := NewModelTestDB()
	defer testDB.Close()
	factory := NewModelTestDataFactory(testDB.DB)

	factory.CreateRiskSnapshot("123456", "2026-08-28", "low", 5)
	expected := factory.CreateRiskSnapshot("123456", "2026-08-30", "elevated", 35)
	factory.CreateRiskSnapshot("123456", "2026-08-31", "high", 70)

	snapshot, err := GetLatestSnapshotBefore(testDB.DB, "123456", "2026-08-31")
	require.NoError(t, err)
	assert.Equal(t, expected.ID, snapshot.ID)
	assert.Equal(t, "2026-08-30", snapshot.SnapshotDate)

	// 没有更早的快照
	_, err = GetLatestSnapshotBefore(testDB.DB, "123456", "2026-08-28")
	assert.Error(t, err)
}

func TestGetRecentSnapshotsOrderAndLimit(t *testing.T) {
	testDB := NewModelTestDB()
	defer testDB.Close()
	factory := NewModelTestDataFactory(testDB.DB)

	factory.CreateRiskSnapshot("123456", "2026-08-28", "low", 5)
	factory.CreateRiskSnapshot("123456", "2026-08-29", "low", 10)
	factory.CreateRiskSnapshot("123456", "2026-08-30", "elevated", 35)
	factory.CreateRiskSnapshot("999999", "2026-08-30", "high", 70)

	snapshots, err := GetRecentSnapshots(testDB.DB, "123456", 2)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, "2026-08-30", snapshots[0].SnapshotDate)
	assert.Equal(t, "2026-08-29", snapshots[1].SnapshotDate)

	// 非法limit回退默认值
	snapshots, err = GetRecentSnapshots(testDB.DB, "123456", 0)
	require.NoError(t, err)
	assert.Len(t, snapshots, 3)
}
