/*
 * @module service/models/carrier_test
 * @description 承运商模型单元测试，覆盖过期判断与监控关系查询
 * @architecture 测试层
 * @documentReference dev_docs/carrier_pipeline.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 使用内存数据库隔离测试
 * @dependencies testing, stretchr/testify
 */

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCarrierProfileIsStale(t *testing.T) {
	now := time.Now()
	ttl := 12 * time.Hour

	fresh := now.Add(-11 * time.Hour)
	profile := &CarrierProfile{LastFetchedAt: &fresh}
	assert.False(t, profile.IsStale(ttl, now))

	stale := now.Add(-13 * time.Hour)
	profile.LastFetchedAt = &stale
	assert.True(t, profile.IsStale(ttl, now))

	// 恰好到达TTL视为过期
	boundary := now.Add(-12 * time.Hour)
	profile.LastFetchedAt = &boundary
	assert.True(t, profile.IsStale(ttl, now))

	// 从未成功抓取
	profile.LastFetchedAt = nil
	assert.True(t, profile.IsStale(ttl, now))
}

func TestCarrierProfileStalenessHours(t *testing.T) {
	now := time.Now()
	fetched := now.Add(-6 * time.Hour)

	profile := &CarrierProfile{LastFetchedAt: &fetched}
	assert.InDelta(t, 6.0, profile.StalenessHours(now), 0.01)

	profile.LastFetchedAt = nil
	assert.Equal(t, float64(-1), profile.StalenessHours(now))
}

func TestGetActiveMonitoredDOTNumbers(t *testing.T) {
	testDB := NewModelTestDB()
	defer testDB.Close()
	factory := NewModelTestDataFactory(testDB.DB)

	// 两个账户监控同一DOT号，结果去重
	factory.CreateMonitoredCarrier("acc-1", "111111", true)
	factory.CreateMonitoredCarrier("acc-2", "111111", true)
	factory.CreateMonitoredCarrier("acc-1", "222222", true)
	// 停用的监控不参与
	factory.CreateMonitoredCarrier("acc-1", "333333", false)

	dots, err := GetActiveMonitoredDOTNumbers(testDB.DB)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"111111", "222222"}, dots)
}

func TestGetMonitoringAccountIDs(t *testing.T) {
	testDB := NewModelTestDB()
	defer testDB.Close()
	factory := NewModelTestDataFactory(testDB.DB)

	factory.CreateMonitoredCarrier("acc-1", "111111", true)
	factory.CreateMonitoredCarrier("acc-2", "111111", true)
	factory.CreateMonitoredCarrier("acc-3", "111111", false)
	factory.CreateMonitoredCarrier("acc-4", "999999", true)

	accounts, err := GetMonitoringAccountIDs(testDB.DB, "111111")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"acc-1", "acc-2"}, accounts)
}

func TestCarrierProfileUniqueDOTNumber(t *testing.T) {
	testDB := NewModelTestDB()
	defer testDB.Close()
	factory := NewModelTestDataFactory(testDB.DB)

	factory.CreateCarrierProfile("123456")

	dup := &CarrierProfile{DOTNumber: "123456", LegalName: "重复档案"}
	err := testDB.DB.Create(dup).Error
	assert.Error(t, err)
}
