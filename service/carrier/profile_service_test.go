/*
 * @module service/carrier/profile_service_test
 * @description 缓存提供方单元测试，覆盖新鲜度规则、幂等upsert和失败回退
 * @architecture 测试层 - sqlite内存库 + 模拟上游服务器
 * @documentReference dev_docs/carrier_pipeline.md
 * @refs profile_service.go
 */

package carrier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrierwatch-service/service/fmcsa"
	"carrierwatch-service/service/models"
	"carrierwatch-service/testutil"
)

func setupService(t *testing.T) (*ProfileService, *testutil.TestDB, *fmcsa.MockFMCSAServer) {
	tdb := testutil.NewTestDB()
	server := fmcsa.NewMockFMCSAServer("test-webkey")
	t.Cleanup(func() {
		server.Close()
		tdb.Close()
	})

	client := fmcsa.NewClientWithConfig(server.URL(), "test-webkey", 5*time.Second)
	return NewProfileService(tdb.DB, client), tdb, server
}

func TestValidateDOTNumber(t *testing.T) {
	assert.NoError(t, ValidateDOTNumber("1"))
	assert.NoError(t, ValidateDOTNumber("12345678"))
	assert.Error(t, ValidateDOTNumber(""))
	assert.Error(t, ValidateDOTNumber("123456789"))
	assert.Error(t, ValidateDOTNumber("12a456"))
	assert.Error(t, ValidateDOTNumber("-1234"))
}

func TestFetchAndStore_FirstFetchStoresProfile(t *testing.T) {
	service, tdb, server := setupService(t)
	server.AddCarrier("123456", fmcsa.SampleCarrierPayload("123456"))

	result := service.FetchAndStore(context.Background(), "123456")

	require.True(t, result.OK())
	assert.Equal(t, SourceFMCSA, result.Source)
	require.NotNil(t, result.Profile)
	assert.Equal(t, "INTERSTATE HAULING CO", result.Profile.LegalName)
	require.NotNil(t, result.Profile.LastFetchedAt)
	// 原始载荷随档案保存，审计用
	assert.Equal(t, "123456", result.Profile.RawData["dotNumber"])

	var count int64
	tdb.DB.Model(&models.CarrierProfile{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestFetchAndStore_FreshCacheHit(t *testing.T) {
	service, tdb, server := setupService(t)
	factory := testutil.NewTestDataFactory(tdb.DB)

	// 11小时前抓取过，仍在12小时窗口内
	factory.CreateCarrierProfile("123456",
		testutil.WithLastFetchedAt(time.Now().Add(-11*time.Hour)))

	result := service.FetchAndStore(context.Background(), "123456")

	require.True(t, result.OK())
	assert.Equal(t, SourceCache, result.Source)
	assert.InDelta(t, 11.0, result.StalenessHours, 0.1)
	// 缓存命中不触发上游调用
	assert.Equal(t, 0, server.RequestCount())
}

func TestFetchAndStore_StaleCacheTriggersRefresh(t *testing.T) {
	service, tdb, server := setupService(t)
	factory := testutil.NewTestDataFactory(tdb.DB)
	server.AddCarrier("123456", fmcsa.SampleCarrierPayload("123456"))

	// 13小时前抓取，已过期
	factory.CreateCarrierProfile("123456",
		testutil.WithLastFetchedAt(time.Now().Add(-13*time.Hour)))

	result := service.FetchAndStore(context.Background(), "123456")

	require.True(t, result.OK())
	assert.Equal(t, SourceFMCSA, result.Source)
	assert.Equal(t, 1, server.RequestCount())
}

func TestFetchAndStore_NilLastFetchedAtAlwaysStale(t *testing.T) {
	service, tdb, server := setupService(t)
	server.AddCarrier("123456", fmcsa.SampleCarrierPayload("123456"))

	// 部分流程创建的行可能没有LastFetchedAt，必须视为过期
	profile := &models.CarrierProfile{DOTNumber: "123456", LegalName: "旧记录"}
	require.NoError(t, tdb.DB.Create(profile).Error)

	result := service.FetchAndStore(context.Background(), "123456")

	require.True(t, result.OK())
	assert.Equal(t, SourceFMCSA, result.Source)
	assert.Equal(t, 1, server.RequestCount())
}

func TestFetchAndStore_UpsertIsIdempotent(t *testing.T) {
	service, tdb, server := setupService(t)
	server.AddCarrier("123456", fmcsa.SampleCarrierPayload("123456"))

	first := service.FetchAndStore(context.Background(), "123456")
	require.True(t, first.OK())

	// 直接再次刷新（绕过TTL），应覆盖而非新增
	tdb.DB.Model(&models.CarrierProfile{}).
		Where("dot_number = ?", "123456").
		Update("last_fetched_at", time.Now().Add(-24*time.Hour))

	second := service.FetchAndStore(context.Background(), "123456")
	require.True(t, second.OK())

	var count int64
	tdb.DB.Model(&models.CarrierProfile{}).Count(&count)
	assert.Equal(t, int64(1), count)
	// 行的身份保持不变
	assert.Equal(t, first.Profile.ID, second.Profile.ID)
}

func TestFetchAndStore_UpstreamFailureReturnsStaleProfile(t *testing.T) {
	service, tdb, server := setupService(t)
	factory := testutil.NewTestDataFactory(tdb.DB)

	factory.CreateCarrierProfile("123456",
		testutil.WithLastFetchedAt(time.Now().Add(-20*time.Hour)))
	server.SetUpstreamDown(true)

	result := service.FetchAndStore(context.Background(), "123456")

	require.False(t, result.OK())
	assert.Equal(t, fmcsa.ErrCodeUpstream, result.Failure.Code)
	// 过期行仍然可用，回退决策交给调用方
	require.NotNil(t, result.StaleProfile)
	assert.Equal(t, "123456", result.StaleProfile.DOTNumber)
	// 失败不得污染已存储的数据
	var profile models.CarrierProfile
	require.NoError(t, tdb.DB.Where("dot_number = ?", "123456").First(&profile).Error)
	assert.Equal(t, "测试承运商 123456", profile.LegalName)
}

func TestFetchAndStore_NotFoundWithoutCache(t *testing.T) {
	service, _, _ := setupService(t)

	result := service.FetchAndStore(context.Background(), "654321")

	require.False(t, result.OK())
	assert.Equal(t, fmcsa.ErrCodeNotFound, result.Failure.Code)
	assert.Nil(t, result.StaleProfile)
}

func TestFetchAndStore_RateLimitedSurfacesTypedFailure(t *testing.T) {
	service, _, server := setupService(t)
	server.AddCarrier("123456", fmcsa.SampleCarrierPayload("123456"))
	server.SetRateLimited(true)

	result := service.FetchAndStore(context.Background(), "123456")

	require.False(t, result.OK())
	assert.Equal(t, fmcsa.ErrCodeRateLimited, result.Failure.Code)
	assert.Equal(t, 429, result.Failure.StatusCode)
	assert.NotEmpty(t, result.Failure.Message)
}
