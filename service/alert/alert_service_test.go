/*
 * @module service/alert/alert_service_test
 * @description 告警服务集成测试：决策链落库、指纹去重、冷却抑制、升级、查询与确认
 * @architecture 测试层 - sqlite内存库
 * @refs alert_service.go
 */

package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrierwatch-service/service/models"
	"carrierwatch-service/testutil"
)

type capturingPublisher struct {
	published []*models.Alert
}

func (p *capturingPublisher) PublishAlert(alert *models.Alert) error {
	p.published = append(p.published, alert)
	return nil
}

func setupAlertService(t *testing.T) (*AlertService, *testutil.TestDB, *testutil.TestDataFactory, *capturingPublisher) {
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)
	publisher := &capturingPublisher{}
	return NewAlertService(tdb.DB, publisher), tdb, testutil.NewTestDataFactory(tdb.DB), publisher
}

func candidateFor(accountID string) Candidate {
	return Candidate{
		AccountID: accountID,
		DOTNumber: "123456",
		AlertType: models.AlertTypeRiskIncrease,
		Summary:   "风险等级从low上升到elevated",
		DiffKey:   "level_change",
	}
}

func TestProcessCandidate_CreatesAndPublishes(t *testing.T) {
	service, tdb, factory, publisher := setupAlertService(t)
	account := factory.CreateAccount()
	now := time.Now()

	created, outcome, err := service.ProcessCandidate(candidateFor(account.ID), now)

	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)
	require.NotNil(t, created)
	assert.Equal(t, models.SeverityWarning, created.Severity)
	assert.False(t, created.IsRead)
	assert.Equal(t, Fingerprint("123456", models.AlertTypeRiskIncrease, now, "level_change"), created.Fingerprint)

	var count int64
	tdb.DB.Model(&models.Alert{}).Count(&count)
	assert.Equal(t, int64(1), count)

	require.Len(t, publisher.published, 1)
	assert.Equal(t, created.ID, publisher.published[0].ID)
}

func TestProcessCandidate_DuplicateFingerprintCollapses(t *testing.T) {
	service, tdb, factory, publisher := setupAlertService(t)
	account := factory.CreateAccount()
	now := time.Now()

	first, outcome, err := service.ProcessCandidate(candidateFor(account.ID), now)
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, outcome)

	second, outcome, err := service.ProcessCandidate(candidateFor(account.ID), now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuppressedDedup, outcome)
	// 返回已存在的行而非新建
	assert.Equal(t, first.ID, second.ID)

	var count int64
	tdb.DB.Model(&models.Alert{}).Count(&count)
	assert.Equal(t, int64(1), count)
	assert.Len(t, publisher.published, 1)
}

func TestProcessCandidate_CooldownSuppresses(t *testing.T) {
	service, _, factory, publisher := setupAlertService(t)
	account := factory.CreateAccount()
	now := time.Now()

	factory.CreateAlert(account.ID, "123456", models.AlertTypeInspection,
		testutil.WithCreatedAt(now.Add(-10*24*time.Hour)))

	candidate := Candidate{
		AccountID: account.ID,
		DOTNumber: "123456",
		AlertType: models.AlertTypeInspection,
		Summary:   "发现新的检查记录",
		DiffKey:   "2026-08-28",
	}

	created, outcome, err := service.ProcessCandidate(candidate, now)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuppressedCooldown, outcome)
	assert.Nil(t, created)
	assert.Empty(t, publisher.published)
}

func TestProcessCandidate_CooldownExpiredCreates(t *testing.T) {
	service, _, factory, _ := setupAlertService(t)
	account := factory.CreateAccount()
	now := time.Now()

	factory.CreateAlert(account.ID, "123456", models.AlertTypeInspection,
		testutil.WithCreatedAt(now.Add(-31*24*time.Hour)))

	candidate := Candidate{
		AccountID: account.ID,
		DOTNumber: "123456",
		AlertType: models.AlertTypeInspection,
		Summary:   "发现新的检查记录",
		DiffKey:   "2026-08-28",
	}

	_, outcome, err := service.ProcessCandidate(candidate, now)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)
}

func TestProcessCandidate_EscalatesSeverity(t *testing.T) {
	service, _, factory, _ := setupAlertService(t)
	account := factory.CreateAccount()
	now := time.Now()

	// 14天窗口内已有2条告警，新的warning升级为critical
	factory.CreateAlert(account.ID, "123456", models.AlertTypeOOSSpike,
		testutil.WithCreatedAt(now.Add(-2*24*time.Hour)))
	factory.CreateAlert(account.ID, "123456", models.AlertTypeOOSSpike,
		testutil.WithCreatedAt(now.Add(-5*24*time.Hour)))

	created, outcome, err := service.ProcessCandidate(candidateFor(account.ID), now)

	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, outcome)
	assert.Equal(t, models.SeverityCritical, created.Severity)
}

func TestProcessCandidate_WindowOutsideAlertsDoNotEscalate(t *testing.T) {
	service, _, factory, _ := setupAlertService(t)
	account := factory.CreateAccount()
	now := time.Now()

	// 窗口外的历史告警不参与升级
	factory.CreateAlert(account.ID, "123456", models.AlertTypeOOSSpike,
		testutil.WithCreatedAt(now.Add(-20*24*time.Hour)))
	factory.CreateAlert(account.ID, "123456", models.AlertTypeOOSSpike,
		testutil.WithCreatedAt(now.Add(-25*24*time.Hour)))

	created, _, err := service.ProcessCandidate(candidateFor(account.ID), now)

	require.NoError(t, err)
	assert.Equal(t, models.SeverityWarning, created.Severity)
}

func TestListAlerts(t *testing.T) {
	service, tdb, factory, _ := setupAlertService(t)
	account := factory.CreateAccount()
	other := factory.CreateAccount()
	now := time.Now()

	a1 := factory.CreateAlert(account.ID, "123456", models.AlertTypeRiskIncrease,
		testutil.WithCreatedAt(now.Add(-2*time.Hour)))
	a2 := factory.CreateAlert(account.ID, "234567", models.AlertTypeOOSSpike,
		testutil.WithCreatedAt(now.Add(-1*time.Hour)))
	factory.CreateAlert(other.ID, "345678", models.AlertTypeInspection)

	require.NoError(t, tdb.DB.Model(a1).Update("is_read", true).Error)

	all, err := service.ListAlerts(account.ID, false, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	// 按创建时间倒序
	assert.Equal(t, a2.ID, all[0].ID)

	unread, err := service.ListAlerts(account.ID, true, 0)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, a2.ID, unread[0].ID)
}

func TestAcknowledgeAlert(t *testing.T) {
	service, tdb, factory, _ := setupAlertService(t)
	account := factory.CreateAccount()
	other := factory.CreateAccount()
	created := factory.CreateAlert(account.ID, "123456", models.AlertTypeRiskIncrease)

	acked, err := service.AcknowledgeAlert(account.ID, created.ID)
	require.NoError(t, err)
	assert.True(t, acked.IsRead)

	var stored models.Alert
	require.NoError(t, tdb.DB.First(&stored, "id = ?", created.ID).Error)
	assert.True(t, stored.IsRead)

	// 跨账户访问视为不存在
	_, err = service.AcknowledgeAlert(other.ID, created.ID)
	assert.Error(t, err)
}
