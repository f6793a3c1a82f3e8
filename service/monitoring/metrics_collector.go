/*
 * @module service/monitoring/metrics_collector
 * @description 监控周期Prometheus指标收集器：周期计数、承运商处理结果、告警产出与抑制
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/carrier_pipeline.md
 * @stateFlow 周期执行 -> 指标递增 -> /metrics端点暴露
 * @rules 抑制（冷却/去重）与失败分开计数，便于区分no-op和故障
 * @dependencies github.com/prometheus/client_golang
 * @refs monitor_service.go, main.go
 */

package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector 监控周期指标收集器
type MetricsCollector struct {
	cyclesTotal       *prometheus.CounterVec
	cycleDuration     prometheus.Histogram
	carriersProcessed *prometheus.CounterVec
	profileFetches    *prometheus.CounterVec
	alertsCreated     *prometheus.CounterVec
	alertsSuppressed  *prometheus.CounterVec
}

// NewMetricsCollector 在默认registry注册并返回指标收集器
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry 在指定registry注册，测试用独立registry避免重复注册
func NewMetricsCollectorWithRegistry(reg prometheus.Registerer) *MetricsCollector {
	factory := promauto.With(reg)
	return &MetricsCollector{
		cyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carrierwatch_monitoring_cycles_total",
			Help: "监控周期执行总数，按结果状态分类",
		}, []string{"status"}),
		cycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "carrierwatch_monitoring_cycle_duration_seconds",
			Help:    "监控周期耗时",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		carriersProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carrierwatch_carriers_processed_total",
			Help: "已处理承运商总数，按结果分类",
		}, []string{"result"}),
		profileFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carrierwatch_profile_fetches_total",
			Help: "档案获取总数，按数据来源分类",
		}, []string{"source"}),
		alertsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carrierwatch_alerts_created_total",
			Help: "已创建告警总数，按严重级别分类",
		}, []string{"severity"}),
		alertsSuppressed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carrierwatch_alerts_suppressed_total",
			Help: "被抑制告警总数，按抑制原因分类",
		}, []string{"reason"}),
	}
}

func (m *MetricsCollector) RecordCycle(status string, durationSeconds float64) {
	m.cyclesTotal.WithLabelValues(status).Inc()
	m.cycleDuration.Observe(durationSeconds)
}

func (m *MetricsCollector) RecordCarrierResult(result string) {
	m.carriersProcessed.WithLabelValues(result).Inc()
}

func (m *MetricsCollector) RecordProfileFetch(source string) {
	m.profileFetches.WithLabelValues(source).Inc()
}

func (m *MetricsCollector) RecordAlertCreated(severity string) {
	m.alertsCreated.WithLabelValues(severity).Inc()
}

func (m *MetricsCollector) RecordAlertSuppressed(reason string) {
	m.alertsSuppressed.WithLabelValues(reason).Inc()
}
