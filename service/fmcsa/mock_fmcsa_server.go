/*
 * @module service/fmcsa/mock_fmcsa_server
 * @description 模拟FMCSA QCMobile接口服务器，用于单元测试
 * @architecture 测试辅助工具 - HTTP服务器模拟
 * @documentReference dev_docs/carrier_pipeline.md
 * @stateFlow 启动服务器 -> 校验webKey -> 按DOT号返回承运商/404/429/500
 * @rules 模拟真实FMCSA接口的响应包络和状态码行为
 * @dependencies net/http, net/http/httptest, encoding/json
 * @refs client_test.go
 */

package fmcsa

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// MockFMCSAServer 模拟FMCSA服务器
type MockFMCSAServer struct {
	server   *httptest.Server
	mu       sync.RWMutex
	webKey   string
	carriers map[string]map[string]interface{} // dotNumber -> carrier载荷

	rateLimited  bool // 为true时所有请求返回429
	upstreamDown bool // 为true时所有请求返回500

	requestCount int
}

// NewMockFMCSAServer 创建并启动模拟服务器
func NewMockFMCSAServer(webKey string) *MockFMCSAServer {
	m := &MockFMCSAServer{
		webKey:   webKey,
		carriers: make(map[string]map[string]interface{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/carriers/", m.handleCarrier)
	m.server = httptest.NewServer(mux)

	return m
}

// URL 返回服务器地址
func (m *MockFMCSAServer) URL() string {
	return m.server.URL
}

// Close 关闭服务器
func (m *MockFMCSAServer) Close() {
	m.server.Close()
}

// AddCarrier 注册一个承运商载荷
func (m *MockFMCSAServer) AddCarrier(dotNumber string, carrier map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carriers[dotNumber] = carrier
}

// SetRateLimited 切换限流模拟
func (m *MockFMCSAServer) SetRateLimited(limited bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimited = limited
}

// SetUpstreamDown 切换上游故障模拟
func (m *MockFMCSAServer) SetUpstreamDown(down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upstreamDown = down
}

// RequestCount 已处理的请求数
func (m *MockFMCSAServer) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

func (m *MockFMCSAServer) handleCarrier(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requestCount++
	rateLimited := m.rateLimited
	upstreamDown := m.upstreamDown
	m.mu.Unlock()

	if r.URL.Query().Get("webKey") != m.webKey {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if rateLimited {
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}
	if upstreamDown {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	dotNumber := strings.TrimPrefix(r.URL.Path, "/carriers/")

	m.mu.RLock()
	carrier, exists := m.carriers[dotNumber]
	m.mu.RUnlock()

	if !exists {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"content": map[string]interface{}{
			"carrier": carrier,
		},
	})
}

// SampleCarrierPayload 构造一个典型的承运商载荷（测试用）
func SampleCarrierPayload(dotNumber string) map[string]interface{} {
	return map[string]interface{}{
		"dotNumber":        dotNumber,
		"legalName":        "INTERSTATE HAULING CO",
		"dbaName":          "IHC TRUCKING",
		"phyStreet":        "42 DEPOT RD",
		"phyCity":          "AKRON",
		"phyState":         "OH",
		"phyZipcode":       "44301",
		"mailingStreet":    "42 DEPOT RD",
		"mailingCity":      "AKRON",
		"mailingState":     "OH",
		"mailingZipcode":   "44301",
		"telephone":        "(330) 555-0188",
		"allowedToOperate": "Y",
		"safetyRating":     "S",
		"safetyRatingDate": "2025-03-18",
		"vehicleInsp":      40,
		"vehicleOosInsp":   4,
		"driverInsp":       60,
		"driverOosInsp":    3,
		"hazmatInsp":       10,
		"hazmatOosInsp":    1,
		"totalDrivers":     55,
		"totalPowerUnits":  48,
	}
}
