/*
 * @module service/fmcsa/normalizer
 * @description 承运商记录归一化器，将上游JSON载荷或历史XML快照转换为规范档案字段
 * @architecture 数据转换层 - 非信任外部结构到内部规范模型的唯一边界
 * @documentReference dev_docs/carrier_pipeline.md
 * @stateFlow 原始载荷 -> 字段提取 -> 停运率派生 -> 规范档案
 * @rules 停运率在检查数为0或字段缺失时为nil而非0；日期解析失败归一化为nil而非报错
 * @dependencies encoding/xml, math, github.com/spf13/cast
 * @refs client.go, service/carrier/profile_service.go
 */

package fmcsa

import (
	"encoding/xml"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"

	"carrierwatch-service/service/models"
)

// NormalizedCarrier 规范化后的承运商档案字段
type NormalizedCarrier struct {
	DOTNumber       string
	LegalName       string
	DBAName         string
	PhysicalAddress string
	MailingAddress  string
	Phone           string
	OperatingStatus string

	SafetyRating     string
	SafetyRatingDate *time.Time

	VehicleOOSRate *float64
	DriverOOSRate  *float64
	HazmatOOSRate  *float64

	TotalInspections int
	TotalVehicles    int
	TotalDrivers     int
}

// ParseError 快照解析错误
type ParseError struct {
	Kind  string // missing-required-field, malformed-document
	Field string
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("快照解析失败 (%s): 字段 %s", e.Kind, e.Field)
	}
	return fmt.Sprintf("快照解析失败 (%s)", e.Kind)
}

// CarrierSnapshot 历史XML快照结构，按标签名提取
type CarrierSnapshot struct {
	DOTNumber        string `xml:"dotNumber"`
	LegalName        string `xml:"legalName"`
	DBAName          string `xml:"dbaName"`
	PhysicalAddress  string `xml:"physicalAddress"`
	MailingAddress   string `xml:"mailingAddress"`
	Phone            string `xml:"telephone"`
	OperatingStatus  string `xml:"operatingStatus"`
	SafetyRating     string `xml:"safetyRating"`
	SafetyRatingDate string `xml:"safetyRatingDate"`
	VehicleInsp      string `xml:"vehicleInsp"`
	VehicleOOSInsp   string `xml:"vehicleOosInsp"`
	DriverInsp       string `xml:"driverInsp"`
	DriverOOSInsp    string `xml:"driverOosInsp"`
	HazmatInsp       string `xml:"hazmatInsp"`
	HazmatOOSInsp    string `xml:"hazmatOosInsp"`
	TotalDrivers     string `xml:"totalDrivers"`
	TotalPowerUnits  string `xml:"totalPowerUnits"`
}

// Normalize 将上游原始载荷转换为规范档案字段
// 这是唯一允许读取非信任外部结构的边界
func Normalize(raw CarrierRaw) *NormalizedCarrier {
	n := &NormalizedCarrier{
		DOTNumber: cast.ToString(raw["dotNumber"]),
		LegalName: cast.ToString(raw["legalName"]),
		DBAName:   cast.ToString(raw["dbaName"]),
		Phone:     cast.ToString(raw["telephone"]),
	}

	n.PhysicalAddress = joinAddress(
		cast.ToString(raw["phyStreet"]),
		cast.ToString(raw["phyCity"]),
		cast.ToString(raw["phyState"]),
		cast.ToString(raw["phyZipcode"]),
	)
	n.MailingAddress = joinAddress(
		cast.ToString(raw["mailingStreet"]),
		cast.ToString(raw["mailingCity"]),
		cast.ToString(raw["mailingState"]),
		cast.ToString(raw["mailingZipcode"]),
	)

	if cast.ToString(raw["allowedToOperate"]) == "Y" {
		n.OperatingStatus = "authorized"
	} else {
		n.OperatingStatus = "not_authorized"
	}

	n.SafetyRating = normalizeSafetyRating(cast.ToString(raw["safetyRating"]))
	n.SafetyRatingDate = parseDate(cast.ToString(raw["safetyRatingDate"]))

	vehicleInsp := optionalCount(raw, "vehicleInsp")
	driverInsp := optionalCount(raw, "driverInsp")
	hazmatInsp := optionalCount(raw, "hazmatInsp")

	n.VehicleOOSRate = deriveOOSRate(optionalCount(raw, "vehicleOosInsp"), vehicleInsp)
	n.DriverOOSRate = deriveOOSRate(optionalCount(raw, "driverOosInsp"), driverInsp)
	n.HazmatOOSRate = deriveOOSRate(optionalCount(raw, "hazmatOosInsp"), hazmatInsp)

	if vehicleInsp != nil {
		n.TotalInspections += *vehicleInsp
	}
	if driverInsp != nil {
		n.TotalInspections += *driverInsp
	}
	n.TotalVehicles = cast.ToInt(raw["totalPowerUnits"])
	n.TotalDrivers = cast.ToInt(raw["totalDrivers"])

	return n
}

// ParseXMLSnapshot 解析历史XML快照，缺少DOT号标签为致命错误
func ParseXMLSnapshot(xmlText string) (*CarrierSnapshot, error) {
	var snapshot CarrierSnapshot
	if err := xml.Unmarshal([]byte(xmlText), &snapshot); err != nil {
		return nil, &ParseError{Kind: "malformed-document"}
	}

	if strings.TrimSpace(snapshot.DOTNumber) == "" {
		return nil, &ParseError{Kind: "missing-required-field", Field: "dotNumber"}
	}

	return &snapshot, nil
}

// NormalizeSnapshot 将XML快照转换为规范档案字段
func NormalizeSnapshot(snapshot *CarrierSnapshot) *NormalizedCarrier {
	raw := CarrierRaw{
		"dotNumber":        snapshot.DOTNumber,
		"legalName":        snapshot.LegalName,
		"dbaName":          snapshot.DBAName,
		"telephone":        snapshot.Phone,
		"safetyRating":     snapshot.SafetyRating,
		"safetyRatingDate": snapshot.SafetyRatingDate,
		"totalDrivers":     snapshot.TotalDrivers,
		"totalPowerUnits":  snapshot.TotalPowerUnits,
	}
	for key, value := range map[string]string{
		"vehicleInsp":    snapshot.VehicleInsp,
		"vehicleOosInsp": snapshot.VehicleOOSInsp,
		"driverInsp":     snapshot.DriverInsp,
		"driverOosInsp":  snapshot.DriverOOSInsp,
		"hazmatInsp":     snapshot.HazmatInsp,
		"hazmatOosInsp":  snapshot.HazmatOOSInsp,
	} {
		if strings.TrimSpace(value) != "" {
			raw[key] = value
		}
	}

	n := Normalize(raw)
	// XML快照的地址字段是整段文本，不走拼接
	n.PhysicalAddress = snapshot.PhysicalAddress
	n.MailingAddress = snapshot.MailingAddress
	if snapshot.OperatingStatus != "" {
		n.OperatingStatus = snapshot.OperatingStatus
	}
	return n
}

// deriveOOSRate 计算停运率：oos/total*100，保留两位小数
// 检查数为0或任一操作数缺失时返回nil，nil表示数据不足而非无风险
func deriveOOSRate(oosCount, totalInspections *int) *float64 {
	if oosCount == nil || totalInspections == nil || *totalInspections == 0 {
		return nil
	}
	rate := math.Round(float64(*oosCount)/float64(*totalInspections)*100*100) / 100
	return &rate
}

// optionalCount 提取可选的计数字段，缺失或不可转换时返回nil
func optionalCount(raw CarrierRaw, key string) *int {
	value, exists := raw[key]
	if !exists || value == nil {
		return nil
	}
	count, err := cast.ToIntE(value)
	if err != nil {
		return nil
	}
	return &count
}

// normalizeSafetyRating 上游评级代码映射到内部枚举
func normalizeSafetyRating(code string) string {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "S", "SATISFACTORY":
		return models.SafetyRatingSatisfactory
	case "C", "CONDITIONAL":
		return models.SafetyRatingConditional
	case "U", "UNSATISFACTORY":
		return models.SafetyRatingUnsatisfactory
	default:
		return models.SafetyRatingUnrated
	}
}

// parseDate 解析上游日期字符串，无法解析时返回nil
func parseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	layouts := []string{"2006-01-02", "01/02/2006", time.RFC3339}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

// joinAddress 拼接地址字段，跳过空段
func joinAddress(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, strings.TrimSpace(p))
		}
	}
	return strings.Join(nonEmpty, ", ")
}
