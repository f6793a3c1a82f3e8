/*
 * @module service/fmcsa/normalizer_test
 * @description 归一化器单元测试，覆盖停运率派生、日期解析和XML快照解析
 * @architecture 测试层
 * @documentReference dev_docs/carrier_pipeline.md
 */

package fmcsa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrierwatch-service/service/models"
)

func TestNormalize_Basic(t *testing.T) {
	raw := CarrierRaw(SampleCarrierPayload("123456"))

	n := Normalize(raw)

	assert.Equal(t, "123456", n.DOTNumber)
	assert.Equal(t, "INTERSTATE HAULING CO", n.LegalName)
	assert.Equal(t, "IHC TRUCKING", n.DBAName)
	assert.Equal(t, "42 DEPOT RD, AKRON, OH, 44301", n.PhysicalAddress)
	assert.Equal(t, "authorized", n.OperatingStatus)
	assert.Equal(t, models.SafetyRatingSatisfactory, n.SafetyRating)
	require.NotNil(t, n.SafetyRatingDate)
	assert.Equal(t, 2025, n.SafetyRatingDate.Year())
	assert.Equal(t, 100, n.TotalInspections) // 40车辆检查 + 60驾驶员检查
	assert.Equal(t, 48, n.TotalVehicles)
	assert.Equal(t, 55, n.TotalDrivers)
}

func TestNormalize_OOSRateDerivation(t *testing.T) {
	raw := CarrierRaw{
		"dotNumber":      "88",
		"vehicleInsp":    30,
		"vehicleOosInsp": 7,
		"driverInsp":     3,
		"driverOosInsp":  1,
	}

	n := Normalize(raw)

	require.NotNil(t, n.VehicleOOSRate)
	assert.InDelta(t, 23.33, *n.VehicleOOSRate, 0.001) // round(7/30*100, 2)
	require.NotNil(t, n.DriverOOSRate)
	assert.InDelta(t, 33.33, *n.DriverOOSRate, 0.001)
	// 危险品字段缺失，率为nil而非0
	assert.Nil(t, n.HazmatOOSRate)
}

func TestNormalize_ZeroInspectionsYieldsNilRate(t *testing.T) {
	raw := CarrierRaw{
		"dotNumber":      "99",
		"vehicleInsp":    0,
		"vehicleOosInsp": 0,
	}

	n := Normalize(raw)

	// 检查数为0时率必须为nil，不能当作0处理
	assert.Nil(t, n.VehicleOOSRate)
	assert.Equal(t, 0, n.TotalInspections)
}

func TestNormalize_SafetyRatingMapping(t *testing.T) {
	cases := map[string]string{
		"S":  models.SafetyRatingSatisfactory,
		"C":  models.SafetyRatingConditional,
		"U":  models.SafetyRatingUnsatisfactory,
		"":   models.SafetyRatingUnrated,
		"X":  models.SafetyRatingUnrated,
		"s ": models.SafetyRatingSatisfactory,
	}

	for code, expected := range cases {
		n := Normalize(CarrierRaw{"dotNumber": "1", "safetyRating": code})
		assert.Equal(t, expected, n.SafetyRating, "评级代码 %q", code)
	}
}

func TestNormalize_InvalidDateYieldsNil(t *testing.T) {
	n := Normalize(CarrierRaw{
		"dotNumber":        "1",
		"safetyRatingDate": "not-a-date",
	})

	assert.Nil(t, n.SafetyRatingDate)
}

func TestNormalize_SlashDateFormat(t *testing.T) {
	n := Normalize(CarrierRaw{
		"dotNumber":        "1",
		"safetyRatingDate": "03/18/2025",
	})

	require.NotNil(t, n.SafetyRatingDate)
	assert.Equal(t, 2025, n.SafetyRatingDate.Year())
}

func TestParseXMLSnapshot_Success(t *testing.T) {
	xmlText := `<carrier>
		<dotNumber>123456</dotNumber>
		<legalName>XML FREIGHT INC</legalName>
		<vehicleInsp>20</vehicleInsp>
		<vehicleOosInsp>5</vehicleOosInsp>
		<safetyRating>C</safetyRating>
	</carrier>`

	snapshot, err := ParseXMLSnapshot(xmlText)
	require.NoError(t, err)
	assert.Equal(t, "123456", snapshot.DOTNumber)
	assert.Equal(t, "XML FREIGHT INC", snapshot.LegalName)

	n := NormalizeSnapshot(snapshot)
	assert.Equal(t, models.SafetyRatingConditional, n.SafetyRating)
	require.NotNil(t, n.VehicleOOSRate)
	assert.InDelta(t, 25.0, *n.VehicleOOSRate, 0.001)
	// 驾驶员检查字段缺失，率为nil
	assert.Nil(t, n.DriverOOSRate)
}

func TestParseXMLSnapshot_MissingDOTNumberIsFatal(t *testing.T) {
	xmlText := `<carrier><legalName>NO DOT INC</legalName></carrier>`

	_, err := ParseXMLSnapshot(xmlText)
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "missing-required-field", parseErr.Kind)
	assert.Equal(t, "dotNumber", parseErr.Field)
}

func TestParseXMLSnapshot_OptionalFieldsDefaultEmpty(t *testing.T) {
	xmlText := `<carrier><dotNumber>7</dotNumber></carrier>`

	snapshot, err := ParseXMLSnapshot(xmlText)
	require.NoError(t, err)
	assert.Empty(t, snapshot.LegalName)
	assert.Empty(t, snapshot.SafetyRating)

	n := NormalizeSnapshot(snapshot)
	assert.Equal(t, models.SafetyRatingUnrated, n.SafetyRating)
	assert.Nil(t, n.VehicleOOSRate)
}

func TestParseXMLSnapshot_MalformedDocument(t *testing.T) {
	_, err := ParseXMLSnapshot("<carrier><dotNumber>1</dot")
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "malformed-document", parseErr.Kind)
}
