package models_test

import (
	"encoding/json"
	"testing"

	"github.com/UnknownOlympus/pscgeo/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRecord = `{
	"company_number": "01234567",
	"data": {
		"name": "Acme Holdings Inc.",
		"address": {"country": "United States"},
		"identification": {"legal_authority": "Delaware", "legal_form": "Corporation"},
		"kind": "corporate-entity-person-with-significant-control"
	},
	"company_details": {
		"company_name": "ACME UK LIMITED",
		"postcode": "NW1 6XE",
		"lat": "51.5237",
		"lon": "-0.1585",
		"custom": [1, 2, 3]
	}
}`

func TestRecord_Unmarshal(t *testing.T) {
	var rec models.Record
	require.NoError(t, json.Unmarshal([]byte(sampleRecord), &rec))

	assert.Equal(t, "01234567", rec.CompanyNumber)
	assert.Equal(t, "Acme Holdings Inc.", rec.Data.Name)
	assert.Equal(t, "United States", rec.Data.Address.Country)
	assert.Equal(t, "Delaware", rec.Data.Identification.LegalAuthority)
	assert.Equal(t, "NW1 6XE", rec.Details.Postcode)
	assert.True(t, rec.HasCoordinates())

	coords, ok := rec.Coordinates()
	require.True(t, ok)
	assert.InDelta(t, 51.5237, coords.Latitude, 1e-9)
	assert.InDelta(t, -0.1585, coords.Longitude, 1e-9)
	assert.Contains(t, rec.Details.Extra, "custom")
}

func TestRecord_UntouchedPassThrough(t *testing.T) {
	var rec models.Record
	require.NoError(t, json.Unmarshal([]byte(sampleRecord), &rec))

	out, err := json.Marshal(rec)
	require.NoError(t, err)

	assert.JSONEq(t, sampleRecord, string(out))
}

func TestRecord_KeepsKeyOrder(t *testing.T) {
	var rec models.Record
	require.NoError(t, json.Unmarshal([]byte(`{
		"links": {"self": "/company/1"},
		"company_number": "1",
		"data": {"name": "X"}
	}`), &rec))

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"links":{"self":"/company/1"},"company_number":"1","data":{"name":"X"}}`, string(out))

	rec.SetCoordinates(models.Coordinates{Latitude: 51.5, Longitude: -0.1}, models.GeoStatusPostcode)
	out, err = json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t,
		`{"links":{"self":"/company/1"},"company_number":"1","data":{"name":"X"},`+
			`"company_details":{"geo_status":"postcode","lat":51.5,"lon":-0.1}}`,
		string(out))
}

func TestRecord_SetCoordinates(t *testing.T) {
	var rec models.Record
	require.NoError(t, json.Unmarshal([]byte(`{
		"company_number": "07654321",
		"company_details": {"company_name": "BETA LTD", "postcode": {}, "address": "1 High Street, Alton"}
	}`), &rec))

	assert.False(t, rec.HasCoordinates())
	assert.Empty(t, rec.Details.Postcode)

	rec.SetCoordinates(models.Coordinates{Latitude: 51.15, Longitude: -0.97}, models.GeoStatusFallback)

	out, err := json.Marshal(rec)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"company_number": "07654321",
		"company_details": {
			"company_name": "BETA LTD",
			"postcode": {},
			"address": "1 High Street, Alton",
			"lat": 51.15,
			"lon": -0.97,
			"geo_status": "fallback"
		}
	}`, string(out))
}

func TestRecord_InvalidLatitudeIsNotCoordinates(t *testing.T) {
	var rec models.Record
	require.NoError(t, json.Unmarshal([]byte(`{"company_number": "1", "company_details": {"lat": ""}}`), &rec))

	assert.False(t, rec.HasCoordinates())
	assert.Contains(t, rec.Details.Extra, "lat")
}

func TestRecord_MissingCompanyNumber(t *testing.T) {
	var rec models.Record
	require.NoError(t, json.Unmarshal([]byte(`{"company_number": null, "data": {"name": "X"}}`), &rec))

	assert.Empty(t, rec.CompanyNumber)
}

func TestRecord_InvalidJSON(t *testing.T) {
	var rec models.Record
	err := json.Unmarshal([]byte(`{"company_details": "oops"}`), &rec)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode company details")
}

func TestCoordinates_Valid(t *testing.T) {
	assert.True(t, models.Coordinates{Latitude: 51.5, Longitude: -0.12}.Valid())
	assert.False(t, models.Coordinates{Latitude: 91, Longitude: 0}.Valid())
	assert.False(t, models.Coordinates{Latitude: 0, Longitude: -181}.Valid())
}

func TestRegisteredOffice_String(t *testing.T) {
	office := models.RegisteredOffice{
		Premises:     "221B",
		AddressLine1: "Baker Street",
		Locality:     "London",
		PostalCode:   "NW1 6XE",
		Country:      " ",
	}

	assert.Equal(t, "221B, Baker Street, London, NW1 6XE", office.String())
}
