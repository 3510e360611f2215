package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// GeoStatus describes how a record obtained (or failed to obtain) its coordinates.
type GeoStatus string

const (
	GeoStatusAlreadyResolved GeoStatus = "already_resolved"
	GeoStatusPostcode        GeoStatus = "postcode"
	GeoStatusFallback        GeoStatus = "fallback"
	GeoStatusUnresolved      GeoStatus = "unresolved"
)

// Degrees is an angle in decimal degrees. Older batches store coordinates as
// strings, so both JSON numbers and numeric strings are accepted.
type Degrees float64

// UnmarshalJSON implements json.Unmarshaler.
func (d *Degrees) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*d = Degrees(num)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("degrees must be a number or a numeric string: %w", err)
	}

	num, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return fmt.Errorf("invalid degrees %q: %w", str, err)
	}
	*d = Degrees(num)

	return nil
}

// Record is one PSC entry of a record batch. Only the fields the enrichment
// reads or writes are typed; every other key is carried through untouched.
type Record struct {
	CompanyNumber string
	Data          PSCData
	Details       CompanyDetails

	fields  map[string]json.RawMessage
	keys    []string       // top-level keys in input order
	details CompanyDetails // details as read, to detect modifications
}

// PSCData is the read-only view of the "data" object of a PSC record.
type PSCData struct {
	Name    string `json:"name"`
	Address struct {
		Country string `json:"country"`
	} `json:"address"`
	Identification struct {
		LegalAuthority    string `json:"legal_authority"`
		CountryRegistered string `json:"country_registered"`
		LegalForm         string `json:"legal_form"`
	} `json:"identification"`
}

// JurisdictionFields returns the values that may reveal where the PSC is registered.
func (d PSCData) JurisdictionFields() []string {
	return []string{
		d.Address.Country,
		d.Identification.LegalAuthority,
		d.Identification.CountryRegistered,
		d.Identification.LegalForm,
	}
}

// HasCoordinates reports whether the record already carries a latitude.
func (r *Record) HasCoordinates() bool {
	return r.Details.Lat != nil
}

// SetCoordinates stores resolved coordinates and the way they were obtained.
func (r *Record) SetCoordinates(coords Coordinates, status GeoStatus) {
	lat, lon := Degrees(coords.Latitude), Degrees(coords.Longitude)
	r.Details.Lat = &lat
	r.Details.Lon = &lon
	r.Details.GeoStatus = status
}

// Coordinates returns the stored coordinates, if any.
func (r *Record) Coordinates() (Coordinates, bool) {
	if r.Details.Lat == nil || r.Details.Lon == nil {
		return Coordinates{}, false
	}
	return Coordinates{Latitude: float64(*r.Details.Lat), Longitude: float64(*r.Details.Lon)}, true
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Record) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	fields, keys, err := decodeObject(data)
	if err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}

	*r = Record{fields: fields, keys: keys}

	if raw, ok := fields["company_number"]; ok {
		// Numbers and nulls are treated as missing identifiers.
		_ = json.Unmarshal(raw, &r.CompanyNumber)
		r.CompanyNumber = strings.TrimSpace(r.CompanyNumber)
	}
	if raw, ok := fields["data"]; ok {
		_ = json.Unmarshal(raw, &r.Data)
	}
	if raw, ok := fields["company_details"]; ok {
		if err := json.Unmarshal(raw, &r.Details); err != nil {
			return fmt.Errorf("failed to decode company details: %w", err)
		}
		// Decoded twice so the snapshot shares no pointers with Details.
		if err := json.Unmarshal(raw, &r.details); err != nil {
			return fmt.Errorf("failed to decode company details: %w", err)
		}
	}

	return nil
}

// MarshalJSON implements json.Marshaler. Company details are re-encoded only
// when they were modified; untouched records are written back verbatim. Keys
// keep their input order, new keys follow.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(r.fields)+2)
	for key, value := range r.fields {
		out[key] = value
	}
	keys := append([]string(nil), r.keys...)

	if _, ok := out["company_number"]; !ok && r.CompanyNumber != "" {
		raw, err := json.Marshal(r.CompanyNumber)
		if err != nil {
			return nil, err
		}
		out["company_number"] = raw
		keys = append(keys, "company_number")
	}

	if !reflect.DeepEqual(r.Details, r.details) {
		raw, err := json.Marshal(r.Details)
		if err != nil {
			return nil, fmt.Errorf("failed to encode company details: %w", err)
		}
		if _, ok := out["company_details"]; !ok {
			keys = append(keys, "company_details")
		}
		out["company_details"] = raw
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for idx, key := range keys {
		if idx > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(out[key])
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// decodeObject splits a JSON object into raw values and its key order.
// A repeated key keeps its first position and its last value.
func decodeObject(data []byte) (map[string]json.RawMessage, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected an object, got %v", tok)
	}

	fields := make(map[string]json.RawMessage)
	var keys []string
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := tok.(string)

		var value json.RawMessage
		if err = dec.Decode(&value); err != nil {
			return nil, nil, err
		}
		if _, seen := fields[key]; !seen {
			keys = append(keys, key)
		}
		fields[key] = value
	}

	if _, err = dec.Token(); err != nil {
		return nil, nil, err
	}

	return fields, keys, nil
}
