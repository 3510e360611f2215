package models

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// CompanyDetails is the "company_details" object of a record. Keys the
// enrichment does not know about are kept in Extra and written back as-is.
type CompanyDetails struct {
	CompanyName         string
	Postcode            string
	Address             string
	Lat                 *Degrees
	Lon                 *Degrees
	GeoStatus           GeoStatus
	AccountsOverdue     *bool
	OfficeInDispute     *bool
	AccountsType        *string
	UndeliverableOffice *bool
	DissolutionDate     *string
	IncorporationDate   *string
	CompanyStatus       *string
	SICs                *string

	Extra map[string]json.RawMessage
}

// detailFields binds every typed field to its JSON key.
func (d *CompanyDetails) detailFields() []struct {
	key string
	ptr any
} {
	return []struct {
		key string
		ptr any
	}{
		{"company_name", &d.CompanyName},
		{"postcode", &d.Postcode},
		{"address", &d.Address},
		{"lat", &d.Lat},
		{"lon", &d.Lon},
		{"geo_status", &d.GeoStatus},
		{"accounts_overdue", &d.AccountsOverdue},
		{"registered_office_is_in_dispute", &d.OfficeInDispute},
		{"accounts_type", &d.AccountsType},
		{"undeliverable_registered_office_address", &d.UndeliverableOffice},
		{"dissolution_date", &d.DissolutionDate},
		{"incorporation_date", &d.IncorporationDate},
		{"company_status", &d.CompanyStatus},
		{"SICs", &d.SICs},
	}
}

// UnmarshalJSON implements json.Unmarshaler. A known key whose value has an
// unexpected type (older batches wrote "postcode": {}) stays in Extra.
func (d *CompanyDetails) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("company details must be an object: %w", err)
	}

	*d = CompanyDetails{}
	for _, field := range d.detailFields() {
		value, ok := raw[field.key]
		if !ok {
			continue
		}
		// Decode into a scratch value: a failed decode must leave the field unset.
		target := reflect.ValueOf(field.ptr).Elem()
		scratch := reflect.New(target.Type())
		if err := json.Unmarshal(value, scratch.Interface()); err == nil {
			target.Set(scratch.Elem())
			delete(raw, field.key)
		}
	}
	if len(raw) > 0 {
		d.Extra = raw
	}

	return nil
}

// MarshalJSON implements json.Marshaler.
func (d CompanyDetails) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.Extra)+len(d.detailFields()))
	for key, value := range d.Extra {
		out[key] = value
	}

	put := func(key string, value any) error {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		out[key] = encoded
		return nil
	}

	strs := map[string]string{
		"company_name": d.CompanyName,
		"postcode":     d.Postcode,
		"address":      d.Address,
		"geo_status":   string(d.GeoStatus),
	}
	for key, value := range strs {
		if value == "" {
			continue
		}
		if err := put(key, value); err != nil {
			return nil, err
		}
	}

	optional := map[string]any{
		"lat":                             d.Lat,
		"lon":                             d.Lon,
		"accounts_overdue":                d.AccountsOverdue,
		"registered_office_is_in_dispute": d.OfficeInDispute,
		"accounts_type":                   d.AccountsType,
		"undeliverable_registered_office_address": d.UndeliverableOffice,
		"dissolution_date":                        d.DissolutionDate,
		"incorporation_date":                      d.IncorporationDate,
		"company_status":                          d.CompanyStatus,
		"SICs":                                    d.SICs,
	}
	for key, value := range optional {
		if isNilPointer(value) {
			continue
		}
		if err := put(key, value); err != nil {
			return nil, err
		}
	}

	return json.Marshal(out)
}

func isNilPointer(value any) bool {
	switch v := value.(type) {
	case *Degrees:
		return v == nil
	case *bool:
		return v == nil
	case *string:
		return v == nil
	default:
		return value == nil
	}
}
