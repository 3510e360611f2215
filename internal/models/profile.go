package models

import "strings"

// CompanyProfile is the subset of a Companies House company profile used to
// complete the details of a record.
type CompanyProfile struct {
	CompanyNumber                        string           `json:"company_number"`
	CompanyName                          string           `json:"company_name"`
	CompanyStatus                        string           `json:"company_status"`
	DateOfCreation                       string           `json:"date_of_creation"`
	DateOfCessation                      string           `json:"date_of_cessation"`
	SICCodes                             []string         `json:"sic_codes"`
	RegisteredOfficeIsInDispute          bool             `json:"registered_office_is_in_dispute"`
	UndeliverableRegisteredOfficeAddress bool             `json:"undeliverable_registered_office_address"`
	Accounts                             ProfileAccounts  `json:"accounts"`
	RegisteredOfficeAddress              RegisteredOffice `json:"registered_office_address"`
}

// ProfileAccounts holds the accounts section of a company profile.
type ProfileAccounts struct {
	NextAccounts struct {
		Overdue bool `json:"overdue"`
	} `json:"next_accounts"`
	LastAccounts struct {
		Type string `json:"type"`
	} `json:"last_accounts"`
}

// RegisteredOffice is the registered office address of a company.
type RegisteredOffice struct {
	CareOf       string `json:"care_of"`
	POBox        string `json:"po_box"`
	Premises     string `json:"premises"`
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2"`
	Locality     string `json:"locality"`
	Region       string `json:"region"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

// String joins the non-empty address lines from the most specific to the broadest.
func (o RegisteredOffice) String() string {
	lines := []string{
		o.CareOf, o.POBox, o.Premises, o.AddressLine1, o.AddressLine2,
		o.Locality, o.Region, o.PostalCode, o.Country,
	}

	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}

	return strings.Join(parts, ", ")
}
