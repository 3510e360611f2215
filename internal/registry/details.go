package registry

import (
	"sort"
	"strings"

	"github.com/UnknownOlympus/pscgeo/internal/models"
)

const unknownSIC = "Unknown"

// SICCodes maps a standard industrial classification code to its description.
type SICCodes map[string]string

// Describe renders codes as "code description" pairs joined by ", ".
// Codes missing from the table are described as Unknown.
func (s SICCodes) Describe(codes []string) string {
	parts := make([]string, 0, len(codes))
	for _, code := range codes {
		desc, ok := s[code]
		if !ok {
			desc = unknownSIC
		}
		parts = append(parts, code+" "+desc)
	}
	return strings.Join(parts, ", ")
}

// Codes returns the known codes in ascending order.
func (s SICCodes) Codes() []string {
	codes := make([]string, 0, len(s))
	for code := range s {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// ApplyProfile copies registry facts from profile into details, including
// the registered office address. A postcode already on details is kept when
// the profile has none.
func ApplyProfile(details *models.CompanyDetails, profile *models.CompanyProfile, sic SICCodes) {
	details.AccountsOverdue = ptr(profile.Accounts.NextAccounts.Overdue)
	details.OfficeInDispute = ptr(profile.RegisteredOfficeIsInDispute)
	details.UndeliverableOffice = ptr(profile.UndeliverableRegisteredOfficeAddress)
	details.AccountsType = optional(profile.Accounts.LastAccounts.Type)
	details.DissolutionDate = optional(profile.DateOfCessation)
	details.IncorporationDate = optional(profile.DateOfCreation)
	details.CompanyStatus = optional(profile.CompanyStatus)
	details.SICs = ptr(sic.Describe(profile.SICCodes))

	if details.CompanyName == "" {
		details.CompanyName = profile.CompanyName
	}
	if postcode := strings.TrimSpace(profile.RegisteredOfficeAddress.PostalCode); postcode != "" {
		details.Postcode = postcode
	}
	details.Address = profile.RegisteredOfficeAddress.String()
}

func ptr[T any](v T) *T {
	return &v
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
