package models

// SnapshotEntry is one company row of the registry bulk data snapshot.
type SnapshotEntry struct {
	DissolutionDate   *string // nil when the company is not dissolved
	IncorporationDate string
	CompanyStatus     string
	SICs              string // non-empty SIC texts joined by ","
}

// Snapshot indexes snapshot rows by company number.
type Snapshot map[string]SnapshotEntry

// Lookup returns the entry for companyNumber.
func (s Snapshot) Lookup(companyNumber string) (SnapshotEntry, bool) {
	entry, ok := s[companyNumber]
	return entry, ok
}
