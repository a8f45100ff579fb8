package model

import (
	"strings"
	"time"
)

// DefaultOrganizationName is rendered when no organization name is given.
const DefaultOrganizationName = "Organization"

// CredentialSheet is the unit handed to report writers: an organization's
// ordered list of student credentials plus the generation instant.
type CredentialSheet struct {
	// OrganizationName is shown in the report header.
	OrganizationName string `json:"organizationName"`

	// GeneratedAt is the instant the sheet was assembled.
	GeneratedAt time.Time `json:"generatedAt"`

	// Records are rendered in slice order.
	Records []CredentialRecord `json:"students"`
}

// NewCredentialSheet creates a sheet for the given organization.
// A blank organization name is replaced by DefaultOrganizationName.
func NewCredentialSheet(organizationName string, records []CredentialRecord) *CredentialSheet {
	return &CredentialSheet{
		OrganizationName: OrganizationOrDefault(organizationName),
		GeneratedAt:      time.Now(),
		Records:          records,
	}
}

// OrganizationOrDefault trims the name and falls back to the placeholder.
func OrganizationOrDefault(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultOrganizationName
	}
	return name
}

// FillDefaultPasswords assigns the "{RollNumber}@CN" password to every record
// that has a roll number but no password. It returns the number of records
// changed.
func (s *CredentialSheet) FillDefaultPasswords() int {
	filled := 0
	for i := range s.Records {
		if s.Records[i].Password != "" {
			continue
		}
		if pw := DefaultPassword(s.Records[i].RollNumber); pw != "" {
			s.Records[i].Password = pw
			filled++
		}
	}
	return filled
}

// Len returns the number of records on the sheet.
func (s *CredentialSheet) Len() int {
	return len(s.Records)
}
