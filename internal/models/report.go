package models

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusResolved Status = "resolved"
)

// Statuses lists every valid status in workflow order.
var Statuses = []Status{StatusPending, StatusVerified, StatusResolved}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusResolved:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus matches s exactly against the canonical values.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	return st, st.Valid()
}

type DisasterReport struct {
	ID              int64     `json:"id"`
	DisasterType    string    `json:"disaster_type"`
	Location        string    `json:"location"`
	Severity        string    `json:"severity"`
	Description     string    `json:"description"`
	ReporterName    string    `json:"reporter_name"`
	ReporterContact string    `json:"reporter_contact"`
	Status          Status    `json:"status"`
	ReportedAt      time.Time `json:"reported_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ReportFields is the caller-supplied part of a report, as submitted through
// the public form or the JSON API.
type ReportFields struct {
	DisasterType    string `json:"disaster_type" form:"disaster_type"`
	Location        string `json:"location" form:"location"`
	Severity        string `json:"severity" form:"severity"`
	Description     string `json:"description" form:"description"`
	ReporterName    string `json:"reporter_name" form:"reporter_name"`
	ReporterContact string `json:"reporter_contact" form:"reporter_contact"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (f ReportFields) Trimmed() ReportFields {
	return ReportFields{
		DisasterType:    strings.TrimSpace(f.DisasterType),
		Location:        strings.TrimSpace(f.Location),
		Severity:        strings.TrimSpace(f.Severity),
		Description:     strings.TrimSpace(f.Description),
		ReporterName:    strings.TrimSpace(f.ReporterName),
		ReporterContact: strings.TrimSpace(f.ReporterContact),
	}
}

// Missing returns the column names of empty fields, in column order.
func (f ReportFields) Missing() []string {
	var missing []string
	for _, c := range []struct {
		name, value string
	}{
		{"disaster_type", f.DisasterType},
		{"location", f.Location},
		{"severity", f.Severity},
		{"description", f.Description},
		{"reporter_name", f.ReporterName},
		{"reporter_contact", f.ReporterContact},
	} {
		if c.value == "" {
			missing = append(missing, c.name)
		}
	}
	return missing
}

// NewReport is a report about to be created in bulk (CSV import, seeding).
// A zero ReportedAt means "now"; an invalid Status is coerced to pending.
type NewReport struct {
	ReportFields
	Status     Status
	ReportedAt time.Time
}
