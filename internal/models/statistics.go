package models

type Statistics struct {
	TotalReports         int             `json:"total_reports"`
	VerifiedReports      int             `json:"verified_reports"`
	PendingReports       int             `json:"pending_reports"`
	ResolvedReports      int             `json:"resolved_reports"`
	DisasterTypes        map[string]int  `json:"disaster_types"`
	SeverityDistribution map[string]int  `json:"severity_distribution"`
	Timeline             []TimelinePoint `json:"timeline"`
}

// TimelinePoint counts the reports filed on one calendar day (YYYY-MM-DD, UTC).
type TimelinePoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
