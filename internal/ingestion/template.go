package ingestion

import (
	"bytes"
	"encoding/csv"
)

const (
	TemplateFilename    = "disaster_reports_template.csv"
	TemplateContentType = "text/csv"
)

// TemplateColumns is the column order of the downloadable template: the
// required columns followed by the optional status column.
var TemplateColumns = append(append([]string{}, RequiredColumns...), statusColumn)

var templateRows = [][]string{
	{"Earthquake", "Sample City", "High", "Sample earthquake description", "John Doe", "+1-555-1234", "pending"},
	{"Flood", "Sample Town", "Moderate", "Sample flood description", "Jane Smith", "+1-555-5678", "verified"},
}

// Template returns the example CSV offered to operators before a bulk import.
func Template() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	// Writes to a bytes.Buffer cannot fail.
	_ = w.Write(TemplateColumns)
	_ = w.WriteAll(templateRows)
	return buf.Bytes()
}
