// Package seed loads sample reports and alerts into an empty store.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mr1hm/go-disaster-reports/internal/models"
	"github.com/mr1hm/go-disaster-reports/internal/repository"
)

type ReportCreator interface {
	CreateBatch(ctx context.Context, batch []models.NewReport) ([]int64, error)
}

type Stores struct {
	Reports       ReportCreator
	ReportCounter interface {
		CountReports(ctx context.Context) (int, error)
	}
	Alerts repository.AlertRepository
}

type sampleReport struct {
	fields models.ReportFields
	status models.Status
	age    time.Duration
}

var sampleReports = []sampleReport{
	{models.ReportFields{
		DisasterType:    "Earthquake",
		Location:        "Downtown City Center, Main Street",
		Severity:        "High",
		Description:     "Major earthquake measuring 6.5 on Richter scale. Multiple buildings damaged, infrastructure affected.",
		ReporterName:    "John Smith",
		ReporterContact: "+1-555-0101",
	}, models.StatusVerified, 5 * 24 * time.Hour},
	{models.ReportFields{
		DisasterType:    "Flood",
		Location:        "Riverside District, Valley Road",
		Severity:        "Critical",
		Description:     "Severe flooding due to heavy rainfall. Water level rising rapidly, evacuation needed.",
		ReporterName:    "Sarah Johnson",
		ReporterContact: "+1-555-0102",
	}, models.StatusVerified, 3 * 24 * time.Hour},
	{models.ReportFields{
		DisasterType:    "Fire",
		Location:        "Industrial Area, Factory Complex",
		Severity:        "High",
		Description:     "Large fire outbreak in industrial facility. Multiple fire units responding.",
		ReporterName:    "Michael Brown",
		ReporterContact: "+1-555-0103",
	}, models.StatusResolved, 10 * 24 * time.Hour},
	{models.ReportFields{
		DisasterType:    "Cyclone",
		Location:        "Coastal Region, Beach Road",
		Severity:        "Critical",
		Description:     "Category 4 cyclone approaching. Strong winds and heavy rain expected.",
		ReporterName:    "Emily Davis",
		ReporterContact: "+1-555-0104",
	}, models.StatusVerified, 24 * time.Hour},
	{models.ReportFields{
		DisasterType:    "Landslide",
		Location:        "Hill Station, Mountain Road",
		Severity:        "Moderate",
		Description:     "Landslide blocking main highway. Traffic disrupted, road clearance in progress.",
		ReporterName:    "Robert Wilson",
		ReporterContact: "+1-555-0105",
	}, models.StatusPending, 12 * time.Hour},
	{models.ReportFields{
		DisasterType:    "Epidemic",
		Location:        "North District, Community Center",
		Severity:        "Moderate",
		Description:     "Outbreak of viral infection reported. Health officials monitoring situation.",
		ReporterName:    "Lisa Anderson",
		ReporterContact: "+1-555-0106",
	}, models.StatusVerified, 7 * 24 * time.Hour},
	{models.ReportFields{
		DisasterType:    "Drought",
		Location:        "Agricultural Zone, Farm Belt",
		Severity:        "High",
		Description:     "Severe water shortage affecting crops. Agricultural emergency declared.",
		ReporterName:    "David Martinez",
		ReporterContact: "+1-555-0107",
	}, models.StatusVerified, 15 * 24 * time.Hour},
	{models.ReportFields{
		DisasterType:    "Fire",
		Location:        "Forest Area, Pine Woods",
		Severity:        "Critical",
		Description:     "Wildfire spreading rapidly. Multiple areas evacuated, firefighters deployed.",
		ReporterName:    "Jennifer Taylor",
		ReporterContact: "+1-555-0108",
	}, models.StatusVerified, 2 * 24 * time.Hour},
}

type sampleAlert struct {
	title, message, alertType string
	age                       time.Duration
}

var sampleAlerts = []sampleAlert{
	{
		"Cyclone Warning - Coastal Areas",
		"A severe cyclone is expected to make landfall within 24 hours. Residents in coastal areas are advised to evacuate immediately and move to safe shelters.",
		"Emergency",
		6 * time.Hour,
	},
	{
		"Flood Advisory - Riverside District",
		"Water levels are rising in the Riverside District due to continuous rainfall. Residents are advised to stay alert and avoid low-lying areas.",
		"Warning",
		3 * 24 * time.Hour,
	},
	{
		"Earthquake Safety Tips",
		"Following recent seismic activity, please review earthquake safety procedures. Drop, Cover, and Hold On during tremors.",
		"Advisory",
		5 * 24 * time.Hour,
	},
}

// Summary reports what Run inserted.
type Summary struct {
	Reports int
	Alerts  int
}

// Run inserts the sample reports if the report table is empty and the sample
// alerts if the alert table is empty. Timestamps are relative to now.
func Run(ctx context.Context, st Stores, now time.Time) (Summary, error) {
	var sum Summary

	n, err := st.ReportCounter.CountReports(ctx)
	if err != nil {
		return sum, fmt.Errorf("error counting reports: %w", err)
	}
	if n == 0 {
		batch := make([]models.NewReport, 0, len(sampleReports))
		for _, r := range sampleReports {
			batch = append(batch, models.NewReport{
				ReportFields: r.fields,
				Status:       r.status,
				ReportedAt:   now.Add(-r.age),
			})
		}
		ids, err := st.Reports.CreateBatch(ctx, batch)
		if err != nil {
			return sum, fmt.Errorf("error seeding reports: %w", err)
		}
		sum.Reports = len(ids)
		slog.Info("sample disaster reports added", "count", sum.Reports)
	}

	n, err = st.Alerts.CountAlerts(ctx)
	if err != nil {
		return sum, fmt.Errorf("error counting alerts: %w", err)
	}
	if n == 0 {
		for _, a := range sampleAlerts {
			alert := &models.Alert{
				Title:     a.title,
				Message:   a.message,
				AlertType: a.alertType,
				CreatedAt: now.Add(-a.age),
			}
			if err := st.Alerts.AddAlert(ctx, alert); err != nil {
				return sum, fmt.Errorf("error seeding alert %q: %w", a.title, err)
			}
			sum.Alerts++
		}
		slog.Info("sample alerts added", "count", sum.Alerts)
	}

	return sum, nil
}
