package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/ankon07/medvault-ai-sub000/internal/models"
)

// maxReportDays upper bound on the date range of one report
const maxReportDays = 366

// AdherenceRow one expected dose
type AdherenceRow struct {
	Date           string
	TimeSlot       models.TimeSlot
	MedicationName string
	Dosage         string
	Taken          bool
	TakenAt        *time.Time
}

// MedicationSummary taken / expected per medication
type MedicationSummary struct {
	MedicationName string
	Expected       int
	Taken          int
}

// Rate taken share in [0, 1]
func (s MedicationSummary) Rate() float64 {
	if s.Expected == 0 {
		return 0
	}
	return float64(s.Taken) / float64(s.Expected)
}

// BuildAdherence expands every medication in records over each slot of each day in
// [from, to] (YYYY-MM-DD) and marks the doses found in events
func BuildAdherence(records []models.Record, events []models.TakenMedicationEvent, from, to string) ([]AdherenceRow, error) {
	start, err := time.Parse(models.DateLayout, from)
	if err != nil {
		return nil, fmt.Errorf("invalid from date %q: %w", from, err)
	}
	end, err := time.Parse(models.DateLayout, to)
	if err != nil {
		return nil, fmt.Errorf("invalid to date %q: %w", to, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("to date %s is before from date %s", to, from)
	}
	if days := int(end.Sub(start).Hours()/24) + 1; days > maxReportDays {
		return nil, fmt.Errorf("date range of %d days exceeds %d", days, maxReportDays)
	}

	type medKey struct{ name, dosage string }
	seen := make(map[string]struct{})
	meds := make([]medKey, 0)
	sorted := append([]models.Record(nil), records...)
	models.SortRecords(sorted)
	for _, r := range sorted {
		for _, m := range r.Analysis.Medications {
			if m.Name == "" {
				continue
			}
			if _, ok := seen[m.Name]; ok {
				continue
			}
			seen[m.Name] = struct{}{}
			meds = append(meds, medKey{name: m.Name, dosage: m.Dosage})
		}
	}
	sort.SliceStable(meds, func(i, j int) bool { return meds[i].name < meds[j].name })

	taken := make(map[string]models.TakenMedicationEvent, len(events))
	for _, e := range events {
		key := e.Date + "|" + string(e.TimeSlot) + "|" + e.MedicationName
		if prev, ok := taken[key]; !ok || e.TakenAt.Before(prev.TakenAt) {
			taken[key] = e
		}
	}

	rows := make([]AdherenceRow, 0)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		date := day.Format(models.DateLayout)
		for _, slot := range models.AllTimeSlots {
			for _, m := range meds {
				row := AdherenceRow{
					Date:           date,
					TimeSlot:       slot,
					MedicationName: m.name,
					Dosage:         m.dosage,
				}
				if e, ok := taken[date+"|"+string(slot)+"|"+m.name]; ok {
					row.Taken = true
					takenAt := e.TakenAt
					row.TakenAt = &takenAt
					if e.Dosage != nil && *e.Dosage != "" {
						row.Dosage = *e.Dosage
					}
				}
				rows = append(rows, row)
			}
		}
	}
	return rows, nil
}

// Summarize aggregates rows per medication, ordered by name
func Summarize(rows []AdherenceRow) []MedicationSummary {
	byName := make(map[string]*MedicationSummary)
	names := make([]string, 0)
	for _, r := range rows {
		s, ok := byName[r.MedicationName]
		if !ok {
			s = &MedicationSummary{MedicationName: r.MedicationName}
			byName[r.MedicationName] = s
			names = append(names, r.MedicationName)
		}
		s.Expected++
		if r.Taken {
			s.Taken++
		}
	}
	sort.Strings(names)

	out := make([]MedicationSummary, 0, len(names))
	for _, name := range names {
		out = append(out, *byName[name])
	}
	return out
}
