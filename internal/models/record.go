package models

import (
	"sort"
	"time"
)

// Record one analyzed medical document (records table / local cache row)
type Record struct {
	ID        string    `json:"id" db:"record_id"`
	ProfileID string    `json:"profile_id" db:"profile_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ImageRef  string    `json:"image_ref" db:"image_ref"` // opaque blob reference
	Analysis  Analysis  `json:"analysis" db:"analysis"`   // JSONB
}

// Analysis structured extraction result, produced outside this engine
type Analysis struct {
	DocumentType string            `json:"document_type"` // prescription, lab_report, discharge_summary, ...
	Title        string            `json:"title,omitempty"`
	Summary      string            `json:"summary,omitempty"`
	Doctor       string            `json:"doctor,omitempty"`
	Facility     string            `json:"facility,omitempty"`
	Date         string            `json:"date,omitempty"`
	Diagnosis    string            `json:"diagnosis,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	Fields       map[string]string `json:"fields,omitempty"`
	Medications  []Medication      `json:"medications"`
}

// RecordPatch partial update; nil fields are left untouched
type RecordPatch struct {
	ImageRef *string   `json:"image_ref,omitempty"`
	Analysis *Analysis `json:"analysis,omitempty"`
}

// Apply returns a copy of r with the patch applied
func (p RecordPatch) Apply(r Record) Record {
	if p.ImageRef != nil {
		r.ImageRef = *p.ImageRef
	}
	if p.Analysis != nil {
		r.Analysis = p.Analysis.Clone()
	}
	return r
}

// Clone deep-copies the medication list and fields map
func (a Analysis) Clone() Analysis {
	out := a
	if a.Medications != nil {
		out.Medications = make([]Medication, len(a.Medications))
		for i, m := range a.Medications {
			out.Medications[i] = m.Clone()
		}
	}
	if a.Fields != nil {
		out.Fields = make(map[string]string, len(a.Fields))
		for k, v := range a.Fields {
			out.Fields[k] = v
		}
	}
	return out
}

// FindMedication returns the index of the medication with the given name, or -1
func (a Analysis) FindMedication(name string) int {
	for i := range a.Medications {
		if a.Medications[i].Name == name {
			return i
		}
	}
	return -1
}

// SortRecords orders records by CreatedAt descending, ties by ID for a stable view
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}
