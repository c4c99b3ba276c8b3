package models

import "time"

// DefaultPillCount used when neither totalPills nor pillsRemaining is known
const DefaultPillCount = 30

// Medication embedded in a record's analysis
type Medication struct {
	Name           string   `json:"name"`
	Dosage         string   `json:"dosage,omitempty"`
	Frequency      string   `json:"frequency,omitempty"`
	Duration       string   `json:"duration,omitempty"`
	Instructions   string   `json:"instructions,omitempty"`
	TotalPills     *int     `json:"total_pills,omitempty"`
	PillsRemaining *int     `json:"pills_remaining,omitempty"`
	Pricing        *Pricing `json:"pricing,omitempty"`
}

// Pricing optional price lookup result
type Pricing struct {
	UnitPrice float64   `json:"unit_price"`
	Currency  string    `json:"currency"`
	Pharmacy  string    `json:"pharmacy,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Remaining pillsRemaining ?? totalPills ?? DefaultPillCount
func (m Medication) Remaining() int {
	if m.PillsRemaining != nil {
		return *m.PillsRemaining
	}
	if m.TotalPills != nil {
		return *m.TotalPills
	}
	return DefaultPillCount
}

// Decremented returns the count after taking one dose, floored at zero
func (m Medication) Decremented() int {
	n := m.Remaining() - 1
	if n < 0 {
		return 0
	}
	return n
}

// NormalizePills default-initializes both counters and clamps pillsRemaining into [0, totalPills]
func (m *Medication) NormalizePills() {
	if m.TotalPills == nil {
		total := DefaultPillCount
		if m.PillsRemaining != nil && *m.PillsRemaining > total {
			total = *m.PillsRemaining
		}
		m.TotalPills = &total
	}
	remaining := m.Remaining()
	if remaining < 0 {
		remaining = 0
	}
	if remaining > *m.TotalPills {
		remaining = *m.TotalPills
	}
	m.PillsRemaining = &remaining
}

// Clone copies the pointer fields
func (m Medication) Clone() Medication {
	out := m
	if m.TotalPills != nil {
		v := *m.TotalPills
		out.TotalPills = &v
	}
	if m.PillsRemaining != nil {
		v := *m.PillsRemaining
		out.PillsRemaining = &v
	}
	if m.Pricing != nil {
		p := *m.Pricing
		out.Pricing = &p
	}
	return out
}

// IntPtr helper for optional counters
func IntPtr(v int) *int {
	return &v
}
