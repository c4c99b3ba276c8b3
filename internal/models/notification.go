package models

import "time"

// Notification type tags
const (
	NotificationDoseTaken   = "dose_taken"
	NotificationDosesMissed = "doses_missed"
)

// Notification payload delivered to a member's inbox
type Notification struct {
	ID            string                 `json:"id"`
	Type          string                 `json:"type"`
	FromProfileID string                 `json:"from_profile_id"`
	Title         string                 `json:"title"`
	Body          string                 `json:"body"`
	Data          map[string]interface{} `json:"data,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// MissedDose one (medication, slot) pair with no taken event
type MissedDose struct {
	MedicationName string   `json:"medication_name"`
	TimeSlot       TimeSlot `json:"time_slot"`
	SourceID       string   `json:"source_id"`
	Dosage         string   `json:"dosage,omitempty"`
}
