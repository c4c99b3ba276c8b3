package models

import (
	"fmt"
	"time"
)

// TimeSlot one of the three daily dosing slots
type TimeSlot string

const (
	SlotMorning   TimeSlot = "morning"
	SlotAfternoon TimeSlot = "afternoon"
	SlotEvening   TimeSlot = "evening"
)

// DateLayout calendar day format used for taken events
const DateLayout = "2006-01-02"

// AllTimeSlots in chronological order
var AllTimeSlots = []TimeSlot{SlotMorning, SlotAfternoon, SlotEvening}

// Hour nominal local hour of the slot
func (s TimeSlot) Hour() int {
	switch s {
	case SlotMorning:
		return 8
	case SlotAfternoon:
		return 13
	case SlotEvening:
		return 20
	default:
		return -1
	}
}

// Valid reports whether s is a known slot
func (s TimeSlot) Valid() bool {
	return s.Hour() >= 0
}

// ParseTimeSlot validates a slot string
func ParseTimeSlot(s string) (TimeSlot, error) {
	slot := TimeSlot(s)
	if !slot.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeSlot, s)
	}
	return slot, nil
}

// TakenMedicationEvent immutable fact: medication taken in a slot on a date (taken_medications table)
type TakenMedicationEvent struct {
	ID             string    `json:"id" db:"event_id"`
	ProfileID      string    `json:"profile_id" db:"profile_id"`
	MedicationName string    `json:"medication_name" db:"medication_name"`
	TimeSlot       TimeSlot  `json:"time_slot" db:"time_slot"`
	Date           string    `json:"date" db:"taken_date"` // YYYY-MM-DD, local timezone
	TakenAt        time.Time `json:"taken_at" db:"taken_at"`
	SourceID       string    `json:"source_id" db:"source_id"` // originating record
	Dosage         *string   `json:"dosage,omitempty" db:"dosage"`
}

// Matches reports whether the event is for (name, slot, date)
func (e TakenMedicationEvent) Matches(name string, slot TimeSlot, date string) bool {
	return e.MedicationName == name && e.TimeSlot == slot && e.Date == date
}

// DateString formats t as YYYY-MM-DD in loc (nil means t's own location)
func DateString(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DateLayout)
}
