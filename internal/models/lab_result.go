package models

import "time"

// LabTest lab-test record kept in its own partition
type LabTest struct {
	ID        string      `json:"id" db:"lab_test_id"`
	ProfileID string      `json:"profile_id" db:"profile_id"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	TestName  string      `json:"test_name" db:"test_name"`
	TestDate  string      `json:"test_date,omitempty" db:"test_date"`
	ImageRef  string      `json:"image_ref,omitempty" db:"image_ref"`
	Results   []LabResult `json:"results" db:"results"` // JSONB
}

// LabResult one measured value
type LabResult struct {
	Name           string `json:"name"`
	Value          string `json:"value"`
	Unit           string `json:"unit,omitempty"`
	ReferenceRange string `json:"reference_range,omitempty"`
	Flag           string `json:"flag,omitempty"` // high, low, normal
}
