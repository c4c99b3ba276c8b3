package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordPatch_Apply(t *testing.T) {
	r := Record{ID: "r1", ImageRef: "blob://a", Analysis: Analysis{Title: "old"}}
	ref := "blob://b"

	patched := RecordPatch{ImageRef: &ref}.Apply(r)
	assert.Equal(t, "blob://b", patched.ImageRef)
	assert.Equal(t, "old", patched.Analysis.Title)
	assert.Equal(t, "blob://a", r.ImageRef)

	analysis := Analysis{Title: "new", Medications: []Medication{{Name: "Aspirin"}}}
	patched = RecordPatch{Analysis: &analysis}.Apply(r)
	analysis.Medications[0].Name = "changed"
	assert.Equal(t, "new", patched.Analysis.Title)
	assert.Equal(t, "Aspirin", patched.Analysis.Medications[0].Name)
}

func TestAnalysis_FindMedication(t *testing.T) {
	a := Analysis{Medications: []Medication{{Name: "Aspirin"}, {Name: "Metformin"}}}

	assert.Equal(t, 1, a.FindMedication("Metformin"))
	assert.Equal(t, -1, a.FindMedication("Ibuprofen"))
}

func TestSortRecords(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []Record{
		{ID: "b", CreatedAt: base},
		{ID: "c", CreatedAt: base.Add(time.Hour)},
		{ID: "a", CreatedAt: base},
	}

	SortRecords(records)

	assert.Equal(t, "c", records[0].ID)
	assert.Equal(t, "a", records[1].ID)
	assert.Equal(t, "b", records[2].ID)
}

func TestFamily_MemberProfileIDs(t *testing.T) {
	f := &Family{
		OwnerID: "owner",
		Members: []FamilyMember{
			{ProfileID: "m1", Role: RoleMember},
			{ProfileID: "owner", Role: RoleOwner},
			{ProfileID: ""},
			{ProfileID: "m2", Role: RoleMember},
		},
	}

	assert.Equal(t, []string{"owner", "m1", "m2"}, f.MemberProfileIDs())
}
