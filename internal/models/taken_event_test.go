package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeSlot(t *testing.T) {
	assert.Equal(t, 8, SlotMorning.Hour())
	assert.Equal(t, 13, SlotAfternoon.Hour())
	assert.Equal(t, 20, SlotEvening.Hour())
	assert.False(t, TimeSlot("night").Valid())

	slot, err := ParseTimeSlot("evening")
	require.NoError(t, err)
	assert.Equal(t, SlotEvening, slot)

	_, err = ParseTimeSlot("noon")
	assert.ErrorIs(t, err, ErrInvalidTimeSlot)
}

func TestDateString(t *testing.T) {
	instant := time.Date(2025, 1, 1, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, "2025-01-01", DateString(instant, nil))
	assert.Equal(t, "2025-01-02", DateString(instant, time.FixedZone("JST", 9*3600)))
}

func TestTakenMedicationEvent_Matches(t *testing.T) {
	e := TakenMedicationEvent{MedicationName: "Aspirin", TimeSlot: SlotMorning, Date: "2025-01-01"}

	assert.True(t, e.Matches("Aspirin", SlotMorning, "2025-01-01"))
	assert.False(t, e.Matches("Aspirin", SlotEvening, "2025-01-01"))
	assert.False(t, e.Matches("Aspirin", SlotMorning, "2025-01-02"))
	assert.False(t, e.Matches("aspirin", SlotMorning, "2025-01-01"))
}
