package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ankon07/medvault-ai-sub000/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// TakenMedicationsRepository taken_medications table.
// Uniqueness of (medication_name, time_slot, taken_date) is not enforced here; callers check first.
type TakenMedicationsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTakenMedicationsRepository creates the taken medications repository
func NewTakenMedicationsRepository(db *sql.DB, logger *zap.Logger) *TakenMedicationsRepository {
	return &TakenMedicationsRepository{
		db:     db,
		logger: logger,
	}
}

const takenColumns = `event_id, profile_id, medication_name, time_slot, taken_date, taken_at, source_id, dosage`

// CreateTakenEvent appends one event to the profile partition
func (r *TakenMedicationsRepository) CreateTakenEvent(ctx context.Context, profileID string, event *models.TakenMedicationEvent) error {
	if profileID == "" {
		return fmt.Errorf("profile_id is required")
	}
	if !event.TimeSlot.Valid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidTimeSlot, event.TimeSlot)
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	event.ProfileID = profileID

	query := `
		INSERT INTO taken_medications (` + takenColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		profileID,
		event.MedicationName,
		string(event.TimeSlot),
		event.Date,
		event.TakenAt,
		event.SourceID,
		event.Dosage,
	)
	if err != nil {
		return fmt.Errorf("failed to create taken event: %w", err)
	}
	return nil
}

// ListTakenEvents returns every event of the profile, most recent first
func (r *TakenMedicationsRepository) ListTakenEvents(ctx context.Context, profileID string) ([]models.TakenMedicationEvent, error) {
	if profileID == "" {
		return nil, fmt.Errorf("profile_id is required")
	}
	query := `
		SELECT ` + takenColumns + `
		FROM taken_medications
		WHERE profile_id = $1
		ORDER BY taken_at DESC
	`
	return r.query(ctx, query, profileID)
}

// ListTakenEventsByDate direct read of one day's events, optionally restricted to slots
func (r *TakenMedicationsRepository) ListTakenEventsByDate(ctx context.Context, profileID, date string, slots []models.TimeSlot) ([]models.TakenMedicationEvent, error) {
	if profileID == "" {
		return nil, fmt.Errorf("profile_id is required")
	}
	if len(slots) == 0 {
		query := `
			SELECT ` + takenColumns + `
			FROM taken_medications
			WHERE profile_id = $1 AND taken_date = $2
			ORDER BY taken_at
		`
		return r.query(ctx, query, profileID, date)
	}

	slotNames := make([]string, 0, len(slots))
	for _, s := range slots {
		slotNames = append(slotNames, string(s))
	}
	query := `
		SELECT ` + takenColumns + `
		FROM taken_medications
		WHERE profile_id = $1 AND taken_date = $2 AND time_slot = ANY($3)
		ORDER BY taken_at
	`
	return r.query(ctx, query, profileID, date, pq.Array(slotNames))
}

// ListTakenEventsBetween events with from <= taken_date <= to (inclusive day strings)
func (r *TakenMedicationsRepository) ListTakenEventsBetween(ctx context.Context, profileID, from, to string) ([]models.TakenMedicationEvent, error) {
	if profileID == "" {
		return nil, fmt.Errorf("profile_id is required")
	}
	query := `
		SELECT ` + takenColumns + `
		FROM taken_medications
		WHERE profile_id = $1 AND taken_date >= $2 AND taken_date <= $3
		ORDER BY taken_date, taken_at
	`
	return r.query(ctx, query, profileID, from, to)
}

func (r *TakenMedicationsRepository) query(ctx context.Context, query string, args ...any) ([]models.TakenMedicationEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query taken events: %w", err)
	}
	defer rows.Close()

	events := make([]models.TakenMedicationEvent, 0)
	for rows.Next() {
		var ev models.TakenMedicationEvent
		var slot string
		var dosage sql.NullString
		if err := rows.Scan(
			&ev.ID,
			&ev.ProfileID,
			&ev.MedicationName,
			&slot,
			&ev.Date,
			&ev.TakenAt,
			&ev.SourceID,
			&dosage,
		); err != nil {
			return nil, fmt.Errorf("failed to scan taken event: %w", err)
		}
		ev.TimeSlot = models.TimeSlot(slot)
		if dosage.Valid {
			ev.Dosage = &dosage.String
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate taken events: %w", err)
	}
	return events, nil
}
