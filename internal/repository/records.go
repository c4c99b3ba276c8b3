package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ankon07/medvault-ai-sub000/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// RecordsRepository records table, partitioned by profile_id
type RecordsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRecordsRepository creates the records repository
func NewRecordsRepository(db *sql.DB, logger *zap.Logger) *RecordsRepository {
	return &RecordsRepository{
		db:     db,
		logger: logger,
	}
}

const recordColumns = `record_id, profile_id, created_at, image_ref, analysis`

// CreateRecord inserts a record into the profile partition. An empty ID is assigned a UUID.
// A duplicate ID yields models.ErrAlreadyExists.
func (r *RecordsRepository) CreateRecord(ctx context.Context, profileID string, record *models.Record) error {
	if profileID == "" {
		return fmt.Errorf("profile_id is required")
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	record.ProfileID = profileID

	analysisJSON, err := json.Marshal(record.Analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	query := `
		INSERT INTO records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = r.db.ExecContext(ctx, query,
		record.ID,
		profileID,
		record.CreatedAt,
		record.ImageRef,
		analysisJSON,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("record %s: %w", record.ID, models.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create record: %w", err)
	}
	return nil
}

// ListRecords returns every record of the profile, newest first
func (r *RecordsRepository) ListRecords(ctx context.Context, profileID string) ([]models.Record, error) {
	if profileID == "" {
		return nil, fmt.Errorf("profile_id is required")
	}

	query := `
		SELECT ` + recordColumns + `
		FROM records
		WHERE profile_id = $1
		ORDER BY created_at DESC, record_id
	`
	rows, err := r.db.QueryContext(ctx, query, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := make([]models.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}

// GetRecord point read inside one profile partition
func (r *RecordsRepository) GetRecord(ctx context.Context, profileID, recordID string) (*models.Record, error) {
	if profileID == "" {
		return nil, fmt.Errorf("profile_id is required")
	}
	if recordID == "" {
		return nil, fmt.Errorf("record_id is required")
	}

	query := `
		SELECT ` + recordColumns + `
		FROM records
		WHERE record_id = $1 AND profile_id = $2
	`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, recordID, profileID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("record %s in profile %s: %w", recordID, profileID, models.ErrNotFound)
		}
		return nil, err
	}
	return rec, nil
}

// UpdateRecord applies a patch; nil patch fields keep their stored value
func (r *RecordsRepository) UpdateRecord(ctx context.Context, profileID, recordID string, patch models.RecordPatch) error {
	if profileID == "" {
		return fmt.Errorf("profile_id is required")
	}

	var imageRef sql.NullString
	if patch.ImageRef != nil {
		imageRef = sql.NullString{String: *patch.ImageRef, Valid: true}
	}
	var analysisJSON []byte
	if patch.Analysis != nil {
		b, err := json.Marshal(patch.Analysis)
		if err != nil {
			return fmt.Errorf("failed to marshal analysis: %w", err)
		}
		analysisJSON = b
	}

	query := `
		UPDATE records
		SET image_ref = COALESCE($3, image_ref),
		    analysis = COALESCE($4::jsonb, analysis)
		WHERE record_id = $1 AND profile_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, recordID, profileID, imageRef, analysisJSON)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return requireAffected(res, "record", recordID)
}

// DeleteRecord removes one record
func (r *RecordsRepository) DeleteRecord(ctx context.Context, profileID, recordID string) error {
	if profileID == "" {
		return fmt.Errorf("profile_id is required")
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM records WHERE record_id = $1 AND profile_id = $2`,
		recordID, profileID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return requireAffected(res, "record", recordID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var rec models.Record
	var imageRef sql.NullString
	var analysisJSON []byte

	if err := row.Scan(&rec.ID, &rec.ProfileID, &rec.CreatedAt, &imageRef, &analysisJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}
	rec.ImageRef = imageRef.String
	if len(analysisJSON) > 0 {
		if err := json.Unmarshal(analysisJSON, &rec.Analysis); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis for record %s: %w", rec.ID, err)
		}
	}
	return &rec, nil
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, models.ErrNotFound)
	}
	return nil
}
