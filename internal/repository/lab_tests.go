package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ankon07/medvault-ai-sub000/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LabTestsRepository lab_tests table
type LabTestsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLabTestsRepository creates the lab tests repository
func NewLabTestsRepository(db *sql.DB, logger *zap.Logger) *LabTestsRepository {
	return &LabTestsRepository{
		db:     db,
		logger: logger,
	}
}

// CreateLabTest inserts a lab test into the profile partition
func (r *LabTestsRepository) CreateLabTest(ctx context.Context, profileID string, test *models.LabTest) error {
	if profileID == "" {
		return fmt.Errorf("profile_id is required")
	}
	if test.ID == "" {
		test.ID = uuid.New().String()
	}
	test.ProfileID = profileID

	resultsJSON, err := json.Marshal(test.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal lab results: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO lab_tests (lab_test_id, profile_id, created_at, test_name, test_date, image_ref, results)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, test.ID, profileID, test.CreatedAt, test.TestName, test.TestDate, test.ImageRef, resultsJSON)
	if err != nil {
		return fmt.Errorf("failed to create lab test: %w", err)
	}
	return nil
}

// ListLabTests newest first
func (r *LabTestsRepository) ListLabTests(ctx context.Context, profileID string) ([]models.LabTest, error) {
	if profileID == "" {
		return nil, fmt.Errorf("profile_id is required")
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT lab_test_id, profile_id, created_at, test_name, test_date, image_ref, results
		FROM lab_tests
		WHERE profile_id = $1
		ORDER BY created_at DESC
	`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lab tests: %w", err)
	}
	defer rows.Close()

	tests := make([]models.LabTest, 0)
	for rows.Next() {
		var t models.LabTest
		var testDate, imageRef sql.NullString
		var resultsJSON []byte
		if err := rows.Scan(&t.ID, &t.ProfileID, &t.CreatedAt, &t.TestName, &testDate, &imageRef, &resultsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan lab test: %w", err)
		}
		t.TestDate = testDate.String
		t.ImageRef = imageRef.String
		if len(resultsJSON) > 0 {
			if err := json.Unmarshal(resultsJSON, &t.Results); err != nil {
				return nil, fmt.Errorf("failed to unmarshal lab results for %s: %w", t.ID, err)
			}
		}
		tests = append(tests, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lab tests: %w", err)
	}
	return tests, nil
}

// DeleteLabTest removes one lab test
func (r *LabTestsRepository) DeleteLabTest(ctx context.Context, profileID, labTestID string) error {
	if profileID == "" {
		return fmt.Errorf("profile_id is required")
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM lab_tests WHERE lab_test_id = $1 AND profile_id = $2`,
		labTestID, profileID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete lab test: %w", err)
	}
	return requireAffected(res, "lab test", labTestID)
}
