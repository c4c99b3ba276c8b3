package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/ankon07/medvault-ai-sub000/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockRecordsDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *RecordsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return db, mock, NewRecordsRepository(db, zap.NewNop())
}

func analysisBytes(t *testing.T, a models.Analysis) []byte {
	b, err := json.Marshal(a)
	require.NoError(t, err)
	return b
}

func TestCreateRecord_Success(t *testing.T) {
	db, mock, repo := setupMockRecordsDB(t)
	defer db.Close()

	rec := &models.Record{
		ID:        "rec-1",
		CreatedAt: time.Now(),
		ImageRef:  "blob://scan-1",
		Analysis: models.Analysis{
			DocumentType: "prescription",
			Medications:  []models.Medication{{Name: "Amoxicillin", TotalPills: models.IntPtr(10)}},
		},
	}

	mock.ExpectExec(`INSERT INTO records`).
		WithArgs("rec-1", "profile-1", rec.CreatedAt, "blob://scan-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreateRecord(context.Background(), "profile-1", rec)

	require.NoError(t, err)
	assert.Equal(t, "profile-1", rec.ProfileID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRecord_AssignsID(t *testing.T) {
	db, mock, repo := setupMockRecordsDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO records`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := &models.Record{CreatedAt: time.Now()}
	require.NoError(t, repo.CreateRecord(context.Background(), "profile-1", rec))
	assert.NotEmpty(t, rec.ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRecord_DuplicateID(t *testing.T) {
	db, mock, repo := setupMockRecordsDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO records`).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.CreateRecord(context.Background(), "profile-1", &models.Record{ID: "rec-1"})

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRecord_RequiresProfile(t *testing.T) {
	db, mock, repo := setupMockRecordsDB(t)
	defer db.Close()

	err := repo.CreateRecord(context.Background(), "", &models.Record{ID: "rec-1"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "profile_id is required")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecords_Success(t *testing.T) {
	db, mock, repo := setupMockRecordsDB(t)
	defer db.Close()

	newer := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	older := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"record_id", "profile_id", "created_at", "image_ref", "analysis"}).
		AddRow("rec-2", "profile-1", newer, "blob://2", analysisBytes(t, models.Analysis{DocumentType: "lab_report"})).
		AddRow("rec-1", "profile-1", older, nil, analysisBytes(t, models.Analysis{
			DocumentType: "prescription",
			Medications:  []models.Medication{{Name: "Ibuprofen", PillsRemaining: models.IntPtr(4)}},
		}))

	mock.ExpectQuery(`SELECT`).
		WithArgs("profile-1").
		WillReturnRows(rows)

	records, err := repo.ListRecords(context.Background(), "profile-1")

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "rec-2", records[0].ID)
	assert.Equal(t, "lab_report", records[0].Analysis.DocumentType)
	assert.Equal(t, "", records[1].ImageRef)
	require.Len(t, records[1].Analysis.Medications, 1)
	assert.Equal(t, 4, *records[1].Analysis.Medications[0].PillsRemaining)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRecord_NotFound(t *testing.T) {
	db, mock, repo := setupMockRecordsDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).
		WithArgs("rec-9", "profile-1").
		WillReturnError(sql.ErrNoRows)

	rec, err := repo.GetRecord(context.Background(), "profile-1", "rec-9")

	assert.Nil(t, rec)
	assert.ErrorIs(t, err, models.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRecord_Success(t *testing.T) {
	db, mock, repo := setupMockRecordsDB(t)
	defer db.Close()

	analysis := models.Analysis{Medications: []models.Medication{{Name: "Amoxicillin", PillsRemaining: models.IntPtr(9)}}}

	mock.ExpectExec(`UPDATE records`).
		WithArgs("rec-1", "profile-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateRecord(context.Background(), "profile-1", "rec-1", models.RecordPatch{Analysis: &analysis})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRecord_NotFound(t *testing.T) {
	db, mock, repo := setupMockRecordsDB(t)
	defer db.Close()

	ref := "blob://new"
	mock.ExpectExec(`UPDATE records`).
		WithArgs("rec-1", "profile-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateRecord(context.Background(), "profile-1", "rec-1", models.RecordPatch{ImageRef: &ref})

	assert.ErrorIs(t, err, models.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRecord_Success(t *testing.T) {
	db, mock, repo := setupMockRecordsDB(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM records`).
		WithArgs("rec-1", "profile-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteRecord(context.Background(), "profile-1", "rec-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
