package repository

import (
	"context"
	"testing"
	"time"

	"github.com/ankon07/medvault-ai-sub000/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateLabTest_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewLabTestsRepository(db, zap.NewNop())

	test := &models.LabTest{
		CreatedAt: time.Now(),
		TestName:  "CBC",
		Results:   []models.LabResult{{Name: "Hemoglobin", Value: "13.5", Unit: "g/dL"}},
	}

	mock.ExpectExec(`INSERT INTO lab_tests`).
		WithArgs(sqlmock.AnyArg(), "profile-1", test.CreatedAt, "CBC", "", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateLabTest(context.Background(), "profile-1", test))
	assert.NotEmpty(t, test.ID)
	assert.Equal(t, "profile-1", test.ProfileID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListLabTests_DecodesResults(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewLabTestsRepository(db, zap.NewNop())

	created := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"lab_test_id", "profile_id", "created_at", "test_name", "test_date", "image_ref", "results"}).
		AddRow("lt-1", "profile-1", created, "CBC", "2025-01-01", nil, []byte(`[{"name":"Hemoglobin","value":"13.5"}]`)).
		AddRow("lt-2", "profile-1", created, "Lipids", nil, "blob://lt-2", nil)

	mock.ExpectQuery(`SELECT lab_test_id, profile_id, created_at, test_name, test_date, image_ref, results`).
		WithArgs("profile-1").
		WillReturnRows(rows)

	tests, err := repo.ListLabTests(context.Background(), "profile-1")

	require.NoError(t, err)
	require.Len(t, tests, 2)
	assert.Equal(t, "2025-01-01", tests[0].TestDate)
	require.Len(t, tests[0].Results, 1)
	assert.Equal(t, "Hemoglobin", tests[0].Results[0].Name)
	assert.Equal(t, "blob://lt-2", tests[1].ImageRef)
	assert.Empty(t, tests[1].Results)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteLabTest_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewLabTestsRepository(db, zap.NewNop())

	mock.ExpectExec(`DELETE FROM lab_tests`).
		WithArgs("lt-9", "profile-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.DeleteLabTest(context.Background(), "profile-1", "lt-9")

	assert.ErrorIs(t, err, models.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLabTests_RequireProfile(t *testing.T) {
	repo := NewLabTestsRepository(nil, zap.NewNop())

	assert.Error(t, repo.CreateLabTest(context.Background(), "", &models.LabTest{}))
	_, err := repo.ListLabTests(context.Background(), "")
	assert.Error(t, err)
	assert.Error(t, repo.DeleteLabTest(context.Background(), "", "lt-1"))
}
