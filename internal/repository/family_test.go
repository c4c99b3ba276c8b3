package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/ankon07/medvault-ai-sub000/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockFamilyDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *FamilyRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return db, mock, NewFamilyRepository(db, zap.NewNop())
}

func TestGetFamilyForProfile_Success(t *testing.T) {
	db, mock, repo := setupMockFamilyDB(t)
	defer db.Close()

	mock.ExpectQuery(`FROM families f`).
		WithArgs("profile-2").
		WillReturnRows(sqlmock.NewRows([]string{"family_id", "family_name", "owner_profile_id"}).
			AddRow("fam-1", "Rahman", "profile-1"))

	mock.ExpectQuery(`FROM family_members`).
		WithArgs("fam-1").
		WillReturnRows(sqlmock.NewRows([]string{"profile_id", "role", "display_name"}).
			AddRow("profile-1", "owner", "Ana").
			AddRow("profile-2", "member", nil))

	family, err := repo.GetFamilyForProfile(context.Background(), "profile-2")

	require.NoError(t, err)
	require.NotNil(t, family)
	assert.Equal(t, "fam-1", family.ID)
	assert.Equal(t, "profile-1", family.OwnerID)
	require.Len(t, family.Members, 2)
	assert.Equal(t, models.RoleMember, family.Members[1].Role)
	assert.Equal(t, []string{"profile-1", "profile-2"}, family.MemberProfileIDs())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetFamilyForProfile_Solo(t *testing.T) {
	db, mock, repo := setupMockFamilyDB(t)
	defer db.Close()

	mock.ExpectQuery(`FROM families f`).
		WithArgs("profile-1").
		WillReturnError(sql.ErrNoRows)

	family, err := repo.GetFamilyForProfile(context.Background(), "profile-1")

	require.NoError(t, err)
	assert.Nil(t, family)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMemberProfileIDs_NotFound(t *testing.T) {
	db, mock, repo := setupMockFamilyDB(t)
	defer db.Close()

	mock.ExpectQuery(`FROM families`).
		WithArgs("fam-x").
		WillReturnError(sql.ErrNoRows)

	ids, err := repo.GetMemberProfileIDs(context.Background(), "fam-x")

	assert.Nil(t, ids)
	assert.ErrorIs(t, err, models.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
