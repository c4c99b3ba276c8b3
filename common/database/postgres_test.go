package database

import (
	"errors"
	"testing"

	"github.com/ankon07/medvault-ai-sub000/common/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClose_SkipsNilAndJoinsErrors(t *testing.T) {
	first, firstMock, err := sqlmock.New()
	require.NoError(t, err)
	second, secondMock, err := sqlmock.New()
	require.NoError(t, err)

	firstMock.ExpectClose()
	secondMock.ExpectClose().WillReturnError(errors.New("busy"))

	err = Close(nil, first, second)

	assert.ErrorContains(t, err, "busy")
	require.NoError(t, firstMock.ExpectationsWereMet())
	require.NoError(t, secondMock.ExpectationsWereMet())
	assert.NoError(t, Close())
}

func TestConfigurePool(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectClose()

	configurePool(db, &config.DatabaseConfig{MaxConns: 7, MaxIdle: 2})

	assert.Equal(t, 7, db.Stats().MaxOpenConnections)
}
