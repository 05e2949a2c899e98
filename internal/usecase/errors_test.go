package usecase

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDuplicateKeyError(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "uni_users_email"})

	assert.True(t, isDuplicateKeyError(err, "email"))
	assert.False(t, isDuplicateKeyError(err, "phone"))
	assert.False(t, isDuplicateKeyError(errors.New("plain"), "email"))
}

func TestIsForeignKeyError(t *testing.T) {
	err := &pgconn.PgError{Code: "23503", ConstraintName: "medical_records_patient_id_fkey"}

	assert.True(t, isForeignKeyError(err, "patient_id"))
	assert.False(t, isDuplicateKeyError(err, "patient_id"))
}

func TestParseInstant(t *testing.T) {
	got, err := parseInstant("2030-01-15T04:00:00-06:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 1, 15, 10, 0, 0, 0, time.UTC), got)

	_, err = parseInstant("15/01/2030 10:00")
	assert.ErrorIs(t, err, ErrInvalidDate)
}
