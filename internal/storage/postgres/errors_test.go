package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/brandconnect/brandconnect-be/internal/storage"
)

func TestMapError(t *testing.T) {
	wrap := func(code string) error {
		return fmt.Errorf("insert offer: %w", &pgconn.PgError{Code: code, Message: "rejected", ConstraintName: "offers_campaign_id_fkey"})
	}

	cases := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, storage.ErrNotFound},
		{"unique violation", wrap("23505"), storage.ErrAlreadyExists},
		{"foreign key", wrap("23503"), storage.ErrNotFound},
		{"check violation", wrap("23514"), storage.ErrInvalidValue},
		{"numeric overflow", wrap("22003"), storage.ErrInvalidValue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tc.err), tc.want)
		})
	}

	other := errors.New("connection reset")
	assert.Equal(t, other, mapError(other))
}
