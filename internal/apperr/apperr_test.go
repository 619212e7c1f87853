package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMetadataFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, MetadataFor(CodeNotFound).HTTPStatus)
	assert.Equal(t, http.StatusUnprocessableEntity, MetadataFor(CodeStateConflict).HTTPStatus)
	assert.Equal(t, http.StatusTooManyRequests, MetadataFor(CodeRateLimited).HTTPStatus)
	assert.Equal(t, http.StatusInternalServerError, MetadataFor(Code("nope")).HTTPStatus)
}

func TestAsThroughWrapping(t *testing.T) {
	base := New(CodeConflict, "dish already exists")
	wrapped := fmt.Errorf("creating dish: %w", base)

	typed := As(wrapped)
	require.NotNil(t, typed)
	assert.Equal(t, CodeConflict, typed.Code())
	assert.True(t, Is(wrapped, CodeConflict))
	assert.Nil(t, As(errors.New("plain")))
}

func TestFromDB(t *testing.T) {
	assert.Nil(t, FromDB(nil, "dish"))

	err := FromDB(gorm.ErrRecordNotFound, "dish")
	assert.True(t, Is(err, CodeNotFound))
	assert.Equal(t, "dish not found", As(err).Message())

	err = FromDB(&pgconn.PgError{Code: "23505"}, "customer")
	assert.True(t, Is(err, CodeConflict))

	err = FromDB(errors.New("UNIQUE constraint failed: items.name"), "item")
	assert.True(t, Is(err, CodeConflict))

	err = FromDB(errors.New("FOREIGN KEY constraint failed"), "dish")
	assert.True(t, Is(err, CodeConflict))

	err = FromDB(errors.New("disk I/O error"), "dish")
	assert.True(t, Is(err, CodeInternal))

	typed := Validation("price", "must be positive")
	assert.Same(t, typed, FromDB(typed, "dish"))
}
