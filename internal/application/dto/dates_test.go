package dto_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-kpi-api/internal/application/dto"
	"github.com/jhoicas/retail-kpi-api/internal/domain"
)

func TestParseDateRange(t *testing.T) {
	from, to, err := dto.ParseDateRange("2026-01-01", "2026-01-31")
	require.NoError(t, err)
	assert.Equal(t, 1, from.Day())
	assert.Equal(t, time.February, to.Month(), "date_to es inclusivo")

	_, _, err = dto.ParseDateRange("2026-02-01", "2026-01-01")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = dto.ParseDateRange("01/02/2026", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	from, to, err = dto.ParseDateRange("", "")
	require.NoError(t, err)
	assert.True(t, from.IsZero())
	assert.True(t, to.IsZero())
}

func TestPagination(t *testing.T) {
	p := dto.PageRequest{Page: 0, Limit: 500}
	p.Normalize(20, 100)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.Limit)
	assert.Equal(t, 0, p.Offset())

	p = dto.PageRequest{Page: 3}
	p.Normalize(20, 100)
	assert.Equal(t, 40, p.Offset())
	assert.Equal(t, 3, dto.NewPagination(p, 41).TotalPages)
}
