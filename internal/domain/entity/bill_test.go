package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-kpi-api/internal/domain"
)

func TestBill_TransitionTo(t *testing.T) {
	cases := []struct {
		name    string
		from    BillStatus
		to      BillStatus
		restore bool
		err     error
	}{
		{"pending a cancelled repone stock", BillStatusPending, BillStatusCancelled, true, nil},
		{"pending a completed sin efecto en stock", BillStatusPending, BillStatusCompleted, false, nil},
		{"pending a pending es no-op", BillStatusPending, BillStatusPending, false, nil},
		{"completed es terminal", BillStatusCompleted, BillStatusCancelled, false, domain.ErrInvalidTransition},
		{"cancelled es terminal", BillStatusCancelled, BillStatusCancelled, false, domain.ErrInvalidTransition},
		{"cancelled no vuelve a pending", BillStatusCancelled, BillStatusPending, false, domain.ErrInvalidTransition},
		{"estado desconocido", BillStatusPending, BillStatus("refunded"), false, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := &Bill{Status: tc.from}
			restore, err := b.TransitionTo(tc.to)
			if tc.err != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tc.err), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.restore, restore)
		})
	}
}

func TestParseBillStatus(t *testing.T) {
	st, err := ParseBillStatus("completed")
	require.NoError(t, err)
	assert.Equal(t, BillStatusCompleted, st)

	_, err = ParseBillStatus("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBill_CanBeViewedBy(t *testing.T) {
	b := &Bill{UserID: 2}
	assert.True(t, b.CanBeViewedBy(2, RoleUser))
	assert.True(t, b.CanBeViewedBy(1, RoleManager))
	assert.False(t, b.CanBeViewedBy(3, RoleUser))
}

func TestProductPatch_Apply(t *testing.T) {
	name := "Soap Bar XL"
	stock := 40
	p := &Product{Name: "Soap Bar", StockQuantity: 5, MinStockThreshold: 10}
	ProductPatch{Name: &name, StockQuantity: &stock}.Apply(p)

	assert.Equal(t, "Soap Bar XL", p.Name)
	assert.Equal(t, 40, p.StockQuantity)
	assert.Equal(t, 10, p.MinStockThreshold, "campos ausentes no cambian")
	assert.False(t, p.IsLowStock())
}
