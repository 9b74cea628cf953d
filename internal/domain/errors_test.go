package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsUnwrapToSentinels(t *testing.T) {
	stock := fmt.Errorf("create bill: %w", &InsufficientStockError{ProductID: 7, ProductName: "Soap Bar", Available: 3, Requested: 5})
	assert.True(t, errors.Is(stock, ErrInsufficientStock))
	assert.Equal(t, "create bill: Insufficient stock for Soap Bar. Available: 3, Requested: 5", stock.Error())

	var ise *InsufficientStockError
	assert.True(t, errors.As(stock, &ise))
	assert.Equal(t, int64(7), ise.ProductID)

	nf := &NotFoundError{Resource: "Product", ID: 42}
	assert.True(t, errors.Is(nf, ErrNotFound))
	assert.Equal(t, "Product with ID 42 not found", nf.Error())

	assert.True(t, errors.Is(Invalid("quantity must be > 0"), ErrInvalidInput))
	assert.True(t, errors.Is(&TransitionError{From: "completed", To: "cancelled"}, ErrInvalidTransition))
}
