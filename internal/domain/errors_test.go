package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/pos-api/internal/domain"
)

func TestStepError_EsDependencyFailureYConservaCausa(t *testing.T) {
	cause := fmt.Errorf("insert sale: %w", domain.ErrConflict)
	err := domain.Required("create_sale", cause)

	assert.True(t, errors.Is(err, domain.ErrDependencyFailure))
	assert.True(t, errors.Is(err, domain.ErrConflict), "la causa original sigue accesible")

	var se *domain.StepError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, "create_sale", se.Step)
	assert.True(t, se.Required)
}

func TestRequired_NoReenvuelve(t *testing.T) {
	assert.Nil(t, domain.Required("x", nil))

	inner := domain.Required("create_invoice", errors.New("boom"))
	outer := domain.Required("hold_with_debt", inner)
	var se *domain.StepError
	assert.True(t, errors.As(outer, &se))
	assert.Equal(t, "create_invoice", se.Step, "se conserva el paso que falló primero")
}

func TestConsistencyTimeout(t *testing.T) {
	err := &domain.ConsistencyTimeout{Step: "fetch_receivable", Attempts: 3, InvoiceID: "inv-1"}
	assert.True(t, errors.Is(err, domain.ErrConsistencyTimeout))
	assert.Contains(t, err.Error(), "inv-1")
}

func TestGuardAndValidation(t *testing.T) {
	gv := domain.NewGuardViolation("empty_cart", "el carrito %s está vacío", "c1")
	assert.True(t, errors.Is(gv, domain.ErrGuardViolation))
	assert.Equal(t, "el carrito c1 está vacío", gv.Error())

	ve := &domain.ValidationError{Field: "payments[0].reference", Message: "requerida"}
	assert.True(t, errors.Is(ve, domain.ErrValidation))
	assert.Equal(t, "payments[0].reference: requerida", ve.Error())
}
