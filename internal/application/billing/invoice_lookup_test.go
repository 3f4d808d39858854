package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-api/internal/application/billing"
	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
)

func TestParseInvoiceNumber(t *testing.T) {
	cases := []struct {
		notes  string
		number string
		ok     bool
	}{
		{"Factura: FV-000123 | Vence: 2026-03-31", "FV-000123", true},
		{"Factura:FV-1", "FV-1", true},
		{"pendiente | Factura:   NC7 | Vence: 2026-01-01", "NC7", true},
		{"sin factura", "", false},
		{"Factura:   ", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		number, ok := billing.ParseInvoiceNumber(tc.notes)
		assert.Equal(t, tc.ok, ok, tc.notes)
		assert.Equal(t, tc.number, number, tc.notes)
	}
}

func TestInvoiceLookup_FacturaDelCarritoEnDeuda(t *testing.T) {
	f := newFixture()
	held := holdDebt(t, f, "cust-1", [2]string{"p1", "1000"}, [2]string{"p2", "500"})

	uc := billing.NewInvoiceLookupUseCase(f.carts, memInvoices{f.db}, fakeCustomers{})
	resp, err := uc.GetForCart(context.Background(), sess, held.Cart.ID)
	require.NoError(t, err)

	assert.Equal(t, held.Invoice.Number, resp.Invoice.Number)
	assert.Len(t, resp.Invoice.Items, 2)
	require.NotNil(t, resp.Customer)
	assert.Equal(t, "Ana Pérez", resp.Customer.Name)
}

func TestInvoiceLookup_CarritoSinFactura(t *testing.T) {
	f := newFixture()
	c := f.addCart("cust-1", "0", [2]string{"p1", "1000"})

	uc := billing.NewInvoiceLookupUseCase(f.carts, memInvoices{f.db}, fakeCustomers{})
	_, err := uc.GetForCart(context.Background(), sess, c.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReconciliation_ListaSoloTareasAbiertas(t *testing.T) {
	f := newFixture()
	resolved := clock
	f.db.st.tasks = []entity.ReconciliationTask{
		{ID: "t1", OrganizationID: orgID, Kind: entity.ReconciliationMissingReceivable, InvoiceID: "inv-1", CreatedAt: clock},
		{ID: "t2", OrganizationID: orgID, Kind: entity.ReconciliationMissingReceivable, InvoiceID: "inv-2", ResolvedAt: &resolved},
		{ID: "t3", OrganizationID: "otra-org", Kind: entity.ReconciliationMissingReceivable},
	}

	tasks, err := billing.NewReconciliationUseCase(memReconciliation{f.db}).ListOpen(context.Background(), sess)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t1", tasks[0].ID)
	assert.Equal(t, "inv-1", tasks[0].InvoiceID)
}

func TestInvoiceLookup_TrasTimeoutLaTareaQuedaListada(t *testing.T) {
	f := newFixture()
	f.cfg.ReceivableMode = billing.ReceivableModeTrigger
	c := f.addCart("cust-1", "0", [2]string{"p1", "1000"})

	_, err := newHoldWithDebt(f, &sleepRecorder{}).Execute(context.Background(), sess, c.ID, dto.HoldWithDebtRequest{})
	require.ErrorIs(t, err, domain.ErrConsistencyTimeout)

	tasks, err := billing.NewReconciliationUseCase(memReconciliation{f.db}).ListOpen(context.Background(), sess)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.WithinDuration(t, clock, tasks[0].CreatedAt, time.Second)
}
