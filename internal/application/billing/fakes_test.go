package billing_test

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/application/billing"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/infrastructure/cache"
)

// ──────────────────────────────────────────────────────────────────────────────
// Base de datos en memoria con transacciones y savepoints por snapshot
// ──────────────────────────────────────────────────────────────────────────────

type memState struct {
	sales        map[string]entity.Sale
	saleItems    []entity.SaleItem
	invoices     map[string]entity.Invoice
	invoiceItems []entity.InvoiceItem
	payments     []entity.Payment
	receivables  map[string]entity.AccountReceivable
	sequences    map[string]int
	tasks        []entity.ReconciliationTask
}

func newMemState() *memState {
	return &memState{
		sales:       map[string]entity.Sale{},
		invoices:    map[string]entity.Invoice{},
		receivables: map[string]entity.AccountReceivable{},
		sequences:   map[string]int{},
	}
}

func (s *memState) clone() *memState {
	out := newMemState()
	for k, v := range s.sales {
		out.sales[k] = v
	}
	for k, v := range s.invoices {
		out.invoices[k] = v
	}
	for k, v := range s.receivables {
		out.receivables[k] = v
	}
	for k, v := range s.sequences {
		out.sequences[k] = v
	}
	out.saleItems = append(out.saleItems, s.saleItems...)
	out.invoiceItems = append(out.invoiceItems, s.invoiceItems...)
	out.payments = append(out.payments, s.payments...)
	out.tasks = append(out.tasks, s.tasks...)
	return out
}

// memDB implementa BillingTxRunner, Savepointer y todos los repos de facturación.
// fail["invoices.Create"] = err hace fallar esa operación.
// trigger=true emula trg_invoice_sales_receivable: al insertar una factura emitida crea su cuenta por cobrar.
// hiddenReads cantidad de lecturas fuera de transacción que aún no ven esa cuenta.
// afterCommit corre justo después de confirmar la transacción.
type memDB struct {
	st          *memState
	fail        map[string]error
	trigger     bool
	hiddenReads int
	commitErr   error
	afterCommit func()
}

func newMemDB() *memDB {
	return &memDB{st: newMemState(), fail: map[string]error{}}
}

func (db *memDB) repos() billing.BillingRepos {
	return billing.BillingRepos{
		Sales:          memSales{db},
		Invoices:       memInvoices{db},
		Payments:       memPayments{db},
		Receivables:    memReceivables{db},
		Sequences:      memSequences{db},
		Reconciliation: memReconciliation{db},
	}
}

func (db *memDB) RunBilling(ctx context.Context, fn func(repos billing.BillingRepos, sp billing.Savepointer) error) error {
	snap := db.st.clone()
	if err := fn(db.repos(), db); err != nil {
		db.st = snap
		return err
	}
	if db.commitErr != nil {
		db.st = snap
		return fmt.Errorf("commit transaction: %w", db.commitErr)
	}
	if db.afterCommit != nil {
		db.afterCommit()
	}
	return nil
}

func (db *memDB) Savepoint(ctx context.Context, fn func(repos billing.BillingRepos) error) error {
	snap := db.st.clone()
	if err := fn(db.repos()); err != nil {
		db.st = snap
		return err
	}
	return nil
}

func (db *memDB) check(op string) error {
	return db.fail[op]
}

func (db *memDB) salesList() []entity.Sale {
	out := make([]entity.Sale, 0, len(db.st.sales))
	for _, s := range db.st.sales {
		out = append(out, s)
	}
	return out
}

func (db *memDB) invoicesByType(docType string) []entity.Invoice {
	var out []entity.Invoice
	for _, inv := range db.st.invoices {
		if inv.DocumentType == docType {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (db *memDB) itemsOf(invoiceID string) []entity.InvoiceItem {
	var out []entity.InvoiceItem
	for _, it := range db.st.invoiceItems {
		if it.InvoiceID == invoiceID {
			out = append(out, it)
		}
	}
	return out
}

type memSales struct{ db *memDB }

func (r memSales) Create(ctx context.Context, s *entity.Sale) error {
	if err := r.db.check("sales.Create"); err != nil {
		return err
	}
	r.db.st.sales[s.ID] = *s
	return nil
}

func (r memSales) CreateItem(ctx context.Context, it *entity.SaleItem) error {
	if err := r.db.check("sales.CreateItem"); err != nil {
		return err
	}
	r.db.st.saleItems = append(r.db.st.saleItems, *it)
	return nil
}

func (r memSales) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	s, ok := r.db.st.sales[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r memSales) FindLatestPendingByCustomer(ctx context.Context, organizationID, customerID string) (*entity.Sale, error) {
	var best *entity.Sale
	for _, s := range r.db.st.sales {
		s := s
		if s.OrganizationID != organizationID || s.CustomerID != customerID || s.Status != entity.SaleStatusPending {
			continue
		}
		if best == nil || s.CreatedAt.After(best.CreatedAt) {
			best = &s
		}
	}
	return best, nil
}

func (r memSales) UpdateBalance(ctx context.Context, s *entity.Sale) error {
	if err := r.db.check("sales.UpdateBalance"); err != nil {
		return err
	}
	r.db.st.sales[s.ID] = *s
	return nil
}

type memInvoices struct{ db *memDB }

func (r memInvoices) Create(ctx context.Context, inv *entity.Invoice) error {
	if err := r.db.check("invoices.Create"); err != nil {
		return err
	}
	if inv.DocumentType == entity.DocumentTypeCreditNote {
		if err := r.db.check("invoices.CreateCreditNote"); err != nil {
			return err
		}
	}
	r.db.st.invoices[inv.ID] = *inv
	if r.db.trigger && inv.DocumentType == entity.DocumentTypeInvoice && inv.Status == entity.InvoiceStatusIssued {
		id := uuid.NewString()
		r.db.st.receivables[id] = entity.AccountReceivable{
			ID: id, OrganizationID: inv.OrganizationID, CustomerID: inv.CustomerID,
			SaleID: inv.SaleID, InvoiceID: inv.ID, Amount: inv.Total, Balance: inv.Balance,
			DueDate: inv.DueDate, Status: entity.PaymentStatusPending,
		}
	}
	return nil
}

func (r memInvoices) CreateItem(ctx context.Context, it *entity.InvoiceItem) error {
	if err := r.db.check("invoices.CreateItem"); err != nil {
		return err
	}
	r.db.st.invoiceItems = append(r.db.st.invoiceItems, *it)
	return nil
}

func (r memInvoices) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	inv, ok := r.db.st.invoices[id]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (r memInvoices) GetByNumber(ctx context.Context, organizationID, number string) (*entity.Invoice, error) {
	for _, inv := range r.db.st.invoices {
		if inv.OrganizationID == organizationID && inv.Number == number {
			inv := inv
			return &inv, nil
		}
	}
	return nil, nil
}

func (r memInvoices) GetBySale(ctx context.Context, saleID, documentType string) (*entity.Invoice, error) {
	for _, inv := range r.db.st.invoices {
		if inv.SaleID == saleID && inv.DocumentType == documentType {
			inv := inv
			return &inv, nil
		}
	}
	return nil, nil
}

func (r memInvoices) GetCreditNoteFor(ctx context.Context, invoiceID string) (*entity.Invoice, error) {
	for _, inv := range r.db.st.invoices {
		if inv.RelatedInvoiceID == invoiceID && inv.DocumentType == entity.DocumentTypeCreditNote {
			inv := inv
			return &inv, nil
		}
	}
	return nil, nil
}

func (r memInvoices) ListItems(ctx context.Context, invoiceID string) ([]*entity.InvoiceItem, error) {
	var out []*entity.InvoiceItem
	for _, it := range r.db.itemsOf(invoiceID) {
		it := it
		out = append(out, &it)
	}
	return out, nil
}

func (r memInvoices) UpdateBalance(ctx context.Context, inv *entity.Invoice) error {
	if err := r.db.check("invoices.UpdateBalance"); err != nil {
		return err
	}
	r.db.st.invoices[inv.ID] = *inv
	return nil
}

type memPayments struct{ db *memDB }

func (r memPayments) Create(ctx context.Context, p *entity.Payment) error {
	if err := r.db.check("payments.Create"); err != nil {
		return err
	}
	r.db.st.payments = append(r.db.st.payments, *p)
	return nil
}

func (r memPayments) ListBySource(ctx context.Context, source entity.PaymentSource) ([]*entity.Payment, error) {
	var out []*entity.Payment
	for _, p := range r.db.st.payments {
		p := p
		if p.Source == source {
			out = append(out, &p)
		}
	}
	return out, nil
}

type memReceivables struct{ db *memDB }

func (r memReceivables) Create(ctx context.Context, ar *entity.AccountReceivable) error {
	if err := r.db.check("receivables.Create"); err != nil {
		return err
	}
	r.db.st.receivables[ar.ID] = *ar
	return nil
}

func (r memReceivables) GetByInvoice(ctx context.Context, invoiceID string) (*entity.AccountReceivable, error) {
	if err := r.db.check("receivables.GetByInvoice"); err != nil {
		return nil, err
	}
	for _, ar := range r.db.st.receivables {
		if ar.InvoiceID == invoiceID {
			ar := ar
			return &ar, nil
		}
	}
	return nil, nil
}

func (r memReceivables) GetBySale(ctx context.Context, saleID string) (*entity.AccountReceivable, error) {
	for _, ar := range r.db.st.receivables {
		if ar.SaleID == saleID {
			ar := ar
			return &ar, nil
		}
	}
	return nil, nil
}

func (r memReceivables) UpdateBalance(ctx context.Context, ar *entity.AccountReceivable) error {
	r.db.st.receivables[ar.ID] = *ar
	return nil
}

// laggingReceivables lectura fuera de transacción que tarda hiddenReads intentos en ver la cuenta del trigger.
type laggingReceivables struct {
	memReceivables
}

func (r laggingReceivables) GetByInvoice(ctx context.Context, invoiceID string) (*entity.AccountReceivable, error) {
	if r.db.hiddenReads > 0 {
		r.db.hiddenReads--
		return nil, nil
	}
	return r.memReceivables.GetByInvoice(ctx, invoiceID)
}

type memSequences struct{ db *memDB }

func (r memSequences) next(org, kind, prefix string) (string, error) {
	if err := r.db.check("sequences." + kind); err != nil {
		return "", err
	}
	key := org + "/" + kind
	r.db.st.sequences[key]++
	return fmt.Sprintf("%s-%06d", prefix, r.db.st.sequences[key]), nil
}

func (r memSequences) NextInvoiceNumber(ctx context.Context, organizationID, prefix string) (string, error) {
	return r.next(organizationID, "invoice", prefix)
}

func (r memSequences) NextCreditNoteNumber(ctx context.Context, organizationID, prefix string) (string, error) {
	return r.next(organizationID, "credit_note", prefix)
}

type memReconciliation struct{ db *memDB }

func (r memReconciliation) Create(ctx context.Context, t *entity.ReconciliationTask) error {
	r.db.st.tasks = append(r.db.st.tasks, *t)
	return nil
}

func (r memReconciliation) ListOpen(ctx context.Context, organizationID string) ([]*entity.ReconciliationTask, error) {
	var out []*entity.ReconciliationTask
	for _, t := range r.db.st.tasks {
		t := t
		if t.OrganizationID == organizationID && t.ResolvedAt == nil {
			out = append(out, &t)
		}
	}
	return out, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Colaboradores
// ──────────────────────────────────────────────────────────────────────────────

// saveFailures cantidad de guardados que fallan antes de volver a funcionar.
type fakeCarts struct {
	store        *cache.MemoryCartStore
	recalcErr    error
	removeErr    error
	saveFailures int
	saveErr      error
}

func (f *fakeCarts) Get(ctx context.Context, sess entity.Session, cartID string) (*entity.Cart, error) {
	c, err := f.store.Get(ctx, sess.OrganizationID, cartID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (f *fakeCarts) Recalculate(ctx context.Context, c *entity.Cart) error { return f.recalcErr }

func (f *fakeCarts) Save(ctx context.Context, c *entity.Cart) error {
	if f.saveFailures > 0 {
		f.saveFailures--
		return f.saveErr
	}
	return f.store.Save(ctx, c)
}

func (f *fakeCarts) Remove(ctx context.Context, c *entity.Cart) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	return f.store.Delete(ctx, c.OrganizationID, c.ID)
}

type fakeProducts struct {
	products map[string]*entity.Product
	err      error
}

func (f *fakeProducts) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products[id], nil
}

func (f *fakeProducts) TaxOverrides(ctx context.Context, productID string) ([]entity.OrganizationTax, error) {
	return nil, nil
}

type fakeOrgs struct {
	invoicePrefix    string
	creditNotePrefix string
}

func (o fakeOrgs) GetByID(ctx context.Context, id string) (*entity.Organization, error) {
	return &entity.Organization{ID: id, BaseCurrency: "COP", InvoicePrefix: o.invoicePrefix, CreditNotePrefix: o.creditNotePrefix}, nil
}

func (fakeOrgs) BaseCurrency(ctx context.Context, organizationID string) (string, error) {
	return "COP", nil
}

type fakeCustomers struct{}

func (fakeCustomers) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	return &entity.Customer{ID: id, OrganizationID: orgID, Name: "Ana Pérez", TaxID: "900123"}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

const orgID = "org-1"

var (
	sess  = entity.Session{UserID: "u-1", OrganizationID: orgID, BranchID: "br-1", Role: entity.RoleCajero}
	clock = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	db       *memDB
	carts    *fakeCarts
	products *fakeProducts
	orgs     fakeOrgs
	cfg      billing.Config
}

func newFixture() *fixture {
	return &fixture{
		db:    newMemDB(),
		carts: &fakeCarts{store: cache.NewMemoryCartStore()},
		products: &fakeProducts{products: map[string]*entity.Product{
			"p1": {ID: "p1", OrganizationID: orgID, Name: "Café", Description: "Café molido 500g"},
			"p2": {ID: "p2", OrganizationID: orgID, Name: "Azúcar"},
		}},
		cfg: billing.DefaultConfig(),
	}
}

// addCart guarda un carrito activo con IVA agregado a la tasa dada sobre las líneas (producto, base).
func (f *fixture) addCart(customerID, taxRate string, lines ...[2]string) *entity.Cart {
	c := &entity.Cart{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		BranchID:       "br-1",
		UserID:         "u-1",
		CustomerID:     customerID,
		Status:         entity.CartStatusActive,
		Items:          []entity.CartItem{},
		CreatedAt:      clock,
	}
	rate := dec(taxRate)
	total, taxTotal, sub := decimal.Zero, decimal.Zero, decimal.Zero
	for _, l := range lines {
		base := dec(l[1])
		tax := base.Mul(rate).Div(decimal.NewFromInt(100))
		c.Items = append(c.Items, entity.CartItem{
			ProductID: l[0], ProductName: "Nombre " + l[0], Quantity: decimal.NewFromInt(1),
			ListPrice: base, UnitPrice: base, TaxRate: rate, TaxAmount: tax,
			DiscountAmount: decimal.Zero, Subtotal: base, Total: base.Add(tax),
		})
		sub = sub.Add(base)
		taxTotal = taxTotal.Add(tax)
		total = total.Add(base).Add(tax)
	}
	c.Subtotal, c.TaxTotal, c.DiscountTotal, c.Total = sub, taxTotal.Round(2), decimal.Zero, total.Round(2)
	if err := f.carts.store.Save(context.Background(), c); err != nil {
		panic(err)
	}
	return c
}

func (f *fixture) cart(id string) *entity.Cart {
	c, _ := f.carts.store.Get(context.Background(), orgID, id)
	return c
}
