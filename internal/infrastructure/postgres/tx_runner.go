package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/pos-api/internal/application/billing"
)

var _ billing.BillingTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool           *pgxpool.Pool
	receivableMode string
}

// NewTxRunner construye el runner con el pool. receivableMode indica quién inserta la cuenta por cobrar
// de las facturas a crédito: la propia transacción (transactional) o el trigger de invoice_sales (trigger).
func NewTxRunner(pool *pgxpool.Pool, receivableMode string) *TxRunner {
	return &TxRunner{pool: pool, receivableMode: receivableMode}
}

// RunBilling inicia una transacción, ejecuta fn con repos de facturación atados a la tx y hace Commit o Rollback.
func (r *TxRunner) RunBilling(ctx context.Context, fn func(repos billing.BillingRepos, sp billing.Savepointer) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if r.receivableMode != billing.ReceivableModeTrigger {
		if _, err := tx.Exec(ctx, `SELECT set_config('pos.receivable_mode', 'transactional', true)`); err != nil {
			return fmt.Errorf("set receivable mode: %w", err)
		}
	}

	if err := fn(billingRepos(tx), savepointer{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func billingRepos(q Querier) billing.BillingRepos {
	return billing.BillingRepos{
		Sales:          NewSaleRepository(q),
		Invoices:       NewInvoiceRepository(q),
		Payments:       NewPaymentRepository(q),
		Receivables:    NewReceivableRepository(q),
		Sequences:      NewSequenceRepository(q),
		Reconciliation: NewReconciliationRepository(q),
	}
}

// savepointer pgx traduce Begin sobre una tx en SAVEPOINT; Rollback vuelve al savepoint sin abortar la tx externa.
type savepointer struct {
	tx pgx.Tx
}

func (s savepointer) Savepoint(ctx context.Context, fn func(repos billing.BillingRepos) error) error {
	sp, err := s.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}
	if err := fn(billingRepos(sp)); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback to savepoint: %w (causa: %v)", rbErr, err)
		}
		return err
	}
	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}
