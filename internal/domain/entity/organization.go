package entity

import "time"

// Organization representa el tenant (comercio) dueño de los carritos y documentos.
type Organization struct {
	ID               string
	Name             string
	TaxID            string
	BaseCurrency     string // código ISO 4217, se copia tal cual en facturas y pagos
	TaxIncluded      bool   // true: los precios de venta ya incluyen impuestos
	InvoicePrefix    string
	CreditNotePrefix string
	Status           string // active, suspended, inactive
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
