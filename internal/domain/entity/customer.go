package entity

import "time"

// Customer representa un cliente de la organización (necesario para ventas a crédito).
type Customer struct {
	ID             string
	OrganizationID string
	Name           string
	TaxID          string
	Email          string
	Phone          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
