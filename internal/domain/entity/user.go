package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleCajero     = "cajero"
)

// User representa un cajero o administrador (pertenece a una Organization y a una sucursal).
type User struct {
	ID             string
	OrganizationID string
	BranchID       string
	Email          string
	PasswordHash   string // bcrypt hash
	Name           string
	Role           string // admin, supervisor, cajero
	Status         string // active, inactive, suspended
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
