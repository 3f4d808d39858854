package entity

// Session valores de alcance que acompañan a cada fila persistida.
// Se extraen del JWT (usuario, organización, sucursal y rol del cajero).
type Session struct {
	UserID         string
	OrganizationID string
	BranchID       string
	Role           string
}
