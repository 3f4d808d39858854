package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse estado del servicio y de la base de datos.
type HealthResponse struct {
	Status   string `json:"status"` // ok | degraded
	Service  string `json:"service"`
	Database string `json:"database,omitempty"`
}
