package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrGuardViolation     = errors.New("transición de carrito no permitida")
	ErrValidation         = errors.New("datos de pago inválidos")
	ErrDependencyFailure  = errors.New("falla de un colaborador externo")
	ErrConsistencyTimeout = errors.New("la cuenta por cobrar no fue materializada a tiempo")
)

// GuardViolation indica que una precondición de la máquina de estados del carrito no se cumplió.
// Nunca se reintenta: el mensaje se muestra tal cual al usuario.
type GuardViolation struct {
	Rule    string // ej: "customer_required", "empty_cart", "invalid_transition"
	Message string
}

func (e *GuardViolation) Error() string { return e.Message }

// Unwrap permite errors.Is(err, ErrGuardViolation).
func (e *GuardViolation) Unwrap() error { return ErrGuardViolation }

// NewGuardViolation construye el error de guarda.
func NewGuardViolation(rule, format string, args ...any) *GuardViolation {
	return &GuardViolation{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// ValidationError entrada de pago que el usuario debe corregir.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// StepError falla de un paso de pipeline contra un colaborador (almacenamiento, catálogo).
// Required distingue un paso obligatorio (aborta) de un enriquecimiento best-effort (se registra y se ignora).
type StepError struct {
	Step     string
	Required bool
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("paso %s: %v", e.Step, e.Err)
}

// Is hace que errors.Is(err, ErrDependencyFailure) sea verdadero sin perder la causa original.
func (e *StepError) Is(target error) bool { return target == ErrDependencyFailure }

func (e *StepError) Unwrap() error { return e.Err }

// Required envuelve err como falla de un paso obligatorio. Devuelve nil si err es nil.
func Required(step string, err error) error {
	if err == nil {
		return nil
	}
	var se *StepError
	if errors.As(err, &se) {
		return err
	}
	return &StepError{Step: step, Required: true, Err: err}
}

// ConsistencyTimeout la cuenta por cobrar creada por trigger no se pudo leer tras los reintentos.
// La venta y la factura ya persistidas quedan en su lugar.
type ConsistencyTimeout struct {
	Step      string
	Attempts  int
	InvoiceID string
	SaleID    string
	Err       error
}

func (e *ConsistencyTimeout) Error() string {
	return fmt.Sprintf("paso %s: cuenta por cobrar de la factura %s no encontrada tras %d intentos", e.Step, e.InvoiceID, e.Attempts)
}

func (e *ConsistencyTimeout) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConsistencyTimeout}
	}
	return []error{ErrConsistencyTimeout, e.Err}
}
