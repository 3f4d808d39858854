package billing

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-api/internal/domain"
)

// StepKind distingue un paso obligatorio de un enriquecimiento best-effort.
type StepKind string

const (
	StepRequired   StepKind = "required"
	StepBestEffort StepKind = "best_effort"
)

// StepOutcome resultado de un paso de pipeline.
type StepOutcome struct {
	Step string
	Kind StepKind
	Err  error
}

// OK indica si el paso terminó sin error.
func (o StepOutcome) OK() bool { return o.Err == nil }

// stepLog acumula los resultados de los pasos de una ejecución.
type stepLog struct {
	log      zerolog.Logger
	outcomes []StepOutcome
}

// required registra el paso y devuelve la falla como StepError obligatorio (aborta el pipeline).
func (s *stepLog) required(step string, err error) error {
	s.outcomes = append(s.outcomes, StepOutcome{Step: step, Kind: StepRequired, Err: err})
	if err != nil {
		s.log.Error().Err(err).Str("step", step).Msg("paso obligatorio fallido")
	}
	return domain.Required(step, err)
}

// bestEffort registra el paso; la falla se deja en el log y no se propaga.
func (s *stepLog) bestEffort(step string, err error) bool {
	if err != nil {
		err = &domain.StepError{Step: step, Err: err}
		s.log.Warn().Err(err).Str("step", step).Msg("paso opcional fallido, se continúa")
	}
	s.outcomes = append(s.outcomes, StepOutcome{Step: step, Kind: StepBestEffort, Err: err})
	return err == nil
}

// degraded hay al menos un paso best-effort fallido.
func (s *stepLog) degraded() bool {
	for _, o := range s.outcomes {
		if o.Kind == StepBestEffort && o.Err != nil {
			return true
		}
	}
	return false
}

// commitError los errores de dominio salen tal cual; las fallas de infraestructura de la transacción
// se reportan como falla del paso indicado.
func commitError(step string, err error) error {
	if err == nil {
		return nil
	}
	for _, target := range []error{domain.ErrNotFound, domain.ErrConflict, domain.ErrGuardViolation, domain.ErrValidation, domain.ErrInvalidInput} {
		if errors.Is(err, target) {
			return err
		}
	}
	return domain.Required(step, err)
}
