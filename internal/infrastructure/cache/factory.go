package cache

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-api/internal/domain/repository"
	"github.com/jhoicas/pos-api/pkg/config"
)

// NewCartStore intenta Redis y, si no responde y no es obligatorio, cae al almacén en memoria.
// El almacén en memoria no se comparte entre procesos: solo sirve para una instancia o desarrollo.
func NewCartStore(cfg config.RedisConfig, log zerolog.Logger) (repository.CartRepository, func() error, error) {
	store, err := NewRedisCartStore(RedisConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err == nil {
		log.Info().Str("addr", cfg.Addr()).Msg("carritos en Redis")
		return store, store.Close, nil
	}
	if cfg.Required {
		return nil, nil, fmt.Errorf("Redis requerido para los carritos pero no disponible: %w", err)
	}
	log.Warn().Err(err).Msg("Redis no disponible, carritos en memoria (no compartidos entre instancias)")
	return NewMemoryCartStore(), func() error { return nil }, nil
}
