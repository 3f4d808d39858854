package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var _ repository.CartRepository = (*RedisCartStore)(nil)

const defaultKeyPrefix = "pos:"

// RedisConfig configuración de conexión a Redis.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisCartStore una clave por carrito (pos:cart:{org}:{id}) y un set índice por organización (pos:carts:{org}).
// Save usa WATCH sobre la clave del carrito más el contador Version para no perder escrituras concurrentes.
type RedisCartStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisCartStore abre el cliente y verifica la conexión con un Ping de 5 segundos.
func NewRedisCartStore(cfg RedisConfig) (*RedisCartStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("conectar a Redis: %w", err)
	}
	return NewRedisCartStoreWithClient(client, ""), nil
}

// NewRedisCartStoreWithClient usa un cliente existente (tests o cliente compartido).
func NewRedisCartStoreWithClient(client *redis.Client, keyPrefix string) *RedisCartStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisCartStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisCartStore) cartKey(organizationID, cartID string) string {
	return fmt.Sprintf("%scart:%s:%s", s.keyPrefix, organizationID, cartID)
}

func (s *RedisCartStore) indexKey(organizationID string) string {
	return fmt.Sprintf("%scarts:%s", s.keyPrefix, organizationID)
}

func (s *RedisCartStore) Get(ctx context.Context, organizationID, cartID string) (*entity.Cart, error) {
	raw, err := s.client.Get(ctx, s.cartKey(organizationID, cartID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("leer carrito %s: %w", cartID, err)
	}
	return decodeCart(raw)
}

// ListByOrganization lee el índice y luego todas las claves con un MGET; limpia del índice las que ya no existen.
func (s *RedisCartStore) ListByOrganization(ctx context.Context, organizationID string) ([]*entity.Cart, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey(organizationID)).Result()
	if err != nil {
		return nil, fmt.Errorf("leer índice de carritos: %w", err)
	}
	if len(ids) == 0 {
		return []*entity.Cart{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.cartKey(organizationID, id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("leer carritos: %w", err)
	}
	out := make([]*entity.Cart, 0, len(values))
	var stale []any
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		c, err := decodeCart([]byte(str))
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if len(stale) > 0 {
		_ = s.client.SRem(ctx, s.indexKey(organizationID), stale...).Err()
	}
	sortCarts(out)
	return out, nil
}

func (s *RedisCartStore) Save(ctx context.Context, cart *entity.Cart) error {
	key := s.cartKey(cart.OrganizationID, cart.ID)
	var newVersion int64

	txf := func(tx *redis.Tx) error {
		var stored int64
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			prev, err := decodeCart(raw)
			if err != nil {
				return err
			}
			stored = prev.Version
		}
		if stored != cart.Version {
			return domain.ErrConflict
		}

		next := *cart
		next.Version = cart.Version + 1
		payload, err := json.Marshal(&next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			pipe.SAdd(ctx, s.indexKey(cart.OrganizationID), cart.ID)
			return nil
		})
		if err == nil {
			newVersion = next.Version
		}
		return err
	}

	err := s.client.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		return domain.ErrConflict
	}
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return err
		}
		return fmt.Errorf("guardar carrito %s: %w", cart.ID, err)
	}
	cart.Version = newVersion
	return nil
}

func (s *RedisCartStore) Delete(ctx context.Context, organizationID, cartID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.cartKey(organizationID, cartID))
		pipe.SRem(ctx, s.indexKey(organizationID), cartID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("eliminar carrito %s: %w", cartID, err)
	}
	return nil
}

// Close cierra el cliente de Redis.
func (s *RedisCartStore) Close() error {
	return s.client.Close()
}
