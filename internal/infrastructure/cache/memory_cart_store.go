package cache

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var _ repository.CartRepository = (*MemoryCartStore)(nil)

// MemoryCartStore almacén de carritos en memoria del proceso.
// Guarda cada carrito serializado para que los llamadores nunca compartan punteros con el almacén.
type MemoryCartStore struct {
	mu    sync.RWMutex
	carts map[string]map[string][]byte // organización → carrito → JSON
}

// NewMemoryCartStore construye el almacén vacío.
func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{carts: make(map[string]map[string][]byte)}
}

func (s *MemoryCartStore) Get(ctx context.Context, organizationID, cartID string) (*entity.Cart, error) {
	s.mu.RLock()
	raw, ok := s.carts[organizationID][cartID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decodeCart(raw)
}

func (s *MemoryCartStore) ListByOrganization(ctx context.Context, organizationID string) ([]*entity.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.Cart, 0, len(s.carts[organizationID]))
	for _, raw := range s.carts[organizationID] {
		c, err := decodeCart(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sortCarts(out)
	return out, nil
}

// Save aplica la verificación de versión y guarda el carrito; en éxito incrementa cart.Version.
func (s *MemoryCartStore) Save(ctx context.Context, cart *entity.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	org := s.carts[cart.OrganizationID]
	if org == nil {
		org = make(map[string][]byte)
		s.carts[cart.OrganizationID] = org
	}
	var stored int64
	raw, exists := org[cart.ID]
	if exists {
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
	org[cart.ID] = payload
	cart.Version = next.Version
	return nil
}

func (s *MemoryCartStore) Delete(ctx context.Context, organizationID, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts[organizationID], cartID)
	return nil
}

func decodeCart(raw []byte) (*entity.Cart, error) {
	var c entity.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// sortCarts orden estable para listados: más antiguo primero.
func sortCarts(carts []*entity.Cart) {
	sort.Slice(carts, func(i, j int) bool {
		if carts[i].CreatedAt.Equal(carts[j].CreatedAt) {
			return carts[i].ID < carts[j].ID
		}
		return carts[i].CreatedAt.Before(carts[j].CreatedAt)
	})
}
