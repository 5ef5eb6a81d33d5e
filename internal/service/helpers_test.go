package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"meli-sync/internal/models"
)

// fakeStore is an in-memory ProductStore for tests.
type fakeStore struct {
	mu       sync.Mutex
	products map[int64]*models.Product
}

func newFakeStore(products ...*models.Product) *fakeStore {
	s := &fakeStore{products: make(map[int64]*models.Product)}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *fakeStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (s *fakeStore) GetProductByRemoteID(ctx context.Context, remoteItemID string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.products))
	for id := range s.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if s.products[id].RemoteItemID() == remoteItemID {
			copied := *s.products[id]
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) SetStock(ctx context.Context, id int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[id].Stock = quantity
	return nil
}

func (s *fakeStore) SetRemoteID(ctx context.Context, id int64, remoteItemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[id].MLItemID.String = remoteItemID
	s.products[id].MLItemID.Valid = remoteItemID != ""
	return nil
}

func (s *fakeStore) stock(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

// fakeGuard is an in-memory NotificationGuard.
type fakeGuard struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{seen: make(map[string]bool)}
}

func (g *fakeGuard) MarkNotificationSeen(ctx context.Context, resource string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	first := !g.seen[resource]
	g.seen[resource] = true
	return first, nil
}

func linkedProduct(id int64, itemID string, stock int) *models.Product {
	p := &models.Product{ID: id, Stock: stock}
	if itemID != "" {
		p.MLItemID.String = itemID
		p.MLItemID.Valid = true
	}
	return p
}
