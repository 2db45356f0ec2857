package reference

import (
	"context"
	"sync"
)

// MemoryStore keeps reference data in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	vehicles map[string]Vehicle
	clients  []Client
	rates    []CostRate
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{vehicles: map[string]Vehicle{}}
}

// PutVehicle inserts or replaces v, keyed by its normalized id.
func (s *MemoryStore) PutVehicle(v Vehicle) {
	v.ID = NormalizeID(v.ID)
	s.mu.Lock()
	s.vehicles[v.ID] = v
	s.mu.Unlock()
}

// AddClient appends c. Order of insertion is the order Clients returns.
func (s *MemoryStore) AddClient(c Client) {
	s.mu.Lock()
	s.clients = append(s.clients, c)
	s.mu.Unlock()
}

// PutRate inserts or replaces the rate of r.Class.
func (s *MemoryStore) PutRate(r CostRate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.rates {
		if cur.Class == r.Class {
			s.rates[i] = r
			return
		}
	}
	s.rates = append(s.rates, r)
}

func (s *MemoryStore) LookupVehicles(_ context.Context, ids []string) (map[string]Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Vehicle, len(ids))
	for _, id := range ids {
		if v, ok := s.vehicles[NormalizeID(id)]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (s *MemoryStore) Clients(context.Context) ([]Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Client, len(s.clients))
	copy(out, s.clients)
	return out, nil
}

func (s *MemoryStore) Rates(context.Context) ([]CostRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CostRate, len(s.rates))
	copy(out, s.rates)
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
