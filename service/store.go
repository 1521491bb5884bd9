package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fleetdesk/contracts/config"
	"github.com/fleetdesk/contracts/model"
)

// ContractStore is an in-memory ContractRepository.
// Records are copied on the way in and out so callers never alias stored state.
type ContractStore struct {
	contracts    map[string]*model.Contract
	history      map[string][]*model.StatusChange
	nextEntryID  uint
	mu           sync.RWMutex
	maxContracts int // Maximum contracts to hold, 0 = unlimited
}

// NewContractStore creates an empty store with the configured capacity
func NewContractStore(cfg *config.StoreConfig) *ContractStore {
	maxContracts := cfg.MaxContracts
	if maxContracts < 0 {
		maxContracts = 0
	}
	slog.Info("contract store initialized", "driver", config.DriverMemory, "max_contracts", maxContracts)
	return &ContractStore{
		contracts:    make(map[string]*model.Contract),
		history:      make(map[string][]*model.StatusChange),
		maxContracts: maxContracts,
	}
}

func (s *ContractStore) Create(ctx context.Context, contract *model.Contract, entry *model.StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxContracts > 0 && len(s.contracts) >= s.maxContracts {
		return ErrStoreFull
	}
	for _, c := range s.contracts {
		if c.TenantID == contract.TenantID && c.ContractNumber == contract.ContractNumber {
			return ErrDuplicateNumber
		}
	}

	now := time.Now()
	if contract.CreatedAt.IsZero() {
		contract.CreatedAt = now
	}
	contract.UpdatedAt = now
	contract.Revision = 1
	s.contracts[contract.ID] = contract.Clone()
	s.appendHistory(contract, entry, now)
	return nil
}

func (s *ContractStore) Get(ctx context.Context, tenantID, id string) (*model.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.contracts[id]
	if !ok || c.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

func (s *ContractStore) Update(ctx context.Context, contract *model.Contract, expectedRevision int64, entry *model.StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.contracts[contract.ID]
	if !ok || current.TenantID != contract.TenantID {
		return ErrNotFound
	}
	if current.Revision != expectedRevision {
		return ErrRevisionConflict
	}

	now := time.Now()
	contract.Revision = expectedRevision + 1
	contract.UpdatedAt = now
	contract.CreatedAt = current.CreatedAt
	s.contracts[contract.ID] = contract.Clone()
	s.appendHistory(contract, entry, now)
	return nil
}

func (s *ContractStore) List(ctx context.Context, tenantID string, filter model.ContractFilter) ([]*model.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.Contract, 0)
	for _, c := range s.contracts {
		if c.TenantID == tenantID && filter.Matches(c) {
			result = append(result, c.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *ContractStore) History(ctx context.Context, tenantID, contractID string) ([]*model.StatusChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.contracts[contractID]
	if !ok || c.TenantID != tenantID {
		return nil, ErrNotFound
	}
	entries := s.history[contractID]
	out := make([]*model.StatusChange, len(entries))
	for i, e := range entries {
		copied := *e
		out[i] = &copied
	}
	return out, nil
}

// Count returns the number of contracts in the store
func (s *ContractStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contracts)
}

// appendHistory must be called with the write lock held
func (s *ContractStore) appendHistory(contract *model.Contract, entry *model.StatusChange, now time.Time) {
	if entry == nil {
		return
	}
	s.nextEntryID++
	entry.ID = s.nextEntryID
	entry.TenantID = contract.TenantID
	entry.ContractID = contract.ID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	copied := *entry
	s.history[contract.ID] = append(s.history[contract.ID], &copied)
}
