package service

import (
	"context"
	"errors"

	"github.com/fleetdesk/contracts/model"
)

var (
	// ErrNotFound is returned for missing records and for records owned by another tenant
	ErrNotFound = errors.New("not found")
	// ErrRevisionConflict is returned when an update was based on a stale revision
	ErrRevisionConflict = errors.New("revision conflict")
	// ErrDuplicateNumber is returned when a contract number is already taken in the tenant
	ErrDuplicateNumber = errors.New("duplicate contract number")
	// ErrStoreFull is returned by a bounded in-memory store at capacity
	ErrStoreFull = errors.New("contract store is full")
)

// ContractRepository persists contracts and their status history.
// Every read and write is scoped to a tenant; implementations must never
// reveal whether a record exists in another tenant.
type ContractRepository interface {
	// Create stores a new contract at revision 1 together with its first history entry.
	Create(ctx context.Context, contract *model.Contract, entry *model.StatusChange) error
	Get(ctx context.Context, tenantID, id string) (*model.Contract, error)
	// Update replaces the stored contract if its revision still equals
	// expectedRevision, bumping the revision and appending entry when non-nil.
	Update(ctx context.Context, contract *model.Contract, expectedRevision int64, entry *model.StatusChange) error
	List(ctx context.Context, tenantID string, filter model.ContractFilter) ([]*model.Contract, error)
	History(ctx context.Context, tenantID, contractID string) ([]*model.StatusChange, error)
}
