package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fleetdesk/contracts/config"
	"github.com/fleetdesk/contracts/model"
)

// newTestDB opens a private in-memory sqlite database with the schema applied
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenDatabase(&config.StoreConfig{
		Driver: config.DriverSQLite,
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func TestGormStoreRepository(t *testing.T) {
	testContractRepository(t, func(t *testing.T) ContractRepository {
		return NewGormStore(newTestDB(t))
	})
}

func TestOpenDatabaseRejectsMemoryDriver(t *testing.T) {
	_, err := OpenDatabase(&config.StoreConfig{Driver: config.DriverMemory})
	assert.Error(t, err)
}

func TestGormStoreUniqueIndex(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.WithContext(ctx).Create(repoContract("a", "tenant1", "CNT-1")).Error)
	err := db.WithContext(ctx).Create(repoContract("b", "tenant1", "CNT-1")).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestGormStoreLifecycle(t *testing.T) {
	mgr := NewContractManager(NewGormStore(newTestDB(t)), &config.ContractsConfig{MaxReactivations: 1})
	ctx := context.Background()

	c, err := mgr.CreateContract(ctx, validInput(), testActor)
	require.NoError(t, err)
	walk(t, mgr, c.ID, model.StatusSent, model.StatusSigned, model.StatusActive, model.StatusExpired, model.StatusActive, model.StatusExpired)

	_, err = mgr.UpdateStatus(ctx, c.ID, model.StatusActive, testActor, TransitionOptions{})
	assert.True(t, IsKind(err, ErrKindReactivationLimit))

	stored, err := mgr.GetContract(ctx, c.ID, testActor)
	require.NoError(t, err)
	assert.Equal(t, model.StatusExpired, stored.Status)
	assert.Equal(t, 1, stored.ReactivationCount)
	assert.Equal(t, int64(7), stored.Revision)
	assert.NotNil(t, stored.SentDate)
	assert.NotNil(t, stored.SignedDate)

	entries, err := mgr.History(ctx, c.ID, testActor)
	require.NoError(t, err)
	assert.Len(t, entries, 7)
	assert.Equal(t, "reactivation #1", entries[5].Reason)
}
