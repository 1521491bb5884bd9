package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetdesk/contracts/model"
)

var repoEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func repoContract(id, tenant, number string) *model.Contract {
	return &model.Contract{
		ID:             id,
		TenantID:       tenant,
		ContractNumber: number,
		Title:          "Contract " + id,
		Type:           model.TypeMaster,
		Status:         model.StatusDraft,
		OrganisationID: "org-1",
		Version:        model.DefaultVersion,
		CreatedBy:      "user-1",
	}
}

func createdEntry() *model.StatusChange {
	return &model.StatusChange{ToStatus: model.StatusDraft, Reason: "created", ActorID: "user-1", CreatedAt: repoEpoch}
}

// testContractRepository runs the behaviour every ContractRepository must share
func testContractRepository(t *testing.T, newRepo func(t *testing.T) ContractRepository) {
	t.Run("CreateAndGet", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		c := repoContract("c1", "tenant1", "CNT-1")
		amount := decimal.RequireFromString("1999.90")
		deal := "deal-7"
		end := repoEpoch.AddDate(1, 0, 0)
		c.Amount = &amount
		c.DealID = &deal
		c.ContactIDs = []string{"p1", "p2"}
		c.EffectiveDate = &repoEpoch
		c.EndDate = &end

		require.NoError(t, repo.Create(ctx, c, createdEntry()))
		assert.Equal(t, int64(1), c.Revision)

		got, err := repo.Get(ctx, "tenant1", "c1")
		require.NoError(t, err)
		assert.Equal(t, "CNT-1", got.ContractNumber)
		assert.Equal(t, int64(1), got.Revision)
		require.NotNil(t, got.Amount)
		assert.True(t, got.Amount.Equal(amount))
		require.NotNil(t, got.DealID)
		assert.Equal(t, "deal-7", *got.DealID)
		assert.Equal(t, []string{"p1", "p2"}, got.ContactIDs)
		require.NotNil(t, got.EndDate)
		assert.True(t, got.EndDate.Equal(end))
		assert.Nil(t, got.SentDate)
	})

	t.Run("TenantIsolation", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		c := repoContract("c1", "tenant1", "CNT-1")
		require.NoError(t, repo.Create(ctx, c, createdEntry()))

		_, err := repo.Get(ctx, "tenant2", "c1")
		assert.ErrorIs(t, err, ErrNotFound)

		foreign := c.Clone()
		foreign.TenantID = "tenant2"
		foreign.Title = "hijacked"
		assert.ErrorIs(t, repo.Update(ctx, foreign, 1, nil), ErrNotFound)

		_, err = repo.History(ctx, "tenant2", "c1")
		assert.ErrorIs(t, err, ErrNotFound)

		listed, err := repo.List(ctx, "tenant2", model.ContractFilter{})
		require.NoError(t, err)
		assert.Empty(t, listed)

		got, err := repo.Get(ctx, "tenant1", "c1")
		require.NoError(t, err)
		assert.Equal(t, "Contract c1", got.Title)
	})

	t.Run("DuplicateNumber", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, repoContract("c1", "tenant1", "CNT-1"), createdEntry()))

		err := repo.Create(ctx, repoContract("c2", "tenant1", "CNT-1"), createdEntry())
		assert.ErrorIs(t, err, ErrDuplicateNumber)

		assert.NoError(t, repo.Create(ctx, repoContract("c3", "tenant2", "CNT-1"), createdEntry()))

		_, err = repo.Get(ctx, "tenant1", "c2")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("UpdateCompareAndSwap", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, repoContract("c1", "tenant1", "CNT-1"), createdEntry()))

		first, err := repo.Get(ctx, "tenant1", "c1")
		require.NoError(t, err)
		second, err := repo.Get(ctx, "tenant1", "c1")
		require.NoError(t, err)

		sent := repoEpoch.Add(time.Hour)
		first.Status = model.StatusSent
		first.SentDate = &sent
		require.NoError(t, repo.Update(ctx, first, 1, &model.StatusChange{
			FromStatus: model.StatusDraft, ToStatus: model.StatusSent, ActorID: "user-1", CreatedAt: sent,
		}))
		assert.Equal(t, int64(2), first.Revision)

		second.Status = model.StatusCancelled
		err = repo.Update(ctx, second, 1, &model.StatusChange{
			FromStatus: model.StatusDraft, ToStatus: model.StatusCancelled, ActorID: "user-2",
		})
		assert.ErrorIs(t, err, ErrRevisionConflict)

		got, err := repo.Get(ctx, "tenant1", "c1")
		require.NoError(t, err)
		assert.Equal(t, model.StatusSent, got.Status)
		assert.Equal(t, int64(2), got.Revision)
		assert.Equal(t, "CNT-1", got.ContractNumber)
		require.NotNil(t, got.SentDate)
		assert.True(t, got.SentDate.Equal(sent))

		entries, err := repo.History(ctx, "tenant1", "c1")
		require.NoError(t, err)
		require.Len(t, entries, 2, "a rejected update must not leave history behind")
		assert.Equal(t, model.StatusSent, entries[1].ToStatus)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.Update(context.Background(), repoContract("nope", "tenant1", "CNT-9"), 1, nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("UpdateWithoutEntry", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		c := repoContract("c1", "tenant1", "CNT-1")
		require.NoError(t, repo.Create(ctx, c, createdEntry()))

		c.Title = "Renamed"
		require.NoError(t, repo.Update(ctx, c, 1, nil))

		entries, err := repo.History(ctx, "tenant1", "c1")
		require.NoError(t, err)
		assert.Len(t, entries, 1)

		got, err := repo.Get(ctx, "tenant1", "c1")
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
	})

	t.Run("ListFiltersAndOrder", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		deal := "deal-1"
		mk := func(i int, id, org string, status model.Status, typ model.ContractType, end *time.Time) {
			c := repoContract(id, "tenant1", "CNT-"+id)
			c.OrganisationID = org
			c.Status = status
			c.Type = typ
			c.EndDate = end
			c.CreatedAt = repoEpoch.Add(time.Duration(i) * time.Minute)
			if org == "org-1" {
				c.DealID = &deal
			}
			require.NoError(t, repo.Create(ctx, c, createdEntry()))
		}
		soon := repoEpoch.AddDate(0, 0, 10)
		later := repoEpoch.AddDate(0, 0, 60)
		mk(2, "b", "org-1", model.StatusActive, model.TypeNDA, &soon)
		mk(1, "a", "org-1", model.StatusDraft, model.TypeMaster, nil)
		mk(3, "c", "org-2", model.StatusActive, model.TypeNDA, &later)

		all, err := repo.List(ctx, "tenant1", model.ContractFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, ids(all))

		byOrg, err := repo.List(ctx, "tenant1", model.ContractFilter{OrganisationID: "org-1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids(byOrg))

		byDeal, err := repo.List(ctx, "tenant1", model.ContractFilter{DealID: "deal-1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids(byDeal))

		active, err := repo.List(ctx, "tenant1", model.ContractFilter{Status: model.StatusActive, Type: model.TypeNDA})
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c"}, ids(active))

		to := repoEpoch.AddDate(0, 0, 30)
		window, err := repo.List(ctx, "tenant1", model.ContractFilter{EndDateFrom: &repoEpoch, EndDateTo: &to})
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, ids(window))

		none, err := repo.List(ctx, "tenant1", model.ContractFilter{Status: model.StatusExpired})
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})
}

func TestContractStoreRepository(t *testing.T) {
	testContractRepository(t, func(t *testing.T) ContractRepository {
		return newTestStore(0)
	})
}
