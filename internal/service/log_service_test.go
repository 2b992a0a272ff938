package service

import (
	"testing"
	"time"

	"backend/internal/apperror"
	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedLogRows appends n orphaned entries (null item reference, lab
// attribution through the mirrored column) at one-minute intervals
// starting from base.
func seedLogRows(t *testing.T, f *fixture, labID, userID uuid.UUID, base time.Time, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		entry := model.InventoryLog{
			LabID:     labID,
			UserID:    userID,
			Action:    model.ActionStockAdd,
			Source:    model.SourceLabInterface,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, f.logRepo.Create(f.ctx(), &entry))
	}
}

func TestQueryForLabPagination(t *testing.T) {
	f := newFixture(t)
	lab := f.seedLab("Chem Lab")
	user := f.seedUser("u", f.seedGlobalRole("Standard", 10))
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	seedLogRows(t, f, lab.ID, user.ID, base, 105)

	page, err := f.logs.QueryForLab(f.ctx(), lab.ID, LogQuery{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, page.Logs, 50)
	assert.Equal(t, int64(105), page.TotalCount)
	assert.Equal(t, int64(3), page.TotalPages)
	assert.Equal(t, int64(1), page.CurrentPage)
	assert.True(t, page.HasNextPage)
	assert.False(t, page.HasPrevPage)

	page, err = f.logs.QueryForLab(f.ctx(), lab.ID, LogQuery{Limit: 50, Offset: 100})
	require.NoError(t, err)
	assert.Len(t, page.Logs, 5)
	assert.Equal(t, int64(3), page.CurrentPage)
	assert.False(t, page.HasNextPage)
	assert.True(t, page.HasPrevPage)
}

func TestQueryForLabOrderedNewestFirst(t *testing.T) {
	f := newFixture(t)
	lab := f.seedLab("Chem Lab")
	user := f.seedUser("u", f.seedGlobalRole("Standard", 10))
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	seedLogRows(t, f, lab.ID, user.ID, base, 5)

	page, err := f.logs.QueryForLab(f.ctx(), lab.ID, LogQuery{})
	require.NoError(t, err)
	require.Len(t, page.Logs, 5)
	for i := 1; i < len(page.Logs); i++ {
		assert.True(t, !page.Logs[i-1].CreatedAt.Before(page.Logs[i].CreatedAt),
			"entries must be ordered newest first")
	}
}

func TestQueryForLabLimitDefaultsAndClamp(t *testing.T) {
	f := newFixture(t)
	lab := f.seedLab("Chem Lab")
	user := f.seedUser("u", f.seedGlobalRole("Standard", 10))
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	seedLogRows(t, f, lab.ID, user.ID, base, 130)

	// Zero limit falls back to the default page size.
	page, err := f.logs.QueryForLab(f.ctx(), lab.ID, LogQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Logs, 20)

	// An oversized limit is clamped, not honored.
	page, err = f.logs.QueryForLab(f.ctx(), lab.ID, LogQuery{Limit: 500})
	require.NoError(t, err)
	assert.Len(t, page.Logs, 100)
}

func TestQueryForLabFiltersApplyConjunctively(t *testing.T) {
	f := newFixture(t)
	lab := f.seedLab("Chem Lab")
	alice := f.seedUser("alice", f.seedGlobalRole("Standard", 10))
	bob := f.seedUser("bob", f.seedGlobalRole("Basic", 5))
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	mk := func(user uuid.UUID, action model.LogAction, source model.LogSource, at time.Time) {
		entry := model.InventoryLog{
			LabID: lab.ID, UserID: user, Action: action, Source: source, CreatedAt: at,
		}
		require.NoError(t, f.logRepo.Create(f.ctx(), &entry))
	}

	mk(alice.ID, model.ActionStockAdd, model.SourceLabInterface, base)
	mk(alice.ID, model.ActionStockAdd, model.SourceBulkImport, base.Add(time.Minute))
	mk(alice.ID, model.ActionStockRemove, model.SourceLabInterface, base.Add(2*time.Minute))
	mk(bob.ID, model.ActionStockAdd, model.SourceLabInterface, base.Add(3*time.Minute))

	page, err := f.logs.QueryForLab(f.ctx(), lab.ID, LogQuery{
		Action: string(model.ActionStockAdd),
		Source: string(model.SourceLabInterface),
		UserID: alice.ID.String(),
	})
	require.NoError(t, err)
	require.Len(t, page.Logs, 1)
	assert.Equal(t, alice.ID.String(), page.Logs[0].UserID)
	assert.Equal(t, "alice", page.Logs[0].Username)

	// Date range bounds are inclusive on both ends.
	start := base.Add(time.Minute)
	end := base.Add(2 * time.Minute)
	page, err = f.logs.QueryForLab(f.ctx(), lab.ID, LogQuery{StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	assert.Len(t, page.Logs, 2)
}

func TestQueryForLabRejectsUnknownEnums(t *testing.T) {
	f := newFixture(t)
	lab := f.seedLab("Chem Lab")

	_, err := f.logs.QueryForLab(f.ctx(), lab.ID, LogQuery{Action: "STOCK_EXPLODE"})
	assert.Equal(t, apperror.InvalidInput, apperror.KindOf(err))

	_, err = f.logs.QueryForLab(f.ctx(), lab.ID, LogQuery{Source: "CARRIER_PIGEON"})
	assert.Equal(t, apperror.InvalidInput, apperror.KindOf(err))

	_, err = f.logs.QueryForLab(f.ctx(), lab.ID, LogQuery{UserID: "not-a-uuid"})
	assert.Equal(t, apperror.InvalidInput, apperror.KindOf(err))
}

func TestQueryForLabExcludesOtherLabs(t *testing.T) {
	f := newFixture(t)
	chem := f.seedLab("Chem Lab")
	bio := f.seedLab("Bio Lab")
	user := f.seedUser("u", f.seedGlobalRole("Standard", 10))
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	seedLogRows(t, f, chem.ID, user.ID, base, 3)
	seedLogRows(t, f, bio.ID, user.ID, base, 2)

	page, err := f.logs.QueryForLab(f.ctx(), chem.ID, LogQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalCount)
}

// TestInventoryLifecycleAuditTrail walks an item through its whole life
// and reconstructs the story from the log alone.
func TestInventoryLifecycleAuditTrail(t *testing.T) {
	f := newInventoryFixture(t)

	f.addItem(t, 10, 2)
	_, err := f.inventory.UpdateItem(f.ctx(), f.actor, f.lab.ID, f.catalog.ID, UpdateItemRequest{
		Location: strPtr("Cold Storage"),
	})
	require.NoError(t, err)
	_, err = f.inventory.AdjustStock(f.ctx(), f.actor, f.lab.ID, f.catalog.ID, AdjustStockRequest{
		Delta: -4, Reason: "titration series",
	})
	require.NoError(t, err)
	require.NoError(t, f.inventory.RemoveItem(f.ctx(), f.actor, f.lab.ID, f.catalog.ID))

	page, err := f.logs.QueryForLab(f.ctx(), f.lab.ID, LogQuery{})
	require.NoError(t, err)
	require.Len(t, page.Logs, 4)

	// Reverse chronological: the removal is first, the creation last.
	assert.Equal(t, model.ActionItemRemoved, page.Logs[0].Action)
	assert.Equal(t, model.ActionStockRemove, page.Logs[1].Action)
	assert.Equal(t, model.ActionLocationChange, page.Logs[2].Action)
	assert.Equal(t, model.ActionItemAdded, page.Logs[3].Action)

	// The trail outlives the item: every reference is nulled, the state
	// before deletion is still readable from the snapshot.
	for _, entry := range page.Logs {
		assert.Nil(t, entry.LabItemID)
	}
	removed := page.Logs[0]
	require.NotNil(t, removed.PreviousValues)
	assert.Equal(t, f.lab.ID, removed.PreviousValues.LabID)
	assert.Equal(t, "Cold Storage", *removed.PreviousValues.Location)
	assert.Equal(t, 6, *removed.PreviousValues.CurrentStock)
	assert.Equal(t, "manager", removed.Username)
}
