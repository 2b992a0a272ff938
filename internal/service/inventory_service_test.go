package service

import (
	"testing"

	"backend/internal/apperror"
	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inventoryFixture seeds the entities every inventory test needs: a lab,
// an acting manager and a catalog item.
type inventoryFixture struct {
	*fixture
	lab     *model.Lab
	user    *model.User
	member  *model.LabMember
	catalog *model.Item
	actor   Actor
}

func newInventoryFixture(t *testing.T) *inventoryFixture {
	f := newFixture(t)

	lab := f.seedLab("Chem Lab")
	user := f.seedUser("manager", f.seedGlobalRole("Standard", 10))
	member := f.seedMember(user, lab, f.seedLabRole("Manager", model.LabManagerLevel))
	catalog := f.seedCatalogItem("Acetone")

	return &inventoryFixture{
		fixture: f,
		lab:     lab,
		user:    user,
		member:  member,
		catalog: catalog,
		actor:   actorFor(user, member),
	}
}

func (f *inventoryFixture) addItem(t *testing.T, stock, minStock int) *LabItemResponse {
	t.Helper()
	res, err := f.inventory.AddItem(f.ctx(), f.actor, f.lab.ID, AddItemRequest{
		ItemID:       f.catalog.ID.String(),
		Location:     "Shelf A",
		ItemUnit:     "L",
		CurrentStock: stock,
		MinStock:     minStock,
	})
	require.NoError(t, err)
	return res
}

func TestAddItemWritesAuditEntry(t *testing.T) {
	f := newInventoryFixture(t)

	res := f.addItem(t, 10, 2)
	assert.Equal(t, "Acetone", res.ItemName)
	assert.False(t, res.BelowMin)

	logs := f.labLogs(f.lab.ID)
	require.Len(t, logs, 1)

	entry := logs[0]
	assert.Equal(t, model.ActionItemAdded, entry.Action)
	assert.Equal(t, model.SourceLabInterface, entry.Source)
	assert.Equal(t, f.user.ID, entry.UserID)
	require.NotNil(t, entry.MemberID)
	assert.Equal(t, f.member.ID, *entry.MemberID)
	assert.Nil(t, entry.PreviousValues)
	require.NotNil(t, entry.NewValues)
	assert.Equal(t, f.lab.ID, entry.NewValues.LabID)
	require.NotNil(t, entry.NewValues.CurrentStock)
	assert.Equal(t, 10, *entry.NewValues.CurrentStock)
}

func TestAddItemDuplicatePairConflicts(t *testing.T) {
	f := newInventoryFixture(t)
	f.addItem(t, 5, 0)

	_, err := f.inventory.AddItem(f.ctx(), f.actor, f.lab.ID, AddItemRequest{
		ItemID:   f.catalog.ID.String(),
		Location: "Shelf B",
		ItemUnit: "L",
	})
	require.Error(t, err)
	assert.Equal(t, apperror.Conflict, apperror.KindOf(err))

	// The same catalog item in a different lab is fine.
	other := f.seedLab("Bio Lab")
	_, err = f.inventory.AddItem(f.ctx(), f.actor, other.ID, AddItemRequest{
		ItemID:   f.catalog.ID.String(),
		Location: "Fridge",
		ItemUnit: "L",
	})
	require.NoError(t, err)
}

func TestAddItemValidatesReferences(t *testing.T) {
	f := newInventoryFixture(t)

	_, err := f.inventory.AddItem(f.ctx(), f.actor, uuid.New(), AddItemRequest{
		ItemID: f.catalog.ID.String(), Location: "x", ItemUnit: "L",
	})
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))

	_, err = f.inventory.AddItem(f.ctx(), f.actor, f.lab.ID, AddItemRequest{
		ItemID: uuid.New().String(), Location: "x", ItemUnit: "L",
	})
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))

	// A tag from another lab is not a valid reference here.
	other := f.seedLab("Bio Lab")
	foreign := f.seedTag(other, "volatile")
	_, err = f.inventory.AddItem(f.ctx(), f.actor, f.lab.ID, AddItemRequest{
		ItemID: f.catalog.ID.String(), Location: "x", ItemUnit: "L",
		TagIDs: []string{foreign.ID.String()},
	})
	assert.Equal(t, apperror.InvalidInput, apperror.KindOf(err))

	// Nothing was created along the way.
	logs := f.labLogs(f.lab.ID)
	assert.Empty(t, logs)
}

func TestUpdateItemLogsOneEntryPerChangedField(t *testing.T) {
	f := newInventoryFixture(t)
	f.addItem(t, 10, 2)

	_, err := f.inventory.UpdateItem(f.ctx(), f.actor, f.lab.ID, f.catalog.ID, UpdateItemRequest{
		Location:     strPtr("Shelf B"),
		CurrentStock: intPtr(25),
	})
	require.NoError(t, err)

	logs := f.labLogs(f.lab.ID)
	require.Len(t, logs, 3) // ITEM_ADDED plus exactly two update entries

	actions := map[model.LogAction]model.InventoryLog{}
	for _, l := range logs {
		actions[l.Action] = l
	}

	loc, ok := actions[model.ActionLocationChange]
	require.True(t, ok)
	assert.Equal(t, "Shelf A", *loc.PreviousValues.Location)
	assert.Equal(t, "Shelf B", *loc.NewValues.Location)

	stock, ok := actions[model.ActionStockUpdate]
	require.True(t, ok)
	assert.Equal(t, 10, *stock.PreviousValues.CurrentStock)
	assert.Equal(t, 25, *stock.NewValues.CurrentStock)
	require.NotNil(t, stock.QuantityChanged)
	assert.Equal(t, 15, *stock.QuantityChanged)
}

func TestUpdateItemUnchangedFieldsLogNothing(t *testing.T) {
	f := newInventoryFixture(t)
	f.addItem(t, 10, 2)

	_, err := f.inventory.UpdateItem(f.ctx(), f.actor, f.lab.ID, f.catalog.ID, UpdateItemRequest{
		Location:     strPtr("Shelf A"), // same value
		CurrentStock: intPtr(10),        // same value
	})
	require.NoError(t, err)

	logs := f.labLogs(f.lab.ID)
	assert.Len(t, logs, 1, "only the ITEM_ADDED entry should exist")
}

func TestAdjustStock(t *testing.T) {
	f := newInventoryFixture(t)
	f.addItem(t, 10, 2)

	res, err := f.inventory.AdjustStock(f.ctx(), f.actor, f.lab.ID, f.catalog.ID, AdjustStockRequest{
		Delta: 5, Reason: "restock",
	})
	require.NoError(t, err)
	assert.Equal(t, 15, res.CurrentStock)

	res, err = f.inventory.AdjustStock(f.ctx(), f.actor, f.lab.ID, f.catalog.ID, AdjustStockRequest{
		Delta: -14, Reason: "experiment run",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.CurrentStock)
	assert.True(t, res.BelowMin)

	logs := f.labLogs(f.lab.ID)
	require.Len(t, logs, 3)

	var adds, removes int
	for _, l := range logs {
		switch l.Action {
		case model.ActionStockAdd:
			adds++
			assert.Equal(t, 5, *l.QuantityChanged)
			assert.Equal(t, "restock", l.Reason)
		case model.ActionStockRemove:
			removes++
			assert.Equal(t, -14, *l.QuantityChanged)
		}
	}
	assert.Equal(t, 1, adds)
	assert.Equal(t, 1, removes)
}

func TestAdjustStockRejectsZeroAndNegativeResult(t *testing.T) {
	f := newInventoryFixture(t)
	f.addItem(t, 3, 0)

	_, err := f.inventory.AdjustStock(f.ctx(), f.actor, f.lab.ID, f.catalog.ID, AdjustStockRequest{Delta: 0})
	assert.Equal(t, apperror.InvalidInput, apperror.KindOf(err))

	_, err = f.inventory.AdjustStock(f.ctx(), f.actor, f.lab.ID, f.catalog.ID, AdjustStockRequest{Delta: -4})
	require.Error(t, err)
	assert.Equal(t, apperror.InvalidInput, apperror.KindOf(err))

	// The failed adjustments logged nothing.
	logs := f.labLogs(f.lab.ID)
	assert.Len(t, logs, 1)
}

func TestRemoveItemRetainsHistory(t *testing.T) {
	f := newInventoryFixture(t)
	f.addItem(t, 10, 2)
	_, err := f.inventory.AdjustStock(f.ctx(), f.actor, f.lab.ID, f.catalog.ID, AdjustStockRequest{Delta: 5})
	require.NoError(t, err)

	require.NoError(t, f.inventory.RemoveItem(f.ctx(), f.actor, f.lab.ID, f.catalog.ID))

	// The item row is gone.
	_, err = f.labItemRepo.FindByLabAndItem(f.ctx(), f.lab.ID, f.catalog.ID)
	require.Error(t, err)

	// Every historic entry is retained, attributed to the lab through the
	// snapshot even though the item reference is now null.
	logs := f.labLogs(f.lab.ID)
	require.Len(t, logs, 3)
	for _, l := range logs {
		assert.Nil(t, l.LabItemID)
	}

	byAction := map[model.LogAction]model.InventoryLog{}
	for _, l := range logs {
		byAction[l.Action] = l
	}
	removed, ok := byAction[model.ActionItemRemoved]
	require.True(t, ok)
	require.NotNil(t, removed.PreviousValues)
	assert.Equal(t, f.lab.ID, removed.PreviousValues.LabID)
	assert.Equal(t, "Acetone", *removed.PreviousValues.ItemName)
	assert.Equal(t, 15, *removed.PreviousValues.CurrentStock)
	assert.Nil(t, removed.NewValues)
}

func TestRemoveItemHistoryStaysInItsLab(t *testing.T) {
	f := newInventoryFixture(t)
	other := f.seedLab("Bio Lab")

	f.addItem(t, 10, 2)
	_, err := f.inventory.AddItem(f.ctx(), f.actor, other.ID, AddItemRequest{
		ItemID: f.catalog.ID.String(), Location: "Fridge", ItemUnit: "L",
	})
	require.NoError(t, err)

	require.NoError(t, f.inventory.RemoveItem(f.ctx(), f.actor, f.lab.ID, f.catalog.ID))

	// Orphaned entries show up for their own lab only.
	assert.Len(t, f.labLogs(f.lab.ID), 2)
	assert.Len(t, f.labLogs(other.ID), 1)
}

func TestTagAttachDetach(t *testing.T) {
	f := newInventoryFixture(t)
	f.addItem(t, 1, 0)
	tag := f.seedTag(f.lab, "flammable")

	require.NoError(t, f.inventory.AddTag(f.ctx(), f.actor, f.lab.ID, f.catalog.ID, tag.ID))

	err := f.inventory.AddTag(f.ctx(), f.actor, f.lab.ID, f.catalog.ID, tag.ID)
	assert.Equal(t, apperror.Conflict, apperror.KindOf(err))

	require.NoError(t, f.inventory.RemoveTag(f.ctx(), f.actor, f.lab.ID, f.catalog.ID, tag.ID))

	err = f.inventory.RemoveTag(f.ctx(), f.actor, f.lab.ID, f.catalog.ID, tag.ID)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
}

func TestBulkImportForcesSourceAndIsolatesRows(t *testing.T) {
	f := newInventoryFixture(t)
	second := f.seedCatalogItem("Ethanol")

	results := f.inventory.BulkImport(f.ctx(), f.actor, f.lab.ID, BulkImportRequest{
		Items: []AddItemRequest{
			{ItemID: f.catalog.ID.String(), Location: "Shelf A", ItemUnit: "L", CurrentStock: 3},
			{ItemID: uuid.New().String(), Location: "Shelf A", ItemUnit: "L"}, // unknown catalog item
			{ItemID: second.ID.String(), Location: "Shelf B", ItemUnit: "L", CurrentStock: 7},
		},
	})

	require.Len(t, results, 3)
	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.NotEmpty(t, results[1].Error)
	assert.True(t, results[2].OK, "a failed row must not abort later rows")

	logs := f.labLogs(f.lab.ID)
	require.Len(t, logs, 2)
	for _, l := range logs {
		assert.Equal(t, model.SourceBulkImport, l.Source)
	}
}
