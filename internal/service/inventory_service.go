package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/apperror"
	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Actor identifies who performs a mutation and through which surface.
// MemberID is nil when the caller acts via the global-admin override.
type Actor struct {
	UserID   uuid.UUID
	MemberID *uuid.UUID
	Source   model.LogSource
}

// --- DTOs ---

type AddItemRequest struct {
	ItemID       string   `json:"item_id" binding:"required,uuid"`
	Location     string   `json:"location" binding:"required"`
	ItemUnit     string   `json:"item_unit" binding:"required"`
	CurrentStock int      `json:"current_stock" binding:"min=0"`
	MinStock     int      `json:"min_stock" binding:"min=0"`
	TagIDs       []string `json:"tag_ids"`
}

// UpdateItemRequest is a partial patch: nil fields are left unchanged.
type UpdateItemRequest struct {
	Location     *string `json:"location"`
	ItemUnit     *string `json:"item_unit"`
	CurrentStock *int    `json:"current_stock" binding:"omitempty,min=0"`
	MinStock     *int    `json:"min_stock" binding:"omitempty,min=0"`
}

type AdjustStockRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason"`
}

type BulkImportRequest struct {
	Items []AddItemRequest `json:"items" binding:"required,min=1,dive"`
}

type BulkImportRowResult struct {
	ItemID string `json:"item_id"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

type LabItemResponse struct {
	ID           string   `json:"id"`
	LabID        string   `json:"lab_id"`
	ItemID       string   `json:"item_id"`
	ItemName     string   `json:"item_name"`
	Location     string   `json:"location"`
	ItemUnit     string   `json:"item_unit"`
	CurrentStock int      `json:"current_stock"`
	MinStock     int      `json:"min_stock"`
	BelowMin     bool     `json:"below_min"`
	Tags         []string `json:"tags"`
}

// InventoryService owns the mutable current-state table of items present
// in a lab. Every mutation is gated by a prior Allow from the permission
// evaluator and emits audit entries inside the same transaction.
type InventoryService interface {
	ListItems(ctx context.Context, labID uuid.UUID, limit, offset int) ([]LabItemResponse, int64, error)
	AddItem(ctx context.Context, actor Actor, labID uuid.UUID, req AddItemRequest) (*LabItemResponse, error)
	UpdateItem(ctx context.Context, actor Actor, labID, itemID uuid.UUID, req UpdateItemRequest) (*LabItemResponse, error)
	RemoveItem(ctx context.Context, actor Actor, labID, itemID uuid.UUID) error
	AdjustStock(ctx context.Context, actor Actor, labID, itemID uuid.UUID, req AdjustStockRequest) (*LabItemResponse, error)
	AddTag(ctx context.Context, actor Actor, labID, itemID, tagID uuid.UUID) error
	RemoveTag(ctx context.Context, actor Actor, labID, itemID, tagID uuid.UUID) error
	BulkImport(ctx context.Context, actor Actor, labID uuid.UUID, req BulkImportRequest) []BulkImportRowResult
}

type inventoryService struct {
	labRepo     repository.LabRepository
	itemRepo    repository.ItemRepository
	labItemRepo repository.LabInventoryRepository
	logRepo     repository.InventoryLogRepository
	audit       AuditLogger
	txManager   repository.TransactionManager
	hub         *ws.Hub
	logger      *zap.Logger
}

func NewInventoryService(
	labRepo repository.LabRepository,
	itemRepo repository.ItemRepository,
	labItemRepo repository.LabInventoryRepository,
	logRepo repository.InventoryLogRepository,
	audit AuditLogger,
	txManager repository.TransactionManager,
	hub *ws.Hub,
	logger *zap.Logger,
) InventoryService {
	return &inventoryService{
		labRepo:     labRepo,
		itemRepo:    itemRepo,
		labItemRepo: labItemRepo,
		logRepo:     logRepo,
		audit:       audit,
		txManager:   txManager,
		hub:         hub,
		logger:      logger,
	}
}

func (s *inventoryService) ListItems(ctx context.Context, labID uuid.UUID, limit, offset int) ([]LabItemResponse, int64, error) {
	items, total, err := s.labItemRepo.ListByLab(ctx, labID, limit, offset)
	if err != nil {
		return nil, 0, apperror.Wrap(apperror.Internal, "failed to list lab inventory", err)
	}

	res := make([]LabItemResponse, 0, len(items))
	for i := range items {
		tags, err := s.labItemRepo.TagNamesForItem(ctx, items[i].ID)
		if err != nil {
			return nil, 0, apperror.Wrap(apperror.Internal, "failed to resolve item tags", err)
		}
		res = append(res, toLabItemResponse(&items[i], tags))
	}
	return res, total, nil
}

func (s *inventoryService) AddItem(ctx context.Context, actor Actor, labID uuid.UUID, req AddItemRequest) (*LabItemResponse, error) {
	if _, err := s.labRepo.FindByID(ctx, labID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, "lab not found")
		}
		return nil, apperror.Wrap(apperror.Internal, "lab lookup failed", err)
	}

	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return nil, apperror.New(apperror.InvalidInput, "invalid item id")
	}
	catalogItem, err := s.itemRepo.FindItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, "catalog item not found")
		}
		return nil, apperror.Wrap(apperror.Internal, "catalog lookup failed", err)
	}

	// Tags are resolved up front so an invalid reference never leaves an
	// orphaned item behind; a failure racing in after the create still
	// rolls the whole transaction back.
	tagIDs, err := parseUUIDs(req.TagIDs)
	if err != nil {
		return nil, apperror.New(apperror.InvalidInput, "invalid tag id")
	}
	tags, err := s.itemRepo.FindTagsByIDs(ctx, labID, tagIDs)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "tag lookup failed", err)
	}
	if len(tags) != len(tagIDs) {
		return nil, apperror.New(apperror.InvalidInput, "one or more tags do not exist in this lab")
	}

	labItem := model.LabInventoryItem{
		LabID:        labID,
		ItemID:       itemID,
		Location:     req.Location,
		ItemUnit:     req.ItemUnit,
		CurrentStock: req.CurrentStock,
		MinStock:     req.MinStock,
	}
	tagNames := make([]string, 0, len(tags))
	for _, t := range tags {
		tagNames = append(tagNames, t.Name)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.labItemRepo.Create(txCtx, &labItem); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.New(apperror.Conflict, "item already exists in this lab")
			}
			return apperror.Wrap(apperror.Internal, "failed to create lab inventory item", err)
		}

		for _, tag := range tags {
			link := model.LabItemTag{LabItemID: labItem.ID, TagID: tag.ID}
			if err := s.labItemRepo.AttachTag(txCtx, &link); err != nil {
				return apperror.Wrap(apperror.Internal, "failed to attach tag", err)
			}
		}

		s.audit.Record(txCtx, &model.InventoryLog{
			LabItemID: &labItem.ID,
			UserID:    actor.UserID,
			MemberID:  actor.MemberID,
			Action:    model.ActionItemAdded,
			Source:    actor.Source,
			NewValues: model.ItemSnapshot(&labItem, catalogItem.Name, tagNames),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(labID, "item_added", labItem.ID)

	labItem.Item = *catalogItem
	res := toLabItemResponse(&labItem, tagNames)
	return &res, nil
}

func (s *inventoryService) UpdateItem(ctx context.Context, actor Actor, labID, itemID uuid.UUID, req UpdateItemRequest) (*LabItemResponse, error) {
	labItem, err := s.findLabItem(ctx, labID, itemID)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// One typed entry per actually-changed field. Fields passed with
		// their current value produce no entry at all.
		if req.Location != nil && *req.Location != labItem.Location {
			prev := labItem.Location
			labItem.Location = *req.Location
			s.audit.Record(txCtx, &model.InventoryLog{
				LabItemID:      &labItem.ID,
				UserID:         actor.UserID,
				MemberID:       actor.MemberID,
				Action:         model.ActionLocationChange,
				Source:         actor.Source,
				PreviousValues: model.LocationSnapshot(labID, prev),
				NewValues:      model.LocationSnapshot(labID, labItem.Location),
			})
		}

		if req.CurrentStock != nil && *req.CurrentStock != labItem.CurrentStock {
			prev := labItem.CurrentStock
			labItem.CurrentStock = *req.CurrentStock
			delta := labItem.CurrentStock - prev
			s.audit.Record(txCtx, &model.InventoryLog{
				LabItemID:       &labItem.ID,
				UserID:          actor.UserID,
				MemberID:        actor.MemberID,
				Action:          model.ActionStockUpdate, // manual correction
				Source:          actor.Source,
				PreviousValues:  model.StockSnapshot(labID, prev),
				NewValues:       model.StockSnapshot(labID, labItem.CurrentStock),
				QuantityChanged: &delta,
			})
		}

		if req.MinStock != nil && *req.MinStock != labItem.MinStock {
			prev := labItem.MinStock
			labItem.MinStock = *req.MinStock
			s.audit.Record(txCtx, &model.InventoryLog{
				LabItemID:      &labItem.ID,
				UserID:         actor.UserID,
				MemberID:       actor.MemberID,
				Action:         model.ActionMinStockUpdate,
				Source:         actor.Source,
				PreviousValues: model.MinStockSnapshot(labID, prev),
				NewValues:      model.MinStockSnapshot(labID, labItem.MinStock),
			})
		}

		// Unit has no dedicated action; it logs as a generic update, as
		// does any future updatable field until given its own action.
		if req.ItemUnit != nil && *req.ItemUnit != labItem.ItemUnit {
			prev := labItem.ItemUnit
			labItem.ItemUnit = *req.ItemUnit
			s.audit.Record(txCtx, &model.InventoryLog{
				LabItemID:      &labItem.ID,
				UserID:         actor.UserID,
				MemberID:       actor.MemberID,
				Action:         model.ActionItemUpdate,
				Source:         actor.Source,
				PreviousValues: model.UnitSnapshot(labID, prev),
				NewValues:      model.UnitSnapshot(labID, labItem.ItemUnit),
			})
		}

		if err := s.labItemRepo.Save(txCtx, labItem); err != nil {
			return apperror.Wrap(apperror.Internal, "failed to update lab inventory item", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(labID, "item_updated", labItem.ID)

	tags, err := s.labItemRepo.TagNamesForItem(ctx, labItem.ID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "failed to resolve item tags", err)
	}
	res := toLabItemResponse(labItem, tags)
	return &res, nil
}

func (s *inventoryService) RemoveItem(ctx context.Context, actor Actor, labID, itemID uuid.UUID) error {
	labItem, err := s.findLabItem(ctx, labID, itemID)
	if err != nil {
		return err
	}
	tags, err := s.labItemRepo.TagNamesForItem(ctx, labItem.ID)
	if err != nil {
		return apperror.Wrap(apperror.Internal, "failed to resolve item tags", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Order matters: snapshot, then log, then delete. A logging
		// failure can never leave a deleted item with no trail.
		s.audit.Record(txCtx, &model.InventoryLog{
			LabItemID:      &labItem.ID,
			UserID:         actor.UserID,
			MemberID:       actor.MemberID,
			Action:         model.ActionItemRemoved,
			Source:         actor.Source,
			PreviousValues: model.ItemSnapshot(labItem, labItem.Item.Name, tags),
		})

		if err := s.labItemRepo.DeleteTagLinks(txCtx, labItem.ID); err != nil {
			return apperror.Wrap(apperror.Internal, "failed to remove tag links", err)
		}
		if err := s.labItemRepo.Delete(txCtx, labItem.ID); err != nil {
			return apperror.Wrap(apperror.Internal, "failed to delete lab inventory item", err)
		}
		// Null the item reference on every retained log row.
		if err := s.logRepo.DetachItem(txCtx, labItem.ID); err != nil {
			return apperror.Wrap(apperror.Internal, "failed to detach log entries", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.broadcast(labID, "item_removed", labItem.ID)
	return nil
}

func (s *inventoryService) AdjustStock(ctx context.Context, actor Actor, labID, itemID uuid.UUID, req AdjustStockRequest) (*LabItemResponse, error) {
	if req.Delta == 0 {
		return nil, apperror.New(apperror.InvalidInput, "delta must be non-zero")
	}

	labItem, err := s.findLabItem(ctx, labID, itemID)
	if err != nil {
		return nil, err
	}

	prev := labItem.CurrentStock
	next := prev + req.Delta
	if next < 0 {
		return nil, apperror.Newf(apperror.InvalidInput,
			"stock cannot go negative: current %d, delta %d", prev, req.Delta)
	}

	action := model.ActionStockAdd
	if req.Delta < 0 {
		action = model.ActionStockRemove
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		labItem.CurrentStock = next
		if err := s.labItemRepo.Save(txCtx, labItem); err != nil {
			return apperror.Wrap(apperror.Internal, "failed to adjust stock", err)
		}

		delta := req.Delta
		s.audit.Record(txCtx, &model.InventoryLog{
			LabItemID:       &labItem.ID,
			UserID:          actor.UserID,
			MemberID:        actor.MemberID,
			Action:          action,
			Source:          actor.Source,
			PreviousValues:  model.StockSnapshot(labID, prev),
			NewValues:       model.StockSnapshot(labID, next),
			QuantityChanged: &delta,
			Reason:          req.Reason,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(labID, "stock_changed", labItem.ID)

	tags, err := s.labItemRepo.TagNamesForItem(ctx, labItem.ID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "failed to resolve item tags", err)
	}
	res := toLabItemResponse(labItem, tags)
	return &res, nil
}

func (s *inventoryService) AddTag(ctx context.Context, actor Actor, labID, itemID, tagID uuid.UUID) error {
	labItem, err := s.findLabItem(ctx, labID, itemID)
	if err != nil {
		return err
	}

	tag, err := s.itemRepo.FindTagByID(ctx, tagID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.New(apperror.NotFound, "tag not found")
		}
		return apperror.Wrap(apperror.Internal, "tag lookup failed", err)
	}
	if tag.LabID != labID {
		return apperror.New(apperror.NotFound, "tag not found")
	}

	link := model.LabItemTag{LabItemID: labItem.ID, TagID: tagID}
	if err := s.labItemRepo.AttachTag(ctx, &link); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.New(apperror.Conflict, "tag already attached to this item")
		}
		return apperror.Wrap(apperror.Internal, "failed to attach tag", err)
	}
	return nil
}

func (s *inventoryService) RemoveTag(ctx context.Context, actor Actor, labID, itemID, tagID uuid.UUID) error {
	labItem, err := s.findLabItem(ctx, labID, itemID)
	if err != nil {
		return err
	}

	affected, err := s.labItemRepo.DetachTag(ctx, labItem.ID, tagID)
	if err != nil {
		return apperror.Wrap(apperror.Internal, "failed to detach tag", err)
	}
	if affected == 0 {
		return apperror.New(apperror.NotFound, "tag not attached to this item")
	}
	return nil
}

// BulkImport processes rows independently: a failed row reports its error
// and does not abort the rest.
func (s *inventoryService) BulkImport(ctx context.Context, actor Actor, labID uuid.UUID, req BulkImportRequest) []BulkImportRowResult {
	actor.Source = model.SourceBulkImport

	results := make([]BulkImportRowResult, 0, len(req.Items))
	for _, row := range req.Items {
		_, err := s.AddItem(ctx, actor, labID, row)
		res := BulkImportRowResult{ItemID: row.ItemID, OK: err == nil}
		if err != nil {
			res.Error = err.Error()
			s.logger.Warn("bulk import row failed",
				zap.String("lab_id", labID.String()),
				zap.String("item_id", row.ItemID),
				zap.Error(err))
		}
		results = append(results, res)
	}
	return results
}

func (s *inventoryService) findLabItem(ctx context.Context, labID, itemID uuid.UUID) (*model.LabInventoryItem, error) {
	labItem, err := s.labItemRepo.FindByLabAndItem(ctx, labID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, "item not found in this lab")
		}
		return nil, apperror.Wrap(apperror.Internal, "lab inventory lookup failed", err)
	}
	return labItem, nil
}

func (s *inventoryService) broadcast(labID uuid.UUID, event string, labItemID uuid.UUID) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastLab(labID, ws.InventoryEvent{
		Event:     event,
		LabID:     labID.String(),
		LabItemID: labItemID.String(),
	})
}

func toLabItemResponse(item *model.LabInventoryItem, tags []string) LabItemResponse {
	if tags == nil {
		tags = []string{}
	}
	return LabItemResponse{
		ID:           item.ID.String(),
		LabID:        item.LabID.String(),
		ItemID:       item.ItemID.String(),
		ItemName:     item.Item.Name,
		Location:     item.Location,
		ItemUnit:     item.ItemUnit,
		CurrentStock: item.CurrentStock,
		MinStock:     item.MinStock,
		BelowMin:     item.CurrentStock < item.MinStock,
		Tags:         tags,
	}
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("invalid uuid %q: %w", r, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
