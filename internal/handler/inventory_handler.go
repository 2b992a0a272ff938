package handler

import (
	"net/http"

	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InventoryHandler struct {
	inventoryService  service.InventoryService
	permissionService service.PermissionService
}

func NewInventoryHandler(inventoryService service.InventoryService, permissionService service.PermissionService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService, permissionService: permissionService}
}

// RegisterRoutes mounts the inventory routes on a lab-scoped group. The
// same handlers serve the lab interface and the admin panel; the groups
// differ only in the surface tag their middleware sets.
func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	inventory := router.Group("/:labId/inventory")
	{
		inventory.GET("", h.ListItems)
		inventory.POST("", h.AddItem)
		inventory.POST("/import", h.BulkImport)
		inventory.PUT("/:itemId", h.UpdateItem)
		inventory.DELETE("/:itemId", h.RemoveItem)
		inventory.POST("/:itemId/stock", h.AdjustStock)
		inventory.POST("/:itemId/tags", h.AddTag)
		inventory.DELETE("/:itemId/tags/:tagId", h.RemoveTag)
	}
}

// ListItems returns a lab's current inventory state
// @Summary      List lab inventory
// @Description  Retrieves the paginated current-state inventory of one lab
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        labId   path      string  true   "Lab ID"
// @Param        limit   query     int     false  "Page size (default 20, max 100)"
// @Param        offset  query     int     false  "Row offset (default 0)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /lab/{labId}/inventory [get]
func (h *InventoryHandler) ListItems(c *gin.Context) {
	labID, ok := parseIDParam(c, "labId")
	if !ok {
		return
	}

	p := pagination.Parse(c)
	items, total, err := h.inventoryService.ListItems(c.Request.Context(), labID, p.Limit, p.Offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"items":      items,
		"pagination": pagination.PageMeta(total, p),
	}))
}

// AddItem instantiates a catalog item inside a lab
// @Summary      Add inventory item
// @Description  Adds a catalog item to the lab with location, unit, stock levels and tags
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        labId    path      string                  true  "Lab ID"
// @Param        payload  body      service.AddItemRequest  true  "Add Item Payload"
// @Success      201      {object}  response.Response{data=service.LabItemResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /lab/{labId}/inventory [post]
func (h *InventoryHandler) AddItem(c *gin.Context) {
	labID, ok := parseIDParam(c, "labId")
	if !ok {
		return
	}

	var req service.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	actor, ok := authorizeLabManager(c, h.permissionService, labID)
	if !ok {
		return
	}

	item, err := h.inventoryService.AddItem(c.Request.Context(), actor, labID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// UpdateItem applies a partial patch to a lab inventory item
// @Summary      Update inventory item
// @Description  Partially updates location, unit or stock levels; every changed field gets its own log entry
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        labId    path      string                     true  "Lab ID"
// @Param        itemId   path      string                     true  "Catalog Item ID"
// @Param        payload  body      service.UpdateItemRequest  true  "Patch Payload"
// @Success      200      {object}  response.Response{data=service.LabItemResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /lab/{labId}/inventory/{itemId} [put]
func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	labID, ok := parseIDParam(c, "labId")
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "itemId")
	if !ok {
		return
	}

	var req service.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	actor, ok := authorizeLabManager(c, h.permissionService, labID)
	if !ok {
		return
	}

	item, err := h.inventoryService.UpdateItem(c.Request.Context(), actor, labID, itemID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// RemoveItem deletes an item from a lab, keeping its audit trail
// @Summary      Remove inventory item
// @Description  Snapshots and deletes the item; log entries survive with a nulled item reference
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        labId   path      string  true  "Lab ID"
// @Param        itemId  path      string  true  "Catalog Item ID"
// @Success      200     {object}  response.Response
// @Failure      403     {object}  response.Response
// @Failure      404     {object}  response.Response
// @Router       /lab/{labId}/inventory/{itemId} [delete]
func (h *InventoryHandler) RemoveItem(c *gin.Context) {
	labID, ok := parseIDParam(c, "labId")
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "itemId")
	if !ok {
		return
	}

	actor, ok := authorizeLabManager(c, h.permissionService, labID)
	if !ok {
		return
	}

	if err := h.inventoryService.RemoveItem(c.Request.Context(), actor, labID, itemID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Item removed from lab inventory"))
}

// AdjustStock replenishes or consumes stock
// @Summary      Adjust stock
// @Description  Applies a signed delta to current stock, logging STOCK_ADD or STOCK_REMOVE
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        labId    path      string                      true  "Lab ID"
// @Param        itemId   path      string                      true  "Catalog Item ID"
// @Param        payload  body      service.AdjustStockRequest  true  "Adjustment Payload"
// @Success      200      {object}  response.Response{data=service.LabItemResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /lab/{labId}/inventory/{itemId}/stock [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	labID, ok := parseIDParam(c, "labId")
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "itemId")
	if !ok {
		return
	}

	var req service.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	actor, ok := authorizeLabManager(c, h.permissionService, labID)
	if !ok {
		return
	}

	item, err := h.inventoryService.AdjustStock(c.Request.Context(), actor, labID, itemID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// AddTag attaches a tag to a lab inventory item
// @Summary      Attach tag
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        labId    path      string  true  "Lab ID"
// @Param        itemId   path      string  true  "Catalog Item ID"
// @Param        payload  body      object{tag_id=string}  true  "Tag Payload"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /lab/{labId}/inventory/{itemId}/tags [post]
func (h *InventoryHandler) AddTag(c *gin.Context) {
	labID, ok := parseIDParam(c, "labId")
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "itemId")
	if !ok {
		return
	}

	var req struct {
		TagID string `json:"tag_id" binding:"required,uuid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	tagID, err := uuid.Parse(req.TagID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid tag id"))
		return
	}

	actor, ok := authorizeLabManager(c, h.permissionService, labID)
	if !ok {
		return
	}

	if err := h.inventoryService.AddTag(c.Request.Context(), actor, labID, itemID, tagID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Tag attached"))
}

// RemoveTag detaches a tag from a lab inventory item
// @Summary      Detach tag
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        labId   path      string  true  "Lab ID"
// @Param        itemId  path      string  true  "Catalog Item ID"
// @Param        tagId   path      string  true  "Tag ID"
// @Success      200     {object}  response.Response
// @Failure      404     {object}  response.Response
// @Router       /lab/{labId}/inventory/{itemId}/tags/{tagId} [delete]
func (h *InventoryHandler) RemoveTag(c *gin.Context) {
	labID, ok := parseIDParam(c, "labId")
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "itemId")
	if !ok {
		return
	}
	tagID, ok := parseIDParam(c, "tagId")
	if !ok {
		return
	}

	actor, ok := authorizeLabManager(c, h.permissionService, labID)
	if !ok {
		return
	}

	if err := h.inventoryService.RemoveTag(c.Request.Context(), actor, labID, itemID, tagID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Tag detached"))
}

// BulkImport adds many items in one request
// @Summary      Bulk import inventory
// @Description  Adds a batch of items; rows succeed or fail independently and are logged with BULK_IMPORT provenance
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        labId    path      string                     true  "Lab ID"
// @Param        payload  body      service.BulkImportRequest  true  "Import Payload"
// @Success      200      {object}  response.Response{data=[]service.BulkImportRowResult}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /lab/{labId}/inventory/import [post]
func (h *InventoryHandler) BulkImport(c *gin.Context) {
	labID, ok := parseIDParam(c, "labId")
	if !ok {
		return
	}

	var req service.BulkImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	actor, ok := authorizeLabManager(c, h.permissionService, labID)
	if !ok {
		return
	}

	results := h.inventoryService.BulkImport(c.Request.Context(), actor, labID, req)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, results))
}
