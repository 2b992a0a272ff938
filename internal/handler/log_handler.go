package handler

import (
	"net/http"
	"time"

	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type LogHandler struct {
	logService        service.LogService
	permissionService service.PermissionService
}

func NewLogHandler(logService service.LogService, permissionService service.PermissionService) *LogHandler {
	return &LogHandler{logService: logService, permissionService: permissionService}
}

func (h *LogHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/:labId/inventory-logs", h.QueryForLab)
}

// QueryForLab reconstructs a lab's audit history
// @Summary      Query inventory logs
// @Description  Returns the lab's filtered, paginated audit history, including entries whose item has since been deleted
// @Tags         logs
// @Security     BearerAuth
// @Produce      json
// @Param        labId      path      string  true   "Lab ID"
// @Param        limit      query     int     false  "Page size (default 20, max 100)"
// @Param        offset     query     int     false  "Row offset (default 0)"
// @Param        action     query     string  false  "Filter by action"
// @Param        source     query     string  false  "Filter by source"
// @Param        startDate  query     string  false  "RFC3339 lower bound on createdAt"
// @Param        endDate    query     string  false  "RFC3339 upper bound on createdAt"
// @Param        userId     query     string  false  "Filter by acting user"
// @Param        memberId   query     string  false  "Filter by acting lab member"
// @Success      200        {object}  response.Response{data=service.LogPage}
// @Failure      400        {object}  response.Response
// @Failure      403        {object}  response.Response
// @Router       /lab/{labId}/inventory-logs [get]
func (h *LogHandler) QueryForLab(c *gin.Context) {
	labID, ok := parseIDParam(c, "labId")
	if !ok {
		return
	}

	// Reading the trail needs the same clearance as writing it.
	if _, ok := authorizeLabManager(c, h.permissionService, labID); !ok {
		return
	}

	p := pagination.Parse(c)
	query := service.LogQuery{
		Limit:    p.Limit,
		Offset:   p.Offset,
		Action:   c.Query("action"),
		Source:   c.Query("source"),
		UserID:   c.Query("userId"),
		MemberID: c.Query("memberId"),
	}

	if raw := c.Query("startDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid startDate, expected RFC3339"))
			return
		}
		query.StartDate = &t
	}
	if raw := c.Query("endDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid endDate, expected RFC3339"))
			return
		}
		query.EndDate = &t
	}

	page, err := h.logService.QueryForLab(c.Request.Context(), labID, query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, page))
}
