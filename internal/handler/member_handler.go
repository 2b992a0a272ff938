package handler

import (
	"net/http"
	"strconv"

	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	memberService     service.MemberService
	permissionService service.PermissionService
}

func NewMemberHandler(memberService service.MemberService, permissionService service.PermissionService) *MemberHandler {
	return &MemberHandler{memberService: memberService, permissionService: permissionService}
}

func (h *MemberHandler) RegisterRoutes(router *gin.RouterGroup) {
	members := router.Group("/:labId/members")
	{
		members.GET("", h.ListMembers)
		members.POST("", h.AddMember)
		members.PUT("/:memberId/role", h.UpdateMemberRole)
		members.DELETE("/:memberId", h.RemoveMember)
		members.POST("/:memberId/reactivate", h.ReactivateMember)
	}
}

// ListMembers lists a lab's memberships
// @Summary      List lab members
// @Tags         members
// @Security     BearerAuth
// @Produce      json
// @Param        labId          path      string  true   "Lab ID"
// @Param        includeFormer  query     bool    false  "Include tombstoned memberships"
// @Success      200            {object}  response.Response{data=[]service.MemberResponse}
// @Failure      403            {object}  response.Response
// @Router       /lab/{labId}/members [get]
func (h *MemberHandler) ListMembers(c *gin.Context) {
	labID, ok := parseIDParam(c, "labId")
	if !ok {
		return
	}

	if _, ok := authorizeLabManager(c, h.permissionService, labID); !ok {
		return
	}

	includeFormer, _ := strconv.ParseBool(c.DefaultQuery("includeFormer", "false"))
	members, err := h.memberService.ListMembers(c.Request.Context(), labID, includeFormer)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, members))
}

// AddMember joins a user to a lab
// @Summary      Add lab member
// @Tags         members
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        labId    path      string                    true  "Lab ID"
// @Param        payload  body      service.AddMemberRequest  true  "Membership Payload"
// @Success      201      {object}  response.Response{data=service.MemberResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /lab/{labId}/members [post]
func (h *MemberHandler) AddMember(c *gin.Context) {
	labID, ok := parseIDParam(c, "labId")
	if !ok {
		return
	}

	var req service.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if _, ok := authorizeLabManager(c, h.permissionService, labID); !ok {
		return
	}

	member, err := h.memberService.AddMember(c.Request.Context(), labID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, member))
}

// UpdateMemberRole changes a member's lab role
// @Summary      Update member role
// @Description  Assigns a new lab role; the reserved Former Member role is rejected
// @Tags         members
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        labId     path      string                           true  "Lab ID"
// @Param        memberId  path      string                           true  "Member ID"
// @Param        payload   body      service.UpdateMemberRoleRequest  true  "Role Payload"
// @Success      200       {object}  response.Response{data=service.MemberResponse}
// @Failure      400       {object}  response.Response
// @Failure      403       {object}  response.Response
// @Failure      404       {object}  response.Response
// @Router       /lab/{labId}/members/{memberId}/role [put]
func (h *MemberHandler) UpdateMemberRole(c *gin.Context) {
	labID, ok := parseIDParam(c, "labId")
	if !ok {
		return
	}
	memberID, ok := parseIDParam(c, "memberId")
	if !ok {
		return
	}

	var req service.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if _, ok := authorizeLabManager(c, h.permissionService, labID); !ok {
		return
	}

	member, err := h.memberService.UpdateMemberRole(c.Request.Context(), labID, memberID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, member))
}

// RemoveMember tombstones a membership
// @Summary      Remove lab member
// @Description  Switches the membership to the Former Member tombstone; the row is retained for reactivation
// @Tags         members
// @Security     BearerAuth
// @Produce      json
// @Param        labId     path      string  true  "Lab ID"
// @Param        memberId  path      string  true  "Member ID"
// @Success      200       {object}  response.Response
// @Failure      403       {object}  response.Response
// @Failure      404       {object}  response.Response
// @Failure      409       {object}  response.Response
// @Router       /lab/{labId}/members/{memberId} [delete]
func (h *MemberHandler) RemoveMember(c *gin.Context) {
	labID, ok := parseIDParam(c, "labId")
	if !ok {
		return
	}
	memberID, ok := parseIDParam(c, "memberId")
	if !ok {
		return
	}

	if _, ok := authorizeLabManager(c, h.permissionService, labID); !ok {
		return
	}

	if err := h.memberService.RemoveMember(c.Request.Context(), labID, memberID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Membership tombstoned"))
}

// ReactivateMember restores a tombstoned membership
// @Summary      Reactivate lab member
// @Tags         members
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        labId     path      string                           true  "Lab ID"
// @Param        memberId  path      string                           true  "Member ID"
// @Param        payload   body      service.ReactivateMemberRequest  true  "Role Payload"
// @Success      200       {object}  response.Response{data=service.MemberResponse}
// @Failure      400       {object}  response.Response
// @Failure      403       {object}  response.Response
// @Failure      409       {object}  response.Response
// @Router       /lab/{labId}/members/{memberId}/reactivate [post]
func (h *MemberHandler) ReactivateMember(c *gin.Context) {
	labID, ok := parseIDParam(c, "labId")
	if !ok {
		return
	}
	memberID, ok := parseIDParam(c, "memberId")
	if !ok {
		return
	}

	var req service.ReactivateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if _, ok := authorizeLabManager(c, h.permissionService, labID); !ok {
		return
	}

	member, err := h.memberService.ReactivateMember(c.Request.Context(), labID, memberID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, member))
}
