package handler

import (
	"fmt"
	"net/http"

	"backend/internal/apperror"
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError translates the service error taxonomy into a transport
// status. Handlers never inspect message strings.
func respondError(c *gin.Context, err error) {
	status := apperror.HTTPStatus(apperror.KindOf(err))
	c.JSON(status, response.Error(status, err.Error()))
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// authorizeLabManager runs the permission evaluator with the policy used
// by every mutating inventory and membership route: lab-manager tier, or
// the global-admin override. On Allow it assembles the acting identity,
// provenance included; on Deny it writes the 403 itself.
func authorizeLabManager(c *gin.Context, perms service.PermissionService, labID uuid.UUID) (service.Actor, bool) {
	caller := middleware.CallerID(c)

	decision, err := perms.Evaluate(c.Request.Context(), caller, labID, model.LabManagerLevel, model.GlobalAdminLevel)
	if err != nil {
		respondError(c, err)
		return service.Actor{}, false
	}
	if !decision.Allowed {
		msg := fmt.Sprintf("%s (required level %d, actual level %d)",
			decision.Reason, decision.RequiredLevel, decision.ActualLevel)
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, msg))
		return service.Actor{}, false
	}

	source := perms.DeriveSource(middleware.SurfaceOf(c), middleware.AuthViaBearer(c))
	return service.Actor{
		UserID:   caller,
		MemberID: decision.MemberID(),
		Source:   source,
	}, true
}
