// Package handler exposes the engagement workflow HTTP endpoints.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"permitflow_backend/internal/engagement/service"
	"permitflow_backend/internal/engagement/transport"
	"permitflow_backend/platform/httpkit"
	"permitflow_backend/platform/validator"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the workflow routes on the given group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/run", h.HandleRun)
	group.GET("", h.HandleList)
	group.GET("/:leadID", h.HandleGet)
	group.POST("/:leadID/approve", h.HandleApprove)
}

// HandleRun starts a workflow and returns its state once it suspends or ends.
func (h *Handler) HandleRun(c *gin.Context) {
	var req transport.RunWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	st, err := h.svc.Run(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.WorkflowResponse{State: st})
}

// HandleApprove resolves a pending approval gate.
func (h *Handler) HandleApprove(c *gin.Context) {
	leadID := c.Param("leadID")

	var req transport.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	st, err := h.svc.Approve(c.Request.Context(), leadID, req.Decision == "approve")
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.WorkflowResponse{State: st})
}

// HandleGet returns the workflow state and its history.
func (h *Handler) HandleGet(c *gin.Context) {
	resp, err := h.svc.Get(c.Request.Context(), c.Param("leadID"))
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, resp)
}

// HandleList returns recent workflows.
func (h *Handler) HandleList(c *gin.Context) {
	includeComplete := c.Query("include_complete") == "true"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	resp, err := h.svc.List(c.Request.Context(), includeComplete, limit)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, resp)
}
