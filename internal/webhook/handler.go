package webhook

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"permitflow_backend/platform/httpkit"
	"permitflow_backend/platform/validator"
)

type Handler struct {
	svc *Service
	val *validator.Validator
}

func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// HandleReply accepts an inbound reply event from a mail or messaging
// provider and feeds it into the resumption gateway.
func (h *Handler) HandleReply(c *gin.Context) {
	var in InboundReply
	if err := c.ShouldBindJSON(&in); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(in); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	result, err := h.svc.HandleReply(c.Request.Context(), in)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, result)
}
