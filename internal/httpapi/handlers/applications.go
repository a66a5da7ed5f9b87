package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/chat-platform/internal/common"
)

type applicationReq struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) CreateApplication(c *gin.Context) {
	var req applicationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	app, err := h.Apps.Create(c.Request.Context(), req.Name)
	if err != nil {
		respondErr(c, err, "application not found")
		return
	}
	common.Created(c, app)
}

func (h *Handler) ListApplications(c *gin.Context) {
	data, meta, err := h.Apps.List(c.Request.Context(), pageParams(c))
	if err != nil {
		respondErr(c, err, "application not found")
		return
	}
	common.OKPaged(c, data, meta)
}

func (h *Handler) GetApplication(c *gin.Context) {
	app, err := h.Apps.GetSummary(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondErr(c, err, "application not found")
		return
	}
	common.OK(c, app)
}

func (h *Handler) UpdateApplication(c *gin.Context) {
	var req applicationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	app, err := h.Apps.Update(c.Request.Context(), c.Param("token"), req.Name)
	if err != nil {
		respondErr(c, err, "application not found")
		return
	}
	common.OK(c, app)
}

func (h *Handler) DeleteApplication(c *gin.Context) {
	if err := h.Apps.Delete(c.Request.Context(), c.Param("token")); err != nil {
		respondErr(c, err, "application not found")
		return
	}
	common.OK(c, gin.H{"deleted": true})
}
