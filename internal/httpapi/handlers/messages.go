package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/chat-platform/internal/common"
)

type messageReq struct {
	Body string `json:"body" binding:"required"`
}

func (h *Handler) CreateMessage(c *gin.Context) {
	number, ok := chatNumberParam(c)
	if !ok {
		return
	}

	var req messageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	view, err := h.Messages.Create(c.Request.Context(), c.Param("token"), number, req.Body)
	if err != nil {
		respondErr(c, err, "chat not found")
		return
	}
	common.Created(c, view)
}

func (h *Handler) ListMessages(c *gin.Context) {
	number, ok := chatNumberParam(c)
	if !ok {
		return
	}

	data, meta, err := h.Messages.List(c.Request.Context(), c.Param("token"), number, pageParams(c), c.Query("sortBy"))
	if err != nil {
		respondErr(c, err, "chat not found")
		return
	}
	common.OKPaged(c, data, meta)
}

func (h *Handler) SearchMessages(c *gin.Context) {
	number, ok := chatNumberParam(c)
	if !ok {
		return
	}

	query := c.Query("query")
	if query == "" {
		common.Fail(c, http.StatusBadRequest, 40003, "query is required")
		return
	}
	wildcard := c.Query("mode") == "wildcard"

	data, meta, err := h.Messages.Search(c.Request.Context(), c.Param("token"), number, query, pageParams(c), wildcard)
	if err != nil {
		respondErr(c, err, "chat not found")
		return
	}
	common.OKPaged(c, data, meta)
}
