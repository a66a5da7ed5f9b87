package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/chat-platform/internal/common"
)

func (h *Handler) CreateChat(c *gin.Context) {
	view, err := h.Chats.Create(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondErr(c, err, "application not found")
		return
	}
	common.Created(c, view)
}

func (h *Handler) ListChats(c *gin.Context) {
	data, meta, err := h.Chats.List(c.Request.Context(), c.Param("token"), pageParams(c))
	if err != nil {
		respondErr(c, err, "application not found")
		return
	}
	common.OKPaged(c, data, meta)
}

func (h *Handler) GetChat(c *gin.Context) {
	number, ok := chatNumberParam(c)
	if !ok {
		return
	}

	view, err := h.Chats.Get(c.Request.Context(), c.Param("token"), number)
	if err != nil {
		respondErr(c, err, "chat not found")
		return
	}
	common.OK(c, view)
}

func (h *Handler) DeleteChat(c *gin.Context) {
	number, ok := chatNumberParam(c)
	if !ok {
		return
	}

	if err := h.Chats.Delete(c.Request.Context(), c.Param("token"), number); err != nil {
		respondErr(c, err, "chat not found")
		return
	}
	common.OK(c, gin.H{"deleted": true})
}
