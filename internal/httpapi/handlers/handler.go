package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/chat-platform/internal/chat"
	"github.com/suPer8Hu/chat-platform/internal/common"
)

type Handler struct {
	Apps     *chat.ApplicationService
	Chats    *chat.ChatService
	Messages *chat.MessageService
}

func NewHandler(apps *chat.ApplicationService, chats *chat.ChatService, messages *chat.MessageService) *Handler {
	return &Handler{Apps: apps, Chats: chats, Messages: messages}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"status": "up"})
}

// respondErr maps the domain error taxonomy onto HTTP statuses. Infra errors
// never reach here; they are swallowed and logged inside the services.
func respondErr(c *gin.Context, err error, notFoundMsg string) {
	var ve *chat.ValidationError
	switch {
	case errors.As(err, &ve):
		common.Fail(c, http.StatusBadRequest, 40001, ve.Error())
	case errors.Is(err, chat.ErrNotFound):
		common.Fail(c, http.StatusNotFound, 40401, notFoundMsg)
	default:
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
	}
}

func pageParams(c *gin.Context) chat.PageParams {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return chat.PageParams{Page: page, Limit: limit}.Clamped()
}

func chatNumberParam(c *gin.Context) (int64, bool) {
	n, err := strconv.ParseInt(c.Param("number"), 10, 64)
	if err != nil || n < 1 {
		common.Fail(c, http.StatusBadRequest, 40002, "invalid chat number")
		return 0, false
	}
	return n, true
}
