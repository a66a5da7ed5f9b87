package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/chat-platform/internal/common"
	"github.com/suPer8Hu/chat-platform/internal/httpapi/handlers"
	"github.com/suPer8Hu/chat-platform/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.GET("/ping", h.Ping)

	apps := r.Group("/applications")
	apps.POST("", h.CreateApplication)
	apps.GET("", h.ListApplications)
	apps.GET("/:token", h.GetApplication)
	apps.PUT("/:token", h.UpdateApplication)
	apps.DELETE("/:token", h.DeleteApplication)

	apps.POST("/:token/chats", h.CreateChat)
	apps.GET("/:token/chats", h.ListChats)
	apps.GET("/:token/chats/:number", h.GetChat)
	apps.DELETE("/:token/chats/:number", h.DeleteChat)

	apps.POST("/:token/chats/:number/messages", h.CreateMessage)
	apps.GET("/:token/chats/:number/messages", h.ListMessages)
	apps.GET("/:token/chats/:number/messages/search", h.SearchMessages)

	return r
}
