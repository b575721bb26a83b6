package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kids-talk-go/internal/middleware"
	"kids-talk-go/internal/model"
	"kids-talk-go/internal/service"
)

// PageHandler 渲染 HTML 页面。
type PageHandler struct {
	userService service.UserService
}

// NewPageHandler 创建一个新的 PageHandler 实例。
func NewPageHandler(userService service.UserService) *PageHandler {
	return &PageHandler{userService: userService}
}

// Index 渲染首页。匿名访问放行，已登录时带上用户名。
func (h *PageHandler) Index(c *gin.Context) {
	data := gin.H{"personas": model.Personas()}

	if sessionToken := middleware.SessionToken(c); sessionToken != "" {
		if user, err := h.userService.CurrentUser(c.Request.Context(), sessionToken); err == nil {
			data["username"] = user.Username
		}
	}

	c.HTML(http.StatusOK, "index.html", data)
}
