// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"kids-talk-go/internal/middleware"
	"kids-talk-go/internal/service"
	"kids-talk-go/pkg/log"
)

// UserHandler 负责处理注册、登录、登出和会话查询请求。
type UserHandler struct {
	userService      service.UserService
	sessionMaxAgeSec int
}

// NewUserHandler 创建一个新的 UserHandler 实例。
// sessionMaxAgeSec 是会话 Cookie 的 Max-Age，与令牌有效期对齐。
func NewUserHandler(userService service.UserService, sessionMaxAgeSec int) *UserHandler {
	return &UserHandler{
		userService:      userService,
		sessionMaxAgeSec: sessionMaxAgeSec,
	}
}

// SignupPage 渲染注册表单。
func (h *UserHandler) SignupPage(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", gin.H{})
}

// Signup 处理注册表单提交。
// 成功后重定向到登录页；失败时带错误消息重新渲染表单。
func (h *UserHandler) Signup(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	user, err := h.userService.Register(username, password)
	if err != nil {
		log.Warnf("Signup: registration failed for '%s', error: %v", username, err)
		status := http.StatusBadRequest
		if errors.Is(err, service.ErrUsernameTaken) {
			status = http.StatusConflict
		}
		c.HTML(status, "signup.html", gin.H{"error": userFacingError(err)})
		return
	}

	log.Infof("User '%s' registered successfully", user.Username)
	c.Redirect(http.StatusFound, "/signin")
}

// SigninPage 渲染登录表单。
func (h *UserHandler) SigninPage(c *gin.Context) {
	c.HTML(http.StatusOK, "signin.html", gin.H{})
}

// Signin 处理登录表单提交。
// 成功时写入会话 Cookie 并重定向到首页；新 Cookie 总是覆盖浏览器此前的会话。
func (h *UserHandler) Signin(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	sessionToken, user, err := h.userService.Login(username, password)
	if err != nil {
		log.Warnf("Signin: authentication failed for '%s', error: %v", username, err)
		c.HTML(http.StatusUnauthorized, "signin.html", gin.H{"error": userFacingError(err)})
		return
	}

	c.SetCookie(middleware.SessionCookieName, sessionToken, h.sessionMaxAgeSec, "/", "", false, true)
	log.Infof("User '%s' signed in successfully", user.Username)
	c.Redirect(http.StatusFound, "/")
}

// Signout 处理登出请求：拉黑当前令牌、清除 Cookie、重定向首页。
// 没有活跃会话时同样安全。
func (h *UserHandler) Signout(c *gin.Context) {
	sessionToken := middleware.SessionToken(c)
	if err := h.userService.Logout(c.Request.Context(), sessionToken); err != nil {
		// 拉黑失败只记录，登出流程照常完成
		log.Error("Signout: failed to denylist session token", err)
	}

	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

// CheckAuth 返回当前浏览器的认证状态。
// 该路由对匿名访问开放，永远返回 200。
func (h *UserHandler) CheckAuth(c *gin.Context) {
	sessionToken := middleware.SessionToken(c)
	if sessionToken == "" {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	user, err := h.userService.CurrentUser(c.Request.Context(), sessionToken)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"username":      user.Username,
	})
}

// userFacingError 把账号错误转换成给用户看的短消息。
// 非预期错误统一归为服务器内部问题，不泄露细节。
func userFacingError(err error) string {
	switch {
	case errors.Is(err, service.ErrUsernameRequired),
		errors.Is(err, service.ErrPasswordRequired),
		errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrIncorrectUsername),
		errors.Is(err, service.ErrIncorrectPassword):
		return err.Error()
	default:
		return "internal_error"
	}
}
