package handler

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"kids-talk-go/internal/service"
	"kids-talk-go/pkg/log"
)

// ConversationHandler 负责处理对话相关的 API 请求。
type ConversationHandler struct {
	conversationService service.ConversationService
	tempDir             string
}

// NewConversationHandler 创建一个新的 ConversationHandler 实例。
// tempDir 用于 /check-audio 对合成文件做 stat。
func NewConversationHandler(conversationService service.ConversationService, tempDir string) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
		tempDir:             tempDir,
	}
}

// GenerateRequest 定义了文本对话 API 的请求体结构。
// Message 仅在非开场白模式下必填，由 service 层校验。
type GenerateRequest struct {
	Message           string `json:"message"`
	Object            string `json:"object" binding:"required"`
	Age               int    `json:"age" binding:"required"`
	IsInitialGreeting bool   `json:"is_initial_greeting"`
}

// GenerateResponse 处理一轮文本输入的对话请求。
func (h *ConversationHandler) GenerateResponse(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("GenerateResponse: invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "object and age are required"})
		return
	}

	reply, err := h.conversationService.Respond(c.Request.Context(), req.Object, req.Age, req.Message, req.IsInitialGreeting)
	if err != nil {
		h.writeConversationError(c, err)
		return
	}

	c.JSON(http.StatusOK, reply)
}

// ProcessAudio 处理一轮录音输入的对话请求 (multipart: audio, object, age)。
func (h *ConversationHandler) ProcessAudio(c *gin.Context) {
	object := c.PostForm("object")
	ageStr := c.PostForm("age")
	if object == "" || ageStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "object and age are required"})
		return
	}
	age, err := strconv.Atoi(ageStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "age must be an integer"})
		return
	}

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}
	audio, err := fileHeader.Open()
	if err != nil {
		log.Error("ProcessAudio: failed to open uploaded audio", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read uploaded audio"})
		return
	}
	defer audio.Close()

	reply, err := h.conversationService.RespondAudio(c.Request.Context(), object, age, audio, fileHeader.Filename)
	if err != nil {
		h.writeConversationError(c, err)
		return
	}

	c.JSON(http.StatusOK, reply)
}

// CheckAudio 报告某个合成音频文件是否存在及其大小。
func (h *ConversationHandler) CheckAudio(c *gin.Context) {
	// 只允许裸文件名，防止路径穿越
	name := filepath.Base(c.Param("filename"))
	info, err := os.Stat(filepath.Join(h.tempDir, name))
	if err != nil || info.IsDir() {
		c.JSON(http.StatusOK, gin.H{"exists": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"exists": true,
		"size":   info.Size(),
	})
}

// writeConversationError 把对话错误映射为 HTTP 响应。
// 校验错误返回 400；上游服务失败的细节已在 service 层落日志，客户端拿到 500 和错误串。
func (h *ConversationHandler) writeConversationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownObject),
		errors.Is(err, service.ErrInvalidAge),
		errors.Is(err, service.ErrMessageRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
