package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"kids-talk-go/internal/model"
	"kids-talk-go/pkg/llm"
	"kids-talk-go/pkg/log"
	"kids-talk-go/pkg/speech"
)

// 对话相关的错误。校验类错误映射为 400，阶段性错误映射为 500。
var (
	ErrUnknownObject   = errors.New("unknown_object")
	ErrInvalidAge      = errors.New("invalid_age")
	ErrMessageRequired = errors.New("message_required")
	ErrTranscription   = errors.New("transcription failed")
	ErrGeneration      = errors.New("generation failed")
	ErrSynthesis       = errors.New("synthesis failed")
)

// Reply 是一轮对话的结果：回复文本和可访问的音频 URL。
type Reply struct {
	Text     string `json:"text"`
	AudioURL string `json:"audio_url"`
}

// ConversationService 编排一轮对话：
// 解析输入（文本或录音转写）→ 调用语言模型生成回复 → 合成语音 → 落盘。
//
// 合成结果写入 <temp>/<object>_response.mp3，同一对象的后续请求覆盖旧文件。
// 并发请求同一对象时以最后写入者为准，读取方可能短暂看到旧文件；
// 这是面向单个孩子的已知限制，不加锁。
type ConversationService interface {
	Respond(ctx context.Context, objectName string, age int, message string, isGreeting bool) (*Reply, error)
	RespondAudio(ctx context.Context, objectName string, age int, audio io.Reader, filename string) (*Reply, error)
}

type conversationService struct {
	llmClient   llm.Client
	transcriber speech.Transcriber
	synthesizer speech.Synthesizer
	tempDir     string
}

// NewConversationService 创建一个新的 ConversationService 实例。
// tempDir 是合成语音的落盘目录，必须位于静态服务目录之下。
func NewConversationService(llmClient llm.Client, transcriber speech.Transcriber, synthesizer speech.Synthesizer, tempDir string) ConversationService {
	return &conversationService{
		llmClient:   llmClient,
		transcriber: transcriber,
		synthesizer: synthesizer,
		tempDir:     tempDir,
	}
}

// Respond 处理一轮文本输入的对话。
// isGreeting 为 true 时不需要用户消息，改用固定的自我介绍指令。
func (s *conversationService) Respond(ctx context.Context, objectName string, age int, message string, isGreeting bool) (*Reply, error) {
	// 1. 校验输入
	persona, ok := model.PersonaByKey(objectName)
	if !ok {
		return nil, ErrUnknownObject
	}
	if age <= 0 {
		return nil, ErrInvalidAge
	}
	if !isGreeting && message == "" {
		return nil, ErrMessageRequired
	}

	// 2. 构建系统提示与用户内容
	userContent := message
	if isGreeting {
		userContent = "Please introduce yourself to the child and ask them one friendly question."
	}
	messages := []llm.Message{
		{Role: "system", Content: buildSystemPrompt(persona, age)},
		{Role: "user", Content: userContent},
	}

	// 3. 调用语言模型生成回复，空回复是硬错误
	replyText, err := s.llmClient.Chat(ctx, messages, nil)
	if err != nil {
		log.Errorf("[ConversationService] 生成回复失败, object: %s, error: %v", objectName, err)
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	// 4. 用 persona 对应的音色合成语音
	audio, err := s.synthesizer.Synthesize(ctx, replyText, persona.Voice)
	if err != nil {
		log.Errorf("[ConversationService] 语音合成失败, object: %s, error: %v", objectName, err)
		return nil, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}

	// 5. 写入对象对应的固定路径，覆盖上一轮的文件
	fileName := objectName + "_response.mp3"
	if err := os.MkdirAll(s.tempDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.tempDir, fileName), audio, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write audio file: %w", err)
	}

	log.Infow("conversation turn completed",
		"object", objectName,
		"age", age,
		"greeting", isGreeting,
		"replyChars", len(replyText),
		"audioBytes", len(audio),
	)

	return &Reply{
		Text:     replyText,
		AudioURL: "/static/temp/" + fileName,
	}, nil
}

// RespondAudio 处理一轮录音输入的对话：先转写，再走文本链路。
func (s *conversationService) RespondAudio(ctx context.Context, objectName string, age int, audio io.Reader, filename string) (*Reply, error) {
	if _, ok := model.PersonaByKey(objectName); !ok {
		return nil, ErrUnknownObject
	}
	if age <= 0 {
		return nil, ErrInvalidAge
	}

	transcript, err := s.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		log.Errorf("[ConversationService] 转写失败, object: %s, error: %v", objectName, err)
		return nil, fmt.Errorf("%w: %v", ErrTranscription, err)
	}
	if transcript == "" {
		return nil, fmt.Errorf("%w: empty transcript", ErrTranscription)
	}

	return s.Respond(ctx, objectName, age, transcript, false)
}

// buildSystemPrompt 构建绑定 persona 与孩子年龄的系统提示。
// 字数上限和年龄适配是内容安全约束，必须显式写入提示。
func buildSystemPrompt(p model.Persona, age int) string {
	return fmt.Sprintf(
		"%s You are talking with a %d-year-old child. Always stay in character as the %s. "+
			"Reply in no more than 50 words, using warm, simple language a %d-year-old understands. "+
			"Never mention anything frightening, violent or not suitable for children.",
		p.Character, age, p.DisplayName, age,
	)
}
