// Package speech 提供语音转文字和语音合成服务的客户端。
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"kids-talk-go/internal/config"
	"kids-talk-go/pkg/log"
)

// Transcriber defines the interface for a speech-to-text client.
type Transcriber interface {
	// Transcribe 将录音转写为文本。filename 用于服务端推断音频格式。
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

type transcriptionClient struct {
	cfg    config.STTConfig
	client *http.Client
}

// NewTranscriber creates a transcription client for an OpenAI-compatible endpoint.
func NewTranscriber(cfg config.STTConfig) Transcriber {
	return &transcriptionClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the audio as multipart form data and returns the transcript.
func (c *transcriptionClient) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("failed to copy audio data: %w", err)
	}
	if err := writer.WriteField("model", c.cfg.Model); err != nil {
		return "", fmt.Errorf("failed to write model field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call transcription api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("transcription api returned non-200 status: %s, body: %s", resp.Status, string(respBody))
	}

	var transcription transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&transcription); err != nil {
		return "", fmt.Errorf("failed to decode transcription response: %w", err)
	}

	log.Infof("[Transcriber] 转写完成, 文本长度: %d", len(transcription.Text))
	return transcription.Text, nil
}
