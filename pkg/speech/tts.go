package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"kids-talk-go/internal/config"
	"kids-talk-go/pkg/log"
)

// Synthesizer defines the interface for a text-to-speech client.
type Synthesizer interface {
	// Synthesize 用指定音色合成语音，返回完整的 MP3 字节。
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// wsSynthesizer 通过 WebSocket 流式协议调用语音合成服务：
// 发送一条 JSON 请求，服务端以 JSON 帧返回 base64 音频分块，
// 负的 sequence 表示最后一帧。
type wsSynthesizer struct {
	cfg    config.TTSConfig
	dialer *websocket.Dialer
}

// NewSynthesizer creates a websocket-based TTS client.
func NewSynthesizer(cfg config.TTSConfig) Synthesizer {
	return &wsSynthesizer{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 30 * time.Second,
		},
	}
}

type synthesisRequest struct {
	User struct {
		UID string `json:"uid"`
	} `json:"user"`
	ReqParams struct {
		Speaker     string               `json:"speaker"`
		Text        string               `json:"text"`
		AudioParams synthesisAudioParams `json:"audio_params"`
	} `json:"req_params"`
}

type synthesisAudioParams struct {
	Format     string `json:"format"`
	SampleRate int    `json:"sample_rate"`
}

type synthesisServerMessage struct {
	ReqID    string `json:"reqid"`
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Sequence int    `json:"sequence"`
	Data     string `json:"data"`
}

// 单帧读超时。挂死的服务连接最迟在这里被切断。
const frameReadTimeout = 60 * time.Second

// Synthesize 建立连接、发送合成请求并收集所有音频分块。
func (s *wsSynthesizer) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("synthesis text is empty")
	}

	reqID := uuid.NewString()
	header := http.Header{}
	header.Set("X-Api-App-Key", s.cfg.AppKey)
	header.Set("X-Api-Access-Key", s.cfg.AccessKey)
	header.Set("X-Api-Request-Id", reqID)

	conn, resp, err := s.dialer.DialContext(ctx, s.cfg.Endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to dial tts endpoint (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to dial tts endpoint: %w", err)
	}
	defer conn.Close()

	format := s.cfg.Format
	if format == "" {
		format = "mp3"
	}
	sampleRate := s.cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = 24000
	}

	var req synthesisRequest
	req.User.UID = reqID
	req.ReqParams.Speaker = voice
	req.ReqParams.Text = text
	req.ReqParams.AudioParams = synthesisAudioParams{
		Format:     format,
		SampleRate: sampleRate,
	}

	if err := conn.WriteJSON(&req); err != nil {
		return nil, fmt.Errorf("failed to send synthesis request: %w", err)
	}

	var audio []byte
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(frameReadTimeout))
		var msg synthesisServerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return nil, fmt.Errorf("failed to read synthesis frame: %w", err)
		}

		if msg.Code != 0 {
			return nil, fmt.Errorf("tts service error (code %d): %s", msg.Code, msg.Message)
		}

		if msg.Data != "" {
			chunk, err := base64.StdEncoding.DecodeString(msg.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to decode audio chunk: %w", err)
			}
			audio = append(audio, chunk...)
		}

		// 负的 sequence 表示最后一帧
		if msg.Sequence < 0 {
			break
		}
	}

	if len(audio) == 0 {
		return nil, fmt.Errorf("tts service returned no audio data")
	}

	log.Infof("[Synthesizer] 合成完成, reqid: %s, 音频大小: %d 字节", reqID, len(audio))
	return audio, nil
}
