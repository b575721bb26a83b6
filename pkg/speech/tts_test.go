package speech

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"kids-talk-go/internal/config"
)

// newFakeTTSServer 启动一个假的合成服务端，收到请求后按 frames 逐帧回复。
func newFakeTTSServer(t *testing.T, onRequest func(req synthesisRequest), frames []synthesisServerMessage) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		var req synthesisRequest
		if err := conn.ReadJSON(&req); err != nil {
			t.Errorf("failed to read synthesis request: %v", err)
			return
		}
		if onRequest != nil {
			onRequest(req)
		}

		for _, frame := range frames {
			if err := conn.WriteJSON(frame); err != nil {
				t.Errorf("failed to write frame: %v", err)
				return
			}
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestSynthesizeCollectsAudioChunks(t *testing.T) {
	var gotReq synthesisRequest
	server := newFakeTTSServer(t, func(req synthesisRequest) { gotReq = req }, []synthesisServerMessage{
		{Code: 0, Sequence: 1, Data: base64.StdEncoding.EncodeToString([]byte("chunk-one-"))},
		{Code: 0, Sequence: 2, Data: base64.StdEncoding.EncodeToString([]byte("chunk-two"))},
		{Code: 0, Sequence: -3, Data: ""},
	})
	defer server.Close()

	client := NewSynthesizer(config.TTSConfig{
		AppKey:     "app",
		AccessKey:  "access",
		Endpoint:   wsURL(server),
		Format:     "mp3",
		SampleRate: 24000,
	})

	audio, err := client.Synthesize(context.Background(), "Hello there!", "en_female_skye_emo_v2_mars_bigtts")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if string(audio) != "chunk-one-chunk-two" {
		t.Fatalf("unexpected audio: %q", audio)
	}

	if gotReq.ReqParams.Speaker != "en_female_skye_emo_v2_mars_bigtts" {
		t.Fatalf("unexpected speaker: %q", gotReq.ReqParams.Speaker)
	}
	if gotReq.ReqParams.Text != "Hello there!" {
		t.Fatalf("unexpected text: %q", gotReq.ReqParams.Text)
	}
	if gotReq.ReqParams.AudioParams.Format != "mp3" {
		t.Fatalf("unexpected format: %q", gotReq.ReqParams.AudioParams.Format)
	}
}

func TestSynthesizeServiceErrorCode(t *testing.T) {
	server := newFakeTTSServer(t, nil, []synthesisServerMessage{
		{Code: 4001, Message: "invalid speaker", Sequence: -1},
	})
	defer server.Close()

	client := NewSynthesizer(config.TTSConfig{Endpoint: wsURL(server)})
	_, err := client.Synthesize(context.Background(), "hi", "bad-voice")
	if err == nil || !strings.Contains(err.Error(), "invalid speaker") {
		t.Fatalf("expected the service error to surface, got %v", err)
	}
}

func TestSynthesizeRejectsEmptyInputs(t *testing.T) {
	client := NewSynthesizer(config.TTSConfig{Endpoint: "ws://unused"})

	if _, err := client.Synthesize(context.Background(), "   ", "voice"); err == nil {
		t.Fatal("expected empty text to be rejected before dialing")
	}
}

func TestSynthesizeEmptyAudioIsError(t *testing.T) {
	server := newFakeTTSServer(t, nil, []synthesisServerMessage{
		{Code: 0, Sequence: -1, Data: ""},
	})
	defer server.Close()

	client := NewSynthesizer(config.TTSConfig{Endpoint: wsURL(server)})
	_, err := client.Synthesize(context.Background(), "hi", "voice")
	if err == nil || !strings.Contains(err.Error(), "no audio data") {
		t.Fatalf("expected no-audio error, got %v", err)
	}
}
