package halsning

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/halsning/halsning-go/pkg/core/live"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(context.Background(),
		WithAPIKey("test-key"),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func newLiveWebsocketTestServer(t *testing.T, handler func(r *http.Request, conn *websocket.Conn)) (string, func()) {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		handler(r, conn)
	}))

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	return wsURL, server.Close
}

func TestLiveConnect_SetupHandshakeAndRealtimeFrame(t *testing.T) {
	t.Parallel()

	keyCh := make(chan string, 1)
	setupCh := make(chan map[string]any, 1)
	frameCh := make(chan map[string]any, 1)

	serverURL, closeServer := newLiveWebsocketTestServer(t, func(r *http.Request, conn *websocket.Conn) {
		defer conn.Close()
		keyCh <- r.URL.Query().Get("key")

		var setup map[string]any
		if err := conn.ReadJSON(&setup); err != nil {
			return
		}
		setupCh <- setup

		_ = conn.WriteJSON(map[string]any{"setupComplete": map[string]any{}})

		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var frame map[string]any
		if err := conn.ReadJSON(&frame); err == nil {
			frameCh <- frame
		}
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(2*time.Second))
	})
	defer closeServer()

	client := newTestClient(t)
	client.Live.endpoint = serverURL

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	transport, err := client.Live.connect(ctx, LiveOptions{})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer transport.Close()

	if key := <-keyCh; key != "test-key" {
		t.Errorf("dial carried key %q, want %q", key, "test-key")
	}

	setupFrame := (<-setupCh)["setup"].(map[string]any)
	if got := setupFrame["model"]; got != ModelLive {
		t.Errorf("setup model = %v, want %v", got, ModelLive)
	}
	gen := setupFrame["generationConfig"].(map[string]any)
	modalities := gen["responseModalities"].([]any)
	if len(modalities) != 1 || modalities[0] != "AUDIO" {
		t.Errorf("responseModalities = %v, want [AUDIO]", modalities)
	}
	voice := gen["speechConfig"].(map[string]any)["voiceConfig"].(map[string]any)["prebuiltVoiceConfig"].(map[string]any)
	if voice["voiceName"] != DefaultVoice {
		t.Errorf("voiceName = %v, want %v", voice["voiceName"], DefaultVoice)
	}
	for _, field := range []string{"systemInstruction", "inputAudioTranscription", "outputAudioTranscription"} {
		if _, ok := setupFrame[field]; !ok {
			t.Errorf("setup frame missing %q", field)
		}
	}

	transport.Send(live.EncodedFrame{Data: "AAAA", MIMEType: live.InputMIMEType})

	select {
	case frame := <-frameCh:
		media := frame["realtimeInput"].(map[string]any)["media"].(map[string]any)
		if media["data"] != "AAAA" || media["mimeType"] != live.InputMIMEType {
			t.Errorf("realtime frame = %v", media)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the realtime frame")
	}

	for range transport.Events() {
		// drain until the server close lands
	}
}

func TestLiveTransport_EmitsEventsInArrivalOrder(t *testing.T) {
	t.Parallel()

	serverURL, closeServer := newLiveWebsocketTestServer(t, func(r *http.Request, conn *websocket.Conn) {
		defer conn.Close()
		var setup map[string]any
		if err := conn.ReadJSON(&setup); err != nil {
			return
		}
		_ = conn.WriteJSON(map[string]any{"setupComplete": map[string]any{}})

		_ = conn.WriteJSON(map[string]any{"serverContent": map[string]any{
			"inputTranscription":  map[string]any{"text": "Hej"},
			"outputTranscription": map[string]any{"text": "Hej där"},
			"modelTurn": map[string]any{"parts": []any{
				map[string]any{"inlineData": map[string]any{"mimeType": "audio/pcm;rate=24000", "data": "UEsA"}},
			}},
			"turnComplete": true,
		}})
		_ = conn.WriteJSON(map[string]any{"serverContent": map[string]any{"interrupted": true}})
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(2*time.Second))
	})
	defer closeServer()

	client := newTestClient(t)
	client.Live.endpoint = serverURL

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	transport, err := client.Live.connect(ctx, LiveOptions{})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer transport.Close()

	var types []string
	for event := range transport.Events() {
		types = append(types, event.EventType())
	}
	want := []string{"transcript.partial", "transcript.partial", "audio.chunk", "turn.complete", "interrupted", "closed"}
	if len(types) != len(want) {
		t.Fatalf("event types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, types[i], want[i])
		}
	}
}

func TestLiveConnect_RejectsWrongFirstFrame(t *testing.T) {
	t.Parallel()

	serverURL, closeServer := newLiveWebsocketTestServer(t, func(r *http.Request, conn *websocket.Conn) {
		defer conn.Close()
		var setup map[string]any
		if err := conn.ReadJSON(&setup); err != nil {
			return
		}
		_ = conn.WriteJSON(map[string]any{"serverContent": map[string]any{"turnComplete": true}})
	})
	defer closeServer()

	client := newTestClient(t)
	client.Live.endpoint = serverURL

	_, err := client.Live.connect(context.Background(), LiveOptions{})
	if err == nil {
		t.Fatal("expected connect error")
	}
	if !strings.Contains(err.Error(), "setupComplete") {
		t.Errorf("error = %q, want setupComplete mention", err)
	}
}

func TestLiveTransport_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	serverURL, closeServer := newLiveWebsocketTestServer(t, func(r *http.Request, conn *websocket.Conn) {
		defer conn.Close()
		var setup map[string]any
		if err := conn.ReadJSON(&setup); err != nil {
			return
		}
		_ = conn.WriteJSON(map[string]any{"setupComplete": map[string]any{}})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer closeServer()

	client := newTestClient(t)
	client.Live.endpoint = serverURL

	transport, err := client.Live.connect(context.Background(), LiveOptions{})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	if err := transport.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := transport.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	for range transport.Events() {
	}
}

func TestLiveTransport_SendDropsWhenQueueIsFull(t *testing.T) {
	t.Parallel()

	// No write loop draining the queue, so every frame past capacity must
	// be dropped without blocking the caller.
	transport := &liveTransport{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		events:   make(chan live.ServerEvent),
		outbound: make(chan live.EncodedFrame, 2),
		quit:     make(chan struct{}),
	}
	frame := live.EncodedFrame{Data: "AAAA", MIMEType: live.InputMIMEType}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			transport.Send(frame)
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Send blocked on a saturated outbound queue")
	}

	if got := len(transport.outbound); got != 2 {
		t.Errorf("queued frames = %d, want 2", got)
	}
	if got := transport.dropped.Load(); got != 3 {
		t.Errorf("dropped counter = %d, want 3", got)
	}

	// After close, frames are discarded without counting as drops.
	transport.closed.Store(true)
	transport.Send(frame)
	if got := transport.dropped.Load(); got != 3 {
		t.Errorf("dropped counter after close = %d, want 3", got)
	}
}

func TestLiveStart_RejectsSecondSession(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	client.Live.active.Store(true)

	_, err := client.Live.Start(context.Background(), LiveOptions{})
	if err == nil {
		t.Fatal("expected second session to be rejected")
	}
	if !strings.Contains(err.Error(), "already active") {
		t.Errorf("error = %q", err)
	}
}
