package halsning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/halsning/halsning-go/pkg/core"
	"github.com/halsning/halsning-go/pkg/core/live"
	"github.com/halsning/halsning-go/pkg/core/live/protocol"
)

const (
	liveEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

	defaultLiveConnectTimeout = 15 * time.Second

	// outboundQueueSize holds a few seconds of capture at the 4096-sample
	// frame rate. Frames beyond it are dropped, never blocking capture.
	outboundQueueSize = 64
)

// LiveService runs realtime voice conversations. At most one session is
// active at a time; a second Start is rejected, not queued.
type LiveService struct {
	client   *Client
	endpoint string
	active   atomic.Bool
}

func newLiveService(c *Client) *LiveService {
	return &LiveService{client: c, endpoint: liveEndpoint}
}

// LiveOptions configures one live session. Zero values select the client
// defaults.
type LiveOptions struct {
	Model             string
	Voice             string
	SystemInstruction string
	Callbacks         live.Callbacks
}

// Start opens the live session: connects to the realtime endpoint, acquires
// the microphone and the speaker, and begins streaming. The returned
// session is torn down with its Close method or automatically on a
// connection error.
func (s *LiveService) Start(ctx context.Context, opts LiveOptions) (*live.Session, error) {
	if !s.active.CompareAndSwap(false, true) {
		return nil, core.NewInvalidRequestError("a live session is already active")
	}
	session, err := s.start(ctx, opts)
	if err != nil {
		s.active.Store(false)
		return nil, err
	}
	return session, nil
}

func (s *LiveService) start(ctx context.Context, opts LiveOptions) (*live.Session, error) {
	transport, err := s.connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	speaker, err := live.NewSpeaker()
	if err != nil {
		_ = transport.Close()
		return nil, err
	}
	scheduler := live.NewScheduler(&live.SystemClock{}, speaker)

	mic, err := live.NewMicSource()
	if err != nil {
		_ = transport.Close()
		_ = speaker.Close()
		return nil, err
	}
	capture := live.NewCapture(mic, transport.Send)

	session := live.NewSession(live.SessionParams{
		Transport: transport,
		Capture:   capture,
		Scheduler: scheduler,
		Callbacks: opts.Callbacks,
		Logger:    s.client.logger,
		ReleaseOutput: func() {
			_ = speaker.Close()
		},
	})
	go func() {
		<-session.Done()
		s.active.Store(false)
	}()

	if err := session.Start(); err != nil {
		return nil, err
	}
	s.client.logger.Info("live session started", "session", session.ID())
	if opts.Callbacks.OnOpen != nil {
		opts.Callbacks.OnOpen()
	}
	return session, nil
}

// connect dials the realtime endpoint, performs the setup handshake and
// returns a running transport.
func (s *LiveService) connect(ctx context.Context, opts LiveOptions) (*liveTransport, error) {
	model := opts.Model
	if model == "" {
		model = s.client.liveModel
	}
	voice := opts.Voice
	if voice == "" {
		voice = s.client.voice
	}
	system := opts.SystemInstruction
	if system == "" {
		system = DefaultLiveSystemInstruction
	}

	wsURL := s.endpoint + "?key=" + url.QueryEscape(s.client.apiKey)

	dialer := websocket.DefaultDialer
	dialCtx := ctx
	var cancel context.CancelFunc
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		dialCtx, cancel = context.WithTimeout(ctx, defaultLiveConnectTimeout)
		defer cancel()
	}

	conn, resp, err := dialer.DialContext(dialCtx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, &TransportError{Op: "GET", URL: wsURL, Err: fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)}
		}
		return nil, &TransportError{Op: "GET", URL: wsURL, Err: err}
	}

	setup := protocol.ClientSetup{
		Setup: protocol.Setup{
			Model: model,
			GenerationConfig: protocol.GenerationConfig{
				ResponseModalities: []string{"AUDIO"},
				SpeechConfig: &protocol.SpeechConfig{
					VoiceConfig: protocol.VoiceConfig{
						PrebuiltVoiceConfig: protocol.PrebuiltVoiceConfig{VoiceName: voice},
					},
				},
			},
			SystemInstruction: &protocol.SystemInstruction{
				Parts: []protocol.TextPart{{Text: system}},
			},
		},
	}
	if err := conn.WriteJSON(setup); err != nil {
		_ = conn.Close()
		return nil, &TransportError{Op: "send setup", URL: wsURL, Err: err}
	}

	_ = conn.SetReadDeadline(time.Now().Add(defaultLiveConnectTimeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return nil, &TransportError{Op: "read setup ack", URL: wsURL, Err: err}
	}
	_ = conn.SetReadDeadline(time.Time{})

	_, setupComplete, err := protocol.DecodeServerMessage(payload)
	if err != nil {
		_ = conn.Close()
		return nil, core.NewAPIError(fmt.Sprintf("undecodable setup ack: %v", err))
	}
	if !setupComplete {
		_ = conn.Close()
		return nil, core.NewAPIError("first live frame was not setupComplete")
	}

	t := &liveTransport{
		conn:     conn,
		logger:   s.client.logger,
		events:   make(chan live.ServerEvent, 256),
		outbound: make(chan live.EncodedFrame, outboundQueueSize),
		quit:     make(chan struct{}),
	}
	go t.writeLoop()
	go t.readLoop()
	return t, nil
}

// liveTransport is the websocket connection behind a live session. Inbound
// frames are decoded and emitted on a single channel in arrival order;
// outbound frames go through a bounded queue so Send never blocks the
// capture callback.
type liveTransport struct {
	conn   *websocket.Conn
	logger *slog.Logger

	events   chan live.ServerEvent
	outbound chan live.EncodedFrame
	quit     chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool
	dropped   atomic.Int64
}

// Events yields inbound server events. Closed when the connection ends.
func (t *liveTransport) Events() <-chan live.ServerEvent { return t.events }

// Send queues one capture frame. Fire and forget: when the queue is full
// the frame is dropped and counted.
func (t *liveTransport) Send(frame live.EncodedFrame) {
	if t.closed.Load() {
		return
	}
	select {
	case t.outbound <- frame:
	default:
		if n := t.dropped.Add(1); n == 1 || n%100 == 0 {
			t.logger.Warn("outbound audio queue full, dropping frame", "dropped_total", n)
		}
	}
}

// Close sends a websocket close frame and tears the connection down.
// Idempotent.
func (t *liveTransport) Close() error {
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		close(t.quit)
		t.writeMu.Lock()
		_ = t.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(2*time.Second))
		t.writeMu.Unlock()
		_ = t.conn.Close()
	})
	return nil
}

func (t *liveTransport) writeLoop() {
	for {
		select {
		case frame := <-t.outbound:
			t.writeMu.Lock()
			err := t.conn.WriteJSON(protocol.NewRealtimeInput(frame))
			t.writeMu.Unlock()
			if err != nil {
				if !t.closed.Load() {
					t.logger.Debug("write realtime frame", "error", err)
				}
				return
			}
		case <-t.quit:
			return
		}
	}
}

func (t *liveTransport) readLoop() {
	defer close(t.events)

	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			if t.closed.Load() {
				return
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				t.emit(live.ClosedEvent{Code: closeErr.Code, Reason: closeErr.Text})
				return
			}
			t.emit(live.ErrorEvent{Err: &TransportError{Op: "read", URL: liveEndpoint, Err: err}})
			return
		}

		events, setupComplete, err := protocol.DecodeServerMessage(data)
		if err != nil {
			// Malformed frames are skipped; the connection stays up.
			t.logger.Warn("skipping undecodable live frame", "error", err)
			continue
		}
		if setupComplete {
			continue
		}
		for _, event := range events {
			t.emit(event)
		}
	}
}

// emit blocks until the dispatcher takes the event, preserving arrival
// order. Teardown unblocks it through quit.
func (t *liveTransport) emit(event live.ServerEvent) {
	select {
	case t.events <- event:
	case <-t.quit:
	}
}
