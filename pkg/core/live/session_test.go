package live

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeTransport struct {
	mu     sync.Mutex
	events chan ServerEvent
	sent   []EncodedFrame
	closes int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{events: make(chan ServerEvent, 16)}
}

func (t *fakeTransport) Send(frame EncodedFrame) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, frame)
}

func (t *fakeTransport) Events() <-chan ServerEvent { return t.events }

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closes++
	if t.closes == 1 {
		close(t.events)
	}
	return nil
}

func (t *fakeTransport) closeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closes
}

func newTestSession(t *testing.T, transport Transport) (*Session, *fakeSource, *fakeOutput, chan []Entry) {
	t.Helper()
	source := &fakeSource{}
	capture := NewCapture(source, func(EncodedFrame) {
		transport.Send(EncodedFrame{})
	})
	out := &fakeOutput{}
	scheduler := NewScheduler(&fakeClock{}, out)

	snapshots := make(chan []Entry, 16)
	session := NewSession(SessionParams{
		Transport: transport,
		Capture:   capture,
		Scheduler: scheduler,
		Callbacks: Callbacks{
			OnTranscript: func(entries []Entry) { snapshots <- entries },
		},
	})
	return session, source, out, snapshots
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not tear down")
	}
}

func lastSnapshot(t *testing.T, snapshots chan []Entry, want int) []Entry {
	t.Helper()
	deadline := time.After(2 * time.Second)
	var last []Entry
	for {
		select {
		case last = <-snapshots:
			if len(last) >= want && allFinal(last) {
				return last
			}
		case <-deadline:
			return last
		}
	}
}

func allFinal(entries []Entry) bool {
	for _, e := range entries {
		if !e.IsFinal {
			return false
		}
	}
	return len(entries) > 0
}

func TestSessionTranscribesFullTurn(t *testing.T) {
	transport := newFakeTransport()
	session, _, _, snapshots := newTestSession(t, transport)
	if err := session.Start(); err != nil {
		t.Fatalf("Start() = %v", err)
	}

	transport.events <- PartialTranscriptEvent{Role: RoleUser, Text: "Hej"}
	transport.events <- PartialTranscriptEvent{Role: RoleModel, Text: "Hej där"}
	transport.events <- TurnCompleteEvent{}

	entries := lastSnapshot(t, snapshots, 2)
	want := []Entry{
		{Role: RoleUser, Text: "Hej", IsFinal: true},
		{Role: RoleModel, Text: "Hej där", IsFinal: true},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(entries), len(want), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}

	session.Close()
	waitDone(t, session)
}

func TestSessionEnqueuesAudioAndInterrupts(t *testing.T) {
	transport := newFakeTransport()
	session, _, out, _ := newTestSession(t, transport)
	if err := session.Start(); err != nil {
		t.Fatalf("Start() = %v", err)
	}

	transport.events <- AudioChunkEvent{Data: EncodeFrame(make([]float32, 2400))}
	transport.events <- AudioChunkEvent{Data: EncodeFrame(make([]float32, 2400))}

	waitFor(t, func() bool { return session.scheduler.ActiveCount() == 2 })

	transport.events <- InterruptedEvent{}
	waitFor(t, func() bool { return session.scheduler.ActiveCount() == 0 })
	if next := session.scheduler.NextStartTime(); next != 0 {
		t.Errorf("NextStartTime() = %v after interrupt, want 0", next)
	}

	session.Close()
	waitDone(t, session)

	if got := len(out.started); got != 2 {
		t.Errorf("started %d sources, want 2", got)
	}
	for i, src := range out.started {
		if !src.stopped {
			t.Errorf("source %d not stopped by interrupt", i)
		}
	}
}

func TestSessionSkipsMalformedAudioChunk(t *testing.T) {
	transport := newFakeTransport()
	session, _, _, snapshots := newTestSession(t, transport)
	if err := session.Start(); err != nil {
		t.Fatalf("Start() = %v", err)
	}

	transport.events <- AudioChunkEvent{Data: "not base64!!"}
	transport.events <- PartialTranscriptEvent{Role: RoleModel, Text: "still here"}

	entries := lastSnapshot(t, snapshots, 1)
	if len(entries) != 1 || entries[0].Text != "still here" {
		t.Fatalf("stream did not continue past bad chunk: %+v", entries)
	}
	if session.scheduler.ActiveCount() != 0 {
		t.Errorf("bad chunk was scheduled")
	}

	session.Close()
	waitDone(t, session)
}

func TestSessionStartFailureReleasesEverything(t *testing.T) {
	transport := newFakeTransport()
	source := &fakeSource{startErr: errors.New("mic denied")}
	capture := NewCapture(source, func(EncodedFrame) {})
	session := NewSession(SessionParams{
		Transport: transport,
		Capture:   capture,
		Scheduler: NewScheduler(&fakeClock{}, &fakeOutput{}),
	})

	if err := session.Start(); err == nil {
		t.Fatal("Start() succeeded with failing source")
	}
	if transport.closeCount() == 0 {
		t.Error("transport was not closed after capture failure")
	}
	waitDone(t, session)
}

func TestSessionErrorEventTearsDown(t *testing.T) {
	transport := newFakeTransport()
	session, source, _, _ := newTestSession(t, transport)

	var gotErr error
	session.callbacks.OnError = func(err error) { gotErr = err }

	if err := session.Start(); err != nil {
		t.Fatalf("Start() = %v", err)
	}

	transport.events <- ErrorEvent{Err: errors.New("connection reset")}
	waitDone(t, session)

	if gotErr == nil {
		t.Error("OnError was not invoked")
	}
	if source.stops == 0 {
		t.Error("capture source still running after error teardown")
	}
	if transport.closeCount() == 0 {
		t.Error("transport still open after error teardown")
	}
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	transport := newFakeTransport()
	session, source, _, _ := newTestSession(t, transport)
	if err := session.Start(); err != nil {
		t.Fatalf("Start() = %v", err)
	}

	session.Close()
	session.Close()
	waitDone(t, session)

	if got := transport.closeCount(); got != 1 {
		t.Errorf("transport closed %d times, want 1", got)
	}
	if source.stops != 1 {
		t.Errorf("capture source stopped %d times, want 1", source.stops)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached")
}
