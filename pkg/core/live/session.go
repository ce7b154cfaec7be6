package live

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Transport is the session's view of the realtime connection. Send is
// fire-and-forget; Events yields inbound server events strictly in arrival
// order and is closed when the connection ends; Close is idempotent.
type Transport interface {
	Send(frame EncodedFrame)
	Events() <-chan ServerEvent
	Close() error
}

// Callbacks surface session activity to the UI collaborator. All callbacks
// are optional and are invoked from the session's single dispatch goroutine,
// never concurrently.
type Callbacks struct {
	// OnOpen fires once the connection handshake has completed.
	OnOpen func()
	// OnEvent fires for every inbound server event, before it is applied.
	OnEvent func(ServerEvent)
	// OnTranscript fires with a snapshot after every transcript change.
	OnTranscript func([]Entry)
	// OnError fires on a transport error; teardown follows automatically.
	OnError func(error)
	// OnClose fires when the connection has closed.
	OnClose func(ClosedEvent)
}

// Session owns all resources of one live conversation: the transport
// connection, the microphone capture pipeline and the playback scheduler.
// Created on session start, destroyed on stop or unrecoverable error; at
// most one session is active at a time (enforced by the SDK service).
type Session struct {
	id         string
	transport  Transport
	capture    *Capture
	scheduler  *Scheduler
	transcript *Transcript
	callbacks  Callbacks
	logger     *slog.Logger

	// releaseOutput closes the audio output device during teardown.
	releaseOutput func()

	done      chan struct{}
	closeOnce sync.Once
}

// SessionParams wires a session's collaborators together.
type SessionParams struct {
	Transport Transport
	Capture   *Capture
	Scheduler *Scheduler
	Callbacks Callbacks
	Logger    *slog.Logger

	// ReleaseOutput releases the playback device on teardown. Optional.
	ReleaseOutput func()
}

// NewSession creates a session. Start must be called to begin streaming.
func NewSession(p SessionParams) *Session {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		id:            uuid.NewString(),
		transport:     p.Transport,
		capture:       p.Capture,
		scheduler:     p.Scheduler,
		transcript:    NewTranscript(),
		callbacks:     p.Callbacks,
		logger:        logger,
		releaseOutput: p.ReleaseOutput,
		done:          make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Transcript returns the session's transcription aggregator.
func (s *Session) Transcript() *Transcript { return s.transcript }

// Start acquires the microphone and begins dispatching inbound events. A
// capture failure (denied permission, no device) is terminal for this
// session attempt: everything already opened is torn down and the error is
// returned.
func (s *Session) Start() error {
	if err := s.capture.Start(); err != nil {
		s.Close()
		return err
	}
	go s.dispatchLoop()
	return nil
}

// dispatchLoop applies inbound server events one at a time, in arrival
// order. All mutations of playback and transcript state happen here (plus
// explicit Close), so the components never race.
func (s *Session) dispatchLoop() {
	for event := range s.transport.Events() {
		if s.callbacks.OnEvent != nil {
			s.callbacks.OnEvent(event)
		}

		switch e := event.(type) {
		case PartialTranscriptEvent:
			s.transcript.Append(e.Role, e.Text)
			s.notifyTranscript()

		case TurnCompleteEvent:
			s.transcript.Finalize(RoleUser)
			s.transcript.Finalize(RoleModel)
			s.notifyTranscript()

		case AudioChunkEvent:
			chans, truncated, err := DecodeFrame(e.Data, 1)
			if err != nil {
				// A malformed chunk is skipped; the stream continues.
				s.logger.Warn("skipping undecodable audio chunk", "session", s.id, "error", err)
				continue
			}
			if truncated > 0 {
				s.logger.Debug("audio chunk carried a partial frame", "session", s.id, "truncated_bytes", truncated)
			}
			s.scheduler.Enqueue(SamplesToBytes(chans[0]))

		case InterruptedEvent:
			s.scheduler.Interrupt()

		case ErrorEvent:
			if s.callbacks.OnError != nil {
				s.callbacks.OnError(e.Err)
			}
			s.Close()

		case ClosedEvent:
			if s.callbacks.OnClose != nil {
				s.callbacks.OnClose(e)
			}
		}
	}

	// Connection gone; make sure local resources are released even if the
	// user never clicked stop.
	s.Close()
}

func (s *Session) notifyTranscript() {
	if s.callbacks.OnTranscript != nil {
		s.callbacks.OnTranscript(s.transcript.Entries())
	}
}

// Close tears the session down: capture first (release the microphone),
// then the connection, then playback. Best effort, idempotent, and safe to
// call from any goroutine at any time, including mid-handshake.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.capture.Stop()
		if err := s.transport.Close(); err != nil {
			s.logger.Debug("transport close", "session", s.id, "error", err)
		}
		s.scheduler.Interrupt()
		if s.releaseOutput != nil {
			s.releaseOutput()
		}
		close(s.done)
	})
}

// Done is closed once the session has been fully torn down.
func (s *Session) Done() <-chan struct{} { return s.done }
