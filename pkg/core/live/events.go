package live

// ServerEvent is the interface for events received from the realtime
// connection. Events are immutable once decoded and are dispatched to the
// session strictly in arrival order.
type ServerEvent interface {
	// EventType returns the event type string for logging.
	EventType() string
}

// PartialTranscriptEvent carries a streamed transcription fragment for one
// speaker role.
type PartialTranscriptEvent struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

func (e PartialTranscriptEvent) EventType() string { return "transcript.partial" }

// TurnCompleteEvent signals that one conversational exchange is finished.
type TurnCompleteEvent struct{}

func (e TurnCompleteEvent) EventType() string { return "turn.complete" }

// AudioChunkEvent carries one base64-encoded block of synthesized model
// speech (16-bit PCM at the output sample rate).
type AudioChunkEvent struct {
	Data string `json:"data"`
}

func (e AudioChunkEvent) EventType() string { return "audio.chunk" }

// InterruptedEvent signals that the user barged in over model speech and
// pending playback must be cancelled.
type InterruptedEvent struct{}

func (e InterruptedEvent) EventType() string { return "interrupted" }

// ErrorEvent carries a connection-level error.
type ErrorEvent struct {
	Err error `json:"-"`
}

func (e ErrorEvent) EventType() string { return "error" }

// ClosedEvent signals that the connection has closed.
type ClosedEvent struct {
	Code   int    `json:"code,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func (e ClosedEvent) EventType() string { return "closed" }
