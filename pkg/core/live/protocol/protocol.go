// Package protocol is the wire codec for the realtime voice connection.
// It marshals outbound setup and media frames and decodes inbound server
// messages into the session's tagged event variants.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/halsning/halsning-go/pkg/core/live"
)

// DecodeError reports an inbound frame the codec could not interpret. The
// dispatch loop skips such frames; they never terminate the session.
type DecodeError struct {
	Message string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func badFrame(format string, args ...any) *DecodeError {
	return &DecodeError{Message: fmt.Sprintf(format, args...)}
}

// PrebuiltVoiceConfig names a hosted voice.
type PrebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

// VoiceConfig wraps the voice selection.
type VoiceConfig struct {
	PrebuiltVoiceConfig PrebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

// SpeechConfig configures synthesized speech.
type SpeechConfig struct {
	VoiceConfig VoiceConfig `json:"voiceConfig"`
}

// GenerationConfig carries the response modality request.
type GenerationConfig struct {
	ResponseModalities []string      `json:"responseModalities"`
	SpeechConfig       *SpeechConfig `json:"speechConfig,omitempty"`
}

// TextPart is a text fragment inside a content message.
type TextPart struct {
	Text string `json:"text"`
}

// SystemInstruction carries the session system prompt.
type SystemInstruction struct {
	Parts []TextPart `json:"parts"`
}

// Setup is the first client frame on a new connection.
type Setup struct {
	Model                    string             `json:"model"`
	GenerationConfig         GenerationConfig   `json:"generationConfig"`
	SystemInstruction        *SystemInstruction `json:"systemInstruction,omitempty"`
	InputAudioTranscription  struct{}           `json:"inputAudioTranscription"`
	OutputAudioTranscription struct{}           `json:"outputAudioTranscription"`
}

// ClientSetup is the envelope for Setup.
type ClientSetup struct {
	Setup Setup `json:"setup"`
}

// MediaBlob is one base64 PCM frame with its mime type.
type MediaBlob struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// RealtimeInput carries one outbound microphone frame.
type RealtimeInput struct {
	Media MediaBlob `json:"media"`
}

// ClientRealtimeInput is the envelope for RealtimeInput.
type ClientRealtimeInput struct {
	RealtimeInput RealtimeInput `json:"realtimeInput"`
}

// NewRealtimeInput wraps an encoded capture frame for the wire.
func NewRealtimeInput(frame live.EncodedFrame) ClientRealtimeInput {
	return ClientRealtimeInput{
		RealtimeInput: RealtimeInput{
			Media: MediaBlob{Data: frame.Data, MimeType: frame.MIMEType},
		},
	}
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type serverPart struct {
	InlineData *inlineData `json:"inlineData,omitempty"`
	Text       string      `json:"text,omitempty"`
}

type modelTurn struct {
	Parts []serverPart `json:"parts"`
}

type transcription struct {
	Text string `json:"text"`
}

type serverContent struct {
	ModelTurn           *modelTurn     `json:"modelTurn,omitempty"`
	InputTranscription  *transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *transcription `json:"outputTranscription,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
}

type serverMessage struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *serverContent `json:"serverContent,omitempty"`
}

// DecodeServerMessage decodes one inbound frame into zero or more session
// events, in the order they must be dispatched: transcription fragments,
// synthesized audio, turn completion, interruption. A setupComplete frame
// decodes to (nil, true, nil).
func DecodeServerMessage(data []byte) (events []live.ServerEvent, setupComplete bool, err error) {
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, false, badFrame("decode server frame: %v", err)
	}

	if msg.SetupComplete != nil {
		return nil, true, nil
	}
	sc := msg.ServerContent
	if sc == nil {
		return nil, false, badFrame("server frame carries neither setupComplete nor serverContent")
	}

	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		events = append(events, live.PartialTranscriptEvent{Role: live.RoleUser, Text: sc.InputTranscription.Text})
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		events = append(events, live.PartialTranscriptEvent{Role: live.RoleModel, Text: sc.OutputTranscription.Text})
	}
	if sc.ModelTurn != nil && len(sc.ModelTurn.Parts) > 0 {
		if inline := sc.ModelTurn.Parts[0].InlineData; inline != nil && inline.Data != "" {
			events = append(events, live.AudioChunkEvent{Data: inline.Data})
		}
	}
	if sc.TurnComplete {
		events = append(events, live.TurnCompleteEvent{})
	}
	if sc.Interrupted {
		events = append(events, live.InterruptedEvent{})
	}
	return events, false, nil
}
