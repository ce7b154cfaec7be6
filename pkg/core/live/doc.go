// Package live implements the client side of a real-time voice conversation
// with the hosted generative API.
//
// The remote endpoint owns speech understanding, turn detection and speech
// synthesis; this package owns everything between the microphone and the
// speaker on the user's machine.
//
// # Architecture
//
//   - Session: owns the transport connection, the capture pipeline and the
//     playback scheduler for one conversation
//   - Capture: pulls fixed-size microphone frames and forwards them encoded
//   - Scheduler: queues decoded audio chunks for gapless playback and
//     cancels them all on barge-in
//   - Transcript: merges streamed partial transcription fragments into
//     per-role entries, finalized on turn completion
//   - protocol: wire codec for the realtime websocket frames
//
// # Data Flow
//
//	Mic → Capture → PCM encode → Transport ──────────────► remote API
//	Speaker ← Scheduler ← PCM decode ← Transport ◄──────── remote API
//	UI      ← Transcript ◄─ transcription events ◄──────── remote API
//
// All inbound server events are dispatched by a single goroutine in arrival
// order, so scheduler and transcript state never see concurrent mutation
// from the network side. Capture runs on the audio device's own callback
// and hands frames off without blocking.
package live
