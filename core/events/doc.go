// Package events defines the typed protocol event contract shared by both
// backend adapters and every subscriber of a session.
//
// Events are immutable once constructed. Each carries the wire kind it was
// decoded from (or synthesized as) and a construction timestamp. Kinds mirror
// the backend-agnostic wire vocabulary:
//
//   - AudioDelta (audio.delta): one synthesized speech chunk from the
//     assistant, routed straight to playback.
//   - SpeechStarted (input_audio.speech_started): the peer detected the user
//     talking; playback must be cut off.
//   - TranscriptionCompleted (input_audio.transcription_completed): final
//     transcript of one user utterance.
//   - ResponseDone (response.done): the assistant turn completed; carries the
//     structured output item list with optional per-item transcripts.
//   - ToolResponse (tool.response): result of a tool invocation surfaced by
//     the backend, e.g. an update_order payload.
//   - SessionConfigured (session.configured): handshake acknowledgment;
//     consumed by adapters, never observed by subscribers.
//   - Error (error): a recoverable or fatal diagnostic.
//   - Unhandled (unhandled): any wire kind this build does not understand;
//     forward-compatible backends must not break the session.
package events
