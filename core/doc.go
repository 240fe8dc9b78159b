// Package voicechat glues a voice ordering session together: microphone
// capture feeding a backend session, synthesized speech feeding the
// speakers, and a conversation aggregator deriving the transcript and the
// live order summary from the session's event stream.
//
// The backend is chosen at construction time. Both backends expose the same
// session surface, so everything in this package is backend-agnostic.
package voicechat
