// Package protocol translates wire messages to and from typed session
// events. It is pure: decoding never fails the caller. Unknown message kinds
// become Unhandled events so newer backends cannot break an older client,
// and malformed payloads become Error events carrying a diagnostic.
package protocol
