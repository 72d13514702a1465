// Package chat implements the connection registry and message-routing engine
// of the whisperchat service.
//
// A Connection is created when a transport stream opens. It runs nick
// negotiation, then either enters the broadcast router directly or assembles a
// whisper group first and enters a router scoped to that group. Reply mode and
// one-shot replies resolve targets against the full ConnectionRegistry, so a
// whisper-scoped router can still reach connections outside its group.
//
// The package knows nothing about websockets. The transport supplies a Stream
// for inbound frames and a Sink for outbound text.
package chat
