// Package server implements the HTTP and WebSocket transport for whisperchat.
//
// The implementation is organized into specialized files for configuration, hub
// management, clients, routing, and HTTP handlers. The chat semantics live in
// package chat; this package only adapts gorilla/websocket connections into
// chat.Stream and chat.Sink and manages their goroutines.
package server
