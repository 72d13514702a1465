// Package server wires HTTP handlers into a ServeMux for the whisperchat
// application via routing helpers.
package server

import (
	"net/http"

	"github.com/hashicorp/go-metrics"

	"github.com/Tyrowin/whisperchat/internal/chat"
)

// SetupRoutes configures and returns an HTTP ServeMux with all application
// routes. The /metrics route is mounted only when sink is non-nil.
func SetupRoutes(hub *Hub, sink *metrics.InmemSink) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", HealthHandler)
	mux.HandleFunc("/health", HealthHandler)
	mux.HandleFunc("/chat", WebSocketHandler(hub, chat.ModeChat))
	mux.HandleFunc("/whisper", WebSocketHandler(hub, chat.ModeWhisper))
	mux.HandleFunc("/test", TestPageHandler)
	if sink != nil {
		mux.HandleFunc("/metrics", MetricsHandler(sink))
	}
	return mux
}
