// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, telemetry, and the built-in test page.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-metrics"
	"go.uber.org/zap"

	"github.com/Tyrowin/whisperchat/internal/chat"
)

// WebSocketHandler handles WebSocket upgrade requests for one chat mode.
// It validates that the request uses the GET method, upgrades the HTTP
// connection to WebSocket, creates a new Client instance, and attaches it to
// the hub.
func WebSocketHandler(hub *Hub, mode chat.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
			return
		}

		conn, err := hub.upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.logger.Info("WebSocket upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
			return
		}

		hub.Attach(NewClient(conn, hub.cfg, r.RemoteAddr, hub.logger), mode)
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
// It responds with a plain text message indicating the server is running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "whisperchat server is running!")
}

// MetricsHandler serves the in-memory telemetry snapshot as JSON.
func MetricsHandler(sink *metrics.InmemSink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := sink.DisplayMetrics(w, r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(summary)
	}
}

// TestPageHandler serves an HTML page for trying the text protocol by hand.
// It can open either the plain chat or the whisper endpoint.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	html := `<!DOCTYPE html>
<html>
<head>
    <title>whisperchat</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 360px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
            white-space: pre-wrap;
        }
        input[type="text"] { width: 300px; padding: 5px; margin-right: 10px; }
        button { padding: 5px 15px; background-color: #007cba; color: white; border: none; cursor: pointer; }
        button:hover { background-color: #005a87; }
        .status { margin: 10px 0; padding: 5px; border-radius: 3px; }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>whisperchat</h1>

    <div id="status" class="status disconnected">Disconnected</div>

    <div>
        <select id="mode">
            <option value="chat">chat</option>
            <option value="whisper">whisper</option>
        </select>
        <button id="connectButton" onclick="toggleConnection()">Connect</button>
    </div>
    <div>
        <input type="text" id="messageInput" placeholder="Type a message or command..." disabled>
        <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
    </div>

    <div id="messages"></div>

    <script>
        let ws = null;
        const messagesDiv = document.getElementById('messages');
        const messageInput = document.getElementById('messageInput');
        const sendButton = document.getElementById('sendButton');
        const connectButton = document.getElementById('connectButton');
        const statusDiv = document.getElementById('status');

        function addMessage(message, color) {
            const el = document.createElement('div');
            el.style.margin = '5px 0';
            el.style.color = color || 'black';
            el.textContent = message;
            messagesDiv.appendChild(el);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function updateStatus(connected) {
            statusDiv.textContent = connected ? 'Connected' : 'Disconnected';
            statusDiv.className = 'status ' + (connected ? 'connected' : 'disconnected');
            messageInput.disabled = !connected;
            sendButton.disabled = !connected;
            connectButton.textContent = connected ? 'Disconnect' : 'Connect';
        }

        function toggleConnection() {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.close();
                return;
            }
            const mode = document.getElementById('mode').value;
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/' + mode);
            ws.onopen = function() { updateStatus(true); };
            ws.onmessage = function(event) { addMessage(event.data, 'green'); };
            ws.onclose = function() { addMessage('Connection closed', 'gray'); updateStatus(false); ws = null; };
            ws.onerror = function() { addMessage('Connection error', 'gray'); };
        }

        function sendMessage() {
            const message = messageInput.value;
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.send(message);
                addMessage('> ' + message, 'blue');
                messageInput.value = '';
            }
        }

        messageInput.addEventListener('keypress', function(e) {
            if (e.key === 'Enter') {
                sendMessage();
            }
        });
    </script>
</body>
</html>`
	_, _ = fmt.Fprint(w, html)
}
