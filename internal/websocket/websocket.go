package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"typing-server/internal/types"
	"typing-server/pkg/config"
)

const writeWait = 5 * time.Second

// TextFunc returns the message announcing the current practice text
type TextFunc func() types.WSMessage

// Handler upgrades /ws connections. The current text is sent first; a client
// can ask for it again with {"action": "reload"}.
func Handler(current TextFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		upgrader := config.GetUpgrader()
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logrus.WithError(err).Error("Failed to upgrade WebSocket connection")
			return
		}
		defer conn.Close()

		client := &types.WSClient{Conn: conn}

		// Add client to global map
		config.AddWSClient(client)
		defer config.RemoveWSClient(client)

		logrus.WithField("remote", r.RemoteAddr).Info("New WebSocket client connected")

		send(client, current())

		// Handle client messages
		for {
			var msg types.WSClientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logrus.WithError(err).Error("WebSocket error")
				}
				break
			}

			logrus.WithField("action", msg.Action).Debug("WebSocket message received")

			switch msg.Action {
			case "reload":
				send(client, current())
			default:
				send(client, types.WSMessage{Type: "error", Message: "unknown action"})
			}
		}

		logrus.WithField("remote", r.RemoteAddr).Info("WebSocket client disconnected")
	}
}

// BroadcastToAll sends a message to all WebSocket clients
func BroadcastToAll(msg types.WSMessage) {
	clients := config.GetWSClients()

	logrus.WithFields(logrus.Fields{
		"message_type": msg.Type,
		"client_count": len(clients),
	}).Info("Broadcasting message to WebSocket clients")

	for client := range clients {
		go send(client, msg)
	}
}

// CloseAll sends a close frame to every client so their read loops end
func CloseAll() {
	for client := range config.GetWSClients() {
		client.Mu.Lock()
		client.Conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait),
		)
		client.Mu.Unlock()
	}
}

func send(c *types.WSClient, msg types.WSMessage) {
	c.Mu.Lock()
	defer c.Mu.Unlock()

	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.Conn.WriteJSON(msg); err != nil {
		logrus.WithError(err).Error("Failed to send WebSocket message to client")
		return
	}
	logrus.WithField("message_type", msg.Type).Debug("Successfully sent WebSocket message to client")
}
