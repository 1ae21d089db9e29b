package notify

import (
	"context"
	"errors"
	"net/http"
	"time"

	"itinera/logx"
	"itinera/utils"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var errFull = errors.New("broadcast queue full")

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Authorizer decides whether a user may listen on a room.
type Authorizer func(ctx context.Context, userID, room string) error

// WebSocketHandler upgrades the request and subscribes the caller to the
// room named by the :id parameter. It expects Authenticate to run first.
func WebSocketHandler(hub *Hub, authorize Authorizer) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room := ps.ByName("id")
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if authorize != nil {
			if err := authorize(r.Context(), userID, room); err != nil {
				utils.RespondWithError(w, http.StatusForbidden, "forbidden")
				return
			}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error("upgrade", err, "room", room)
			return
		}

		client := &Client{
			Send:   make(chan []byte, 32),
			Room:   room,
			UserID: userID,
		}
		if !hub.Register(client) {
			conn.Close()
			return
		}
		logx.Debug("ws joined", "room", room, "user", userID)
		go writePump(conn, client)
		go readPump(conn, client, hub)
	}
}

func writePump(conn *websocket.Conn, c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only drains control frames; clients never send notices.
func readPump(conn *websocket.Conn, c *Client, hub *Hub) {
	defer func() {
		hub.Unregister(c)
		conn.Close()
	}()
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
