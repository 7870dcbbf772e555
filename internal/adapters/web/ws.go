package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"dukaan-agent/internal/session"
)

// upgrader mirrors the teacher's permissive local-dev settings: CheckOrigin
// accepts every origin, and the CORS middleware in front of the route only sets
// response headers, so no origin is rejected.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const wsPongWait = 60 * time.Second

// wireFrame is the JSON shape of a control frame sent by the client. Binary
// WebSocket messages bypass this envelope entirely and are treated as raw
// audio chunks.
type wireFrame struct {
	Kind     string `json:"kind"`
	Text     string `json:"text,omitempty"`
	Language string `json:"language,omitempty"`
	Format   string `json:"format,omitempty"`
}

// wsConn adapts a gorilla/websocket connection to session.Conn.
type wsConn struct {
	ws *websocket.Conn
}

func (c *wsConn) ReadFrame(ctx context.Context) (session.Frame, error) {
	kind, data, err := c.ws.ReadMessage()
	if err != nil {
		return session.Frame{}, err
	}
	if kind == websocket.BinaryMessage {
		return session.Frame{Kind: session.FrameAudio, Audio: data}, nil
	}

	var wf wireFrame
	if err := json.Unmarshal(data, &wf); err != nil {
		return session.Frame{}, err
	}
	return session.Frame{Kind: wf.Kind, Text: wf.Text, Language: wf.Language, Format: wf.Format}, nil
}

func (c *wsConn) Send(ctx context.Context, event session.Event) error {
	return c.ws.WriteJSON(event)
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}

// voiceWebSocket upgrades the connection and hands it to the session
// controller for the lifetime of the socket. shopID comes from the server's
// own configuration (single-shop process); sessionID is taken from the
// client-supplied query parameter when present, so a reconnect can resume the
// same conversation, or freshly generated otherwise.
func (h *Handler) voiceWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	h.ctrl.HandleConnection(r.Context(), h.shopID, sessionID, &wsConn{ws: conn})
}
