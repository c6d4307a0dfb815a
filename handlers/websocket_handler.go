package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/league-bracket/brackets"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub      *brackets.Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler принимает список разрешенных Origin; "*" разрешает все.
func NewWebSocketHandler(hub *brackets.Hub, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // не браузер
		}
		_, ok := set[origin]
		return ok
	}
}

// ServeWs подключает клиента к комнате чемпионата.
// Клиент должен подключаться к /ws/championships/{championshipID}
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	championshipID, err := getIDFromURL(r, "championshipID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader.Upgrade сам отправляет HTTP ошибку клиенту, так что здесь просто логируем.
		slog.WarnContext(r.Context(), "websocket upgrade failed", slog.Int("championship_id", championshipID), slog.Any("error", err))
		return
	}

	room := brackets.RoomForChampionship(championshipID)
	client := brackets.NewClient(h.hub, conn, room)
	if !h.hub.Join(client) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	// Горутины работают, пока клиент не отключится.
	go client.WritePump()
	go client.ReadPump()
}
