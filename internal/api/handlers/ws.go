package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/dietdash/internal/callbacks"
	"github.com/wonny/dietdash/pkg/logger"
)

const (
	pingInterval   = 30 * time.Second
	pongWait       = 60 * time.Second
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

// Dispatcher recomputes outputs for changed controls
type Dispatcher interface {
	Dispatch(ctx context.Context, u callbacks.Update) (callbacks.Result, error)
}

// WSHandler pushes recomputed outputs over a WebSocket.
// Each text message is one Update; each reply is one UpdateResponse.
type WSHandler struct {
	dispatcher Dispatcher
	upgrader   websocket.Upgrader
	logger     *logger.Logger
}

// NewWSHandler creates a new WebSocket handler
func NewWSHandler(d Dispatcher, log *logger.Logger) *WSHandler {
	return &WSHandler{
		dispatcher: d,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger: log.Component("ws"),
	}
}

// ServeHTTP upgrades the connection and serves updates until the
// client goes away
// GET /ws
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	log := h.logger.WithField("remote", r.RemoteAddr)
	log.Debug("WebSocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var writeMu sync.Mutex
	write := func(msg UpdateResponse) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(msg)
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go h.pingLoop(ctx, conn, &writeMu)

	for {
		var u callbacks.Update
		if err := conn.ReadJSON(&u); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("WebSocket read failed")
			}
			return
		}

		res, err := h.dispatcher.Dispatch(ctx, u)
		msg := UpdateResponse{Outputs: res}
		if err != nil {
			if statusFor(err) == http.StatusInternalServerError {
				log.WithError(err).Error("Update failed")
			}
			msg = UpdateResponse{Error: err.Error()}
		}

		if err := write(msg); err != nil {
			log.WithError(err).Warn("WebSocket write failed")
			return
		}
	}
}

// pingLoop keeps the read deadline alive on idle connections
func (h *WSHandler) pingLoop(ctx context.Context, conn *websocket.Conn, mu *sync.Mutex) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
