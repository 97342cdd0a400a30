package events

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-json-experiment/json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/hlog"

	eventService "github.com/zhouzirui/recordhub/backend/internal/service/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Handler 变更订阅的WebSocket处理器
type Handler struct {
	hub      *eventService.Hub
	upgrader websocket.Upgrader
}

// New 创建变更订阅处理器
func New(hub *eventService.Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册变更订阅路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.handleEvents)
}

// handleEvents 升级为WebSocket并推送记录变更
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	logger := hlog.FromRequest(r)
	collection := strings.TrimSpace(r.URL.Query().Get("collection"))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已经写回错误响应
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := h.hub.Subscribe(collection)
	defer h.hub.Unsubscribe(sub)

	logger.Info().Str("collection", collection).Msg("change feed subscriber connected")
	defer func() {
		logger.Info().Str("collection", collection).Msg("change feed subscriber disconnected")
	}()

	// 读循环只处理 pong 与关闭帧
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				logger.Error().Err(err).Str("collection", ev.Collection).Msg("encode change event")
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Debug().Err(err).Msg("change feed write failed")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
