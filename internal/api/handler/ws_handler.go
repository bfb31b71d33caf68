package handler

import (
	"context"
	log "log/slog"
	"net/http"
	"time"

	"Townhall/internal/pkg/consts"
	"Townhall/internal/pkg/realtime"
	"Townhall/internal/pkg/response"
	"Townhall/internal/pkg/security"
	"Townhall/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsReadLimit  = 512
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WsHandler struct {
	hub       *realtime.Hub
	viewerSvc service.ViewerService
}

func NewWsHandler(hub *realtime.Hub, viewerSvc service.ViewerService) *WsHandler {
	return &WsHandler{hub: hub, viewerSvc: viewerSvc}
}

// Connect authenticates with ?token=, then streams the broadcast, department and personal channels
func (s *WsHandler) Connect(c *gin.Context) {
	ctx := c.Request.Context()

	token := c.Query("token")
	if token == "" {
		token, _ = security.BearerToken(c.GetHeader("Authorization"))
	}
	if token == "" {
		response.Error(c, service.UnauthorizedError)
		return
	}
	claims, err := security.ValidateToken(token)
	if err != nil {
		log.WarnContext(ctx, "ws auth failed", "err", err)
		response.Error(c, service.UnauthorizedError)
		return
	}
	viewer, err := s.viewerSvc.Resolve(ctx, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.ErrorContext(ctx, "ws upgrade failed", "err", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	channels := []string{consts.ChannelBroadcast, consts.UserChannel(viewer.ID)}
	if viewer.Department != "" {
		channels = append(channels, consts.DepartmentChannel(viewer.Department))
	}

	// the request context ends with the handler; hub membership outlives it until the socket closes
	hubCtx := context.WithoutCancel(ctx)
	client := realtime.NewClient(viewer.ID)
	if err = s.hub.Register(hubCtx, client, channels...); err != nil {
		log.ErrorContext(ctx, "ws register failed", "user_id", viewer.ID, "err", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"),
			time.Now().Add(wsWriteWait))
		return
	}
	defer s.hub.Unregister(hubCtx, client)

	log.InfoContext(ctx, "ws connected", "user_id", viewer.ID, "channels", channels)

	stopChan := make(chan struct{})
	go readPump(conn, stopChan)

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-client.Send():
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.WarnContext(ctx, "ws push failed", "user_id", viewer.ID, "err", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-stopChan:
			log.InfoContext(ctx, "ws disconnected", "user_id", viewer.ID)
			return
		}
	}
}

// readPump drains client frames so pongs and close frames are processed
func readPump(conn *websocket.Conn, stop chan<- struct{}) {
	defer close(stop)
	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
