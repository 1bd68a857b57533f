package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"tinyuno/internal/logging"
	"tinyuno/internal/room"
)

const (
	pingInterval = 15 * time.Second
	sendBuffer   = 64
	readLimit    = 64 << 10
)

// ServeWS upgrades the request and runs one player connection until either
// side goes away.
func (h *Handler) ServeWS(c *gin.Context) {
	r := c.Request
	if !h.originAllowed(r.Header.Get("Origin")) {
		c.String(http.StatusForbidden, "forbidden origin")
		return
	}

	conn, err := websocket.Accept(c.Writer, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.log.Warn("websocket accept", zap.Error(err), zap.String("ip", ClientIP(r)))
		return
	}
	conn.SetReadLimit(readLimit)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := room.NewClient(sendBuffer)
	sess := room.NewSession(h.Registry, client)
	defer sess.Close()

	log := h.log.With(zap.String("ip", ClientIP(r)))
	log.Debug("client connected")

	go h.writeLoop(ctx, cancel, conn, client, log)

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				log.Debug("read", zap.Error(err))
			}
			break
		}
		if typ != websocket.MessageText {
			continue
		}
		if err := sess.Handle(ctx, data); err != nil {
			logging.Debugf("player %s: %v", sess.PlayerID(), err)
		}
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
	log.Debug("client disconnected", zap.String("player", sess.PlayerID()))
}

// writeLoop drains the client's queue onto the socket and keeps the
// connection alive with pings.
func (h *Handler) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, client *room.Client, log *zap.Logger) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case <-client.Done():
			_ = conn.Close(websocket.StatusPolicyViolation, "closed by server")
			return
		case msg := <-client.Outbound():
			wctx, wcancel := context.WithTimeout(ctx, h.opts.SendTimeout)
			err := conn.Write(wctx, websocket.MessageText, msg)
			wcancel()
			if err != nil {
				log.Debug("write", zap.Error(err))
				return
			}
		case <-ping.C:
			pctx, pcancel := context.WithTimeout(ctx, h.opts.SendTimeout)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				log.Debug("ping", zap.Error(err))
				return
			}
		}
	}
}
